package render

import (
	"sync"
	"time"

	"github.com/san-kum/doodle/internal/clock"
)

// Scheduler calls fn once per tick of a clock ticker on a single goroutine.
// Stop blocks until that goroutine has exited, so fn never runs after Stop
// returns. fn must not call Stop.
type Scheduler struct {
	clock    clock.Clock
	interval time.Duration
	fn       func(now time.Time)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewScheduler(c clock.Clock, interval time.Duration, fn func(now time.Time)) *Scheduler {
	if c == nil {
		c = clock.System()
	}
	return &Scheduler{clock: c, interval: interval, fn: fn}
}

func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return ErrBadInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrAlreadyRunning
	}

	ticker := s.clock.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ticker, s.stop, s.done)
	return nil
}

func (s *Scheduler) run(ticker clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			// a tick racing with Stop loses
			select {
			case <-stop:
				return
			default:
			}
			s.fn(now)
		}
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	done := s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	<-done
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}
