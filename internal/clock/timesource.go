package clock

import (
	"errors"
	"sync"
	"time"
)

const (
	// DefaultEpochPeriod is the wall-clock period the epoch offset wraps at.
	DefaultEpochPeriod = 2 * time.Hour
	// DefaultEpochScale is how many seconds of pattern time one full
	// epoch period adds to the time uniform.
	DefaultEpochScale = 1000.0
)

var (
	ErrRunning   = errors.New("clock: time source already running")
	ErrBadPeriod = errors.New("clock: epoch period must be at least one millisecond")
)

// EpochOffset returns the position of t within the wrapping period, in [0,1).
func EpochOffset(t time.Time, period time.Duration) float64 {
	p := period.Milliseconds()
	if p <= 0 {
		return 0
	}
	ms := t.UnixMilli() % p
	if ms < 0 {
		ms += p
	}
	return float64(ms) / float64(p)
}

// TimeSource is the animation clock of one session. It is Stopped until
// Start and returns to Stopped on Stop.
type TimeSource struct {
	clock  Clock
	period time.Duration
	scale  float64

	mu      sync.Mutex
	start   time.Time
	running bool
}

func NewTimeSource(c Clock, period time.Duration, scale float64) (*TimeSource, error) {
	if period < time.Millisecond {
		return nil, ErrBadPeriod
	}
	if c == nil {
		c = System()
	}
	return &TimeSource{clock: c, period: period, scale: scale}, nil
}

func (ts *TimeSource) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.running {
		return ErrRunning
	}
	ts.start = ts.clock.Now()
	ts.running = true
	return nil
}

func (ts *TimeSource) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.running = false
}

func (ts *TimeSource) Running() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.running
}

// Phase returns seconds elapsed since Start, or 0 when stopped.
func (ts *TimeSource) Phase() float64 {
	phase, _ := ts.sample(ts.clock.Now())
	return phase
}

// Time returns the value fed to the time uniform: the session phase plus
// the scaled epoch offset.
func (ts *TimeSource) Time() float64 {
	return ts.TimeAt(ts.clock.Now())
}

// TimeAt is Time evaluated at an explicit instant, typically the tick time.
func (ts *TimeSource) TimeAt(now time.Time) float64 {
	phase, offset := ts.sample(now)
	return phase + ts.scale*offset
}

func (ts *TimeSource) sample(now time.Time) (phase, offset float64) {
	ts.mu.Lock()
	start, running := ts.start, ts.running
	ts.mu.Unlock()

	offset = EpochOffset(now, ts.period)
	if !running {
		return 0, offset
	}
	phase = now.Sub(start).Seconds()
	if phase < 0 {
		phase = 0
	}
	return phase, offset
}
