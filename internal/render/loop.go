package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/doodle/internal/clock"
	"github.com/san-kum/doodle/internal/compute"
	"github.com/san-kum/doodle/internal/metrics"
	"github.com/san-kum/doodle/internal/noise"
	"github.com/san-kum/doodle/internal/shader"
	"github.com/san-kum/doodle/internal/viewport"
)

// DefaultInterval approximates a 60Hz display refresh.
const DefaultInterval = time.Second / 60

// Options configures a Loop. Zero fields take the DefaultOptions values.
type Options struct {
	Palette     noise.Vec3
	Program     *shader.Program
	Clock       clock.Clock
	EpochPeriod time.Duration
	EpochScale  float64
	// NoEpochDrift pins pattern time to the session phase, ignoring
	// EpochScale.
	NoEpochDrift bool
	// Interval is the self-driven tick period. Zero means the host drives
	// the session by calling Tick.
	Interval time.Duration
	Logger   *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Palette:     shader.DefaultPaletteConstant,
		Program:     shader.NewProgram(),
		Clock:       clock.System(),
		EpochPeriod: clock.DefaultEpochPeriod,
		EpochScale:  clock.DefaultEpochScale,
		Interval:    DefaultInterval,
		Logger:      slog.Default(),
	}
}

// Loop is one rendering session mounted on a surface.
type Loop struct {
	surface  Surface
	observer *viewport.Observer
	backend  compute.Backend
	program  *shader.Program
	palette  noise.Vec3
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
	period   time.Duration
	scale    float64

	mu      sync.Mutex
	id      string
	ts      *clock.TimeSource
	sched   *Scheduler
	quit    chan struct{}
	running atomic.Bool

	// frameMu serializes ticks and guards the buffers below.
	frameMu sync.Mutex
	low     *image.RGBA
	display *image.RGBA
	lastRes viewport.Resolution
	metrics []metrics.Metric
	lastErr error

	ticks  atomic.Uint64
	frames atomic.Uint64
}

func New(surface Surface, observer *viewport.Observer, backend compute.Backend, opts Options) *Loop {
	def := DefaultOptions()
	if opts.Palette == (noise.Vec3{}) {
		opts.Palette = def.Palette
	}
	if opts.EpochScale == 0 {
		opts.EpochScale = def.EpochScale
	}
	if opts.NoEpochDrift {
		opts.EpochScale = 0
	}
	if opts.Program == nil {
		opts.Program = def.Program
	}
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	if opts.EpochPeriod <= 0 {
		opts.EpochPeriod = def.EpochPeriod
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if observer == nil {
		observer = viewport.NewObserver(viewport.DefaultCap)
	}
	return &Loop{
		surface:  surface,
		observer: observer,
		backend:  backend,
		program:  opts.Program,
		palette:  opts.Palette,
		clock:    opts.Clock,
		interval: opts.Interval,
		logger:   opts.Logger,
		period:   opts.EpochPeriod,
		scale:    opts.EpochScale,
	}
}

// AddMetric registers a metric observed after every presented frame.
func (l *Loop) AddMetric(m metrics.Metric) {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	l.metrics = append(l.metrics, m)
}

// Start begins a session. With a positive interval the loop schedules its
// own ticks; otherwise the host calls Tick. Cancelling ctx stops the session.
func (l *Loop) Start(ctx context.Context) error {
	if l.surface == nil {
		return ErrNoSurface
	}
	if l.backend == nil || !l.backend.Available() {
		name := "none"
		if l.backend != nil {
			name = l.backend.Name()
		}
		return fmt.Errorf("%w: backend %s", ErrUnsupportedContext, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() {
		return ErrAlreadyRunning
	}

	ts, err := clock.NewTimeSource(l.clock, l.period, l.scale)
	if err != nil {
		return err
	}
	if err := ts.Start(); err != nil {
		return err
	}

	l.id = uuid.NewString()
	l.ts = ts
	l.ticks.Store(0)
	l.frames.Store(0)
	l.quit = make(chan struct{})
	l.running.Store(true)

	if l.interval > 0 {
		l.sched = NewScheduler(l.clock, l.interval, l.tick)
		if err := l.sched.Start(); err != nil {
			l.running.Store(false)
			ts.Stop()
			return err
		}
	}

	go l.watch(ctx, l.quit)

	l.logger.Info("session started",
		"session", l.id,
		"backend", l.backend.Name(),
		"interval", l.interval,
		"cap", l.observer.Cap(),
	)
	return nil
}

func (l *Loop) watch(ctx context.Context, quit <-chan struct{}) {
	select {
	case <-ctx.Done():
		l.Stop()
	case <-quit:
	}
}

// Stop ends the session. Any scheduled tick is cancelled and any in-flight
// tick has finished by the time Stop returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return
	}
	l.running.Store(false)
	sched, ts, quit := l.sched, l.ts, l.quit
	l.sched = nil
	l.mu.Unlock()

	close(quit)
	if sched != nil {
		sched.Stop()
	}
	// wait out a host-driven tick
	l.frameMu.Lock()
	ts.Stop()
	l.frameMu.Unlock()

	l.logger.Info("session stopped",
		"session", l.SessionID(),
		"ticks", l.ticks.Load(),
		"frames", l.frames.Load(),
	)
}

func (l *Loop) Running() bool { return l.running.Load() }

func (l *Loop) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}

// Ticks counts ticks handled by the current session, rendered or not.
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Frames counts frames presented by the current session.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// Err returns the most recent frame error of a self-driven session.
func (l *Loop) Err() error {
	l.frameMu.Lock()
	defer l.frameMu.Unlock()
	return l.lastErr
}

func (l *Loop) tick(now time.Time) {
	if _, err := l.Tick(now); err != nil {
		l.logger.Warn("frame failed", "session", l.SessionID(), "err", err)
	}
}

// Tick renders one frame for time now. It reports whether a frame was
// presented: false when the session is stopped, when another tick is in
// progress or while the viewport has not been measured.
func (l *Loop) Tick(now time.Time) (bool, error) {
	if !l.frameMu.TryLock() {
		return false, nil
	}
	defer l.frameMu.Unlock()

	if !l.running.Load() {
		return false, nil
	}
	n := l.ticks.Add(1)

	display, res, ready := l.observer.Snapshot()
	if !ready {
		return false, nil
	}
	l.ensureBuffers(display, res)

	u := shader.Uniforms{
		Resolution: res,
		Time:       l.ts.TimeAt(now),
		Palette:    l.palette,
	}

	start := time.Now()
	if err := l.backend.Shade(l.low, l.program, u); err != nil {
		l.lastErr = &FrameError{Tick: n, Time: u.Time, Resolution: res, Wrapped: err}
		return false, l.lastErr
	}
	NearestCopy(l.display, l.low)
	if err := l.surface.Present(l.display); err != nil {
		l.lastErr = &FrameError{Tick: n, Time: u.Time, Resolution: res, Wrapped: err}
		return false, l.lastErr
	}
	elapsed := time.Since(start)

	l.frames.Add(1)
	frame := metrics.Frame{Tick: n, Time: u.Time, Duration: elapsed, Resolution: res}
	for _, m := range l.metrics {
		m.Observe(frame)
	}
	return true, nil
}

func (l *Loop) ensureBuffers(display, res viewport.Resolution) {
	if l.low == nil || res != l.lastRes {
		l.low = image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
		if l.lastRes != (viewport.Resolution{}) {
			l.logger.Debug("resolution changed",
				"from", l.lastRes,
				"to", res,
				"generation", l.observer.Generation(),
			)
		}
		l.lastRes = res
	}
	db := image.Rect(0, 0, display.Width, display.Height)
	if l.display == nil || l.display.Bounds() != db {
		l.display = image.NewRGBA(db)
	}
}
