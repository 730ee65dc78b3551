package render

import (
	"errors"
	"fmt"

	"github.com/san-kum/doodle/internal/viewport"
)

var (
	// ErrUnsupportedContext indicates the host cannot provide the requested
	// rendering backend. The session does not start.
	ErrUnsupportedContext = errors.New("render: rendering context unsupported on this host")

	// ErrNoSurface indicates the loop was started without a drawing surface.
	ErrNoSurface = errors.New("render: no drawing surface mounted")

	// ErrAlreadyRunning indicates Start was called on a running session.
	ErrAlreadyRunning = errors.New("render: session already running")

	// ErrBadInterval indicates a non-positive tick interval for a scheduler.
	ErrBadInterval = errors.New("render: tick interval must be positive")
)

// FrameError wraps a failure to shade or present one frame.
type FrameError struct {
	Tick       uint64
	Time       float64
	Resolution viewport.Resolution
	Wrapped    error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("render: frame %d at t=%.3f (%v): %v", e.Tick, e.Time, e.Resolution, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
