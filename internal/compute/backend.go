package compute

import (
	"errors"
	"fmt"
	"image"

	"github.com/san-kum/doodle/internal/shader"
)

var (
	ErrUnavailable    = errors.New("compute: backend unavailable on this host")
	ErrUnknownBackend = errors.New("compute: unknown backend")
	ErrBounds         = errors.New("compute: destination does not match resolution")
)

// Backend evaluates a shader program over every pixel of a frame.
type Backend interface {
	Name() string
	Available() bool
	Shade(dst *image.RGBA, prog *shader.Program, u shader.Uniforms) error
	Cleanup()
}

// Names lists the selectable backends.
func Names() []string { return []string{"auto", "cpu", "opengl"} }

// New returns the backend registered under name. workers only applies to
// the cpu backend.
func New(name string, workers int) (Backend, error) {
	switch name {
	case "", "auto":
		return AutoSelectBackend(workers), nil
	case "cpu":
		return NewCPUBackend(workers), nil
	case "opengl":
		return NewOpenGLBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Names())
	}
}

// AutoSelectBackend prefers the GPU and falls back to the CPU.
func AutoSelectBackend(workers int) Backend {
	gl := NewOpenGLBackend()
	if gl.Available() {
		return gl
	}
	gl.Cleanup()
	return NewCPUBackend(workers)
}

func checkBounds(dst *image.RGBA, u shader.Uniforms) error {
	b := dst.Bounds()
	if b.Min != (image.Point{}) || b.Dx() != u.Resolution.Width || b.Dy() != u.Resolution.Height {
		return fmt.Errorf("%w: have %v, want %v", ErrBounds, b.Size(), u.Resolution)
	}
	return nil
}
