//go:build !opengl

package compute

import (
	"image"

	"github.com/san-kum/doodle/internal/shader"
)

type OpenGLBackend struct{}

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (g *OpenGLBackend) Name() string    { return "opengl (not available)" }
func (g *OpenGLBackend) Available() bool { return false }
func (g *OpenGLBackend) Cleanup()        {}

func (g *OpenGLBackend) Shade(dst *image.RGBA, prog *shader.Program, u shader.Uniforms) error {
	return ErrUnavailable
}
