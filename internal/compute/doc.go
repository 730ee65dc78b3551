// Package compute provides the backends that evaluate the pattern program
// over a frame.
//
// Two backends exist:
//
//   - CPU: row bands shaded in parallel goroutines (always available)
//   - OpenGL: the same program as a GLSL compute shader (build tag opengl)
//
// # Selection
//
//	backend, err := compute.New("auto", 0)
//	err = backend.Shade(frame, prog, uniforms)
//
// Build with GPU support:
//
//	go build -tags opengl ./cmd/doodle
//
// When the GPU backend is requested explicitly but no GL 4.3 context can
// be created, Available reports false and the render loop refuses to start.
package compute
