package compute

import (
	"image"
	"runtime"

	"github.com/san-kum/doodle/internal/shader"
)

// rows below this are shaded on the calling goroutine
const minRowsPerWorker = 8

type CPUBackend struct {
	workers int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

// Shade fills dst row by row. Each worker owns a disjoint band of rows.
func (c *CPUBackend) Shade(dst *image.RGBA, prog *shader.Program, u shader.Uniforms) error {
	if err := checkBounds(dst, u); err != nil {
		return err
	}

	width := u.Resolution.Width
	ParallelFor(u.Resolution.Height, minRowsPerWorker, c.workers, func(start, end int) {
		for y := start; y < end; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
			for x := 0; x < width; x++ {
				col := prog.Shade(x, y, u)
				i := x * 4
				row[i] = col.R
				row[i+1] = col.G
				row[i+2] = col.B
				row[i+3] = col.A
			}
		}
	})
	return nil
}
