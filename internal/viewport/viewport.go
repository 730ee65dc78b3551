// Package viewport tracks the size of the drawing surface and derives the
// capped render resolution from it.
package viewport

import (
	"fmt"
	"math"
	"sync"
)

// DefaultCap bounds the longest side of the render grid.
const DefaultCap = 512

type Resolution struct {
	Width, Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Pixels returns the number of samples in the grid.
func (r Resolution) Pixels() int { return r.Width * r.Height }

// Compute scales (width, height) so that the longest side is at most cap,
// keeping the aspect ratio. ok is false while the surface has no area.
func Compute(width, height, cap int) (Resolution, bool) {
	if width <= 0 || height <= 0 || cap <= 0 {
		return Resolution{}, false
	}
	maxDim := max(width, height)
	m := min(cap, maxDim)
	w := int(math.Round(float64(m) * float64(width) / float64(maxDim)))
	h := int(math.Round(float64(m) * float64(height) / float64(maxDim)))
	// extreme aspect ratios can round the short side away
	return Resolution{Width: max(w, 1), Height: max(h, 1)}, true
}

// Observer holds the last observed surface size. Observe may be called
// from any goroutine; readers get a consistent snapshot.
type Observer struct {
	mu         sync.RWMutex
	cap        int
	width      int
	height     int
	res        Resolution
	ready      bool
	generation uint64
}

func NewObserver(cap int) *Observer {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Observer{cap: cap}
}

// Observe records a new surface size. It reports whether the size changed.
func (o *Observer) Observe(width, height int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if width == o.width && height == o.height {
		return false
	}
	o.width, o.height = width, height
	o.res, o.ready = Compute(width, height, o.cap)
	o.generation++
	return true
}

// Resolution returns the current render resolution, or false when the
// surface has not been measured yet.
func (o *Observer) Resolution() (Resolution, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.res, o.ready
}

// Display returns the raw surface size last observed.
func (o *Observer) Display() (int, int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.width, o.height
}

// Snapshot returns display size and render resolution read together.
func (o *Observer) Snapshot() (display Resolution, render Resolution, ready bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Resolution{o.width, o.height}, o.res, o.ready
}

func (o *Observer) Generation() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.generation
}

func (o *Observer) Cap() int { return o.cap }
