package metrics

import (
	"sync"
	"time"
)

// History keeps the most recent frame durations, in milliseconds, for
// plotting. Value is the worst frame in the window.
type History struct {
	mu       sync.Mutex
	capacity int
	samples  []float64
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{capacity: capacity, samples: make([]float64, 0, capacity)}
}

func (h *History) Name() string { return "frame_ms_max" }

func (h *History) Observe(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ms := float64(f.Duration) / float64(time.Millisecond)
	if len(h.samples) == h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}
	h.samples = append(h.samples, ms)
}

func (h *History) Value() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	worst := 0.0
	for _, s := range h.samples {
		worst = max(worst, s)
	}
	return worst
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
}

// Samples returns a copy of the window, oldest first.
func (h *History) Samples() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, len(h.samples))
	copy(out, h.samples)
	return out
}

// Recorder keeps every observed frame. Value is the frame count.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Name() string { return "frames" }

func (r *Recorder) Observe(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *Recorder) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(len(r.frames))
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}
