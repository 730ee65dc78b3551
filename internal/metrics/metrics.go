package metrics

import (
	"sync"
	"time"

	"github.com/san-kum/doodle/internal/viewport"
)

// Frame describes one rendered frame.
type Frame struct {
	Tick       uint64
	Time       float64
	Duration   time.Duration
	Resolution viewport.Resolution
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

// FrameTime reports the mean frame duration in milliseconds.
type FrameTime struct {
	mu      sync.Mutex
	samples int
	total   time.Duration
}

func NewFrameTime() *FrameTime { return &FrameTime{} }

func (m *FrameTime) Name() string { return "frame_ms" }

func (m *FrameTime) Observe(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples++
	m.total += f.Duration
}

func (m *FrameTime) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples == 0 {
		return 0
	}
	return float64(m.total.Microseconds()) / 1000 / float64(m.samples)
}

func (m *FrameTime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = 0
	m.total = 0
}

// Throughput reports shaded pixels per second of frame time.
type Throughput struct {
	mu     sync.Mutex
	pixels int
	total  time.Duration
}

func NewThroughput() *Throughput { return &Throughput{} }

func (m *Throughput) Name() string { return "pixels_per_sec" }

func (m *Throughput) Observe(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pixels += f.Resolution.Pixels()
	m.total += f.Duration
}

func (m *Throughput) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.total <= 0 {
		return 0
	}
	return float64(m.pixels) / m.total.Seconds()
}

func (m *Throughput) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pixels = 0
	m.total = 0
}
