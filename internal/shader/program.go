// Package shader evaluates the doodle's fragment program on the CPU.
//
// A [Program] is a pure function of a normalized coordinate and the frame
// [Uniforms]; identical inputs always give identical samples.
package shader

import (
	"image/color"
	"math"

	"github.com/san-kum/doodle/internal/noise"
	"github.com/san-kum/doodle/internal/viewport"
)

const (
	DefaultBands         = 16
	DefaultRingFrequency = 30.0
	DefaultRingThreshold = 0.75
	DefaultRingOffset    = 0.1
)

// DefaultPaletteConstant is the phase vector of the shipped colorway.
var DefaultPaletteConstant = noise.Vec3{X: 0.6, Y: 0.2, Z: 0.3}

// Uniforms are constant across one frame.
type Uniforms struct {
	Resolution viewport.Resolution
	Time       float64
	Palette    noise.Vec3
}

// Sample is a linear RGBA color with channels nominally in [0,1].
type Sample struct {
	R, G, B, A float64
}

// RGBA converts the sample to 8-bit color, clamping each channel.
func (s Sample) RGBA() color.RGBA {
	return color.RGBA{R: to8(s.R), G: to8(s.G), B: to8(s.B), A: to8(s.A)}
}

func to8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

type Program struct {
	Bands         int
	RingFrequency float64
	RingThreshold float64
	RingOffset    float64
}

func NewProgram() *Program {
	return &Program{
		Bands:         DefaultBands,
		RingFrequency: DefaultRingFrequency,
		RingThreshold: DefaultRingThreshold,
		RingOffset:    DefaultRingOffset,
	}
}

// Aspect maps uv in [0,1]² to centered coordinates whose shorter axis
// spans [-0.5, 0.5].
func Aspect(uv noise.Vec2, res viewport.Resolution) noise.Vec2 {
	w, h := float64(res.Width), float64(res.Height)
	m := math.Min(w, h)
	if m <= 0 {
		return noise.Vec2{}
	}
	ratio := noise.Vec2{X: w / m, Y: h / m}
	return uv.AddScalar(-0.5).Mul(ratio)
}

// Quantize staircases v into Bands+1 levels.
func (p *Program) Quantize(v float64) float64 {
	mul := float64(p.Bands)
	return (1 + math.Floor(v*mul)) / (mul + 1)
}

// Ring returns the palette shift of the pulsing square rings at Chebyshev
// distance l from the center.
func (p *Program) Ring(l, t float64) float64 {
	return p.RingOffset * noise.Step(p.RingThreshold, noise.Fract(p.RingFrequency*l-t))
}

// Evaluate runs the fragment program at uv.
func (p *Program) Evaluate(uv noise.Vec2, u Uniforms) Sample {
	pos := Aspect(uv, u.Resolution)
	pos = pos.Add(noise.DomainWarp(pos, u.Time))
	return p.color(pos, u)
}

// Reference evaluates the program at the center with no warp applied. The
// result depends only on Time and Palette.
func (p *Program) Reference(u Uniforms) Sample {
	return p.color(noise.Vec2{}, u)
}

func (p *Program) color(pos noise.Vec2, u Uniforms) Sample {
	l := math.Max(math.Abs(pos.X), math.Abs(pos.Y))
	v := noise.Pattern(pos, u.Time)
	value := p.Quantize(v)
	c := noise.DefaultPalette(-0.3+1.2*value-p.Ring(l, u.Time), u.Palette)
	return Sample{R: c.X, G: c.Y, B: c.Z, A: 1}
}

// UV returns the normalized coordinate of the center of pixel (x, y).
// Row 0 is the top of the image.
func UV(x, y int, res viewport.Resolution) noise.Vec2 {
	return noise.Vec2{
		X: (float64(x) + 0.5) / float64(res.Width),
		Y: 1 - (float64(y)+0.5)/float64(res.Height),
	}
}

// Shade evaluates pixel (x, y) of a grid at u.Resolution.
func (p *Program) Shade(x, y int, u Uniforms) color.RGBA {
	return p.Evaluate(UV(x, y, u.Resolution), u).RGBA()
}
