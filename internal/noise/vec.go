package noise

import "math"

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2          { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Mul(o Vec2) Vec2          { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) Scale(s float64) Vec2     { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) AddScalar(s float64) Vec2 { return Vec2{v.X + s, v.Y + s} }

func (v Vec2) Floor() Vec2 { return Vec2{math.Floor(v.X), math.Floor(v.Y)} }
func (v Vec2) Fract() Vec2 { return Vec2{Fract(v.X), Fract(v.Y)} }

type Vec3 struct {
	X, Y, Z float64
}

// Splat3 returns a vector with all components set to s.
func Splat3(s float64) Vec3 { return Vec3{s, s, s} }

// Fract returns x - floor(x), always in [0,1).
func Fract(x float64) float64 {
	f := x - math.Floor(x)
	// x slightly below an integer rounds up to exactly 1.
	if f >= 1 {
		return 0
	}
	return f
}

// Mix linearly interpolates between a and b.
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Smooth is the cubic Hermite curve f*f*(3-2f).
func Smooth(f float64) float64 {
	return f * f * (3 - 2*f)
}

// Step returns 0 when x < edge and 1 otherwise.
func Step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}
