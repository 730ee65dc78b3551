package noise

import "math"

var (
	PaletteA = Splat3(0.5)
	PaletteB = Splat3(0.5)
	PaletteC = Splat3(1.0)
)

// Palette evaluates a + b*cos(2π(c*t + d)) per channel.
func Palette(t float64, a, b, c, d Vec3) Vec3 {
	return Vec3{
		X: a.X + b.X*math.Cos(2*math.Pi*(c.X*t+d.X)),
		Y: a.Y + b.Y*math.Cos(2*math.Pi*(c.Y*t+d.Y)),
		Z: a.Z + b.Z*math.Cos(2*math.Pi*(c.Z*t+d.Z)),
	}
}

// DefaultPalette uses the fixed a, b, c parameters with phase d.
func DefaultPalette(t float64, d Vec3) Vec3 {
	return Palette(t, PaletteA, PaletteB, PaletteC, d)
}
