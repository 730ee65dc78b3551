package noise

import "math"

// Octave parameters of FBM. They fix the visual character of the pattern.
const (
	Octaves          = 9
	Lacunarity       = 2.0
	Gain             = 0.55
	InitialAmplitude = 0.5
)

// Hash1 maps a lattice coordinate to [0,1).
func Hash1(n float64) float64 {
	return Fract(math.Sin(n) * 1e4)
}

// Hash2 maps a 2D lattice coordinate to [0,1).
func Hash2(p Vec2) float64 {
	return Fract(1e4 * math.Sin(17.0*p.X+p.Y*0.1) * (0.1 + math.Abs(math.Sin(p.Y*13.0+p.X))))
}

// Noise1D is smoothly interpolated value noise on the integer lattice.
func Noise1D(x float64) float64 {
	i := math.Floor(x)
	f := Fract(x)
	return Mix(Hash1(i), Hash1(i+1), Smooth(f))
}

// Noise2D is bilinear value noise over the four surrounding lattice corners.
func Noise2D(p Vec2) float64 {
	i := p.Floor()
	f := p.Fract()

	a := Hash2(i)
	b := Hash2(i.Add(Vec2{1, 0}))
	c := Hash2(i.Add(Vec2{0, 1}))
	d := Hash2(i.Add(Vec2{1, 1}))

	u := Vec2{Smooth(f.X), Smooth(f.Y)}
	return Mix(a, b, u.X) + (c-a)*u.Y*(1-u.X) + (d-b)*u.X*u.Y
}

// FBM sums Octaves layers of Noise2D.
func FBM(p Vec2) float64 {
	sum := 0.0
	amp := InitialAmplitude
	for i := 0; i < Octaves; i++ {
		sum += amp * Noise2D(p)
		amp *= Gain
		p = p.Scale(Lacunarity)
	}
	return sum
}

// FBMBound is the upper limit of FBM: the sum of all octave amplitudes.
func FBMBound() float64 {
	return InitialAmplitude * (1 - math.Pow(Gain, Octaves)) / (1 - Gain)
}

// DomainWarp returns the displacement added to a coordinate before the
// pattern is sampled. Each component lies in (-0.2*FBMBound()+0.1, 0.1].
func DomainWarp(p Vec2, t float64) Vec2 {
	x := FBM(p.Scale(0.471).AddScalar(0.031 * t))
	y := FBM(p.Scale(0.74).AddScalar(-0.047 * t))
	return Vec2{0.5 - x, 0.5 - y}.Scale(0.2)
}

// Q is the first warp pass of Pattern.
func Q(p Vec2, t float64) Vec2 {
	drift := 0.0001 * t
	return Vec2{
		X: FBM(p.Scale(0.2).AddScalar(drift)),
		Y: FBM(p.Scale(0.3).Add(Vec2{2.08, 1.23}).AddScalar(drift)),
	}
}

// Pattern samples FBM in the domain displaced by Q.
func Pattern(p Vec2, t float64) float64 {
	q := Q(p, t)
	return PatternAt(p, q, t)
}

// PatternAt is the second pass of Pattern for a precomputed q.
func PatternAt(p, q Vec2, t float64) float64 {
	return FBM(p.Scale(0.2).Add(q.Scale(3)).AddScalar(0.03 * t))
}
