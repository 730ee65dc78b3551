// Package noise implements the scalar fields behind the doodle pattern.
//
// Everything here is a pure function of its arguments:
//
//   - [Hash1], [Hash2]: stateless lattice hashes in [0,1)
//   - [Noise1D], [Noise2D]: smoothstep value noise
//   - [FBM]: fractal Brownian motion over [Octaves] octaves
//   - [DomainWarp], [Q], [Pattern]: the two-stage warped field
//   - [Palette]: cosine gradient palette
//
// # Example
//
//	p := noise.Vec2{X: 0.25, Y: -0.1}
//	v := noise.Pattern(p, t)
//	c := noise.DefaultPalette(v, noise.Vec3{X: 0.6, Y: 0.2, Z: 0.3})
package noise
