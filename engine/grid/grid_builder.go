package grid

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// GeneratorOption configures a Generator during construction.
type GeneratorOption func(*generator)

// WithMajorSamples sets n, the number of theta samples around the major circle.
func WithMajorSamples(n int) GeneratorOption {
	return func(g *generator) {
		g.major = n
	}
}

// WithMinorSamples sets p, the number of phi samples around the tube.
func WithMinorSamples(p int) GeneratorOption {
	return func(g *generator) {
		g.minor = p
	}
}

// WithBaseSize sets the per-point sprite size in pixels before the global size scale.
func WithBaseSize(size float32) GeneratorOption {
	return func(g *generator) {
		g.baseSize = size
	}
}

// WithFillRange sets the inclusive range each fill RGB channel is drawn from.
//
// Parameters:
//   - lo: the lowest channel value
//   - hi: the highest channel value
//
// Returns:
//   - GeneratorOption: a function that applies the fill range
func WithFillRange(lo, hi float32) GeneratorOption {
	return func(g *generator) {
		g.fillMin = lo
		g.fillMax = hi
	}
}

// WithStrokeColor sets the outline color shared by every point.
func WithStrokeColor(c mgl32.Vec4) GeneratorOption {
	return func(g *generator) {
		g.strokeColor = c
	}
}

// WithRand sets the random source used for fill colors.
// Seeded sources make the lattice reproducible.
func WithRand(r *rand.Rand) GeneratorOption {
	return func(g *generator) {
		g.rng = r
	}
}
