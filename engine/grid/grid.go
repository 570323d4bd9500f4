package grid

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidGrid is returned when generator options describe an impossible lattice.
var ErrInvalidGrid = errors.New("invalid point grid")

// Stride is the byte size of one GridPoint as laid out in the instance vertex buffer.
const Stride = int(unsafe.Sizeof(GridPoint{}))

// GridPoint is one torus sample. Its memory layout matches the PointInstance
// vertex input of the sprite shader (44 bytes, tightly packed float32 fields).
type GridPoint struct {
	Position    [2]float32 // offset  0: (theta, phi) in radians
	FillColor   [4]float32 // offset  8: RGBA fill
	StrokeColor [4]float32 // offset 24: RGBA outline
	Size        float32    // offset 40: base sprite size in pixels
}

// Theta returns the major-circle angle of the point.
func (g GridPoint) Theta() float32 { return g.Position[0] }

// Phi returns the minor-circle angle of the point.
func (g GridPoint) Phi() float32 { return g.Position[1] }

// Generator builds the static torus lattice uploaded once at startup.
type Generator interface {
	// Generate returns MajorSamples()*MinorSamples() points. theta is the fast index,
	// phi the slow one: point i has theta index i%n and phi index i/n.
	//
	// Returns:
	//   - []GridPoint: the lattice in row-major (phi-major) order
	//   - error: ErrInvalidGrid if the generator options are out of range
	Generate() ([]GridPoint, error)

	// MajorSamples returns n, the number of samples around the major circle.
	MajorSamples() int

	// MinorSamples returns p, the number of samples around the tube.
	MinorSamples() int
}

type generator struct {
	major       int
	minor       int
	baseSize    float32
	fillMin     float32
	fillMax     float32
	strokeColor mgl32.Vec4
	rng         *rand.Rand
}

var _ Generator = &generator{}

// NewGenerator creates a Generator with the demo defaults: 50x40 samples,
// base size 8, fill channels uniform in [0.75, 1] and a black outline.
//
// Parameters:
//   - options: variadic list of GeneratorOption functions
//
// Returns:
//   - Generator: the configured generator
func NewGenerator(options ...GeneratorOption) Generator {
	g := &generator{
		major:       50,
		minor:       40,
		baseSize:    8,
		fillMin:     0.75,
		fillMax:     1,
		strokeColor: mgl32.Vec4{0, 0, 0, 1},
	}
	for _, opt := range options {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

func (g *generator) MajorSamples() int { return g.major }
func (g *generator) MinorSamples() int { return g.minor }

func (g *generator) Generate() ([]GridPoint, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	thetas := linspace(g.major)
	phis := linspace(g.minor)
	span := g.fillMax - g.fillMin

	points := make([]GridPoint, 0, g.major*g.minor)
	for j := range g.minor {
		for i := range g.major {
			points = append(points, GridPoint{
				Position: [2]float32{thetas[i], phis[j]},
				FillColor: [4]float32{
					g.fillMin + span*g.rng.Float32(),
					g.fillMin + span*g.rng.Float32(),
					g.fillMin + span*g.rng.Float32(),
					1,
				},
				StrokeColor: g.strokeColor,
				Size:        g.baseSize,
			})
		}
	}

	common.Logger().Debug("point grid generated",
		"points", len(points), "major", g.major, "minor", g.minor, "bytes", len(points)*Stride)
	return points, nil
}

func (g *generator) validate() error {
	switch {
	case g.major < 2 || g.minor < 2:
		return fmt.Errorf("%w: need at least 2x2 samples, got %dx%d", ErrInvalidGrid, g.major, g.minor)
	case g.baseSize <= 0:
		return fmt.Errorf("%w: base size %v must be positive", ErrInvalidGrid, g.baseSize)
	case g.fillMin < 0 || g.fillMax > 1 || g.fillMin > g.fillMax:
		return fmt.Errorf("%w: fill range [%v, %v] outside [0, 1]", ErrInvalidGrid, g.fillMin, g.fillMax)
	}
	for _, c := range g.strokeColor {
		if c < 0 || c > 1 {
			return fmt.Errorf("%w: stroke color %v outside [0, 1]", ErrInvalidGrid, g.strokeColor)
		}
	}
	return nil
}

// linspace returns count evenly spaced angles over [0, 2π], both ends included.
func linspace(count int) []float32 {
	out := make([]float32, count)
	step := 2 * math.Pi / float64(count-1)
	for i := range out {
		out[i] = float32(float64(i) * step)
	}
	out[count-1] = float32(2 * math.Pi)
	return out
}

// Bytes returns a view of points suitable for a single vertex buffer upload.
//
// Parameters:
//   - points: the generated lattice
//
// Returns:
//   - []byte: the raw instance data, sharing memory with points
func Bytes(points []GridPoint) []byte {
	return common.SliceToBytes(points)
}
