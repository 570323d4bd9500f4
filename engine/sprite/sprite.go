// Package sprite holds the point-sprite shading contract of the donut: where a
// grid point lands on the torus, how large its sprite is, and how each covered
// pixel of the sprite is colored.
//
// The GPU runs the embedded WGSL programs. The Go functions here compute the
// same values on the CPU and are used by the headless snapshot renderer.
package sprite

import (
	_ "embed"
	"math"

	"github.com/Carmen-Shannon/oxy-donut/engine/grid"
	"github.com/go-gl/mathgl/mgl32"
)

// VertexShaderSource is the WGSL vertex stage. Entry point vs_main, one PointInstance
// per grid point, six vertices per instance.
//
//go:embed assets/sprite_vertex.wgsl
var VertexShaderSource string

// FragmentShaderSource is the WGSL fragment stage. Entry point fs_main.
//
//go:embed assets/sprite_fragment.wgsl
var FragmentShaderSource string

// VerticesPerSprite is the number of vertices drawn per point instance (two triangles).
const VerticesPerSprite = 6

// Region identifies which branch of the disc shading a fragment falls into.
type Region int

const (
	// RegionDiscard is outside the sprite including its antialias fringe.
	RegionDiscard Region = iota
	// RegionStroke is the crisp inner part of the outline band.
	RegionStroke
	// RegionFringe is the Gaussian antialias band on either side of the stroke.
	RegionFringe
)

func (r Region) String() string {
	switch r {
	case RegionDiscard:
		return "discard"
	case RegionStroke:
		return "stroke"
	case RegionFringe:
		return "fringe"
	}
	return "unknown"
}

// Uniforms are the per-frame values shared by every sprite.
type Uniforms struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Viewport   mgl32.Vec2 // framebuffer size in pixels
	LineWidth  float32
	Antialias  float32
	Size       float32 // global size scale
	Clock      float32
}

// Varyings are the values the vertex stage hands to every fragment of one sprite.
type Varyings struct {
	Fill      mgl32.Vec4 // bg color
	Stroke    mgl32.Vec4 // fg color
	Size      float32    // v_size: base size times the global scale
	LineWidth float32
	Antialias float32
}

// Vertex is the output of the vertex stage for one point.
type Vertex struct {
	Clip      mgl32.Vec4
	PointSize float32 // full sprite width in pixels
	Varyings
}

// EffectiveSize returns the full sprite width: the disc plus room for the stroke and fringe.
func EffectiveSize(vSize, lineWidth, antialias float32) float32 {
	return vSize + 2*(lineWidth+1.5*antialias)
}

// TorusPosition places a lattice point on the torus. The offset (0.5, 0, 0) is turned
// by theta+clock about Y and moved to x = -1, then revolved by phi about Z.
func TorusPosition(theta, phi, clock float32) mgl32.Vec3 {
	t := float64(theta + clock)
	x1 := 0.5*math.Cos(t) - 1
	z1 := -0.5 * math.Sin(t)

	p := float64(phi)
	x2 := x1 * math.Cos(p)
	y2 := -x1 * math.Sin(p)
	return mgl32.Vec3{float32(x2), float32(y2), float32(z1)}
}

// ShadeVertex runs the vertex stage for one grid point.
func ShadeVertex(p grid.GridPoint, u Uniforms) Vertex {
	vSize := p.Size * u.Size
	pos := TorusPosition(p.Theta(), p.Phi(), u.Clock)
	clip := u.Projection.Mul4(u.View).Mul4(u.Model).Mul4x1(pos.Vec4(1))
	return Vertex{
		Clip:      clip,
		PointSize: EffectiveSize(vSize, u.LineWidth, u.Antialias),
		Varyings: Varyings{
			Fill:      p.FillColor,
			Stroke:    p.StrokeColor,
			Size:      vSize,
			LineWidth: u.LineWidth,
			Antialias: u.Antialias,
		},
	}
}

// Distances returns r, the signed distance from the disc edge (negative inside), and
// d, the signed distance from the stroke band. coord is the fragment offset from the
// sprite center in units of the sprite width, each axis in [-0.5, 0.5].
func Distances(coord mgl32.Vec2, v Varyings) (r, d float32) {
	size := EffectiveSize(v.Size, v.LineWidth, v.Antialias)
	t := v.LineWidth/2 - v.Antialias
	r = coord.Mul(size).Len() - v.Size/2
	d = float32(math.Abs(float64(r))) - t
	return r, d
}

// Classify picks the shading branch for the given distances.
func Classify(r, d float32, v Varyings) Region {
	switch {
	case r > v.LineWidth/2+v.Antialias:
		return RegionDiscard
	case d < 0:
		return RegionStroke
	default:
		return RegionFringe
	}
}

// FringeAlpha is the Gaussian falloff exp(-(d/antialias)^2). A zero antialias width
// gives a hard edge (alpha 0).
func FringeAlpha(d, antialias float32) float32 {
	if antialias <= 0 {
		return 0
	}
	x := float64(d / antialias)
	return float32(math.Exp(-x * x))
}

// ShadeFragment colors one fragment and reports its region. Discarded fragments return a zero color.
func ShadeFragment(coord mgl32.Vec2, v Varyings) (mgl32.Vec4, Region) {
	r, d := Distances(coord, v)
	region := Classify(r, d, v)
	switch region {
	case RegionDiscard:
		return mgl32.Vec4{}, region
	case RegionStroke:
		return v.Stroke, region
	}

	alpha := FringeAlpha(d, v.Antialias)
	if r > 0 {
		return mgl32.Vec4{v.Stroke[0], v.Stroke[1], v.Stroke[2], alpha * v.Stroke[3]}, region
	}
	return mix(v.Fill, v.Stroke, alpha), region
}

func mix(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
