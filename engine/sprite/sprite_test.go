package sprite

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-donut/engine/grid"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

func defaultVaryings() Varyings {
	return Varyings{
		Fill:      mgl32.Vec4{0.8, 0.9, 1, 1},
		Stroke:    mgl32.Vec4{0, 0, 0, 1},
		Size:      8,
		LineWidth: 1,
		Antialias: 1,
	}
}

// coordAt returns a sprite coordinate whose radial distance from the disc edge is r.
func coordAt(r float32, v Varyings) mgl32.Vec2 {
	size := EffectiveSize(v.Size, v.LineWidth, v.Antialias)
	return mgl32.Vec2{(r + v.Size/2) / size, 0}
}

func TestEffectiveSize(t *testing.T) {
	tests := []struct {
		name      string
		vSize     float32
		lineWidth float32
		antialias float32
		want      float32
	}{
		{"demo defaults", 8, 1, 1, 13},
		{"zoomed in", 20, 1, 1, 25},
		{"no antialias", 8, 2, 0, 12},
		{"thick stroke", 4, 3, 2, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveSize(tt.vSize, tt.lineWidth, tt.antialias); got != tt.want {
				t.Errorf("EffectiveSize = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTorusPosition(t *testing.T) {
	tests := []struct {
		name  string
		theta float32
		phi   float32
		clock float32
		want  mgl32.Vec3
	}{
		{"origin sample", 0, 0, 0, mgl32.Vec3{-0.5, 0, 0}},
		{"outer equator", math.Pi, 0, 0, mgl32.Vec3{-1.5, 0, 0}},
		{"clock advances theta", 0, 0, math.Pi, mgl32.Vec3{-1.5, 0, 0}},
		{"tube quarter turn", 0, math.Pi / 2, 0, mgl32.Vec3{0, 0.5, 0}},
		{"top of tube", math.Pi / 2, 0, 0, mgl32.Vec3{-1, 0, -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TorusPosition(tt.theta, tt.phi, tt.clock)
			if !got.ApproxEqualThreshold(tt.want, eps) {
				t.Errorf("TorusPosition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTorusPositionLiesOnTorus(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 500 {
		theta := rng.Float32() * 2 * math.Pi
		phi := rng.Float32() * 2 * math.Pi
		clock := rng.Float32() * 10
		p := TorusPosition(theta, phi, clock)

		rho := math.Hypot(float64(p[0]), float64(p[1]))
		tube := math.Hypot(rho-1, float64(p[2]))
		if math.Abs(tube-0.5) > 1e-4 {
			t.Fatalf("(%v, %v, %v) -> %v is %v from the major circle, want 0.5", theta, phi, clock, p, tube)
		}
	}
}

func TestShadeVertex(t *testing.T) {
	p := grid.GridPoint{
		Position:    [2]float32{0, 0},
		FillColor:   [4]float32{0.9, 0.8, 0.75, 1},
		StrokeColor: [4]float32{0, 0, 0, 1},
		Size:        8,
	}
	u := Uniforms{
		Model:      mgl32.Ident4(),
		View:       mgl32.Translate3D(0, 0, -5),
		Projection: mgl32.Ident4(),
		LineWidth:  1,
		Antialias:  1,
		Size:       0.5,
	}

	v := ShadeVertex(p, u)
	if want := (mgl32.Vec4{-0.5, 0, -5, 1}); !v.Clip.ApproxEqualThreshold(want, eps) {
		t.Errorf("Clip = %v, want %v", v.Clip, want)
	}
	if v.Size != 4 {
		t.Errorf("v_size = %v, want 4", v.Size)
	}
	if v.PointSize != 9 {
		t.Errorf("PointSize = %v, want 9", v.PointSize)
	}
	if v.Fill != mgl32.Vec4(p.FillColor) || v.Stroke != mgl32.Vec4(p.StrokeColor) {
		t.Errorf("colors not forwarded: %v %v", v.Fill, v.Stroke)
	}
}

func TestClassifyIsPartition(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for range 2000 {
		v := Varyings{
			Size:      rng.Float32() * 40,
			LineWidth: rng.Float32() * 4,
			Antialias: rng.Float32() * 3,
		}
		coord := mgl32.Vec2{rng.Float32() - 0.5, rng.Float32() - 0.5}
		r, d := Distances(coord, v)

		discard := r > v.LineWidth/2+v.Antialias
		stroke := !discard && d < 0
		fringe := !discard && d >= 0
		matches := 0
		for _, b := range []bool{discard, stroke, fringe} {
			if b {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("r=%v d=%v matched %d regions", r, d, matches)
		}

		want := RegionFringe
		if discard {
			want = RegionDiscard
		} else if stroke {
			want = RegionStroke
		}
		if got := Classify(r, d, v); got != want {
			t.Fatalf("Classify(r=%v, d=%v) = %v, want %v", r, d, got, want)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	thick := Varyings{Size: 10, LineWidth: 4, Antialias: 1}
	tests := []struct {
		name string
		v    Varyings
		r    float32
		want Region
	}{
		{"outer limit is fringe", defaultVaryings(), 1.5, RegionFringe},
		{"past outer limit discards", defaultVaryings(), 1.6, RegionDiscard},
		{"thin stroke has no solid band", defaultVaryings(), 0, RegionFringe},
		{"thick stroke centerline", thick, 0, RegionStroke},
		{"thick stroke inner edge", thick, -0.99, RegionStroke},
		{"thick stroke fringe starts at t", thick, 1, RegionFringe},
		{"deep inside fill", defaultVaryings(), -4, RegionFringe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := float32(math.Abs(float64(tt.r))) - (tt.v.LineWidth/2 - tt.v.Antialias)
			if got := Classify(tt.r, d, tt.v); got != tt.want {
				t.Errorf("Classify(r=%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestShadeFragment(t *testing.T) {
	v := defaultVaryings()

	t.Run("center is fill", func(t *testing.T) {
		c, region := ShadeFragment(mgl32.Vec2{0, 0}, v)
		if region != RegionFringe {
			t.Fatalf("region = %v, want fringe", region)
		}
		if !c.ApproxEqualThreshold(v.Fill, 1e-6) {
			t.Errorf("color = %v, want fill %v", c, v.Fill)
		}
	})

	t.Run("disc edge mixes toward stroke", func(t *testing.T) {
		c, _ := ShadeFragment(coordAt(0, v), v)
		alpha := float32(math.Exp(-0.25))
		want := v.Fill.Mul(1 - alpha).Add(v.Stroke.Mul(alpha))
		if !c.ApproxEqualThreshold(want, 1e-4) {
			t.Errorf("color = %v, want %v", c, want)
		}
		if math.Abs(float64(c[3]-1)) > 1e-6 {
			t.Errorf("inner fringe alpha = %v, want opaque", c[3])
		}
	})

	t.Run("outer fringe fades stroke alpha", func(t *testing.T) {
		c, region := ShadeFragment(coordAt(0.5, v), v)
		if region != RegionFringe {
			t.Fatalf("region = %v, want fringe", region)
		}
		if c[0] != 0 || c[1] != 0 || c[2] != 0 {
			t.Errorf("rgb = %v, want stroke rgb", c.Vec3())
		}
		if want := float32(math.Exp(-1)); math.Abs(float64(c[3]-want)) > 1e-4 {
			t.Errorf("alpha = %v, want %v", c[3], want)
		}
	})

	t.Run("corner is discarded", func(t *testing.T) {
		c, region := ShadeFragment(mgl32.Vec2{0.5, 0.5}, v)
		if region != RegionDiscard || c != (mgl32.Vec4{}) {
			t.Errorf("got %v %v, want discard", c, region)
		}
	})

	t.Run("solid stroke", func(t *testing.T) {
		thick := defaultVaryings()
		thick.LineWidth = 4
		c, region := ShadeFragment(coordAt(0, thick), thick)
		if region != RegionStroke || c != thick.Stroke {
			t.Errorf("got %v %v, want stroke color", c, region)
		}
	})
}

func TestFringeAlpha(t *testing.T) {
	tests := []struct {
		name      string
		d         float32
		antialias float32
		want      float32
	}{
		{"on the band", 0, 1, 1},
		{"one width out", 1, 1, float32(math.Exp(-1))},
		{"half width with wide band", 1, 2, float32(math.Exp(-0.25))},
		{"no antialias", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FringeAlpha(tt.d, tt.antialias); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("FringeAlpha = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUniformsMarshal(t *testing.T) {
	u := Uniforms{
		Model:      mgl32.Ident4(),
		View:       mgl32.Translate3D(0, 0, -5),
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 1, 1, 1000),
		Viewport:   mgl32.Vec2{800, 600},
		LineWidth:  1,
		Antialias:  1,
		Size:       1,
		Clock:      0.25,
	}
	buf := u.Marshal()
	if len(buf) != UniformBufferSize {
		t.Fatalf("len = %d, want %d", len(buf), UniformBufferSize)
	}
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}

	if f(64+14*4) != -5 {
		t.Errorf("view translation z = %v, want -5", f(64+14*4))
	}
	// WebGPU depth: near plane maps to 0, so element [14] becomes near*far/(near-far).
	if got, want := f(128+14*4), float32(1000.0/(1-1000)); math.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("projection[14] = %v, want %v", got, want)
	}
	tail := []float32{800, 600, 1, 1, 1, 0.25, 0, 0}
	for i, want := range tail {
		if got := f(192 + i*4); got != want {
			t.Errorf("scalar %d = %v, want %v", i, got, want)
		}
	}
}

func TestShaderSourcesEmbedded(t *testing.T) {
	tests := []struct {
		name   string
		source string
		needle []string
	}{
		{"vertex", VertexShaderSource, []string{"@vertex", "fn vs_main", "struct PointInstance", "var<uniform> u: SpriteUniforms"}},
		{"fragment", FragmentShaderSource, []string{"@fragment", "fn fs_main", "discard", "exp(-x * x)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, n := range tt.needle {
				if !strings.Contains(tt.source, n) {
					t.Errorf("source missing %q", n)
				}
			}
		})
	}
}
