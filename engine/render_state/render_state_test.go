package render_state

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-donut/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

func newState(t *testing.T, opts ...RenderStateOption) *RenderState {
	t.Helper()
	s, err := NewRenderState(opts...)
	if err != nil {
		t.Fatalf("NewRenderState: %v", err)
	}
	return s
}

func TestNewRenderStateDefaults(t *testing.T) {
	s := newState(t)

	if s.Model != mgl32.Ident4() {
		t.Errorf("Model = %v, want identity", s.Model)
	}
	if s.View != transform.BuildView(5) {
		t.Errorf("View = %v, want translate(0, 0, -5)", s.View)
	}
	if s.Projection != transform.BuildProjection(45, 1, 1, 1000) {
		t.Errorf("Projection does not match the 45° square frustum")
	}
	if s.ZoomDistance != 5 || s.SizeScale != 1 {
		t.Errorf("zoom/size = %v/%v, want 5/1", s.ZoomDistance, s.SizeScale)
	}
	if s.Paused || s.Clock != 0 || s.RotationTheta != 0 || s.RotationPhi != 0 {
		t.Errorf("animation state not zeroed: %+v", s)
	}
}

func TestNewRenderStateRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  RenderStateOption
	}{
		{"zero min zoom", WithMinZoom(0)},
		{"negative size numerator", WithSizeNumerator(-1)},
		{"flat fov", WithFovY(0)},
		{"inverted planes", WithClipPlanes(10, 1)},
		{"negative line width", WithLineWidth(-1)},
		{"negative antialias", WithAntialias(-0.5)},
		{"negative aspect", WithViewport(-4, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRenderState(tt.opt); !errors.Is(err, ErrInvalidOption) {
				t.Errorf("err = %v, want ErrInvalidOption", err)
			}
		})
	}
}

func TestSetZoomClamps(t *testing.T) {
	tests := []struct {
		name      string
		distance  float32
		wantZoom  float32
		wantScale float32
	}{
		{"unchanged", 5, 5, 1},
		{"further", 10, 10, 0.5},
		{"at minimum", 2, 2, 2.5},
		{"below minimum", -5, 2, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			if got := s.SetZoom(tt.distance); got != tt.wantZoom {
				t.Errorf("SetZoom returned %v, want %v", got, tt.wantZoom)
			}
			if s.ZoomDistance != tt.wantZoom || s.SizeScale != tt.wantScale {
				t.Errorf("zoom/size = %v/%v, want %v/%v", s.ZoomDistance, s.SizeScale, tt.wantZoom, tt.wantScale)
			}
			if s.View != transform.BuildView(tt.wantZoom) {
				t.Errorf("view not rebuilt for %v", tt.wantZoom)
			}
		})
	}
}

func TestInitialZoomIsClamped(t *testing.T) {
	s := newState(t, WithZoom(1))
	if s.ZoomDistance != 2 {
		t.Errorf("ZoomDistance = %v, want 2", s.ZoomDistance)
	}
}

func TestSetViewport(t *testing.T) {
	s := newState(t)

	if !s.SetViewport(1600, 900) {
		t.Fatal("SetViewport(1600, 900) rejected")
	}
	if want := float32(1600.0 / 900.0); math.Abs(float64(s.Aspect-want)) > 1e-6 {
		t.Errorf("Aspect = %v, want %v", s.Aspect, want)
	}
	want := transform.BuildProjection(45, s.Aspect, 1, 1000)
	if s.Projection != want {
		t.Error("projection not rebuilt")
	}

	for _, size := range [][2]int{{0, 600}, {800, 0}, {0, 0}} {
		if s.SetViewport(size[0], size[1]) {
			t.Errorf("SetViewport(%d, %d) accepted", size[0], size[1])
		}
		if s.Projection != want {
			t.Errorf("SetViewport(%d, %d) changed the projection", size[0], size[1])
		}
	}
}

func TestSetRotation(t *testing.T) {
	s := newState(t)
	s.SetRotation(30, 45)
	if s.RotationTheta != 30 || s.RotationPhi != 45 {
		t.Errorf("angles = %v/%v", s.RotationTheta, s.RotationPhi)
	}
	if s.Model != transform.BuildModel(30, 45) {
		t.Error("model not rebuilt")
	}
}

func TestUniforms(t *testing.T) {
	s := newState(t, WithLineWidth(2), WithAntialias(0.5))
	s.Clock = 0.75
	s.SetZoom(10)

	u := s.Uniforms(640, 480)
	if u.Viewport != (mgl32.Vec2{640, 480}) {
		t.Errorf("Viewport = %v", u.Viewport)
	}
	if u.LineWidth != 2 || u.Antialias != 0.5 || u.Size != 0.5 || u.Clock != 0.75 {
		t.Errorf("scalars = %+v", u)
	}
	if u.Model != s.Model || u.View != s.View || u.Projection != s.Projection {
		t.Error("matrices not copied")
	}
}

func TestLongRunAnglesReduceToOneTurn(t *testing.T) {
	tests := []struct {
		name             string
		theta, phi       float64
		wantTheta, wantP float32
	}{
		{"within a turn", 30, 45, 30, 45},
		{"past a turn", 390, 405, 30, 45},
		{"negative", -330, -315, 30, 45},
		{"hundred thousand turns", 360*100000 + 30, 360*100000 + 45, 30, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			s.SetRotation(tt.theta, tt.phi)
			if s.RotationTheta != tt.theta || s.RotationPhi != tt.phi {
				t.Errorf("stored angles = %v/%v, want %v/%v", s.RotationTheta, s.RotationPhi, tt.theta, tt.phi)
			}
			if !s.Model.ApproxEqual(transform.BuildModel(tt.wantTheta, tt.wantP)) {
				t.Errorf("model = %v, want rotation %v/%v", s.Model, tt.wantTheta, tt.wantP)
			}
		})
	}
}

func TestUniformClockReducedToOneTurn(t *testing.T) {
	s := newState(t)
	s.Clock = 2*math.Pi*1000 + 0.75
	if u := s.Uniforms(100, 100); !mgl32.FloatEqualThreshold(u.Clock, 0.75, 1e-5) {
		t.Errorf("uniform clock = %v, want 0.75", u.Clock)
	}
}
