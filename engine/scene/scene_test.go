package scene

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-donut/engine/grid"
	"github.com/Carmen-Shannon/oxy-donut/engine/render_state"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-donut/engine/sprite"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeRenderer records the calls a scene makes without touching a GPU.
type fakeRenderer struct {
	calls     []string
	pipelines map[string]pipeline.Pipeline

	instanceBytes int
	instanceCount int
	bindGroupDesc wgpu.BindGroupLayoutDescriptor
	writes        []bind_group_provider.BufferWrite
	drawBindings  int
	resized       [2]int

	beginErr error
	drawErr  error
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline { return f.pipelines[key] }

func (f *fakeRenderer) RegisterPipelines(ps ...pipeline.Pipeline) error {
	f.calls = append(f.calls, "register")
	for _, p := range ps {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) Resize(w, h int) {
	f.calls = append(f.calls, "resize")
	f.resized = [2]int{w, h}
}

func (f *fakeRenderer) InitInstanceBuffer(p bind_group_provider.BindGroupProvider, data []byte, n int) error {
	f.calls = append(f.calls, "instances")
	f.instanceBytes = len(data)
	f.instanceCount = n
	return nil
}

func (f *fakeRenderer) InitBindGroup(p bind_group_provider.BindGroupProvider, d wgpu.BindGroupLayoutDescriptor) error {
	f.calls = append(f.calls, "bindgroup")
	f.bindGroupDesc = d
	return nil
}

func (f *fakeRenderer) WriteBuffers(w []bind_group_provider.BufferWrite) {
	f.calls = append(f.calls, "write")
	f.writes = append(f.writes, w...)
}

func (f *fakeRenderer) BeginFrame() error {
	f.calls = append(f.calls, "begin")
	return f.beginErr
}

func (f *fakeRenderer) DrawCall(key string, mesh bind_group_provider.BindGroupProvider, bgs []bind_group_provider.BindGroupProvider) error {
	f.calls = append(f.calls, "draw")
	f.drawBindings = len(bgs)
	return f.drawErr
}

func (f *fakeRenderer) EndFrame()                            { f.calls = append(f.calls, "end") }
func (f *fakeRenderer) Present()                             { f.calls = append(f.calls, "present") }
func (f *fakeRenderer) SetPresentMode(renderer.PresentMode) {}

func newTestScene(t *testing.T, r *fakeRenderer, opts ...SceneBuilderOption) (Scene, []grid.GridPoint) {
	t.Helper()
	state, err := render_state.NewRenderState()
	if err != nil {
		t.Fatal(err)
	}
	points, err := grid.NewGenerator(grid.WithMajorSamples(4), grid.WithMinorSamples(3)).Generate()
	if err != nil {
		t.Fatal(err)
	}
	return NewScene(r, state, opts...), points
}

func TestInit(t *testing.T) {
	r := newFakeRenderer()
	s, points := newTestScene(t, r)

	if err := s.Init(points); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	if got := strings.Join(r.calls, ","); got != "register,instances,bindgroup" {
		t.Errorf("calls = %s", got)
	}
	if r.instanceCount != 12 || r.instanceBytes != 12*grid.Stride {
		t.Errorf("instance upload = %d points / %d bytes", r.instanceCount, r.instanceBytes)
	}
	p := r.Pipeline(DefaultPipelineKey)
	if p == nil {
		t.Fatal("pipeline not registered under default key")
	}
	if !p.BlendEnabled() || !p.DepthTestEnabled() || !p.DepthWriteEnabled() || p.DepthCompare() != wgpu.CompareFunctionLess {
		t.Error("pipeline must blend and depth test with Less and depth write")
	}
	if len(r.bindGroupDesc.Entries) != 1 || r.bindGroupDesc.Entries[0].Buffer.MinBindingSize != sprite.UniformBufferSize {
		t.Errorf("uniform bind group = %+v", r.bindGroupDesc.Entries)
	}
}

func TestInitRejectsEmptyGrid(t *testing.T) {
	s, _ := newTestScene(t, newFakeRenderer())
	if err := s.Init(nil); !errors.Is(err, grid.ErrInvalidGrid) {
		t.Errorf("Init(nil) = %v, want ErrInvalidGrid", err)
	}
}

func TestPaint(t *testing.T) {
	tests := []struct {
		name      string
		beginErr  error
		drawErr   error
		wantCalls string
		wantErr   bool
	}{
		{"frame", nil, nil, "write,begin,draw,end,present", false},
		{"acquire fails", errors.New("lost"), nil, "write,begin", true},
		{"draw fails still presents", nil, errors.New("missing"), "write,begin,draw,end,present", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRenderer()
			s, points := newTestScene(t, r, WithViewport(640, 480))
			if err := s.Init(points); err != nil {
				t.Fatal(err)
			}
			r.calls = nil
			r.beginErr = tt.beginErr
			r.drawErr = tt.drawErr

			err := s.Paint()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Paint() = %v, wantErr %v", err, tt.wantErr)
			}
			if got := strings.Join(r.calls, ","); got != tt.wantCalls {
				t.Errorf("calls = %s, want %s", got, tt.wantCalls)
			}
			if len(r.writes) != 1 || len(r.writes[0].Data) != sprite.UniformBufferSize {
				t.Fatalf("uniform writes = %d", len(r.writes))
			}
			data := r.writes[0].Data
			vw := math.Float32frombits(binary.LittleEndian.Uint32(data[192:]))
			vh := math.Float32frombits(binary.LittleEndian.Uint32(data[196:]))
			if vw != 640 || vh != 480 {
				t.Errorf("viewport uniform = %vx%v, want 640x480", vw, vh)
			}
		})
	}
}

func TestPaintBeforeInit(t *testing.T) {
	r := newFakeRenderer()
	s, _ := newTestScene(t, r)
	if err := s.Paint(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Paint() = %v, want ErrNotInitialized", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("renderer called before init: %v", r.calls)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantResize    bool
		wantAspect    float32
	}{
		{"landscape", 1600, 800, true, 2},
		{"portrait", 400, 800, true, 0.5},
		{"zero ignored", 0, 800, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRenderer()
			s, _ := newTestScene(t, r)
			s.Resize(tt.width, tt.height)

			resized := len(r.calls) == 1 && r.calls[0] == "resize"
			if resized != tt.wantResize {
				t.Fatalf("renderer resized = %v, want %v", resized, tt.wantResize)
			}
			if s.State().Aspect != tt.wantAspect {
				t.Errorf("aspect = %v, want %v", s.State().Aspect, tt.wantAspect)
			}
			w, h := s.Viewport()
			if tt.wantResize && (w != tt.width || h != tt.height) {
				t.Errorf("viewport = %dx%d", w, h)
			}
			if !tt.wantResize && (w != defaultViewport || h != defaultViewport) {
				t.Errorf("viewport changed on ignored resize: %dx%d", w, h)
			}
		})
	}
}

func TestReleaseRequiresInitAgain(t *testing.T) {
	r := newFakeRenderer()
	s, points := newTestScene(t, r, WithName("ring"), WithPipelineKey("ring-sprites"))
	if s.Name() != "ring" {
		t.Errorf("Name() = %q", s.Name())
	}
	if err := s.Init(points); err != nil {
		t.Fatal(err)
	}
	if r.Pipeline("ring-sprites") == nil {
		t.Error("custom pipeline key not used")
	}
	s.Release()
	if err := s.Paint(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Paint() after Release = %v", err)
	}
}
