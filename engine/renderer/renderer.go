package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-donut/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     wgpuRendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           wgpu.Color
}

// Renderer draws instanced sprites into a window surface.
//
// A frame is WriteBuffers for the uniforms, then BeginFrame, DrawCall, EndFrame and
// Present. Pipelines are compiled once and looked up by key.
type Renderer interface {
	// Pipeline returns the registered pipeline for key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines compiles each pipeline not yet registered under its key.
	//
	// Parameters:
	//   - pipelines: the pipelines to compile
	//
	// Returns:
	//   - error: the first compile failure, wrapped with the pipeline key
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface and its targets. Failures are logged and the
	// previous configuration is dropped.
	Resize(width, height int)

	// InitInstanceBuffer uploads the sprite instances once. The buffer lives on provider.
	//
	// Parameters:
	//   - provider: holder of the vertex buffer and instance count
	//   - data: packed instance records
	//   - instanceCount: the number of records in data
	//
	// Returns:
	//   - error: if data is empty or the buffer cannot be created
	InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, instanceCount int) error

	// InitBindGroup allocates one buffer per entry of descriptor and the bind group over them.
	//
	// Parameters:
	//   - provider: holder of the buffers and bind group
	//   - descriptor: the reflected layout of the group
	//
	// Returns:
	//   - error: if an entry is not a buffer binding or GPU allocation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// WriteBuffers queues the writes. Writes to bindings without a buffer are skipped.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface texture and opens a pass that clears color to
	// the clear color and depth to 1.
	BeginFrame() error

	// DrawCall encodes one instanced quad draw: six vertices for each instance held by instances.
	//
	// Parameters:
	//   - pipelineKey: key of a registered pipeline
	//   - instances: the provider holding the instance buffer
	//   - bindGroups: providers bound in group order
	//
	// Returns:
	//   - error: if no pipeline is registered under pipelineKey
	DrawCall(pipelineKey string, instances bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the pass and submits it.
	EndFrame()

	// Present shows the frame and hands the surface texture back.
	Present()

	// SetPresentMode applies from the next Resize.
	SetPresentMode(mode PresentMode)
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer bound to the window's surface and configures the surface
// at the window's current size. GPU initialization failures panic.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - window: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		clearColor:    wgpu.Color{R: 1, G: 1, B: 1, A: 1},
	}

	for _, opt := range options {
		opt(r)
	}

	msaa := resolveSampleCount(r.pendingMSAA)

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.clearColor)
	}
	if err != nil {
		panic(err)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if err := r.backend.ConfigureSurface(window.Width(), window.Height()); err != nil {
		panic(err)
	}
	common.Logger().Info("renderer ready", "width", window.Width(), "height", window.Height(), "msaa", int(msaa))
	return r
}

func (r *renderer) Resize(width, height int) {
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		common.Logger().Warn("surface reconfigure failed", "width", width, "height", height, "error", err)
	}
}

// resolveSampleCount falls back to MSAA4x when no count was requested or the requested
// one is not portable.
func resolveSampleCount(requested *MSAASampleCount) MSAASampleCount {
	if requested == nil {
		return MSAA4x
	}
	if !requested.valid() {
		common.Logger().Warn("unsupported sample count, using 4x", "requested", uint32(*requested))
		return MSAA4x
	}
	return *requested
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		common.Logger().Debug("pipeline registered", "key", key)
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, instanceCount int) error {
	return r.backend.InitInstanceBuffer(provider, data, instanceCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	return r.backend.InitBindGroup(provider, descriptor)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, instances bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("pipeline %q not registered", pipelineKey)
	}
	r.backend.DrawCall(p, instances, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}
