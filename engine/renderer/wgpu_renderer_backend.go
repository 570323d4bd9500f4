package renderer

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-donut/engine/sprite"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// renderTarget is a texture and the view the render pass attaches.
type renderTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *renderTarget) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	*t = renderTarget{}
}

// frame holds what BeginFrame acquired until Present gives it back.
type frame struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	surface *wgpu.Texture
	view    *wgpu.TextureView
}

type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	msaa          renderTarget
	depth         renderTarget
	passDesc      *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount
	clearColor  wgpu.Color

	current *frame
}

type wgpuRendererBackend interface {
	// ConfigureSurface configures the surface at the given size and rebuilds the
	// multisample and depth targets to match.
	ConfigureSurface(width, height int) error

	// SetPresentMode takes effect at the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline builds the GPU pipeline for p from its two shaders and stores
	// it on p.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitInstanceBuffer uploads instance data into a new vertex buffer held by provider.
	InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, instanceCount int) error

	// InitBindGroup creates a buffer per entry, sized to MinBindingSize, and the bind group
	// over them.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and opens the render pass.
	BeginFrame() error

	// DrawCall encodes one instanced quad draw into the open pass.
	DrawCall(p pipeline.Pipeline, instances bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider)

	EndFrame()
	Present()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, clearColor wgpu.Color) (wgpuRendererBackend, error) {
	// surface calls must stay on the thread that owns the window
	runtime.LockOSThread()

	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
		clearColor:  clearColor,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter
	common.Logger().Info("gpu adapter selected", "fallback", forceFallbackAdapter)

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "Donut Device"})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return b, nil
}

func (b *wgpuRendererBackendImpl) newTarget(label string, format wgpu.TextureFormat, width, height int) (renderTarget, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   uint32(b.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return renderTarget{}, fmt.Errorf("%s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return renderTarget{}, fmt.Errorf("%s view: %w", label, err)
	}
	return renderTarget{texture: tex, view: view}, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// the old pass descriptor points at the views released below
	b.passDesc = nil
	b.msaa.release()
	b.depth.release()

	format, alpha, err := surfaceModes(b.surface.GetCapabilities(b.adapter))
	if err != nil {
		return err
	}
	b.surfaceFormat = format
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   alpha,
	})

	if b.sampleCount > MSAAOff {
		if b.msaa, err = b.newTarget("MSAA Target", b.surfaceFormat, width, height); err != nil {
			return err
		}
	}
	if b.depth, err = b.newTarget("Depth Target", depthFormat, width, height); err != nil {
		return err
	}

	// with multisampling the pass draws into the MSAA target and resolves into the
	// swapchain view, so the samples themselves are not kept
	color := wgpu.RenderPassColorAttachment{
		View:       b.msaa.view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.sampleCount > MSAAOff {
		color.StoreOp = wgpu.StoreOpDiscard
	}
	b.passDesc = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		},
	}
	common.Logger().Debug("surface configured", "width", width, "height", height, "samples", uint32(b.sampleCount))
	return nil
}

// surfaceModes picks the preferred format and alpha mode the surface reports.
func surfaceModes(caps wgpu.SurfaceCapabilities) (wgpu.TextureFormat, wgpu.CompositeAlphaMode, error) {
	if len(caps.Formats) == 0 {
		return 0, 0, errors.New("surface reports no formats")
	}
	if len(caps.AlphaModes) == 0 {
		return 0, 0, errors.New("surface reports no alpha modes")
	}
	return caps.Formats[0], caps.AlphaModes[0], nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = wgpu.PresentModeFifo
	if mode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vert := p.Shader(shader.ShaderTypeVertex)
	frag := p.Shader(shader.ShaderTypeFragment)
	if vert == nil || frag == nil {
		return errors.New("pipeline needs a vertex and a fragment shader")
	}

	vs, err := b.device.CreateShaderModule(vert.Module())
	if err != nil {
		return fmt.Errorf("vertex module: %w", err)
	}
	fs, err := b.device.CreateShaderModule(frag.Module())
	if err != nil {
		return fmt.Errorf("fragment module: %w", err)
	}

	merged := mergeBindGroupLayouts(vert.BindGroupLayoutDescriptors(), frag.BindGroupLayoutDescriptors())
	groupLayouts := make([]*wgpu.BindGroupLayout, 0, len(merged))
	for g := range len(merged) {
		desc, ok := merged[g]
		if !ok {
			return fmt.Errorf("bind group %d is not declared by either shader", g)
		}
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("bind group layout %d: %w", g, err)
		}
		groupLayouts = append(groupLayouts, layout)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}

	target := wgpu.ColorTargetState{Format: b.surfaceFormat, WriteMask: p.WriteMask()}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionAlways
	if p.DepthTestEnabled() {
		depthCompare = p.DepthCompare()
	}
	keepStencil := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vert.EntryPoint(),
			Buffers:    vert.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: frag.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{Count: uint32(b.sampleCount), Mask: ^uint32(0)},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      keepStencil,
			StencilBack:       keepStencil,
		},
	})
	if err != nil {
		return fmt.Errorf("render pipeline: %w", err)
	}
	p.SetRenderPipeline(rp)
	return nil
}

func (b *wgpuRendererBackendImpl) InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, instanceCount int) error {
	if len(data) == 0 {
		return errors.New("instance data is empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Instances",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(buf, 0, data)
	provider.SetVertexBuffer(buf, instanceCount)

	common.Logger().Debug("instance buffer created", "label", provider.Label(), "bytes", len(data), "instances", instanceCount)
	return nil
}

func bufferUsage(t wgpu.BufferBindingType) (wgpu.BufferUsage, bool) {
	switch t {
	case wgpu.BufferBindingTypeUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, true
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst, true
	}
	return 0, false
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		if layout, err = b.device.CreateBindGroupLayout(&descriptor); err != nil {
			return err
		}
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, e := range descriptor.Entries {
		binding := int(e.Binding)
		usage, ok := bufferUsage(e.Buffer.Type)
		if !ok {
			return fmt.Errorf("binding %d is not a buffer binding", binding)
		}

		buf := provider.Buffer(binding)
		if buf == nil {
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s Binding %d", provider.Label(), binding),
				Size:  e.Buffer.MinBindingSize,
				Usage: usage,
			})
			if err != nil {
				return err
			}
			provider.SetBuffer(binding, buf)
			common.Logger().Debug("binding buffer created", "label", provider.Label(), "binding", binding, "bytes", e.Buffer.MinBindingSize)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Size: wgpu.WholeSize})
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg, layout)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if buf := w.Provider.Buffer(w.Binding); buf != nil {
			b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		return errors.New("previous frame not presented")
	}
	if b.passDesc == nil {
		return errors.New("surface not configured")
	}

	surface, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surface.CreateView(nil)
	if err != nil {
		surface.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surface.Release()
		return err
	}

	if b.sampleCount > MSAAOff {
		b.passDesc.ColorAttachments[0].ResolveTarget = view
	} else {
		b.passDesc.ColorAttachments[0].View = view
	}
	b.current = &frame{
		encoder: encoder,
		pass:    encoder.BeginRenderPass(b.passDesc),
		surface: surface,
		view:    view,
	}
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(p pipeline.Pipeline, instances bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil || b.current.pass == nil {
		return
	}
	pass := b.current.pass
	pass.SetPipeline(p.Pipeline())
	for i, bg := range bindGroups {
		pass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	pass.SetVertexBuffer(0, instances.VertexBuffer(), 0, wgpu.WholeSize)
	pass.Draw(sprite.VerticesPerSprite, uint32(instances.InstanceCount()), 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.current
	if f == nil || f.pass == nil {
		return
	}
	f.pass.End()
	f.pass = nil

	cmd, err := f.encoder.Finish(nil)
	f.encoder.Release()
	f.encoder = nil
	if err != nil {
		common.Logger().Warn("frame encoding failed", "error", err)
		f.view.Release()
		f.surface.Release()
		b.current = nil
		return
	}
	b.queue.Submit(cmd)
	cmd.Release()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.current
	if f == nil {
		return
	}
	b.surface.Present()
	f.view.Release()
	f.surface.Release()
	b.current = nil
}

// mergeBindGroupLayouts unions the per-group layouts of two shader stages. Entries that
// share a binding have their visibility ORed. Entries come out sorted by binding.
func mergeBindGroupLayouts(vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	byGroup := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	for _, stage := range []map[int]wgpu.BindGroupLayoutDescriptor{vertex, fragment} {
		for g, desc := range stage {
			if byGroup[g] == nil {
				byGroup[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if prev, ok := byGroup[g][e.Binding]; ok {
					e.Visibility |= prev.Visibility
				}
				byGroup[g][e.Binding] = e
			}
		}
	}

	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(byGroup))
	for g, entries := range byGroup {
		sorted := slices.SortedFunc(maps.Values(entries), func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: sorted}
	}
	return merged
}
