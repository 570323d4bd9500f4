// Package scene draws the donut: it owns the sprite pipeline, the GPU copy of the
// point grid and the uniform buffer, and turns the shared RenderState into frames.
package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/Carmen-Shannon/oxy-donut/engine/grid"
	"github.com/Carmen-Shannon/oxy-donut/engine/render_state"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-donut/engine/sprite"
)

// ErrNotInitialized is returned by Paint before Init has succeeded.
var ErrNotInitialized = errors.New("scene not initialized")

const (
	// DefaultPipelineKey is the key the sprite pipeline is registered under.
	DefaultPipelineKey = "donut-sprites"

	uniformGroup   = 0
	uniformBinding = 0
)

// scene is the implementation of the Scene interface.
type scene struct {
	name        string
	pipelineKey string

	r     renderer.Renderer
	state *render_state.RenderState

	width, height int

	meshProvider    bind_group_provider.BindGroupProvider
	uniformProvider bind_group_provider.BindGroupProvider
	initialized     bool
}

// Scene renders the point grid with the current RenderState.
// It is driven from the engine loop and is not safe for concurrent use.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// State returns the RenderState the scene paints from.
	State() *render_state.RenderState

	// Viewport returns the framebuffer size the next Paint targets.
	Viewport() (width, height int)

	// Init compiles the sprite pipeline, uploads the grid as instance data and creates
	// the uniform buffer. It must be called once before Paint.
	//
	// Parameters:
	//   - points: the generated grid
	//
	// Returns:
	//   - error: an error if shader parsing or any GPU resource creation fails
	Init(points []grid.GridPoint) error

	// Paint uploads the uniforms for the current state and draws one frame:
	// clear, then every grid point as an alpha-blended, depth-tested sprite.
	//
	// Returns:
	//   - error: ErrNotInitialized, or a wrapped frame acquisition or draw error
	Paint() error

	// Resize updates the viewport, projection and surface for a new framebuffer size.
	// Zero sizes are ignored.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	Resize(width, height int)

	// Release frees the GPU buffers and bind group.
	Release()
}

var _ Scene = &scene{}

// NewScene creates a Scene that draws through r from state.
//
// Parameters:
//   - r: the renderer to draw with
//   - state: the shared render state
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene, not yet initialized
func NewScene(r renderer.Renderer, state *render_state.RenderState, options ...SceneBuilderOption) Scene {
	s := &scene{
		name:        "donut",
		pipelineKey: DefaultPipelineKey,
		r:           r,
		state:       state,
		width:       defaultViewport,
		height:      defaultViewport,
	}
	for _, opt := range options {
		opt(s)
	}
	s.meshProvider = bind_group_provider.NewBindGroupProvider(s.name + " Points")
	s.uniformProvider = bind_group_provider.NewBindGroupProvider(s.name + " Uniforms")
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) State() *render_state.RenderState {
	return s.state
}

func (s *scene) Viewport() (int, int) {
	return s.width, s.height
}

func (s *scene) Init(points []grid.GridPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: no points", grid.ErrInvalidGrid)
	}

	vs, err := shader.NewShader("sprite_vertex", shader.ShaderTypeVertex, sprite.VertexShaderSource)
	if err != nil {
		return fmt.Errorf("vertex shader: %w", err)
	}
	fs, err := shader.NewShader("sprite_fragment", shader.ShaderTypeFragment, sprite.FragmentShaderSource)
	if err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}

	p := pipeline.NewPipeline(s.pipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBlendEnabled(true),
	)
	if err := s.r.RegisterPipelines(p); err != nil {
		return err
	}

	if err := s.r.InitInstanceBuffer(s.meshProvider, grid.Bytes(points), len(points)); err != nil {
		return fmt.Errorf("instance buffer: %w", err)
	}

	desc, ok := vs.BindGroupLayoutDescriptors()[uniformGroup]
	if !ok {
		return fmt.Errorf("vertex shader declares no bind group %d", uniformGroup)
	}
	if err := s.r.InitBindGroup(s.uniformProvider, desc); err != nil {
		return fmt.Errorf("uniform bind group: %w", err)
	}

	s.initialized = true
	common.Logger().Info("scene initialized", "scene", s.name, "points", len(points))
	return nil
}

func (s *scene) Paint() error {
	if !s.initialized {
		return ErrNotInitialized
	}

	u := s.state.Uniforms(s.width, s.height)
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.uniformProvider,
		Binding:  uniformBinding,
		Data:     u.Marshal(),
	}})

	if err := s.r.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	drawErr := s.r.DrawCall(s.pipelineKey, s.meshProvider, []bind_group_provider.BindGroupProvider{s.uniformProvider})
	s.r.EndFrame()
	s.r.Present()
	if drawErr != nil {
		return fmt.Errorf("draw: %w", drawErr)
	}
	return nil
}

func (s *scene) Resize(width, height int) {
	if !s.state.SetViewport(width, height) {
		return
	}
	s.width = width
	s.height = height
	s.r.Resize(width, height)
	common.Logger().Debug("scene resized", "scene", s.name, "width", width, "height", height)
}

func (s *scene) Release() {
	s.meshProvider.Release()
	s.uniformProvider.Release()
	s.initialized = false
}
