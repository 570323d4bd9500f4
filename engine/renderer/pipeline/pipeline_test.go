package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-donut/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-donut/engine/sprite"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("sprites")

	if p.PipelineKey() != "sprites" {
		t.Errorf("PipelineKey = %q", p.PipelineKey())
	}
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() || p.DepthCompare() != wgpu.CompareFunctionLess {
		t.Error("depth test should default to write-enabled Less")
	}
	if p.BlendEnabled() {
		t.Error("blending should default off")
	}
	bs := p.BlendState()
	if bs.Color.SrcFactor != wgpu.BlendFactorSrcAlpha || bs.Color.DstFactor != wgpu.BlendFactorOneMinusSrcAlpha {
		t.Errorf("color blend = %+v, want src-alpha / one-minus-src-alpha", bs.Color)
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleList || p.CullMode() != wgpu.CullModeNone {
		t.Error("unexpected rasterization defaults")
	}
	if p.Pipeline() != nil {
		t.Error("pipeline should be nil before registration")
	}
}

func TestNewPipelineOptions(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, sprite.VertexShaderSource)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, sprite.FragmentShaderSource)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPipeline("sprites",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithBlendEnabled(true),
		WithDepthCompare(wgpu.CompareFunctionLessEqual),
		WithDepthWriteEnabled(false),
		WithCullMode(wgpu.CullModeBack),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
	)

	if p.Shader(shader.ShaderTypeVertex) != vs || p.Shader(shader.ShaderTypeFragment) != fs {
		t.Error("shaders not stored by stage")
	}
	if !p.BlendEnabled() || p.DepthWriteEnabled() || p.DepthCompare() != wgpu.CompareFunctionLessEqual {
		t.Error("blend/depth options not applied")
	}
	if p.CullMode() != wgpu.CullModeBack || p.FrontFace() != wgpu.FrontFaceCW || p.WriteMask() != wgpu.ColorWriteMaskRed {
		t.Error("rasterization options not applied")
	}
}
