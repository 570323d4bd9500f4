package sprite

import (
	"github.com/Carmen-Shannon/oxy-donut/common"
)

// UniformBufferSize is the byte size of the WGSL SpriteUniforms struct:
// three mat4x4<f32> (192 bytes), viewport vec2 (8), four f32 (16), vec2 pad (8).
const UniformBufferSize = 224

// Marshal serializes the uniforms in the SpriteUniforms layout for GPU upload.
// The projection is converted to WebGPU clip space (depth in [0, w]) on the way out.
//
// Returns:
//   - []byte: the serialized 224-byte buffer
func (u *Uniforms) Marshal() []byte {
	buf := make([]byte, UniformBufferSize)
	common.PutMat4(buf[0:], u.Model)
	common.PutMat4(buf[64:], u.View)
	common.PutMat4(buf[128:], common.WebGPUClipCorrection.Mul4(u.Projection))
	common.PutFloat32s(buf[192:],
		u.Viewport[0], u.Viewport[1],
		u.LineWidth, u.Antialias,
		u.Size, u.Clock,
		0, 0,
	)
	return buf
}
