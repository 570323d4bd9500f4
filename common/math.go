package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// WebGPUClipCorrection remaps an OpenGL-convention clip position (depth in [-w, w])
// into WebGPU clip space (depth in [0, w]) by computing z' = 0.5*z + 0.5*w.
// Pre-multiply it onto a projection built for OpenGL before uploading to the GPU.
var WebGPUClipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// PutMat4 writes a column-major 4x4 matrix into dst as 16 little-endian float32 values.
//
// Parameters:
//   - dst: destination buffer (must be at least 64 bytes)
//   - m: the matrix to serialize
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(m[i]))
	}
}

// PutFloat32s writes each value into dst as consecutive little-endian float32 values.
//
// Parameters:
//   - dst: destination buffer (must be at least 4*len(values) bytes)
//   - values: the values to serialize
func PutFloat32s(dst []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
