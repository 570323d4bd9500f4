// Package transform builds the model, view and projection matrices of the donut.
//
// Matrices are mgl32 column-major values meant to be applied to column vectors,
// so a world position p is projected as projection * view * model * p.
package transform

import "github.com/go-gl/mathgl/mgl32"

// Projection defaults used at startup and on every resize.
const (
	DefaultFovY float32 = 45
	DefaultNear float32 = 1
	DefaultFar  float32 = 1000
)

// BuildView pushes the scene distance units away from the camera along -Z.
//
// Parameters:
//   - distance: the camera distance (zoom)
//
// Returns:
//   - mgl32.Mat4: the view matrix
func BuildView(distance float32) mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -distance)
}

// BuildModel rotates by theta degrees about Z, then by phi degrees about Y.
// The Z rotation is applied to the vertex first.
//
// Parameters:
//   - theta: rotation about the Z axis in degrees
//   - phi: rotation about the Y axis in degrees
//
// Returns:
//   - mgl32.Mat4: the model matrix
func BuildModel(theta, phi float32) mgl32.Mat4 {
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(theta))
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(phi))
	return ry.Mul4(rz)
}

// BuildProjection returns a standard OpenGL-convention perspective projection
// (clip depth in [-w, w]).
//
// Parameters:
//   - fovY: vertical field of view in degrees
//   - aspect: viewport width divided by height, must be > 0
//   - near: near clip distance
//   - far: far clip distance
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func BuildProjection(fovY, aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(fovY), aspect, near, far)
}

// MVP composes projection * view * model.
func MVP(model, view, projection mgl32.Mat4) mgl32.Mat4 {
	return projection.Mul4(view).Mul4(model)
}
