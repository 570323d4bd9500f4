// Package render_state holds the single mutable state of a running donut: the
// transform matrices, rotation angles, clock, zoom, pause flag and the shading
// constants that feed the sprite uniforms.
//
// One RenderState is created at startup and passed by pointer to every handler.
// All handlers run on the engine loop, so the state carries no locking.
package render_state

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-donut/engine/sprite"
	"github.com/Carmen-Shannon/oxy-donut/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidOption is returned by NewRenderState when an option is out of range.
var ErrInvalidOption = errors.New("invalid render state option")

// RenderState is the process-wide render and camera state.
type RenderState struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4

	// Accumulators grow for the whole run, so they stay in float64 and are reduced
	// to one turn before they reach float32 matrices and uniforms.
	RotationTheta float64 // degrees about Z
	RotationPhi   float64 // degrees about Y
	Clock         float64 // phase added to every point's theta
	ZoomDistance  float32
	Paused        bool
	SizeScale     float32 // SizeNumerator / ZoomDistance
	Aspect        float32

	MinZoom       float32
	SizeNumerator float32
	FovY          float32
	Near          float32
	Far           float32
	LineWidth     float32
	Antialias     float32
}

// NewRenderState builds the startup state: identity model, view pushed back by the
// zoom distance and a projection for the initial aspect ratio.
//
// Parameters:
//   - options: variadic list of RenderStateOption functions
//
// Returns:
//   - *RenderState: the initialized state
//   - error: ErrInvalidOption if an option is out of range
func NewRenderState(options ...RenderStateOption) (*RenderState, error) {
	s := &RenderState{
		Model:         mgl32.Ident4(),
		ZoomDistance:  5,
		Aspect:        1,
		MinZoom:       2,
		SizeNumerator: 5,
		FovY:          transform.DefaultFovY,
		Near:          transform.DefaultNear,
		Far:           transform.DefaultFar,
		LineWidth:     1,
		Antialias:     1,
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	s.SetZoom(s.ZoomDistance)
	s.Projection = transform.BuildProjection(s.FovY, s.Aspect, s.Near, s.Far)
	return s, nil
}

func (s *RenderState) validate() error {
	switch {
	case s.MinZoom <= 0:
		return fmt.Errorf("%w: minimum zoom %v must be positive", ErrInvalidOption, s.MinZoom)
	case s.SizeNumerator <= 0:
		return fmt.Errorf("%w: size numerator %v must be positive", ErrInvalidOption, s.SizeNumerator)
	case s.FovY <= 0 || s.FovY >= 180:
		return fmt.Errorf("%w: field of view %v outside (0, 180)", ErrInvalidOption, s.FovY)
	case s.Near <= 0 || s.Far <= s.Near:
		return fmt.Errorf("%w: clip planes near=%v far=%v", ErrInvalidOption, s.Near, s.Far)
	case s.LineWidth < 0 || s.Antialias < 0:
		return fmt.Errorf("%w: line width %v and antialias %v must not be negative", ErrInvalidOption, s.LineWidth, s.Antialias)
	case s.Aspect <= 0:
		return fmt.Errorf("%w: aspect %v must be positive", ErrInvalidOption, s.Aspect)
	}
	return nil
}

// SetRotation stores the rotation angles and rebuilds the model matrix from the
// angles reduced to [0, 360).
func (s *RenderState) SetRotation(theta, phi float64) {
	s.RotationTheta = theta
	s.RotationPhi = phi
	s.Model = transform.BuildModel(float32(wrap(theta, 360)), float32(wrap(phi, 360)))
}

// wrap reduces v into [0, period).
func wrap(v, period float64) float64 {
	v = math.Mod(v, period)
	if v < 0 {
		v += period
	}
	return v
}

// SetZoom clamps distance to MinZoom, then rebuilds the view matrix and the size scale.
//
// Parameters:
//   - distance: the requested camera distance
//
// Returns:
//   - float32: the distance actually applied
func (s *RenderState) SetZoom(distance float32) float32 {
	s.ZoomDistance = max(s.MinZoom, distance)
	s.View = transform.BuildView(s.ZoomDistance)
	s.SizeScale = s.SizeNumerator / s.ZoomDistance
	return s.ZoomDistance
}

// SetViewport updates the aspect ratio and projection. Zero-area viewports are
// ignored and reported with false.
func (s *RenderState) SetViewport(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	s.Aspect = float32(width) / float32(height)
	s.Projection = transform.BuildProjection(s.FovY, s.Aspect, s.Near, s.Far)
	return true
}

// Uniforms snapshots the state into the per-frame sprite uniforms.
//
// Parameters:
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
//
// Returns:
//   - sprite.Uniforms: the values for the current frame
func (s *RenderState) Uniforms(width, height int) sprite.Uniforms {
	return sprite.Uniforms{
		Model:      s.Model,
		View:       s.View,
		Projection: s.Projection,
		Viewport:   mgl32.Vec2{float32(width), float32(height)},
		LineWidth:  s.LineWidth,
		Antialias:  s.Antialias,
		Size:       s.SizeScale,
		Clock:      float32(wrap(s.Clock, 2*math.Pi)),
	}
}
