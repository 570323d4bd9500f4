package render_state

// RenderStateOption configures a RenderState during construction.
type RenderStateOption func(*RenderState)

// WithZoom sets the initial camera distance. It is clamped to the minimum zoom.
func WithZoom(distance float32) RenderStateOption {
	return func(s *RenderState) {
		s.ZoomDistance = distance
	}
}

// WithMinZoom sets the closest the camera may get.
func WithMinZoom(distance float32) RenderStateOption {
	return func(s *RenderState) {
		s.MinZoom = distance
	}
}

// WithSizeNumerator sets k in SizeScale = k / ZoomDistance.
func WithSizeNumerator(k float32) RenderStateOption {
	return func(s *RenderState) {
		s.SizeNumerator = k
	}
}

// WithFovY sets the vertical field of view in degrees.
func WithFovY(degrees float32) RenderStateOption {
	return func(s *RenderState) {
		s.FovY = degrees
	}
}

// WithClipPlanes sets the near and far projection planes.
//
// Parameters:
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - RenderStateOption: a function that applies the clip planes
func WithClipPlanes(near, far float32) RenderStateOption {
	return func(s *RenderState) {
		s.Near = near
		s.Far = far
	}
}

// WithLineWidth sets the sprite outline width in pixels.
func WithLineWidth(width float32) RenderStateOption {
	return func(s *RenderState) {
		s.LineWidth = width
	}
}

// WithAntialias sets the width of the antialias fringe in pixels.
func WithAntialias(width float32) RenderStateOption {
	return func(s *RenderState) {
		s.Antialias = width
	}
}

// WithViewport derives the initial aspect ratio from a framebuffer size.
func WithViewport(width, height int) RenderStateOption {
	return func(s *RenderState) {
		if height != 0 {
			s.Aspect = float32(width) / float32(height)
		}
	}
}
