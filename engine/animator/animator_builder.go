package animator

// AnimatorBuilderOption configures an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithRotationStep sets the degrees added to both rotation angles per unpaused tick.
func WithRotationStep(degrees float64) AnimatorBuilderOption {
	return func(a *animator) {
		a.step.Theta = degrees
		a.step.Phi = degrees
	}
}

// WithClockStep sets the phase added to the clock every tick.
func WithClockStep(radians float64) AnimatorBuilderOption {
	return func(a *animator) {
		a.step.Clock = radians
	}
}

// WithRedraw sets the function called after every tick to request a new frame.
func WithRedraw(fn func()) AnimatorBuilderOption {
	return func(a *animator) {
		if fn != nil {
			a.redraw = fn
		}
	}
}
