package animator

import (
	"math"

	"github.com/Carmen-Shannon/oxy-donut/engine/render_state"
)

// Motion is the animated part of the render state.
type Motion struct {
	Theta float64 // degrees
	Phi   float64 // degrees
	Clock float64
}

// Step is the per-tick increment applied by Advance.
type Step struct {
	Theta float64
	Phi   float64
	Clock float64
}

// Advance applies one tick. Rotation only moves while unpaused; the clock always moves.
//
// Parameters:
//   - m: the motion before the tick
//   - step: the per-tick increments
//   - paused: whether rotation is frozen
//
// Returns:
//   - Motion: the motion after the tick
func Advance(m Motion, step Step, paused bool) Motion {
	if !paused {
		m.Theta += step.Theta
		m.Phi += step.Phi
	}
	m.Clock += step.Clock
	return m
}

// animator is the implementation of the Animator interface.
type animator struct {
	step   Step
	ticks  uint64
	redraw func()
}

// Animator drives the donut's rotation and clock. It is ticked by the engine, which
// owns the tick rate.
type Animator interface {
	// Tick advances state by one step, rebuilds the model matrix when the rotation
	// moved, and requests a redraw.
	//
	// Parameters:
	//   - state: the render state to advance
	Tick(state *render_state.RenderState)

	// Step returns the per-tick increments.
	Step() Step

	// Ticks returns how many ticks have run.
	Ticks() uint64
}

var _ Animator = &animator{}

// NewAnimator creates an Animator stepping 0.5° per tick on both axes and π/1000 on
// the clock.
//
// Parameters:
//   - options: variadic list of AnimatorBuilderOption functions
//
// Returns:
//   - Animator: the configured animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		step: Step{
			Theta: 0.5,
			Phi:   0.5,
			Clock: math.Pi / 1000,
		},
		redraw: func() {},
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) Tick(state *render_state.RenderState) {
	next := Advance(Motion{
		Theta: state.RotationTheta,
		Phi:   state.RotationPhi,
		Clock: state.Clock,
	}, a.step, state.Paused)

	if !state.Paused {
		state.SetRotation(next.Theta, next.Phi)
	}
	state.Clock = next.Clock
	a.ticks++
	a.redraw()
}

func (a *animator) Step() Step {
	return a.step
}

func (a *animator) Ticks() uint64 {
	return a.ticks
}
