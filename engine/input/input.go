// Package input maps window events onto the render state: a character key toggles
// the pause flag and the scroll wheel zooms the camera.
package input

import (
	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/Carmen-Shannon/oxy-donut/engine/render_state"
)

// controller is the implementation of the Controller interface.
type controller struct {
	state    *render_state.RenderState
	pauseKey rune
	bindings map[rune]func()
	redraw   func()
}

// Controller handles discrete input events. Handlers only mutate the render state
// and request redraws, they never draw.
type Controller interface {
	// HandleChar reacts to a typed character. The pause key flips the pause flag,
	// other bound characters run their action.
	//
	// Parameters:
	//   - char: the character produced by the key press
	HandleChar(char rune)

	// HandleScroll adds delta to the zoom distance, clamps it, rebuilds the view
	// and size scale, and requests a redraw.
	//
	// Parameters:
	//   - delta: the signed vertical scroll amount
	HandleScroll(delta float32)

	// TogglePause flips the pause flag and returns the new value.
	TogglePause() bool
}

var _ Controller = &controller{}

// NewController creates a Controller acting on state. The pause key defaults to space.
//
// Parameters:
//   - state: the render state the handlers mutate
//   - options: variadic list of ControllerOption functions
//
// Returns:
//   - Controller: the configured controller
func NewController(state *render_state.RenderState, options ...ControllerOption) Controller {
	c := &controller{
		state:    state,
		pauseKey: ' ',
		bindings: make(map[rune]func()),
		redraw:   func() {},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controller) HandleChar(char rune) {
	if char == c.pauseKey {
		c.TogglePause()
		return
	}
	if action, ok := c.bindings[char]; ok {
		action()
	}
}

func (c *controller) TogglePause() bool {
	c.state.Paused = !c.state.Paused
	common.Logger().Info("rotation pause toggled", "paused", c.state.Paused)
	return c.state.Paused
}

func (c *controller) HandleScroll(delta float32) {
	zoom := c.state.SetZoom(c.state.ZoomDistance + delta)
	common.Logger().Info("zoom changed", "distance", zoom, "size", c.state.SizeScale)
	c.redraw()
}
