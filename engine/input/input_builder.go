package input

// ControllerOption configures a Controller during construction.
type ControllerOption func(*controller)

// WithPauseKey sets the character that toggles rotation.
func WithPauseKey(char rune) ControllerOption {
	return func(c *controller) {
		c.pauseKey = char
	}
}

// WithBinding runs action whenever char is typed. The pause key cannot be rebound this way.
func WithBinding(char rune, action func()) ControllerOption {
	return func(c *controller) {
		if action != nil {
			c.bindings[char] = action
		}
	}
}

// WithRedraw sets the function called after a zoom to request a new frame.
func WithRedraw(fn func()) ControllerOption {
	return func(c *controller) {
		if fn != nil {
			c.redraw = fn
		}
	}
}
