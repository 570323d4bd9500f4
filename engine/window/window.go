package window

import (
	"time"

	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides a native window, its WebGPU surface, and the input events the demo consumes.
// All methods must be called from the thread that created the window.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	// Zero-sized framebuffers (minimized windows) are never reported.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta (positive = up)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	// Escape never reaches the callback; it closes the window.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetCharCallback sets the callback for typed Unicode characters.
	//
	// Parameters:
	//   - callback: function receiving the character
	SetCharCallback(callback func(r rune))

	// SurfaceDescriptor returns a platform-appropriate wgpu.SurfaceDescriptor for the window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true while the window has not been asked to close.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// PollEvents dispatches pending events, waiting up to timeout for one to arrive.
	// A timeout <= 0 polls without blocking.
	//
	// Parameters:
	//   - timeout: the longest time to wait for an event
	PollEvents(timeout time.Duration)

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	title string

	// size limits; 0 leaves a bound unconstrained
	minWidth, minHeight int
	maxWidth, maxHeight int

	// current framebuffer size in pixels
	width, height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onChar    func(r rune)
}

var _ Window = &engineWindow{}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetCharCallback(callback func(r rune)) {
	w.onChar = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents(timeout time.Duration) {
	platformPollEvents(w, timeout)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// dispatchResize records a framebuffer size change and forwards it, dropping zero sizes.
//
// Returns:
//   - bool: true if the event was forwarded
func (w *engineWindow) dispatchResize(width, height int) bool {
	if width <= 0 || height <= 0 {
		common.Logger().Warn("ignoring zero-size resize", "width", width, "height", height)
		return false
	}
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
	return true
}

// dispatchKeyDown forwards a key press. Escape is swallowed and reported as a close request.
//
// Returns:
//   - bool: true if the window should close
func (w *engineWindow) dispatchKeyDown(keyCode uint32) bool {
	if keyCode == common.KeyEsc {
		common.Logger().Info("escape pressed, closing window")
		return true
	}
	if w.onKeyDown != nil {
		w.onKeyDown(keyCode)
	}
	return false
}

func (w *engineWindow) dispatchChar(r rune) {
	if w.onChar != nil {
		w.onChar(r)
	}
}

func (w *engineWindow) dispatchScroll(delta float32) {
	if delta == 0 {
		return
	}
	if w.onScroll != nil {
		w.onScroll(delta)
	}
}
