package common

// Key codes as GLFW reports them to key callbacks. Printable keys use their
// upper-case ASCII value.
const (
	KeySpace = 32
	KeyS     = 83
	KeyEsc   = 256
)
