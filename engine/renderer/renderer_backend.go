package renderer

// RendererBackendType selects the GPU API behind a Renderer. WebGPU is the only one.
type RendererBackendType int

const (
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode picks between vsync and immediate presentation.
type PresentMode int

const (
	// PresentModeVSync maps to Fifo, which every surface supports. Default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped maps to Immediate. Useful with profiling to see raw paint cost.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the color and depth targets. WebGPU only
// guarantees 1 and 4.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// valid reports whether the count is one every adapter accepts.
func (c MSAASampleCount) valid() bool {
	return c == MSAAOff || c == MSAA4x
}
