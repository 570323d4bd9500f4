package snapshot

import (
	"image/color"
	"runtime"
)

type config struct {
	width, height int
	supersample   int
	workers       int
	bandHeight    int
	background    color.Color
	overlay       bool
	overlayColor  color.Color
}

func defaultConfig() config {
	return config{
		width:        800,
		height:       800,
		supersample:  1,
		workers:      max(1, runtime.NumCPU()),
		background:   color.White,
		overlayColor: color.Black,
	}
}

// Option configures Render.
type Option func(*config)

// WithSize sets the output image size in pixels.
func WithSize(width, height int) Option {
	return func(c *config) {
		c.width = width
		c.height = height
	}
}

// WithSupersample renders at n times the output size and downscales.
func WithSupersample(n int) Option {
	return func(c *config) {
		c.supersample = n
	}
}

// WithWorkers sets how many bands are shaded concurrently.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithBandHeight sets the rows per parallel band. 0 splits the frame evenly across workers.
func WithBandHeight(rows int) Option {
	return func(c *config) {
		c.bandHeight = rows
	}
}

// WithBackground sets the clear color. Defaults to white.
func WithBackground(bg color.Color) Option {
	return func(c *config) {
		c.background = bg
	}
}

// WithOverlay stamps the clock, zoom, rotation and pause state in the top-left corner.
func WithOverlay(enabled bool) Option {
	return func(c *config) {
		c.overlay = enabled
	}
}

// WithOverlayColor sets the overlay text color. Defaults to black.
func WithOverlayColor(fg color.Color) Option {
	return func(c *config) {
		c.overlayColor = fg
	}
}
