// Package snapshot renders a RenderState to an image on the CPU, without a window
// or GPU, using the same sprite shading as the live renderer.
//
// The rasterizer mirrors the GPU pipeline: one screen-aligned square per point,
// depth test Less with depth write, source-alpha blending over a cleared frame,
// points drawn in grid order. Rows are split into bands rendered in parallel; each
// band walks every sprite in order, so the result does not depend on scheduling.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-donut/common"
	"github.com/Carmen-Shannon/oxy-donut/engine/grid"
	"github.com/Carmen-Shannon/oxy-donut/engine/render_state"
	"github.com/Carmen-Shannon/oxy-donut/engine/sprite"
	"github.com/Carmen-Shannon/oxy-donut/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrInvalidSize is returned when the output size, supersample factor or worker count is not positive.
var ErrInvalidSize = errors.New("invalid snapshot size")

// projected is a sprite after the vertex stage, in framebuffer pixels.
type projected struct {
	cx, cy   float32 // center, y down
	half     float32 // half the quad width
	depth    float32 // [0, 1]
	size     float32 // full quad width
	varyings sprite.Varyings
}

// frame is a float RGBA color buffer with a depth buffer.
type frame struct {
	width, height int
	color         []mgl32.Vec4
	depth         []float32
}

func newFrame(width, height int, clear mgl32.Vec4) *frame {
	f := &frame{
		width:  width,
		height: height,
		color:  make([]mgl32.Vec4, width*height),
		depth:  make([]float32, width*height),
	}
	for i := range f.color {
		f.color[i] = clear
		f.depth[i] = 1
	}
	return f
}

// Render rasterizes the points as they would appear on screen for state.
//
// Parameters:
//   - state: the render state to draw (rotation, clock, zoom, shading constants)
//   - points: the grid
//   - opts: variadic list of Option functions
//
// Returns:
//   - *image.NRGBA: the rendered image at the requested size
//   - error: ErrInvalidSize for bad dimensions
func Render(state *render_state.RenderState, points []grid.GridPoint, opts ...Option) (*image.NRGBA, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.width <= 0 || cfg.height <= 0 || cfg.supersample <= 0 || cfg.workers <= 0 {
		return nil, fmt.Errorf("%w: %dx%d supersample %d workers %d", ErrInvalidSize, cfg.width, cfg.height, cfg.supersample, cfg.workers)
	}

	start := time.Now()
	ss := cfg.supersample
	w, h := cfg.width*ss, cfg.height*ss

	u := state.Uniforms(w, h)
	// uniforms are in pixels; scale them so the downscaled image matches a 1x render
	u.Projection = aspectProjection(state, w, h)
	u.Size *= float32(ss)
	u.LineWidth *= float32(ss)
	u.Antialias *= float32(ss)

	sprites := project(points, u, w, h)
	f := newFrame(w, h, toVec4(cfg.background))
	rasterize(f, sprites, cfg.workers, cfg.bandHeight)

	img := f.image()
	if ss > 1 {
		dst := image.NewNRGBA(image.Rect(0, 0, cfg.width, cfg.height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	if cfg.overlay {
		stampOverlay(img, overlayText(state), cfg.overlayColor)
	}

	common.Logger().Debug("snapshot rendered",
		"width", cfg.width, "height", cfg.height, "supersample", ss,
		"sprites", len(sprites), "elapsed", time.Since(start))
	return img, nil
}

// aspectProjection rebuilds the projection for the snapshot's own aspect ratio, since
// the state's projection follows the live window.
func aspectProjection(state *render_state.RenderState, w, h int) mgl32.Mat4 {
	return transform.BuildProjection(state.FovY, float32(w)/float32(h), state.Near, state.Far)
}

// project runs the vertex stage and the viewport transform, dropping points behind the
// camera or outside the depth range.
func project(points []grid.GridPoint, u sprite.Uniforms, w, h int) []projected {
	out := make([]projected, 0, len(points))
	for _, p := range points {
		v := sprite.ShadeVertex(p, u)
		cw := v.Clip[3]
		if cw <= 0 {
			continue
		}
		ndc := v.Clip.Vec3().Mul(1 / cw)
		if ndc[2] < -1 || ndc[2] > 1 {
			continue
		}
		out = append(out, projected{
			cx:       (ndc[0] + 1) / 2 * float32(w),
			cy:       (1 - ndc[1]) / 2 * float32(h),
			half:     v.PointSize / 2,
			depth:    (ndc[2] + 1) / 2,
			size:     v.PointSize,
			varyings: v.Varyings,
		})
	}
	return out
}

// rasterize splits the frame into row bands and shades each band on the worker pool.
func rasterize(f *frame, sprites []projected, workers, bandHeight int) {
	if bandHeight <= 0 {
		bandHeight = (f.height + workers - 1) / workers
	}

	pool := worker.NewDynamicWorkerPool(workers, f.height/bandHeight+1, 100*time.Millisecond)
	var wg sync.WaitGroup
	id := 0
	for y0 := 0; y0 < f.height; y0 += bandHeight {
		y1 := min(y0+bandHeight, f.height)
		wg.Add(1)
		lo, hi := y0, y1
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				f.shadeBand(sprites, lo, hi)
				return nil, nil
			},
		})
		id++
	}
	wg.Wait()
}

// shadeBand draws every sprite's intersection with rows [y0, y1).
func (f *frame) shadeBand(sprites []projected, y0, y1 int) {
	for i := range sprites {
		s := &sprites[i]
		top := max(y0, int(math.Floor(float64(s.cy-s.half))))
		bottom := min(y1, int(math.Ceil(float64(s.cy+s.half))))
		if top >= bottom {
			continue
		}
		left := max(0, int(math.Floor(float64(s.cx-s.half))))
		right := min(f.width, int(math.Ceil(float64(s.cx+s.half))))

		for y := top; y < bottom; y++ {
			py := float32(y) + 0.5
			oy := (s.cy - py) / s.size // up is positive, as in the fragment stage
			if oy < -0.5 || oy > 0.5 {
				continue
			}
			row := y * f.width
			for x := left; x < right; x++ {
				ox := (float32(x) + 0.5 - s.cx) / s.size
				if ox < -0.5 || ox > 0.5 {
					continue
				}
				idx := row + x
				if !(s.depth < f.depth[idx]) {
					continue
				}
				c, region := sprite.ShadeFragment(mgl32.Vec2{ox, oy}, s.varyings)
				if region == sprite.RegionDiscard {
					continue
				}
				f.color[idx] = blend(c, f.color[idx])
				f.depth[idx] = s.depth
			}
		}
	}
}

// blend applies src-alpha / one-minus-src-alpha to color and one / one-minus-src-alpha to alpha.
func blend(src, dst mgl32.Vec4) mgl32.Vec4 {
	a := src[3]
	return mgl32.Vec4{
		src[0]*a + dst[0]*(1-a),
		src[1]*a + dst[1]*(1-a),
		src[2]*a + dst[2]*(1-a),
		a + dst[3]*(1-a),
	}
}

func (f *frame) image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	for i, c := range f.color {
		o := i * 4
		img.Pix[o+0] = to8(c[0])
		img.Pix[o+1] = to8(c[1])
		img.Pix[o+2] = to8(c[2])
		img.Pix[o+3] = to8(c[3])
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

func toVec4(c color.Color) mgl32.Vec4 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return mgl32.Vec4{float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255, float32(n.A) / 255}
}

func overlayText(state *render_state.RenderState) string {
	paused := ""
	if state.Paused {
		paused = "  paused"
	}
	return fmt.Sprintf("clock %.3f  zoom %.2f  rot %.1f/%.1f%s",
		state.Clock, state.ZoomDistance, state.RotationTheta, state.RotationPhi, paused)
}

// stampOverlay writes text in the top-left corner with the 7x13 bitmap face.
func stampOverlay(img draw.Image, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 4+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// WritePNG encodes img as PNG.
//
// Parameters:
//   - w: the destination
//   - img: the image to encode
//
// Returns:
//   - error: the encoder's error, if any
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes img as PNG to the file at path. A failed close is reported, since
// it can mean the file was not fully written.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeAndClose(f, img)
}

func writeAndClose(wc io.WriteCloser, img image.Image) error {
	err := WritePNG(wc, img)
	if cerr := wc.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close png: %w", cerr)
	}
	return err
}
