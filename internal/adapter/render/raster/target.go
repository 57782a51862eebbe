// Package raster implements the batched-immediate render target.
//
// Every bar of both sides is accumulated into a single vector path per frame and
// filled once through a pre-rendered gradient image. Frames are rendered at physical
// resolution into a pair of RGBA buffers that are swapped on Present.
package raster

import (
	"image"
	"image/color"
	"log/slog"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/render"
)

// Name is the strategy name reported by the target.
const Name = string(domain.StrategyBatched)

// Target is the batched-immediate render target.
//
// Drawing methods are called from the tick goroutine only. Frame may be called from
// any goroutine and returns the last presented frame.
type Target struct {
	logger *slog.Logger

	back     *image.RGBA
	gradient *image.RGBA
	z        *vector.Rasterizer
	width    int
	height   int

	// frontMu guards front, which is read by the host while the next frame is drawn
	frontMu sync.Mutex
	front   *image.RGBA

	onPresent func()

	frames    uint64
	lastFills int
	released  bool
}

// NewTarget creates a raster target. onPresent, if not nil, is called after each
// Present so the host can schedule a repaint.
func NewTarget(logger *slog.Logger, onPresent func()) *Target {
	return &Target{
		logger:    logger.With(slog.String("component", "raster_target")),
		z:         vector.NewRasterizer(0, 0),
		onPresent: onPresent,
	}
}

// Name returns the strategy name.
func (t *Target) Name() string {
	return Name
}

// Clear fills the back buffer with the background colour.
func (t *Target) Clear() error {
	if t.released {
		return t.releasedErr("clear")
	}
	t.lastFills = 0
	if t.back != nil {
		fill(t.back)
	}
	return nil
}

// DrawBars accumulates both sides of every bar into one path and fills it once.
func (t *Target) DrawBars(heights []float32, vp domain.Viewport) error {
	if t.released {
		return t.releasedErr("draw_bars")
	}
	t.ensureSize(vp)

	scale := scaleOf(vp)
	layout := render.NewBarLayout(vp, len(heights))

	t.z.Reset(t.width, t.height)
	t.z.DrawOp = draw.Over
	path := 0
	for i, h := range heights {
		for _, side := range [...]render.Side{render.SideRight, render.SideLeft} {
			r := layout.Bar(i, h, side)
			if r.Empty() {
				continue
			}
			x0, y0 := r.X*scale, r.Y*scale
			x1, y1 := (r.X+r.W)*scale, (r.Y+r.H)*scale
			t.z.MoveTo(x0, y0)
			t.z.LineTo(x1, y0)
			t.z.LineTo(x1, y1)
			t.z.LineTo(x0, y1)
			t.z.ClosePath()
			path++
		}
	}
	if path == 0 {
		return nil
	}

	t.z.Draw(t.back, t.back.Bounds(), t.gradient, image.Point{})
	t.lastFills++
	return nil
}

// DrawParticles composites one white square per particle with its own alpha.
func (t *Target) DrawParticles(xs, ys, sizes, opacities []float32, vp domain.Viewport) error {
	if t.released {
		return t.releasedErr("draw_particles")
	}
	t.ensureSize(vp)

	scale := scaleOf(vp)
	bounds := t.back.Bounds()
	n := min(len(xs), len(ys), len(sizes), len(opacities))
	for i := 0; i < n; i++ {
		r := render.ParticleRect(xs[i], ys[i], sizes[i], scale)
		rect := image.Rect(
			int(r.X+0.5), int(r.Y+0.5),
			int(r.X+r.W+0.5), int(r.Y+r.H+0.5),
		).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		a := uint8(clamp01(opacities[i])*255 + 0.5)
		src := image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: a})
		draw.Draw(t.back, rect, src, image.Point{}, draw.Over)
	}
	return nil
}

// Present publishes the back buffer as the current frame and recycles the old one.
func (t *Target) Present() error {
	if t.released {
		return t.releasedErr("present")
	}
	if t.back == nil {
		return nil
	}

	t.frontMu.Lock()
	t.front, t.back = t.back, t.front
	t.frontMu.Unlock()

	if t.back == nil || t.back.Bounds() != t.front.Bounds() {
		t.back = image.NewRGBA(t.front.Bounds())
	}
	t.frames++
	if t.onPresent != nil {
		t.onPresent()
	}
	return nil
}

// Release drops the frame buffers. Later calls are no-ops.
func (t *Target) Release() error {
	if t.released {
		return nil
	}
	t.released = true

	t.frontMu.Lock()
	t.front = nil
	t.frontMu.Unlock()
	t.back = nil
	t.gradient = nil
	t.logger.Debug("raster target released", slog.Uint64("frames", t.frames))
	return nil
}

// Frame returns the last presented frame, or nil before the first Present.
func (t *Target) Frame() *image.RGBA {
	t.frontMu.Lock()
	defer t.frontMu.Unlock()
	return t.front
}

// LastBarFills returns how many fills the last frame issued for its bars.
func (t *Target) LastBarFills() int {
	return t.lastFills
}

// ensureSize reallocates the back buffer and gradient source for a new physical size.
func (t *Target) ensureSize(vp domain.Viewport) {
	w, h := vp.PhysicalSize()
	w, h = max(w, 1), max(h, 1)
	if t.back != nil && w == t.width && h == t.height {
		return
	}

	t.width, t.height = w, h
	t.back = image.NewRGBA(image.Rect(0, 0, w, h))
	fill(t.back)
	t.gradient = gradientImage(w, h)
	t.logger.Debug("raster buffers resized", slog.Int("width", w), slog.Int("height", h))
}

// gradientImage renders the bar gradient over the full frame height.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := render.GradientAt((float32(y) + 0.5) / float32(h))
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			row[x*4+0] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}
	}
	return img
}

func fill(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.NewUniform(render.Background), image.Point{}, draw.Src)
}

func scaleOf(vp domain.Viewport) float32 {
	if vp.Scale <= 0 {
		return 1
	}
	return vp.Scale
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func (t *Target) releasedErr(op string) error {
	return domain.NewRenderError(Name, op, 0, domain.ErrTargetReleased)
}

var _ ports.RenderTarget = (*Target)(nil)
