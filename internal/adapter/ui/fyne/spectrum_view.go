package fyne

import (
	"image"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/govis/internal/render"
)

// SpectrumView shows the frames presented by the raster target.
// It reports its size to the host and toggles playback when tapped.
type SpectrumView struct {
	widget.BaseWidget

	raster *canvas.Raster

	mu       sync.RWMutex
	frame    func() *image.RGBA
	onResize func(fyneapp.Size)
	onTap    func()
	blank    *image.RGBA
}

// NewSpectrumView creates an empty view. Until a frame source is set it shows the background.
func NewSpectrumView() *SpectrumView {
	v := &SpectrumView{
		blank: image.NewRGBA(image.Rect(0, 0, 1, 1)),
	}
	v.blank.Set(0, 0, render.Background)
	v.raster = canvas.NewRaster(v.generate)
	v.ExtendBaseWidget(v)
	return v
}

// SetFrameSource sets the function returning the latest presented frame.
func (v *SpectrumView) SetFrameSource(frame func() *image.RGBA) {
	v.mu.Lock()
	v.frame = frame
	v.mu.Unlock()
}

// CreateRenderer implements fyne.Widget.
func (v *SpectrumView) CreateRenderer() fyneapp.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize returns the minimum size of the view.
func (v *SpectrumView) MinSize() fyneapp.Size {
	return fyneapp.NewSize(0, 0)
}

// Resize resizes the view and reports the new size.
func (v *SpectrumView) Resize(size fyneapp.Size) {
	v.BaseWidget.Resize(size)

	v.mu.RLock()
	onResize := v.onResize
	v.mu.RUnlock()
	if onResize != nil {
		onResize(size)
	}
}

// Tapped implements fyne.Tappable.
func (v *SpectrumView) Tapped(*fyneapp.PointEvent) {
	v.mu.RLock()
	onTap := v.onTap
	v.mu.RUnlock()
	if onTap != nil {
		onTap()
	}
}

// Repaint asks fyne to regenerate the raster from the latest frame.
func (v *SpectrumView) Repaint() {
	v.raster.Refresh()
}

func (v *SpectrumView) generate(int, int) image.Image {
	v.mu.RLock()
	frame := v.frame
	v.mu.RUnlock()

	if frame != nil {
		if img := frame(); img != nil {
			return img
		}
	}
	return v.blank
}

var _ fyneapp.Tappable = (*SpectrumView)(nil)
