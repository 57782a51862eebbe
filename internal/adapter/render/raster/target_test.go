package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/render"
)

func drawFrame(t *testing.T, target *Target, heights []float32, vp domain.Viewport) {
	t.Helper()
	require.NoError(t, target.Clear())
	require.NoError(t, target.DrawBars(heights, vp))
	require.NoError(t, target.DrawParticles(nil, nil, nil, nil, vp))
	require.NoError(t, target.Present())
}

func TestFrameAtPhysicalResolution(t *testing.T) {
	presented := 0
	target := NewTarget(logger.NewTestLogger(), func() { presented++ })
	vp := domain.Viewport{Width: 200, Height: 100, Scale: 2}

	assert.Nil(t, target.Frame())
	drawFrame(t, target, make([]float32, 8), vp)

	frame := target.Frame()
	require.NotNil(t, frame)
	assert.Equal(t, 400, frame.Bounds().Dx())
	assert.Equal(t, 200, frame.Bounds().Dy())
	assert.Equal(t, 1, presented)
	assert.Equal(t, render.Background, frame.RGBAAt(10, 10))
}

func TestBarsUseOneFill(t *testing.T) {
	target := NewTarget(logger.NewTestLogger(), nil)
	vp := domain.Viewport{Width: 256, Height: 128, Scale: 1}
	heights := make([]float32, 64)
	for i := range heights {
		heights[i] = 1
	}

	drawFrame(t, target, heights, vp)
	assert.Equal(t, 1, target.LastBarFills())

	drawFrame(t, target, make([]float32, 64), vp)
	assert.Equal(t, 0, target.LastBarFills(), "silent frame draws no bars")
}

func TestBarsArePaintedWithGradient(t *testing.T) {
	target := NewTarget(logger.NewTestLogger(), nil)
	vp := domain.Viewport{Width: 100, Height: 100, Scale: 1}
	heights := []float32{1, 1, 1, 1}

	drawFrame(t, target, heights, vp)
	frame := target.Frame()

	// centre of the first right bar near the bottom edge
	layout := render.NewBarLayout(vp, len(heights))
	bar := layout.Bar(0, 1, render.SideRight)
	x := int(bar.X + bar.W/2)
	bottom := frame.RGBAAt(x, 98)
	assert.NotEqual(t, render.Background, bottom)
	assert.InDelta(t, int(render.GradientAt(0.985).R), int(bottom.R), 3)

	// above the tallest bar the background shows
	assert.Equal(t, render.Background, frame.RGBAAt(x, 5))

	// the mirrored bar on the left is painted too
	left := layout.Bar(0, 1, render.SideLeft)
	assert.NotEqual(t, render.Background, frame.RGBAAt(int(left.X+left.W/2), 98))
}

func TestParticlesBlendWhite(t *testing.T) {
	target := NewTarget(logger.NewTestLogger(), nil)
	vp := domain.Viewport{Width: 50, Height: 50, Scale: 1}

	require.NoError(t, target.Clear())
	require.NoError(t, target.DrawBars(nil, vp))
	require.NoError(t, target.DrawParticles(
		[]float32{10, -100}, []float32{10, -100}, []float32{4, 4}, []float32{1, 0.5}, vp))
	require.NoError(t, target.Present())

	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, target.Frame().RGBAAt(10, 10))
	assert.Equal(t, render.Background, target.Frame().RGBAAt(30, 30))
}

func TestResizeReallocates(t *testing.T) {
	target := NewTarget(logger.NewTestLogger(), nil)

	drawFrame(t, target, []float32{0.5}, domain.Viewport{Width: 80, Height: 60, Scale: 1})
	drawFrame(t, target, []float32{0.5}, domain.Viewport{Width: 40, Height: 30, Scale: 1})

	assert.Equal(t, 40, target.Frame().Bounds().Dx())
	drawFrame(t, target, []float32{0.5}, domain.Viewport{Width: 40, Height: 30, Scale: 1})
	assert.Equal(t, 40, target.Frame().Bounds().Dx())
}

func TestRelease(t *testing.T) {
	target := NewTarget(logger.NewTestLogger(), nil)
	drawFrame(t, target, []float32{0.5}, domain.Viewport{Width: 10, Height: 10, Scale: 1})

	require.NoError(t, target.Release())
	require.NoError(t, target.Release())
	assert.Nil(t, target.Frame())

	err := target.Clear()
	assert.ErrorIs(t, err, domain.ErrTargetReleased)
	assert.NotErrorIs(t, err, domain.ErrRenderContextLost)
}
