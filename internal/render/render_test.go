package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

func TestBarLayout(t *testing.T) {
	l := NewBarLayout(domain.Viewport{Width: 800, Height: 600, Scale: 1}, 100)

	assert.InDelta(t, 400, l.CenterX, 1e-6)
	assert.InDelta(t, 4, l.Unit, 1e-6)
	assert.InDelta(t, 3.28, l.BarWidth, 1e-5)
	assert.InDelta(t, 0.72, l.Gap, 1e-5)
	assert.InDelta(t, 510, l.MaxHeight, 1e-4)

	right := l.Bar(0, 1, SideRight)
	assert.InDelta(t, 400.36, right.X, 1e-4)
	assert.InDelta(t, 90, right.Y, 1e-4)
	assert.InDelta(t, 510, right.H, 1e-4)

	left := l.Bar(0, 1, SideLeft)
	assert.InDelta(t, 400-3.28-0.36, left.X, 1e-4)
	assert.InDelta(t, right.X-400, 400-(left.X+left.W), 1e-4, "sides mirror around the centre")

	lastRight := l.Bar(99, 0.5, SideRight)
	assert.LessOrEqual(t, lastRight.X+lastRight.W, float32(800))
	lastLeft := l.Bar(99, 0.5, SideLeft)
	assert.GreaterOrEqual(t, lastLeft.X, float32(0))
}

func TestBarLayoutZeroCount(t *testing.T) {
	l := NewBarLayout(domain.Viewport{Width: 800, Height: 600}, 0)
	assert.Zero(t, l.Unit)
	assert.True(t, l.Bar(0, 1, SideRight).Empty())
}

func TestInstanceVertexMatchesBars(t *testing.T) {
	l := NewBarLayout(domain.Viewport{Width: 640, Height: 360, Scale: 2}, 16)
	heights := make([]float32, 16)
	for i := range heights {
		heights[i] = float32(i) / 15
	}

	for id := 0; id < 2*l.Count; id++ {
		side := Side(id / l.Count)
		bar := l.Bar(id%l.Count, heights[id%l.Count], side)

		minX, minY := float32(1e9), float32(1e9)
		maxX, maxY := float32(-1e9), float32(-1e9)
		for v := 0; v < 6; v++ {
			x, y := InstanceVertex(l, heights, id, v)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
		require.InDelta(t, bar.X, minX, 1e-4, "instance %d", id)
		require.InDelta(t, bar.X+bar.W, maxX, 1e-4, "instance %d", id)
		require.InDelta(t, bar.Y, minY, 1e-4, "instance %d", id)
		require.InDelta(t, bar.Y+bar.H, maxY, 1e-4, "instance %d", id)
	}
}

func TestGradient(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x3a, G: 0x86, B: 0xff, A: 0xff}, GradientAt(-1))
	assert.Equal(t, color.RGBA{R: 0x3a, G: 0x86, B: 0xff, A: 0xff}, GradientAt(0))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x00, B: 0x6e, A: 0xff}, GradientAt(0.5))
	assert.Equal(t, color.RGBA{R: 0x24, G: 0x00, B: 0x46, A: 0xff}, GradientAt(1))
	assert.Equal(t, color.RGBA{R: 0x24, G: 0x00, B: 0x46, A: 0xff}, GradientAt(2))

	mid := GradientAt(0.25)
	assert.InDelta(t, (0x3a+0xff)/2, int(mid.R), 1)
	assert.InDelta(t, 0x86/2, int(mid.G), 1)

	f := GradientFloat(0)
	assert.InDelta(t, 1, f[2], 1e-6)
	assert.InDelta(t, 1, f[3], 1e-6)
}

func TestParticleRect(t *testing.T) {
	r := ParticleRect(10, 20, 5, 2)
	assert.Equal(t, Rect{X: 17.5, Y: 37.5, W: 5, H: 5}, r)
}
