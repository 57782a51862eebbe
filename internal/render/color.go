package render

import (
	"image/color"
)

// Background is the colour every frame is cleared to.
var Background = color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}

// GradientStop is one colour of the vertical bar gradient.
type GradientStop struct {
	Pos   float32
	Color color.RGBA
}

// BarGradient runs from blue at the top of the viewport through pink to deep purple at the bottom.
var BarGradient = []GradientStop{
	{Pos: 0, Color: color.RGBA{R: 0x3a, G: 0x86, B: 0xff, A: 0xff}},
	{Pos: 0.5, Color: color.RGBA{R: 0xff, G: 0x00, B: 0x6e, A: 0xff}},
	{Pos: 1, Color: color.RGBA{R: 0x24, G: 0x00, B: 0x46, A: 0xff}},
}

// GradientAt samples BarGradient at t, the normalised screen y (0 top, 1 bottom).
func GradientAt(t float32) color.RGBA {
	stops := BarGradient
	if t <= stops[0].Pos {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Pos {
			a, b := stops[i-1], stops[i]
			return lerpRGBA(a.Color, b.Color, (t-a.Pos)/(b.Pos-a.Pos))
		}
	}
	return stops[len(stops)-1].Color
}

// GradientFloat returns the colour at t as normalised float channels, the form
// the GPU target uploads.
func GradientFloat(t float32) [4]float32 {
	c := GradientAt(t)
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

func lerpRGBA(a, b color.RGBA, t float32) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
