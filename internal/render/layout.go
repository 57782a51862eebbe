// Package render holds the geometry and colours shared by every render target.
//
// All coordinates here are logical units with the origin at the top-left corner
// and y growing downwards.
package render

import (
	"github.com/tejashwikalptaru/govis/internal/domain"
)

const (
	// BarWidthRatio is the share of each bar slot covered by the bar.
	BarWidthRatio = 0.82

	// HeightRatio is the share of the viewport height reached by a full bar.
	HeightRatio = 0.85
)

// Side selects one half of the mirrored display.
type Side int

const (
	SideRight Side = iota
	SideLeft
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float32
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// BarLayout is the per-viewport bar geometry for a fixed band count.
type BarLayout struct {
	Count     int
	CenterX   float32
	Unit      float32
	BarWidth  float32
	Gap       float32
	Bottom    float32
	MaxHeight float32
}

// NewBarLayout computes the layout of count bars per side inside vp.
// Bars on each side fill the half-width; each slot is split into bar and gap.
func NewBarLayout(vp domain.Viewport, count int) BarLayout {
	l := BarLayout{
		Count:     count,
		CenterX:   vp.Width / 2,
		Bottom:    vp.Height,
		MaxHeight: vp.Height * HeightRatio,
	}
	if count > 0 {
		l.Unit = l.CenterX / float32(count)
	}
	l.BarWidth = l.Unit * BarWidthRatio
	l.Gap = l.Unit - l.BarWidth
	return l
}

// BarX returns the left edge of bar i on the given side.
func (l BarLayout) BarX(i int, side Side) float32 {
	offset := float32(i) * l.Unit
	if side == SideLeft {
		return l.CenterX - offset - l.BarWidth - l.Gap/2
	}
	return l.CenterX + offset + l.Gap/2
}

// Bar returns the rectangle of bar i for a normalised height, growing up from the bottom edge.
func (l BarLayout) Bar(i int, height float32, side Side) Rect {
	h := height * l.MaxHeight
	return Rect{
		X: l.BarX(i, side),
		Y: l.Bottom - h,
		W: l.BarWidth,
		H: h,
	}
}

// quadCorners lists the unit-quad corners of the six vertices of two triangles.
// u runs left to right across the bar, v runs bottom to top.
var quadCorners = [6][2]float32{
	{0, 0}, {1, 0}, {0, 1},
	{0, 1}, {1, 0}, {1, 1},
}

// InstanceVertex is the CPU reference of the instanced bar vertex shader.
//
// Instance id selects the band (id % count) and side (id / count); vertex id selects
// a corner of the quad. The result is the vertex position in logical units.
func InstanceVertex(l BarLayout, heights []float32, instanceID, vertexID int) (x, y float32) {
	if l.Count <= 0 {
		return 0, 0
	}
	idx := instanceID % l.Count
	side := Side(instanceID / l.Count)
	h := float32(0)
	if idx < len(heights) {
		h = heights[idx]
	}
	c := quadCorners[vertexID%6]
	return l.BarX(idx, side) + c[0]*l.BarWidth, l.Bottom - c[1]*h*l.MaxHeight
}

// ParticleRect returns the square drawn for a particle in physical pixels.
// x and y are logical; size is already physical.
func ParticleRect(x, y, size, scale float32) Rect {
	return Rect{
		X: x*scale - size/2,
		Y: y*scale - size/2,
		W: size,
		H: size,
	}
}
