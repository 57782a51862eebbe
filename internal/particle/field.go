// Package particle simulates the ambient particle field drawn behind the bars.
package particle

import (
	"math/rand/v2"
)

const (
	minSpeed    = 0.3
	speedRange  = 0.6
	minOpacity  = 0.1
	opacityRng  = 0.4
	smallSize   = 1.5
	largeSize   = 2.5
	bassDrift   = 0.8
	sizeSplitAt = 0.5
)

// Field is a fixed-size particle set stored as parallel arrays indexed by particle id.
//
// Particles drift upwards, faster with more bass, and wrap to the bottom edge with a
// fresh x when they leave the top. Positions are logical units; sizes are physical
// pixels. Not safe for concurrent use.
type Field struct {
	X       []float32
	Y       []float32
	Speed   []float32
	Opacity []float32
	Size    []float32

	width  float32
	height float32
	rng    *rand.Rand
}

// NewField allocates count particles drawing randomness from rng.
// Call Reset before the first Step.
func NewField(count int, rng *rand.Rand) *Field {
	count = max(count, 0)
	return &Field{
		X:       make([]float32, count),
		Y:       make([]float32, count),
		Speed:   make([]float32, count),
		Opacity: make([]float32, count),
		Size:    make([]float32, count),
		rng:     rng,
	}
}

// Len returns the particle count.
func (f *Field) Len() int {
	return len(f.X)
}

// Reset reinitialises every particle for a viewport of width x height logical units
// at the given density scale.
func (f *Field) Reset(width, height, densityScale float32) {
	f.width = width
	f.height = height
	for i := range f.X {
		f.X[i] = f.rng.Float32() * width
		f.Y[i] = f.rng.Float32() * height
		f.Speed[i] = f.rng.Float32()*speedRange + minSpeed
		f.Opacity[i] = f.rng.Float32()*opacityRng + minOpacity
		size := float32(largeSize)
		if f.rng.Float32() < sizeSplitAt {
			size = smallSize
		}
		f.Size[i] = size * densityScale
	}
}

// Step advances every particle by one tick. bass is the 0..1 low-frequency level.
func (f *Field) Step(bass float32) {
	drift := bass * bassDrift
	for i := range f.Y {
		y := f.Y[i] - (f.Speed[i] + drift)
		if y < 0 {
			y = f.height
			f.X[i] = f.rng.Float32() * f.width
		}
		f.Y[i] = y
	}
}
