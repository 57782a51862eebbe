package spectrum

import (
	"github.com/tejashwikalptaru/govis/internal/domain"
)

// BandCache memoises MapBands for a fixed band count.
//
// The cache is keyed on the buffer length and the viewport; a change to either,
// or an explicit Invalidate, recomputes the ranges in place. It is not safe for
// concurrent use and is owned by the frame driver.
type BandCache struct {
	ranges []BandRange

	valid    bool
	length   int
	viewport domain.Viewport

	invalidations uint64
}

// NewBandCache creates an empty cache for bandCount bands.
func NewBandCache(bandCount int) *BandCache {
	return &BandCache{ranges: make([]BandRange, max(bandCount, 0))}
}

// Ranges returns the band ranges for the given key, recomputing them on a miss.
// The returned slice is reused by later calls.
func (c *BandCache) Ranges(bufferLength int, vp domain.Viewport) []BandRange {
	if c.valid && c.length == bufferLength && c.viewport == vp {
		return c.ranges
	}
	if c.valid {
		c.invalidations++
	}
	mapBandsInto(c.ranges, bufferLength)
	c.valid = true
	c.length = bufferLength
	c.viewport = vp
	return c.ranges
}

// Invalidate drops the cached ranges.
func (c *BandCache) Invalidate() {
	if c.valid {
		c.valid = false
		c.invalidations++
	}
}

// Invalidations counts how many times cached ranges were discarded.
func (c *BandCache) Invalidations() uint64 {
	return c.invalidations
}
