// Package spectrum turns byte magnitude spectra into per-band bar heights.
//
// Bands are allocated on a power curve so low frequencies, where most musical
// energy sits, get many narrow bands and high frequencies get few wide ones.
package spectrum

import "math"

const (
	// BandExponent shapes the band allocation curve.
	BandExponent = 1.8

	// NormalizationFloor is the lower bound of the per-frame normalisation denominator.
	NormalizationFloor = 180.0

	// BassBins is the number of leading magnitude samples averaged by Bass.
	BassBins = 40
)

// BandRange is a half-open sample range [Start, End) of the magnitude buffer.
// End may exceed the buffer by one for the last band; readers clamp it.
type BandRange struct {
	Start int
	End   int
}

// Len returns the number of samples the range covers once clamped to n.
func (r BandRange) Len(n int) int {
	end := min(r.End, n)
	if end <= r.Start {
		return 0
	}
	return end - r.Start
}

// MapBands splits the lower half of a buffer of length bufferLength into bandCount ranges.
//
// Range i starts at floor((i/N)^1.8 * half) and ends at floor(((i+1)/N)^1.8 * half) + 1,
// so neighbours share exactly one sample. The result is pure and never panics:
// bandCount <= 0 returns nil, bufferLength <= 0 returns ranges over an empty half.
func MapBands(bufferLength, bandCount int) []BandRange {
	if bandCount <= 0 {
		return nil
	}
	return mapBandsInto(make([]BandRange, bandCount), bufferLength)
}

func mapBandsInto(dst []BandRange, bufferLength int) []BandRange {
	half := 0
	if bufferLength > 0 {
		half = bufferLength / 2
	}
	n := float64(len(dst))
	h := float64(half)
	for i := range dst {
		dst[i] = BandRange{
			Start: int(math.Floor(math.Pow(float64(i)/n, BandExponent) * h)),
			End:   int(math.Floor(math.Pow(float64(i+1)/n, BandExponent)*h)) + 1,
		}
	}
	return dst
}
