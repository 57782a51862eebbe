package spectrum

// Smoother keeps the per-band smoothed energy and the normalised heights derived from it.
//
// State lives for the lifetime of the visualiser; it is never reset and only decays
// under continued silence. Not safe for concurrent use.
type Smoother struct {
	factor   float64
	smoothed []float64
	heights  []float32
}

// NewSmoother creates state for bandCount bands. factor is the one-pole coefficient
// in (0, 1]; 1 disables smoothing.
func NewSmoother(bandCount int, factor float64) *Smoother {
	bandCount = max(bandCount, 0)
	return &Smoother{
		factor:   factor,
		smoothed: make([]float64, bandCount),
		heights:  make([]float32, bandCount),
	}
}

// Update folds one magnitude buffer into the smoothed state and recomputes every height.
//
// Pass one moves each band towards the mean of its clamped range and tracks the frame
// maximum; pass two divides by max(NormalizationFloor, frameMax). The denominator is
// recomputed every frame, so a loud transient momentarily compresses every other band.
// It returns the denominator used.
func (s *Smoother) Update(buf []byte, ranges []BandRange) float64 {
	n := min(len(ranges), len(s.smoothed))

	frameMax := NormalizationFloor
	for i := 0; i < n; i++ {
		raw := bandMean(buf, ranges[i])
		v := s.smoothed[i] + (raw-s.smoothed[i])*s.factor
		s.smoothed[i] = v
		if v > frameMax {
			frameMax = v
		}
	}

	for i := 0; i < n; i++ {
		s.heights[i] = float32(s.smoothed[i] / frameMax)
	}
	return frameMax
}

// Heights returns the normalised heights (0..1), one per band. The slice is reused.
func (s *Smoother) Heights() []float32 {
	return s.heights
}

// Smoothed returns the smoothed band energies (0..255). The slice is reused.
func (s *Smoother) Smoothed() []float64 {
	return s.smoothed
}

func bandMean(buf []byte, r BandRange) float64 {
	n := r.Len(len(buf))
	if n == 0 || r.Start < 0 {
		return 0
	}
	sum := 0
	for _, v := range buf[r.Start : r.Start+n] {
		sum += int(v)
	}
	return float64(sum) / float64(n)
}

// Bass returns the mean of the first BassBins magnitudes scaled to 0..1.
// It reads the raw buffer and is independent of the smoothed state.
func Bass(buf []byte) float32 {
	n := min(BassBins, len(buf))
	if n == 0 {
		return 0
	}
	sum := 0
	for _, v := range buf[:n] {
		sum += int(v)
	}
	return float32(sum) / float32(n*255)
}
