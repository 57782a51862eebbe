// Package analyser computes byte frequency spectra from time-domain samples.
//
// The output follows the behaviour of a browser AnalyserNode: a Blackman-windowed
// FFT whose magnitudes are scaled by 1/N, smoothed over time, converted to decibels
// and mapped linearly from [MinDecibels, MaxDecibels] onto 0..255.
package analyser

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// DefaultFFTSize yields 512 frequency bins.
	DefaultFFTSize = 1024

	// DefaultSmoothing is the time constant applied between consecutive spectra.
	DefaultSmoothing = 0.8

	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Config holds analyser parameters.
type Config struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig returns the analyser defaults.
func DefaultConfig() Config {
	return Config{
		FFTSize:     DefaultFFTSize,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
}

// Analyser turns the most recent FFTSize samples into a byte spectrum.
// Not safe for concurrent use; callers serialise access.
type Analyser struct {
	cfg Config

	fft    *fourier.FFT
	window []float64
	frame  []float64
	coeffs []complex128

	smoothed []float64
	bytes    []byte
}

// New creates an analyser. A non power-of-two or non-positive FFT size falls back
// to DefaultFFTSize.
func New(cfg Config) *Analyser {
	if cfg.FFTSize <= 0 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		cfg.FFTSize = DefaultFFTSize
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		cfg.Smoothing = DefaultSmoothing
	}
	if cfg.MaxDecibels <= cfg.MinDecibels {
		cfg.MinDecibels, cfg.MaxDecibels = DefaultMinDecibels, DefaultMaxDecibels
	}

	n := cfg.FFTSize
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return &Analyser{
		cfg:      cfg,
		fft:      fourier.NewFFT(n),
		window:   window.Blackman(w),
		frame:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
		bytes:    make([]byte, n/2),
	}
}

// FFTSize returns the transform length.
func (a *Analyser) FFTSize() int {
	return a.cfg.FFTSize
}

// FrequencyBinCount returns the number of output bins (FFTSize / 2).
func (a *Analyser) FrequencyBinCount() int {
	return a.cfg.FFTSize / 2
}

// Process analyses the newest FFTSize samples of the window. Shorter input is
// treated as preceded by silence.
func (a *Analyser) Process(samples []float32) {
	n := a.cfg.FFTSize
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	pad := n - len(samples)
	for i := 0; i < pad; i++ {
		a.frame[i] = 0
	}
	for i, s := range samples {
		a.frame[pad+i] = float64(s) * a.window[pad+i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	k := a.cfg.Smoothing
	scale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	for i := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[i]) / float64(n)
		v := k*a.smoothed[i] + (1-k)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.smoothed[i] = v

		db := 20 * math.Log10(v)
		b := math.Floor(scale * (db - a.cfg.MinDecibels))
		switch {
		case math.IsNaN(b) || b < 0:
			a.bytes[i] = 0
		case b > 255:
			a.bytes[i] = 255
		default:
			a.bytes[i] = byte(b)
		}
	}
}

// ByteFrequencyData copies the last processed spectrum into dst and returns the
// number of bytes written.
func (a *Analyser) ByteFrequencyData(dst []byte) int {
	return copy(dst, a.bytes)
}

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	clear(a.smoothed)
	clear(a.bytes)
}
