package analyser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, bin int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(n)))
	}
	return out
}

func TestDefaults(t *testing.T) {
	a := New(DefaultConfig())
	assert.Equal(t, 1024, a.FFTSize())
	assert.Equal(t, 512, a.FrequencyBinCount())

	odd := New(Config{FFTSize: 1000, Smoothing: 2, MinDecibels: 0, MaxDecibels: -10})
	assert.Equal(t, DefaultFFTSize, odd.FFTSize())
	assert.Equal(t, DefaultSmoothing, odd.cfg.Smoothing)
	assert.Equal(t, DefaultMinDecibels, odd.cfg.MinDecibels)
}

func TestSilenceMapsToZero(t *testing.T) {
	a := New(DefaultConfig())
	a.Process(make([]float32, 1024))

	out := make([]byte, a.FrequencyBinCount())
	require.Equal(t, 512, a.ByteFrequencyData(out))
	for i, v := range out {
		assert.Zero(t, v, "bin %d", i)
	}
}

func TestSinePeaksAtItsBin(t *testing.T) {
	a := New(DefaultConfig())
	a.Process(sine(1024, 32, 1))

	out := make([]byte, 512)
	a.ByteFrequencyData(out)

	peak := 0
	for i, v := range out {
		if v > out[peak] {
			peak = i
		}
	}
	assert.InDelta(t, 32, peak, 1)
	assert.Equal(t, byte(255), out[32])
	assert.Zero(t, out[300], "energy stays near the tone")
}

func TestSmoothingDecays(t *testing.T) {
	a := New(DefaultConfig())
	for i := 0; i < 10; i++ {
		a.Process(sine(1024, 64, 0.01))
	}
	out := make([]byte, 512)
	a.ByteFrequencyData(out)
	loud := out[64]
	require.NotZero(t, loud)

	a.Process(make([]float32, 1024))
	a.ByteFrequencyData(out)
	assert.Less(t, out[64], loud)
	assert.NotZero(t, out[64], "one silent frame only decays the bin")

	for i := 0; i < 200; i++ {
		a.Process(nil)
	}
	a.ByteFrequencyData(out)
	assert.Zero(t, out[64])
}

func TestShortInputIsPadded(t *testing.T) {
	a := New(DefaultConfig())
	assert.NotPanics(t, func() {
		a.Process(sine(100, 4, 1))
		a.Process(sine(4096, 4, 1))
	})
}

func TestReset(t *testing.T) {
	a := New(DefaultConfig())
	a.Process(sine(1024, 16, 1))
	a.Reset()

	out := make([]byte, 512)
	a.ByteFrequencyData(out)
	assert.Zero(t, out[16])
}
