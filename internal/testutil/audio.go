package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteSineWAV writes a 16-bit PCM wav file holding a sine tone and returns its path.
// The file lives in t.TempDir().
func WriteSineWAV(t *testing.T, name string, sampleRate, channels int, freq float64, seconds float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	frames := int(float64(sampleRate) * seconds)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 0.8 * math.MaxInt16)
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	return path
}
