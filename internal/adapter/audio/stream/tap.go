package stream

import "sync"

// tapSize holds a little over 370ms of mono audio at 44.1kHz, enough to cover the
// device buffer plus one analyser window.
const tapSize = 16384

// tap keeps the most recent mono samples handed to the output device.
type tap struct {
	mu      sync.Mutex
	ring    []float32
	written int64
}

func newTap(size int) *tap {
	if size <= 0 {
		size = tapSize
	}
	return &tap{ring: make([]float32, size)}
}

// Write appends samples, overwriting the oldest ones.
func (t *tap) Write(samples []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := int64(len(t.ring))
	for _, s := range samples {
		t.ring[t.written%size] = s
		t.written++
	}
}

// Window fills dst with the samples ending delay samples before the newest one.
// Positions never written read as silence.
func (t *tap) Window(dst []float32, delay int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := int64(len(t.ring))
	end := t.written - int64(max(delay, 0))
	start := end - int64(len(dst))
	for i := range dst {
		pos := start + int64(i)
		if pos < 0 || pos < t.written-size || pos >= t.written {
			dst[i] = 0
			continue
		}
		dst[i] = t.ring[pos%size]
	}
}

// Reset drops all buffered samples.
func (t *tap) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.ring)
	t.written = 0
}
