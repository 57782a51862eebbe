package stream

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampSource yields a fixed sequence of interleaved samples.
type rampSource struct {
	rate, channels int
	data           []float32
	pos            int
}

func (s *rampSource) SampleRate() int { return s.rate }
func (s *rampSource) Channels() int { return s.channels }
func (s *rampSource) Frames() int64 { return int64(len(s.data) / s.channels) }
func (s *rampSource) Close() error { return nil }

func (s *rampSource) Read(dst []float32) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(dst[:len(dst)-len(dst)%s.channels], s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *rampSource) SeekFrame(frame int64) error {
	s.pos = int(frame) * s.channels
	return nil
}

func readAll(t *testing.T, r io.Reader) []int16 {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

func TestPCMStream_MonoIsDuplicated(t *testing.T) {
	src := &rampSource{rate: 44100, channels: 1, data: []float32{0.5, -0.5, 0.25}}
	tp := newTap(8)
	s := newPCMStream(src, 44100, tp)

	samples := readAll(t, s)
	require.Len(t, samples, 6)
	assert.Equal(t, []int16{16383, 16383, -16383, -16383, 8191, 8191}, samples)
	assert.Equal(t, int64(3), s.Frame())
	assert.True(t, s.Ended())

	window := make([]float32, 3)
	tp.Window(window, 0)
	assert.Equal(t, []float32{0.5, -0.5, 0.25}, window)
}

func TestPCMStream_ExtraChannelsDropped(t *testing.T) {
	src := &rampSource{rate: 44100, channels: 3, data: []float32{0.5, -0.5, 1, 0, 0, 1}}
	samples := readAll(t, newPCMStream(src, 44100, nil))
	assert.Equal(t, []int16{16383, -16383, 0, 0}, samples)
}

func TestPCMStream_Upsamples(t *testing.T) {
	src := &rampSource{rate: 22050, channels: 1, data: []float32{0, 0.5, 1}}
	samples := readAll(t, newPCMStream(src, 44100, nil))

	// Every source frame plus an interpolated frame between neighbours.
	require.Len(t, samples, 12)
	left := []int16{samples[0], samples[2], samples[4], samples[6], samples[8], samples[10]}
	assert.Equal(t, []int16{0, 8191, 16383, 24575, 32767, 32767}, left)
}

func TestPCMStream_Downsamples(t *testing.T) {
	data := make([]float32, 8)
	for i := range data {
		data[i] = float32(i) / 10
	}
	src := &rampSource{rate: 88200, channels: 1, data: data}
	samples := readAll(t, newPCMStream(src, 44100, nil))
	assert.Len(t, samples, 8, "four output frames for eight input frames")
}

func TestPCMStream_SeekFrame(t *testing.T) {
	src := &rampSource{rate: 22050, channels: 1, data: make([]float32, 100)}
	s := newPCMStream(src, 44100, nil)

	require.NoError(t, s.SeekFrame(100))
	assert.Equal(t, 50, src.pos)
	assert.Equal(t, int64(100), s.Frame())

	require.NoError(t, s.SeekFrame(-4))
	assert.Equal(t, int64(0), s.Frame())
}

func TestTap_Window(t *testing.T) {
	tp := newTap(4)
	dst := make([]float32, 3)

	tp.Window(dst, 0)
	assert.Equal(t, []float32{0, 0, 0}, dst, "unwritten samples read as silence")

	tp.Write([]float32{1, 2, 3, 4, 5, 6})
	tp.Window(dst, 0)
	assert.Equal(t, []float32{4, 5, 6}, dst)

	tp.Window(dst, 1)
	assert.Equal(t, []float32{3, 4, 5}, dst)

	tp.Window(dst, 2)
	assert.Equal(t, []float32{0, 3, 4}, dst, "samples older than the ring are silent")

	tp.Reset()
	tp.Window(dst, 0)
	assert.Equal(t, []float32{0, 0, 0}, dst)
}
