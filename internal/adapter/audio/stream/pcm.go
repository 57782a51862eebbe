package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

const (
	// OutputSampleRate is the rate every track is converted to before playback.
	OutputSampleRate = 44100

	// outputFrameBytes is one 16-bit stereo frame.
	outputFrameBytes = 4

	readChunkFrames = 1024
	maxEmptyReads   = 8
)

// pcmStream converts a source into 16-bit little-endian stereo at the output rate
// and mirrors a mono mix of everything it emits into a tap.
type pcmStream struct {
	mu sync.Mutex

	src   source
	tap   *tap
	ratio float64

	in      []float32 // pending stereo input frames
	pos     float64   // fractional read position into in
	scratch []float32
	mono    []float32

	frames int64 // output frames emitted since the last seek
	eof    bool
	err    error
}

func newPCMStream(src source, outRate int, t *tap) *pcmStream {
	return &pcmStream{
		src:     src,
		tap:     t,
		ratio:   float64(src.SampleRate()) / float64(outRate),
		scratch: make([]float32, readChunkFrames*src.Channels()),
	}
}

// Read implements io.Reader for the output device.
func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := len(p) / outputFrameBytes
	if want == 0 {
		return 0, nil
	}

	s.mono = s.mono[:0]
	n := 0
	for n < want {
		i := int(s.pos)
		s.fill(i + 2)
		avail := len(s.in) / 2
		if i >= avail {
			break
		}

		frac := float32(s.pos - float64(i))
		l0, r0 := s.in[2*i], s.in[2*i+1]
		l1, r1 := l0, r0
		if i+1 < avail {
			l1, r1 = s.in[2*i+2], s.in[2*i+3]
		}
		l := l0 + (l1-l0)*frac
		r := r0 + (r1-r0)*frac

		binary.LittleEndian.PutUint16(p[n*4:], uint16(toInt16(l)))
		binary.LittleEndian.PutUint16(p[n*4+2:], uint16(toInt16(r)))
		s.mono = append(s.mono, (l+r)/2)

		s.pos += s.ratio
		n++
	}

	drop := min(int(s.pos), len(s.in)/2)
	s.in = append(s.in[:0], s.in[drop*2:]...)
	s.pos -= float64(drop)
	s.frames += int64(n)

	if s.tap != nil && len(s.mono) > 0 {
		s.tap.Write(s.mono)
	}
	if n == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	return n * outputFrameBytes, nil
}

// fill decodes until at least need stereo frames are pending or the source ends.
func (s *pcmStream) fill(need int) {
	ch := s.src.Channels()
	empty := 0
	for len(s.in)/2 < need && !s.eof {
		n, err := s.src.Read(s.scratch)
		for f := 0; f < n/ch; f++ {
			l := s.scratch[f*ch]
			r := l
			if ch > 1 {
				r = s.scratch[f*ch+1]
			}
			s.in = append(s.in, l, r)
		}

		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			s.eof = true
			s.err = err
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				s.eof = true
			}
		}
	}
}

// SeekFrame moves to the given output frame.
func (s *pcmStream) SeekFrame(frame int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame = max(frame, 0)
	if err := s.src.SeekFrame(int64(float64(frame) * s.ratio)); err != nil {
		return err
	}
	s.in = s.in[:0]
	s.pos = 0
	s.eof = false
	s.err = nil
	s.frames = frame
	return nil
}

// Frame returns the number of output frames produced up to the read cursor.
func (s *pcmStream) Frame() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Ended reports whether the source is exhausted and every frame was emitted.
func (s *pcmStream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eof && int(s.pos) >= len(s.in)/2
}

func toInt16(v float32) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	default:
		return int16(v * 32767)
	}
}
