package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// --- MP3 ---

// mp3Source wraps go-mp3, which always decodes to 16-bit little-endian stereo.
type mp3Source struct {
	file *os.File
	dec  *mp3.Decoder
	raw  []byte
}

func newMP3Source(f *os.File) (source, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Source{file: f, dec: dec}, nil
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int { return 2 }
func (s *mp3Source) Frames() int64 { return s.dec.Length() / 4 }

func (s *mp3Source) Read(dst []float32) (int, error) {
	want := (len(dst) / 2) * 4
	if cap(s.raw) < want {
		s.raw = make([]byte, want)
	}
	raw := s.raw[:want]

	n, err := io.ReadFull(s.dec, raw)
	n -= n % 4
	for i := 0; i < n/2; i++ {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
		if n == 0 {
			err = io.EOF
		}
	}
	return n / 2, err
}

func (s *mp3Source) SeekFrame(frame int64) error {
	_, err := s.dec.Seek(frame*4, io.SeekStart)
	return err
}

func (s *mp3Source) Close() error { return s.file.Close() }

// --- WAV ---

// wavSource reads integer PCM through go-audio's IntBuffer.
type wavSource struct {
	file     *os.File
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	format   *audio.Format
	bitDepth int
	frames   int64
	scale    float32
}

func newWAVSource(f *os.File) (source, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", domain.ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: WAV encoding %d", domain.ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("decoding WAV: %w", err)
	}

	s := &wavSource{
		file:     f,
		dec:      dec,
		format:   dec.Format(),
		bitDepth: int(dec.BitDepth),
	}
	if bytesPerFrame := int64(s.format.NumChannels) * int64(s.bitDepth/8); bytesPerFrame > 0 {
		s.frames = dec.PCMLen() / bytesPerFrame
	}
	s.scale = 1 / float32(audio.IntMaxSignedValue(s.bitDepth)+1)
	s.buf = &audio.IntBuffer{Format: s.format, SourceBitDepth: s.bitDepth}
	return s, nil
}

func (s *wavSource) SampleRate() int { return s.format.SampleRate }
func (s *wavSource) Channels() int { return s.format.NumChannels }
func (s *wavSource) Frames() int64 { return s.frames }

func (s *wavSource) Read(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.format.NumChannels
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	n -= n % s.format.NumChannels
	if n == 0 {
		return 0, io.EOF
	}
	for i, v := range s.buf.Data[:n] {
		if s.bitDepth == 8 {
			dst[i] = float32(v-128) / 128
		} else {
			dst[i] = float32(v) * s.scale
		}
	}
	return n, nil
}

// SeekFrame rewinds to the PCM chunk and skips forward; the decoder keeps its own
// chunk cursor, so the file offset cannot be moved underneath it.
func (s *wavSource) SeekFrame(frame int64) error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	s.dec = wav.NewDecoder(s.file)
	if err := s.dec.FwdToPCM(); err != nil {
		return err
	}

	skip := make([]float32, 4096*s.format.NumChannels)
	remaining := frame * int64(s.format.NumChannels)
	for remaining > 0 {
		chunk := skip[:min(int64(len(skip)), remaining)]
		n, err := s.Read(chunk)
		remaining -= int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *wavSource) Close() error { return s.file.Close() }

// --- OGG Vorbis ---

type oggSource struct {
	file   *os.File
	reader *oggvorbis.Reader
}

func newOggSource(f *os.File) (source, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &oggSource{file: f, reader: reader}, nil
}

func (s *oggSource) SampleRate() int { return s.reader.SampleRate() }
func (s *oggSource) Channels() int { return s.reader.Channels() }
func (s *oggSource) Frames() int64 { return s.reader.Length() }

func (s *oggSource) Read(dst []float32) (int, error) {
	ch := s.reader.Channels()
	n, err := s.reader.Read(dst[:len(dst)-len(dst)%ch])
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

func (s *oggSource) SeekFrame(frame int64) error {
	return s.reader.SetPosition(frame)
}

func (s *oggSource) Close() error { return s.file.Close() }

// --- FLAC ---

type flacSource struct {
	stream  *flac.Stream
	pending []float32
	scale   float32
}

func newFLACSource(f *os.File) (source, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	bps := int(stream.Info.BitsPerSample)
	return &flacSource{
		stream: stream,
		scale:  1 / float32(int64(1)<<(bps-1)),
	}, nil
}

func (s *flacSource) SampleRate() int { return int(s.stream.Info.SampleRate) }
func (s *flacSource) Channels() int { return int(s.stream.Info.NChannels) }

func (s *flacSource) Frames() int64 {
	if s.stream.Info.NSamples == 0 {
		return -1
	}
	return int64(s.stream.Info.NSamples)
}

func (s *flacSource) Read(dst []float32) (int, error) {
	if len(s.pending) == 0 {
		frame, err := s.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		channels := len(frame.Subframes)
		samples := int(frame.Subframes[0].NSamples)
		s.pending = s.pending[:0]
		for i := 0; i < samples; i++ {
			for ch := 0; ch < channels; ch++ {
				s.pending = append(s.pending, float32(frame.Subframes[ch].Samples[i])*s.scale)
			}
		}
	}
	ch := s.Channels()
	n := copy(dst[:len(dst)-len(dst)%ch], s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *flacSource) SeekFrame(frame int64) error {
	s.pending = s.pending[:0]
	_, err := s.stream.Seek(uint64(frame))
	return err
}

func (s *flacSource) Close() error { return s.stream.Close() }
