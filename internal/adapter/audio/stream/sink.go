package stream

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player is one playing stream on an output device.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	BufferedSize() int
	Err() error
}

// Sink creates players on an output device.
type Sink interface {
	NewPlayer(r io.Reader) Player
}

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// otoSink plays through the process-wide oto context. oto allows a single context
// per process, so it is created lazily and shared.
type otoSink struct {
	ctx *oto.Context
}

// NewOtoSink returns a sink on the default output device at sampleRate.
// Only the first call's sample rate is honoured.
func NewOtoSink(sampleRate int) (Sink, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = fmt.Errorf("initializing audio output: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	return &otoSink{ctx: otoCtx}, nil
}

func (s *otoSink) NewPlayer(r io.Reader) Player {
	return s.ctx.NewPlayer(r)
}
