// Package stream provides a pure-Go AudioEngine that decodes MP3, WAV, OGG Vorbis
// and FLAC files, plays them through oto and analyses what is being played.
package stream

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/analyser"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// SinkFactory opens an output device at the given sample rate.
type SinkFactory func(sampleRate int) (Sink, error)

// Engine is the oto-backed implementation of the AudioEngine interface.
//
// Thread-safety: This implementation is thread-safe via sync.RWMutex.
type Engine struct {
	logger  *slog.Logger
	newSink SinkFactory

	initialized bool
	sink        Sink
	sampleRate  int

	tracks     map[domain.TrackHandle]*trackInfo
	nextHandle domain.TrackHandle
	active     domain.TrackHandle

	// The analyser attaches on the first successful Load.
	attached bool
	tap      *tap
	analyser *analyser.Analyser
	window   []float32

	mu sync.RWMutex
}

// trackInfo stores a loaded track and its player.
type trackInfo struct {
	filePath string
	src      source
	stream   *pcmStream
	player   Player
	volume   float64
	duration time.Duration
	started  bool
}

// NewEngine creates an engine playing through the default output device.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithSink(logger, NewOtoSink)
}

// NewEngineWithSink creates an engine whose output device comes from newSink.
func NewEngineWithSink(logger *slog.Logger, newSink SinkFactory) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	a := analyser.New(analyser.DefaultConfig())
	return &Engine{
		logger:     logger.With(slog.String("component", "stream_engine")),
		newSink:    newSink,
		tracks:     make(map[domain.TrackHandle]*trackInfo),
		nextHandle: 1,
		tap:        newTap(tapSize),
		analyser:   a,
		window:     make([]float32, a.FFTSize()),
	}
}

// Initialize opens the output device. device and flags are accepted for
// interface compatibility; oto always uses the system default device.
func (e *Engine) Initialize(device int, frequency int, flags int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if frequency <= 0 {
		frequency = OutputSampleRate
	}

	sink, err := e.newSink(frequency)
	if err != nil {
		return domain.NewAudioEngineError("initialize", "", -1, "failed to open output device", err)
	}

	e.sink = sink
	e.sampleRate = frequency
	e.initialized = true

	e.logger.Info("audio engine initialized",
		slog.Int("sample_rate", frequency),
		slog.Int("device", device),
		slog.Int("flags", flags))
	return nil
}

// Shutdown stops and releases every track and detaches the analyser.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}

	for handle := range e.tracks {
		if err := e.unloadInternal(handle); err != nil {
			e.logger.Warn("failed to unload track during shutdown",
				slog.Int64("handle", int64(handle)),
				slog.Any("error", err))
		}
	}

	e.initialized = false
	e.attached = false
	e.sink = nil
	e.analyser.Reset()
	e.tap.Reset()

	e.logger.Info("audio engine shut down")
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Load decodes the header of filePath and prepares a paused player for it.
func (e *Engine) Load(filePath string) (domain.TrackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if filePath == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	src, err := openSource(filePath)
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", filePath, -1, "failed to open track", err)
	}

	stream := newPCMStream(src, e.sampleRate, e.tap)
	track := &trackInfo{
		filePath: filePath,
		src:      src,
		stream:   stream,
		player:   e.sink.NewPlayer(stream),
		volume:   1,
		duration: sourceDuration(src),
	}

	handle := e.nextHandle
	e.nextHandle++
	e.tracks[handle] = track

	if !e.attached {
		e.attached = true
		e.logger.Debug("frequency analyser attached", slog.Int("bins", e.analyser.FrequencyBinCount()))
	}

	e.logger.Info("track loaded",
		slog.String("path", filePath),
		slog.Int64("handle", int64(handle)),
		slog.Duration("duration", track.duration))
	return handle, nil
}

// Unload releases resources for a previously loaded track.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	return e.unloadInternal(handle)
}

// unloadInternal requires e.mu to be held.
func (e *Engine) unloadInternal(handle domain.TrackHandle) error {
	track, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	track.player.Pause()
	delete(e.tracks, handle)
	if e.active == handle {
		e.active = domain.InvalidTrackHandle
		e.tap.Reset()
	}
	return track.src.Close()
}

// Play starts or resumes playback. A track that ran to its end restarts.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if track.stream.Ended() && track.player.BufferedSize() == 0 {
		if err := e.restart(track, 0); err != nil {
			return domain.NewAudioEngineError("play", track.filePath, -1, "failed to rewind track", err)
		}
	}

	if e.active != handle {
		e.tap.Reset()
		e.active = handle
	}
	track.player.Play()
	track.started = true

	if err := track.player.Err(); err != nil {
		return domain.NewAudioEngineError("play", track.filePath, -1, "output device error", err)
	}
	return nil
}

// Pause pauses playback; the position is kept.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	track.player.Pause()
	return nil
}

// Stop stops playback and unloads the track.
func (e *Engine) Stop(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	return e.unloadInternal(handle)
}

// Status returns the playback status.
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return domain.StatusStopped, domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return domain.StatusStopped, domain.ErrInvalidTrackHandle
	}

	switch {
	case track.player.IsPlaying():
		return domain.StatusPlaying, nil
	case !track.started, track.stream.Ended() && track.player.BufferedSize() == 0:
		return domain.StatusStopped, nil
	default:
		return domain.StatusPaused, nil
	}
}

// Position returns the audible position: frames handed to the device minus
// those still queued in its buffer.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return 0, domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return e.position(track), nil
}

func (e *Engine) position(track *trackInfo) time.Duration {
	frames := track.stream.Frame() - int64(track.player.BufferedSize()/outputFrameBytes)
	if frames < 0 {
		frames = 0
	}
	pos := time.Duration(frames) * time.Second / time.Duration(e.sampleRate)
	if track.duration > 0 && pos > track.duration {
		pos = track.duration
	}
	return pos
}

// Duration returns the total track duration.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return 0, domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.duration, nil
}

// Seek sets the playback position.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	// an unknown duration (0) leaves the upper bound to the decoder
	if position < 0 || (track.duration > 0 && position > track.duration) {
		return domain.ErrInvalidPosition
	}

	frame := int64(position) * int64(e.sampleRate) / int64(time.Second)
	if err := e.restart(track, frame); err != nil {
		return domain.NewAudioEngineError("seek", track.filePath, -1, "failed to seek", err)
	}
	if e.active == handle {
		e.tap.Reset()
	}
	return nil
}

// restart discards the device buffer by replacing the player, then moves the
// stream to frame. Requires e.mu to be held.
func (e *Engine) restart(track *trackInfo, frame int64) error {
	wasPlaying := track.player.IsPlaying()
	track.player.Pause()

	if err := track.stream.SeekFrame(frame); err != nil {
		return err
	}

	track.player = e.sink.NewPlayer(track.stream)
	track.player.SetVolume(track.volume)
	if wasPlaying {
		track.player.Play()
	}
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (e *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	track.volume = volume
	track.player.SetVolume(volume)
	return nil
}

// GetVolume returns the current volume (0.0 to 1.0).
func (e *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return 0, domain.ErrNotInitialized
	}
	track, exists := e.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.volume, nil
}

// GetMetadata reads tags and stream info without creating a player.
func (e *Engine) GetMetadata(filePath string) (*domain.MusicTrack, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidFilePath
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, domain.NewAudioEngineError("metadata", filePath, -1, "cannot stat file", domain.ErrFileNotFound)
	}

	src, err := openSource(filePath)
	if err != nil {
		return nil, domain.NewAudioEngineError("metadata", filePath, -1, "failed to open track", err)
	}
	defer func() { _ = src.Close() }()

	return readMetadata(filePath, src), nil
}

// FrequencyBinCount returns zero until the first track is loaded.
func (e *Engine) FrequencyBinCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.attached {
		return 0
	}
	return e.analyser.FrequencyBinCount()
}

// ByteFrequencyData analyses the samples currently audible. While nothing plays
// the analyser is fed silence so the spectrum decays.
func (e *Engine) ByteFrequencyData(dst []byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.attached {
		return 0
	}

	track := e.tracks[e.active]
	if track != nil && track.player.IsPlaying() {
		e.tap.Window(e.window, track.player.BufferedSize()/outputFrameBytes)
		e.analyser.Process(e.window)
	} else {
		e.analyser.Process(nil)
	}
	return e.analyser.ByteFrequencyData(dst)
}

var _ ports.AudioEngine = (*Engine)(nil)
