// Package service provides the playback and frame-driving logic of the visualiser.
package service

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

const (
	// SeekStep is how far one seek key press moves the position.
	SeekStep = 5 * time.Second

	// VolumeStep is how much one volume key press changes the volume.
	VolumeStep = 0.1

	// DefaultVolume is applied to every newly loaded track.
	DefaultVolume = 0.8
)

// PlaybackService orchestrates playback of the single current track.
// All operations are thread-safe via sync.RWMutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.AudioEngine
	bus    ports.EventBus

	// State
	currentTrack  *domain.MusicTrack
	currentHandle domain.TrackHandle
	volume        float64

	mu sync.RWMutex
}

// NewPlaybackService creates a new playback service.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	bus ports.EventBus,
) *PlaybackService {
	service := &PlaybackService{
		logger:        logger.With(slog.String("component", "playback")),
		engine:        engine,
		bus:           bus,
		currentHandle: domain.InvalidTrackHandle,
		volume:        DefaultVolume,
	}

	logger.Debug("playback service initialized")
	return service
}

// LoadTrack replaces the current track with the file at path.
func (s *PlaybackService) LoadTrack(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("loading track", slog.String("file_path", path))

	track, err := s.engine.GetMetadata(path)
	if err != nil {
		s.logger.Debug("failed to read track metadata", slog.Any("error", err))
		s.bus.Publish(domain.NewTrackErrorEvent(path, err))
		return err
	}

	// Stop the current track if any
	if s.currentHandle != domain.InvalidTrackHandle {
		if err := s.stopInternal(); err != nil {
			s.logger.Warn("failed to stop current track", slog.Any("error", err))
		}
	}

	handle, err := s.engine.Load(path)
	if err != nil {
		s.logger.Debug("failed to load track", slog.Any("error", err))
		s.bus.Publish(domain.NewTrackErrorEvent(path, err))
		return err
	}

	if err := s.engine.SetVolume(handle, s.volume); err != nil {
		if unloadErr := s.engine.Unload(handle); unloadErr != nil {
			s.logger.Warn("failed to unload track after volume error", slog.Any("error", unloadErr))
		}
		return err
	}

	duration, err := s.engine.Duration(handle)
	if err != nil {
		if unloadErr := s.engine.Unload(handle); unloadErr != nil {
			s.logger.Warn("failed to unload track after duration error", slog.Any("error", unloadErr))
		}
		return err
	}
	if duration > 0 {
		track.Duration = duration
	}

	s.currentTrack = track
	s.currentHandle = handle

	s.logger.Info("track loaded",
		slog.String("title", track.DisplayName()),
		slog.Duration("duration", duration))
	s.bus.Publish(domain.NewTrackLoadedEvent(*track, handle, duration))
	return nil
}

// Play starts or resumes playback of the current track.
func (s *PlaybackService) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playInternal()
}

func (s *PlaybackService) playInternal() error {
	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		return err
	}
	if status == domain.StatusPlaying {
		return nil
	}

	if err := s.engine.Play(s.currentHandle); err != nil {
		s.logger.Debug("engine play failed", slog.Any("error", err))
		return err
	}

	position, _ := s.engine.Position(s.currentHandle)
	s.bus.Publish(domain.NewPlaybackStartedEvent(*s.currentTrack, position))
	return nil
}

// Pause pauses playback of the current track.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseInternal()
}

func (s *PlaybackService) pauseInternal() error {
	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	// Get the current position before pausing
	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		position = 0
	}

	if err := s.engine.Pause(s.currentHandle); err != nil {
		return err
	}

	s.bus.Publish(domain.NewPlaybackPausedEvent(*s.currentTrack, position))
	return nil
}

// TogglePlayback pauses a playing track and plays anything else.
func (s *PlaybackService) TogglePlayback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		return err
	}
	if status == domain.StatusPlaying {
		return s.pauseInternal()
	}
	return s.playInternal()
}

// stopInternal stops playback without locking (caller must hold lock).
func (s *PlaybackService) stopInternal() error {
	if s.currentHandle == domain.InvalidTrackHandle {
		return nil
	}

	err := s.engine.Stop(s.currentHandle)

	// Even if stop fails, clear our state
	s.currentHandle = domain.InvalidTrackHandle
	s.currentTrack = nil
	return err
}

// Seek sets the playback position.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}
	return s.engine.Seek(s.currentHandle, position)
}

// SeekBy moves the position by delta, clamped to the track.
func (s *PlaybackService) SeekBy(delta time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		return err
	}
	duration, err := s.engine.Duration(s.currentHandle)
	if err != nil {
		return err
	}

	target := min(max(position+delta, 0), duration)
	s.logger.Debug("seeking", slog.Duration("from", position), slog.Duration("to", target))
	return s.engine.Seek(s.currentHandle, target)
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (s *PlaybackService) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if volume < 0.0 || volume > 1.0 || math.IsNaN(volume) {
		return domain.ErrInvalidVolume
	}
	return s.setVolumeInternal(volume)
}

// AdjustVolume changes the volume by delta, clamped to [0, 1].
func (s *PlaybackService) AdjustVolume(delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Round to avoid drift from repeated 0.1 steps.
	volume := math.Round(min(max(s.volume+delta, 0), 1)*100) / 100
	return s.setVolumeInternal(volume)
}

func (s *PlaybackService) setVolumeInternal(volume float64) error {
	if s.currentHandle != domain.InvalidTrackHandle {
		if err := s.engine.SetVolume(s.currentHandle, volume); err != nil {
			return err
		}
	}
	s.volume = volume
	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// GetVolume returns the current volume (0.0 to 1.0).
func (s *PlaybackService) GetVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// GetState returns the current playback state.
func (s *PlaybackService) GetState() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlaybackState{
		Status: domain.StatusStopped,
		Volume: s.volume,
	}
	if s.currentTrack != nil {
		track := *s.currentTrack
		state.CurrentTrack = &track
	}

	if s.currentHandle != domain.InvalidTrackHandle {
		if status, err := s.engine.Status(s.currentHandle); err == nil {
			state.Status = status
		}
		if position, err := s.engine.Position(s.currentHandle); err == nil {
			state.Position = position
		}
	}
	return state
}

// Shutdown stops playback and releases the current track.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopInternal()
}
