// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the govis visualiser.
package domain

import (
	"fmt"
	"time"
)

// MusicTrack represents a single audio track with its metadata.
type MusicTrack struct {
	// FilePath is the path to the audio file on the filesystem
	FilePath string

	// Title is the song title (from tags or the file name)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Duration is the total length of the track
	Duration time.Duration

	// FileFormat is the lower-case file extension without the dot (mp3, flac, ogg, wav)
	FileFormat string

	// SampleRate is the decoded sample rate in Hz (0 if unknown)
	SampleRate int
}

// DisplayName returns the label shown for the track.
func (t MusicTrack) DisplayName() string {
	if t.Artist != "" && t.Title != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}

// PlaybackState represents the current state of the playback session.
type PlaybackState struct {
	// CurrentTrack is the currently loaded track (nil if none)
	CurrentTrack *MusicTrack

	// Status is the current playback status
	Status PlaybackStatus

	// Position is the current playback position within the track
	Position time.Duration

	// Volume is the current volume level (0.0 to 1.0)
	Volume float64
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackHandle represents a handle to an audio track in the audio engine.
// This is an opaque identifier used by the audio engine to reference loaded tracks.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// Viewport is the drawable area in logical units plus the pixel density scale
// used to size the backing store.
type Viewport struct {
	Width  float32
	Height float32
	Scale  float32
}

// PhysicalSize returns the backing store size in physical pixels.
func (v Viewport) PhysicalSize() (int, int) {
	s := v.Scale
	if s <= 0 {
		s = 1
	}
	return int(v.Width * s), int(v.Height * s)
}

// Degenerate reports whether nothing can be drawn into the viewport.
func (v Viewport) Degenerate() bool {
	return v.Width < 1 || v.Height < 1
}

// Clamped returns the viewport with dimensions raised to one logical unit
// and the scale limited to [1, maxScale].
func (v Viewport) Clamped(maxScale float32) Viewport {
	if v.Width < 1 {
		v.Width = 1
	}
	if v.Height < 1 {
		v.Height = 1
	}
	if v.Scale < 1 {
		v.Scale = 1
	}
	if maxScale >= 1 && v.Scale > maxScale {
		v.Scale = maxScale
	}
	return v
}

// Tier is the device class used to pick the startup profile.
type Tier string

const (
	TierDesktop Tier = "desktop"
	TierMobile  Tier = "mobile"
)

// ParseTier converts a config string to a Tier. Empty and "auto" return ok=false.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierDesktop:
		return TierDesktop, true
	case TierMobile:
		return TierMobile, true
	default:
		return "", false
	}
}

// Profile holds the constants fixed at startup for one visualiser instance.
type Profile struct {
	// BarCount is the number of bands per side of the mirrored display
	BarCount int

	// ParticleCount is the size of the particle field
	ParticleCount int

	// MaxDensityScale caps the pixel density used for the backing store
	MaxDensityScale float32

	// SmoothingFactor is the one-pole smoothing coefficient in (0, 1]
	SmoothingFactor float64
}

// ProfileFor returns the default profile of a device tier.
func ProfileFor(t Tier) Profile {
	if t == TierMobile {
		return Profile{BarCount: 512, ParticleCount: 20, MaxDensityScale: 1.5, SmoothingFactor: 0.75}
	}
	return Profile{BarCount: 1024, ParticleCount: 35, MaxDensityScale: 2.0, SmoothingFactor: 0.75}
}

// Validate checks the profile constants.
func (p Profile) Validate() error {
	switch {
	case p.BarCount <= 0:
		return fmt.Errorf("%w: %w", ErrInvalidProfile, NewValidationError("BarCount", p.BarCount, "must be positive"))
	case p.ParticleCount < 0:
		return fmt.Errorf("%w: %w", ErrInvalidProfile, NewValidationError("ParticleCount", p.ParticleCount, "must not be negative"))
	case p.MaxDensityScale < 1:
		return fmt.Errorf("%w: %w", ErrInvalidProfile, NewValidationError("MaxDensityScale", p.MaxDensityScale, "must be at least 1"))
	case p.SmoothingFactor <= 0 || p.SmoothingFactor > 1:
		return fmt.Errorf("%w: %w", ErrInvalidProfile, NewValidationError("SmoothingFactor", p.SmoothingFactor, "must be in (0, 1]"))
	}
	return nil
}

// RenderStrategy names the render backend chosen at startup.
type RenderStrategy string

const (
	// StrategyInstanced draws bars with one instanced GPU call per frame
	StrategyInstanced RenderStrategy = "gl"

	// StrategyBatched accumulates all bars into one raster path per frame
	StrategyBatched RenderStrategy = "raster"
)
