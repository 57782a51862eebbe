// Package ports define interfaces for dependency inversion.
// These interfaces keep the visualiser core independent of audio, windowing and graphics libraries.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// FrequencySource supplies byte magnitude spectra to the frame driver.
//
// Both methods are synchronous and non-blocking: they return the latest snapshot
// and never wait for new audio to arrive.
type FrequencySource interface {
	// FrequencyBinCount returns the length of the magnitude buffer.
	// Zero means no audio session is attached yet.
	FrequencyBinCount() int

	// ByteFrequencyData copies the current magnitudes (0..255, low to high frequency)
	// into dst and returns the number of bytes written.
	ByteFrequencyData(dst []byte) int
}

// AudioEngine is the interface for audio playback engines.
// This abstracts the decoding and output stack and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	FrequencySource

	// Lifecycle methods

	// Initialize sets up the audio engine with the specified configuration.
	// device: Audio device index (-1 for default)
	// frequency: Output sample rate in Hz (e.g., 44100 for CD quality)
	// flags: Engine-specific initialization flags
	//
	// Return an error if initialization fails.
	Initialize(device int, frequency int, flags int) error

	// Shutdown releases all audio engine resources.
	// Should be called when the engine is no longer needed.
	//
	// Returns an error if shutdown fails.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Track loading methods

	// Load opens an audio file and returns a handle to it.
	// The first successful load attaches the frequency analyser.
	//
	// Returns a TrackHandle for the loaded track, or an error if loading fails.
	Load(filePath string) (domain.TrackHandle, error)

	// Unload releases resources for a previously loaded track.
	//
	// Returns an error if the handle is invalid or unloading fails.
	Unload(handle domain.TrackHandle) error

	// Playback control methods

	// Play starts or resumes playback of the specified track.
	Play(handle domain.TrackHandle) error

	// Pause pauses playback of the specified track.
	// The playback position is preserved and can be resumed with Play.
	Pause(handle domain.TrackHandle) error

	// Stop stops playback of the specified track and unloads it.
	Stop(handle domain.TrackHandle) error

	// State query methods

	// Status returns the current playback status of the specified track.
	Status(handle domain.TrackHandle) (domain.PlaybackStatus, error)

	// Position returns the audible playback position within the track.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total duration of the specified track.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Seek sets the playback position to the specified time.
	// The position must be within the valid range [0, Duration].
	Seek(handle domain.TrackHandle, position time.Duration) error

	// SetVolume sets the playback volume for the specified track.
	// volume: Volume level from 0.0 (silent) to 1.0 (full volume)
	SetVolume(handle domain.TrackHandle, volume float64) error

	// GetVolume returns the current volume level for the specified track.
	GetVolume(handle domain.TrackHandle) (float64, error)

	// GetMetadata extracts metadata from an audio file without loading it for playback.
	//
	// Returns a MusicTrack with populated metadata, or an error if extraction fails.
	GetMetadata(filePath string) (*domain.MusicTrack, error)
}
