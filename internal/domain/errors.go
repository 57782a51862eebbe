// Package domain defines domain-specific errors.
// These errors represent visualiser and playback failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrInvalidTrackHandle is returned when an invalid track handle is used.
	ErrInvalidTrackHandle = errors.New("invalid track handle")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrNoTrackLoaded is returned when playback is attempted with no track loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrRenderUnavailable is returned when a render strategy cannot start on this host.
	ErrRenderUnavailable = errors.New("render strategy unavailable")

	// ErrRenderContextLost is returned when the graphics context is lost and cannot be recovered.
	ErrRenderContextLost = errors.New("render context lost")

	// ErrNoRenderStrategy is returned when neither render strategy can start.
	ErrNoRenderStrategy = errors.New("no usable render strategy")

	// ErrInvalidProfile is returned when startup constants are out of range.
	ErrInvalidProfile = errors.New("invalid visualiser profile")

	// ErrTargetReleased is returned when drawing into a released render target.
	ErrTargetReleased = errors.New("render target released")
)

// AudioEngineError represents an error from the audio engine.
// This wraps low-level decoder and output errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	Path    string // File path (if applicable)
	Code    int    // Error code from an underlying library
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s (code: %d)", e.Op, e.Path, e.Message, e.Code)
	}
	return fmt.Sprintf("audio engine %s failed: %s (code: %d)", e.Op, e.Message, e.Code)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path string, code int, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// RenderError represents an error from a render target.
type RenderError struct {
	Target string // Render target name ("gl", "raster")
	Op     string // Operation that failed (e.g., "draw_bars", "present")
	Code   uint32 // Graphics API error code (0 if not applicable)
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("render %s.%s failed: %v (code: 0x%04x)", e.Target, e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("render %s.%s failed: %v", e.Target, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a new RenderError.
func NewRenderError(target, op string, code uint32, err error) *RenderError {
	return &RenderError{
		Target: target,
		Op:     op,
		Code:   code,
		Err:    err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackService", "FrameDriver")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
