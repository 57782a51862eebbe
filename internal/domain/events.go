// Package domain defines events for the event-driven architecture.
// Events decouple the playback session, the frame driver and the host surface.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoaded     EventType = "track.loaded"
	EventTrackError      EventType = "track.error"
	EventPlaybackStarted EventType = "playback.started"
	EventPlaybackPaused  EventType = "playback.paused"
	EventVolumeChanged   EventType = "volume.changed"

	// Visualiser events
	EventSessionAttached   EventType = "session.attached"
	EventViewportResized   EventType = "viewport.resized"
	EventStrategySelected  EventType = "render.strategy_selected"
	EventRenderContextLost EventType = "render.context_lost"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when a track is successfully loaded.
type TrackLoadedEvent struct {
	baseEvent
	Track    MusicTrack
	Handle   TrackHandle
	Duration time.Duration
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track MusicTrack, handle TrackHandle, duration time.Duration) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Handle:    handle,
		Duration:  duration,
	}
}

// TrackErrorEvent is published when a track cannot be loaded or played.
type TrackErrorEvent struct {
	baseEvent
	Path  string
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(path string, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
		Error:     err,
	}
}

// PlaybackStartedEvent is published when playback starts or resumes.
type PlaybackStartedEvent struct {
	baseEvent
	Track    MusicTrack
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackStartedEvent) Type() EventType {
	return EventPlaybackStarted
}

// NewPlaybackStartedEvent creates a new PlaybackStartedEvent.
func NewPlaybackStartedEvent(track MusicTrack, position time.Duration) PlaybackStartedEvent {
	return PlaybackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// PlaybackPausedEvent is published when playback is paused.
type PlaybackPausedEvent struct {
	baseEvent
	Track    MusicTrack
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackPausedEvent) Type() EventType {
	return EventPlaybackPaused
}

// NewPlaybackPausedEvent creates a new PlaybackPausedEvent.
func NewPlaybackPausedEvent(track MusicTrack, position time.Duration) PlaybackPausedEvent {
	return PlaybackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// SessionAttachedEvent is published when the frame driver first sees frequency data.
type SessionAttachedEvent struct {
	baseEvent
	BinCount int
}

// Type returns the event type.
func (e SessionAttachedEvent) Type() EventType {
	return EventSessionAttached
}

// NewSessionAttachedEvent creates a new SessionAttachedEvent.
func NewSessionAttachedEvent(binCount int) SessionAttachedEvent {
	return SessionAttachedEvent{
		baseEvent: newBaseEvent(),
		BinCount:  binCount,
	}
}

// ViewportResizedEvent is published after a pending resize has been applied.
type ViewportResizedEvent struct {
	baseEvent
	Viewport Viewport
}

// Type returns the event type.
func (e ViewportResizedEvent) Type() EventType {
	return EventViewportResized
}

// NewViewportResizedEvent creates a new ViewportResizedEvent.
func NewViewportResizedEvent(vp Viewport) ViewportResizedEvent {
	return ViewportResizedEvent{
		baseEvent: newBaseEvent(),
		Viewport:  vp,
	}
}

// StrategySelectedEvent is published once at startup with the chosen render backend.
type StrategySelectedEvent struct {
	baseEvent
	Strategy RenderStrategy
	Reason   string
}

// Type returns the event type.
func (e StrategySelectedEvent) Type() EventType {
	return EventStrategySelected
}

// NewStrategySelectedEvent creates a new StrategySelectedEvent.
func NewStrategySelectedEvent(strategy RenderStrategy, reason string) StrategySelectedEvent {
	return StrategySelectedEvent{
		baseEvent: newBaseEvent(),
		Strategy:  strategy,
		Reason:    reason,
	}
}

// RenderContextLostEvent is published when the render target reports an unrecoverable loss.
type RenderContextLostEvent struct {
	baseEvent
	Error error
}

// Type returns the event type.
func (e RenderContextLostEvent) Type() EventType {
	return EventRenderContextLost
}

// NewRenderContextLostEvent creates a new RenderContextLostEvent.
func NewRenderContextLostEvent(err error) RenderContextLostEvent {
	return RenderContextLostEvent{
		baseEvent: newBaseEvent(),
		Error:     err,
	}
}
