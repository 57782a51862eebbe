// Package presenter connects a host surface to the playback service.
// Input from the window becomes service calls; bus events become titles and notices.
package presenter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
)

// IdleTitle is shown while no track is loaded.
const IdleTitle = "Press O or drop an audio file"

// FallbackPrefix starts the reason of a strategy chosen after another failed.
const FallbackPrefix = "fallback: "

// Presenter implements ports.InputHandler.
//
// Thread-safety: All operations are thread-safe via sync.Mutex.
type Presenter struct {
	// Dependencies
	logger   *slog.Logger
	playback *service.PlaybackService
	bus      ports.EventBus
	host     ports.HostSurface

	// Presentation state
	title         string
	subscriptions []domain.SubscriptionID

	mu           sync.Mutex
	shutdownOnce sync.Once
}

// NewPresenter creates a presenter and registers it as the host's input handler.
func NewPresenter(
	logger *slog.Logger,
	playback *service.PlaybackService,
	bus ports.EventBus,
	host ports.HostSurface,
) *Presenter {
	p := &Presenter{
		logger:   logger.With(slog.String("component", "presenter")),
		playback: playback,
		bus:      bus,
		host:     host,
	}

	p.subscribeToEvents()
	p.syncInitialState()
	host.SetInputHandler(p)

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventTrackLoaded:       p.onTrackLoaded,
		domain.EventTrackError:        p.onTrackError,
		domain.EventPlaybackStarted:   p.onPlaybackStarted,
		domain.EventPlaybackPaused:    p.onPlaybackPaused,
		domain.EventRenderContextLost: p.onRenderContextLost,
		domain.EventStrategySelected:  p.onStrategySelected,
	}

	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
	p.subscriptions = append(p.subscriptions,
		p.subscribeFiltered(domain.EventStrategySelected, isFallback, p.onStrategyFallback))
}

// subscribeFiltered uses the bus filter when it has one.
func (p *Presenter) subscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if fb, ok := p.bus.(ports.FilteringEventBus); ok {
		return fb.SubscribeFiltered(eventType, filter, handler)
	}
	return p.bus.Subscribe(eventType, func(event domain.Event) {
		if filter(event) {
			handler(event)
		}
	})
}

// isFallback accepts strategy selections that did not get the first choice.
func isFallback(event domain.Event) bool {
	e, ok := event.(domain.StrategySelectedEvent)
	return ok && strings.HasPrefix(e.Reason, FallbackPrefix)
}

// syncInitialState shows the loaded track, if any.
func (p *Presenter) syncInitialState() {
	state := p.playback.GetState()
	if state.CurrentTrack == nil {
		p.setTitle(IdleTitle)
		return
	}
	p.mu.Lock()
	p.title = state.CurrentTrack.DisplayName()
	p.mu.Unlock()
	p.showTitle(state.Status == domain.StatusPaused)
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	p.setTitle(e.Track.DisplayName())
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	message := "The file could not be played."
	switch {
	case errors.Is(e.Error, domain.ErrUnsupportedFormat):
		message = "This audio format is not supported."
	case errors.Is(e.Error, domain.ErrFileNotFound):
		message = "The file does not exist."
	}
	p.host.ShowNotice("Cannot open file", message)
}

func (p *Presenter) onPlaybackStarted(domain.Event) {
	p.showTitle(false)
}

func (p *Presenter) onPlaybackPaused(domain.Event) {
	p.showTitle(true)
}

func (p *Presenter) onRenderContextLost(event domain.Event) {
	e, ok := event.(domain.RenderContextLostEvent)
	if !ok {
		return
	}
	p.logger.Warn("render context lost", slog.Any("error", e.Error))
	p.host.ShowNotice("Graphics unavailable", "The graphics context was lost. Restart the visualiser to continue.")
}

func (p *Presenter) onStrategySelected(event domain.Event) {
	e, ok := event.(domain.StrategySelectedEvent)
	if !ok {
		return
	}
	p.logger.Info("render strategy selected",
		slog.String("strategy", string(e.Strategy)),
		slog.String("reason", e.Reason))
}

func (p *Presenter) onStrategyFallback(event domain.Event) {
	e, ok := event.(domain.StrategySelectedEvent)
	if !ok {
		return
	}
	p.host.ShowNotice("Reduced graphics", fmt.Sprintf("Drawing with the %s renderer; hardware instancing is unavailable.", e.Strategy))
}

func (p *Presenter) setTitle(title string) {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
	p.host.SetTitle(title)
}

func (p *Presenter) showTitle(paused bool) {
	p.mu.Lock()
	title := p.title
	p.mu.Unlock()

	if paused {
		title += " (paused)"
	}
	p.host.SetTitle(title)
}

// Input handlers

// OnTogglePlayback handles space and clicks.
func (p *Presenter) OnTogglePlayback() {
	if err := p.playback.TogglePlayback(); err != nil {
		p.report("Playback", err)
	}
}

// OnSeek handles seek keys.
func (p *Presenter) OnSeek(seconds float64) {
	delta := time.Duration(seconds * float64(time.Second))
	if err := p.playback.SeekBy(delta); err != nil {
		p.report("Seek", err)
	}
}

// OnVolume handles volume keys.
func (p *Presenter) OnVolume(delta float64) {
	if err := p.playback.AdjustVolume(delta); err != nil {
		p.report("Volume", err)
	}
}

// OnOpenFile loads and starts a chosen or dropped file. Load failures are
// reported through the track error event.
func (p *Presenter) OnOpenFile(path string) {
	if err := p.playback.LoadTrack(path); err != nil {
		p.logger.Debug("open file failed", slog.String("path", path), slog.Any("error", err))
		return
	}
	if err := p.playback.Play(); err != nil {
		p.report("Playback", err)
	}
}

func (p *Presenter) report(action string, err error) {
	if errors.Is(err, domain.ErrNoTrackLoaded) {
		p.host.ShowNotice("No track loaded", IdleTitle+" to start.")
		return
	}
	p.logger.Warn("input action failed", slog.String("action", action), slog.Any("error", err))
	p.host.ShowNotice(action+" Error", fmt.Sprintf("%s failed: %v", action, err))
}

// Shutdown unsubscribes from the bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
		p.subscriptions = nil
	})
}

var _ ports.InputHandler = (*Presenter)(nil)
