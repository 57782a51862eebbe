// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/audio/stream"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/adapter/render/gpu"
	"github.com/tejashwikalptaru/govis/internal/adapter/render/raster"
	fyneui "github.com/tejashwikalptaru/govis/internal/adapter/ui/fyne"
	glfwui "github.com/tejashwikalptaru/govis/internal/adapter/ui/glfw"
	"github.com/tejashwikalptaru/govis/internal/adapter/ui/presenter"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
)

// DemoTrack is the name the demo session is loaded under.
const DemoTrack = "Demo.wav"

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Choosing the render strategy once at startup
// - Managing the application lifecycle (startup, shutdown)
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	config  Config
	fyneApp fyne.App

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.AudioEngine

	// Services
	playbackService *service.PlaybackService
	frameDriver     *service.FrameDriver

	// Rendering
	host     ports.HostSurface
	target   ports.RenderTarget
	strategy domain.RenderStrategy
	profile  domain.Profile

	// UI
	presenter *presenter.Presenter

	shutdownOnce sync.Once
	shutdownErr  error
}

// renderSetup is one started render strategy.
type renderSetup struct {
	strategy domain.RenderStrategy
	host     ports.HostSurface
	target   ports.RenderTarget
	tier     domain.Tier
	fyneApp  fyne.App
}

// strategyOpener starts one render strategy or explains why it cannot run.
type strategyOpener struct {
	strategy domain.RenderStrategy
	open     func() (renderSetup, error)
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{config: config}

	// Step 1: Create logger
	app.logger = logger.NewLogger(config.LoggerConfig())
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()),
		slog.Any("config", config))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)
	if app.logger.Enabled(context.Background(), slog.LevelDebug) {
		app.eventBus.SubscribeAll(app.traceEvent)
	}

	// Step 3: Create an audio engine
	engine, err := app.newAudioEngine()
	if err != nil {
		_ = app.eventBus.Close()
		return nil, err
	}
	app.audioEngine = engine

	// Step 4: Create the playback service
	app.playbackService = service.NewPlaybackService(
		app.logger.With(slog.String("service", "playback")),
		app.audioEngine,
		app.eventBus,
	)

	// Step 5: Pick the render strategy
	setup, reason, err := app.selectRenderStrategy(app.strategyOpeners())
	if err != nil {
		app.releaseAudio()
		return nil, err
	}
	app.host = setup.host
	app.target = setup.target
	app.strategy = setup.strategy
	app.fyneApp = setup.fyneApp

	app.profile, err = config.ResolveProfile(setup.tier)
	if err != nil {
		app.releaseRender()
		app.releaseAudio()
		return nil, err
	}

	// Step 6: Create the frame driver and route resizes to it
	app.frameDriver, err = service.NewFrameDriver(
		app.logger,
		app.audioEngine,
		app.target,
		app.eventBus,
		app.profile,
		app.host.Viewport(),
		nil,
	)
	if err != nil {
		app.releaseRender()
		app.releaseAudio()
		return nil, err
	}
	app.host.SetResizeHandler(app.frameDriver.Resize)

	// Step 7: Create Presenter and wire with the host
	app.presenter = presenter.NewPresenter(app.logger, app.playbackService, app.eventBus, app.host)

	app.eventBus.Publish(domain.NewStrategySelectedEvent(app.strategy, reason))
	app.logger.Info("application initialized",
		slog.String("strategy", string(app.strategy)),
		slog.String("tier", string(setup.tier)),
		slog.Int("bars", app.profile.BarCount),
		slog.Int("particles", app.profile.ParticleCount))

	return app, nil
}

// traceEvent logs every bus event at debug level.
func (a *Application) traceEvent(event domain.Event) {
	a.logger.Debug("event", slog.String("type", string(event.Type())))
}

func (a *Application) newAudioEngine() (ports.AudioEngine, error) {
	if a.config.Demo {
		engine := mock.NewEngine()
		engine.SetLogger(a.logger.With(slog.String("engine", "demo")))
		if err := engine.Initialize(-1, a.config.SampleRate, 0); err != nil {
			return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
		}
		return engine, nil
	}

	engine := stream.NewEngine(a.logger)
	if err := engine.Initialize(-1, a.config.SampleRate, 0); err != nil {
		return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	return engine, nil
}

// strategyOpeners returns the strategies to try, in order, for the configured renderer.
// The batched strategy is always last so that the instanced one can fall back to it.
func (a *Application) strategyOpeners() []strategyOpener {
	gl := strategyOpener{strategy: domain.StrategyInstanced, open: a.openInstanced}
	batched := strategyOpener{strategy: domain.StrategyBatched, open: a.openBatched}

	if a.config.Renderer == RendererRaster || a.config.TestFyneApp != nil {
		return []strategyOpener{batched}
	}
	return []strategyOpener{gl, batched}
}

// selectRenderStrategy starts the first strategy that works. It returns
// domain.ErrNoRenderStrategy, joined with every failure, when none does.
func (a *Application) selectRenderStrategy(openers []strategyOpener) (renderSetup, string, error) {
	var errs []error
	for _, o := range openers {
		setup, err := o.open()
		if err == nil {
			err = usable(setup)
		}
		if err == nil {
			reason := "requested"
			if len(errs) > 0 {
				reason = presenter.FallbackPrefix + errors.Join(errs...).Error()
			}
			return setup, reason, nil
		}
		a.logger.Warn("render strategy unavailable",
			slog.String("strategy", string(o.strategy)),
			slog.Any("error", err))
		errs = append(errs, err)
	}
	return renderSetup{}, "", fmt.Errorf("%w: %w", domain.ErrNoRenderStrategy, errors.Join(errs...))
}

// usable checks a started strategy against what its host reports. An unusable
// setup is released.
func usable(setup renderSetup) error {
	if setup.strategy != domain.StrategyInstanced {
		return nil
	}
	if setup.host != nil && setup.host.SupportsInstancing() {
		return nil
	}
	if setup.target != nil {
		_ = setup.target.Release()
	}
	if setup.host != nil {
		setup.host.Close()
	}
	return domain.NewRenderError(string(setup.strategy), "probe", 0,
		fmt.Errorf("%w: host cannot run instanced draws", domain.ErrRenderUnavailable))
}

// openInstanced opens a glfw window, probes its GL context and builds the gpu target.
func (a *Application) openInstanced() (renderSetup, error) {
	host, err := glfwui.NewHost(a.logger, glfwui.Options{
		Width:  a.config.Window.Width,
		Height: a.config.Window.Height,
	})
	if err != nil {
		return renderSetup{}, err
	}

	tier := a.config.ResolveTier(nil)
	profile, err := a.config.ResolveProfile(tier)
	if err != nil {
		host.Close()
		return renderSetup{}, err
	}

	caps, err := gpu.Probe(profile.BarCount)
	host.SetInstancing(err == nil)
	if err != nil {
		host.Close()
		return renderSetup{}, err
	}
	a.logger.Info("gl context",
		slog.String("version", caps.Version),
		slog.String("renderer", caps.Renderer),
		slog.Int("max_vertex_uniform_components", caps.MaxVertexUniformComponents))

	target, err := gpu.NewTarget(a.logger, profile.BarCount, host.FramebufferSize, host.SwapBuffers)
	if err != nil {
		host.Close()
		return renderSetup{}, err
	}
	host.SetIdleFrame(func() {
		if err := target.Clear(); err == nil {
			_ = target.Present()
		}
	})

	return renderSetup{
		strategy: domain.StrategyInstanced,
		host:     host,
		target:   target,
		tier:     tier,
	}, nil
}

// openBatched opens a fyne window whose view shows the raster target's frames.
func (a *Application) openBatched() (renderSetup, error) {
	fa := a.config.TestFyneApp
	if fa == nil {
		fa = fyneapp.NewWithID(a.config.AppID)
	}

	extensions := make([]string, 0, len(stream.SupportedFormats()))
	for _, ext := range stream.SupportedFormats() {
		extensions = append(extensions, "."+ext)
	}

	host := fyneui.NewHost(a.logger, fa, fyneui.Options{
		Width:      float32(a.config.Window.Width),
		Height:     float32(a.config.Window.Height),
		Extensions: extensions,
	})
	target := raster.NewTarget(a.logger, host.Repaint)
	host.SetFrameSource(target.Frame)

	return renderSetup{
		strategy: domain.StrategyBatched,
		host:     host,
		target:   target,
		tier:     a.config.ResolveTier(host.IsMobile),
		fyneApp:  fa,
	}, nil
}

// Run starts the application and blocks until the window is closed.
// The configured file, or the demo track, is loaded and played first.
func (a *Application) Run() error {
	a.logger.Info("govis started")

	switch {
	case a.config.File != "":
		a.presenter.OnOpenFile(a.config.File)
	case a.config.Demo:
		a.presenter.OnOpenFile(DemoTrack)
	}

	return a.host.Run(a.tick)
}

func (a *Application) tick() {
	if err := a.frameDriver.Tick(); err != nil {
		a.logger.Debug("frame driver stopped", slog.Any("error", err))
	}
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		var errs []error
		if err := a.frameDriver.Close(); err != nil {
			errs = append(errs, err)
		}
		a.presenter.Shutdown()
		if err := a.playbackService.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		if err := a.audioEngine.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown audio engine: %w", err))
		}
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, err)
		}
		a.host.Close()

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// releaseRender undoes a strategy that started but could not be used.
func (a *Application) releaseRender() {
	if a.target != nil {
		_ = a.target.Release()
	}
	if a.host != nil {
		a.host.Close()
	}
}

// releaseAudio undoes the audio setup after a failed startup.
func (a *Application) releaseAudio() {
	_ = a.playbackService.Shutdown()
	_ = a.audioEngine.Shutdown()
	_ = a.eventBus.Close()
}

// GetPlaybackService returns the playback service.
func (a *Application) GetPlaybackService() *service.PlaybackService {
	return a.playbackService
}

// GetFrameDriver returns the frame driver.
func (a *Application) GetFrameDriver() *service.FrameDriver {
	return a.frameDriver
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the fyne app, or nil when the instanced strategy runs.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// Strategy returns the render strategy chosen at startup.
func (a *Application) Strategy() domain.RenderStrategy {
	return a.strategy
}

// Profile returns the startup constants in use.
func (a *Application) Profile() domain.Profile {
	return a.profile
}
