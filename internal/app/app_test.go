package app

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv(tierEnv, "")

	config := DefaultConfig()
	config.Demo = true
	config.Renderer = RendererRaster
	config.LogLevel = "ERROR"
	config.TestFyneApp = test.NewApp()
	return config
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)
	defer app.Shutdown()

	assert.NotNil(t, app.GetPlaybackService())
	assert.NotNil(t, app.GetFrameDriver())
	assert.NotNil(t, app.GetEventBus())
	assert.NotNil(t, app.GetFyneApp())

	assert.Equal(t, domain.StrategyBatched, app.Strategy())
	assert.Equal(t, domain.ProfileFor(domain.TierDesktop), app.Profile())
	assert.Equal(t, service.DriverIdle, app.GetFrameDriver().State())
}

func TestNewApplication_DebugTracesEvents(t *testing.T) {
	config := testConfig(t)
	app, err := NewApplication(config)
	require.NoError(t, err)
	assert.False(t, app.GetEventBus().HasSubscribers(domain.EventVolumeChanged))
	require.NoError(t, app.Shutdown())

	config = testConfig(t)
	config.LogLevel = "DEBUG"
	app, err = NewApplication(config)
	require.NoError(t, err)
	defer app.Shutdown()
	assert.True(t, app.GetEventBus().HasSubscribers(domain.EventVolumeChanged), "debug logging sees every event")
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	config := testConfig(t)
	config.Renderer = "vulkan"

	_, err := NewApplication(config)
	require.Error(t, err)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "renderer", vErr.Field)
}

func TestNewApplication_InvalidProfile(t *testing.T) {
	config := testConfig(t)
	config.Profile.Smoothing = 1.5

	_, err := NewApplication(config)
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}

func TestApplication_DemoRunDrawsFrames(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer app.Shutdown()

	// The test window returns from Run straight away.
	require.NoError(t, app.Run())

	state := app.GetPlaybackService().GetState()
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, "Demo", state.CurrentTrack.Title)
	assert.Equal(t, domain.StatusPlaying, state.Status)

	driver := app.GetFrameDriver()
	before := driver.Frames()
	for i := 0; i < 3; i++ {
		app.tick()
	}
	assert.Equal(t, service.DriverActive, driver.State())
	assert.Equal(t, before+3, driver.Frames())
}

func TestApplicationLifecycle(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	// Run would normally block, but we're not calling it in test

	assert.NoError(t, app.Shutdown())
	assert.Equal(t, service.DriverClosed, app.GetFrameDriver().State())

	// Shutdown again should not panic
	assert.NoError(t, app.Shutdown())
}

// stubHost is a host surface that only answers the instancing probe.
type stubHost struct {
	ports.HostSurface
	instancing bool
	closed     int
}

func (h *stubHost) SupportsInstancing() bool { return h.instancing }
func (h *stubHost) Close() { h.closed++ }

func TestSelectRenderStrategy(t *testing.T) {
	a := &Application{logger: logger.NewTestLogger()}
	glErr := domain.NewRenderError("gl", "init", 0, domain.ErrRenderUnavailable)

	failing := strategyOpener{
		strategy: domain.StrategyInstanced,
		open:     func() (renderSetup, error) { return renderSetup{}, glErr },
	}
	working := strategyOpener{
		strategy: domain.StrategyBatched,
		open: func() (renderSetup, error) {
			return renderSetup{strategy: domain.StrategyBatched, tier: domain.TierDesktop}, nil
		},
	}

	t.Run("first strategy works", func(t *testing.T) {
		setup, reason, err := a.selectRenderStrategy([]strategyOpener{working, failing})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyBatched, setup.strategy)
		assert.Equal(t, "requested", reason)
	})

	t.Run("falls back", func(t *testing.T) {
		setup, reason, err := a.selectRenderStrategy([]strategyOpener{failing, working})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyBatched, setup.strategy)
		assert.Contains(t, reason, "fallback")
		assert.Contains(t, reason, "render strategy unavailable")
	})

	t.Run("host without instancing", func(t *testing.T) {
		host := &stubHost{}
		noInstancing := strategyOpener{
			strategy: domain.StrategyInstanced,
			open: func() (renderSetup, error) {
				return renderSetup{strategy: domain.StrategyInstanced, host: host}, nil
			},
		}

		setup, reason, err := a.selectRenderStrategy([]strategyOpener{noInstancing, working})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyBatched, setup.strategy)
		assert.Contains(t, reason, "cannot run instanced draws")
		assert.Equal(t, 1, host.closed, "rejected host is released")
	})

	t.Run("nothing works", func(t *testing.T) {
		_, _, err := a.selectRenderStrategy([]strategyOpener{failing})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoRenderStrategy)
		assert.ErrorIs(t, err, domain.ErrRenderUnavailable)

		var rErr *domain.RenderError
		assert.True(t, errors.As(err, &rErr))
	})
}

func TestStrategyOpeners(t *testing.T) {
	a := &Application{config: DefaultConfig()}

	openers := a.strategyOpeners()
	require.Len(t, openers, 2)
	assert.Equal(t, domain.StrategyInstanced, openers[0].strategy)
	assert.Equal(t, domain.StrategyBatched, openers[1].strategy)

	a.config.Renderer = RendererRaster
	openers = a.strategyOpeners()
	require.Len(t, openers, 1)
	assert.Equal(t, domain.StrategyBatched, openers[0].strategy)
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, info.FullString(), "govis dev")

	info.GitTag = "v1.2.0"
	assert.Contains(t, info.FullString(), "govis v1.2.0")
}
