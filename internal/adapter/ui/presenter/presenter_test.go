package presenter

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/service"
)

// fakeHost records what the presenter shows.
type fakeHost struct {
	mu      sync.Mutex
	titles  []string
	notices []string
	input   ports.InputHandler
}

func (h *fakeHost) Viewport() domain.Viewport { return domain.Viewport{Width: 800, Height: 600, Scale: 1} }
func (h *fakeHost) SupportsInstancing() bool { return false }
func (h *fakeHost) SetResizeHandler(func(domain.Viewport)) {}
func (h *fakeHost) SetInputHandler(handler ports.InputHandler) { h.input = handler }
func (h *fakeHost) Run(func()) error { return nil }
func (h *fakeHost) Close() {}

func (h *fakeHost) ShowNotice(title, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, title+": "+message)
}

func (h *fakeHost) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.titles = append(h.titles, title)
}

func (h *fakeHost) lastTitle() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.titles) == 0 {
		return ""
	}
	return h.titles[len(h.titles)-1]
}

func (h *fakeHost) noticeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.notices)
}

type fixture struct {
	presenter *Presenter
	playback  *service.PlaybackService
	engine    *mock.Engine
	bus       *eventbus.SyncEventBus
	host      *fakeHost
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewTestLogger()
	engine := mock.NewEngine()
	now := time.Unix(1700000000, 0)
	engine.SetClock(func() time.Time { return now })
	require.NoError(t, engine.Initialize(-1, 44100, 0))

	bus := eventbus.NewSyncEventBus(log)
	playback := service.NewPlaybackService(log, engine, bus)
	host := &fakeHost{}
	p := NewPresenter(log, playback, bus, host)

	t.Cleanup(func() {
		p.Shutdown()
		_ = playback.Shutdown()
	})
	return &fixture{presenter: p, playback: playback, engine: engine, bus: bus, host: host}
}

func TestNewPresenter_RegistersInput(t *testing.T) {
	f := newFixture(t)

	assert.Same(t, f.presenter, f.host.input)
	assert.Equal(t, IdleTitle, f.host.lastTitle())
}

func TestPresenter_OpenFileLoadsAndPlays(t *testing.T) {
	f := newFixture(t)

	f.presenter.OnOpenFile("/music/Night Drive.mp3")

	state := f.playback.GetState()
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Equal(t, "Oscillator Bank - Night Drive", f.host.lastTitle())
	assert.Zero(t, f.host.noticeCount())
}

func TestPresenter_TogglePlaybackUpdatesTitle(t *testing.T) {
	f := newFixture(t)
	f.presenter.OnOpenFile("/music/song.mp3")

	f.presenter.OnTogglePlayback()
	assert.Equal(t, domain.StatusPaused, f.playback.GetState().Status)
	assert.Equal(t, "Oscillator Bank - song (paused)", f.host.lastTitle())

	f.presenter.OnTogglePlayback()
	assert.Equal(t, "Oscillator Bank - song", f.host.lastTitle())
}

func TestPresenter_InputWithoutTrackShowsNotice(t *testing.T) {
	f := newFixture(t)

	f.presenter.OnTogglePlayback()
	f.presenter.OnSeek(5)

	require.Equal(t, 2, f.host.noticeCount())
	assert.Contains(t, f.host.notices[0], "No track loaded")

	// Volume is remembered even without a track.
	f.presenter.OnVolume(-0.1)
	assert.Equal(t, 2, f.host.noticeCount())
	assert.InDelta(t, 0.7, f.playback.GetVolume(), 1e-9)
}

func TestPresenter_SeekAndVolume(t *testing.T) {
	f := newFixture(t)
	f.presenter.OnOpenFile("/music/song.mp3")

	f.presenter.OnSeek(5)
	f.presenter.OnSeek(5)
	f.presenter.OnSeek(-5)
	assert.Equal(t, 5*time.Second, f.playback.GetState().Position)

	f.presenter.OnVolume(0.1)
	assert.InDelta(t, 0.9, f.playback.GetVolume(), 1e-9)
}

func TestPresenter_TrackErrorShowsNotice(t *testing.T) {
	f := newFixture(t)

	f.presenter.OnOpenFile("")
	require.Equal(t, 1, f.host.noticeCount())
	assert.Contains(t, f.host.notices[0], "Cannot open file")

	f.bus.Publish(domain.NewTrackErrorEvent("/x.xm", fmt.Errorf("load: %w", domain.ErrUnsupportedFormat)))
	require.Equal(t, 2, f.host.noticeCount())
	assert.Contains(t, f.host.notices[1], "not supported")
}

func TestPresenter_ContextLossShowsNotice(t *testing.T) {
	f := newFixture(t)

	f.bus.Publish(domain.NewRenderContextLostEvent(errors.New("gl: context lost")))
	require.Equal(t, 1, f.host.noticeCount())
	assert.Contains(t, f.host.notices[0], "Graphics unavailable")
}

func TestPresenter_FallbackStrategyShowsNotice(t *testing.T) {
	f := newFixture(t)

	f.bus.Publish(domain.NewStrategySelectedEvent(domain.StrategyBatched, "requested"))
	assert.Zero(t, f.host.noticeCount(), "first choice needs no notice")

	f.bus.Publish(domain.NewStrategySelectedEvent(domain.StrategyBatched, FallbackPrefix+"gl: init failed"))
	require.Equal(t, 1, f.host.noticeCount())
	assert.Contains(t, f.host.notices[0], "Reduced graphics")
	assert.Contains(t, f.host.notices[0], string(domain.StrategyBatched))
}

// plainBus hides the filtering methods of the bus it wraps.
type plainBus struct {
	ports.EventBus
}

func TestPresenter_FallbackNoticeWithoutBusFilter(t *testing.T) {
	log := logger.NewTestLogger()
	engine := mock.NewEngine()
	require.NoError(t, engine.Initialize(-1, 44100, 0))
	bus := eventbus.NewSyncEventBus(log)
	playback := service.NewPlaybackService(log, engine, bus)
	host := &fakeHost{}

	p := NewPresenter(log, playback, plainBus{bus}, host)
	defer func() {
		p.Shutdown()
		_ = playback.Shutdown()
	}()

	bus.Publish(domain.NewStrategySelectedEvent(domain.StrategyBatched, "requested"))
	bus.Publish(domain.NewStrategySelectedEvent(domain.StrategyBatched, FallbackPrefix+"gl: init failed"))
	assert.Equal(t, 1, host.noticeCount())
}

func TestPresenter_ShutdownUnsubscribes(t *testing.T) {
	f := newFixture(t)
	before := f.bus.SubscriberCount()

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	assert.Equal(t, before-7, f.bus.SubscriberCount())
	f.bus.Publish(domain.NewRenderContextLostEvent(errors.New("lost")))
	assert.Zero(t, f.host.noticeCount())
}
