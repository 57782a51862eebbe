package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/testutil"
)

// Helper to create a test playback service on a frozen-clock mock engine.
func newTestPlaybackService(t *testing.T) (*PlaybackService, *mock.Engine, *eventbus.SyncEventBus) {
	t.Helper()

	log := logger.NewTestLogger()
	engine := mock.NewEngine()
	engine.SetLogger(log)
	now := time.Unix(1700000000, 0)
	engine.SetClock(func() time.Time { return now })
	require.NoError(t, engine.Initialize(-1, 44100, 0))

	bus := eventbus.NewSyncEventBus(log)
	service := NewPlaybackService(log, engine, bus)
	t.Cleanup(func() { _ = service.Shutdown() })

	return service, engine, bus
}

func TestPlaybackService_LoadTrack(t *testing.T) {
	service, engine, bus := newTestPlaybackService(t)

	var loaded domain.TrackLoadedEvent
	bus.Subscribe(domain.EventTrackLoaded, func(e domain.Event) {
		loaded = e.(domain.TrackLoadedEvent)
	})

	require.NoError(t, service.LoadTrack("/music/Night Drive.mp3"))

	state := service.GetState()
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, "Night Drive", state.CurrentTrack.Title)
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.InDelta(t, DefaultVolume, state.Volume, 1e-9)

	assert.Equal(t, "Night Drive", loaded.Track.Title)
	assert.Equal(t, mock.DefaultDuration, loaded.Duration)
	assert.NotEqual(t, domain.InvalidTrackHandle, loaded.Handle)

	volume, err := engine.GetVolume(loaded.Handle)
	require.NoError(t, err)
	assert.InDelta(t, DefaultVolume, volume, 1e-9, "the service volume is applied to new tracks")
}

func TestPlaybackService_LoadTrack_Errors(t *testing.T) {
	service, engine, bus := newTestPlaybackService(t)

	var errs []domain.TrackErrorEvent
	bus.Subscribe(domain.EventTrackError, func(e domain.Event) {
		errs = append(errs, e.(domain.TrackErrorEvent))
	})

	err := service.LoadTrack("")
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)

	engine.SetFailLoad(true)
	err = service.LoadTrack("/music/broken.mp3")
	assert.Error(t, err)

	require.Len(t, errs, 2)
	assert.Equal(t, "/music/broken.mp3", errs[1].Path)
	assert.Nil(t, service.GetState().CurrentTrack)
}

func TestPlaybackService_LoadTrack_ReplacesCurrentTrack(t *testing.T) {
	service, engine, _ := newTestPlaybackService(t)

	require.NoError(t, service.LoadTrack("/music/one.mp3"))
	require.NoError(t, service.TogglePlayback())
	require.NoError(t, service.LoadTrack("/music/two.mp3"))

	assert.Equal(t, 1, engine.GetLoadedTracks())
	state := service.GetState()
	assert.Equal(t, "two", state.CurrentTrack.Title)
	assert.Equal(t, domain.StatusStopped, state.Status)
}

func TestPlaybackService_TogglePlayback(t *testing.T) {
	service, _, bus := newTestPlaybackService(t)

	assert.ErrorIs(t, service.TogglePlayback(), domain.ErrNoTrackLoaded)

	var started, paused int
	bus.Subscribe(domain.EventPlaybackStarted, func(domain.Event) { started++ })
	bus.Subscribe(domain.EventPlaybackPaused, func(domain.Event) { paused++ })

	require.NoError(t, service.LoadTrack("/music/song.mp3"))

	require.NoError(t, service.TogglePlayback())
	assert.Equal(t, domain.StatusPlaying, service.GetState().Status)

	require.NoError(t, service.TogglePlayback())
	assert.Equal(t, domain.StatusPaused, service.GetState().Status)

	require.NoError(t, service.TogglePlayback())
	assert.Equal(t, domain.StatusPlaying, service.GetState().Status)

	// Play on a playing track is a no-op.
	require.NoError(t, service.Play())

	assert.Equal(t, 2, started)
	assert.Equal(t, 1, paused)
}

func TestPlaybackService_PlayPause_NoTrackLoaded(t *testing.T) {
	service, _, _ := newTestPlaybackService(t)

	assert.ErrorIs(t, service.Play(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, service.Pause(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, service.SeekBy(SeekStep), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, service.Seek(time.Second), domain.ErrNoTrackLoaded)
}

func TestPlaybackService_SeekBy(t *testing.T) {
	service, _, _ := newTestPlaybackService(t)
	require.NoError(t, service.LoadTrack("/music/song.mp3"))
	require.NoError(t, service.Play())

	require.NoError(t, service.SeekBy(SeekStep))
	assert.Equal(t, 5*time.Second, service.GetState().Position)

	require.NoError(t, service.SeekBy(-2*SeekStep))
	assert.Equal(t, time.Duration(0), service.GetState().Position, "clamped at the start")

	require.NoError(t, service.Seek(mock.DefaultDuration-2*time.Second))
	require.NoError(t, service.SeekBy(SeekStep))
	assert.Equal(t, mock.DefaultDuration, service.GetState().Position, "clamped at the end")

	assert.ErrorIs(t, service.Seek(-time.Second), domain.ErrInvalidPosition)
}

func TestPlaybackService_AdjustVolume(t *testing.T) {
	service, engine, bus := newTestPlaybackService(t)

	var volumes []float64
	bus.Subscribe(domain.EventVolumeChanged, func(e domain.Event) {
		volumes = append(volumes, e.(domain.VolumeChangedEvent).Volume)
	})

	// Without a track the volume is remembered for the next load.
	require.NoError(t, service.AdjustVolume(VolumeStep))
	assert.InDelta(t, 0.9, service.GetVolume(), 1e-9)

	require.NoError(t, service.LoadTrack("/music/song.mp3"))
	require.NoError(t, service.AdjustVolume(VolumeStep))
	require.NoError(t, service.AdjustVolume(VolumeStep))
	assert.InDelta(t, 1.0, service.GetVolume(), 1e-9, "clamped at full volume")

	for i := 0; i < 12; i++ {
		require.NoError(t, service.AdjustVolume(-VolumeStep))
	}
	assert.Zero(t, service.GetVolume(), "clamped at silence")

	state := service.GetState()
	require.NotNil(t, state.CurrentTrack)
	assert.Len(t, volumes, 15)
	assert.InDelta(t, 0.9, volumes[0], 1e-9)

	// The engine saw the final value.
	require.NoError(t, service.AdjustVolume(0.3))
	var handle domain.TrackHandle
	bus.Subscribe(domain.EventTrackLoaded, func(e domain.Event) {
		handle = e.(domain.TrackLoadedEvent).Handle
	})
	require.NoError(t, service.LoadTrack("/music/other.mp3"))
	v, err := engine.GetVolume(handle)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, v, 1e-9)
}

func TestPlaybackService_SetVolume_InvalidRange(t *testing.T) {
	service, _, _ := newTestPlaybackService(t)

	assert.ErrorIs(t, service.SetVolume(-0.1), domain.ErrInvalidVolume)
	assert.ErrorIs(t, service.SetVolume(1.1), domain.ErrInvalidVolume)
	require.NoError(t, service.SetVolume(0))
	require.NoError(t, service.SetVolume(1))
}

func TestPlaybackService_Shutdown(t *testing.T) {
	service, engine, _ := newTestPlaybackService(t)

	require.NoError(t, service.LoadTrack("/music/song.mp3"))
	require.NoError(t, service.Play())
	require.NoError(t, service.Shutdown())

	assert.Equal(t, 0, engine.GetLoadedTracks())
	assert.Nil(t, service.GetState().CurrentTrack)
	assert.NoError(t, service.Shutdown(), "second shutdown is a no-op")
}

func TestPlaybackService_ConcurrentToggle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _, _ := newTestPlaybackService(t)
	require.NoError(t, service.LoadTrack("/music/song.mp3"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = service.TogglePlayback()
				_ = service.AdjustVolume(VolumeStep)
				_ = service.GetState()
			}
		}()
	}
	wg.Wait()

	status := service.GetState().Status
	assert.Contains(t, []domain.PlaybackStatus{domain.StatusPlaying, domain.StatusPaused}, status)
}
