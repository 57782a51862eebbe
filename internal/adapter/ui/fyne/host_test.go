package fyne

import (
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/testutil"
)

// recordingInput records every input call.
type recordingInput struct {
	mu      sync.Mutex
	toggles int
	seeks   []float64
	volumes []float64
	opened  []string
}

func (r *recordingInput) OnTogglePlayback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles++
}

func (r *recordingInput) OnSeek(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeks = append(r.seeks, seconds)
}

func (r *recordingInput) OnVolume(delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volumes = append(r.volumes, delta)
}

func (r *recordingInput) OnOpenFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, path)
}

func newTestHost(t *testing.T) (*Host, *recordingInput) {
	t.Helper()

	app := test.NewApp()
	h := NewHost(logger.NewTestLogger(), app, Options{Width: 640, Height: 360, Extensions: []string{".mp3"}})
	input := &recordingInput{}
	h.SetInputHandler(input)
	t.Cleanup(h.Close)
	return h, input
}

func TestHost_Viewport(t *testing.T) {
	h, _ := newTestHost(t)

	vp := h.Viewport()
	assert.InDelta(t, 640, vp.Width, 1)
	assert.InDelta(t, 360, vp.Height, 1)
	assert.Equal(t, float32(1), vp.Scale)
	assert.False(t, h.SupportsInstancing())
}

func TestHost_ResizeReportsViewport(t *testing.T) {
	h, _ := newTestHost(t)

	var got []domain.Viewport
	h.SetResizeHandler(func(vp domain.Viewport) { got = append(got, vp) })

	h.view.Resize(fyneapp.NewSize(400, 300))

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, float32(400), last.Width)
	assert.Equal(t, float32(300), last.Height)
	assert.Equal(t, float32(1), last.Scale)
}

func TestHost_Keys(t *testing.T) {
	h, input := newTestHost(t)
	typed := h.window.Canvas().OnTypedKey()
	require.NotNil(t, typed)

	for _, key := range []fyneapp.KeyName{
		fyneapp.KeySpace, fyneapp.KeyRight, fyneapp.KeyLeft, fyneapp.KeyUp, fyneapp.KeyDown, fyneapp.KeyA,
	} {
		typed(&fyneapp.KeyEvent{Name: key})
	}

	assert.Equal(t, 1, input.toggles)
	assert.Equal(t, []float64{SeekStepSeconds, -SeekStepSeconds}, input.seeks)
	assert.Equal(t, []float64{VolumeStep, -VolumeStep}, input.volumes)
	assert.Empty(t, input.opened)
}

func TestHost_TapTogglesPlayback(t *testing.T) {
	h, input := newTestHost(t)

	test.Tap(h.view)
	test.Tap(h.view)

	assert.Equal(t, 2, input.toggles)
}

func TestHost_DropOpensFirstFile(t *testing.T) {
	h, input := newTestHost(t)

	h.handleDrop(fyneapp.NewPos(10, 10), []fyneapp.URI{
		storage.NewFileURI("/music/first.mp3"),
		storage.NewFileURI("/music/second.mp3"),
	})
	h.handleDrop(fyneapp.NewPos(0, 0), nil)

	assert.Equal(t, []string{"/music/first.mp3"}, input.opened)
}

func TestHost_StepRunsTick(t *testing.T) {
	h, _ := newTestHost(t)

	var ticks atomic.Int32
	require.NoError(t, h.Run(func() { ticks.Add(1) }))

	h.step()
	h.step()
	assert.GreaterOrEqual(t, ticks.Load(), int32(2))
}

func TestHost_TitleAndNotice(t *testing.T) {
	h, _ := newTestHost(t)

	now := time.Unix(1700000000, 0)
	h.now = func() time.Time { return now }

	h.SetTitle("Artist - Song")
	assert.Equal(t, "Artist - Song", h.trackLabel.Text)
	assert.Equal(t, "govis - Artist - Song", h.window.Title())

	h.ShowNotice("No track loaded", "Press O")
	assert.Equal(t, "No track loaded: Press O", h.noticeLabel.Text)
	assert.True(t, h.noticeLabel.Visible())

	h.step()
	assert.True(t, h.noticeLabel.Visible(), "notice stays until it expires")

	now = now.Add(noticeTTL + time.Millisecond)
	h.step()
	assert.False(t, h.noticeLabel.Visible())
	assert.Empty(t, h.noticeLabel.Text)
}

func TestSpectrumView_ShowsPresentedFrame(t *testing.T) {
	v := NewSpectrumView()

	blank := v.generate(10, 10)
	assert.Equal(t, image.Rect(0, 0, 1, 1), blank.Bounds())

	frame := image.NewRGBA(image.Rect(0, 0, 32, 16))
	v.SetFrameSource(func() *image.RGBA { return frame })
	assert.Same(t, frame, v.generate(32, 16))

	v.SetFrameSource(func() *image.RGBA { return nil })
	assert.Equal(t, image.Rect(0, 0, 1, 1), v.generate(32, 16).Bounds(), "no frame presented yet")
}

func TestHost_CloseIsIdempotent(t *testing.T) {
	app := test.NewApp()
	defer testutil.VerifyNoLeaks(t, append(testutil.IgnoreFyneGoroutines(), goleak.IgnoreCurrent())...)

	h := NewHost(logger.NewTestLogger(), app, Options{Width: 320, Height: 200})
	h.Close()
	h.Close()
}
