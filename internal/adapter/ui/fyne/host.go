// Package fyne implements the batched host surface on top of the fyne toolkit.
//
// The host owns one window holding a SpectrumView under a track label and a notice
// line. A forever-repeating fyne animation calls the frame tick once per canvas
// refresh, on the fyne main goroutine.
package fyne

import (
	"image"
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// APPNAME is the window title prefix.
const APPNAME = "govis"

// noticeTTL is how long a notice stays on screen.
const noticeTTL = 4 * time.Second

// Input steps applied by the keyboard shortcuts.
const (
	SeekStepSeconds = 5.0
	VolumeStep      = 0.1
)

// Options configure a new Host.
type Options struct {
	// Width and Height are the initial window size in logical units
	Width  float32
	Height float32

	// Extensions limits the open dialog to these file extensions (".mp3"). Empty allows all files.
	Extensions []string
}

// Host is the fyne implementation of ports.HostSurface.
type Host struct {
	logger *slog.Logger
	app    fyneapp.App
	window fyneapp.Window
	opts   Options

	view        *SpectrumView
	trackLabel  *widget.Label
	noticeLabel *widget.Label
	animation   *fyneapp.Animation

	mu          sync.Mutex
	resize      func(domain.Viewport)
	input       ports.InputHandler
	tick        func()
	lastScale   float32
	noticeUntil time.Time
	now         func() time.Time

	closeOnce sync.Once
}

// NewHost creates the window and its widgets. The window is shown by Run.
func NewHost(logger *slog.Logger, app fyneapp.App, opts Options) *Host {
	h := &Host{
		logger: logger.With(slog.String("component", "fyne_host")),
		app:    app,
		opts:   opts,
		now:    time.Now,
	}

	h.window = app.NewWindow(APPNAME)
	h.window.SetMaster()
	h.window.SetPadded(false)
	h.buildUI()
	h.addShortcuts()
	h.window.SetOnDropped(h.handleDrop)
	h.window.Resize(fyneapp.NewSize(opts.Width, opts.Height))

	return h
}

// buildUI lays the labels over the spectrum view.
func (h *Host) buildUI() {
	h.view = NewSpectrumView()
	h.view.onResize = h.handleResize
	h.view.onTap = h.togglePlayback

	h.trackLabel = widget.NewLabelWithStyle("", fyneapp.TextAlignCenter, fyneapp.TextStyle{Bold: true})
	h.noticeLabel = widget.NewLabelWithStyle("", fyneapp.TextAlignCenter, fyneapp.TextStyle{Italic: true})
	h.noticeLabel.Hide()

	overlay := container.NewBorder(h.trackLabel, h.noticeLabel, nil, nil)
	h.window.SetContent(container.NewStack(h.view, overlay))
}

// addShortcuts binds the playback keys. Plain keys arrive through the typed key
// handler; the platform shortcut modifier plus O also opens the file dialog.
func (h *Host) addShortcuts() {
	h.window.Canvas().SetOnTypedKey(h.handleKey)
	h.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyO,
		Modifier: fyneapp.KeyModifierShortcutDefault,
	}, func(fyneapp.Shortcut) {
		h.openFile()
	})
}

// SetFrameSource connects the view to the raster target's presented frames.
func (h *Host) SetFrameSource(frame func() *image.RGBA) {
	h.view.SetFrameSource(frame)
}

// Repaint schedules a redraw of the spectrum view. It is called after each Present.
func (h *Host) Repaint() {
	h.view.Repaint()
}

// IsMobile reports whether fyne runs on a mobile device.
func (h *Host) IsMobile() bool {
	return fyneapp.CurrentDevice().IsMobile()
}

// Viewport returns the view size and the canvas scale.
func (h *Host) Viewport() domain.Viewport {
	size := h.view.Size()
	if size.Width <= 0 || size.Height <= 0 {
		size = fyneapp.NewSize(h.opts.Width, h.opts.Height)
	}
	return domain.Viewport{
		Width:  size.Width,
		Height: size.Height,
		Scale:  h.window.Canvas().Scale(),
	}
}

// SupportsInstancing always returns false: fyne does not expose its GL context.
func (h *Host) SupportsInstancing() bool {
	return false
}

// SetResizeHandler registers the function called after every size or scale change.
func (h *Host) SetResizeHandler(handler func(domain.Viewport)) {
	h.mu.Lock()
	h.resize = handler
	h.mu.Unlock()
}

// SetInputHandler registers the receiver of user input.
func (h *Host) SetInputHandler(handler ports.InputHandler) {
	h.mu.Lock()
	h.input = handler
	h.mu.Unlock()
}

// Run shows the window and calls tick on every canvas refresh until the window is closed.
func (h *Host) Run(tick func()) error {
	h.mu.Lock()
	h.tick = tick
	h.lastScale = h.window.Canvas().Scale()
	h.mu.Unlock()

	h.animation = fyneapp.NewAnimation(time.Second, func(float32) {
		h.step()
	})
	h.animation.Curve = fyneapp.AnimationLinear
	h.animation.RepeatCount = fyneapp.AnimationRepeatForever
	h.animation.Start()

	h.logger.Debug("fyne host running")
	h.window.ShowAndRun()
	return nil
}

// step runs one refresh: density changes are reported first, then the tick runs.
func (h *Host) step() {
	h.mu.Lock()
	tick := h.tick
	scaleChanged := false
	if scale := h.window.Canvas().Scale(); scale != h.lastScale {
		h.lastScale = scale
		scaleChanged = true
	}
	expired := !h.noticeUntil.IsZero() && h.now().After(h.noticeUntil)
	if expired {
		h.noticeUntil = time.Time{}
	}
	h.mu.Unlock()

	if scaleChanged {
		h.notifyResize()
	}
	if expired {
		h.noticeLabel.SetText("")
		h.noticeLabel.Hide()
	}
	if tick != nil {
		tick()
	}
}

// ShowNotice shows a message below the spectrum for a few seconds.
func (h *Host) ShowNotice(title, message string) {
	h.logger.Info("notice", slog.String("title", title), slog.String("message", message))

	h.mu.Lock()
	h.noticeUntil = h.now().Add(noticeTTL)
	h.mu.Unlock()

	fyneapp.Do(func() {
		h.noticeLabel.SetText(title + ": " + message)
		h.noticeLabel.Show()
	})
}

// SetTitle updates the track label and the window title.
func (h *Host) SetTitle(title string) {
	fyneapp.Do(func() {
		h.trackLabel.SetText(title)
		h.window.SetTitle(APPNAME + " - " + title)
	})
}

// Close stops the refresh animation and closes the window.
// It's safe to call multiple times (idempotent).
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		if h.animation != nil {
			h.animation.Stop()
		}
		h.window.Close()
		h.logger.Debug("fyne host closed")
	})
}

// GetWindow returns the underlying fyne window.
func (h *Host) GetWindow() fyneapp.Window {
	return h.window
}

func (h *Host) handleResize(fyneapp.Size) {
	h.notifyResize()
}

func (h *Host) notifyResize() {
	h.mu.Lock()
	handler := h.resize
	h.mu.Unlock()
	if handler != nil {
		handler(h.Viewport())
	}
}

func (h *Host) handleKey(ev *fyneapp.KeyEvent) {
	input := h.inputHandler()
	if input == nil {
		return
	}

	switch ev.Name {
	case fyneapp.KeySpace:
		input.OnTogglePlayback()
	case fyneapp.KeyRight:
		input.OnSeek(SeekStepSeconds)
	case fyneapp.KeyLeft:
		input.OnSeek(-SeekStepSeconds)
	case fyneapp.KeyUp:
		input.OnVolume(VolumeStep)
	case fyneapp.KeyDown:
		input.OnVolume(-VolumeStep)
	case fyneapp.KeyO:
		h.openFile()
	}
}

func (h *Host) handleDrop(_ fyneapp.Position, uris []fyneapp.URI) {
	input := h.inputHandler()
	if input == nil || len(uris) == 0 {
		return
	}
	if len(uris) > 1 {
		h.logger.Debug("several files dropped, loading the first", slog.Int("count", len(uris)))
	}
	input.OnOpenFile(uris[0].Path())
}

func (h *Host) togglePlayback() {
	if input := h.inputHandler(); input != nil {
		input.OnTogglePlayback()
	}
}

// openFile shows the file dialog and hands the chosen path to the input handler.
func (h *Host) openFile() {
	input := h.inputHandler()
	if input == nil {
		return
	}
	NewFileDialog(h.window, input.OnOpenFile, h.opts.Extensions, h.logger).Show()
}

func (h *Host) inputHandler() ports.InputHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.input
}

// Verify HostSurface implementation
var _ ports.HostSurface = (*Host)(nil)
