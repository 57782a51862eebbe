// Package glfw implements the instanced host surface: a glfw window owning an
// OpenGL 3.3 core context with vsync.
//
// glfw and GL calls must stay on the main OS thread, so this package locks it at
// init and the host must be created and run from main.
package glfw

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	glfwlib "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

func init() {
	runtime.LockOSThread()
}

// APPNAME is the window title prefix.
const APPNAME = "govis"

const (
	noticeTTL = 4 * time.Second

	// idleWait bounds the event wait of a refresh that presented nothing.
	idleWait = time.Second / 60
)

// Input steps applied by the keyboard shortcuts.
const (
	SeekStepSeconds = 5.0
	VolumeStep      = 0.1
)

// Options configure a new Host.
type Options struct {
	// Width and Height are the initial window size in screen coordinates
	Width  int
	Height int
}

// Host is the glfw implementation of ports.HostSurface.
//
// Everything except ShowNotice and SetTitle must be called on the main OS thread.
type Host struct {
	logger *slog.Logger
	window *glfwlib.Window

	mu          sync.Mutex
	resize      func(domain.Viewport)
	input       ports.InputHandler
	title       string
	notice      string
	noticeUntil time.Time
	titleDirty  bool
	closed      bool

	// presented, blanked and idleFrame are only touched on the main thread
	presented  bool
	blanked    bool
	idleFrame  func()
	instancing bool
	closeOnce  sync.Once
}

// NewHost initialises glfw, opens the window and makes its GL context current.
// Any failure is reported as domain.ErrRenderUnavailable so the caller can fall back.
func NewHost(logger *slog.Logger, opts Options) (*Host, error) {
	if err := glfwlib.Init(); err != nil {
		return nil, unavailable("init", err)
	}

	glfwlib.WindowHint(glfwlib.ContextVersionMajor, 3)
	glfwlib.WindowHint(glfwlib.ContextVersionMinor, 3)
	glfwlib.WindowHint(glfwlib.OpenGLProfile, glfwlib.OpenGLCoreProfile)
	glfwlib.WindowHint(glfwlib.OpenGLForwardCompatible, glfwlib.True)
	glfwlib.WindowHint(glfwlib.ScaleToMonitor, glfwlib.True)

	window, err := glfwlib.CreateWindow(opts.Width, opts.Height, APPNAME, nil, nil)
	if err != nil {
		glfwlib.Terminate()
		return nil, unavailable("create_window", err)
	}
	window.MakeContextCurrent()
	glfwlib.SwapInterval(1)

	h := &Host{
		logger: logger.With(slog.String("component", "glfw_host")),
		window: window,
		title:  APPNAME,
	}
	window.SetFramebufferSizeCallback(func(*glfwlib.Window, int, int) { h.notifyResize() })
	window.SetContentScaleCallback(func(*glfwlib.Window, float32, float32) { h.notifyResize() })
	window.SetKeyCallback(h.onKey)
	window.SetMouseButtonCallback(h.onMouseButton)
	window.SetDropCallback(h.onDrop)

	fbw, fbh := window.GetFramebufferSize()
	h.logger.Debug("glfw window created", slog.Int("fb_width", fbw), slog.Int("fb_height", fbh))
	return h, nil
}

func unavailable(op string, err error) error {
	return domain.NewRenderError(string(domain.StrategyInstanced), op, 0,
		fmt.Errorf("%w: %w", domain.ErrRenderUnavailable, err))
}

// FramebufferSize returns the drawable size in physical pixels.
func (h *Host) FramebufferSize() (int, int) {
	return h.window.GetFramebufferSize()
}

// SwapBuffers presents the back buffer. It blocks until the next vertical blank.
func (h *Host) SwapBuffers() {
	h.window.SwapBuffers()
	h.presented = true
}

// Viewport returns the logical size derived from the framebuffer and content scale.
func (h *Host) Viewport() domain.Viewport {
	fbw, fbh := h.window.GetFramebufferSize()
	sx, _ := h.window.GetContentScale()
	return viewportFrom(fbw, fbh, sx)
}

// viewportFrom converts a framebuffer size to logical units at the given content scale.
func viewportFrom(fbWidth, fbHeight int, scale float32) domain.Viewport {
	if scale <= 0 {
		scale = 1
	}
	return domain.Viewport{
		Width:  float32(fbWidth) / scale,
		Height: float32(fbHeight) / scale,
		Scale:  scale,
	}
}

// SupportsInstancing reports whether the GL context passed the instancing probe.
func (h *Host) SupportsInstancing() bool {
	return h.instancing
}

// SetInstancing records the result of probing the window's GL context.
func (h *Host) SetInstancing(ok bool) {
	h.instancing = ok
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

// Run calls tick once per refresh until the window is closed. A refresh that
// swapped buffers is paced by vsync; one that did not waits for events instead.
func (h *Host) Run(tick func()) error {
	h.logger.Debug("glfw host running")
	for !h.window.ShouldClose() {
		h.presented = false
		tick()
		h.afterTick()
		h.refreshTitle(time.Now())

		if h.presented {
			glfwlib.PollEvents()
		} else {
			glfwlib.WaitEventsTimeout(idleWait.Seconds())
		}
	}
	return nil
}

// SetIdleFrame registers the function that clears and presents the window when
// a refresh drew nothing, so an idle window never shows an undefined back buffer.
func (h *Host) SetIdleFrame(frame func()) {
	h.idleFrame = frame
}

// afterTick presents the idle frame once per stretch of refreshes that drew nothing.
// A resize makes the back buffer undefined again.
func (h *Host) afterTick() {
	if h.presented {
		h.blanked = false
		return
	}
	if h.blanked || h.idleFrame == nil {
		return
	}
	h.blanked = true
	h.idleFrame()
}

// ShowNotice shows the notice in the window title for a few seconds. glfw has no
// widgets, so the message is also logged.
func (h *Host) ShowNotice(title, message string) {
	h.logger.Info("notice", slog.String("title", title), slog.String("message", message))

	h.mu.Lock()
	h.notice = title + ": " + message
	h.noticeUntil = time.Now().Add(noticeTTL)
	h.titleDirty = true
	closed := h.closed
	h.mu.Unlock()
	if !closed {
		glfwlib.PostEmptyEvent()
	}
}

// SetTitle sets the track shown in the window title.
func (h *Host) SetTitle(title string) {
	h.mu.Lock()
	h.title = title
	h.titleDirty = true
	closed := h.closed
	h.mu.Unlock()
	if !closed {
		glfwlib.PostEmptyEvent()
	}
}

// refreshTitle applies pending title changes on the main thread.
func (h *Host) refreshTitle(now time.Time) {
	h.mu.Lock()
	if h.notice != "" && now.After(h.noticeUntil) {
		h.notice = ""
		h.titleDirty = true
	}
	if !h.titleDirty {
		h.mu.Unlock()
		return
	}
	h.titleDirty = false
	text := windowTitle(h.title, h.notice)
	h.mu.Unlock()

	h.window.SetTitle(text)
}

func windowTitle(title, notice string) string {
	text := APPNAME
	if title != "" && title != APPNAME {
		text += " - " + title
	}
	if notice != "" {
		text += " [" + notice + "]"
	}
	return text
}

// Close destroys the window and terminates glfw.
// It's safe to call multiple times (idempotent).
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		h.window.Destroy()
		glfwlib.Terminate()
		h.logger.Debug("glfw host closed")
	})
}

func (h *Host) notifyResize() {
	h.blanked = false

	h.mu.Lock()
	handler := h.resize
	h.mu.Unlock()
	if handler != nil {
		handler(h.Viewport())
	}
}

func (h *Host) onKey(_ *glfwlib.Window, key glfwlib.Key, _ int, action glfwlib.Action, _ glfwlib.ModifierKey) {
	if key == glfwlib.KeyO && action == glfwlib.Press {
		h.ShowNotice("Open file", "Drop an audio file on the window")
		return
	}
	dispatchKey(h.inputHandler(), key, action)
}

// dispatchKey maps a key event to the input handler. Repeats are honoured for
// seek and volume only.
func dispatchKey(input ports.InputHandler, key glfwlib.Key, action glfwlib.Action) {
	if input == nil || action == glfwlib.Release {
		return
	}

	switch key {
	case glfwlib.KeySpace:
		if action == glfwlib.Press {
			input.OnTogglePlayback()
		}
	case glfwlib.KeyRight:
		input.OnSeek(SeekStepSeconds)
	case glfwlib.KeyLeft:
		input.OnSeek(-SeekStepSeconds)
	case glfwlib.KeyUp:
		input.OnVolume(VolumeStep)
	case glfwlib.KeyDown:
		input.OnVolume(-VolumeStep)
	}
}

func (h *Host) onMouseButton(_ *glfwlib.Window, button glfwlib.MouseButton, action glfwlib.Action, _ glfwlib.ModifierKey) {
	if button != glfwlib.MouseButtonLeft || action != glfwlib.Press {
		return
	}
	if input := h.inputHandler(); input != nil {
		input.OnTogglePlayback()
	}
}

func (h *Host) onDrop(_ *glfwlib.Window, names []string) {
	dispatchDrop(h.inputHandler(), names)
}

// dispatchDrop loads the first dropped file.
func dispatchDrop(input ports.InputHandler, names []string) {
	if input == nil || len(names) == 0 {
		return
	}
	input.OnOpenFile(names[0])
}

func (h *Host) inputHandler() ports.InputHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.input
}

// Verify HostSurface implementation
var _ ports.HostSurface = (*Host)(nil)
