// Package ports define the host surface interface for view abstraction.
// This interface allows the presenter and the app to drive a window without depending on fyne or glfw directly.
package ports

import (
	"github.com/tejashwikalptaru/govis/internal/domain"
)

// HostSurface is a window that owns the per-refresh callback and user input.
//
// Thread-safety: Run blocks on the calling goroutine, which must be the main OS thread.
// ShowNotice and SetTitle may be called from any goroutine.
type HostSurface interface {
	// Viewport returns the current drawable size and density scale.
	Viewport() domain.Viewport

	// SupportsInstancing reports whether the host has a graphics context able to
	// run the instanced render strategy.
	SupportsInstancing() bool

	// SetResizeHandler registers the function called after every size or scale change.
	SetResizeHandler(handler func(domain.Viewport))

	// SetInputHandler registers the receiver of user input.
	SetInputHandler(handler InputHandler)

	// Run calls tick once per display refresh until the window is closed.
	Run(tick func()) error

	// ShowNotice displays a transient message to the user.
	ShowNotice(title, message string)

	// SetTitle updates the track label or window title.
	SetTitle(title string)

	// Close releases the window. Later calls are no-ops.
	Close()
}

// InputHandler receives user input from a host surface.
type InputHandler interface {
	// OnTogglePlayback is called for space or a click on the surface.
	OnTogglePlayback()

	// OnSeek is called with a signed offset in seconds.
	OnSeek(seconds float64)

	// OnVolume is called with a signed volume delta.
	OnVolume(delta float64)

	// OnOpenFile is called with a path chosen in a dialog or dropped on the window.
	OnOpenFile(path string)
}
