package ports

import (
	"github.com/tejashwikalptaru/govis/internal/domain"
)

// RenderTarget is the capability set shared by the render strategies.
//
// The frame driver calls Clear, DrawBars, DrawParticles and Present in that order
// once per active tick, always from the same goroutine. Slices passed in are owned
// by the caller and must not be retained after the call returns.
//
// An unrecoverable loss of the underlying graphics context is reported as an error
// wrapping domain.ErrRenderContextLost. Every other error is treated as transient.
type RenderTarget interface {
	// Name identifies the strategy ("gl", "raster").
	Name() string

	// Clear fills the frame with the background colour.
	Clear() error

	// DrawBars draws the mirrored bar pair for every normalised height (0..1).
	DrawBars(heights []float32, vp domain.Viewport) error

	// DrawParticles draws one square per particle. Positions are logical units,
	// sizes are physical pixels.
	DrawParticles(xs, ys, sizes, opacities []float32, vp domain.Viewport) error

	// Present hands the finished frame to the host.
	Present() error

	// Release frees every resource held by the target. Later calls are no-ops.
	Release() error
}
