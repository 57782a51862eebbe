package service

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/particle"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/spectrum"
)

// DriverState is the lifecycle state of a FrameDriver.
type DriverState int32

const (
	// DriverIdle means no audio session has reported frequency data yet
	DriverIdle DriverState = iota

	// DriverActive means every tick samples, simulates and draws
	DriverActive

	// DriverLost means the render context was lost; ticks are no-ops
	DriverLost

	// DriverClosed means the render target was released; ticks are no-ops
	DriverClosed
)

// String returns a human-readable representation of the driver state.
func (s DriverState) String() string {
	switch s {
	case DriverIdle:
		return "idle"
	case DriverActive:
		return "active"
	case DriverLost:
		return "lost"
	case DriverClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FrameDriver runs the per-refresh pipeline: sample the spectrum, map it to bands,
// smooth and normalise, step the particles and draw through the render target.
//
// Tick is called from a single goroutine (the host's render loop). Resize may be
// called from any goroutine; the latest pending viewport is applied at the start
// of the next tick, before anything reads the band ranges or the particles.
type FrameDriver struct {
	logger  *slog.Logger
	source  ports.FrequencySource
	target  ports.RenderTarget
	bus     ports.EventBus
	profile domain.Profile

	// tickMu serialises Tick and Close
	tickMu sync.Mutex
	state  atomic.Int32
	err    error

	// outbox holds events raised during a tick; they are published once tickMu
	// is released so that subscribers may read the driver
	outbox []domain.Event

	pending  atomic.Pointer[domain.Viewport]
	viewport domain.Viewport
	drawVP   domain.Viewport

	scratch  []byte
	cache    *spectrum.BandCache
	smoother *spectrum.Smoother
	field    *particle.Field

	frames  atomic.Uint64
	resizes atomic.Uint64
}

// NewFrameDriver creates an idle driver for the given profile and initial viewport.
// rng drives the particle field and may be seeded for deterministic tests.
func NewFrameDriver(
	logger *slog.Logger,
	source ports.FrequencySource,
	target ports.RenderTarget,
	bus ports.EventBus,
	profile domain.Profile,
	vp domain.Viewport,
	rng *rand.Rand,
) (*FrameDriver, error) {
	if err := profile.Validate(); err != nil {
		return nil, domain.NewServiceError("FrameDriver", "new", "invalid profile", err)
	}
	if rng == nil {
		// nolint:gosec // G404: visual jitter, not security sensitive
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	d := &FrameDriver{
		logger:   logger.With(slog.String("component", "frame_driver")),
		source:   source,
		target:   target,
		bus:      bus,
		profile:  profile,
		cache:    spectrum.NewBandCache(profile.BarCount),
		smoother: spectrum.NewSmoother(profile.BarCount, profile.SmoothingFactor),
		field:    particle.NewField(profile.ParticleCount, rng),
	}
	d.setViewport(vp)
	d.logger.Debug("frame driver created",
		slog.String("target", target.Name()),
		slog.Int("bars", profile.BarCount),
		slog.Int("particles", profile.ParticleCount))
	return d, nil
}

// Resize records a new viewport. Several calls between two ticks coalesce into one.
func (d *FrameDriver) Resize(vp domain.Viewport) {
	d.pending.Store(&vp)
}

// Tick runs one frame.
//
// It returns an error only when the render context is lost; the driver then stays
// in DriverLost and later ticks do nothing. Other render errors are logged and the
// frame is dropped.
func (d *FrameDriver) Tick() error {
	d.tickMu.Lock()
	err := d.tick()
	events := d.outbox
	d.outbox = nil
	d.tickMu.Unlock()

	for _, event := range events {
		d.publish(event)
	}
	return err
}

func (d *FrameDriver) tick() error {
	switch d.State() {
	case DriverLost, DriverClosed:
		return nil
	}

	reset := false
	if vp := d.pending.Swap(nil); vp != nil {
		d.applyViewport(*vp)
		reset = true
	}

	n := d.source.FrequencyBinCount()
	if n <= 0 {
		return nil
	}
	if d.State() == DriverIdle {
		d.state.Store(int32(DriverActive))
		d.logger.Debug("session attached", slog.Int("bins", n))
		d.queue(domain.NewSessionAttachedEvent(n))
	}

	if len(d.scratch) != n {
		d.scratch = make([]byte, n)
	}
	buf := d.scratch[:d.source.ByteFrequencyData(d.scratch)]
	if len(buf) == 0 {
		return nil
	}

	ranges := d.cache.Ranges(len(buf), d.drawVP)
	d.smoother.Update(buf, ranges)

	// particles placed by a resize this tick are drawn where they were placed
	if !reset {
		d.field.Step(spectrum.Bass(buf))
	}

	if d.viewport.Degenerate() {
		return nil
	}
	if err := d.draw(); err != nil {
		return d.handleRenderError(err)
	}
	d.frames.Add(1)
	return nil
}

func (d *FrameDriver) draw() error {
	if err := d.target.Clear(); err != nil {
		return err
	}
	if err := d.target.DrawBars(d.smoother.Heights(), d.drawVP); err != nil {
		return err
	}
	f := d.field
	if err := d.target.DrawParticles(f.X, f.Y, f.Size, f.Opacity, d.drawVP); err != nil {
		return err
	}
	return d.target.Present()
}

func (d *FrameDriver) handleRenderError(err error) error {
	if !errors.Is(err, domain.ErrRenderContextLost) {
		d.logger.Warn("frame dropped", slog.Any("error", err))
		return nil
	}

	d.state.Store(int32(DriverLost))
	d.err = err
	d.logger.Error("render context lost", slog.Any("error", err))
	d.queue(domain.NewRenderContextLostEvent(err))
	return err
}

// applyViewport installs a viewport and everything derived from it in one step.
func (d *FrameDriver) applyViewport(vp domain.Viewport) {
	d.setViewport(vp)
	d.cache.Invalidate()
	d.resizes.Add(1)
	d.logger.Debug("viewport applied",
		slog.Float64("width", float64(vp.Width)),
		slog.Float64("height", float64(vp.Height)),
		slog.Float64("scale", float64(d.drawVP.Scale)))
	d.queue(domain.NewViewportResizedEvent(d.drawVP))
}

func (d *FrameDriver) setViewport(vp domain.Viewport) {
	d.viewport = vp
	d.drawVP = vp.Clamped(d.profile.MaxDensityScale)
	d.field.Reset(d.drawVP.Width, d.drawVP.Height, d.drawVP.Scale)
}

func (d *FrameDriver) queue(event domain.Event) {
	d.outbox = append(d.outbox, event)
}

func (d *FrameDriver) publish(event domain.Event) {
	if d.bus != nil && d.bus.HasSubscribers(event.Type()) {
		d.bus.Publish(event)
	}
}

// Close releases the render target. Only the first call has an effect.
func (d *FrameDriver) Close() error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	if d.State() == DriverClosed {
		return nil
	}
	d.state.Store(int32(DriverClosed))
	if err := d.target.Release(); err != nil {
		return domain.NewServiceError("FrameDriver", "close", "failed to release render target", err)
	}
	d.logger.Debug("frame driver closed", slog.Uint64("frames", d.frames.Load()))
	return nil
}

// State returns the current lifecycle state.
func (d *FrameDriver) State() DriverState {
	return DriverState(d.state.Load())
}

// Err returns the render error that moved the driver to DriverLost, if any.
func (d *FrameDriver) Err() error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return d.err
}

// Viewport returns the viewport used for drawing, after clamping.
func (d *FrameDriver) Viewport() domain.Viewport {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return d.drawVP
}

// Frames returns the number of frames drawn.
func (d *FrameDriver) Frames() uint64 {
	return d.frames.Load()
}

// ResizesApplied returns how many pending viewports were applied.
func (d *FrameDriver) ResizesApplied() uint64 {
	return d.resizes.Load()
}

// Invalidations returns how many times the band range cache was discarded.
func (d *FrameDriver) Invalidations() uint64 {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return d.cache.Invalidations()
}

// Heights returns a copy of the current normalised bar heights.
func (d *FrameDriver) Heights() []float32 {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return append([]float32(nil), d.smoother.Heights()...)
}

// Particles returns a copy of the particle positions.
func (d *FrameDriver) Particles() (xs, ys []float32) {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return append([]float32(nil), d.field.X...), append([]float32(nil), d.field.Y...)
}
