// Package gpu implements the GPU-instanced render target on OpenGL 3.3 core.
//
// Bars are drawn with one instanced call per frame reading the heights from a
// uniform array; particles are streamed into one interleaved vertex buffer and
// drawn as point sprites. All methods must run on the goroutine that owns the
// current GL context.
package gpu

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/render"
)

// Name is the strategy name reported by the target.
const Name = string(domain.StrategyInstanced)

// glContextLost is GL_CONTEXT_LOST, which the 3.3 core headers do not define.
const glContextLost = 0x0507

// floatsPerParticle is the interleaved layout [x, y, size, opacity].
const floatsPerParticle = 4

// Capabilities describes the GL context found by Probe.
type Capabilities struct {
	Version                    string
	Renderer                   string
	MaxVertexUniformComponents int
}

// Probe loads the GL function pointers for the current context and checks that
// barCount heights fit into the vertex uniform budget.
func Probe(barCount int) (Capabilities, error) {
	if err := gl.Init(); err != nil {
		return Capabilities{}, domain.NewRenderError(Name, "init", 0,
			fmt.Errorf("%w: %w", domain.ErrRenderUnavailable, err))
	}

	var maxComponents int32
	gl.GetIntegerv(gl.MAX_VERTEX_UNIFORM_COMPONENTS, &maxComponents)
	caps := Capabilities{
		Version:                    gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer:                   gl.GoStr(gl.GetString(gl.RENDERER)),
		MaxVertexUniformComponents: int(maxComponents),
	}

	if need := RequiredUniformComponents(barCount); caps.MaxVertexUniformComponents < need {
		return caps, domain.NewRenderError(Name, "probe", 0,
			fmt.Errorf("%w: %d vertex uniform components available, %d needed",
				domain.ErrRenderUnavailable, caps.MaxVertexUniformComponents, need))
	}
	return caps, nil
}

// Target is the GPU-instanced render target.
type Target struct {
	logger   *slog.Logger
	barCount int

	framebufferSize func() (int, int)
	swap            func()

	bars      program
	uHeights  int32
	uCount    int32
	uRes      int32
	uBarProj  int32
	uColors   int32
	uMid      int32
	particles program
	uPartProj int32

	barVAO      uint32
	particleVAO uint32
	particleVBO uint32

	heightData   []float32
	particleData []float32
	vboCapacity  int

	viewport domain.Viewport
	fbWidth  int
	fbHeight int

	released bool
}

// NewTarget compiles the shaders and allocates the buffers for barCount bands.
//
// framebufferSize reports the drawable size in physical pixels; swap presents the
// back buffer. Both are provided by the host that owns the context.
func NewTarget(logger *slog.Logger, barCount int, framebufferSize func() (int, int), swap func()) (*Target, error) {
	t := &Target{
		logger:          logger.With(slog.String("component", "gpu_target")),
		barCount:        barCount,
		framebufferSize: framebufferSize,
		swap:            swap,
	}

	var err error
	if t.bars, err = createProgram(BarVertexShader(barCount), barFragmentShader); err != nil {
		return nil, domain.NewRenderError(Name, "compile_bars", 0, fmt.Errorf("%w: %w", domain.ErrRenderUnavailable, err))
	}
	if t.particles, err = createProgram(particleVertexShader, particleFragmentShader); err != nil {
		t.bars.delete()
		return nil, domain.NewRenderError(Name, "compile_particles", 0, fmt.Errorf("%w: %w", domain.ErrRenderUnavailable, err))
	}

	t.uHeights = t.bars.uniform("u_barHeights")
	t.uCount = t.bars.uniform("u_count")
	t.uRes = t.bars.uniform("u_resolution")
	t.uBarProj = t.bars.uniform("u_projection")
	t.uColors = t.bars.uniform("u_colors")
	t.uMid = t.bars.uniform("u_mid")
	t.uPartProj = t.particles.uniform("u_projection")

	// the bar quads are generated from gl_VertexID, but core profile still needs a bound VAO
	gl.GenVertexArrays(1, &t.barVAO)

	gl.GenVertexArrays(1, &t.particleVAO)
	gl.GenBuffers(1, &t.particleVBO)
	gl.BindVertexArray(t.particleVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, t.particleVBO)
	stride := int32(floatsPerParticle * 4)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 1, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 1, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)

	t.bars.use()
	colors := make([]float32, 0, 12)
	for _, stop := range render.BarGradient {
		c := render.GradientFloat(stop.Pos)
		colors = append(colors, c[:]...)
	}
	gl.Uniform4fv(t.uColors, 3, &colors[0])
	gl.Uniform1f(t.uMid, render.BarGradient[1].Pos)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	if err := t.checkError("setup"); err != nil {
		_ = t.Release()
		return nil, err
	}
	t.logger.Debug("gpu target ready", slog.Int("bars", barCount))
	return t, nil
}

// Name returns the strategy name.
func (t *Target) Name() string {
	return Name
}

// Clear fills the framebuffer with the background colour.
func (t *Target) Clear() error {
	if t.released {
		return domain.NewRenderError(Name, "clear", 0, domain.ErrTargetReleased)
	}
	bg := render.Background
	gl.ClearColor(float32(bg.R)/255, float32(bg.G)/255, float32(bg.B)/255, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

// DrawBars uploads the heights and draws both sides of every bar in one instanced call.
// Only the uploaded bands are drawn when fewer heights than bars are given.
func (t *Target) DrawBars(heights []float32, vp domain.Viewport) error {
	if t.released {
		return domain.NewRenderError(Name, "draw_bars", 0, domain.ErrTargetReleased)
	}
	t.syncViewport(vp)

	n := BarInstances(len(heights), t.barCount) / 2
	if n == 0 {
		return nil
	}
	t.heightData = PackHeights(t.heightData, heights[:n])

	proj := Projection(vp)
	t.bars.use()
	gl.Uniform4fv(t.uHeights, int32(len(t.heightData)/4), &t.heightData[0])
	gl.Uniform1i(t.uCount, int32(n))
	gl.Uniform2f(t.uRes, vp.Width, vp.Height)
	gl.UniformMatrix4fv(t.uBarProj, 1, false, &proj[0])
	gl.BindVertexArray(t.barVAO)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, 6, int32(BarInstances(n, t.barCount)))
	gl.BindVertexArray(0)
	return nil
}

// DrawParticles streams the particle state into the vertex buffer and draws it as points.
func (t *Target) DrawParticles(xs, ys, sizes, opacities []float32, vp domain.Viewport) error {
	if t.released {
		return domain.NewRenderError(Name, "draw_particles", 0, domain.ErrTargetReleased)
	}
	t.syncViewport(vp)

	t.particleData = PackParticles(t.particleData, xs, ys, sizes, opacities)
	count := len(t.particleData) / floatsPerParticle
	if count == 0 {
		return nil
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, t.particleVBO)
	size := len(t.particleData) * 4
	if size > t.vboCapacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(t.particleData), gl.DYNAMIC_DRAW)
		t.vboCapacity = size
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(t.particleData))
	}

	proj := Projection(vp)
	t.particles.use()
	gl.UniformMatrix4fv(t.uPartProj, 1, false, &proj[0])
	gl.BindVertexArray(t.particleVAO)
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.BindVertexArray(0)
	return nil
}

// Present checks the context for errors and swaps the buffers.
func (t *Target) Present() error {
	if t.released {
		return domain.NewRenderError(Name, "present", 0, domain.ErrTargetReleased)
	}
	if err := t.checkError("present"); err != nil {
		return err
	}
	if t.swap != nil {
		t.swap()
	}
	return nil
}

// Release deletes the programs, vertex arrays and buffers. Later calls are no-ops.
func (t *Target) Release() error {
	if t.released {
		return nil
	}
	t.released = true

	t.bars.delete()
	t.particles.delete()
	if t.particleVBO != 0 {
		gl.DeleteBuffers(1, &t.particleVBO)
	}
	if t.particleVAO != 0 {
		gl.DeleteVertexArrays(1, &t.particleVAO)
	}
	if t.barVAO != 0 {
		gl.DeleteVertexArrays(1, &t.barVAO)
	}
	t.logger.Debug("gpu target released")
	return nil
}

// syncViewport resizes the GL viewport when the drawable size changes.
func (t *Target) syncViewport(vp domain.Viewport) {
	w, h := vp.PhysicalSize()
	if t.framebufferSize != nil {
		w, h = t.framebufferSize()
	}
	if vp == t.viewport && w == t.fbWidth && h == t.fbHeight {
		return
	}
	t.viewport, t.fbWidth, t.fbHeight = vp, w, h
	gl.Viewport(0, 0, int32(w), int32(h))
}

// checkError drains the GL error queue and classifies the first error found.
func (t *Target) checkError(op string) error {
	var first uint32
	for i := 0; i < 8; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first == 0 {
		return nil
	}
	err := ClassifyError(first)
	t.logger.Warn("gl error", slog.String("op", op), slog.String("code", fmt.Sprintf("0x%04x", first)))
	return domain.NewRenderError(Name, op, first, err)
}

// ClassifyError maps a GL error code to a domain error. Context loss and
// out-of-memory are unrecoverable.
func ClassifyError(code uint32) error {
	switch code {
	case gl.NO_ERROR:
		return nil
	case glContextLost, gl.OUT_OF_MEMORY:
		return domain.ErrRenderContextLost
	default:
		return fmt.Errorf("gl error 0x%04x", code)
	}
}

// BarInstances is the instance count for one bar draw: both sides of every band
// that has a height, up to barCount bands.
func BarInstances(heights, barCount int) int {
	return 2 * max(min(heights, barCount), 0)
}

// Projection maps logical units (origin top-left, y down) to clip space.
func Projection(vp domain.Viewport) mgl32.Mat4 {
	return mgl32.Ortho2D(0, vp.Width, vp.Height, 0)
}

// PackParticles interleaves the particle arrays into dst as [x, y, size, opacity]
// and returns the resliced buffer.
func PackParticles(dst []float32, xs, ys, sizes, opacities []float32) []float32 {
	n := min(len(xs), len(ys), len(sizes), len(opacities))
	need := n * floatsPerParticle
	if cap(dst) < need {
		dst = make([]float32, need)
	}
	dst = dst[:need]
	for i := 0; i < n; i++ {
		o := i * floatsPerParticle
		dst[o] = xs[i]
		dst[o+1] = ys[i]
		dst[o+2] = sizes[i]
		dst[o+3] = opacities[i]
	}
	return dst
}

var _ ports.RenderTarget = (*Target)(nil)
