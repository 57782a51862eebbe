package glfw

import (
	"testing"

	glfwlib "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

type recordingInput struct {
	toggles int
	seeks   []float64
	volumes []float64
	opened  []string
}

func (r *recordingInput) OnTogglePlayback() { r.toggles++ }
func (r *recordingInput) OnSeek(seconds float64) { r.seeks = append(r.seeks, seconds) }
func (r *recordingInput) OnVolume(delta float64) { r.volumes = append(r.volumes, delta) }
func (r *recordingInput) OnOpenFile(path string) { r.opened = append(r.opened, path) }

func TestViewportFrom(t *testing.T) {
	tests := []struct {
		name          string
		fbW, fbH      int
		scale         float32
		width, height float32
		wantScale     float32
	}{
		{"standard density", 800, 600, 1, 800, 600, 1},
		{"retina", 1600, 1200, 2, 800, 600, 2},
		{"fractional", 1500, 900, 1.5, 1000, 600, 1.5},
		{"unknown scale", 640, 480, 0, 640, 480, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := viewportFrom(tt.fbW, tt.fbH, tt.scale)
			assert.InDelta(t, tt.width, vp.Width, 1e-3)
			assert.InDelta(t, tt.height, vp.Height, 1e-3)
			assert.Equal(t, tt.wantScale, vp.Scale)
		})
	}
}

func TestDispatchKey(t *testing.T) {
	input := &recordingInput{}

	dispatchKey(input, glfwlib.KeySpace, glfwlib.Press)
	dispatchKey(input, glfwlib.KeySpace, glfwlib.Repeat)
	dispatchKey(input, glfwlib.KeySpace, glfwlib.Release)
	dispatchKey(input, glfwlib.KeyRight, glfwlib.Press)
	dispatchKey(input, glfwlib.KeyRight, glfwlib.Repeat)
	dispatchKey(input, glfwlib.KeyLeft, glfwlib.Press)
	dispatchKey(input, glfwlib.KeyUp, glfwlib.Press)
	dispatchKey(input, glfwlib.KeyDown, glfwlib.Press)
	dispatchKey(input, glfwlib.KeyDown, glfwlib.Release)
	dispatchKey(input, glfwlib.KeyA, glfwlib.Press)

	assert.Equal(t, 1, input.toggles, "held space toggles once")
	assert.Equal(t, []float64{SeekStepSeconds, SeekStepSeconds, -SeekStepSeconds}, input.seeks)
	assert.Equal(t, []float64{VolumeStep, -VolumeStep}, input.volumes)

	assert.NotPanics(t, func() { dispatchKey(nil, glfwlib.KeySpace, glfwlib.Press) })
}

func TestDispatchDrop(t *testing.T) {
	input := &recordingInput{}

	dispatchDrop(input, []string{"/music/a.flac", "/music/b.flac"})
	dispatchDrop(input, nil)

	assert.Equal(t, []string{"/music/a.flac"}, input.opened)
}

func TestWindowTitle(t *testing.T) {
	assert.Equal(t, "govis", windowTitle("", ""))
	assert.Equal(t, "govis", windowTitle(APPNAME, ""))
	assert.Equal(t, "govis - Artist - Song", windowTitle("Artist - Song", ""))
	assert.Equal(t, "govis - Song [No track loaded: Press O]", windowTitle("Song", "No track loaded: Press O"))
}

func TestAfterTickPresentsIdleFrameOnce(t *testing.T) {
	h := &Host{}
	var idle int
	h.SetIdleFrame(func() {
		idle++
		h.presented = true
	})

	for i := 0; i < 3; i++ {
		h.presented = false
		h.afterTick()
	}
	assert.Equal(t, 1, idle, "idle refreshes clear the window once")

	h.blanked = false // as after a resize
	h.presented = false
	h.afterTick()
	assert.Equal(t, 2, idle)

	// a drawn frame ends the idle stretch
	h.presented = true
	h.afterTick()
	h.presented = false
	h.afterTick()
	assert.Equal(t, 3, idle)
}

func TestAfterTickWithoutIdleFrame(t *testing.T) {
	h := &Host{}
	assert.NotPanics(t, h.afterTick)
	assert.False(t, h.blanked)
}

func TestSupportsInstancingFollowsProbe(t *testing.T) {
	h := &Host{}
	assert.False(t, h.SupportsInstancing())
	h.SetInstancing(true)
	assert.True(t, h.SupportsInstancing())
}
