package gpu

import (
	"fmt"

	"github.com/tejashwikalptaru/govis/internal/render"
)

// barVertexShader draws every bar of both sides from one instanced call.
// The instance id picks the band (id % u_count) and the side (id / u_count); the
// quad corners come from gl_VertexID. Heights are packed four to a vec4 so the
// array costs the same on drivers that pad every element to a full slot.
// Keep in sync with render.InstanceVertex.
const barVertexShader = `#version 330 core
const int N = %d;
const int SLOTS = %d;
const float BAR_WIDTH_RATIO = %g;
const float HEIGHT_RATIO = %g;

uniform vec4 u_barHeights[SLOTS];
uniform int u_count;
uniform vec2 u_resolution;
uniform mat4 u_projection;

out float v_screenY;

const vec2 corners[6] = vec2[6](
	vec2(0.0, 0.0), vec2(1.0, 0.0), vec2(0.0, 1.0),
	vec2(0.0, 1.0), vec2(1.0, 0.0), vec2(1.0, 1.0)
);

void main() {
	int idx = gl_InstanceID %% u_count;
	int side = gl_InstanceID / u_count;

	float cx = u_resolution.x * 0.5;
	float unit = cx / float(N);
	float barW = unit * BAR_WIDTH_RATIO;
	float gap = unit - barW;
	float offset = float(idx) * unit;
	float x = side == 0 ? cx + offset + gap * 0.5 : cx - offset - barW - gap * 0.5;
	float h = u_barHeights[idx / 4][idx %% 4] * u_resolution.y * HEIGHT_RATIO;

	vec2 c = corners[gl_VertexID %% 6];
	vec2 pos = vec2(x + c.x * barW, u_resolution.y - c.y * h);

	v_screenY = pos.y / u_resolution.y;
	gl_Position = u_projection * vec4(pos, 0.0, 1.0);
}
` + "\x00"

// barFragmentShader applies the three-stop vertical gradient.
const barFragmentShader = `#version 330 core
uniform vec4 u_colors[3];
uniform float u_mid;

in float v_screenY;
out vec4 fragColor;

void main() {
	float t = clamp(v_screenY, 0.0, 1.0);
	if (t <= u_mid) {
		fragColor = mix(u_colors[0], u_colors[1], t / u_mid);
	} else {
		fragColor = mix(u_colors[1], u_colors[2], (t - u_mid) / (1.0 - u_mid));
	}
}
` + "\x00"

const particleVertexShader = `#version 330 core
layout(location = 0) in vec2 a_position;
layout(location = 1) in float a_size;
layout(location = 2) in float a_opacity;

uniform mat4 u_projection;

out float v_opacity;

void main() {
	v_opacity = a_opacity;
	gl_PointSize = a_size;
	gl_Position = u_projection * vec4(a_position, 0.0, 1.0);
}
` + "\x00"

const particleFragmentShader = `#version 330 core
in float v_opacity;
out vec4 fragColor;

void main() {
	fragColor = vec4(1.0, 1.0, 1.0, v_opacity);
}
` + "\x00"

// BarVertexShader returns the bar vertex shader specialised for barCount bands.
func BarVertexShader(barCount int) string {
	return fmt.Sprintf(barVertexShader, barCount, HeightSlots(barCount), render.BarWidthRatio, render.HeightRatio)
}

// HeightSlots is the number of vec4 elements holding barCount heights.
func HeightSlots(barCount int) int {
	return (barCount + 3) / 4
}

// RequiredUniformComponents is the vertex uniform budget needed for barCount bands,
// counting every uniform at vec4 granularity: the packed heights, the bar count,
// the resolution and the projection matrix.
func RequiredUniformComponents(barCount int) int {
	return HeightSlots(barCount)*4 + 4 + 4 + 16
}

// PackHeights copies heights into dst padded with zeros to a whole number of
// vec4 slots and returns the resliced buffer.
func PackHeights(dst, heights []float32) []float32 {
	need := HeightSlots(len(heights)) * 4
	if cap(dst) < need {
		dst = make([]float32, need)
	}
	dst = dst[:need]
	n := copy(dst, heights)
	clear(dst[n:])
	return dst
}
