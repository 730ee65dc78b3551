//go:build opengl

package compute

import (
	"fmt"
	"image"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/san-kum/doodle/internal/shader"
)

const workGroupSize = 16

// OpenGLBackend runs the pattern as a compute shader on a hidden GL 4.3
// context. All GL calls happen on one locked OS thread.
type OpenGLBackend struct {
	jobs    chan glJob
	done    chan struct{}
	initErr error
	name    string
}

type glJob struct {
	dst  *image.RGBA
	prog *shader.Program
	u    shader.Uniforms
	errc chan error
}

type glState struct {
	window  *glfw.Window
	program uint32
	texture uint32
	texW    int
	texH    int
}

func NewOpenGLBackend() *OpenGLBackend {
	g := &OpenGLBackend{
		jobs: make(chan glJob),
		done: make(chan struct{}),
	}
	ready := make(chan error, 1)
	go g.run(ready)
	g.initErr = <-ready
	return g
}

func (g *OpenGLBackend) Name() string {
	if g.initErr != nil {
		return "opengl (not available)"
	}
	return "opengl (" + g.name + ")"
}

func (g *OpenGLBackend) Available() bool { return g.initErr == nil }

func (g *OpenGLBackend) Cleanup() {
	if g.initErr != nil {
		return
	}
	select {
	case <-g.done:
	default:
		close(g.jobs)
		<-g.done
	}
}

func (g *OpenGLBackend) Shade(dst *image.RGBA, prog *shader.Program, u shader.Uniforms) error {
	if g.initErr != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, g.initErr)
	}
	if err := checkBounds(dst, u); err != nil {
		return err
	}
	if dst.Stride != u.Resolution.Width*4 {
		return fmt.Errorf("%w: stride %d", ErrBounds, dst.Stride)
	}
	errc := make(chan error, 1)
	g.jobs <- glJob{dst: dst, prog: prog, u: u, errc: errc}
	return <-errc
}

func (g *OpenGLBackend) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(g.done)

	st, err := initGL()
	if err != nil {
		ready <- err
		return
	}
	g.name = gl.GoStr(gl.GetString(gl.RENDERER))
	ready <- nil

	for job := range g.jobs {
		job.errc <- st.dispatch(job)
	}
	st.release()
}

func initGL() (*glState, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to init glfw: %v", err)
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(1, 1, "doodle", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create gl context: %v", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to init opengl: %v", err)
	}

	program, err := createComputeProgram(computeSource)
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}
	return &glState{window: window, program: program}, nil
}

func (s *glState) dispatch(job glJob) error {
	w, h := job.u.Resolution.Width, job.u.Resolution.Height
	if w != s.texW || h != s.texH {
		if s.texture != 0 {
			gl.DeleteTextures(1, &s.texture)
		}
		gl.GenTextures(1, &s.texture)
		gl.BindTexture(gl.TEXTURE_2D, s.texture)
		gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.RGBA8, int32(w), int32(h))
		s.texW, s.texH = w, h
	}

	gl.UseProgram(s.program)
	s.uniform1f("time", float32(job.u.Time))
	s.uniform1f("bands", float32(job.prog.Bands))
	s.uniform1f("ringFrequency", float32(job.prog.RingFrequency))
	s.uniform1f("ringThreshold", float32(job.prog.RingThreshold))
	s.uniform1f("ringOffset", float32(job.prog.RingOffset))
	gl.Uniform2f(s.location("resolution"), float32(w), float32(h))
	p := job.u.Palette
	gl.Uniform3f(s.location("c"), float32(p.X), float32(p.Y), float32(p.Z))

	gl.BindImageTexture(0, s.texture, 0, false, 0, gl.WRITE_ONLY, gl.RGBA8)
	gx := (w + workGroupSize - 1) / workGroupSize
	gy := (h + workGroupSize - 1) / workGroupSize
	gl.DispatchCompute(uint32(gx), uint32(gy), 1)
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT)

	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(job.dst.Pix))

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl dispatch failed: error 0x%x", code)
	}
	return nil
}

func (s *glState) location(name string) int32 {
	return gl.GetUniformLocation(s.program, gl.Str(name+"\x00"))
}

func (s *glState) uniform1f(name string, v float32) {
	gl.Uniform1f(s.location(name), v)
}

func (s *glState) release() {
	if s.texture != 0 {
		gl.DeleteTextures(1, &s.texture)
	}
	gl.DeleteProgram(s.program)
	s.window.Destroy()
	glfw.Terminate()
}

func createComputeProgram(source string) (uint32, error) {
	cs := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(cs, 1, csources, nil)
	free()
	gl.CompileShader(cs)

	var status int32
	gl.GetShaderiv(cs, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(cs, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(cs, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to compile compute shader: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, cs)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return 0, fmt.Errorf("failed to link program")
	}

	gl.DeleteShader(cs)
	return program, nil
}

const computeSource = `#version 430
layout(local_size_x = 16, local_size_y = 16) in;
layout(rgba8, binding = 0) writeonly uniform image2D dst;

uniform vec2 resolution;
uniform float time;
uniform vec3 c;
uniform float bands;
uniform float ringFrequency;
uniform float ringThreshold;
uniform float ringOffset;

float hash(float n) { return fract(sin(n) * 1e4); }
float hash(vec2 p) { return fract(1e4 * sin(17.0 * p.x + p.y * 0.1) * (0.1 + abs(sin(p.y * 13.0 + p.x)))); }

float noise(vec2 x) {
	vec2 i = floor(x);
	vec2 f = fract(x);
	float a = hash(i);
	float b = hash(i + vec2(1.0, 0.0));
	float c = hash(i + vec2(0.0, 1.0));
	float d = hash(i + vec2(1.0, 1.0));
	vec2 u = f * f * (3.0 - 2.0 * f);
	return mix(a, b, u.x) + (c - a) * u.y * (1.0 - u.x) + (d - b) * u.x * u.y;
}

float fbm(vec2 x) {
	float a = 0.0;
	float b = 0.5;
	for (int i = 0; i < 9; i++) {
		a += b * noise(x);
		b *= 0.55;
		x = 2.0 * x;
	}
	return a;
}

vec3 pal(float t) {
	return vec3(0.5) + vec3(0.5) * cos(6.28318530718 * (vec3(1.0) * t + c));
}

float pattern(vec2 p) {
	vec2 q = vec2(fbm(0.2 * p + 0.0001 * time), fbm(0.3 * p + vec2(2.08, 1.23) + 0.0001 * time));
	return fbm(0.2 * p + 3.0 * q + 0.03 * time);
}

vec2 disp(vec2 p) {
	return 0.2 * (0.5 - vec2(fbm(0.471 * p + 0.031 * time), fbm(0.74 * p - 0.047 * time)));
}

void main() {
	ivec2 px = ivec2(gl_GlobalInvocationID.xy);
	if (px.x >= int(resolution.x) || px.y >= int(resolution.y)) {
		return;
	}
	vec2 uv = vec2((float(px.x) + 0.5) / resolution.x, 1.0 - (float(px.y) + 0.5) / resolution.y);
	vec2 ratio = resolution / min(resolution.x, resolution.y);
	vec2 p = (uv - 0.5) * ratio;
	p += disp(p);
	float l = max(abs(p.x), abs(p.y));
	float v = pattern(p);
	float value = (1.0 + floor(v * bands)) / (bands + 1.0);
	float ring = ringOffset * step(ringThreshold, fract(ringFrequency * l - time));
	imageStore(dst, px, vec4(pal(-0.3 + 1.2 * value - ring), 1.0));
}
`
