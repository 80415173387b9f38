// Package renderer draws sampled point buffers as alpha-blended brush strokes.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/stipple/internal/engine/renderer/shaders"
	"github.com/Faultbox/stipple/internal/engine/shader"
	"github.com/Faultbox/stipple/internal/logger"
	"github.com/Faultbox/stipple/internal/pipeline"
	"github.com/Faultbox/stipple/internal/sampler"
)

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	BrushSize float32
	Brushes   int
	LightDir  mgl32.Vec3 // Direction light travels, see lighting.LightDirection
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	program uint32

	locModel      int32
	locViewProj   int32
	locBrushSize  int32
	locLightDir   int32
	locBrushCount int32

	buffers []*pointBuffer
	uploads uint64
}

// pointBuffer is the GPU copy of one pipeline.Buffer.
type pointBuffer struct {
	id       uuid.UUID
	vao      uint32
	vbo      uint32
	count    int32
	capacity int // Points the VBO can hold without reallocation
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	// Strokes arrive depth-sorted, so blending replaces the depth test.
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.Link(
		shader.Vertex(shaders.PointVertexShader),
		shader.Geometry(shaders.PointGeometryShader),
		shader.Fragment(shaders.PointFragmentShader),
	)
	if err != nil {
		return nil, fmt.Errorf("point shader: %w", err)
	}

	r.locModel = shader.GetUniform(r.program, "uModel")
	r.locViewProj = shader.GetUniform(r.program, "uViewProj")
	r.locBrushSize = shader.GetUniform(r.program, "uBrushSize")
	r.locLightDir = shader.GetUniform(r.program, "uLightDir")
	r.locBrushCount = shader.GetUniform(r.program, "uBrushCount")

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Uint64("uploads", r.uploads))
	for _, b := range r.buffers {
		b.release()
	}
	r.buffers = nil
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles framebuffer size changes.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// SetBrushSize changes the stroke half-extent.
func (r *Renderer) SetBrushSize(size float32) {
	r.config.BrushSize = size
}

// SetBrushes changes the number of brush variants the shader distinguishes.
func (r *Renderer) SetBrushes(n int) {
	r.config.Brushes = n
}

// SetLightDir changes the direction light travels.
func (r *Renderer) SetLightDir(dir mgl32.Vec3) {
	r.config.LightDir = dir
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// Upload replaces the GPU point buffers with set, reusing VBO storage when the
// buffer at the same position has the same ID and enough capacity.
func (r *Renderer) Upload(set pipeline.BufferSet) {
	for len(r.buffers) > len(set) {
		last := r.buffers[len(r.buffers)-1]
		last.release()
		r.buffers = r.buffers[:len(r.buffers)-1]
	}
	for len(r.buffers) < len(set) {
		r.buffers = append(r.buffers, newPointBuffer())
	}

	for i, b := range set {
		r.buffers[i].upload(b)
	}
	r.uploads++
}

// Draw renders every uploaded buffer with the given pose.
func (r *Renderer) Draw(pose pipeline.Pose) {
	viewProj := pose.Projection.Mul4(pose.View)

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locModel, 1, false, &pose.Model[0])
	gl.UniformMatrix4fv(r.locViewProj, 1, false, &viewProj[0])
	gl.Uniform1f(r.locBrushSize, r.config.BrushSize)
	gl.Uniform3fv(r.locLightDir, 1, &r.config.LightDir[0])
	gl.Uniform1i(r.locBrushCount, int32(r.config.Brushes))

	for _, b := range r.buffers {
		if b.count == 0 {
			continue
		}
		gl.BindVertexArray(b.vao)
		gl.DrawArrays(gl.POINTS, 0, b.count)
	}
	gl.BindVertexArray(0)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.UseProgram(0)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows. Call it after Draw
// and before the buffers are swapped.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels, width, height
}

func newPointBuffer() *pointBuffer {
	b := &pointBuffer{}
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)

	var p sampler.SurfacePoint
	stride := int32(unsafe.Sizeof(p))
	floatAttr := func(loc uint32, size int32, offset uintptr) {
		gl.VertexAttribPointerWithOffset(loc, size, gl.FLOAT, false, stride, offset)
		gl.EnableVertexAttribArray(loc)
	}
	floatAttr(0, 3, unsafe.Offsetof(p.Position))
	floatAttr(1, 3, unsafe.Offsetof(p.Normal))
	floatAttr(2, 3, unsafe.Offsetof(p.Tangent))
	floatAttr(3, 3, unsafe.Offsetof(p.Bitangent))
	floatAttr(4, 2, unsafe.Offsetof(p.UV))
	gl.VertexAttribIPointer(5, 1, gl.INT, stride, gl.PtrOffset(int(unsafe.Offsetof(p.Brush))))
	gl.EnableVertexAttribArray(5)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return b
}

func (b *pointBuffer) upload(src pipeline.Buffer) {
	n := len(src.Points)
	b.count = int32(n)
	if n == 0 {
		return
	}

	size := n * int(unsafe.Sizeof(src.Points[0]))
	ptr := unsafe.Pointer(&src.Points[0])

	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if b.id == src.ID && n <= b.capacity {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, ptr)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, size, ptr, gl.STREAM_DRAW)
		b.capacity = n
		b.id = src.ID
		logger.Debug("point buffer allocated",
			zap.String("name", src.Name),
			zap.Stringer("id", src.ID),
			zap.Int("points", n),
		)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (b *pointBuffer) release() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
}
