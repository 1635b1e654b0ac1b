// Package render is a CPU software rasterizer. A Renderer draws shaded,
// depth-tested, optionally multisampled triangles into a color and depth
// buffer owned by the caller.
//
// A frame is a sequence of state setters and DrawTriangles calls followed
// by one Finish, after which the color buffer is ready to present. A
// Renderer is not safe for concurrent use; calls must be strictly ordered
// and the host must not read the buffers while a draw is in flight.
package render

import (
	"fmt"

	"github.com/taigrr/softrast/pkg/math3d"
)

// Stats counts pipeline events since the last ResetStats.
type Stats struct {
	Triangles  int // triangles submitted
	Rejected   int // trivially outside the frustum
	Clipped    int // needed clipping (including those clipped away)
	Culled     int // discarded by face culling
	Degenerate int // zero-area fan triangles skipped
	Fragments  int // fragments shaded
}

// Renderer is one rasterization pipeline bound to a pair of buffers.
type Renderer struct {
	color  []Color
	depth  []float64
	width  int
	height int

	// Per-sample MSAA storage, samplesPerPixel entries per pixel.
	samples     []Color
	sampleDepth []float64
	msaaDirty   bool

	scratch []Color

	uniform  Uniform
	viewport Viewport
	stats    Stats
	closed   bool
}

// New creates a Renderer drawing into color and depth, both row-major with
// width*height entries. The buffers stay owned by the caller and must
// outlive the Renderer; the Renderer only allocates its MSAA storage.
func New(color []Color, depth []float64, width, height int) (*Renderer, error) {
	if color == nil || depth == nil {
		return nil, fmt.Errorf("new renderer: %w", ErrNilBuffer)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new renderer %dx%d: %w", width, height, ErrBufferSize)
	}
	if n := width * height; len(color) < n || len(depth) < n {
		return nil, fmt.Errorf("new renderer %dx%d: color has %d, depth has %d: %w",
			width, height, len(color), len(depth), ErrBufferSize)
	}

	r := &Renderer{
		color:       color,
		depth:       depth,
		width:       width,
		height:      height,
		samples:     make([]Color, width*height*samplesPerPixel),
		sampleDepth: make([]float64, width*height*samplesPerPixel),
		scratch:     make([]Color, width*height),
		uniform:     DefaultUniform(),
		viewport:    Viewport{0, 0, width, height},
	}
	r.resetSamples()

	Logger().Debug("renderer created", "width", width, "height", height)
	return r, nil
}

// Close releases the MSAA storage. Later calls return ErrClosed.
func (r *Renderer) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.samples = nil
	r.sampleDepth = nil
	r.scratch = nil
	r.color = nil
	r.depth = nil
	return nil
}

// Size returns the buffer dimensions.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Uniform returns a copy of the current frame state.
func (r *Renderer) Uniform() Uniform {
	return r.uniform
}

// Viewport returns the current viewport.
func (r *Renderer) Viewport() Viewport {
	return r.viewport
}

// Stats returns the counters accumulated since the last ResetStats.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the counters.
func (r *Renderer) ResetStats() {
	r.stats = Stats{}
}

// ClearDepth is the depth value the host should clear its depth buffer to
// under the current depth policy.
func (r *Renderer) ClearDepth() float64 {
	return r.uniform.Policy.Depth.ClearValue()
}

// SetProjection sets the projection matrix.
func (r *Renderer) SetProjection(m math3d.Mat4) { r.uniform.Projection = m }

// SetView sets the view matrix.
func (r *Renderer) SetView(m math3d.Mat4) { r.uniform.View = m }

// SetModel sets the model matrix.
func (r *Renderer) SetModel(m math3d.Mat4) { r.uniform.Model = m }

// SetViewport sets the NDC to pixel mapping. It may cover any subregion of
// the buffers, or extend past them; pixels outside the buffers are skipped.
func (r *Renderer) SetViewport(x, y, width, height int) {
	r.viewport = Viewport{x, y, width, height}
}

// SetUniformFloat sets a scalar or vector uniform. The number of values
// must match the kind's arity; on error the state is unchanged.
func (r *Renderer) SetUniformFloat(kind UniformKind, values ...float64) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.uniform.setFloat(kind, values); err != nil {
		return err
	}
	// Untouched samples still hold the old clear color.
	if kind == UniformClearColor && !r.msaaDirty {
		r.resetSamples()
	}
	return nil
}

// SetUniformBool sets a toggle uniform.
func (r *Renderer) SetUniformBool(kind UniformKind, value bool) error {
	if r.closed {
		return ErrClosed
	}
	return r.uniform.setBool(kind, value)
}

// SetLight replaces light slot i. Indices outside [0, MaxLights) are
// ignored.
func (r *Renderer) SetLight(i int, l Light) {
	if i < 0 || i >= MaxLights {
		Logger().Debug("light index out of range ignored", "index", i)
		return
	}
	r.uniform.Lights[i] = l
}

// SetMaterial sets the material used by subsequent draws.
func (r *Renderer) SetMaterial(m Material) { r.uniform.Material = m }

// SetTexture binds row-major pixels of a width x height texture. Row 0 is
// sampled at v = 0. A nil or short slice unbinds the texture, so sampling
// yields opaque white. The pixels are borrowed, not copied.
func (r *Renderer) SetTexture(pixels []Color, width, height int) {
	if pixels == nil || width <= 0 || height <= 0 || len(pixels) < width*height {
		if pixels != nil {
			Logger().Debug("texture ignored", "width", width, "height", height, "pixels", len(pixels))
		}
		r.uniform.Texture = nil
		return
	}
	r.uniform.Texture = &Texture{Width: width, Height: height, Pixels: pixels}
}

// SetFrontFace selects the front-facing winding.
func (r *Renderer) SetFrontFace(f FrontFace) { r.uniform.FrontFace = f }

// SetCullMode selects which faces are culled.
func (r *Renderer) SetCullMode(m CullMode) { r.uniform.CullMode = m }

// SetTextureFilter selects nearest or bilinear sampling.
func (r *Renderer) SetTextureFilter(f FilterMode) { r.uniform.Filter = f }

// SetPolicy sets the depth, cutout and specular policy. Changing the depth
// function resets the MSAA sample depths to its clear value; the host must
// clear its own depth buffer to ClearDepth.
func (r *Renderer) SetPolicy(p Policy) {
	if r.closed {
		return
	}
	changed := p.Depth.ClearValue() != r.uniform.Policy.Depth.ClearValue()
	r.uniform.Policy = p
	if changed {
		r.resetSampleDepths()
	}
}

// DrawTriangles rasterizes vertices as independent triangles, one per
// consecutive triple.
func (r *Renderer) DrawTriangles(vertices []Vertex) error {
	if r.closed {
		return ErrClosed
	}
	if len(vertices)%3 != 0 {
		return fmt.Errorf("draw %d vertices: %w", len(vertices), ErrVertexCount)
	}

	r.uniform.ViewProj = r.uniform.Projection.Mul(r.uniform.View)

	for i := 0; i < len(vertices); i += 3 {
		r.drawTriangle((*[3]Vertex)(vertices[i : i+3]))
	}
	return nil
}

// drawTriangle runs one triangle through every stage.
func (r *Renderer) drawTriangle(v *[3]Vertex) {
	u := &r.uniform
	r.stats.Triangles++

	var (
		vary  [3]Varying
		poly  polygon
		codes [3]uint8
	)
	for i := range 3 {
		pos := transformVertex(u, v[i], &vary[i])
		poly.pts[i] = clipPoint{pos: pos}
		poly.pts[i].weights[i] = 1
		codes[i] = outcode(pos)
	}
	poly.n = 3

	if codes[0]&codes[1]&codes[2] != 0 {
		r.stats.Rejected++
		return
	}

	if union := codes[0] | codes[1] | codes[2]; union != 0 {
		r.stats.Clipped++
		if !clipPolygon(&poly, union) {
			return
		}
	}

	var (
		invW   [maxPolygon]float64
		ndc    [maxPolygon]math3d.Vec3
		screen [maxPolygon]screenPoint
		fanVar [maxPolygon]Varying
	)
	for i := range poly.n {
		p := poly.pts[i].pos
		invW[i] = 1 / p.W
		ndc[i] = p.Vec3().Scale(invW[i])
	}

	if faceCulled(ndc[:poly.n], u.FrontFace, u.CullMode) {
		r.stats.Culled++
		return
	}

	for i := range poly.n {
		s := toScreen(ndc[i], r.viewport)
		screen[i] = screenPoint{X: s.X, Y: s.Y, Z: s.Z, InvW: invW[i]}
		fanVar[i] = interpolateVarying(&vary, poly.pts[i].weights)
	}

	for i := 1; i+1 < poly.n; i++ {
		pts := [3]screenPoint{screen[0], screen[i], screen[i+1]}
		if u.FillTriangles {
			tri := [3]Varying{fanVar[0], fanVar[i], fanVar[i+1]}
			r.rasterTriangle(pts, &tri)
		}
		if u.Wireframe {
			r.drawTriangleEdges(pts)
		}
	}
}

// Finish completes the frame: resolves MSAA samples, runs the blur and
// bloom filters, then gamma-corrects the color buffer in place.
func (r *Renderer) Finish() error {
	if r.closed {
		return ErrClosed
	}

	if r.uniform.MSAA || r.msaaDirty {
		r.resolveSamples()
	}

	r.postProcess()

	gamma := r.uniform.Gamma
	for i := range r.width * r.height {
		r.color[i] = gammaCorrect(r.color[i], gamma)
	}
	return nil
}
