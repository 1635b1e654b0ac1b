package render

import "math"

// samplesPerPixel is the MSAA sample count.
const samplesPerPixel = 4

// sampleOffsets is the rotated 2x2 grid around the pixel center.
var sampleOffsets = [samplesPerPixel][2]float64{
	{-1.0 / 8, -3.0 / 8},
	{3.0 / 8, -1.0 / 8},
	{1.0 / 8, 3.0 / 8},
	{-3.0 / 8, 1.0 / 8},
}

// screenPoint is a polygon vertex after viewport mapping.
type screenPoint struct {
	X, Y float64 // Screen coordinates
	Z    float64 // Depth in [0, 1], 1 at the near plane
	InvW float64 // 1/w of the clip-space position
}

// edgeFunction returns twice the signed area of (a, b, p). The endpoints
// are put in a canonical order first, so a shared edge evaluates to exactly
// opposite values from the two triangles that use it.
func edgeFunction(ax, ay, bx, by, px, py float64) float64 {
	if ay > by || (ay == by && ax > bx) {
		return -((ax-bx)*(py-by) - (ay-by)*(px-bx))
	}
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// isTopLeft reports whether an edge running from a to b, on a triangle
// oriented to positive area, owns the pixels lying exactly on it.
func isTopLeft(ax, ay, bx, by float64) bool {
	dx, dy := bx-ax, by-ay
	return dy < 0 || (dy == 0 && dx > 0)
}

// triangleSetup holds the per-triangle constants of the coverage test.
type triangleSetup struct {
	p       [3]screenPoint
	invArea float64
	flip    bool    // area is negative; edge values are negated
	owns    [3]bool // top-left ownership of edge i (opposite vertex i)
}

func newTriangleSetup(p [3]screenPoint) (triangleSetup, bool) {
	area := edgeFunction(p[0].X, p[0].Y, p[1].X, p[1].Y, p[2].X, p[2].Y)
	if area == 0 || math.IsNaN(area) {
		return triangleSetup{}, false
	}

	s := triangleSetup{p: p, invArea: 1 / area, flip: area < 0}

	// Edge i runs between the two vertices other than i, in the winding
	// that makes the area positive.
	ends := [3][2]int{{1, 2}, {2, 0}, {0, 1}}
	for i, e := range ends {
		a, b := p[e[0]], p[e[1]]
		if s.flip {
			a, b = b, a
		}
		s.owns[i] = isTopLeft(a.X, a.Y, b.X, b.Y)
	}
	return s, true
}

// weights returns the barycentric weights of (x, y) and whether the point
// is covered under the top-left rule.
func (s *triangleSetup) weights(x, y float64) ([3]float64, bool) {
	p := &s.p
	e := [3]float64{
		edgeFunction(p[1].X, p[1].Y, p[2].X, p[2].Y, x, y),
		edgeFunction(p[2].X, p[2].Y, p[0].X, p[0].Y, x, y),
		edgeFunction(p[0].X, p[0].Y, p[1].X, p[1].Y, x, y),
	}

	for i := range e {
		v := e[i]
		if s.flip {
			v = -v
		}
		if v < 0 || (v == 0 && !s.owns[i]) {
			return [3]float64{}, false
		}
	}

	return [3]float64{e[0] * s.invArea, e[1] * s.invArea, e[2] * s.invArea}, true
}

func (s *triangleSetup) depth(w [3]float64) float64 {
	return s.p[0].Z*w[0] + s.p[1].Z*w[1] + s.p[2].Z*w[2]
}

// perspectiveCorrect turns screen-linear weights into perspective-correct
// ones.
func (s *triangleSetup) perspectiveCorrect(w [3]float64) [3]float64 {
	d := s.p[0].InvW*w[0] + s.p[1].InvW*w[1] + s.p[2].InvW*w[2]
	if d == 0 {
		return w
	}
	return [3]float64{
		w[0] * s.p[0].InvW / d,
		w[1] * s.p[1].InvW / d,
		w[2] * s.p[2].InvW / d,
	}
}

// boundingBox returns the inclusive pixel range covered by the triangle,
// clamped to the framebuffer.
func (r *Renderer) boundingBox(p [3]screenPoint) (minX, minY, maxX, maxY int) {
	minX = max(0, int(math.Floor(min(p[0].X, p[1].X, p[2].X))))
	maxX = min(r.width-1, int(math.Ceil(max(p[0].X, p[1].X, p[2].X))))
	minY = max(0, int(math.Floor(min(p[0].Y, p[1].Y, p[2].Y))))
	maxY = min(r.height-1, int(math.Ceil(max(p[0].Y, p[1].Y, p[2].Y))))
	return
}

// rasterTriangle fills one fan triangle.
func (r *Renderer) rasterTriangle(p [3]screenPoint, vary *[3]Varying) {
	s, ok := newTriangleSetup(p)
	if !ok {
		r.stats.Degenerate++
		return
	}

	minX, minY, maxX, maxY := r.boundingBox(p)
	if r.uniform.MSAA {
		r.msaaDirty = true
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				r.shadeMultisample(&s, vary, x, y)
			}
		}
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			r.shadePixel(&s, vary, x, y)
		}
	}
}

func (r *Renderer) shadePixel(s *triangleSetup, vary *[3]Varying, x, y int) {
	u := &r.uniform

	w, ok := s.weights(float64(x)+0.5, float64(y)+0.5)
	if !ok {
		return
	}

	idx := y*r.width + x

	var z float64
	if u.DepthTest {
		z = s.depth(w)
		if !u.Policy.Depth.Pass(z, r.depth[idx]) {
			return
		}
	}

	c := r.shade(s, vary, w)

	if u.DepthTest && u.DepthWrite && u.Policy.Cutout.Pass(c.A, u.Cutout) {
		r.depth[idx] = z
	}

	r.color[idx] = r.blend(c, r.color[idx])
}

// shadeMultisample tests coverage and depth per sample, shades the
// fragment once and writes it to every sample that passed.
func (r *Renderer) shadeMultisample(s *triangleSetup, vary *[3]Varying, x, y int) {
	u := &r.uniform
	cx, cy := float64(x)+0.5, float64(y)+0.5

	var (
		covered  [samplesPerPixel]bool
		sampleZ  [samplesPerPixel]float64
		fallback [3]float64
		passed   bool
	)

	base := (y*r.width + x) * samplesPerPixel

	for k, off := range sampleOffsets {
		w, ok := s.weights(cx+off[0], cy+off[1])
		if !ok {
			continue
		}
		fallback = w

		if u.DepthTest {
			sampleZ[k] = s.depth(w)
			if !u.Policy.Depth.Pass(sampleZ[k], r.sampleDepth[base+k]) {
				continue
			}
		}
		covered[k] = true
		passed = true
	}
	if !passed {
		return
	}

	w, ok := s.weights(cx, cy)
	if !ok {
		w = fallback
	}

	c := r.shade(s, vary, w)
	writeDepth := u.DepthTest && u.DepthWrite && u.Policy.Cutout.Pass(c.A, u.Cutout)

	for k := range samplesPerPixel {
		if !covered[k] {
			continue
		}
		if writeDepth {
			r.sampleDepth[base+k] = sampleZ[k]
		}
		r.samples[base+k] = r.blend(c, r.samples[base+k])
	}
}

func (r *Renderer) shade(s *triangleSetup, vary *[3]Varying, w [3]float64) Color {
	if r.uniform.PerspectiveCorrection {
		w = s.perspectiveCorrect(w)
	}
	frag := interpolateVarying(vary, w)
	r.stats.Fragments++
	return shadeFragment(&r.uniform, &frag)
}

// blend applies source-over blending of src onto dst when enabled and src
// is translucent.
func (r *Renderer) blend(src, dst Color) Color {
	if !r.uniform.Blending || src.A >= 1 {
		return src
	}
	return src.Scale(math.Max(src.A, 0)).Add(dst.Scale(1 - math.Min(src.A, 1)))
}
