package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
)

func TestEdgeFunctionAntisymmetric(t *testing.T) {
	pts := [][2]float64{
		{0, 0}, {3.25, 1.5}, {-2, 7.75}, {0.1, 0.3}, {5, 5}, {1e-3, 9},
	}
	p := [2]float64{1.7, 2.9}

	for i, a := range pts {
		for j, b := range pts {
			if i == j {
				continue
			}
			ab := edgeFunction(a[0], a[1], b[0], b[1], p[0], p[1])
			ba := edgeFunction(b[0], b[1], a[0], a[1], p[0], p[1])
			if ab != -ba {
				t.Errorf("edge(%v, %v) = %v, edge(%v, %v) = %v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestBarycentricWeights(t *testing.T) {
	s, ok := newTriangleSetup([3]screenPoint{
		{X: 0, Y: 4}, {X: 4, Y: 4}, {X: 2, Y: 0},
	})
	if !ok {
		t.Fatal("newTriangleSetup rejected a valid triangle")
	}

	tests := []struct {
		x, y    float64
		covered bool
	}{
		{2, 3, true},
		{1.5, 2.5, true},
		{2.5, 3.5, true},
		{0.5, 0.5, false},
		{3.9, 1, false},
		{2, 4.5, false},
	}

	for _, tc := range tests {
		w, ok := s.weights(tc.x, tc.y)
		if ok != tc.covered {
			t.Errorf("weights(%v, %v) covered = %v, want %v", tc.x, tc.y, ok, tc.covered)
			continue
		}
		if !ok {
			continue
		}
		if sum := w[0] + w[1] + w[2]; math.Abs(sum-1) > 1e-12 {
			t.Errorf("weights(%v, %v) sum = %v", tc.x, tc.y, sum)
		}
		// Weights reproduce the point.
		px := w[0]*0 + w[1]*4 + w[2]*2
		py := w[0]*4 + w[1]*4 + w[2]*0
		if math.Abs(px-tc.x) > 1e-12 || math.Abs(py-tc.y) > 1e-12 {
			t.Errorf("weights(%v, %v) reconstruct (%v, %v)", tc.x, tc.y, px, py)
		}
	}
}

func TestTriangleSetupDegenerate(t *testing.T) {
	_, ok := newTriangleSetup([3]screenPoint{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}})
	if ok {
		t.Error("newTriangleSetup accepted a zero-area triangle")
	}
}

// TestSharedEdgeCoverage draws a translucent quad as two triangles. Pixel
// centers on the shared diagonal must be owned by exactly one of them, so
// every pixel blends once.
func TestSharedEdgeCoverage(t *testing.T) {
	for _, msaa := range []bool{false, true} {
		r, fb := newTestRenderer(t, 8, 8)
		flat(t, r)
		setBools(t, r, map[UniformKind]bool{UniformMSAA: msaa})
		r.SetCullMode(CullNone)

		half := Color{1, 1, 1, 0.5}
		quad := solid(half,
			math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0),
			math3d.V3(-1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
		)
		if err := r.DrawTriangles(quad); err != nil {
			t.Fatal(err)
		}
		if err := r.Finish(); err != nil {
			t.Fatal(err)
		}

		for y := range 8 {
			for x := range 8 {
				got := fb.At(x, y)
				if math.Abs(got.R-0.5) > 1e-9 || math.Abs(got.G-0.5) > 1e-9 || math.Abs(got.B-0.5) > 1e-9 {
					t.Errorf("msaa=%v pixel (%d, %d) = %v, want 0.5 gray", msaa, x, y, got)
				}
			}
		}
	}
}

func TestDepthOrderIndependent(t *testing.T) {
	fullQuad := func(c Color, z float64) []Vertex {
		return solid(c,
			math3d.V3(-1, -1, z), math3d.V3(1, -1, z), math3d.V3(1, 1, z),
			math3d.V3(-1, -1, z), math3d.V3(1, 1, z), math3d.V3(-1, 1, z),
		)
	}
	front := fullQuad(ColorRed, -0.5)
	back := fullQuad(ColorBlue, 0.5)

	for _, msaa := range []bool{false, true} {
		for _, order := range [][2][]Vertex{{front, back}, {back, front}} {
			r, fb := newTestRenderer(t, 4, 4)
			flat(t, r)
			setBools(t, r, map[UniformKind]bool{UniformMSAA: msaa, UniformDepthTest: true})
			r.SetCullMode(CullNone)

			for _, tris := range order {
				if err := r.DrawTriangles(tris); err != nil {
					t.Fatal(err)
				}
			}
			if err := r.Finish(); err != nil {
				t.Fatal(err)
			}

			for i, c := range fb.Color {
				if math.Abs(c.R-1) > 1e-9 || c.B > 1e-9 {
					t.Fatalf("msaa=%v pixel %d = %v, want red", msaa, i, c)
				}
			}
		}
	}
}

func TestLessDepthPolicy(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 2)
	flat(t, r)
	setBools(t, r, map[UniformKind]bool{UniformDepthTest: true})
	r.SetCullMode(CullNone)

	p := DefaultPolicy()
	p.Depth = DepthLess
	r.SetPolicy(p)
	if r.ClearDepth() != 1 {
		t.Fatalf("ClearDepth() = %v, want 1", r.ClearDepth())
	}
	fb.Clear(ColorBlack, r.ClearDepth())

	quad := func(c Color, z float64) []Vertex {
		return solid(c,
			math3d.V3(-1, -1, z), math3d.V3(1, -1, z), math3d.V3(1, 1, z),
			math3d.V3(-1, -1, z), math3d.V3(1, 1, z), math3d.V3(-1, 1, z),
		)
	}
	// Screen depth maps ndc z = 0.5 to 0.25, so it wins under less.
	if err := r.DrawTriangles(quad(ColorRed, -0.5)); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawTriangles(quad(ColorBlue, 0.5)); err != nil {
		t.Fatal(err)
	}

	if got := fb.At(0, 0); !near(got, ColorBlue) {
		t.Errorf("pixel = %v, want blue", got)
	}
}

func TestCutoutSkipsDepthWrite(t *testing.T) {
	r, fb := newTestRenderer(t, 4, 4)
	flat(t, r)
	setBools(t, r, map[UniformKind]bool{UniformDepthTest: true, UniformBlending: false})
	r.SetCullMode(CullNone)

	quad := func(c Color, z float64) []Vertex {
		return solid(c,
			math3d.V3(-1, -1, z), math3d.V3(1, -1, z), math3d.V3(1, 1, z),
			math3d.V3(-1, -1, z), math3d.V3(1, 1, z), math3d.V3(-1, 1, z),
		)
	}
	// A nearly transparent near quad does not occlude the far one.
	if err := r.DrawTriangles(quad(Color{1, 0, 0, 0.25}, -0.5)); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawTriangles(quad(ColorBlue, 0.5)); err != nil {
		t.Fatal(err)
	}

	if got := fb.At(1, 1); !near(got, ColorBlue) {
		t.Errorf("pixel = %v, want blue", got)
	}
	if d := fb.Depth[0]; math.Abs(d-0.25) > 1e-9 {
		t.Errorf("depth = %v, want 0.25 from the far quad", d)
	}
}

func TestMSAAPartialCoverage(t *testing.T) {
	r, fb := newTestRenderer(t, 4, 4)
	flat(t, r)
	setBools(t, r, map[UniformKind]bool{UniformMSAA: true})
	r.SetCullMode(CullNone)

	// Covers screen x in [0, 1.5): column 0 fully, column 1 half.
	quad := solid(ColorWhite,
		math3d.V3(-1, -1, 0), math3d.V3(-0.25, -1, 0), math3d.V3(-0.25, 1, 0),
		math3d.V3(-1, -1, 0), math3d.V3(-0.25, 1, 0), math3d.V3(-1, 1, 0),
	)
	if err := r.DrawTriangles(quad); err != nil {
		t.Fatal(err)
	}
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	want := [4]float64{1, 0.5, 0, 0}
	for y := range 4 {
		for x := range 4 {
			if got := fb.At(x, y).R; math.Abs(got-want[x]) > 1e-9 {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want[x])
			}
		}
	}
}

func TestSamplesResetAfterFinish(t *testing.T) {
	r, fb := newTestRenderer(t, 4, 4)
	flat(t, r)
	setBools(t, r, map[UniformKind]bool{UniformMSAA: true})
	r.SetCullMode(CullNone)

	quad := solid(ColorWhite,
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0),
		math3d.V3(-1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	)
	if err := r.DrawTriangles(quad); err != nil {
		t.Fatal(err)
	}
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	if got := fb.At(2, 2); !near(got, ColorWhite) {
		t.Fatalf("first frame pixel = %v, want white", got)
	}

	fb.Clear(ColorBlack, r.ClearDepth())
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	for i, c := range fb.Color {
		if c != ColorBlack {
			t.Fatalf("second frame pixel %d = %v, want clear color", i, c)
		}
	}
}

func TestMSAAOffResolvesDirtySamples(t *testing.T) {
	r, fb := newTestRenderer(t, 4, 4)
	flat(t, r)
	setBools(t, r, map[UniformKind]bool{UniformMSAA: true})
	r.SetCullMode(CullNone)

	quad := solid(ColorWhite,
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0),
		math3d.V3(-1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	)
	if err := r.DrawTriangles(quad); err != nil {
		t.Fatal(err)
	}

	// Turning MSAA off mid-frame still resolves what was drawn.
	setBools(t, r, map[UniformKind]bool{UniformMSAA: false})
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
	if got := fb.At(1, 1); !near(got, ColorWhite) {
		t.Errorf("pixel = %v, want white", got)
	}
}

func TestDegenerateTriangle(t *testing.T) {
	r, fb := newTestRenderer(t, 4, 4)
	flat(t, r)

	line := solid(ColorRed, math3d.V3(-0.5, -0.5, 0), math3d.V3(0, 0, 0), math3d.V3(0.5, 0.5, 0))
	if err := r.DrawTriangles(line); err != nil {
		t.Fatal(err)
	}

	if s := r.Stats(); s.Degenerate != 1 || s.Fragments != 0 {
		t.Errorf("stats = %+v, want one degenerate triangle", s)
	}
	for i, c := range fb.Color {
		if c != ColorBlack {
			t.Fatalf("pixel %d = %v, want untouched", i, c)
		}
	}
}

func TestBlend(t *testing.T) {
	r, _ := newTestRenderer(t, 1, 1)
	dst := Color{0, 0, 1, 1}

	tests := []struct {
		name     string
		blending bool
		src      Color
		want     Color
	}{
		{"opaque", true, Color{1, 0, 0, 1}, Color{1, 0, 0, 1}},
		{"half", true, Color{1, 0, 0, 0.5}, Color{0.5, 0, 0.5, 0.75}},
		{"transparent", true, Color{1, 0, 0, 0}, Color{0, 0, 1, 1}},
		{"disabled", false, Color{1, 0, 0, 0.5}, Color{1, 0, 0, 0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBools(t, r, map[UniformKind]bool{UniformBlending: tc.blending})
			if got := r.blend(tc.src, dst); !near(got, tc.want) {
				t.Errorf("blend(%v, %v) = %v, want %v", tc.src, dst, got, tc.want)
			}
		})
	}
}

func TestPerspectiveCorrect(t *testing.T) {
	s := triangleSetup{p: [3]screenPoint{{InvW: 1}, {InvW: 0.5}, {InvW: 0.25}}}
	w := s.perspectiveCorrect([3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})

	want := [3]float64{4.0 / 7, 2.0 / 7, 1.0 / 7}
	for i := range w {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Errorf("w[%d] = %v, want %v", i, w[i], want[i])
		}
	}
}
