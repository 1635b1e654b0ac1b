package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
)

func TestOutcode(t *testing.T) {
	tests := []struct {
		name string
		p    math3d.Vec4
		want uint8
	}{
		{"center", math3d.V4(0, 0, 0, 1), 0},
		{"right", math3d.V4(2, 0, 0, 1), 0x01},
		{"left", math3d.V4(-2, 0, 0, 1), 0x10},
		{"on right plane", math3d.V4(1, 0, 0, 1), 0x01},
		{"top and near", math3d.V4(0, 3, -3, 1), 0x42},
		{"behind eye", math3d.V4(0, 0, 0, -1), 0xFF},
		{"zero w", math3d.V4(0, 0, 0, 0), 0xFF},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := outcode(tc.p); got != tc.want {
				t.Errorf("outcode(%v) = %#02x, want %#02x", tc.p, got, tc.want)
			}
		})
	}
}

func triangle(a, b, c math3d.Vec4) (polygon, uint8) {
	var p polygon
	for i, v := range [3]math3d.Vec4{a, b, c} {
		p.pts[i] = clipPoint{pos: v}
		p.pts[i].weights[i] = 1
	}
	p.n = 3
	return p, outcode(a) | outcode(b) | outcode(c)
}

func TestClipInside(t *testing.T) {
	p, codes := triangle(
		math3d.V4(-0.5, -0.5, 0, 1),
		math3d.V4(0.5, -0.5, 0, 1),
		math3d.V4(0, 0.5, 0, 1),
	)
	before := p

	if !clipPolygon(&p, codes) {
		t.Fatal("clipPolygon rejected an inside triangle")
	}
	if p != before {
		t.Error("clipPolygon modified an inside triangle")
	}
}

func TestClipOnePlane(t *testing.T) {
	a := math3d.V4(0, -0.5, 0, 1)
	b := math3d.V4(2, 0, 0, 1)
	c := math3d.V4(0, 0.5, 0, 1)
	p, codes := triangle(a, b, c)

	if !clipPolygon(&p, codes) {
		t.Fatal("clipPolygon rejected a straddling triangle")
	}

	want := []clipPoint{
		{pos: a, weights: [3]float64{1, 0, 0}},
		{pos: math3d.V4(1, -0.25, 0, 1), weights: [3]float64{0.5, 0.5, 0}},
		{pos: math3d.V4(1, 0.25, 0, 1), weights: [3]float64{0, 0.5, 0.5}},
		{pos: c, weights: [3]float64{0, 0, 1}},
	}
	if p.n != len(want) {
		t.Fatalf("clipped to %d vertices, want %d", p.n, len(want))
	}
	for i, w := range want {
		if p.pts[i] != w {
			t.Errorf("vertex %d = %+v, want %+v", i, p.pts[i], w)
		}
	}
	for i := range p.n {
		if p.pts[i].pos.X > p.pts[i].pos.W {
			t.Errorf("vertex %d x = %v exceeds w", i, p.pts[i].pos.X)
		}
	}
}

func TestClipAllOutside(t *testing.T) {
	p, codes := triangle(
		math3d.V4(2, 0, 0, 1),
		math3d.V4(3, 0, 0, 1),
		math3d.V4(2, 1, 0, 1),
	)
	if clipPolygon(&p, codes) {
		t.Error("clipPolygon kept a triangle outside the right plane")
	}
}

func TestClipBehindEye(t *testing.T) {
	p, codes := triangle(
		math3d.V4(0, 0, 0, -1),
		math3d.V4(0.2, 0, 0.5, 1),
		math3d.V4(-0.2, 0.3, 0.5, 1),
	)

	if !clipPolygon(&p, codes) {
		t.Fatal("clipPolygon rejected a triangle with two visible corners")
	}

	const eps = 1e-12
	for i := range p.n {
		pt := p.pts[i]
		if pt.pos.W <= 0 {
			t.Errorf("vertex %d has w = %v", i, pt.pos.W)
		}
		for axis := range 3 {
			if c := pt.pos.Axis(axis); math.Abs(c) > pt.pos.W+eps {
				t.Errorf("vertex %d axis %d = %v outside w = %v", i, axis, c, pt.pos.W)
			}
		}
		if sum := pt.weights[0] + pt.weights[1] + pt.weights[2]; math.Abs(sum-1) > eps {
			t.Errorf("vertex %d weights sum to %v", i, sum)
		}
	}
}

func TestDedupe(t *testing.T) {
	a := clipPoint{pos: math3d.V4(0, 0, 0, 1)}
	b := clipPoint{pos: math3d.V4(1, 0, 0, 1)}
	c := clipPoint{pos: math3d.V4(0, 1, 0, 1)}

	p := polygon{n: 6}
	copy(p.pts[:], []clipPoint{a, a, b, c, c, a})
	p.dedupe()

	if p.n != 3 {
		t.Fatalf("dedupe left %d vertices, want 3", p.n)
	}
	if p.pts[0] != a || p.pts[1] != b || p.pts[2] != c {
		t.Errorf("dedupe = %+v", p.pts[:p.n])
	}
}

func TestClipCollapsedTriangle(t *testing.T) {
	// Two corners sit on the left plane and the third outside it; only a
	// sliver with repeated vertices would remain.
	p, codes := triangle(
		math3d.V4(-1, -0.5, 0, 1),
		math3d.V4(-1, 0.5, 0, 1),
		math3d.V4(-2, 0, 0, 1),
	)
	if clipPolygon(&p, codes) {
		t.Errorf("clipPolygon kept %d vertices of a zero-area remainder", p.n)
	}
}
