package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
)

func TestFaceCulled(t *testing.T) {
	// Counter-clockwise in NDC, which is clockwise on screen.
	ccw := []math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0)}
	cw := []math3d.Vec3{ccw[0], ccw[2], ccw[1]}

	tests := []struct {
		name  string
		front FrontFace
		mode  CullMode
		ccw   bool
		cw    bool
	}{
		{"none", FrontCW, CullNone, false, false},
		{"front and back", FrontCW, CullFrontAndBack, true, true},
		{"back with cw front", FrontCW, CullBack, false, true},
		{"front with cw front", FrontCW, CullFront, true, false},
		{"back with ccw front", FrontCCW, CullBack, true, false},
		{"front with ccw front", FrontCCW, CullFront, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := faceCulled(ccw, tc.front, tc.mode); got != tc.ccw {
				t.Errorf("ccw triangle culled = %v, want %v", got, tc.ccw)
			}
			if got := faceCulled(cw, tc.front, tc.mode); got != tc.cw {
				t.Errorf("cw triangle culled = %v, want %v", got, tc.cw)
			}
		})
	}
}

func TestFaceCulledCollinearFallback(t *testing.T) {
	// The first three points are collinear, so the polygon area decides.
	ccw := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0), math3d.V3(1, 1, 0),
	}
	cw := []math3d.Vec3{
		math3d.V3(2, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, 0), math3d.V3(1, 1, 0),
	}

	if faceCulled(ccw, FrontCW, CullBack) {
		t.Error("ccw polygon culled as back face")
	}
	if !faceCulled(ccw, FrontCW, CullFront) {
		t.Error("ccw polygon not culled as front face")
	}
	if !faceCulled(cw, FrontCW, CullBack) {
		t.Error("cw polygon not culled as back face")
	}
	if faceCulled(cw, FrontCCW, CullBack) {
		t.Error("cw polygon culled with ccw front")
	}
}

func TestSignedArea(t *testing.T) {
	square := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0),
	}
	if got := signedArea(square); got != 2 {
		t.Errorf("signedArea(ccw square) = %v, want 2", got)
	}
	reversed := []math3d.Vec3{square[3], square[2], square[1], square[0]}
	if got := signedArea(reversed); got != -2 {
		t.Errorf("signedArea(cw square) = %v, want -2", got)
	}
}

func TestToScreen(t *testing.T) {
	tests := []struct {
		name string
		ndc  math3d.Vec3
		vp   Viewport
		want math3d.Vec3
	}{
		{"top left near", math3d.V3(-1, 1, -1), Viewport{0, 0, 4, 4}, math3d.V3(0, 0, 1)},
		{"bottom right far", math3d.V3(1, -1, 1), Viewport{0, 0, 4, 4}, math3d.V3(4, 4, 0)},
		{"center", math3d.V3(0, 0, 0), Viewport{0, 0, 4, 4}, math3d.V3(2, 2, 0.5)},
		{"offset viewport", math3d.V3(-1, -1, 0), Viewport{10, 20, 4, 4}, math3d.V3(10, 24, 0.5)},
		{"wide viewport", math3d.V3(1, 1, 0), Viewport{0, 0, 8, 2}, math3d.V3(8, 0, 0.5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := toScreen(tc.ndc, tc.vp)
			if d := got.Sub(tc.want); math.Abs(d.X)+math.Abs(d.Y)+math.Abs(d.Z) > 1e-12 {
				t.Errorf("toScreen(%v) = %v, want %v", tc.ndc, got, tc.want)
			}
		})
	}
}
