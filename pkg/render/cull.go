package render

import "github.com/taigrr/softrast/pkg/math3d"

// faceCulled decides from the first three NDC points whether the polygon is
// discarded. The whole polygon shares one decision.
func faceCulled(ndc []math3d.Vec3, front FrontFace, mode CullMode) bool {
	switch mode {
	case CullNone:
		return false
	case CullFrontAndBack:
		return true
	}

	i1, i2 := 1, 2
	if front == FrontCCW {
		i1, i2 = 2, 1
	}

	normalZ := ndc[i2].Sub(ndc[0]).Cross(ndc[i1].Sub(ndc[0])).Z
	if normalZ == 0 {
		// First three points are collinear; fall back to the polygon area.
		normalZ = -signedArea(ndc)
		if front == FrontCCW {
			normalZ = -normalZ
		}
	}

	if mode == CullBack {
		return normalZ > 0
	}
	return normalZ < 0
}

// signedArea returns twice the signed xy area of a closed polygon,
// positive for counter-clockwise winding.
func signedArea(p []math3d.Vec3) float64 {
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return a
}

// toScreen maps an NDC point into the viewport. Y flips because row 0 is
// the top of the framebuffer; depth maps near to 1 and far to 0.
func toScreen(ndc math3d.Vec3, vp Viewport) math3d.Vec3 {
	return math3d.Vec3{
		X: math3d.Remap(ndc.X, -1, 1, float64(vp.X), float64(vp.X+vp.Width)),
		Y: math3d.Remap(-ndc.Y, -1, 1, float64(vp.Y), float64(vp.Y+vp.Height)),
		Z: math3d.Remap(-ndc.Z, -1, 1, 0, 1),
	}
}
