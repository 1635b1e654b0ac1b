package scene

import (
	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

func vtx(px, py, pz float64, c render.Color, u, v float64) render.Vertex {
	return render.Vertex{
		Position: math3d.V3(px, py, pz),
		Normal:   math3d.V3(0, 0, 1),
		Color:    c,
		UV:       math3d.V2(u, v),
	}
}

// Quad returns a unit quad in the XY plane facing +Z, as two triangles
// with per-corner colors and UVs covering the whole texture.
func Quad() []render.Vertex {
	magenta := render.RGB(1, 0, 1)
	return []render.Vertex{
		vtx(-0.5, -0.5, 0, render.ColorRed, 0, 0),
		vtx(0.5, -0.5, 0, render.ColorBlue, 1, 0),
		vtx(0.5, 0.5, 0, render.ColorGreen, 1, 1),

		vtx(0.5, 0.5, 0, render.ColorGreen, 1, 1),
		vtx(-0.5, 0.5, 0, magenta, 0, 1),
		vtx(-0.5, -0.5, 0, render.ColorRed, 0, 0),
	}
}

// Triangle returns a single RGB triangle facing +Z.
func Triangle() []render.Vertex {
	return []render.Vertex{
		vtx(-0.5, -0.5, 0, render.ColorRed, 0, 0),
		vtx(0.5, -0.5, 0, render.ColorGreen, 0.5, 0.5),
		vtx(0, 0.5, 0, render.ColorBlue, 0, 1),
	}
}

// cubeFaces lists each face's outward normal and its in-plane axes, with
// u x v == normal so corners wind counter-clockwise seen from outside.
var cubeFaces = [6]struct {
	n, u, v math3d.Vec3
}{
	{math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
	{math3d.V3(0, 0, -1), math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)},
	{math3d.V3(1, 0, 0), math3d.V3(0, 0, -1), math3d.V3(0, 1, 0)},
	{math3d.V3(-1, 0, 0), math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},
	{math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, -1)},
	{math3d.V3(0, -1, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, 1)},
}

// Cube returns a unit cube centered on the origin: 12 triangles, white,
// with flat normals and a full texture on every face.
func Cube() []render.Vertex {
	out := make([]render.Vertex, 0, 36)
	for _, f := range cubeFaces {
		center := f.n.Scale(0.5)
		corner := func(su, sv float64) render.Vertex {
			p := center.Add(f.u.Scale(su * 0.5)).Add(f.v.Scale(sv * 0.5))
			return render.Vertex{
				Position: p,
				Normal:   f.n,
				Color:    render.ColorWhite,
				UV:       math3d.V2((su+1)/2, (sv+1)/2),
			}
		}
		c := [4]render.Vertex{corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1)}
		out = append(out, c[0], c[1], c[2], c[0], c[2], c[3])
	}
	return out
}
