package render

import "github.com/taigrr/softrast/pkg/math3d"

// Vertex is one corner of a triangle as submitted to DrawTriangles.
type Vertex struct {
	Position math3d.Vec3 // Model-space position
	Normal   math3d.Vec3 // Model-space normal (for lighting)
	Color    Color       // Vertex color
	UV       math3d.Vec2 // Texture coordinates
}

// transformVertex runs the vertex stage: it fills out and returns the
// clip-space position. Normals are transformed by the model matrix as
// directions without an inverse transpose, so non-uniform scale skews
// lighting.
func transformVertex(u *Uniform, v Vertex, out *Varying) math3d.Vec4 {
	world := u.Model.MulVec4(math3d.V4FromV3(v.Position, 1))

	*out = Varying{}
	out.SetCoords(world.Vec3())
	out.SetNormal(u.Model.MulVec4(math3d.V4FromV3(v.Normal, 0)).Vec3())
	out.SetColor(v.Color.Mul(u.GlobalColor))
	out.SetUV(v.UV)

	if u.Lighting && !u.Phong {
		shaded, specular := lightColor(u, out.Coords(), out.Normal())
		out.SetShaded(shaded)
		out.SetSpecular(specular)
	}

	return u.ViewProj.MulVec4(world)
}
