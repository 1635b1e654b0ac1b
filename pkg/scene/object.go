package scene

import (
	"image"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
	"github.com/taigrr/softrast/pkg/render"
)

// Part is one draw call of an object: vertices sharing a material and
// texture.
type Part struct {
	Vertices []render.Vertex
	Material render.Material
	Texture  *render.Texture // nil draws untextured
}

// Object is a drawable with its own transform.
type Object struct {
	Name  string
	Parts []Part

	Position math3d.Vec3
	Rotation math3d.Vec3 // radians around X, Y and Z
	Scale    math3d.Vec3
	Turn     math3d.Vec3 // constant angular velocity, radians per second
	Spin     *Spin       // optional spring-decayed spin on top of Rotation

	Bounds render.AABB // local-space bounds of every part
	Hidden bool
}

// NewObject creates a single-part object with the default material.
func NewObject(name string, vertices []render.Vertex) *Object {
	o := &Object{
		Name:  name,
		Parts: []Part{{Vertices: vertices, Material: render.DefaultMaterial()}},
		Scale: math3d.V3(1, 1, 1),
	}
	o.UpdateBounds()
	return o
}

// ObjectFromMesh creates an object with one part per mesh material.
// Material textures are converted once and shared between parts.
func ObjectFromMesh(name string, mesh *models.Mesh) *Object {
	o := &Object{Name: name, Scale: math3d.V3(1, 1, 1)}
	textures := make(map[image.Image]*render.Texture)

	for _, g := range mesh.Groups() {
		part := Part{Vertices: g.Vertices, Material: render.DefaultMaterial()}
		if m := mesh.GetMaterial(g.Material); m != nil {
			part.Material = m.RenderMaterial()
			if m.Texture != nil {
				tex, ok := textures[m.Texture]
				if !ok {
					tex = render.TextureFromImage(m.Texture)
					textures[m.Texture] = tex
				}
				part.Texture = tex
			}
		}
		o.Parts = append(o.Parts, part)
	}
	o.UpdateBounds()
	return o
}

// SetTexture binds tex to every part.
func (o *Object) SetTexture(tex *render.Texture) {
	for i := range o.Parts {
		o.Parts[i].Texture = tex
	}
}

// SetMaterial sets the material of every part.
func (o *Object) SetMaterial(m render.Material) {
	for i := range o.Parts {
		o.Parts[i].Material = m
	}
}

// TriangleCount returns the number of triangles over all parts.
func (o *Object) TriangleCount() int {
	n := 0
	for _, p := range o.Parts {
		n += len(p.Vertices) / 3
	}
	return n
}

// UpdateBounds recomputes the local bounds after vertices change.
func (o *Object) UpdateBounds() {
	var all []render.Vertex
	if len(o.Parts) == 1 {
		all = o.Parts[0].Vertices
	} else {
		for _, p := range o.Parts {
			all = append(all, p.Vertices...)
		}
	}
	o.Bounds = render.BoundsOf(all)
}

// Update advances the constant turn and the spin by one frame of dt
// seconds.
func (o *Object) Update(dt float64) {
	o.Rotation = o.Rotation.Add(o.Turn.Scale(dt))
	if o.Spin != nil {
		o.Spin.Update()
	}
}

// Model returns Translate(Position) * RotateY * RotateX * RotateZ *
// Scale. Spin angles add to Rotation per axis.
func (o *Object) Model() math3d.Mat4 {
	rot := o.Rotation
	if o.Spin != nil {
		x, y, z := o.Spin.Angles()
		rot = rot.Add(math3d.V3(x, y, z))
	}
	return math3d.Translate(o.Position).
		Mul(math3d.RotateY(rot.Y)).
		Mul(math3d.RotateX(rot.X)).
		Mul(math3d.RotateZ(rot.Z)).
		Mul(math3d.Scale(o.Scale))
}

// WorldBounds returns the bounds transformed by Model.
func (o *Object) WorldBounds() render.AABB {
	return o.Bounds.Transform(o.Model())
}
