// Package models loads OBJ and glTF meshes and turns them into vertex
// lists for the rasterizer.
package models

import (
	"image"
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

// Mesh is an indexed triangle mesh with per-face materials.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Color    render.Color
}

// Face is a triangle with vertex indices and a material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material is a fixed-function surface description as read from MTL files
// or glTF base colors.
type Material struct {
	Name      string
	Ambient   render.Color
	Diffuse   render.Color
	Specular  render.Color
	Emission  render.Color
	Shininess float64
	Opacity   float64 // 1 is opaque

	TexturePath string      // diffuse map, relative paths resolved on load
	Texture     image.Image // decoded diffuse map, nil if none
}

// DefaultMaterial mirrors render.DefaultMaterial, fully opaque.
func DefaultMaterial() Material {
	m := render.DefaultMaterial()
	return Material{
		Name:      "default",
		Ambient:   m.Ambient,
		Diffuse:   m.Diffuse,
		Specular:  m.Specular,
		Emission:  m.Emission,
		Shininess: m.Shininess,
		Opacity:   1,
	}
}

// RenderMaterial converts to the renderer's material. Opacity becomes the
// diffuse alpha.
func (m Material) RenderMaterial() render.Material {
	diffuse := m.Diffuse
	diffuse.A = m.Opacity
	return render.Material{
		Ambient:   m.Ambient,
		Diffuse:   diffuse,
		Specular:  m.Specular,
		Emission:  m.Emission,
		Shininess: m.Shininess,
	}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v1.Sub(v0).Cross(v2.Sub(v0))
}

// CalculateNormals assigns each face's normal to its vertices. Vertices
// shared between faces keep the normal of the last face.
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		normal := m.faceNormal(f).Normalize()
		for _, vi := range f.V {
			m.Vertices[vi].Normal = normal
		}
	}
}

// CalculateSmoothNormals computes area-weighted averaged normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Vec3{}
	}

	for _, f := range m.Faces {
		normal := m.faceNormal(f) // Don't normalize yet
		for _, vi := range f.V {
			m.Vertices[vi].Normal = m.Vertices[vi].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// hasNormals reports whether any vertex carries a usable normal.
func (m *Mesh) hasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// Transform applies a transformation matrix to all vertices. Normals use
// the matrix's linear part, so non-uniform scale skews them.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Fit centers the mesh on the origin and scales it uniformly so its
// largest dimension equals size.
func (m *Mesh) Fit(size float64) {
	m.CalculateBounds()
	s := m.Size()
	maxDim := math.Max(s.X, math.Max(s.Y, s.Z))
	if maxDim <= 0 {
		return
	}
	k := size / maxDim
	m.Transform(math3d.Scale(math3d.V3(k, k, k)).Mul(math3d.Translate(m.Center().Negate())))
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	return clone
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}

func (m *Mesh) appendFace(out []render.Vertex, f Face, opacity float64) []render.Vertex {
	for _, vi := range f.V {
		v := m.Vertices[vi]
		c := v.Color
		c.A *= opacity
		out = append(out, render.Vertex{
			Position: v.Position,
			Normal:   v.Normal,
			Color:    c,
			UV:       v.UV,
		})
	}
	return out
}

func (m *Mesh) opacity(material int) float64 {
	if mat := m.GetMaterial(material); mat != nil {
		return mat.Opacity
	}
	return 1
}

// Triangles expands every face into an unindexed vertex list, three
// vertices per triangle, ready for render.Renderer.DrawTriangles.
func (m *Mesh) Triangles() []render.Vertex {
	out := make([]render.Vertex, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		out = m.appendFace(out, f, m.opacity(f.Material))
	}
	return out
}

// Group is the vertex list of all faces sharing one material.
type Group struct {
	Material int // index into Mesh.Materials, -1 for faces without one
	Vertices []render.Vertex
}

// Groups splits the mesh into one vertex list per material, in order of
// first use.
func (m *Mesh) Groups() []Group {
	var groups []Group
	index := make(map[int]int)
	for _, f := range m.Faces {
		gi, ok := index[f.Material]
		if !ok {
			gi = len(groups)
			index[f.Material] = gi
			groups = append(groups, Group{Material: f.Material})
		}
		groups[gi].Vertices = m.appendFace(groups[gi].Vertices, f, m.opacity(f.Material))
	}
	return groups
}
