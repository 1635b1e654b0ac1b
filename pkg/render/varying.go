package render

import "github.com/taigrr/softrast/pkg/math3d"

// Offsets of each attribute inside a Varying.
const (
	varyCoords   = 0  // world position, 3 floats
	varyNormal   = 3  // world normal, 3 floats
	varyColor    = 6  // vertex color, 4 floats
	varyUV       = 10 // texture coordinate, 2 floats
	varyShaded   = 12 // Gouraud shaded color, 4 floats
	varySpecular = 16 // Gouraud specular color, 4 floats

	varyingSize = 20
)

// Varying is the bundle interpolated from triangle vertices to fragments.
// Every attribute lives in one flat array so interpolation is a single
// loop over floats; new attributes must stay linearly interpolable.
type Varying [varyingSize]float64

func (v *Varying) vec3(off int) math3d.Vec3 {
	return math3d.Vec3{X: v[off], Y: v[off+1], Z: v[off+2]}
}

func (v *Varying) setVec3(off int, p math3d.Vec3) {
	v[off], v[off+1], v[off+2] = p.X, p.Y, p.Z
}

func (v *Varying) color(off int) Color {
	return Color{v[off], v[off+1], v[off+2], v[off+3]}
}

func (v *Varying) setColor(off int, c Color) {
	v[off], v[off+1], v[off+2], v[off+3] = c.R, c.G, c.B, c.A
}

// Coords returns the world-space position.
func (v *Varying) Coords() math3d.Vec3 { return v.vec3(varyCoords) }

// SetCoords stores the world-space position.
func (v *Varying) SetCoords(p math3d.Vec3) { v.setVec3(varyCoords, p) }

// Normal returns the world-space normal (not renormalized).
func (v *Varying) Normal() math3d.Vec3 { return v.vec3(varyNormal) }

// SetNormal stores the world-space normal.
func (v *Varying) SetNormal(n math3d.Vec3) { v.setVec3(varyNormal, n) }

// Color returns the vertex color.
func (v *Varying) Color() Color { return v.color(varyColor) }

// SetColor stores the vertex color.
func (v *Varying) SetColor(c Color) { v.setColor(varyColor, c) }

// UV returns the texture coordinate.
func (v *Varying) UV() math3d.Vec2 { return math3d.Vec2{X: v[varyUV], Y: v[varyUV+1]} }

// SetUV stores the texture coordinate.
func (v *Varying) SetUV(uv math3d.Vec2) { v[varyUV], v[varyUV+1] = uv.X, uv.Y }

// Shaded returns the lit surface color computed by the vertex stage.
func (v *Varying) Shaded() Color { return v.color(varyShaded) }

// SetShaded stores the lit surface color.
func (v *Varying) SetShaded(c Color) { v.setColor(varyShaded, c) }

// Specular returns the specular color computed by the vertex stage.
func (v *Varying) Specular() Color { return v.color(varySpecular) }

// SetSpecular stores the specular color.
func (v *Varying) SetSpecular(c Color) { v.setColor(varySpecular, c) }

// interpolateVarying blends three varyings with weights w.
func interpolateVarying(v *[3]Varying, w [3]float64) Varying {
	var out Varying
	for i := range out {
		out[i] = v[0][i]*w[0] + v[1][i]*w[1] + v[2][i]*w[2]
	}
	return out
}
