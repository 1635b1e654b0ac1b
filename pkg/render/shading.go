package render

import (
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
)

// lightColor accumulates every enabled light at a world position and
// returns the lit surface color and the specular color.
func lightColor(u *Uniform, coords, normal math3d.Vec3) (shaded, specular Color) {
	var ambientSum, diffuseSum, specularSum Color

	n := normal.Normalize()
	m := &u.Material

	for i := range u.Lights {
		light := &u.Lights[i]
		if !light.Enabled {
			continue
		}

		var l math3d.Vec3
		attenuation := 1.0
		if light.Position.W == 0 {
			l = light.Position.Vec3().Normalize()
		} else {
			l = light.Position.Vec3().Div(light.Position.W).Sub(coords)
			dist := l.Len()
			l = l.Normalize()
			attenuation = light.Constant + light.Linear*dist + light.Quadratic*dist*dist
			if attenuation <= 0 {
				attenuation = 1
			}
		}
		inv := 1 / attenuation

		ambientSum = ambientSum.Add(light.Ambient.Scale(inv))

		nDotL := n.Dot(l)
		diffuseSum = diffuseSum.Add(light.Diffuse.Scale(math.Max(0, nDotL) * inv))

		if nDotL > 0 {
			r := l.Negate().Reflect(n)
			v := u.CameraPos.Sub(coords).Normalize()
			s := math.Pow(math.Max(0, r.Dot(v)), m.Shininess)
			specularSum = specularSum.Add(light.Specular.Scale(s * inv))
		}
	}

	shaded = m.Ambient.Mul(u.GlobalAmbient.Add(ambientSum)).
		Add(m.Diffuse.Mul(diffuseSum)).
		Add(m.Emission)
	specular = specularSum.Mul(m.Specular)
	return shaded, specular
}

// shadeFragment computes the final color of an interpolated fragment.
func shadeFragment(u *Uniform, v *Varying) Color {
	uv := v.UV()
	base := u.Texture.Sample(uv.X, uv.Y, u.Filter).Mul(v.Color())
	if !u.Lighting {
		return base
	}

	var shaded, specular Color
	if u.Phong {
		shaded, specular = lightColor(u, v.Coords(), v.Normal())
	} else {
		shaded, specular = v.Shaded(), v.Specular()
	}
	if u.Policy.Specular == SpecularTwice {
		specular = specular.Mul(u.Material.Specular)
	}

	return base.Mul(shaded).Add(specular)
}
