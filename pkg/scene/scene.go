// Package scene holds what the renderer draws: objects, animated lights and
// a fly camera, plus the YAML files that describe them.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

// ErrTooManyLights is returned when a scene would exceed render.MaxLights.
var ErrTooManyLights = errors.New("scene: too many lights")

// Light is a renderer light with an optional vertical bob. A bobbing light
// sits at Base.Y + Bob*(1+sin(time))/2, or with (1-sin(time)) when Invert
// is set.
type Light struct {
	render.Light
	Base   math3d.Vec3
	Bob    float64
	Invert bool
}

// NewPointLight returns an enabled point light at pos with the given
// diffuse color and no attenuation.
func NewPointLight(pos math3d.Vec3, diffuse render.Color) Light {
	l := render.DefaultLight()
	l.Enabled = true
	l.Position = math3d.V4FromV3(pos, 1)
	l.Diffuse = diffuse
	return Light{Light: l, Base: pos}
}

// NewDirectionalLight returns an enabled light shining from dir.
func NewDirectionalLight(dir math3d.Vec3, diffuse render.Color) Light {
	l := render.DefaultLight()
	l.Enabled = true
	l.Position = math3d.V4FromV3(dir, 0)
	l.Diffuse = diffuse
	return Light{Light: l, Base: dir}
}

func (l *Light) update(time float64) {
	if l.Bob == 0 {
		return
	}
	s := math.Sin(time)
	if l.Invert {
		s = -s
	}
	l.Position.Y = l.Base.Y + l.Bob*(1+s)*0.5
}

// DrawStats counts what one Draw call did.
type DrawStats struct {
	Drawn     int // objects submitted
	Culled    int // objects outside the view frustum
	Triangles int // triangles submitted
}

// Scene is a set of objects and lights advanced by Update and drawn by
// Draw.
type Scene struct {
	Objects []*Object
	Lights  []Light
	Time    float64 // seconds since start

	dt float64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends objects.
func (s *Scene) Add(objs ...*Object) {
	s.Objects = append(s.Objects, objs...)
}

// AddLight appends a light. At most render.MaxLights fit.
func (s *Scene) AddLight(l Light) error {
	if len(s.Lights) >= render.MaxLights {
		return fmt.Errorf("add light %d: %w", len(s.Lights), ErrTooManyLights)
	}
	s.Lights = append(s.Lights, l)
	return nil
}

// Object returns the first object with the given name, or nil.
func (s *Scene) Object(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// TriangleCount returns the triangles of all visible objects.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, o := range s.Objects {
		if !o.Hidden {
			n += o.TriangleCount()
		}
	}
	return n
}

// Update advances time by dt seconds and animates lights and objects.
func (s *Scene) Update(dt float64) {
	s.dt = dt
	s.Time += dt
	s.animateLights()
	for _, o := range s.Objects {
		o.Update(dt)
	}
}

func (s *Scene) animateLights() {
	for i := range s.Lights {
		s.Lights[i].update(s.Time)
	}
}

// Draw renders every visible object through r as seen from cam. Objects
// whose world bounds miss the view frustum are skipped. The caller clears
// the buffers before and calls r.Finish after.
func (s *Scene) Draw(r *render.Renderer, cam *FlyCamera) (DrawStats, error) {
	var stats DrawStats

	r.SetProjection(cam.Projection())
	r.SetView(cam.View())
	p := cam.Position
	if err := r.SetUniformFloat(render.UniformCameraPos, p.X, p.Y, p.Z); err != nil {
		return stats, err
	}
	if err := r.SetUniformFloat(render.UniformTime, s.Time); err != nil {
		return stats, err
	}
	if err := r.SetUniformFloat(render.UniformDeltaTime, s.dt); err != nil {
		return stats, err
	}

	for i := range render.MaxLights {
		if i < len(s.Lights) {
			r.SetLight(i, s.Lights[i].Light)
		} else {
			r.SetLight(i, render.DefaultLight())
		}
	}

	frustum := render.NewFrustumFromMatrix(cam.ViewProjection())

	for _, o := range s.Objects {
		if o.Hidden {
			continue
		}
		model := o.Model()
		if !frustum.IntersectAABB(o.Bounds.Transform(model)) {
			stats.Culled++
			continue
		}

		r.SetModel(model)
		for _, part := range o.Parts {
			r.SetMaterial(part.Material)
			if t := part.Texture; t != nil {
				r.SetTexture(t.Pixels, t.Width, t.Height)
			} else {
				r.SetTexture(nil, 0, 0)
			}
			if err := r.DrawTriangles(part.Vertices); err != nil {
				return stats, fmt.Errorf("draw %s: %w", o.Name, err)
			}
			stats.Triangles += len(part.Vertices) / 3
		}
		stats.Drawn++
	}

	return stats, nil
}
