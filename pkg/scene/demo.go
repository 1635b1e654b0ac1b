package scene

import (
	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

// DemoQuad is the name of the textured quad in the demo scene.
const DemoQuad = "quad"

// NewDemoScene returns the test scene: a checker-textured quad three units
// in front of the origin turning about Y at one radian per second, lit by
// a red and a cyan point light bobbing in opposite phase.
func NewDemoScene() *Scene {
	s := New()

	quad := NewObject(DemoQuad, Quad())
	quad.Position = math3d.V3(0, 0, -3)
	quad.Turn = math3d.V3(0, 1, 0)
	quad.SetTexture(render.NewCheckerTexture(64, 64, 8, render.ColorWhite, render.RGB(0.25, 0.25, 0.25)))
	s.Add(quad)

	red := NewPointLight(math3d.V3(0, 0, 0), render.ColorRed)
	red.Bob = 1
	cyan := NewPointLight(math3d.V3(0, 0, 0), render.RGB(0, 1, 1))
	cyan.Bob = 1
	cyan.Invert = true

	s.Lights = append(s.Lights, red, cyan)
	s.animateLights()
	return s
}
