package scene

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
	"github.com/taigrr/softrast/pkg/render"
)

func TestObjectModel(t *testing.T) {
	o := NewObject("tri", Triangle())
	o.Position = math3d.V3(1, 2, 3)
	o.Rotation = math3d.V3(0, math.Pi/2, 0)
	o.Scale = math3d.V3(2, 2, 2)

	// +X scaled by 2, turned a quarter about Y, then moved.
	want := math3d.V3(1, 2, 1)
	if got := o.Model().MulVec3(math3d.V3(1, 0, 0)); !vecNear(got, want) {
		t.Errorf("Model() * +X = %v, want %v", got, want)
	}

	// Spin angles add to the rotation.
	o.Rotation = math3d.Vec3{}
	o.Spin = NewSpin(60)
	o.Spin.Y.Angle = math.Pi / 2
	if got := o.Model().MulVec3(math3d.V3(1, 0, 0)); !vecNear(got, want) {
		t.Errorf("Model() with spin * +X = %v, want %v", got, want)
	}
}

func TestObjectUpdateTurns(t *testing.T) {
	o := NewObject("quad", Quad())
	o.Turn = math3d.V3(0, 1, 0)

	o.Update(0.5)
	o.Update(0.25)
	if math.Abs(o.Rotation.Y-0.75) > eps {
		t.Errorf("Rotation.Y = %v, want 0.75", o.Rotation.Y)
	}
}

func TestObjectFromMesh(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	mesh := models.NewMesh("m")
	for _, p := range []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 1, 1)} {
		mesh.Vertices = append(mesh.Vertices, models.MeshVertex{Position: p, Color: render.ColorWhite})
	}
	a, b := models.DefaultMaterial(), models.DefaultMaterial()
	a.Texture, b.Texture = img, img
	b.Diffuse = render.ColorBlue
	mesh.Materials = []models.Material{a, b}
	mesh.Faces = []models.Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{1, 3, 2}, Material: 1},
		{V: [3]int{0, 1, 3}, Material: -1},
	}

	o := ObjectFromMesh("m", mesh)
	if len(o.Parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(o.Parts))
	}
	if o.Parts[0].Texture == nil || o.Parts[0].Texture != o.Parts[1].Texture {
		t.Error("parts with the same image should share one texture")
	}
	if o.Parts[2].Texture != nil || o.Parts[2].Material != render.DefaultMaterial() {
		t.Errorf("unassigned part = %+v, want default material untextured", o.Parts[2])
	}
	if o.Parts[1].Material.Diffuse != render.ColorBlue {
		t.Errorf("part 1 diffuse = %v", o.Parts[1].Material.Diffuse)
	}
	if o.TriangleCount() != 3 {
		t.Errorf("TriangleCount() = %d", o.TriangleCount())
	}
	if !vecNear(o.Bounds.Max, math3d.V3(1, 1, 1)) {
		t.Errorf("Bounds = %+v", o.Bounds)
	}
}

func TestAddLightLimit(t *testing.T) {
	s := New()
	for i := range render.MaxLights {
		if err := s.AddLight(NewPointLight(math3d.V3(float64(i), 0, 0), render.ColorWhite)); err != nil {
			t.Fatalf("light %d: %v", i, err)
		}
	}
	if err := s.AddLight(NewPointLight(math3d.Vec3{}, render.ColorWhite)); !errors.Is(err, ErrTooManyLights) {
		t.Errorf("ninth light err = %v, want ErrTooManyLights", err)
	}
}

func TestDemoSceneAnimation(t *testing.T) {
	s := NewDemoScene()

	if len(s.Lights) != 2 {
		t.Fatalf("got %d lights", len(s.Lights))
	}
	// At time 0 both lights sit halfway.
	for i, l := range s.Lights {
		if math.Abs(l.Position.Y-0.5) > eps || l.Position.W != 1 || !l.Enabled {
			t.Errorf("light %d = %+v", i, l.Light)
		}
	}

	s.Update(math.Pi / 2)
	if y := s.Lights[0].Position.Y; math.Abs(y-1) > eps {
		t.Errorf("red light y = %v, want 1", y)
	}
	if y := s.Lights[1].Position.Y; math.Abs(y) > eps {
		t.Errorf("cyan light y = %v, want 0", y)
	}
	if r := s.Object(DemoQuad).Rotation.Y; math.Abs(r-math.Pi/2) > eps {
		t.Errorf("quad rotation = %v, want pi/2", r)
	}
	if s.Object("missing") != nil {
		t.Error("Object(missing) != nil")
	}
}

func newSceneRenderer(t *testing.T, w, h int) (*render.Renderer, *render.Framebuffer) {
	t.Helper()
	fb := render.NewFramebuffer(w, h)
	r, err := render.New(fb.Color, fb.Depth, w, h)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	fb.Clear(render.ColorBlack, r.ClearDepth())
	return r, fb
}

func TestSceneDraw(t *testing.T) {
	r, fb := newSceneRenderer(t, 32, 32)
	s := NewDemoScene()
	cam := NewFlyCamera(32, 32)

	stats, err := s.Draw(r, cam)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Drawn != 1 || stats.Culled != 0 || stats.Triangles != 2 {
		t.Errorf("stats = %+v, want 1 drawn, 2 triangles", stats)
	}
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	center := fb.At(16, 16)
	if center.R+center.G+center.B == 0 {
		t.Error("quad center is black")
	}
	if corner := fb.At(0, 0); corner.R+corner.G+corner.B != 0 {
		t.Errorf("corner = %v, want background", corner)
	}

	u := r.Uniform()
	if !u.Lights[0].Enabled || !u.Lights[1].Enabled || u.Lights[2].Enabled {
		t.Error("light slots not synced with the scene")
	}
	if u.Texture == nil {
		t.Error("quad texture not bound")
	}
}

func TestSceneDrawCullsAndHides(t *testing.T) {
	r, _ := newSceneRenderer(t, 16, 16)
	s := NewDemoScene()

	behind := NewObject("behind", Cube())
	behind.Position = math3d.V3(0, 0, 5)
	hidden := NewObject("hidden", Cube())
	hidden.Position = math3d.V3(0, 0, -3)
	hidden.Hidden = true
	s.Add(behind, hidden)

	stats, err := s.Draw(r, NewFlyCamera(16, 16))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Drawn != 1 || stats.Culled != 1 {
		t.Errorf("stats = %+v, want 1 drawn, 1 culled", stats)
	}
	if got := s.TriangleCount(); got != 2+12 {
		t.Errorf("TriangleCount() = %d, want hidden object excluded", got)
	}
}

func BenchmarkSceneDraw(b *testing.B) {
	fb := render.NewFramebuffer(160, 96)
	r, err := render.New(fb.Color, fb.Depth, fb.Width, fb.Height)
	if err != nil {
		b.Fatal(err)
	}
	s := NewDemoScene()
	cube := NewObject("cube", Cube())
	cube.Position = math3d.V3(1, 0, -4)
	s.Add(cube)
	cam := NewFlyCamera(fb.Width, fb.Height)

	for b.Loop() {
		fb.Clear(render.ColorBlack, r.ClearDepth())
		s.Update(1.0 / 60)
		_, _ = s.Draw(r, cam)
		_ = r.Finish()
	}
}
