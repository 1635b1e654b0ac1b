package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
	"github.com/taigrr/softrast/pkg/render"
)

// ErrConfig is wrapped by every config validation error.
var ErrConfig = errors.New("scene: invalid config")

// Config is a scene file: renderer settings, camera, lights and objects.
// Angles are in degrees; paths are relative to the file.
type Config struct {
	Renderer RendererConfig `yaml:"renderer"`
	Camera   *CameraConfig  `yaml:"camera,omitempty"`
	Lights   []LightConfig  `yaml:"lights"`
	Objects  []ObjectConfig `yaml:"objects"`

	dir string
}

// RendererConfig sets uniforms by name and the enumerated modes.
type RendererConfig struct {
	Toggles   map[string]bool      `yaml:"toggles"`
	Floats    map[string][]float64 `yaml:"floats"`
	Cull      string               `yaml:"cull"`
	FrontFace string               `yaml:"front_face"`
	Filter    string               `yaml:"filter"`
	Depth     string               `yaml:"depth"`
	Cutout    string               `yaml:"cutout_func"`
	Specular  string               `yaml:"specular"`
}

// CameraConfig places the fly camera. Zero lens values keep the defaults.
type CameraConfig struct {
	Position []float64 `yaml:"position"`
	Yaw      float64   `yaml:"yaw"`
	Pitch    float64   `yaml:"pitch"`
	FOV      float64   `yaml:"fov"`
	Near     float64   `yaml:"near"`
	Far      float64   `yaml:"far"`
	Speed    float64   `yaml:"speed"`
}

// LightConfig describes one light.
type LightConfig struct {
	Type        string    `yaml:"type"` // "point" (default) or "directional"
	Position    []float64 `yaml:"position"`
	Ambient     []float64 `yaml:"ambient"`
	Diffuse     []float64 `yaml:"diffuse"`
	Specular    []float64 `yaml:"specular"`
	Attenuation []float64 `yaml:"attenuation"` // constant, linear, quadratic
	Bob         float64   `yaml:"bob"`
	Invert      bool      `yaml:"invert"`
}

// ObjectConfig describes one object: a built-in shape or a model file.
type ObjectConfig struct {
	Name       string          `yaml:"name"`
	Shape      string          `yaml:"shape"` // quad, triangle or cube
	Model      string          `yaml:"model"`
	ModelScale float64         `yaml:"model_scale"` // scale applied on load
	Fit        float64         `yaml:"fit"`         // resize to this largest dimension
	Texture    string          `yaml:"texture"`     // image path or "checker"
	Position   []float64       `yaml:"position"`
	Rotation   []float64       `yaml:"rotation"`
	Scale      []float64       `yaml:"scale"` // one value for uniform scale
	Turn       []float64       `yaml:"turn"`  // degrees per second
	Spin       []float64       `yaml:"spin"`  // initial impulse, degrees per frame
	Material   *MaterialConfig `yaml:"material,omitempty"`
	Hidden     bool            `yaml:"hidden"`
}

// MaterialConfig overrides material fields; unset fields keep the
// defaults or the model's own material.
type MaterialConfig struct {
	Ambient   []float64 `yaml:"ambient"`
	Diffuse   []float64 `yaml:"diffuse"`
	Specular  []float64 `yaml:"specular"`
	Emission  []float64 `yaml:"emission"`
	Shininess *float64  `yaml:"shininess"`
}

// LoadConfig reads and validates a scene file. Unknown keys and unknown
// enum names are errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes and validates YAML. Relative paths resolve against
// the working directory.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Renderer.policy(render.DefaultPolicy()); err != nil {
		return err
	}
	if _, err := c.Renderer.modes(); err != nil {
		return err
	}
	for name, on := range c.Renderer.Toggles {
		k, err := render.ParseUniformKind(name)
		if err != nil {
			return fmt.Errorf("toggle: %w", err)
		}
		if !k.IsBool() {
			return fmt.Errorf("toggle %s=%v: not a toggle: %w", name, on, ErrConfig)
		}
	}
	for name, v := range c.Renderer.Floats {
		k, err := render.ParseUniformKind(name)
		if err != nil {
			return fmt.Errorf("float: %w", err)
		}
		if k.IsBool() || len(v) != k.Arity() {
			return fmt.Errorf("float %s: want %d values, got %d: %w", name, k.Arity(), len(v), ErrConfig)
		}
	}

	if len(c.Lights) > render.MaxLights {
		return fmt.Errorf("%d lights, at most %d: %w", len(c.Lights), render.MaxLights, ErrConfig)
	}
	for i, l := range c.Lights {
		if _, err := l.light(); err != nil {
			return fmt.Errorf("light %d: %w", i, err)
		}
	}

	for i, o := range c.Objects {
		if err := o.validate(); err != nil {
			return fmt.Errorf("object %d (%s): %w", i, o.Name, err)
		}
	}
	if c.Camera != nil {
		if _, err := vec3(c.Camera.Position, math3d.Vec3{}); err != nil {
			return fmt.Errorf("camera position: %w", err)
		}
	}
	return nil
}

type rendererModes struct {
	cull      render.CullMode
	frontFace render.FrontFace
	filter    render.FilterMode
}

func (rc RendererConfig) modes() (rendererModes, error) {
	m := rendererModes{cull: render.CullBack, frontFace: render.FrontCW, filter: render.FilterNearest}
	var err error
	if rc.Cull != "" {
		if m.cull, err = render.ParseCullMode(rc.Cull); err != nil {
			return m, err
		}
	}
	if rc.FrontFace != "" {
		if m.frontFace, err = render.ParseFrontFace(rc.FrontFace); err != nil {
			return m, err
		}
	}
	if rc.Filter != "" {
		if m.filter, err = render.ParseFilterMode(rc.Filter); err != nil {
			return m, err
		}
	}
	return m, nil
}

func (rc RendererConfig) policy(p render.Policy) (render.Policy, error) {
	var err error
	if rc.Depth != "" {
		if p.Depth, err = render.ParseDepthFunc(rc.Depth); err != nil {
			return p, err
		}
	}
	if rc.Cutout != "" {
		if p.Cutout, err = render.ParseCutoutFunc(rc.Cutout); err != nil {
			return p, err
		}
	}
	if rc.Specular != "" {
		if p.Specular, err = render.ParseSpecularMode(rc.Specular); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Apply pushes the renderer settings to r. Settings the file leaves out
// keep their current values, except the enumerated modes, which are reset
// to their defaults so a reload that removes a line takes effect.
func (c *Config) Apply(r *render.Renderer) error {
	rc := c.Renderer

	for _, name := range slices.Sorted(maps.Keys(rc.Toggles)) {
		k, err := render.ParseUniformKind(name)
		if err != nil {
			return err
		}
		if err := r.SetUniformBool(k, rc.Toggles[name]); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(rc.Floats)) {
		k, err := render.ParseUniformKind(name)
		if err != nil {
			return err
		}
		if err := r.SetUniformFloat(k, rc.Floats[name]...); err != nil {
			return err
		}
	}

	m, err := rc.modes()
	if err != nil {
		return err
	}
	r.SetCullMode(m.cull)
	r.SetFrontFace(m.frontFace)
	r.SetTextureFilter(m.filter)

	p, err := rc.policy(render.DefaultPolicy())
	if err != nil {
		return err
	}
	r.SetPolicy(p)
	return nil
}

// ApplyCamera places cam. A config without a camera section leaves it
// untouched.
func (c *Config) ApplyCamera(cam *FlyCamera) error {
	cc := c.Camera
	if cc == nil {
		return nil
	}
	pos, err := vec3(cc.Position, math3d.Vec3{})
	if err != nil {
		return fmt.Errorf("camera position: %w", err)
	}
	cam.SetPosition(pos)
	cam.SetRotation(radians(cc.Yaw), radians(cc.Pitch))

	fov, near, far := cam.FOV, cam.Near, cam.Far
	if cc.FOV > 0 {
		fov = cc.FOV
	}
	if cc.Near > 0 {
		near = cc.Near
	}
	if cc.Far > 0 {
		far = cc.Far
	}
	cam.SetLens(fov, near, far)
	if cc.Speed > 0 {
		cam.Speed = cc.Speed
	}
	return nil
}

// Build creates the scene, loading models and textures.
func (c *Config) Build() (*Scene, error) {
	s := New()
	for i, lc := range c.Lights {
		l, err := lc.light()
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		if err := s.AddLight(l); err != nil {
			return nil, err
		}
	}

	checker := render.NewCheckerTexture(64, 64, 8, render.ColorWhite, render.RGB(0.25, 0.25, 0.25))
	textures := map[string]*render.Texture{"checker": checker}

	for i, oc := range c.Objects {
		o, err := oc.build(c.resolve, textures)
		if err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, oc.Name, err)
		}
		s.Add(o)
	}
	s.animateLights()

	render.Logger().Info("scene built", "objects", len(s.Objects), "lights", len(s.Lights),
		"triangles", s.TriangleCount())
	return s, nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

func (oc ObjectConfig) validate() error {
	switch {
	case oc.Shape == "" && oc.Model == "":
		return fmt.Errorf("needs a shape or a model: %w", ErrConfig)
	case oc.Shape != "" && oc.Model != "":
		return fmt.Errorf("has both shape and model: %w", ErrConfig)
	}
	if oc.Shape != "" {
		if _, err := shape(oc.Shape); err != nil {
			return err
		}
	}
	if len(oc.Scale) > 1 {
		if _, err := vec3(oc.Scale, math3d.Vec3{}); err != nil {
			return fmt.Errorf("scale: %w", err)
		}
	}
	for name, v := range map[string][]float64{
		"position": oc.Position, "rotation": oc.Rotation, "turn": oc.Turn, "spin": oc.Spin,
	} {
		if _, err := vec3(v, math3d.Vec3{}); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if oc.Material != nil {
		if _, err := oc.Material.apply(render.DefaultMaterial()); err != nil {
			return fmt.Errorf("material: %w", err)
		}
	}
	return nil
}

func shape(name string) ([]render.Vertex, error) {
	switch strings.ToLower(name) {
	case "quad":
		return Quad(), nil
	case "triangle":
		return Triangle(), nil
	case "cube":
		return Cube(), nil
	}
	return nil, fmt.Errorf("shape %q: %w", name, ErrConfig)
}

func (oc ObjectConfig) build(resolve func(string) string, textures map[string]*render.Texture) (*Object, error) {
	var o *Object
	if oc.Shape != "" {
		vertices, err := shape(oc.Shape)
		if err != nil {
			return nil, err
		}
		o = NewObject(oc.Name, vertices)
	} else {
		mesh, err := models.Load(resolve(oc.Model))
		if err != nil {
			return nil, err
		}
		if oc.ModelScale > 0 {
			s := oc.ModelScale
			mesh.Transform(math3d.Scale(math3d.V3(s, s, s)))
		}
		if oc.Fit > 0 {
			mesh.Fit(oc.Fit)
		}
		o = ObjectFromMesh(oc.Name, mesh)
	}
	if o.Name == "" {
		if oc.Shape != "" {
			o.Name = strings.ToLower(oc.Shape)
		} else {
			o.Name = filepath.Base(oc.Model)
		}
	}

	if oc.Texture != "" {
		tex, ok := textures[oc.Texture]
		if !ok {
			var err error
			tex, err = render.LoadTexture(resolve(oc.Texture))
			if err != nil {
				return nil, err
			}
			textures[oc.Texture] = tex
		}
		o.SetTexture(tex)
	}

	if oc.Material != nil {
		for i := range o.Parts {
			m, err := oc.Material.apply(o.Parts[i].Material)
			if err != nil {
				return nil, err
			}
			o.Parts[i].Material = m
		}
	}

	var err error
	if o.Position, err = vec3(oc.Position, math3d.Vec3{}); err != nil {
		return nil, err
	}
	rot, err := vec3(oc.Rotation, math3d.Vec3{})
	if err != nil {
		return nil, err
	}
	o.Rotation = rot.Scale(radians(1))
	turn, err := vec3(oc.Turn, math3d.Vec3{})
	if err != nil {
		return nil, err
	}
	o.Turn = turn.Scale(radians(1))

	switch len(oc.Scale) {
	case 0:
	case 1:
		o.Scale = math3d.V3(oc.Scale[0], oc.Scale[0], oc.Scale[0])
	default:
		if o.Scale, err = vec3(oc.Scale, math3d.V3(1, 1, 1)); err != nil {
			return nil, err
		}
	}

	if len(oc.Spin) > 0 {
		impulse, err := vec3(oc.Spin, math3d.Vec3{})
		if err != nil {
			return nil, err
		}
		impulse = impulse.Scale(radians(1))
		o.Spin = NewSpin(60)
		o.Spin.Impulse(impulse.X, impulse.Y, impulse.Z)
	}
	o.Hidden = oc.Hidden
	return o, nil
}

func (mc *MaterialConfig) apply(m render.Material) (render.Material, error) {
	var err error
	if m.Ambient, err = colorOr(mc.Ambient, m.Ambient); err != nil {
		return m, fmt.Errorf("ambient: %w", err)
	}
	if m.Diffuse, err = colorOr(mc.Diffuse, m.Diffuse); err != nil {
		return m, fmt.Errorf("diffuse: %w", err)
	}
	if m.Specular, err = colorOr(mc.Specular, m.Specular); err != nil {
		return m, fmt.Errorf("specular: %w", err)
	}
	if m.Emission, err = colorOr(mc.Emission, m.Emission); err != nil {
		return m, fmt.Errorf("emission: %w", err)
	}
	if mc.Shininess != nil {
		m.Shininess = *mc.Shininess
	}
	return m, nil
}

func (lc LightConfig) light() (Light, error) {
	pos, err := vec3(lc.Position, math3d.Vec3{})
	if err != nil {
		return Light{}, fmt.Errorf("position: %w", err)
	}

	var l Light
	switch strings.ToLower(lc.Type) {
	case "", "point":
		l = NewPointLight(pos, render.ColorWhite)
	case "directional":
		l = NewDirectionalLight(pos, render.ColorWhite)
	default:
		return Light{}, fmt.Errorf("light type %q: %w", lc.Type, ErrConfig)
	}

	if l.Ambient, err = colorOr(lc.Ambient, l.Ambient); err != nil {
		return l, fmt.Errorf("ambient: %w", err)
	}
	if l.Diffuse, err = colorOr(lc.Diffuse, l.Diffuse); err != nil {
		return l, fmt.Errorf("diffuse: %w", err)
	}
	if l.Specular, err = colorOr(lc.Specular, l.Specular); err != nil {
		return l, fmt.Errorf("specular: %w", err)
	}
	switch len(lc.Attenuation) {
	case 0:
	case 3:
		l.Constant, l.Linear, l.Quadratic = lc.Attenuation[0], lc.Attenuation[1], lc.Attenuation[2]
	default:
		return l, fmt.Errorf("attenuation wants 3 values, got %d: %w", len(lc.Attenuation), ErrConfig)
	}
	l.Bob = lc.Bob
	l.Invert = lc.Invert
	return l, nil
}

func vec3(v []float64, def math3d.Vec3) (math3d.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return math3d.V3(v[0], v[1], v[2]), nil
	}
	return def, fmt.Errorf("want 3 values, got %d: %w", len(v), ErrConfig)
}

func colorOr(v []float64, def render.Color) (render.Color, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return render.RGB(v[0], v[1], v[2]), nil
	case 4:
		return render.RGBA(v[0], v[1], v[2], v[3]), nil
	}
	return def, fmt.Errorf("color wants 3 or 4 values, got %d: %w", len(v), ErrConfig)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
