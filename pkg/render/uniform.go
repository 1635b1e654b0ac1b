package render

import (
	"fmt"
	"strings"

	"github.com/taigrr/softrast/pkg/math3d"
)

// MaxLights is the number of light slots in a Uniform.
const MaxLights = 8

// Light is one light slot. Position.W == 0 makes it directional (Position
// then points toward the light), W == 1 makes it a point light.
type Light struct {
	Enabled   bool
	Position  math3d.Vec4
	Ambient   Color
	Diffuse   Color
	Specular  Color
	Constant  float64 // constant attenuation
	Linear    float64 // linear attenuation
	Quadratic float64 // quadratic attenuation
}

// DefaultLight returns a disabled white point light at the origin.
func DefaultLight() Light {
	return Light{
		Position:  math3d.V4(0, 0, 0, 1),
		Ambient:   Color{0, 0, 0, 1},
		Diffuse:   ColorWhite,
		Specular:  ColorWhite,
		Constant:  1,
		Linear:    0,
		Quadratic: 0,
	}
}

// Material describes how a surface responds to light.
type Material struct {
	Ambient   Color
	Diffuse   Color
	Specular  Color
	Emission  Color
	Shininess float64
}

// DefaultMaterial returns the fixed-function default material.
func DefaultMaterial() Material {
	return Material{
		Ambient:   Color{0.2, 0.2, 0.2, 1},
		Diffuse:   Color{0.8, 0.8, 0.8, 1},
		Specular:  Color{0, 0, 0, 1},
		Emission:  Color{0, 0, 0, 0},
		Shininess: 20,
	}
}

// Viewport maps NDC onto a rectangle of the framebuffer.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// FrontFace selects which winding counts as front facing.
type FrontFace int

const (
	FrontCW FrontFace = iota
	FrontCCW
)

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
	CullFrontAndBack
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// DepthFunc decides whether an incoming depth replaces the stored one.
type DepthFunc int

const (
	DepthGreater DepthFunc = iota // new > stored wins; near maps to 1
	DepthGreaterEqual
	DepthLess
	DepthLessEqual
	DepthAlways
)

// Pass reports whether depth z passes against stored.
func (f DepthFunc) Pass(z, stored float64) bool {
	switch f {
	case DepthGreaterEqual:
		return z >= stored
	case DepthLess:
		return z < stored
	case DepthLessEqual:
		return z <= stored
	case DepthAlways:
		return true
	default:
		return z > stored
	}
}

// ClearValue is the depth a buffer must be cleared to for f.
func (f DepthFunc) ClearValue() float64 {
	switch f {
	case DepthLess, DepthLessEqual:
		return 1
	default:
		return 0
	}
}

// CutoutFunc compares fragment alpha against the cutout threshold.
type CutoutFunc int

const (
	CutoutGreaterEqual CutoutFunc = iota
	CutoutGreater
)

// Pass reports whether alpha passes the cutout threshold.
func (f CutoutFunc) Pass(alpha, cutout float64) bool {
	if f == CutoutGreater {
		return alpha > cutout
	}
	return alpha >= cutout
}

// SpecularMode controls how often the material specular color is applied.
type SpecularMode int

const (
	SpecularOnce SpecularMode = iota
	SpecularTwice
)

// Policy groups the numeric choices that differ between renderer variants.
type Policy struct {
	Depth    DepthFunc
	Cutout   CutoutFunc
	Specular SpecularMode
}

// DefaultPolicy returns strict-greater depth, alpha >= cutout and specular
// applied once.
func DefaultPolicy() Policy {
	return Policy{Depth: DepthGreater, Cutout: CutoutGreaterEqual, Specular: SpecularOnce}
}

// Uniform is the frame state read by every pipeline stage.
type Uniform struct {
	Model      math3d.Mat4
	View       math3d.Mat4
	Projection math3d.Mat4
	ViewProj   math3d.Mat4 // Projection * View, refreshed per draw call

	Lights   [MaxLights]Light
	Material Material
	Texture  *Texture // nil samples as opaque white

	Time          float64
	DeltaTime     float64
	CameraPos     math3d.Vec3
	GlobalAmbient Color
	GlobalColor   Color
	Cutout        float64
	Gamma         float64
	LineColor     Color
	ClearColor    Color

	DepthTest             bool
	DepthWrite            bool
	Blending              bool
	MSAA                  bool
	Lighting              bool
	Phong                 bool
	PerspectiveCorrection bool
	FillTriangles         bool
	Wireframe             bool
	BoxBlur               bool
	GaussianBlur          bool
	LightBloom            bool

	FrontFace FrontFace
	CullMode  CullMode
	Filter    FilterMode
	Policy    Policy
}

// DefaultUniform returns the state a new Renderer starts with.
func DefaultUniform() Uniform {
	u := Uniform{
		Model:         math3d.Identity(),
		View:          math3d.Identity(),
		Projection:    math3d.Identity(),
		ViewProj:      math3d.Identity(),
		Material:      DefaultMaterial(),
		GlobalAmbient: Color{0.2, 0.2, 0.2, 1},
		GlobalColor:   ColorWhite,
		Cutout:        0.5,
		Gamma:         2.2,
		LineColor:     ColorWhite,
		ClearColor:    ColorBlack,

		DepthTest:             true,
		DepthWrite:            true,
		Blending:              true,
		MSAA:                  true,
		Lighting:              true,
		PerspectiveCorrection: true,
		FillTriangles:         true,

		FrontFace: FrontCW,
		CullMode:  CullBack,
		Filter:    FilterNearest,
		Policy:    DefaultPolicy(),
	}
	for i := range u.Lights {
		u.Lights[i] = DefaultLight()
	}
	return u
}

// UniformKind names one scalar, vector or toggle in the Uniform.
type UniformKind int

const (
	UniformTime UniformKind = iota
	UniformDeltaTime
	UniformCameraPos
	UniformGlobalAmbient
	UniformGlobalColor
	UniformCutout
	UniformGamma
	UniformLineColor
	UniformClearColor

	UniformDepthTest
	UniformDepthWrite
	UniformBlending
	UniformMSAA
	UniformLighting
	UniformPhong
	UniformPerspectiveCorrection
	UniformFillTriangles
	UniformWireframe
	UniformBoxBlur
	UniformGaussianBlur
	UniformLightBloom

	uniformKindCount
)

var uniformKinds = [uniformKindCount]struct {
	name  string
	arity int // float count, 0 for toggles
}{
	UniformTime:                  {"time", 1},
	UniformDeltaTime:             {"delta_time", 1},
	UniformCameraPos:             {"camera_pos", 3},
	UniformGlobalAmbient:         {"global_ambient", 4},
	UniformGlobalColor:           {"global_color", 4},
	UniformCutout:                {"cutout", 1},
	UniformGamma:                 {"gamma", 1},
	UniformLineColor:             {"line_color", 4},
	UniformClearColor:            {"clear_color", 4},
	UniformDepthTest:             {"depth_test", 0},
	UniformDepthWrite:            {"depth_write", 0},
	UniformBlending:              {"blending", 0},
	UniformMSAA:                  {"msaa", 0},
	UniformLighting:              {"lighting", 0},
	UniformPhong:                 {"phong", 0},
	UniformPerspectiveCorrection: {"perspective_correction", 0},
	UniformFillTriangles:         {"fill_triangles", 0},
	UniformWireframe:             {"wireframe", 0},
	UniformBoxBlur:               {"box_blur", 0},
	UniformGaussianBlur:          {"gaussian_blur", 0},
	UniformLightBloom:            {"light_bloom", 0},
}

func (k UniformKind) String() string {
	if k < 0 || k >= uniformKindCount {
		return fmt.Sprintf("UniformKind(%d)", int(k))
	}
	return uniformKinds[k].name
}

// IsBool reports whether k is a toggle set through SetUniformBool.
func (k UniformKind) IsBool() bool {
	return k >= 0 && k < uniformKindCount && uniformKinds[k].arity == 0
}

// Arity is the number of floats a float kind takes, 0 for toggles.
func (k UniformKind) Arity() int {
	if k < 0 || k >= uniformKindCount {
		return 0
	}
	return uniformKinds[k].arity
}

// ParseUniformKind resolves a kind from its snake_case name.
func ParseUniformKind(s string) (UniformKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := range uniformKindCount {
		if uniformKinds[k].name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("uniform kind %q: %w", s, ErrUnknownName)
}

func (u *Uniform) setFloat(kind UniformKind, values []float64) error {
	if kind < 0 || kind >= uniformKindCount || kind.IsBool() {
		return fmt.Errorf("set float %v: %w", kind, ErrUniformKind)
	}
	if len(values) != kind.Arity() {
		return fmt.Errorf("set float %v: got %d values, want %d: %w",
			kind, len(values), kind.Arity(), ErrUniformValue)
	}

	switch kind {
	case UniformTime:
		u.Time = values[0]
	case UniformDeltaTime:
		u.DeltaTime = values[0]
	case UniformCameraPos:
		u.CameraPos = math3d.V3(values[0], values[1], values[2])
	case UniformGlobalAmbient:
		u.GlobalAmbient = colorOf(values)
	case UniformGlobalColor:
		u.GlobalColor = colorOf(values)
	case UniformCutout:
		u.Cutout = values[0]
	case UniformGamma:
		if !(values[0] > 0) {
			return fmt.Errorf("set float %v to %v: %w", kind, values[0], ErrGamma)
		}
		u.Gamma = values[0]
	case UniformLineColor:
		u.LineColor = colorOf(values)
	case UniformClearColor:
		u.ClearColor = colorOf(values)
	}
	return nil
}

func (u *Uniform) setBool(kind UniformKind, v bool) error {
	if !kind.IsBool() {
		return fmt.Errorf("set bool %v: %w", kind, ErrUniformKind)
	}

	switch kind {
	case UniformDepthTest:
		u.DepthTest = v
	case UniformDepthWrite:
		u.DepthWrite = v
	case UniformBlending:
		u.Blending = v
	case UniformMSAA:
		u.MSAA = v
	case UniformLighting:
		u.Lighting = v
	case UniformPhong:
		u.Phong = v
	case UniformPerspectiveCorrection:
		u.PerspectiveCorrection = v
	case UniformFillTriangles:
		u.FillTriangles = v
	case UniformWireframe:
		u.Wireframe = v
	case UniformBoxBlur:
		u.BoxBlur = v
	case UniformGaussianBlur:
		u.GaussianBlur = v
	case UniformLightBloom:
		u.LightBloom = v
	}
	return nil
}

// Bool returns the current value of a toggle kind.
func (u *Uniform) Bool(kind UniformKind) bool {
	switch kind {
	case UniformDepthTest:
		return u.DepthTest
	case UniformDepthWrite:
		return u.DepthWrite
	case UniformBlending:
		return u.Blending
	case UniformMSAA:
		return u.MSAA
	case UniformLighting:
		return u.Lighting
	case UniformPhong:
		return u.Phong
	case UniformPerspectiveCorrection:
		return u.PerspectiveCorrection
	case UniformFillTriangles:
		return u.FillTriangles
	case UniformWireframe:
		return u.Wireframe
	case UniformBoxBlur:
		return u.BoxBlur
	case UniformGaussianBlur:
		return u.GaussianBlur
	case UniformLightBloom:
		return u.LightBloom
	}
	return false
}

func colorOf(v []float64) Color {
	return Color{v[0], v[1], v[2], v[3]}
}

var (
	frontFaceNames  = []string{"cw", "ccw"}
	cullModeNames   = []string{"none", "back", "front", "front_and_back"}
	filterNames     = []string{"nearest", "bilinear"}
	depthFuncNames  = []string{"greater", "greater_equal", "less", "less_equal", "always"}
	cutoutFuncNames = []string{"greater_equal", "greater"}
	specularNames   = []string{"once", "twice"}
)

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("%d", v)
	}
	return names[v]
}

func parseEnum[T ~int](what string, names []string, s string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("%s %q: %w", what, s, ErrUnknownName)
}

func (f FrontFace) String() string    { return enumName(frontFaceNames, int(f)) }
func (m CullMode) String() string     { return enumName(cullModeNames, int(m)) }
func (f FilterMode) String() string   { return enumName(filterNames, int(f)) }
func (f DepthFunc) String() string    { return enumName(depthFuncNames, int(f)) }
func (f CutoutFunc) String() string   { return enumName(cutoutFuncNames, int(f)) }
func (m SpecularMode) String() string { return enumName(specularNames, int(m)) }

// ParseFrontFace parses "cw" or "ccw".
func ParseFrontFace(s string) (FrontFace, error) {
	return parseEnum[FrontFace]("front face", frontFaceNames, s)
}

// ParseCullMode parses "none", "back", "front" or "front_and_back".
func ParseCullMode(s string) (CullMode, error) {
	return parseEnum[CullMode]("cull mode", cullModeNames, s)
}

// ParseFilterMode parses "nearest" or "bilinear".
func ParseFilterMode(s string) (FilterMode, error) {
	return parseEnum[FilterMode]("filter", filterNames, s)
}

// ParseDepthFunc parses a depth comparison name such as "greater".
func ParseDepthFunc(s string) (DepthFunc, error) {
	return parseEnum[DepthFunc]("depth func", depthFuncNames, s)
}

// ParseCutoutFunc parses "greater_equal" or "greater".
func ParseCutoutFunc(s string) (CutoutFunc, error) {
	return parseEnum[CutoutFunc]("cutout func", cutoutFuncNames, s)
}

// ParseSpecularMode parses "once" or "twice".
func ParseSpecularMode(s string) (SpecularMode, error) {
	return parseEnum[SpecularMode]("specular mode", specularNames, s)
}
