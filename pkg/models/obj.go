package models

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

var (
	// ErrSyntax is wrapped by OBJ and MTL parse errors.
	ErrSyntax = errors.New("models: syntax error")
	// ErrIndex is wrapped when a face references a missing vertex.
	ErrIndex = errors.New("models: index out of range")
)

// OBJLoader loads Wavefront OBJ files and their MTL libraries.
type OBJLoader struct {
	Scale         float64 // applied to positions on load, 0 means 1
	SmoothNormals bool    // used when the file has no normals
	LoadTextures  bool    // decode map_Kd images
}

// NewOBJLoader creates a loader with unit scale, smooth normals and
// texture loading.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{Scale: 1, SmoothNormals: true, LoadTextures: true}
}

// LoadOBJ loads an OBJ file with the default options.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().Load(path)
}

// Load reads path and any material libraries it names.
func (l *OBJLoader) Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, err := l.parse(f, path)
	if err != nil {
		return nil, err
	}

	render.Logger().Info("model loaded", "path", path, "format", "obj",
		"vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount(),
		"materials", mesh.MaterialCount())
	return mesh, nil
}

// objIndex identifies one v/vt/vn corner; -1 marks a missing attribute.
type objIndex struct {
	v, vt, vn int
}

type objParser struct {
	loader *OBJLoader
	path   string
	dir    string
	mesh   *Mesh

	positions []math3d.Vec3
	colors    []render.Color
	uvs       []math3d.Vec2
	normals   []math3d.Vec3

	corners   map[objIndex]int
	materials map[string]int
	material  int
	hasNormal bool
}

func (l *OBJLoader) parse(r io.Reader, path string) (*Mesh, error) {
	p := &objParser{
		loader:    l,
		path:      path,
		dir:       filepath.Dir(path),
		mesh:      NewMesh(filepath.Base(path)),
		corners:   make(map[objIndex]int),
		materials: make(map[string]int),
		material:  -1,
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, fmt.Errorf("parse obj %s:%d: %w", path, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj %s: %w", path, err)
	}

	mesh := p.mesh
	if !p.hasNormal {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func (p *objParser) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	switch fields[0] {
	case "v":
		v, err := parseFloats(args, 3, 6)
		if err != nil {
			return err
		}
		scale := p.loader.Scale
		if scale == 0 {
			scale = 1
		}
		p.positions = append(p.positions, math3d.V3(v[0], v[1], v[2]).Scale(scale))
		c := render.ColorWhite
		if len(v) >= 6 {
			c = render.RGB(v[3], v[4], v[5])
		}
		p.colors = append(p.colors, c)
	case "vt":
		v, err := parseFloats(args, 1, 3)
		if err != nil {
			return err
		}
		uv := math3d.V2(v[0], 0)
		if len(v) > 1 {
			uv.Y = v[1]
		}
		p.uvs = append(p.uvs, uv)
	case "vn":
		v, err := parseFloats(args, 3, 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, math3d.V3(v[0], v[1], v[2]).Normalize())
	case "f":
		return p.parseFace(args)
	case "o", "g":
		if len(args) > 0 && p.mesh.Name == filepath.Base(p.path) {
			p.mesh.Name = args[0]
		}
	case "usemtl":
		if len(args) == 0 {
			return fmt.Errorf("usemtl without a name: %w", ErrSyntax)
		}
		idx, ok := p.materials[args[0]]
		if !ok {
			// Referenced before (or without) a library defining it.
			m := DefaultMaterial()
			m.Name = args[0]
			idx = len(p.mesh.Materials)
			p.mesh.Materials = append(p.mesh.Materials, m)
			p.materials[args[0]] = idx
		}
		p.material = idx
	case "mtllib":
		for _, name := range args {
			if err := p.loadMTL(filepath.Join(p.dir, name)); err != nil {
				return err
			}
		}
	case "s", "l", "p", "vp", "cstype", "deg", "curv", "surf", "end":
		// Smoothing groups and free-form geometry are ignored.
	default:
		render.Logger().Debug("obj statement ignored", "path", p.path, "keyword", fields[0])
	}
	return nil
}

// parseFace fan-triangulates a polygon of v, v/vt, v//vn or v/vt/vn
// corners.
func (p *objParser) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face with %d vertices: %w", len(args), ErrSyntax)
	}

	idx := make([]int, len(args))
	for i, a := range args {
		c, err := p.parseCorner(a)
		if err != nil {
			return err
		}
		idx[i] = p.vertex(c)
	}

	for i := 1; i+1 < len(idx); i++ {
		p.mesh.Faces = append(p.mesh.Faces, Face{
			V:        [3]int{idx[0], idx[i], idx[i+1]},
			Material: p.material,
		})
	}
	return nil
}

func (p *objParser) parseCorner(s string) (objIndex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objIndex{}, fmt.Errorf("face corner %q: %w", s, ErrSyntax)
	}

	c := objIndex{-1, -1, -1}
	var err error
	if c.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return c, fmt.Errorf("vertex %q: %w", s, err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolveIndex(parts[1], len(p.uvs)); err != nil {
			return c, fmt.Errorf("texcoord %q: %w", s, err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return c, fmt.Errorf("normal %q: %w", s, err)
		}
	}
	return c, nil
}

// resolveIndex turns a 1-based or negative (relative) OBJ index into a
// 0-based one.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("%d of %d: %w", i, n, ErrIndex)
}

// vertex returns the mesh vertex for a corner, sharing identical corners.
func (p *objParser) vertex(c objIndex) int {
	if i, ok := p.corners[c]; ok {
		return i
	}
	v := MeshVertex{
		Position: p.positions[c.v],
		Color:    p.colors[c.v],
	}
	if c.vt >= 0 {
		v.UV = p.uvs[c.vt]
	}
	if c.vn >= 0 {
		v.Normal = p.normals[c.vn]
		p.hasNormal = true
	}
	i := len(p.mesh.Vertices)
	p.mesh.Vertices = append(p.mesh.Vertices, v)
	p.corners[c] = i
	return i
}

func (p *objParser) loadMTL(path string) error {
	f, err := os.Open(path)
	if err != nil {
		// A missing library leaves faces with default materials.
		render.Logger().Warn("material library missing", "path", path, "err", err)
		return nil
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	var cur *Material
	for sc.Scan() {
		line++
		if err := p.parseMTLLine(sc.Text(), filepath.Dir(path), &cur); err != nil {
			return fmt.Errorf("parse mtl %s:%d: %w", path, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read mtl %s: %w", path, err)
	}
	return nil
}

func (p *objParser) parseMTLLine(text, dir string, cur **Material) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	if fields[0] == "newmtl" {
		if len(args) == 0 {
			return fmt.Errorf("newmtl without a name: %w", ErrSyntax)
		}
		m := DefaultMaterial()
		m.Name = args[0]
		idx, ok := p.materials[m.Name]
		if ok {
			p.mesh.Materials[idx] = m
		} else {
			idx = len(p.mesh.Materials)
			p.mesh.Materials = append(p.mesh.Materials, m)
			p.materials[m.Name] = idx
		}
		*cur = &p.mesh.Materials[idx]
		return nil
	}

	m := *cur
	if m == nil {
		return fmt.Errorf("%s before newmtl: %w", fields[0], ErrSyntax)
	}

	switch fields[0] {
	case "Ka", "Kd", "Ks", "Ke":
		v, err := parseFloats(args, 1, 3)
		if err != nil {
			return err
		}
		if len(v) == 1 {
			v = []float64{v[0], v[0], v[0]}
		} else if len(v) == 2 {
			return fmt.Errorf("%s with 2 components: %w", fields[0], ErrSyntax)
		}
		c := render.RGB(v[0], v[1], v[2])
		switch fields[0] {
		case "Ka":
			m.Ambient = c
		case "Kd":
			m.Diffuse = c
		case "Ks":
			m.Specular = c
		case "Ke":
			m.Emission = c
		}
	case "Ns":
		v, err := parseFloats(args, 1, 1)
		if err != nil {
			return err
		}
		m.Shininess = v[0]
	case "d":
		v, err := parseFloats(args, 1, 1)
		if err != nil {
			return err
		}
		m.Opacity = v[0]
	case "Tr":
		v, err := parseFloats(args, 1, 1)
		if err != nil {
			return err
		}
		m.Opacity = 1 - v[0]
	case "map_Kd":
		if len(args) == 0 {
			return fmt.Errorf("map_Kd without a path: %w", ErrSyntax)
		}
		// Options such as -s or -o precede the file name.
		m.TexturePath = filepath.Join(dir, filepath.FromSlash(args[len(args)-1]))
		if p.loader.LoadTextures {
			img, err := decodeImageFile(m.TexturePath)
			if err != nil {
				render.Logger().Warn("texture skipped", "material", m.Name, "err", err)
			} else {
				m.Texture = img
			}
		}
	default:
		render.Logger().Debug("mtl statement ignored", "keyword", fields[0])
	}
	return nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// parseFloats parses between minN and maxN floats.
func parseFloats(args []string, minN, maxN int) ([]float64, error) {
	if len(args) < minN || len(args) > maxN {
		return nil, fmt.Errorf("want %d to %d numbers, got %d: %w", minN, maxN, len(args), ErrSyntax)
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		out[i] = f
	}
	return out, nil
}
