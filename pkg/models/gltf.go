package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	LoadTextures     bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		LoadTextures:     true,
	}
}

// LoadGLTF loads a .gltf or .glb file with the default options.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	return LoadGLTF(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	mesh, err := l.fromDocument(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("load gltf %s: %w", path, err)
	}
	mesh.Name = filepath.Base(path)

	render.Logger().Info("model loaded", "path", path, "format", "gltf",
		"vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount(),
		"materials", mesh.MaterialCount())
	return mesh, nil
}

// fromDocument converts every triangle primitive of doc. dir resolves
// external image URIs.
func (l *GLTFLoader) fromDocument(doc *gltf.Document, dir string) (*Mesh, error) {
	mesh := NewMesh("")

	for _, mat := range doc.Materials {
		mesh.Materials = append(mesh.Materials, l.convertMaterial(doc, mat, dir))
	}

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if l.CalculateNormals && !mesh.hasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// convertMaterial maps the PBR base color onto the fixed-function diffuse
// term. Metallic and roughness have no counterpart and are dropped.
func (l *GLTFLoader) convertMaterial(doc *gltf.Document, mat *gltf.Material, dir string) Material {
	out := DefaultMaterial()
	out.Name = mat.Name

	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return out
	}
	if f := pbr.BaseColorFactor; f != nil {
		out.Diffuse = render.RGB(f[0], f[1], f[2])
		out.Opacity = f[3]
	}
	if pbr.BaseColorTexture != nil && l.LoadTextures {
		img, err := decodeTexture(doc, pbr.BaseColorTexture.Index, dir)
		if err != nil {
			render.Logger().Warn("gltf texture skipped", "material", mat.Name, "err", err)
		} else {
			out.Texture = img
		}
	}
	return out
}

// processMesh extracts geometry from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Skip non-triangle primitives (lines, points, strips)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		var colors []render.Color
		if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			colors, err = readColorAccessor(doc, colIdx)
			if err != nil {
				return fmt.Errorf("read colors: %w", err)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		baseVertex := len(mesh.Vertices)

		for i := range positions {
			v := MeshVertex{
				Position: positions[i],
				Color:    render.ColorWhite,
			}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			if i < len(colors) {
				v.Color = colors[i]
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// Counter-clockwise glTF winding is front-facing under the
		// renderer's default FrontCW once projected, so it is kept as is.
		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{
				V:        [3]int{baseVertex + indices[i], baseVertex + indices[i+1], baseVertex + indices[i+2]},
				Material: material,
			}
			if f.V[0] >= len(mesh.Vertices) || f.V[1] >= len(mesh.Vertices) || f.V[2] >= len(mesh.Vertices) {
				return fmt.Errorf("index out of range at triangle %d", i/3)
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}

	return nil
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	rows, err := readAccessorFloats(doc, accessorIdx, gltf.AccessorVec3)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec3, len(rows))
	for i, f := range rows {
		result[i] = math3d.V3(f[0], f[1], f[2])
	}
	return result, nil
}

// readVec2Accessor reads Vec2 data from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	rows, err := readAccessorFloats(doc, accessorIdx, gltf.AccessorVec2)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec2, len(rows))
	for i, f := range rows {
		result[i] = math3d.V2(f[0], f[1])
	}
	return result, nil
}

// readColorAccessor reads COLOR_0, which may be RGB or RGBA.
func readColorAccessor(doc *gltf.Document, accessorIdx int) ([]render.Color, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	typ := doc.Accessors[accessorIdx].Type
	rows, err := readAccessorFloats(doc, accessorIdx, typ)
	if err != nil {
		return nil, err
	}
	result := make([]render.Color, len(rows))
	for i, f := range rows {
		switch len(f) {
		case 3:
			result[i] = render.RGB(f[0], f[1], f[2])
		case 4:
			result[i] = render.RGBA(f[0], f[1], f[2], f[3])
		default:
			return nil, fmt.Errorf("expected VEC3 or VEC4 colors, got %v", typ)
		}
	}
	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	data, stride, err := accessorBytes(doc, accessor, 1)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			result[i] = int(b[0])
		case gltf.ComponentUshort:
			result[i] = int(binary.LittleEndian.Uint16(b))
		case gltf.ComponentUint:
			result[i] = int(binary.LittleEndian.Uint32(b))
		default:
			return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
		}
	}
	return result, nil
}

func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

func componentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

// readAccessorFloats reads a float or normalized-integer accessor of the
// given type into rows of float64.
func readAccessorFloats(doc *gltf.Document, accessorIdx int, want gltf.AccessorType) ([][]float64, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != want {
		return nil, fmt.Errorf("expected %v, got %v", want, accessor.Type)
	}
	n := componentCount(accessor.Type)
	if n == 0 {
		return nil, fmt.Errorf("unsupported accessor type: %v", accessor.Type)
	}

	data, stride, err := accessorBytes(doc, accessor, n)
	if err != nil {
		return nil, err
	}
	size := componentSize(accessor.ComponentType)

	rows := make([][]float64, accessor.Count)
	for i := range rows {
		row := make([]float64, n)
		for j := range n {
			b := data[i*stride+j*size:]
			switch accessor.ComponentType {
			case gltf.ComponentFloat:
				row[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			case gltf.ComponentUbyte:
				row[j] = float64(b[0]) / 255
			case gltf.ComponentUshort:
				row[j] = float64(binary.LittleEndian.Uint16(b)) / 65535
			default:
				return nil, fmt.Errorf("unsupported component type: %v", accessor.ComponentType)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// accessorBytes returns the buffer slice starting at the accessor's first
// element and the element stride, after checking the whole range fits.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, components int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	if *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d out of range", *accessor.BufferView)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	if bufferView.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d out of range", bufferView.Buffer)
	}

	// gltf.Open fills Data for both GLB chunks and external .bin files.
	bufData := doc.Buffers[bufferView.Buffer].Data
	if bufData == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	elem := components * componentSize(accessor.ComponentType)
	if elem == 0 {
		return nil, 0, fmt.Errorf("unsupported component type: %v", accessor.ComponentType)
	}
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elem
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	if accessor.Count == 0 {
		return nil, stride, nil
	}
	end := start + (accessor.Count-1)*stride + elem
	if start < 0 || end > len(bufData) {
		return nil, 0, fmt.Errorf("accessor range %d..%d exceeds buffer of %d bytes", start, end, len(bufData))
	}
	return bufData[start:end], stride, nil
}

// imageBytes returns the encoded bytes of image i, embedded or external.
func imageBytes(doc *gltf.Document, i int, dir string) ([]byte, error) {
	if i < 0 || i >= len(doc.Images) {
		return nil, fmt.Errorf("image %d out of range", i)
	}
	img := doc.Images[i]
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		start, end := bv.ByteOffset, bv.ByteOffset+bv.ByteLength
		if buf.Data == nil || end > len(buf.Data) {
			return nil, fmt.Errorf("image %d: buffer view out of range", i)
		}
		return buf.Data[start:end], nil
	case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(img.URI)))
	}
	return nil, fmt.Errorf("image %d has no data", i)
}

// decodeTexture decodes the image behind texture index tex.
func decodeTexture(doc *gltf.Document, tex int, dir string) (image.Image, error) {
	if tex < 0 || tex >= len(doc.Textures) || doc.Textures[tex].Source == nil {
		return nil, fmt.Errorf("texture %d has no source", tex)
	}
	data, err := imageBytes(doc, *doc.Textures[tex].Source, dir)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture %d: %w", tex, err)
	}
	return img, nil
}

// LoadGLTFWithTextures loads a GLTF file and extracts embedded textures.
// Returns the mesh and a map of image index to encoded texture data.
func LoadGLTFWithTextures(path string) (*Mesh, map[int][]byte, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	dir := filepath.Dir(path)
	mesh, err := NewGLTFLoader().fromDocument(doc, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load gltf %s: %w", path, err)
	}
	mesh.Name = filepath.Base(path)

	textures := make(map[int][]byte)
	for i := range doc.Images {
		data, err := imageBytes(doc, i, dir)
		if err != nil {
			render.Logger().Debug("gltf image skipped", "path", path, "image", i, "err", err)
			continue
		}
		textures[i] = data
	}

	return mesh, textures, nil
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// texture found, preferring one referenced by a material.
// Texture may be nil if the file carries none.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	mesh, textures, err := LoadGLTFWithTextures(path)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range mesh.Materials {
		if m.Texture != nil {
			return mesh, m.Texture, nil
		}
	}

	for _, i := range slices.Sorted(maps.Keys(textures)) {
		img, _, err := image.Decode(bytes.NewReader(textures[i]))
		if err == nil {
			return mesh, img, nil
		}
	}

	return mesh, nil, nil
}
