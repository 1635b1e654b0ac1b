package render

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/taigrr/softrast/pkg/math3d"
)

// Texture holds a 2D image for texture mapping. Pixels are row-major with
// row 0 at v = 0, the bottom of the picture; loaders flip image rows to
// match.
type Texture struct {
	Width  int
	Height int
	Pixels []Color
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// LoadTexture loads a texture from an image file. PNG, JPEG, GIF, BMP, TIFF
// and WebP are supported.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	tex := TextureFromImage(img)
	Logger().Info("texture loaded", "path", path, "format", format,
		"width", tex.Width, "height", tex.Height)
	return tex, nil
}

// TextureFromImage creates a texture from an image.Image, flipping rows so
// the top image row lands at v = 1.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex := NewTexture(width, height)

	for y := range height {
		row := height - 1 - y
		for x := range width {
			tex.SetPixel(x, row, ColorFromRGBA(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}

	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			cx := x / checkSize
			cy := y / checkSize
			if (cx+cy)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// At returns the pixel at (x, y) with bounds checking.
func (t *Texture) At(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

func (t *Texture) valid() bool {
	return t != nil && t.Width > 0 && t.Height > 0 && len(t.Pixels) >= t.Width*t.Height
}

// Sample samples the texture at (u, v), wrapping both coordinates into
// [0, 1). A nil or empty texture samples as opaque white.
func (t *Texture) Sample(u, v float64, filter FilterMode) Color {
	if !t.valid() {
		return ColorWhite
	}

	u = math3d.Wrap01(u)
	v = math3d.Wrap01(v)

	if filter == FilterBilinear {
		return t.sampleBilinear(u, v)
	}
	return t.sampleNearest(u, v)
}

// sampleNearest returns the nearest pixel.
func (t *Texture) sampleNearest(u, v float64) Color {
	x := int(math.Floor(u * float64(t.Width)))
	y := int(math.Floor(v * float64(t.Height)))

	// Clamp to valid range
	x = min(max(x, 0), t.Width-1)
	y = min(max(y, 0), t.Height-1)

	return t.Pixels[y*t.Width+x]
}

// sampleBilinear blends the 2x2 texels around (u, v). Texel centers sit at
// half-integer texel coordinates, so a sample exactly at a center returns
// that texel unchanged.
func (t *Texture) sampleBilinear(u, v float64) Color {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))

	// Fractional parts
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := wrapPixelCoord(x0+1, t.Width)
	y1 := wrapPixelCoord(y0+1, t.Height)
	x0 = wrapPixelCoord(x0, t.Width)
	y0 = wrapPixelCoord(y0, t.Height)

	c00 := t.Pixels[y0*t.Width+x0]
	c10 := t.Pixels[y0*t.Width+x1]
	c01 := t.Pixels[y1*t.Width+x0]
	c11 := t.Pixels[y1*t.Width+x1]

	return Color{
		R: math3d.Bilinear(tx, ty, c00.R, c10.R, c01.R, c11.R),
		G: math3d.Bilinear(tx, ty, c00.G, c10.G, c01.G, c11.G),
		B: math3d.Bilinear(tx, ty, c00.B, c10.B, c01.B, c11.B),
		A: math3d.Bilinear(tx, ty, c00.A, c10.A, c01.A, c11.A),
	}
}

// wrapPixelCoord wraps a texel index into [0, size).
func wrapPixelCoord(x, size int) int {
	x %= size
	if x < 0 {
		x += size
	}
	return x
}
