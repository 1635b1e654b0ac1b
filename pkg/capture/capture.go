// Package capture turns rendered color buffers into PNG snapshots and
// animated GIFs.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/taigrr/softrast/pkg/render"
)

var (
	// ErrFrameSize is returned when a color buffer does not match the
	// recorder or snapshot dimensions.
	ErrFrameSize = errors.New("capture: frame size mismatch")
	// ErrNoFrames is returned when encoding an empty recording.
	ErrNoFrames = errors.New("capture: no frames recorded")
)

// Snapshot converts a row-major color buffer to an image, clamping each
// channel to [0, 1]. Alpha is dropped; the result is opaque.
func Snapshot(colors []render.Color, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(colors) < width*height {
		return nil, fmt.Errorf("snapshot %dx%d from %d pixels: %w", width, height, len(colors), ErrFrameSize)
	}
	fb := render.Framebuffer{Width: width, Height: height, Color: colors}
	return fb.ToImage(), nil
}

// Scale resizes img by factor with Catmull-Rom filtering. A factor of 1 (or
// one that rounds to the same size) returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	if factor <= 0 || (w == b.Dx() && h == b.Dy()) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Caption draws text in the bottom-left corner of img, white over a one
// pixel dark shadow.
func Caption(img xdraw.Image, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	b := img.Bounds()
	base := fixed.P(b.Min.X+3, b.Max.Y-4)

	d := &font.Drawer{Dst: img, Face: face}
	d.Src = image.NewUniform(color.RGBA{0, 0, 0, 255})
	d.Dot = base.Add(fixed.P(1, 1))
	d.DrawString(text)

	d.Src = image.NewUniform(color.RGBA{255, 255, 255, 255})
	d.Dot = base
	d.DrawString(text)
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	logSaved(path, "png", 1)
	return nil
}

func logSaved(path, format string, frames int) {
	size := "unknown"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	render.Logger().Info("capture saved", "path", path, "format", format, "frames", frames, "size", size)
}
