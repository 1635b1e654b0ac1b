package render

import "image"

// Framebuffer owns the color and depth buffers a host hands to New.
// In the terminal, two framebuffer rows share one cell through half-block
// characters, so Height is usually twice the row count.
type Framebuffer struct {
	Width  int       // Width in pixels
	Height int       // Height in pixels
	Color  []Color   // Row-major pixel data
	Depth  []float64 // Row-major depth data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Color:  make([]Color, width*height),
		Depth:  make([]float64, width*height),
	}
}

// Clear fills the color buffer with c and the depth buffer with depth.
func (fb *Framebuffer) Clear(c Color, depth float64) {
	// Use copy-doubling for faster clearing
	n := len(fb.Color)
	if n == 0 {
		return
	}
	fb.Color[0] = c
	fb.Depth[0] = depth
	for i := 1; i < n; i *= 2 {
		copy(fb.Color[i:], fb.Color[:i])
		copy(fb.Depth[i:], fb.Depth[:i])
	}
}

// At returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) At(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return Color{}
	}
	return fb.Color[y*fb.Width+x]
}

// ToImage converts the framebuffer to an opaque image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		for x := range fb.Width {
			px := fb.Color[y*fb.Width+x].ToRGBA()
			px.A = 255
			img.SetRGBA(x, y, px)
		}
	}
	return img
}
