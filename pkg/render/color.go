package render

import (
	"image/color"
	"math"
)

// Color is a linear RGBA color with float channels. Channels are nominally
// in [0, 1] but lighting may push them past 1 (alpha above 1 drives bloom).
type Color struct {
	R, G, B, A float64
}

// Colors for convenience
var (
	ColorBlack   = Color{0, 0, 0, 1}
	ColorWhite   = Color{1, 1, 1, 1}
	ColorRed     = Color{1, 0, 0, 1}
	ColorGreen   = Color{0, 1, 0, 1}
	ColorBlue    = Color{0, 0, 1, 1}
	ColorYellow  = Color{1, 1, 0, 1}
	ColorCyan    = Color{0, 1, 1, 1}
	ColorMagenta = Color{1, 0, 1, 1}
	ColorGray    = Color{0.5, 0.5, 0.5, 1}
	ColorSky     = Color{135.0 / 255, 206.0 / 255, 235.0 / 255, 1}
)

// RGB creates an opaque color.
func RGB(r, g, b float64) Color {
	return Color{r, g, b, 1}
}

// RGBA creates a color from all four channels.
func RGBA(r, g, b, a float64) Color {
	return Color{r, g, b, a}
}

// ColorFromRGBA converts any color.Color to a float Color.
func ColorFromRGBA(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{
		R: float64(r) / 0xffff,
		G: float64(g) / 0xffff,
		B: float64(b) / 0xffff,
		A: float64(a) / 0xffff,
	}
}

// Add returns the channel-wise sum.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

// Mul returns the channel-wise product (modulation).
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// Scale multiplies every channel by s.
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Lerp returns (1-t)*c + t*o.
func (c Color) Lerp(o Color, t float64) Color {
	s := 1 - t
	return Color{
		s*c.R + t*o.R,
		s*c.G + t*o.G,
		s*c.B + t*o.B,
		s*c.A + t*o.A,
	}
}

// Clamp limits every channel to [0, 1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// ToRGBA converts to 8-bit color.RGBA, clamping each channel. NaN maps to 0.
func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
