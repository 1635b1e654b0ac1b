package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. Each terminal row covers two framebuffer rows: the upper half
// block takes the top pixel as foreground and the bottom one as background.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1
		if topY >= fb.Height {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.At(x, topY)),
					Bg: cellColor(fb.At(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// cellColor converts a pixel to a terminal color. Fully transparent
// pixels (outside the framebuffer) leave the terminal default.
func cellColor(c Color) color.Color {
	if c.A <= 0 {
		return nil
	}
	rgba := c.ToRGBA()
	rgba.A = 255
	return rgba
}

// TerminalRenderer presents framebuffers on an ultraviolet screen.
type TerminalRenderer struct {
	term *uv.Terminal
	cols int
	rows int
}

// NewTerminalRenderer creates a presenter for a cols x rows cell area.
func NewTerminalRenderer(term *uv.Terminal, cols, rows int) *TerminalRenderer {
	return &TerminalRenderer{term: term, cols: cols, rows: rows}
}

// Resize changes the cell area.
func (t *TerminalRenderer) Resize(cols, rows int) {
	t.cols, t.rows = cols, rows
}

// FramebufferSize returns the framebuffer dimensions that fill the cell
// area: one pixel per column, two per row.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.cols, t.rows * 2
}

// Render draws fb into the cell area.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(t.term, uv.Rect(0, 0, t.cols, t.rows))
}

// Flush pushes pending cell changes to the terminal.
func (t *TerminalRenderer) Flush() error {
	return t.term.Display()
}
