package render

import "math"

// drawTriangleEdges outlines one fan triangle in the line color.
func (r *Renderer) drawTriangleEdges(p [3]screenPoint) {
	for i := range 3 {
		a, b := p[i], p[(i+1)%3]
		r.drawLine(
			int(math.Round(a.X)), int(math.Round(a.Y)),
			int(math.Round(b.X)), int(math.Round(b.Y)),
			r.uniform.LineColor,
		)
	}
}

// drawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's
// algorithm. With MSAA on, every sample of a touched pixel gets the color.
func (r *Renderer) drawLine(x0, y0, x1, y1 int, c Color) {
	dx, sx := abs(x1-x0), 1
	if x0 > x1 {
		sx = -1
	}
	dy, sy := abs(y1-y0), 1
	if y0 > y1 {
		sy = -1
	}

	err := -dy / 2
	if dx > dy {
		err = dx / 2
	}

	for {
		r.plot(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := err
		if e2 > -dx {
			err -= dy
			x0 += sx
		}
		if e2 < dy {
			err += dx
			y0 += sy
		}
	}
}

func (r *Renderer) plot(x, y int, c Color) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	idx := y*r.width + x
	if r.uniform.MSAA {
		r.msaaDirty = true
		base := idx * samplesPerPixel
		for k := range samplesPerPixel {
			r.samples[base+k] = c
		}
		return
	}
	r.color[idx] = c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
