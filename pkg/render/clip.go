package render

import "github.com/taigrr/softrast/pkg/math3d"

// maxPolygon bounds a clipped triangle: 3 corners plus at most one new
// vertex per clip plane.
const maxPolygon = 3 + 6

// Outcode bits. Bits 0..2 flag coord >= w for x, y, z; bits 4..6 flag
// coord <= -w; bits 3 and 7 flag w <= 0. A point on a plane counts as
// outside it.
const (
	outW1    = 1 << 3
	outW2    = 1 << 7
	outPlane = 0b0111_0111
)

// clipPoint is a clip-space position with its barycentric weights into the
// original triangle.
type clipPoint struct {
	pos     math3d.Vec4
	weights [3]float64
}

type polygon struct {
	pts [maxPolygon]clipPoint
	n   int
}

// outcode returns the 8-bit frustum outcode of a clip-space point.
func outcode(p math3d.Vec4) uint8 {
	var code uint8
	for i := range 8 {
		axis := i % 4
		sign := 1.0
		if i < 4 {
			sign = -1
		}
		var c float64
		if axis < 3 {
			c = sign * p.Axis(axis)
		}
		if c <= -p.W {
			code |= 1 << i
		}
	}
	return code
}

// planeValue is positive when p is strictly inside the plane of bit i.
func planeValue(p math3d.Vec4, bit int) float64 {
	axis := bit % 4
	if bit < 4 {
		return p.W - p.Axis(axis)
	}
	return p.W + p.Axis(axis)
}

// clipPolygon clips poly against every x/y/z plane flagged in codes using
// Sutherland–Hodgman, then removes consecutive duplicate vertices.
// It reports false when fewer than 3 vertices remain or a vertex is not in
// front of the eye.
func clipPolygon(poly *polygon, codes uint8) bool {
	if codes == 0 {
		return true
	}

	for bit := range 8 {
		plane := uint8(1) << bit
		if codes&plane&outPlane == 0 {
			continue
		}

		var out polygon
		prev := poly.pts[poly.n-1]
		prevValue := planeValue(prev.pos, bit)

		for i := range poly.n {
			curr := poly.pts[i]
			currValue := planeValue(curr.pos, bit)

			if (prevValue > 0) != (currValue > 0) {
				t := prevValue / (prevValue - currValue)
				out.push(clipPoint{
					pos:     prev.pos.Lerp(curr.pos, t),
					weights: lerpWeights(prev.weights, curr.weights, t),
				})
			}
			if currValue > 0 {
				out.push(curr)
			}

			prev, prevValue = curr, currValue
		}

		*poly = out
		if poly.n == 0 {
			return false
		}
	}

	poly.dedupe()
	if poly.n < 3 {
		return false
	}
	for i := range poly.n {
		if poly.pts[i].pos.W <= 0 {
			return false
		}
	}
	return true
}

func (p *polygon) push(c clipPoint) {
	if p.n < len(p.pts) {
		p.pts[p.n] = c
		p.n++
	}
}

// dedupe drops vertices equal to their predecessor, treating the polygon as
// closed.
func (p *polygon) dedupe() {
	n := 0
	for i := range p.n {
		if n > 0 && p.pts[i].pos == p.pts[n-1].pos {
			continue
		}
		p.pts[n] = p.pts[i]
		n++
	}
	for n > 1 && p.pts[n-1].pos == p.pts[0].pos {
		n--
	}
	p.n = n
}

func lerpWeights(a, b [3]float64, t float64) [3]float64 {
	s := 1 - t
	return [3]float64{
		s*a[0] + t*b[0],
		s*a[1] + t*b[1],
		s*a[2] + t*b[2],
	}
}
