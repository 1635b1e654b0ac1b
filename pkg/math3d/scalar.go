package math3d

import "math"

// Lerp interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return (1-t)*a + t*b
}

// Remap maps v from the range [inMin, inMax] onto [outMin, outMax].
func Remap(v, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Wrap01 wraps v into [0, 1).
func Wrap01(v float64) float64 {
	w := v - math.Floor(v)
	if w >= 1 {
		// v - floor(v) rounds up to 1 for tiny negative v.
		return 0
	}
	return w
}

// Bilinear blends four corner values with fractional offsets tx, ty.
// c00 is the top-left corner, c10 top-right, c01 bottom-left and c11
// bottom-right.
func Bilinear(tx, ty, c00, c10, c01, c11 float64) float64 {
	return (1-tx)*(1-ty)*c00 + tx*(1-ty)*c10 + (1-tx)*ty*c01 + tx*ty*c11
}
