package render

import "math"

// bloomThreshold is the alpha above which a pixel blooms when light bloom
// is enabled.
const bloomThreshold = 2.5

// resolveSamples averages the MSAA samples of each pixel into the color and
// depth buffers, then resets the samples for the next frame.
func (r *Renderer) resolveSamples() {
	clearColor := r.uniform.ClearColor
	clearDepth := r.uniform.Policy.Depth.ClearValue()

	for i := range r.width * r.height {
		base := i * samplesPerPixel

		var sum Color
		var depth float64
		for k := range samplesPerPixel {
			sum = sum.Add(r.samples[base+k])
			depth += r.sampleDepth[base+k]
			r.samples[base+k] = clearColor
			r.sampleDepth[base+k] = clearDepth
		}

		r.color[i] = sum.Scale(1.0 / samplesPerPixel)
		r.depth[i] = depth / samplesPerPixel
	}
	r.msaaDirty = false
}

// resetSamples fills the sample buffers with the clear values.
func (r *Renderer) resetSamples() {
	clearColor := r.uniform.ClearColor
	clearDepth := r.uniform.Policy.Depth.ClearValue()
	for i := range r.samples {
		r.samples[i] = clearColor
		r.sampleDepth[i] = clearDepth
	}
}

// resetSampleDepths fills only the sample depths, keeping colors already
// drawn this frame.
func (r *Renderer) resetSampleDepths() {
	clearDepth := r.uniform.Policy.Depth.ClearValue()
	for i := range r.sampleDepth {
		r.sampleDepth[i] = clearDepth
	}
}

// postProcess applies box blur, gaussian blur and light bloom. Filters read
// from a copy of the frame so results do not feed back into neighbours; the
// outermost pixel ring is left untouched.
func (r *Renderer) postProcess() {
	u := &r.uniform
	if !u.BoxBlur && !u.GaussianBlur && !u.LightBloom {
		return
	}

	w, h := r.width, r.height
	src := r.scratch[:w*h]
	copy(src, r.color[:w*h])

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			c := src[i]
			if u.BoxBlur {
				c = boxBlur(src, w, i)
			}
			if u.GaussianBlur || (u.LightBloom && c.A > bloomThreshold) {
				c = gaussianBlur(src, w, i)
			}
			r.color[i] = c
		}
	}
}

// boxBlur returns the mean of the 3x3 neighbourhood of pixel i.
func boxBlur(src []Color, w, i int) Color {
	var sum Color
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			sum = sum.Add(src[i+dy*w+dx])
		}
	}
	return sum.Scale(1.0 / 9)
}

var gaussianKernel = [3][3]float64{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// gaussianBlur returns the 3x3 gaussian-weighted mean around pixel i.
func gaussianBlur(src []Color, w, i int) Color {
	var sum Color
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			sum = sum.Add(src[i+dy*w+dx].Scale(gaussianKernel[dy+1][dx+1]))
		}
	}
	return sum.Scale(1.0 / 16)
}

// gammaCorrect raises rgb to 1/gamma and makes the pixel opaque. Negative
// channels clamp to 0.
func gammaCorrect(c Color, gamma float64) Color {
	inv := 1 / gamma
	return Color{
		R: math.Pow(math.Max(0, c.R), inv),
		G: math.Pow(math.Max(0, c.G), inv),
		B: math.Pow(math.Max(0, c.B), inv),
		A: 1,
	}
}
