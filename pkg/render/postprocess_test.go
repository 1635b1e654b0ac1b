package render

import (
	"math"
	"testing"
)

func TestGammaCorrect(t *testing.T) {
	for _, gamma := range []float64{0.01, 0.5, 1, 2.2, 10} {
		for _, v := range []float64{0, 0.1, 0.5, 0.9, 1} {
			c := Color{v, v / 2, v / 4, 0.3}
			got := gammaCorrect(gammaCorrect(c, gamma), 1/gamma)
			if !near(Color{got.R, got.G, got.B, 0}, Color{c.R, c.G, c.B, 0}) {
				t.Errorf("gamma %v round trip of %v = %v", gamma, c, got)
			}
			if got.A != 1 {
				t.Errorf("gamma %v alpha = %v, want 1", gamma, got.A)
			}
		}
	}

	if got := gammaCorrect(Color{-1, -0.5, 2, 0}, 2); got != (Color{0, 0, math.Sqrt(2), 1}) {
		t.Errorf("gammaCorrect(negative) = %v", got)
	}
}

// postRenderer returns a 5x5 renderer with MSAA off and gamma 1, so Finish
// only runs the filters.
func postRenderer(t *testing.T) (*Renderer, *Framebuffer) {
	t.Helper()
	r, fb := newTestRenderer(t, 5, 5)
	flat(t, r)
	for i := range fb.Color {
		fb.Color[i] = Color{0, 0, 0, 1}
	}
	return r, fb
}

func TestBoxBlur(t *testing.T) {
	r, fb := postRenderer(t)
	setBools(t, r, map[UniformKind]bool{UniformBoxBlur: true})
	fb.Color[2*5+2] = Color{9, 0, 0, 1}

	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	for y := range 5 {
		for x := range 5 {
			want := 1.0
			if x == 0 || y == 0 || x == 4 || y == 4 {
				want = 0
			}
			if got := fb.At(x, y).R; math.Abs(got-want) > 1e-12 {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestGaussianBlur(t *testing.T) {
	r, fb := postRenderer(t)
	setBools(t, r, map[UniformKind]bool{UniformGaussianBlur: true})
	fb.Color[2*5+2] = Color{16, 0, 0, 1}

	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x, y int
		want float64
	}{
		{2, 2, 4},
		{2, 1, 2},
		{1, 2, 2},
		{1, 1, 1},
		{3, 3, 1},
		{0, 0, 0},
	}
	for _, tc := range tests {
		if got := fb.At(tc.x, tc.y).R; math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("pixel (%d, %d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestLightBloom(t *testing.T) {
	r, fb := postRenderer(t)
	setBools(t, r, map[UniformKind]bool{UniformLightBloom: true})
	// Only pixels whose alpha exceeds the threshold bloom.
	fb.Color[2*5+2] = Color{16, 0, 0, 3}
	fb.Color[1*5+1] = Color{0, 8, 0, 1}

	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	if got := fb.At(2, 2).R; math.Abs(got-4) > 1e-12 {
		t.Errorf("bright pixel R = %v, want 4", got)
	}
	if got := fb.At(2, 1).R; got != 0 {
		t.Errorf("neighbour R = %v, want 0 (not blooming)", got)
	}
	if got := fb.At(1, 1).G; got != 8 {
		t.Errorf("dim pixel G = %v, want 8 unchanged", got)
	}
}

func TestPostProcessKeepsBorder(t *testing.T) {
	r, fb := postRenderer(t)
	setBools(t, r, map[UniformKind]bool{UniformGaussianBlur: true, UniformBoxBlur: true})
	for y := range 5 {
		for x := range 5 {
			if x == 0 || y == 0 || x == 4 || y == 4 {
				fb.Color[y*5+x] = Color{5, 5, 5, 1}
			}
		}
	}

	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}

	for y := range 5 {
		for x := range 5 {
			border := x == 0 || y == 0 || x == 4 || y == 4
			got := fb.At(x, y)
			if border && got != (Color{5, 5, 5, 1}) {
				t.Errorf("border pixel (%d, %d) = %v, want unchanged", x, y, got)
			}
		}
	}
	if got := fb.At(2, 2).R; got != 0 {
		t.Errorf("center R = %v, want 0 (neighbours are interior)", got)
	}
}

func BenchmarkFinish(b *testing.B) {
	r, _ := newTestRenderer(b, 160, 96)
	_ = r.SetUniformBool(UniformGaussianBlur, true)

	for b.Loop() {
		_ = r.Finish()
	}
}
