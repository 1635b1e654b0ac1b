package math3d

import (
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V4(1, 2, 3, 1)

	for b.Loop() {
		_ = m.MulVec4(v)
	}
}

func BenchmarkVec4Lerp(b *testing.B) {
	v1 := V4(1, 2, 3, 1)
	v2 := V4(-4, 5, 0.5, 2)

	for b.Loop() {
		_ = v1.Lerp(v2, 0.25)
	}
}

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = v.Normalize()
	}
}

func BenchmarkVec3Cross(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Cross(v2)
	}
}

func BenchmarkViewProjection(b *testing.B) {
	// Same product the renderer forms once per draw call
	view := RotateX(0.2).Mul(RotateY(0.4)).Mul(Translate(V3(0, -1, -10)))
	proj := Perspective(1.0, 1.333, 0.1, 100.0)

	for b.Loop() {
		_ = proj.Mul(view)
	}
}

func BenchmarkBilinear(b *testing.B) {
	for b.Loop() {
		_ = Bilinear(0.3, 0.7, 1, 2, 3, 4)
	}
}
