package math3d

import "testing"

// Per-entity setup: everything the renderer derives from a world matrix.
func BenchmarkEntityUniforms(b *testing.B) {
	view := LookAt(V3(0, 0, 10), Zero3(), Up())
	proj := Perspective(1.0472, 1.333, 0.1, 100.0)
	world := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(1, 2, 3)))

	for b.Loop() {
		_ = proj.Mul(view).Mul(world)
		_ = world.NormalMatrix()
	}
}

// Per-vertex: clip position, then the divide done after clipping.
func BenchmarkVertexTransform(b *testing.B) {
	wvp := Perspective(1.0472, 1.333, 0.1, 100.0).
		Mul(LookAt(V3(0, 0, 10), Zero3(), Up())).
		Mul(RotateY(0.5))
	p := V3(0.3, -0.7, 0.2)

	for b.Loop() {
		_ = wvp.MulVec4(V4FromV3(p, 1)).PerspectiveDivide()
	}
}

// Clip-edge interpolation of a homogeneous position.
func BenchmarkVec4Lerp(b *testing.B) {
	a, c := V4(1, 2, -3, 1), V4(-1, 0, 5, 4)

	for b.Loop() {
		_ = a.Lerp(c, 0.37)
	}
}

// Instance placement: inverse transform plus eight transformed corners.
func BenchmarkInstanceTransform(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateX(0.3)).Mul(ScaleUniform(2))
	lo, hi := V3(-1, -1, -1), V3(1, 1, 1)

	for b.Loop() {
		_ = m.Inverse()
		for i := range 8 {
			c := lo
			if i&1 != 0 {
				c.X = hi.X
			}
			if i&2 != 0 {
				c.Y = hi.Y
			}
			if i&4 != 0 {
				c.Z = hi.Z
			}
			_ = m.MulVec3(c)
		}
	}
}

// Face normal as the mesh computes it.
func BenchmarkFaceNormal(b *testing.B) {
	v0, v1, v2 := V3(0, 0, 0), V3(1, 0, 0), V3(0, 1, 0)

	for b.Loop() {
		_ = v2.Sub(v0).Cross(v1.Sub(v0)).Normalize()
	}
}
