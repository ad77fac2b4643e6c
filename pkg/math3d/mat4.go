package math3d

import "math"

// Mat4 is a 4x4 matrix in column-major order, element (row, col) at
// index row+col*4:
//
//	| 0  4  8  12 |
//	| 1  5  9  13 |
//	| 2  6  10 14 |
//	| 3  7  11 15 |
//
// Affine transforms keep their translation in 12..14.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation by v.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m.SetTranslation(v)
	return m
}

// Scale returns a non-uniform scale by v.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// ScaleUniform returns a uniform scale by s.
func ScaleUniform(s float64) Mat4 {
	return Scale(Splat3(s))
}

// RotateX returns a rotation of angle radians around +X.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation of angle radians around +Y.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation of angle radians around +Z.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Rotate returns a rotation of angle radians around an arbitrary axis
// (Rodrigues' formula).
func Rotate(axis Vec3, angle float64) Mat4 {
	n := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	k := 1 - c
	return Mat4{
		k*n.X*n.X + c, k*n.X*n.Y + s*n.Z, k*n.X*n.Z - s*n.Y, 0,
		k*n.X*n.Y - s*n.Z, k*n.Y*n.Y + c, k*n.Y*n.Z + s*n.X, 0,
		k*n.X*n.Z + s*n.Y, k*n.Y*n.Z - s*n.X, k*n.Z*n.Z + c, 0,
		0, 0, 0, 1,
	}
}

// LookAt returns a right-handed view matrix.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	r := f.Cross(up).Normalize()
	u := r.Cross(f)

	return Mat4{
		r.X, u.X, -f.X, 0,
		r.Y, u.Y, -f.Y, 0,
		r.Z, u.Z, -f.Z, 0,
		-r.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective returns an OpenGL style projection. Clip w equals the
// view-space distance in front of the camera, and the visible volume is
// -w < x, y, z < w.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	nf := 1 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Orthographic returns an orthographic projection.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	rl := 1 / (right - left)
	tb := 1 / (top - bottom)
	fn := 1 / (far - near)

	return Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -2 * fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -(far + near) * fn, 1,
	}
}

// Mul returns a * b, so that (a*b)v == a(bv).
//
//nolint:st1016 // a*b reads better than a receiver name for matrix math
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			m[row+col*4] = a[row]*b[col*4] +
				a[row+4]*b[col*4+1] +
				a[row+8]*b[col*4+2] +
				a[row+12]*b[col*4+3]
		}
	}
	return m
}

// MulVec3 transforms a point (w=1), dividing by the resulting w when it is
// not 1.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	inv := 1 / w
	return Vec3{
		(m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]) * inv,
		(m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]) * inv,
		(m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]) * inv,
	}
}

// MulVec3Dir transforms a direction (w=0).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose swaps rows and columns.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for row := range 4 {
		for col := range 4 {
			t[col+row*4] = m[row+col*4]
		}
	}
	return t
}

// minors2x2 returns the twelve 2x2 sub-determinants shared by Determinant
// and Inverse.
func (m Mat4) minors2x2() [12]float64 {
	return [12]float64{
		m[0]*m[5] - m[1]*m[4],
		m[0]*m[6] - m[2]*m[4],
		m[0]*m[7] - m[3]*m[4],
		m[1]*m[6] - m[2]*m[5],
		m[1]*m[7] - m[3]*m[5],
		m[2]*m[7] - m[3]*m[6],
		m[8]*m[13] - m[9]*m[12],
		m[8]*m[14] - m[10]*m[12],
		m[8]*m[15] - m[11]*m[12],
		m[9]*m[14] - m[10]*m[13],
		m[9]*m[15] - m[11]*m[13],
		m[10]*m[15] - m[11]*m[14],
	}
}

func determinantFromMinors(b [12]float64) float64 {
	return b[0]*b[11] - b[1]*b[10] + b[2]*b[9] + b[3]*b[8] - b[4]*b[7] + b[5]*b[6]
}

// Determinant returns the determinant.
func (m Mat4) Determinant() float64 {
	return determinantFromMinors(m.minors2x2())
}

// Inverse returns the inverse, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	b := m.minors2x2()
	det := determinantFromMinors(b)
	if det == 0 {
		return Identity()
	}
	d := 1 / det

	return Mat4{
		(m[5]*b[11] - m[6]*b[10] + m[7]*b[9]) * d,
		(m[2]*b[10] - m[1]*b[11] - m[3]*b[9]) * d,
		(m[13]*b[5] - m[14]*b[4] + m[15]*b[3]) * d,
		(m[10]*b[4] - m[9]*b[5] - m[11]*b[3]) * d,

		(m[6]*b[8] - m[4]*b[11] - m[7]*b[7]) * d,
		(m[0]*b[11] - m[2]*b[8] + m[3]*b[7]) * d,
		(m[14]*b[2] - m[12]*b[5] - m[15]*b[1]) * d,
		(m[8]*b[5] - m[10]*b[2] + m[11]*b[1]) * d,

		(m[4]*b[10] - m[5]*b[8] + m[7]*b[6]) * d,
		(m[1]*b[8] - m[0]*b[10] - m[3]*b[6]) * d,
		(m[12]*b[4] - m[13]*b[2] + m[15]*b[0]) * d,
		(m[9]*b[2] - m[8]*b[4] - m[11]*b[0]) * d,

		(m[5]*b[7] - m[4]*b[9] - m[6]*b[6]) * d,
		(m[0]*b[9] - m[1]*b[7] + m[2]*b[6]) * d,
		(m[13]*b[1] - m[12]*b[3] - m[14]*b[0]) * d,
		(m[8]*b[3] - m[9]*b[1] + m[10]*b[0]) * d,
	}
}

// NormalMatrix returns the inverse transpose, which keeps normals
// perpendicular to surfaces under non-uniform scale.
func (m Mat4) NormalMatrix() Mat4 {
	return m.Inverse().Transpose()
}

// Get returns element (row, col).
func (m Mat4) Get(row, col int) float64 {
	return m[row+col*4]
}

// Set assigns element (row, col).
func (m *Mat4) Set(row, col int, val float64) {
	m[row+col*4] = val
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// SetTranslation overwrites the translation column.
func (m *Mat4) SetTranslation(v Vec3) {
	m[12], m[13], m[14] = v.X, v.Y, v.Z
}

// ApproxEqual reports whether all elements differ by at most eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
