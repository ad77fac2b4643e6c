package accel

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// LineSegment is a query from Start to End. Queries narrow T to the nearest
// hit found so far and record what was hit.
type LineSegment struct {
	Start math3d.Vec3
	End   math3d.Vec3

	// T is the parametric position of the nearest hit, 1 until something
	// is hit.
	T float64

	// CollidingBVHIndex is the TLAS instance that was hit, or -1.
	CollidingBVHIndex int
	// CollidingPrimitive is the face index within that instance's mesh, or -1.
	CollidingPrimitive int
}

// NewLineSegment returns a segment with no hit recorded.
func NewLineSegment(start, end math3d.Vec3) LineSegment {
	return LineSegment{
		Start:              start,
		End:                end,
		T:                  1,
		CollidingBVHIndex:  -1,
		CollidingPrimitive: -1,
	}
}

// Hit reports whether a primitive has been recorded.
func (s *LineSegment) Hit() bool {
	return s.CollidingPrimitive >= 0
}

// Point returns the point at parameter t.
func (s *LineSegment) Point(t float64) math3d.Vec3 {
	return s.Start.Lerp(s.End, t)
}

// HitPoint returns the point at the current T.
func (s *LineSegment) HitPoint() math3d.Vec3 {
	return s.Point(s.T)
}

// Transformed returns a copy with both endpoints mapped through m. Affine
// maps preserve the parameter, so T and the hit record carry over.
func (s *LineSegment) Transformed(m math3d.Mat4) LineSegment {
	out := *s
	out.Start = m.MulVec3(s.Start)
	out.End = m.MulVec3(s.End)
	return out
}

func toR3(v math3d.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// segmentRay caches the values reused by every box and triangle test of a
// single traversal.
type segmentRay struct {
	origin r3.Vec
	dir    r3.Vec
	invDir math3d.Vec3
}

func newSegmentRay(s *LineSegment) segmentRay {
	d := s.End.Sub(s.Start)
	return segmentRay{
		origin: toR3(s.Start),
		dir:    toR3(d),
		invDir: math3d.V3(1/d.X, 1/d.Y, 1/d.Z),
	}
}

// intersectAABB is a slab test over [0, tMax].
func (r *segmentRay) intersectAABB(b AABB, tMax float64) bool {
	tNear, tFar := 0.0, tMax
	origin := [3]float64{r.origin.X, r.origin.Y, r.origin.Z}
	dir := [3]float64{r.dir.X, r.dir.Y, r.dir.Z}
	inv := [3]float64{r.invDir.X, r.invDir.Y, r.invDir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for axis := range 3 {
		if dir[axis] == 0 {
			// Parallel to this slab: inside it or never.
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return false
			}
			continue
		}
		t0 := (lo[axis] - origin[axis]) * inv[axis]
		t1 := (hi[axis] - origin[axis]) * inv[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}

// intersectTriangle is Möller–Trumbore restricted to the segment. Both faces
// of the triangle are hit.
func (r *segmentRay) intersectTriangle(tri *r3.Triangle) (t float64, ok bool) {
	const epsilon = 1e-12
	edge1 := r3.Sub(tri[1], tri[0])
	edge2 := r3.Sub(tri[2], tri[0])
	h := r3.Cross(r.dir, edge2)
	det := r3.Dot(edge1, h)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	invDet := 1 / det
	s := r3.Sub(r.origin, tri[0])
	u := invDet * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, edge1)
	v := invDet * r3.Dot(r.dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = invDet * r3.Dot(edge2, q)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
