package render

import (
	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the equation so Normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1 / l)
	p.D /= l
}

// Distance is positive on the side the normal points to.
func (p Plane) Distance(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Frustum holds six inward facing planes.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustumFromMatrix extracts the planes of a view-projection matrix
// (Gribb/Hartmann). Each plane is a sum or difference of row 3 with one of
// the other rows.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	row := func(r int) [4]float64 {
		return [4]float64{m[r], m[r+4], m[r+8], m[r+12]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	plane := func(a [4]float64, sign float64) Plane {
		p := Plane{
			Normal: math3d.V3(r3[0]+sign*a[0], r3[1]+sign*a[1], r3[2]+sign*a[2]),
			D:      r3[3] + sign*a[3],
		}
		p.Normalize()
		return p
	}

	var f Frustum
	f.Planes[FrustumLeft] = plane(r0, 1)
	f.Planes[FrustumRight] = plane(r0, -1)
	f.Planes[FrustumBottom] = plane(r1, 1)
	f.Planes[FrustumTop] = plane(r1, -1)
	f.Planes[FrustumNear] = plane(r2, 1)
	f.Planes[FrustumFar] = plane(r2, -1)
	return f
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// IntersectsAABB reports whether any part of box may be inside. It tests the
// corner furthest along each plane normal, so it can report false positives
// near frustum edges but never false negatives.
func (f Frustum) IntersectsAABB(box accel.AABB) bool {
	for _, p := range f.Planes {
		v := math3d.V3(
			pick(p.Normal.X >= 0, box.Max.X, box.Min.X),
			pick(p.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			pick(p.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsAABB reports whether box lies entirely inside.
func (f Frustum) ContainsAABB(box accel.AABB) bool {
	for _, p := range f.Planes {
		v := math3d.V3(
			pick(p.Normal.X >= 0, box.Min.X, box.Max.X),
			pick(p.Normal.Y >= 0, box.Min.Y, box.Max.Y),
			pick(p.Normal.Z >= 0, box.Min.Z, box.Max.Z),
		)
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

func (f Frustum) ContainsPoint(pt math3d.Vec3) bool {
	for _, p := range f.Planes {
		if p.Distance(pt) < 0 {
			return false
		}
	}
	return true
}

func (f Frustum) IntersectsSphere(center math3d.Vec3, radius float64) bool {
	for _, p := range f.Planes {
		if p.Distance(center) < -radius {
			return false
		}
	}
	return true
}
