// Package accel implements the spatial acceleration structures used for
// culling and line-segment queries: per-mesh triangle BVHs and a top-level
// structure over positioned BVH instances.
package accel

import (
	"math"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// EmptyAABB returns an inverted box that any Grow call replaces.
func EmptyAABB() AABB {
	return AABB{
		Min: math3d.Splat3(math.Inf(1)),
		Max: math3d.Splat3(math.Inf(-1)),
	}
}

// FromMinMax returns the box spanned by two corners, in any order.
func FromMinMax(a, b math3d.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// FromPoints returns the tightest box around pts.
func FromPoints(pts ...math3d.Vec3) AABB {
	b := EmptyAABB()
	for _, p := range pts {
		b.Grow(p)
	}
	return b
}

// Grow extends the box to contain p.
func (b *AABB) Grow(p math3d.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// GrowAABB extends the box to contain o.
func (b *AABB) GrowAABB(o AABB) {
	if o.IsEmpty() {
		return
	}
	b.Min = b.Min.Min(o.Min)
	b.Max = b.Max.Max(o.Max)
}

// IsEmpty reports whether the box is inverted on any axis.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box containing both.
func (b AABB) Union(o AABB) AABB {
	b.GrowAABB(o)
	return b
}

// Intersection returns the overlap of both boxes. ok is false when they
// are disjoint.
func (b AABB) Intersection(o AABB) (AABB, bool) {
	r := AABB{Min: b.Min.Max(o.Min), Max: b.Max.Min(o.Max)}
	if r.IsEmpty() {
		return AABB{}, false
	}
	return r, true
}

// Intersects reports whether the boxes overlap. Touching faces count.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether p is inside or on the box.
func (b AABB) Contains(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsAABB reports whether o lies entirely within b.
func (b AABB) ContainsAABB(o AABB) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Center returns the midpoint.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Extent returns Max - Min.
func (b AABB) Extent() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// HalfExtent returns half of Extent.
func (b AABB) HalfExtent() math3d.Vec3 {
	return b.Extent().Scale(0.5)
}

// HalfArea returns half the surface area, the cost proxy used when merging
// TLAS nodes.
func (b AABB) HalfArea() float64 {
	if b.IsEmpty() {
		return 0
	}
	e := b.Extent()
	return e.X*e.Y + e.Y*e.Z + e.Z*e.X
}

// LongestAxis returns the axis of greatest extent. Ties resolve to X, then Y.
func (b AABB) LongestAxis() math3d.Axis {
	e := b.Extent()
	axis, best := math3d.AxisX, e.X
	if e.Y > best {
		axis, best = math3d.AxisY, e.Y
	}
	if e.Z > best {
		axis = math3d.AxisZ
	}
	return axis
}

// Corners returns the eight corners. Bit 0 of the index selects Max.X, bit 1
// Max.Y and bit 2 Max.Z.
func (b AABB) Corners() [8]math3d.Vec3 {
	var c [8]math3d.Vec3
	for i := range c {
		c[i] = b.Min
		if i&1 != 0 {
			c[i].X = b.Max.X
		}
		if i&2 != 0 {
			c[i].Y = b.Max.Y
		}
		if i&4 != 0 {
			c[i].Z = b.Max.Z
		}
	}
	return c
}

// Transform returns the bounds of the box's corners after applying m.
func (b AABB) Transform(m math3d.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out.Grow(m.MulVec3(c))
	}
	return out
}
