package accel

import "github.com/taigrr/rastercore/pkg/math3d"

// BVHInstance places a shared BVH in the world.
type BVHInstance struct {
	BVH          *BVH
	Transform    math3d.Mat4
	InvTransform math3d.Mat4

	// Bounds is the world-space box around the transformed root bounds.
	Bounds AABB
}

// NewBVHInstance returns an instance of bvh under transform.
func NewBVHInstance(bvh *BVH, transform math3d.Mat4) BVHInstance {
	inst := BVHInstance{BVH: bvh}
	inst.SetTransform(transform)
	return inst
}

// SetTransform moves the instance, refreshing the inverse and world bounds.
func (inst *BVHInstance) SetTransform(transform math3d.Mat4) {
	inst.Transform = transform
	inst.InvTransform = transform.Inverse()
	inst.Bounds = inst.BVH.Bounds().Transform(transform)
}

// IntersectSegment tests a world-space segment against the instance's
// geometry. The hit parameter and primitive are written back to seg.
func (inst *BVHInstance) IntersectSegment(seg *LineSegment) bool {
	local := seg.Transformed(inst.InvTransform)
	if !inst.BVH.IntersectSegment(&local) {
		return false
	}
	seg.T = local.T
	seg.CollidingPrimitive = local.CollidingPrimitive
	return true
}
