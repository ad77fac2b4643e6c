package render

import (
	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/math3d"
)

// Wireframe draws debug lines over a framebuffer's color attachment. Lines
// are not depth tested.
type Wireframe struct {
	camera *Camera
	fb     *Framebuffer
}

func NewWireframe(camera *Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{camera: camera, fb: fb}
}

// DrawLine3D draws a world-space line clipped to the view volume.
func (w *Wireframe) DrawLine3D(p0, p1 math3d.Vec3, c Color) {
	vp := w.camera.ViewProjectionMatrix()
	a := vp.MulVec4(math3d.V4FromV3(p0, 1))
	b := vp.MulVec4(math3d.V4FromV3(p1, 1))

	for _, plane := range clipPlanes {
		da, db := plane.Distance(a), plane.Distance(b)
		switch {
		case da <= 0 && db <= 0:
			return
		case da < 0:
			a = a.Lerp(b, da/(da-db))
		case db < 0:
			b = b.Lerp(a, db/(db-da))
		}
	}

	na, nb := a.PerspectiveDivide(), b.PerspectiveDivide()
	x0, y0 := ndcToScreen(na.X, na.Y, w.fb.Width, w.fb.Height)
	x1, y1 := ndcToScreen(nb.X, nb.Y, w.fb.Width, w.fb.Height)
	w.fb.DrawLine(int(x0), int(y0), int(x1), int(y1), c)
}

// boxEdges pairs corner indices of AABB.Corners.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along X
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along Y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along Z
}

// DrawAABB outlines box after transforming its corners by m.
func (w *Wireframe) DrawAABB(box accel.AABB, m math3d.Mat4, c Color) {
	if box.IsEmpty() {
		return
	}
	corners := box.Corners()
	for i := range corners {
		corners[i] = m.MulVec3(corners[i])
	}
	for _, e := range boxEdges {
		w.DrawLine3D(corners[e[0]], corners[e[1]], c)
	}
}

// DrawBVH outlines every node of bvh down to maxDepth. Leaves use leaf, the
// rest inner.
func (w *Wireframe) DrawBVH(bvh *accel.BVH, world math3d.Mat4, maxDepth int, inner, leaf Color) {
	for i := range bvh.NodesUsed {
		n := &bvh.Nodes[i]
		if n.Depth > maxDepth {
			continue
		}
		c := inner
		if n.IsLeaf() {
			c = leaf
		}
		w.DrawAABB(n.Bounds, world, c)
	}
}

// DrawTLAS outlines the instance bounds, highlighting one instance (pass -1
// for none).
func (w *Wireframe) DrawTLAS(tlas *accel.TLAS, highlight int, c, hc Color) {
	for i := 1; i < tlas.NodesUsed; i++ {
		n := &tlas.Nodes[i]
		if !n.IsLeaf() {
			continue
		}
		col := c
		if n.Instance == highlight {
			col = hc
		}
		w.DrawAABB(n.Bounds, math3d.Identity(), col)
	}
}

// DrawAxes draws the world axes from the origin in red, green and blue.
func (w *Wireframe) DrawAxes(length float64) {
	o := math3d.Zero3()
	w.DrawLine3D(o, math3d.V3(length, 0, 0), ColorRed)
	w.DrawLine3D(o, math3d.V3(0, length, 0), ColorGreen)
	w.DrawLine3D(o, math3d.V3(0, 0, length), ColorBlue)
}
