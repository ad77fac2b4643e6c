package accel

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/taigrr/rastercore/pkg/log"
	"github.com/taigrr/rastercore/pkg/math3d"
)

var logger = log.New("accel")

// LoadFactor is the largest triangle count a node may hold without being
// considered for a split.
const LoadFactor = 4

// TriangleMesh is the geometry a BVH is built over. Implementations must not
// change positions or faces while a BVH references them.
type TriangleMesh interface {
	TriangleCount() int
	GetFace(i int) [3]int
	GetPosition(i int) math3d.Vec3
}

// StaticTriangle is a face of the source mesh. Centroid is only used while
// building.
type StaticTriangle struct {
	V        [3]int
	Centroid math3d.Vec3
}

// BVHNode is a node of the flat BVH array. A node with Count > 0 is a leaf
// covering TriIndices[First:First+Count]; otherwise its children are
// LeftChild and LeftChild+1.
type BVHNode struct {
	Bounds    AABB
	LeftChild int
	First     int
	Count     int
	Depth     int
}

// IsLeaf reports whether the node holds primitives.
func (n *BVHNode) IsLeaf() bool {
	return n.Count > 0
}

// BVH is an immutable bounding volume hierarchy over a mesh's triangles.
// One BVH may be shared by any number of BVHInstances.
type BVH struct {
	Nodes      []BVHNode
	TriIndices []int
	Tris       []StaticTriangle
	NodesUsed  int

	mesh TriangleMesh
}

// NewBVH builds a BVH over every face of mesh. It panics if the mesh has no
// faces.
func NewBVH(mesh TriangleMesh) *BVH {
	n := mesh.TriangleCount()
	if n == 0 {
		panic("accel: cannot build a BVH over a mesh with no faces")
	}
	start := time.Now()

	b := &BVH{
		Nodes:      make([]BVHNode, 2*n-1),
		TriIndices: make([]int, n),
		Tris:       make([]StaticTriangle, n),
		mesh:       mesh,
	}

	for i := range n {
		f := mesh.GetFace(i)
		p0, p1, p2 := mesh.GetPosition(f[0]), mesh.GetPosition(f[1]), mesh.GetPosition(f[2])
		b.Tris[i] = StaticTriangle{V: f, Centroid: p0.Add(p1).Add(p2).Scale(1.0 / 3)}
		b.TriIndices[i] = i
	}

	root := &b.Nodes[0]
	root.First, root.Count = 0, n
	b.NodesUsed = 1
	b.updateBounds(0)
	b.subdivide(0)

	logger.Debugf("built BVH over %d triangles: %d nodes in %s", n, b.NodesUsed, time.Since(start))
	return b
}

// Mesh returns the geometry the BVH was built over.
func (b *BVH) Mesh() TriangleMesh {
	return b.mesh
}

// Root returns node 0.
func (b *BVH) Root() *BVHNode {
	return &b.Nodes[0]
}

// Bounds returns the root bounds, which enclose every vertex referenced by a
// face.
func (b *BVH) Bounds() AABB {
	return b.Nodes[0].Bounds
}

// Primitives returns the face indices covered by a leaf.
func (b *BVH) Primitives(n *BVHNode) []int {
	return b.TriIndices[n.First : n.First+n.Count]
}

// Leaves returns the indices of all leaf nodes in depth-first order.
func (b *BVH) Leaves() []int {
	var out []int
	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b.Nodes[idx].IsLeaf() {
			out = append(out, idx)
			continue
		}
		stack = append(stack, b.Nodes[idx].LeftChild+1, b.Nodes[idx].LeftChild)
	}
	return out
}

func (b *BVH) triangleBounds(tri int) AABB {
	v := b.Tris[tri].V
	return FromPoints(b.mesh.GetPosition(v[0]), b.mesh.GetPosition(v[1]), b.mesh.GetPosition(v[2]))
}

func (b *BVH) updateBounds(idx int) {
	node := &b.Nodes[idx]
	node.Bounds = EmptyAABB()
	for _, tri := range b.Primitives(node) {
		node.Bounds.GrowAABB(b.triangleBounds(tri))
	}
}

func (b *BVH) subdivide(idx int) {
	node := &b.Nodes[idx]
	if node.Count <= LoadFactor {
		return
	}

	axis := node.Bounds.LongestAxis()
	split := node.Bounds.Center().Component(axis)

	// Hoare-style partition of the node's index range around split.
	i := node.First
	j := i + node.Count - 1
	for i <= j {
		if b.Tris[b.TriIndices[i]].Centroid.Component(axis) < split {
			i++
		} else {
			b.TriIndices[i], b.TriIndices[j] = b.TriIndices[j], b.TriIndices[i]
			j--
		}
	}

	leftCount := i - node.First
	if leftCount == 0 || leftCount == node.Count {
		return
	}

	left := b.NodesUsed
	b.NodesUsed += 2
	b.Nodes[left] = BVHNode{First: node.First, Count: leftCount, Depth: node.Depth + 1}
	b.Nodes[left+1] = BVHNode{First: i, Count: node.Count - leftCount, Depth: node.Depth + 1}
	node.LeftChild = left
	node.Count = 0

	b.updateBounds(left)
	b.updateBounds(left + 1)
	b.subdivide(left)
	b.subdivide(left + 1)
}

// IntersectSegment finds the nearest triangle crossed by seg, which must be
// in the mesh's local space. On a nearer hit it narrows seg.T, records the
// face in seg.CollidingPrimitive and returns true.
func (b *BVH) IntersectSegment(seg *LineSegment) bool {
	ray := newSegmentRay(seg)
	hit := false

	stack := make([]int, 1, 64)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &b.Nodes[idx]
		if !ray.intersectAABB(node.Bounds, seg.T) {
			continue
		}

		if node.IsLeaf() {
			for _, tri := range b.Primitives(node) {
				v := b.Tris[tri].V
				t3 := r3.Triangle{
					toR3(b.mesh.GetPosition(v[0])),
					toR3(b.mesh.GetPosition(v[1])),
					toR3(b.mesh.GetPosition(v[2])),
				}
				if t, ok := ray.intersectTriangle(&t3); ok && t < seg.T {
					seg.T = t
					seg.CollidingPrimitive = tri
					hit = true
				}
			}
			continue
		}
		stack = append(stack, node.LeftChild, node.LeftChild+1)
	}
	return hit
}

// Query calls fn for every face in a leaf whose bounds overlap box.
func (b *BVH) Query(box AABB, fn func(face int)) {
	b.visit(0, box, fn)
}

func (b *BVH) visit(idx int, box AABB, fn func(face int)) {
	node := &b.Nodes[idx]
	if !node.Bounds.Intersects(box) {
		return
	}
	if node.IsLeaf() {
		for _, tri := range b.Primitives(node) {
			fn(tri)
		}
		return
	}
	b.visit(node.LeftChild, box, fn)
	b.visit(node.LeftChild+1, box, fn)
}
