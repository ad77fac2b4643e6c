package accel

import (
	"fmt"
	"math"
	"time"
)

// MaxInstances is the largest number of instances a TLAS accepts.
const MaxInstances = 256

// TLASNode is a node of the top-level tree. Leaves have Left == Right == 0
// and reference Instances[Instance]; internal nodes reference two children.
type TLASNode struct {
	Bounds   AABB
	Left     int
	Right    int
	Instance int
}

// IsLeaf reports whether the node references an instance.
func (n *TLASNode) IsLeaf() bool {
	return n.Left == 0 && n.Right == 0
}

// TLAS combines positioned BVH instances into one tree. It is read-only once
// built; rebuild it when instance transforms change.
type TLAS struct {
	Nodes     []TLASNode
	NodesUsed int
	Instances []BVHInstance
}

// NewTLAS clusters instances bottom-up, always merging the pair whose union
// has the smallest half area. It panics when given no instances or more than
// MaxInstances.
func NewTLAS(instances []BVHInstance) *TLAS {
	n := len(instances)
	if n == 0 {
		panic("accel: cannot build a TLAS with no instances")
	}
	if n > MaxInstances {
		panic(fmt.Sprintf("accel: TLAS supports at most %d instances, got %d", MaxInstances, n))
	}
	start := time.Now()

	t := &TLAS{
		// Slot 0 receives the root; leaves occupy 1..n and merges n+1..2n-1.
		Nodes:     make([]TLASNode, 2*n),
		Instances: instances,
	}

	queue := make([]int, n)
	t.NodesUsed = 1
	for i := range instances {
		queue[i] = t.NodesUsed
		t.Nodes[t.NodesUsed] = TLASNode{Bounds: instances[i].Bounds, Instance: i}
		t.NodesUsed++
	}

	count := n
	a := 0
	b := -1
	if count > 1 {
		b = t.findBestMatch(queue[:count], a)
	}
	for count > 1 {
		c := t.findBestMatch(queue[:count], b)
		if c != a && t.mergeCost(queue[a], queue[b]) <= t.mergeCost(queue[b], queue[c]) {
			// b has no strictly better partner than a.
			c = a
		}
		if c != a {
			a, b = b, c
			continue
		}

		nodeA, nodeB := queue[a], queue[b]
		t.Nodes[t.NodesUsed] = TLASNode{
			Bounds: t.Nodes[nodeA].Bounds.Union(t.Nodes[nodeB].Bounds),
			Left:   nodeA,
			Right:  nodeB,
		}
		queue[a] = t.NodesUsed
		t.NodesUsed++

		queue[b] = queue[count-1]
		count--
		if a == count {
			// a was the last slot and has just been moved into b's place.
			a = b
		}
		if count > 1 {
			b = t.findBestMatch(queue[:count], a)
		}
	}

	t.Nodes[0] = t.Nodes[queue[a]]
	logger.Debugf("built TLAS over %d instances: %d nodes in %s", n, t.NodesUsed, time.Since(start))
	return t
}

func (t *TLAS) mergeCost(nodeA, nodeB int) float64 {
	return t.Nodes[nodeA].Bounds.Union(t.Nodes[nodeB].Bounds).HalfArea()
}

// findBestMatch returns the queue slot whose node merges with queue[a] at the
// lowest cost. Equal costs resolve to the lowest slot.
func (t *TLAS) findBestMatch(queue []int, a int) int {
	best := -1
	smallest := math.Inf(1)
	for b := range queue {
		if b == a {
			continue
		}
		if cost := t.mergeCost(queue[a], queue[b]); cost < smallest {
			smallest = cost
			best = b
		}
	}
	return best
}

// Root returns node 0.
func (t *TLAS) Root() *TLASNode {
	return &t.Nodes[0]
}

// Bounds returns the root bounds.
func (t *TLAS) Bounds() AABB {
	return t.Nodes[0].Bounds
}

// IntersectLineSegment finds the nearest triangle of any instance crossed by
// a world-space segment. On a nearer hit it updates seg.T,
// seg.CollidingBVHIndex and seg.CollidingPrimitive and returns true; the
// segment is left untouched otherwise.
func (t *TLAS) IntersectLineSegment(seg *LineSegment) bool {
	ray := newSegmentRay(seg)
	hit := false

	stack := make([]int, 1, 64)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[idx]
		if !ray.intersectAABB(node.Bounds, seg.T) {
			continue
		}

		if node.IsLeaf() {
			if t.Instances[node.Instance].IntersectSegment(seg) {
				seg.CollidingBVHIndex = node.Instance
				hit = true
			}
			continue
		}
		stack = append(stack, node.Left, node.Right)
	}
	return hit
}

// QueryInstances calls fn for every instance whose world bounds overlap box.
func (t *TLAS) QueryInstances(box AABB, fn func(instance int)) {
	stack := []int{0}
	for len(stack) > 0 {
		node := &t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !node.Bounds.Intersects(box) {
			continue
		}
		if node.IsLeaf() {
			fn(node.Instance)
			continue
		}
		stack = append(stack, node.Left, node.Right)
	}
}
