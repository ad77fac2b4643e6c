package accel

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/taigrr/rastercore/pkg/math3d"
)

func cubeInstances(bvh *BVH, offsets ...math3d.Vec3) []BVHInstance {
	out := make([]BVHInstance, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, NewBVHInstance(bvh, math3d.Translate(o)))
	}
	return out
}

func tlasLeaves(t *TLAS) []int {
	var out []int
	var walk func(idx int)
	walk = func(idx int) {
		n := &t.Nodes[idx]
		if n.IsLeaf() {
			out = append(out, n.Instance)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(0)
	return out
}

func checkTLAS(t *testing.T, tlas *TLAS) {
	t.Helper()
	want := EmptyAABB()
	for _, inst := range tlas.Instances {
		want.GrowAABB(inst.Bounds)
	}
	if tlas.Bounds() != want {
		t.Errorf("root bounds %+v, want %+v", tlas.Bounds(), want)
	}

	got := tlasLeaves(tlas)
	slices.Sort(got)
	if len(got) != len(tlas.Instances) {
		t.Fatalf("tree references %d instances, want %d", len(got), len(tlas.Instances))
	}
	for i, inst := range got {
		if inst != i {
			t.Fatalf("instance %d referenced incorrectly (got %d)", i, inst)
		}
	}
	if tlas.NodesUsed != 2*len(tlas.Instances) {
		t.Errorf("NodesUsed = %d, want %d", tlas.NodesUsed, 2*len(tlas.Instances))
	}
}

func TestTLASPermutations(t *testing.T) {
	bvh := NewBVH(cubeMesh())
	r := rand.New(rand.NewPCG(5, 6))
	var offsets []math3d.Vec3
	for range 40 {
		offsets = append(offsets, math3d.V3(r.Float64()*100, r.Float64()*100, r.Float64()*100))
	}

	reversed := slices.Clone(offsets)
	slices.Reverse(reversed)
	rotated := append(slices.Clone(offsets[13:]), offsets[:13]...)
	shuffled := slices.Clone(offsets)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var roots []AABB
	for _, order := range [][]math3d.Vec3{offsets, reversed, rotated, shuffled} {
		tlas := NewTLAS(cubeInstances(bvh, order...))
		checkTLAS(t, tlas)
		roots = append(roots, tlas.Bounds())
	}
	for i := 1; i < len(roots); i++ {
		if roots[i] != roots[0] {
			t.Errorf("ordering %d changed the root bounds: %+v vs %+v", i, roots[i], roots[0])
		}
	}
}

func TestTLASMaxInstances(t *testing.T) {
	bvh := NewBVH(cubeMesh())
	r := rand.New(rand.NewPCG(9, 9))
	var offsets []math3d.Vec3
	for range MaxInstances {
		offsets = append(offsets, math3d.V3(r.Float64()*50, r.Float64()*50, r.Float64()*50))
	}
	checkTLAS(t, NewTLAS(cubeInstances(bvh, offsets...)))
}

func TestTLASSingleInstance(t *testing.T) {
	bvh := NewBVH(cubeMesh())
	tlas := NewTLAS(cubeInstances(bvh, math3d.V3(3, 0, 0)))
	if !tlas.Root().IsLeaf() || tlas.Root().Instance != 0 {
		t.Errorf("single instance root = %+v", *tlas.Root())
	}
	want := FromMinMax(math3d.V3(2, -1, -1), math3d.V3(4, 1, 1))
	if tlas.Bounds() != want {
		t.Errorf("bounds = %+v, want %+v", tlas.Bounds(), want)
	}
}

func TestTLASInstanceCountPanics(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{"none", 0},
		{"too many", MaxInstances + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for %d instances", tt.count)
				}
			}()
			NewTLAS(make([]BVHInstance, tt.count))
		})
	}
}

func TestTLASIntersectLineSegment(t *testing.T) {
	bvh := NewBVH(cubeMesh())
	// Instance order is deliberately not spatial order.
	tlas := NewTLAS(cubeInstances(bvh,
		math3d.V3(10, 0, 0),
		math3d.V3(0, 0, 0),
		math3d.V3(5, 0, 0),
	))

	seg := NewLineSegment(math3d.V3(-5, 0.2, 0.3), math3d.V3(15, 0.2, 0.3))
	if !tlas.IntersectLineSegment(&seg) {
		t.Fatal("segment through three cubes missed")
	}
	if math.Abs(seg.T-0.2) > 1e-9 {
		t.Errorf("T = %f, want 0.2", seg.T)
	}
	if seg.CollidingBVHIndex != 1 {
		t.Errorf("hit instance %d, want 1", seg.CollidingBVHIndex)
	}
	if seg.CollidingPrimitive != 0 {
		t.Errorf("hit primitive %d, want 0 (-x face)", seg.CollidingPrimitive)
	}
	if !seg.HitPoint().ApproxEqual(math3d.V3(-1, 0.2, 0.3), 1e-9) {
		t.Errorf("hit point = %v", seg.HitPoint())
	}

	// A segment that already carries a nearer hit is left alone.
	short := NewLineSegment(math3d.V3(-5, 0.2, 0.3), math3d.V3(15, 0.2, 0.3))
	short.T = 0.1
	if tlas.IntersectLineSegment(&short) {
		t.Error("hit reported beyond the current T")
	}
	if short.T != 0.1 || short.CollidingBVHIndex != -1 || short.CollidingPrimitive != -1 {
		t.Errorf("segment modified without a hit: %+v", short)
	}

	miss := NewLineSegment(math3d.V3(-5, 3, 0), math3d.V3(15, 3, 0))
	if tlas.IntersectLineSegment(&miss) || miss.Hit() {
		t.Errorf("segment above the row reported a hit: %+v", miss)
	}
}

func TestTLASScaledInstance(t *testing.T) {
	bvh := NewBVH(cubeMesh())
	tlas := NewTLAS([]BVHInstance{NewBVHInstance(bvh, math3d.ScaleUniform(2))})

	seg := NewLineSegment(math3d.V3(-5, 0.2, 0.3), math3d.V3(5, 0.2, 0.3))
	if !tlas.IntersectLineSegment(&seg) {
		t.Fatal("segment missed the scaled cube")
	}
	if math.Abs(seg.T-0.3) > 1e-9 {
		t.Errorf("T = %f, want 0.3", seg.T)
	}
}

func TestTLASQueryInstances(t *testing.T) {
	bvh := NewBVH(cubeMesh())
	tlas := NewTLAS(cubeInstances(bvh,
		math3d.V3(0, 0, 0),
		math3d.V3(5, 0, 0),
		math3d.V3(10, 0, 0),
		math3d.V3(0, 10, 0),
	))

	var got []int
	tlas.QueryInstances(FromMinMax(math3d.V3(3, -2, -2), math3d.V3(12, 2, 2)), func(i int) {
		got = append(got, i)
	})
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("QueryInstances = %v, want [1 2]", got)
	}
}

func BenchmarkNewTLAS(b *testing.B) {
	bvh := NewBVH(cubeMesh())
	r := rand.New(rand.NewPCG(1, 1))
	var offsets []math3d.Vec3
	for range MaxInstances {
		offsets = append(offsets, math3d.V3(r.Float64()*100, r.Float64()*100, r.Float64()*100))
	}
	instances := cubeInstances(bvh, offsets...)
	for b.Loop() {
		_ = NewTLAS(instances)
	}
}
