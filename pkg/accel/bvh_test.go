package accel

import (
	"math"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/taigrr/rastercore/pkg/math3d"
)

type testMesh struct {
	verts []math3d.Vec3
	faces [][3]int
}

func (m *testMesh) TriangleCount() int            { return len(m.faces) }
func (m *testMesh) GetFace(i int) [3]int          { return m.faces[i] }
func (m *testMesh) GetPosition(i int) math3d.Vec3 { return m.verts[i] }

// cubeMesh is the 8 vertex, 12 triangle cube spanning [-1, 1].
func cubeMesh() *testMesh {
	m := &testMesh{}
	for i := range 8 {
		v := math3d.V3(-1, -1, -1)
		if i&1 != 0 {
			v.X = 1
		}
		if i&2 != 0 {
			v.Y = 1
		}
		if i&4 != 0 {
			v.Z = 1
		}
		m.verts = append(m.verts, v)
	}
	m.faces = [][3]int{
		{0, 4, 6}, {0, 6, 2}, // -x
		{1, 3, 7}, {1, 7, 5}, // +x
		{0, 1, 5}, {0, 5, 4}, // -y
		{2, 6, 7}, {2, 7, 3}, // +y
		{0, 2, 3}, {0, 3, 1}, // -z
		{4, 5, 7}, {4, 7, 6}, // +z
	}
	return m
}

// gridMesh is an n x n grid of unit quads on the XZ plane.
func gridMesh(n int) *testMesh {
	m := &testMesh{}
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			m.verts = append(m.verts, math3d.V3(float64(x), 0, float64(z)))
		}
	}
	for z := range n {
		for x := range n {
			i := z*(n+1) + x
			m.faces = append(m.faces, [3]int{i, i + 1, i + n + 2}, [3]int{i, i + n + 2, i + n + 1})
		}
	}
	return m
}

func randomMesh(r *rand.Rand, tris int) *testMesh {
	m := &testMesh{}
	for i := range tris {
		c := math3d.V3(r.Float64()*20-10, r.Float64()*20-10, r.Float64()*20-10)
		for range 3 {
			m.verts = append(m.verts, c.Add(math3d.V3(r.Float64(), r.Float64(), r.Float64())))
		}
		m.faces = append(m.faces, [3]int{3 * i, 3*i + 1, 3*i + 2})
	}
	return m
}

func leaves(b *BVH) []*BVHNode {
	var out []*BVHNode
	var walk func(idx int)
	walk = func(idx int) {
		n := &b.Nodes[idx]
		if n.IsLeaf() {
			out = append(out, n)
			return
		}
		walk(n.LeftChild)
		walk(n.LeftChild + 1)
	}
	walk(0)
	return out
}

func checkLeafCoverage(t *testing.T, b *BVH, n int) {
	t.Helper()
	var seen []int
	for _, leaf := range leaves(b) {
		seen = append(seen, b.Primitives(leaf)...)
	}
	slices.Sort(seen)
	if len(seen) != n {
		t.Fatalf("leaves cover %d primitives, want %d", len(seen), n)
	}
	for i, tri := range seen {
		if tri != i {
			t.Fatalf("leaf coverage mismatch at %d: got %d (duplicate or missing)", i, tri)
		}
	}
}

func checkBounds(t *testing.T, b *BVH, m *testMesh) {
	t.Helper()
	var walk func(idx int) AABB
	walk = func(idx int) AABB {
		n := &b.Nodes[idx]
		var got AABB
		if n.IsLeaf() {
			got = EmptyAABB()
			for _, tri := range b.Primitives(n) {
				for _, v := range m.faces[tri] {
					got.Grow(m.verts[v])
				}
			}
		} else {
			got = walk(n.LeftChild).Union(walk(n.LeftChild + 1))
		}
		if got != n.Bounds {
			t.Errorf("node %d bounds %+v, want %+v", idx, n.Bounds, got)
		}
		return got
	}
	walk(0)

	want := FromPoints(m.verts...)
	if b.Bounds() != want {
		t.Errorf("root bounds %+v, want %+v", b.Bounds(), want)
	}
}

func TestBVHCube(t *testing.T) {
	m := cubeMesh()
	b := NewBVH(m)

	root := b.Root()
	if root.IsLeaf() {
		t.Fatal("12 triangles should split the root")
	}
	if root.LeftChild != 1 {
		t.Errorf("root children start at %d, want 1", root.LeftChild)
	}
	want := AABB{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}
	if b.Bounds() != want {
		t.Errorf("root bounds = %+v, want %+v", b.Bounds(), want)
	}

	checkLeafCoverage(t, b, 12)
	checkBounds(t, b, m)

	// Leaves only exceed the load factor when no centroid falls on the
	// other side of the center split.
	for _, leaf := range leaves(b) {
		if leaf.Count <= LoadFactor {
			continue
		}
		axis := leaf.Bounds.LongestAxis()
		split := leaf.Bounds.Center().Component(axis)
		below := 0
		for _, tri := range b.Primitives(leaf) {
			if b.Tris[tri].Centroid.Component(axis) < split {
				below++
			}
		}
		if below != 0 && below != leaf.Count {
			t.Errorf("leaf with %d triangles could have been split (%d below)", leaf.Count, below)
		}
	}
}

func TestBVHGridRespectsLoadFactor(t *testing.T) {
	m := gridMesh(8)
	b := NewBVH(m)

	ls := leaves(b)
	if len(ls) != 32 {
		t.Errorf("got %d leaves, want 32", len(ls))
	}
	for _, leaf := range ls {
		if leaf.Count > LoadFactor {
			t.Errorf("leaf holds %d triangles, load factor is %d", leaf.Count, LoadFactor)
		}
	}
	checkLeafCoverage(t, b, len(m.faces))
	checkBounds(t, b, m)

	idx := b.Leaves()
	if len(idx) != len(ls) {
		t.Fatalf("Leaves() = %d nodes, want %d", len(idx), len(ls))
	}
	for i, n := range idx {
		if &b.Nodes[n] != ls[i] {
			t.Errorf("Leaves()[%d] = node %d, out of depth-first order", i, n)
		}
	}

	st := b.Stats()
	if st.MaxDepth != 5 || st.Leaves != 32 || st.NodesUsed != 63 {
		t.Errorf("stats = %+v", st)
	}
}

func TestBVHRandomMeshes(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{1, 2, 4, 5, 17, 100, 1000} {
		m := randomMesh(r, n)
		b := NewBVH(m)
		checkLeafCoverage(t, b, n)
		checkBounds(t, b, m)
		if b.NodesUsed > 2*n-1 {
			t.Errorf("n=%d: %d nodes used, allocation is %d", n, b.NodesUsed, 2*n-1)
		}
	}
}

func TestBVHDeterministic(t *testing.T) {
	m := randomMesh(rand.New(rand.NewPCG(7, 7)), 500)
	a := NewBVH(m)
	b := NewBVH(m)
	if !reflect.DeepEqual(a.Nodes, b.Nodes) || !reflect.DeepEqual(a.TriIndices, b.TriIndices) {
		t.Error("two builds over the same mesh differ")
	}
}

func TestBVHCoincidentCentroids(t *testing.T) {
	m := &testMesh{verts: []math3d.Vec3{{X: 0}, {X: 1}, {Y: 1}}}
	for range 10 {
		m.faces = append(m.faces, [3]int{0, 1, 2})
	}
	b := NewBVH(m)
	if !b.Root().IsLeaf() || b.Root().Count != 10 || b.NodesUsed != 1 {
		t.Errorf("coincident centroids should leave a single leaf, root = %+v, nodes = %d", *b.Root(), b.NodesUsed)
	}
}

func TestBVHEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a mesh with no faces")
		}
	}()
	NewBVH(&testMesh{})
}

func TestBVHIntersectSegment(t *testing.T) {
	b := NewBVH(cubeMesh())

	tests := []struct {
		name     string
		start    math3d.Vec3
		end      math3d.Vec3
		wantHit  bool
		wantT    float64
		wantFace int
	}{
		{"through -x face", math3d.V3(-5, 0.2, 0.3), math3d.V3(5, 0.2, 0.3), true, 0.4, 0},
		{"through +y face", math3d.V3(0.3, 5, 0.2), math3d.V3(0.3, -5, 0.2), true, 0.4, 7},
		{"passes above", math3d.V3(-5, 5, 0), math3d.V3(5, 5, 0), false, 1, -1},
		{"stops short", math3d.V3(-5, 0.2, 0.3), math3d.V3(-2, 0.2, 0.3), false, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := NewLineSegment(tt.start, tt.end)
			if got := b.IntersectSegment(&seg); got != tt.wantHit {
				t.Fatalf("hit = %v, want %v", got, tt.wantHit)
			}
			if math.Abs(seg.T-tt.wantT) > 1e-9 {
				t.Errorf("T = %f, want %f", seg.T, tt.wantT)
			}
			if seg.CollidingPrimitive != tt.wantFace {
				t.Errorf("primitive = %d, want %d", seg.CollidingPrimitive, tt.wantFace)
			}
		})
	}
}

func TestBVHQuery(t *testing.T) {
	m := gridMesh(8)
	b := NewBVH(m)

	var got []int
	b.Query(FromMinMax(math3d.V3(0, -1, 0), math3d.V3(0.5, 1, 0.5)), func(face int) {
		got = append(got, face)
	})
	if !slices.Contains(got, 0) || !slices.Contains(got, 1) {
		t.Errorf("query at the grid origin missed the first quad: %v", got)
	}
	if len(got) > 2*LoadFactor {
		t.Errorf("query returned %d faces, expected pruning", len(got))
	}
}

func BenchmarkNewBVH(b *testing.B) {
	m := randomMesh(rand.New(rand.NewPCG(3, 4)), 10000)
	for b.Loop() {
		_ = NewBVH(m)
	}
}

func BenchmarkBVHIntersectSegment(b *testing.B) {
	bvh := NewBVH(randomMesh(rand.New(rand.NewPCG(3, 4)), 10000))
	for b.Loop() {
		seg := NewLineSegment(math3d.V3(-20, 0.5, 0.5), math3d.V3(20, 0.5, 0.5))
		bvh.IntersectSegment(&seg)
	}
}
