package render

import (
	"math"
	"testing"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// clipVertex builds a vertex whose attributes are linear functions of its
// position, so any correct interpolation keeps them in sync.
func clipVertex(x, y, z, w float64) VertexOut {
	p := math3d.V4(x, y, z, w)
	return VertexOut{
		Position:      p,
		WorldPosition: p.Vec3(),
		Normal:        math3d.V3(w, x, y),
		UV:            math3d.V2(x, z),
		Color:         p,
	}
}

func clipTri(a, b, c [4]float64) ClipTriangle {
	return ClipTriangle{
		clipVertex(a[0], a[1], a[2], a[3]),
		clipVertex(b[0], b[1], b[2], b[3]),
		clipVertex(c[0], c[1], c[2], c[3]),
	}
}

func checkAttributes(t *testing.T, tris []ClipTriangle) {
	t.Helper()
	for i, tri := range tris {
		for j, v := range tri {
			want := clipVertex(v.Position.X, v.Position.Y, v.Position.Z, v.Position.W)
			if !v.WorldPosition.ApproxEqual(want.WorldPosition, 1e-9) ||
				!v.Normal.ApproxEqual(want.Normal, 1e-9) ||
				math.Abs(v.UV.X-want.UV.X) > 1e-9 || math.Abs(v.UV.Y-want.UV.Y) > 1e-9 ||
				v.Color.Sub(want.Color).Len() > 1e-9 {
				t.Errorf("triangle %d vertex %d attributes drifted from position: %+v", i, j, v)
			}
		}
	}
}

func ndcArea(tri ClipTriangle) float64 {
	var p [3]math3d.Vec2
	for i, v := range tri {
		n := v.Position.PerspectiveDivide()
		p[i] = math3d.V2(n.X, n.Y)
	}
	return p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
}

func TestClipInsideUnchanged(t *testing.T) {
	tri := clipTri([4]float64{-0.5, -0.5, 0, 1}, [4]float64{0.5, -0.5, 0.2, 1}, [4]float64{0, 0.5, -0.3, 1})
	var c Clipper
	out := c.Clip(tri)
	if len(out) != 1 || out[0] != tri {
		t.Fatalf("Clip of an inside triangle = %+v", out)
	}
}

func TestClipOutsideDiscarded(t *testing.T) {
	tests := []struct {
		name string
		tri  ClipTriangle
	}{
		{"behind near", clipTri([4]float64{0, 0, -2, 1}, [4]float64{1, 0, -3, 1}, [4]float64{0, 1, -5, 1})},
		{"beyond far", clipTri([4]float64{0, 0, 2, 1}, [4]float64{0.5, 0, 3, 1}, [4]float64{0, 0.5, 5, 1})},
		{"left", clipTri([4]float64{-2, 0, 0, 1}, [4]float64{-3, 0.5, 0, 1}, [4]float64{-2, -0.5, 0, 1})},
		{"right", clipTri([4]float64{2, 0, 0, 1}, [4]float64{3, 0.5, 0, 1}, [4]float64{2, -0.5, 0, 1})},
		{"top", clipTri([4]float64{0, 2, 0, 1}, [4]float64{0.5, 3, 0, 1}, [4]float64{-0.5, 2, 0, 1})},
		{"bottom", clipTri([4]float64{0, -2, 0, 1}, [4]float64{0.5, -3, 0, 1}, [4]float64{-0.5, -2, 0, 1})},
	}
	var c Clipper
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := c.Clip(tt.tri); len(out) != 0 {
				t.Errorf("Clip returned %d triangles, want 0", len(out))
			}
		})
	}
}

func TestClipAgainstNearPlane(t *testing.T) {
	tests := []struct {
		name string
		tri  ClipTriangle
		want int
	}{
		{"one outside", clipTri([4]float64{-0.5, -0.5, -2, 1}, [4]float64{0.5, -0.5, 0, 1}, [4]float64{0, 0.5, 2, 1}), 2},
		{"two outside", clipTri([4]float64{-0.5, -0.5, -2, 1}, [4]float64{0.5, -0.5, -2, 1}, [4]float64{0, 0.5, 0, 1}), 1},
		{"outside vertex last", clipTri([4]float64{-0.5, -0.5, 0, 1}, [4]float64{0.5, -0.5, 0.5, 1}, [4]float64{0, 0.5, -3, 1}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ClipAgainstPlane(tt.tri, ClipNear, nil)
			if len(out) != tt.want {
				t.Fatalf("got %d triangles, want %d", len(out), tt.want)
			}
			for _, tri := range out {
				for _, v := range tri {
					if ClipNear.Distance(v.Position) < -1e-12 {
						t.Errorf("vertex %v is behind the near plane", v.Position)
					}
				}
				if ndcArea(tri) <= 0 {
					t.Errorf("winding flipped: area %v", ndcArea(tri))
				}
			}
			checkAttributes(t, out)
		})
	}
}

func TestClipCrossingPoint(t *testing.T) {
	// Edges from z=1 to z=-3 with w=1 cross z=-1 halfway.
	tri := clipTri([4]float64{0.5, 0, 1, 1}, [4]float64{0, 0, -3, 1}, [4]float64{0, 0.5, -3, 1})
	out := ClipAgainstPlane(tri, ClipNear, nil)
	if len(out) != 1 {
		t.Fatalf("got %d triangles, want 1", len(out))
	}
	a := out[0]
	if a[0] != tri[0] {
		t.Errorf("first vertex should be the inside vertex")
	}
	for i, want := range []math3d.Vec4{math3d.V4(0.25, 0, -1, 1), math3d.V4(0.25, 0.25, -1, 1)} {
		if got := a[i+1].Position; got.Sub(want).Len() > 1e-12 {
			t.Errorf("vertex %d = %v, want %v", i+1, got, want)
		}
	}
}

func TestClipAllPlanes(t *testing.T) {
	// Large triangle straddling every plane.
	tri := clipTri([4]float64{-4, -4, -3, 1}, [4]float64{4, -4, 0, 1}, [4]float64{0, 4, 3, 1})
	var c Clipper
	out := c.Clip(tri)
	if len(out) == 0 {
		t.Fatal("straddling triangle disappeared")
	}
	for _, tri := range out {
		for _, v := range tri {
			for _, p := range clipPlanes {
				if p.Distance(v.Position) < -1e-9 {
					t.Errorf("vertex %v outside %s plane", v.Position, p)
				}
			}
		}
		if ndcArea(tri) < -1e-9 {
			t.Errorf("winding flipped: area %v", ndcArea(tri))
		}
	}
	checkAttributes(t, out)

	// A second call reuses the buffers without corrupting results.
	inside := clipTri([4]float64{0, 0, 0, 1}, [4]float64{0.1, 0, 0, 1}, [4]float64{0, 0.1, 0, 1})
	if again := c.Clip(inside); len(again) != 1 || again[0] != inside {
		t.Errorf("second Clip = %+v", again)
	}
}

func BenchmarkClip(b *testing.B) {
	tri := clipTri([4]float64{-4, -4, -3, 1}, [4]float64{4, -4, 0, 1}, [4]float64{0, 4, 3, 1})
	var c Clipper
	for b.Loop() {
		_ = c.Clip(tri)
	}
}
