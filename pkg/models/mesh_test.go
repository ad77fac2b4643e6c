package models

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/math3d"
	"github.com/taigrr/rastercore/pkg/render"
)

var _ render.Mesh = (*Mesh)(nil)

// checkOutwardWinding verifies every face is clockwise seen from outside,
// using out to give the outward direction at the face centroid.
func checkOutwardWinding(t *testing.T, m *Mesh, out func(centroid math3d.Vec3) math3d.Vec3) {
	t.Helper()
	for i := range m.Faces {
		f := &m.Faces[i]
		c := m.GetPosition(f.V[0]).Add(m.GetPosition(f.V[1])).Add(m.GetPosition(f.V[2])).Scale(1.0 / 3)
		if m.faceCross(f).Dot(out(c)) <= 0 {
			t.Errorf("face %d %v is not clockwise from outside", i, f.V)
		}
	}
}

func checkTangentFrames(t *testing.T, m *Mesh) {
	t.Helper()
	for i, v := range m.Vertices {
		if math.Abs(v.Tangent.Len()-1) > 1e-6 || math.Abs(v.Tangent.Dot(v.Normal)) > 1e-6 {
			t.Errorf("vertex %d tangent %v not unit and orthogonal to %v", i, v.Tangent, v.Normal)
		}
		if math.Abs(math.Abs(v.Bitangent.Dot(v.Normal.Cross(v.Tangent)))-1) > 1e-6 {
			t.Errorf("vertex %d bitangent %v not +-n x t", i, v.Bitangent)
		}
	}
}

func TestNewCube(t *testing.T) {
	m := NewCube(2)
	if m.VertexCount() != 24 || m.TriangleCount() != 12 {
		t.Fatalf("cube has %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	if !m.Bounds.Min.ApproxEqual(math3d.Splat3(-1), 1e-12) || !m.Bounds.Max.ApproxEqual(math3d.Splat3(1), 1e-12) {
		t.Errorf("bounds = %+v", m.Bounds)
	}
	checkOutwardWinding(t, m, func(c math3d.Vec3) math3d.Vec3 { return c })
	for i, v := range m.Vertices {
		if v.Position.Dot(v.Normal) <= 0 {
			t.Errorf("vertex %d normal %v points inward", i, v.Normal)
		}
	}
	checkTangentFrames(t, m)

	// The UV layout reproduces the built-in frames.
	c := m.Clone()
	c.CalculateTangents()
	for i := range c.Vertices {
		if !c.Vertices[i].Tangent.ApproxEqual(m.Vertices[i].Tangent, 1e-9) ||
			!c.Vertices[i].Bitangent.ApproxEqual(m.Vertices[i].Bitangent, 1e-9) {
			t.Errorf("vertex %d: derived frame %v %v, built-in %v %v", i,
				c.Vertices[i].Tangent, c.Vertices[i].Bitangent, m.Vertices[i].Tangent, m.Vertices[i].Bitangent)
		}
	}
}

func TestNewPlane(t *testing.T) {
	m := NewPlane(4, 2)
	if m.VertexCount() != 9 || m.TriangleCount() != 8 {
		t.Fatalf("plane has %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	checkOutwardWinding(t, m, func(math3d.Vec3) math3d.Vec3 { return math3d.Up() })
	checkTangentFrames(t, m)
	if got := m.Size(); !got.ApproxEqual(math3d.V3(4, 0, 4), 1e-12) {
		t.Errorf("size = %v", got)
	}
	if NewPlane(1, 0).TriangleCount() != 2 {
		t.Error("zero divisions should give one quad")
	}
}

func TestNewUVSphere(t *testing.T) {
	const rings, segments = 8, 16
	m := NewUVSphere(2, rings, segments)
	if want := (rings + 1) * (segments + 1); m.VertexCount() != want {
		t.Errorf("vertices = %d, want %d", m.VertexCount(), want)
	}
	if want := 2*rings*segments - 2*segments; m.TriangleCount() != want {
		t.Errorf("triangles = %d, want %d", m.TriangleCount(), want)
	}
	for i, v := range m.Vertices {
		if math.Abs(v.Position.Len()-2) > 1e-9 {
			t.Fatalf("vertex %d at radius %v", i, v.Position.Len())
		}
	}
	checkOutwardWinding(t, m, func(c math3d.Vec3) math3d.Vec3 { return c })
	checkTangentFrames(t, m)
}

func TestBuildCollider(t *testing.T) {
	if err := NewMesh("empty").BuildCollider(); !errors.Is(err, ErrNoTriangles) {
		t.Errorf("err = %v, want ErrNoTriangles", err)
	}

	m := NewCube(2)
	if m.Collider() != nil {
		t.Fatal("primitives start without a collider")
	}
	if err := m.BuildCollider(); err != nil {
		t.Fatal(err)
	}
	b := m.Collider().Bounds()
	if !b.Min.ApproxEqual(m.Bounds.Min, 1e-12) || !b.Max.ApproxEqual(m.Bounds.Max, 1e-12) {
		t.Errorf("collider bounds %+v, mesh bounds %+v", b, m.Bounds)
	}
}

func TestMeshTransform(t *testing.T) {
	m := NewCube(2)
	if err := m.BuildCollider(); err != nil {
		t.Fatal(err)
	}
	m.Transform(math3d.Translate(math3d.V3(5, 0, 0)).Mul(math3d.Scale(math3d.V3(2, 1, 1))))

	want := accel.FromMinMax(math3d.V3(3, -1, -1), math3d.V3(7, 1, 1))
	if !m.Bounds.Min.ApproxEqual(want.Min, 1e-12) || !m.Bounds.Max.ApproxEqual(want.Max, 1e-12) {
		t.Errorf("bounds = %+v, want %+v", m.Bounds, want)
	}
	if !m.Center().ApproxEqual(math3d.V3(5, 0, 0), 1e-12) {
		t.Errorf("center = %v", m.Center())
	}

	// The collider follows the new positions.
	seg := accel.NewLineSegment(math3d.V3(5, 0, -5), math3d.V3(5, 0, 5))
	if !m.Collider().IntersectSegment(&seg) {
		t.Fatal("segment through the moved cube missed")
	}
	if math.Abs(seg.T-0.4) > 1e-9 {
		t.Errorf("hit T = %v, want 0.4", seg.T)
	}

	// Normals stay unit and perpendicular to their side.
	for i, v := range m.Vertices {
		if math.Abs(v.Normal.Len()-1) > 1e-9 {
			t.Errorf("vertex %d normal length %v", i, v.Normal.Len())
		}
	}
	checkOutwardWinding(t, m, func(c math3d.Vec3) math3d.Vec3 { return c.Sub(math3d.V3(5, 0, 0)) })
}

func TestMaterials(t *testing.T) {
	m := NewMesh("test")
	m.Materials = []Material{
		{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}},
		{Name: "green", BaseColor: [4]float64{0, 1, 0, 1}},
	}
	m.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{3, 4, 5}, Material: 1},
		{V: [3]int{6, 7, 8}, Material: -1},
	}

	tests := []struct {
		index int
		want  string
	}{
		{0, "red"},
		{1, "green"},
		{-1, ""},
		{99, ""},
	}
	for _, tt := range tests {
		mat := m.GetMaterial(tt.index)
		switch {
		case tt.want == "" && mat != nil:
			t.Errorf("GetMaterial(%d) = %q, want nil", tt.index, mat.Name)
		case tt.want != "" && (mat == nil || mat.Name != tt.want):
			t.Errorf("GetMaterial(%d) = %v, want %q", tt.index, mat, tt.want)
		}
	}
	if m.GetFaceMaterial(2) != -1 || m.MaterialCount() != 2 {
		t.Errorf("face material %d, count %d", m.GetFaceMaterial(2), m.MaterialCount())
	}
	if m.Materials[0].HasTexture() || m.BaseMap() != nil {
		t.Error("material without a map reported a texture")
	}
}

func TestMeshClone(t *testing.T) {
	m := NewCube(1)
	m.Materials = []Material{{Name: "mat"}}
	if err := m.BuildCollider(); err != nil {
		t.Fatal(err)
	}

	c := m.Clone()
	c.Materials[0].Name = "changed"
	c.Vertices[0].Position = math3d.Splat3(9)
	if m.Materials[0].Name != "mat" || m.Vertices[0].Position.ApproxEqual(math3d.Splat3(9), 0) {
		t.Error("clone shares storage with the original")
	}
	if c.Collider() == nil || c.Collider() == m.Collider() || c.Collider().Mesh() != c {
		t.Error("clone should own a collider over its own vertices")
	}
}

func TestRenderCubeBackFaces(t *testing.T) {
	cam := render.NewCamera()
	cam.SetAspectRatio(1)
	cam.SetPosition(math3d.V3(0, 0, 5))
	cam.LookAt(math3d.Zero3())

	fb := render.NewFramebuffer(32, 32)
	fb.Clear(render.ColorBlack)
	r := render.NewRenderer(cam)
	r.Options.CullBackFaces = true

	if err := r.RenderEntityMesh(fb, NewCube(2), math3d.Identity()); err != nil {
		t.Fatal(err)
	}
	// Only the +Z side faces the camera.
	if r.Stats.TrianglesRasterized != 2 || r.Stats.TrianglesCulled != 10 {
		t.Errorf("rasterized %d, culled %d; want 2 and 10", r.Stats.TrianglesRasterized, r.Stats.TrianglesCulled)
	}
	if fb.GetPixel(16, 16) == render.ColorBlack {
		t.Error("cube not drawn at the center")
	}
}
