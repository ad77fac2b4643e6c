// Package models holds indexed triangle meshes, their loaders and a few
// built-in primitives.
//
// Front faces are wound clockwise when seen from outside, matching the
// renderer's screen-space convention.
package models

import (
	"image"
	"math"

	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/log"
	"github.com/taigrr/rastercore/pkg/math3d"
)

var logger = log.New("models")

// Mesh is an indexed triangle mesh. It satisfies render.Mesh.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounds is kept current by CalculateBounds and Transform.
	Bounds accel.AABB

	collider *accel.BVH
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position  math3d.Vec3
	Normal    math3d.Vec3
	UV        math3d.Vec2
	Tangent   math3d.Vec3
	Bitangent math3d.Vec3
}

// Face is a triangle with its material index, -1 for none.
type Face struct {
	V        [3]int
	Material int
}

// Material is the metallic-roughness subset the renderer uses.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0..1
	Metallic  float64
	Roughness float64
	BaseMap   image.Image
}

// HasTexture reports whether the material carries a base color map.
func (m *Material) HasTexture() bool {
	return m.BaseMap != nil
}

func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:   name,
		Bounds: accel.EmptyAABB(),
	}
}

// CalculateBounds recomputes Bounds from the vertex positions.
func (m *Mesh) CalculateBounds() {
	m.Bounds = accel.EmptyAABB()
	for i := range m.Vertices {
		m.Bounds.Grow(m.Vertices[i].Position)
	}
}

func (m *Mesh) Center() math3d.Vec3 {
	return m.Bounds.Center()
}

func (m *Mesh) Size() math3d.Vec3 {
	return m.Bounds.Extent()
}

func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

func (m *Mesh) GetPosition(i int) math3d.Vec3 {
	return m.Vertices[i].Position
}

func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := &m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

func (m *Mesh) GetTangent(i int) (tangent, bitangent math3d.Vec3) {
	v := &m.Vertices[i]
	return v.Tangent, v.Bitangent
}

// Collider returns the BVH built by BuildCollider, or nil.
func (m *Mesh) Collider() *accel.BVH {
	return m.collider
}

// BuildCollider builds the mesh BVH. The BVH reads positions through the
// mesh, so it must be rebuilt after any change to them; Transform does so.
func (m *Mesh) BuildCollider() error {
	if len(m.Faces) == 0 {
		return ErrNoTriangles
	}
	m.collider = accel.NewBVH(m)
	return nil
}

// faceCross returns (v2 - v0) x (v1 - v0), which points out of a clockwise
// front face and has twice its area as length.
func (m *Mesh) faceCross(f *Face) math3d.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v2.Sub(v0).Cross(v1.Sub(v0))
}

// CalculateNormals assigns each face's normal to its vertices. Vertices
// shared between faces keep the last face's normal.
func (m *Mesh) CalculateNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		n := m.faceCross(f).Normalize()
		for _, vi := range f.V {
			m.Vertices[vi].Normal = n
		}
	}
}

// CalculateSmoothNormals averages area-weighted face normals per vertex.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		n := m.faceCross(f)
		for _, vi := range f.V {
			m.Vertices[vi].Normal = m.Vertices[vi].Normal.Add(n)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// HasNormals reports whether any vertex has a non-zero normal.
func (m *Mesh) HasNormals() bool {
	for i := range m.Vertices {
		if m.Vertices[i].Normal.LenSq() > 1e-6 {
			return true
		}
	}
	return false
}

// CalculateTangents derives per-vertex tangent frames from the UV layout.
// Tangents follow +U and bitangents +V, orthogonalized against the normal.
// Vertices whose faces have degenerate UVs get an arbitrary frame around
// the normal.
func (m *Mesh) CalculateTangents() {
	tan := make([]math3d.Vec3, len(m.Vertices))
	bit := make([]math3d.Vec3, len(m.Vertices))

	for i := range m.Faces {
		f := &m.Faces[i]
		a, b, c := &m.Vertices[f.V[0]], &m.Vertices[f.V[1]], &m.Vertices[f.V[2]]
		e1 := b.Position.Sub(a.Position)
		e2 := c.Position.Sub(a.Position)
		d1 := b.UV.Sub(a.UV)
		d2 := c.UV.Sub(a.UV)

		det := d1.X*d2.Y - d2.X*d1.Y
		if math.Abs(det) < 1e-12 {
			continue
		}
		r := 1 / det
		t := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(r)
		bt := e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(r)
		for _, vi := range f.V {
			tan[vi] = tan[vi].Add(t)
			bit[vi] = bit[vi].Add(bt)
		}
	}

	for i := range m.Vertices {
		v := &m.Vertices[i]
		n := v.Normal
		t := tan[i].Sub(n.Scale(n.Dot(tan[i])))
		if t.LenSq() < 1e-12 {
			t = anyPerpendicular(n)
		}
		t = t.Normalize()
		b := n.Cross(t)
		if b.Dot(bit[i]) < 0 {
			b = b.Negate()
		}
		v.Tangent = t
		v.Bitangent = b
	}
}

// anyPerpendicular returns some vector orthogonal to n.
func anyPerpendicular(n math3d.Vec3) math3d.Vec3 {
	if math.Abs(n.X) < 0.9 {
		return n.Cross(math3d.V3(1, 0, 0))
	}
	return n.Cross(math3d.V3(0, 1, 0))
}

// Transform bakes mat into the vertices, then refreshes the bounds and, if
// one was built, the collider.
func (m *Mesh) Transform(mat math3d.Mat4) {
	normalMat := mat.NormalMatrix()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Position = mat.MulVec3(v.Position)
		v.Normal = normalMat.MulVec3Dir(v.Normal).Normalize()
		v.Tangent = mat.MulVec3Dir(v.Tangent).Normalize()
		v.Bitangent = mat.MulVec3Dir(v.Bitangent).Normalize()
	}
	m.CalculateBounds()
	if m.collider != nil {
		m.collider = accel.NewBVH(m)
	}
}

// Clone returns a deep copy. The copy gets its own collider if m has one.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		Bounds:    m.Bounds,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	if m.collider != nil {
		clone.collider = accel.NewBVH(clone)
	}
	return clone
}

// GetFaceMaterial returns the material index of face i, -1 for none.
func (m *Mesh) GetFaceMaterial(i int) int {
	return m.Faces[i].Material
}

// GetMaterial returns nil for -1 and out of range indices.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}

// BaseMap returns the first material texture, or nil.
func (m *Mesh) BaseMap() image.Image {
	for i := range m.Materials {
		if m.Materials[i].HasTexture() {
			return m.Materials[i].BaseMap
		}
	}
	return nil
}
