package models

import (
	"math"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// cubeSides lists each side's outward normal with an in-plane basis u, v
// where u x v is the normal.
var cubeSides = [6][3]math3d.Vec3{
	{{X: 1}, {Z: -1}, {Y: 1}},
	{{X: -1}, {Z: 1}, {Y: 1}},
	{{Y: 1}, {X: 1}, {Z: -1}},
	{{Y: -1}, {X: 1}, {Z: 1}},
	{{Z: 1}, {X: 1}, {Y: 1}},
	{{Z: -1}, {X: -1}, {Y: 1}},
}

// NewCube returns an axis-aligned cube of the given edge length centered on
// the origin. Each side has its own four vertices so normals stay flat.
func NewCube(size float64) *Mesh {
	m := NewMesh("cube")
	h := size / 2
	corners := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, side := range cubeSides {
		n, u, v := side[0], side[1], side[2]
		base := len(m.Vertices)
		for _, c := range corners {
			m.Vertices = append(m.Vertices, MeshVertex{
				Position:  n.Add(u.Scale(c[0])).Add(v.Scale(c[1])).Scale(h),
				Normal:    n,
				UV:        math3d.V2((c[0]+1)/2, (c[1]+1)/2),
				Tangent:   u,
				Bitangent: v,
			})
		}
		m.Faces = append(m.Faces,
			Face{V: [3]int{base, base + 2, base + 1}, Material: -1},
			Face{V: [3]int{base, base + 3, base + 2}, Material: -1},
		)
	}
	m.CalculateBounds()
	return m
}

// NewPlane returns a size x size square in the XZ plane facing +Y, split
// into divisions^2 quads.
func NewPlane(size float64, divisions int) *Mesh {
	divisions = max(1, divisions)
	m := NewMesh("plane")
	step := size / float64(divisions)
	for j := 0; j <= divisions; j++ {
		for i := 0; i <= divisions; i++ {
			s, t := float64(i)/float64(divisions), float64(j)/float64(divisions)
			m.Vertices = append(m.Vertices, MeshVertex{
				// v runs toward -Z.
				Position:  math3d.V3(-size/2+float64(i)*step, 0, size/2-float64(j)*step),
				Normal:    math3d.Up(),
				UV:        math3d.V2(s, t),
				Tangent:   math3d.V3(1, 0, 0),
				Bitangent: math3d.V3(0, 0, -1),
			})
		}
	}
	idx := func(i, j int) int { return j*(divisions+1) + i }
	for j := range divisions {
		for i := range divisions {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			m.Faces = append(m.Faces,
				Face{V: [3]int{a, c, b}, Material: -1},
				Face{V: [3]int{a, d, c}, Material: -1},
			)
		}
	}
	m.CalculateBounds()
	return m
}

// NewUVSphere returns a latitude/longitude sphere. The seam column is
// duplicated so UVs wrap cleanly; pole triangles that would collapse are
// left out.
func NewUVSphere(radius float64, rings, segments int) *Mesh {
	rings = max(2, rings)
	segments = max(3, segments)
	m := NewMesh("sphere")
	for r := 0; r <= rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			n := math3d.V3(math.Sin(theta)*math.Cos(phi), math.Cos(theta), math.Sin(theta)*math.Sin(phi))
			m.Vertices = append(m.Vertices, MeshVertex{
				Position: n.Scale(radius),
				Normal:   n,
				UV:       math3d.V2(float64(s)/float64(segments), 1-float64(r)/float64(rings)),
			})
		}
	}
	idx := func(r, s int) int { return r*(segments+1) + s }
	for r := range rings {
		for s := range segments {
			a, b, c, d := idx(r, s), idx(r, s+1), idx(r+1, s+1), idx(r+1, s)
			if r > 0 {
				m.Faces = append(m.Faces, Face{V: [3]int{a, d, b}, Material: -1})
			}
			if r < rings-1 {
				m.Faces = append(m.Faces, Face{V: [3]int{b, d, c}, Material: -1})
			}
		}
	}
	m.CalculateTangents()
	m.CalculateBounds()
	return m
}
