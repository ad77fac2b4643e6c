package render

import "github.com/taigrr/rastercore/pkg/math3d"

// ClipPlane is one of the six canonical clip-space planes.
type ClipPlane int

const (
	ClipNear ClipPlane = iota
	ClipFar
	ClipLeft
	ClipRight
	ClipTop
	ClipBottom
)

// clipPlanes is the order Clipper applies the planes in.
var clipPlanes = [...]ClipPlane{ClipNear, ClipFar, ClipLeft, ClipRight, ClipTop, ClipBottom}

func (p ClipPlane) String() string {
	switch p {
	case ClipNear:
		return "near"
	case ClipFar:
		return "far"
	case ClipLeft:
		return "left"
	case ClipRight:
		return "right"
	case ClipTop:
		return "top"
	case ClipBottom:
		return "bottom"
	}
	return "unknown"
}

// Distance is the signed distance of a clip-space position from the plane.
// Positive is inside.
func (p ClipPlane) Distance(v math3d.Vec4) float64 {
	switch p {
	case ClipNear:
		return v.Z + v.W
	case ClipFar:
		return v.W - v.Z
	case ClipLeft:
		return v.X + v.W
	case ClipRight:
		return v.W - v.X
	case ClipTop:
		return v.W - v.Y
	case ClipBottom:
		return v.Y + v.W
	}
	panic("render: unknown clip plane")
}

// ClipTriangle is a triangle of shaded vertices in clip space.
type ClipTriangle [3]VertexOut

// ClipAgainstPlane appends the part of tri inside plane to dst as zero, one
// or two triangles with the original winding.
func ClipAgainstPlane(tri ClipTriangle, plane ClipPlane, dst []ClipTriangle) []ClipTriangle {
	var d [3]float64
	inside := 0
	for i := range tri {
		d[i] = plane.Distance(tri[i].Position)
		if d[i] > 0 {
			inside++
		}
	}

	switch inside {
	case 0:
		return dst
	case 3:
		return append(dst, tri)
	case 1:
		i := 0
		for d[i] <= 0 {
			i++
		}
		j, k := (i+1)%3, (i+2)%3
		a := tri[i]
		return append(dst, ClipTriangle{
			a,
			a.Lerp(tri[j], d[i]/(d[i]-d[j])),
			a.Lerp(tri[k], d[i]/(d[i]-d[k])),
		})
	default:
		o := 0
		for d[o] > 0 {
			o++
		}
		j, k := (o+1)%3, (o+2)%3
		// q lies on edge o-j, p on edge k-o; the quad is q j k p.
		q := tri[j].Lerp(tri[o], d[j]/(d[j]-d[o]))
		p := tri[k].Lerp(tri[o], d[k]/(d[k]-d[o]))
		return append(dst,
			ClipTriangle{q, tri[j], tri[k]},
			ClipTriangle{q, tri[k], p},
		)
	}
}

// Clipper clips triangles against the whole view volume. Its buffers are
// reused between calls, so a Clipper must not be shared between goroutines.
type Clipper struct {
	front, back []ClipTriangle
}

// Clip returns the parts of tri inside all six planes. The slice is only
// valid until the next call.
func (c *Clipper) Clip(tri ClipTriangle) []ClipTriangle {
	c.front = append(c.front[:0], tri)
	for _, plane := range clipPlanes {
		c.back = c.back[:0]
		for _, t := range c.front {
			c.back = ClipAgainstPlane(t, plane, c.back)
		}
		c.front, c.back = c.back, c.front
		if len(c.front) == 0 {
			break
		}
	}
	return c.front
}
