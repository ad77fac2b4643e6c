package render

import (
	"fmt"
	"strings"
)

// DepthTestMethod selects how a fragment's depth is compared against the
// stored depth.
type DepthTestMethod int

const (
	DepthTestAlways DepthTestMethod = iota
	DepthTestNever
	DepthTestLess
	DepthTestEqual
	DepthTestLessThanOrEqual
	DepthTestGreater
	DepthTestNotEqual
	DepthTestGreaterThanOrEqual
)

var depthTestNames = [...]string{
	DepthTestAlways:             "always",
	DepthTestNever:              "never",
	DepthTestLess:               "less",
	DepthTestEqual:              "equal",
	DepthTestLessThanOrEqual:    "lequal",
	DepthTestGreater:            "greater",
	DepthTestNotEqual:           "notequal",
	DepthTestGreaterThanOrEqual: "gequal",
}

func (m DepthTestMethod) String() string {
	if m < 0 || int(m) >= len(depthTestNames) {
		return fmt.Sprintf("DepthTestMethod(%d)", int(m))
	}
	return depthTestNames[m]
}

// ParseDepthTestMethod accepts the names printed by String.
func ParseDepthTestMethod(s string) (DepthTestMethod, error) {
	for i, name := range depthTestNames {
		if strings.EqualFold(s, name) {
			return DepthTestMethod(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDepthTest, s)
}

// MaxDepth is the cleared value of every depth cell.
const MaxDepth float32 = 1.0

// ZBuffer stores one non-linear depth value per pixel. Depth is encoded as
// (1/z - 1/near) / (1/far - 1/near) so precision is concentrated near the
// camera.
type ZBuffer struct {
	Width           int
	Height          int
	Values          []float32
	DepthTestMethod DepthTestMethod

	near, far       float64
	invNear, invFar float64
	projectionDepth float64
}

// NewZBuffer returns a cleared buffer using DepthTestLess.
func NewZBuffer(width, height int, near, far float64) *ZBuffer {
	z := &ZBuffer{DepthTestMethod: DepthTestLess}
	z.SetProjection(near, far)
	z.Resize(width, height)
	return z
}

// SetProjection changes the near and far planes used for encoding. Stored
// values are not re-encoded.
func (z *ZBuffer) SetProjection(near, far float64) {
	if near <= 0 || far <= near {
		panic(fmt.Sprintf("render: invalid depth range near=%g far=%g", near, far))
	}
	z.near, z.far = near, far
	z.invNear, z.invFar = 1/near, 1/far
	z.projectionDepth = far - near
}

func (z *ZBuffer) Near() float64 { return z.near }
func (z *ZBuffer) Far() float64  { return z.far }

// ProjectionDepth is far - near.
func (z *ZBuffer) ProjectionDepth() float64 { return z.projectionDepth }

// NonLinearDepth encodes a linear view distance. Values outside [near, far]
// fall outside [0, 1] and are not clamped.
func (z *ZBuffer) NonLinearDepth(linear float64) float32 {
	return float32((1/linear - z.invNear) / (z.invFar - z.invNear))
}

// LinearDepth decodes a stored value back into a view distance.
func (z *ZBuffer) LinearDepth(depth float32) float64 {
	return 1 / (float64(depth)*(z.invFar-z.invNear) + z.invNear)
}

func (z *ZBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < z.Width && y >= 0 && y < z.Height
}

// Test decides whether a fragment at linear depth linear would be written at
// (x, y) and returns its encoded depth. It never modifies the buffer; callers
// write accepted depths with Set. Coordinates outside the buffer are rejected.
func (z *ZBuffer) Test(x, y int, linear float64) (float32, bool) {
	if !z.inBounds(x, y) {
		return 0, false
	}
	depth := z.NonLinearDepth(linear)

	switch z.DepthTestMethod {
	case DepthTestAlways:
		return depth, true
	case DepthTestNever:
		return depth, false
	}

	stored := z.Values[y*z.Width+x]
	var pass bool
	switch z.DepthTestMethod {
	case DepthTestLess:
		pass = depth < stored
	case DepthTestEqual:
		pass = depth == stored
	case DepthTestLessThanOrEqual:
		pass = depth <= stored
	case DepthTestGreater:
		pass = depth > stored
	case DepthTestNotEqual:
		pass = depth != stored
	case DepthTestGreaterThanOrEqual:
		pass = depth >= stored
	default:
		panic(fmt.Sprintf("render: unknown depth test method %d", int(z.DepthTestMethod)))
	}
	return depth, pass
}

// Set stores an encoded depth. Out of range coordinates are ignored.
func (z *ZBuffer) Set(x, y int, depth float32) {
	if !z.inBounds(x, y) {
		return
	}
	z.Values[y*z.Width+x] = depth
}

// Get returns the stored depth, or MaxDepth outside the buffer.
func (z *ZBuffer) Get(x, y int) float32 {
	if !z.inBounds(x, y) {
		return MaxDepth
	}
	return z.Values[y*z.Width+x]
}

// GetNormalized returns the stored depth clamped to [0, 1].
func (z *ZBuffer) GetNormalized(x, y int) float32 {
	return min(max(z.Get(x, y), 0), 1)
}

// Clear resets every cell to MaxDepth.
func (z *ZBuffer) Clear() {
	n := len(z.Values)
	if n == 0 {
		return
	}
	z.Values[0] = MaxDepth
	for i := 1; i < n; i *= 2 {
		copy(z.Values[i:], z.Values[:i])
	}
}

// Resize reallocates the buffer and clears it.
func (z *ZBuffer) Resize(width, height int) {
	z.Width, z.Height = width, height
	if cap(z.Values) >= width*height {
		z.Values = z.Values[:width*height]
	} else {
		z.Values = make([]float32, width*height)
	}
	z.Clear()
}
