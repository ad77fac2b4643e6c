package render

import (
	"math"

	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/math3d"
)

// Camera is a perspective camera oriented by Euler angles.
type Camera struct {
	Position math3d.Vec3

	// Radians. Yaw turns around Y, pitch around X, roll around Z.
	Pitch, Yaw, Roll float64

	FOV         float64 // vertical, radians
	AspectRatio float64
	Near, Far   float64

	dirty    bool
	view     math3d.Mat4
	proj     math3d.Mat4
	viewProj math3d.Mat4
	invVP    math3d.Mat4
	clipAABB accel.AABB
}

// NewCamera returns a camera at the origin looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		FOV:         math.Pi / 3,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         100,
		dirty:       true,
	}
}

func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch, c.Yaw, c.Roll = pitch, yaw, roll
	c.dirty = true
}

func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.dirty = true
}

func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.dirty = true
}

// SetClipPlanes sets the near and far distances. The renderer copies them
// into the depth attachment before each draw.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near, c.Far = near, far
	c.dirty = true
}

// LookAt turns the camera toward target, clearing roll.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()
	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0
	c.dirty = true
}

// Forward is -Z rotated by yaw and pitch.
func (c *Camera) Forward() math3d.Vec3 {
	cp := math.Cos(c.Pitch)
	return math3d.V3(-math.Sin(c.Yaw)*cp, math.Sin(c.Pitch), -math.Cos(c.Yaw)*cp)
}

func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
}

func (c *Camera) Up() math3d.Vec3 {
	return c.Right().Cross(c.Forward())
}

func (c *Camera) update() {
	if !c.dirty {
		return
	}
	rot := math3d.RotateZ(-c.Roll).Mul(math3d.RotateX(-c.Pitch)).Mul(math3d.RotateY(-c.Yaw))
	c.view = rot.Mul(math3d.Translate(c.Position.Negate()))
	c.proj = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
	c.viewProj = c.proj.Mul(c.view)
	c.invVP = c.viewProj.Inverse()

	c.clipAABB = accel.EmptyAABB()
	for _, corner := range accel.FromMinMax(math3d.Splat3(-1), math3d.Splat3(1)).Corners() {
		c.clipAABB.Grow(c.invVP.MulVec3(corner))
	}
	c.dirty = false
}

func (c *Camera) ViewMatrix() math3d.Mat4 {
	c.update()
	return c.view
}

func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	c.update()
	return c.proj
}

func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	c.update()
	return c.viewProj
}

// ClippingFrustumAABB returns the world-space box around the view frustum,
// built from the eight NDC cube corners unprojected through the inverse
// view-projection.
func (c *Camera) ClippingFrustumAABB() accel.AABB {
	c.update()
	return c.clipAABB
}

// Frustum returns the six world-space frustum planes.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// ScreenSegment returns the world-space segment from the near plane to the
// far plane under the pixel (px, py) of a width x height target. Used for
// picking.
func (c *Camera) ScreenSegment(px, py float64, width, height int) accel.LineSegment {
	c.update()
	nx := px/float64(width)*2 - 1
	ny := 1 - py/float64(height)*2
	return accel.NewLineSegment(
		c.invVP.MulVec3(math3d.V3(nx, ny, -1)),
		c.invVP.MulVec3(math3d.V3(nx, ny, 1)),
	)
}

// WorldToScreen projects a world point into pixel coordinates. ok is false
// when the point lies behind the camera or outside the view volume.
func (c *Camera) WorldToScreen(p math3d.Vec3, width, height int) (x, y, depth float64, ok bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	if math.Abs(ndc.X) > 1 || math.Abs(ndc.Y) > 1 || math.Abs(ndc.Z) > 1 {
		return 0, 0, 0, false
	}
	x, y = ndcToScreen(ndc.X, ndc.Y, width, height)
	return x, y, ndc.Z, true
}

func ndcToScreen(nx, ny float64, width, height int) (x, y float64) {
	return (nx + 1) * 0.5 * float64(width), (1 - ny) * 0.5 * float64(height)
}
