package main

import (
	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// Spring settings for velocity decay: moderate speed, critically damped.
const (
	spinFrequency = 4.0
	spinDamping   = 1.0
)

// RotationAxis is one angle whose velocity springs back to zero.
type RotationAxis struct {
	Angle    float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // the spring's own velocity while it drives Velocity to 0
}

func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		spring: harmonica.NewSpring(harmonica.FPS(fps), spinFrequency, spinDamping),
	}
}

// Step advances the angle by one frame and decays the velocity.
func (a *RotationAxis) Step() {
	a.Angle += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// Rotation is the model orientation driven by impulses.
type Rotation struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

func NewRotation(fps int) *Rotation {
	r := &Rotation{fps: fps}
	r.Reset()
	return r
}

func (r *Rotation) Step() {
	r.Pitch.Step()
	r.Yaw.Step()
	r.Roll.Step()
}

func (r *Rotation) Impulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

func (r *Rotation) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Spinning reports whether any axis still moves noticeably.
func (r *Rotation) Spinning() bool {
	const eps = 1e-5
	return abs(r.Pitch.Velocity) > eps || abs(r.Yaw.Velocity) > eps || abs(r.Roll.Velocity) > eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Matrix applies roll, then yaw, then pitch.
func (r *Rotation) Matrix() math3d.Mat4 {
	return math3d.RotateX(r.Pitch.Angle).
		Mul(math3d.RotateY(r.Yaw.Angle)).
		Mul(math3d.RotateZ(r.Roll.Angle))
}
