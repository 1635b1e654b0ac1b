package scene

import (
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
)

// Inputs is one frame of camera controls. DeltaX and DeltaY are look
// deltas (mouse motion); the booleans are held movement keys.
type Inputs struct {
	DeltaX, DeltaY float64

	Forward, Backward bool
	Left, Right       bool
	Upward, Downward  bool
	SpeedUp           bool
	SpeedDown         bool
}

// lookSensitivity scales look deltas per second.
const lookSensitivity = 0.5

// FlyCamera is a free-flying first-person camera. Yaw turns around the
// world Y axis, pitch around the camera X axis; there is no roll.
type FlyCamera struct {
	Position math3d.Vec3
	Yaw      float64 // radians
	Pitch    float64 // radians

	FOV    float64 // vertical field of view in degrees
	Aspect float64 // width / height
	Near   float64
	Far    float64
	Speed  float64 // world units per second

	view      math3d.Mat4
	proj      math3d.Mat4
	viewDirty bool
	projDirty bool
}

// NewFlyCamera creates a camera at the origin looking down -Z for a
// width x height target.
func NewFlyCamera(width, height int) *FlyCamera {
	c := &FlyCamera{
		FOV:       60,
		Near:      0.001,
		Far:       200,
		Speed:     2,
		viewDirty: true,
		projDirty: true,
	}
	c.SetSize(width, height)
	return c
}

// SetSize updates the aspect ratio for a new target size.
func (c *FlyCamera) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float64(width) / float64(height)
	c.projDirty = true
}

// SetPosition moves the camera.
func (c *FlyCamera) SetPosition(p math3d.Vec3) {
	c.Position = p
	c.viewDirty = true
}

// SetRotation sets yaw and pitch in radians.
func (c *FlyCamera) SetRotation(yaw, pitch float64) {
	c.Yaw = yaw
	c.Pitch = pitch
	c.viewDirty = true
}

// SetLens sets the field of view in degrees and the clip distances.
func (c *FlyCamera) SetLens(fov, near, far float64) {
	c.FOV, c.Near, c.Far = fov, near, far
	c.projDirty = true
}

// Forward returns the horizontal direction the camera moves in.
func (c *FlyCamera) Forward() math3d.Vec3 {
	return math3d.V3(math.Sin(c.Yaw), 0, -math.Cos(c.Yaw))
}

// Right returns the horizontal strafe direction.
func (c *FlyCamera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, math.Sin(c.Yaw))
}

// Update applies one frame of input over dt seconds.
func (c *FlyCamera) Update(dt float64, in Inputs) {
	c.Speed += (b2f(in.SpeedUp) - b2f(in.SpeedDown)) * dt
	c.Speed = max(c.Speed, 0)

	if in.DeltaX != 0 || in.DeltaY != 0 {
		c.Yaw += in.DeltaX * lookSensitivity * dt
		c.Pitch += in.DeltaY * lookSensitivity * dt
		c.viewDirty = true
	}

	forward := b2f(in.Forward) - b2f(in.Backward)
	up := b2f(in.Upward) - b2f(in.Downward)
	right := b2f(in.Right) - b2f(in.Left)
	if forward == 0 && up == 0 && right == 0 {
		return
	}

	step := c.Speed * dt
	c.Position = c.Position.Add(c.Forward().Scale(forward * step)).
		Add(c.Right().Scale(right * step)).
		Add(math3d.V3(0, up*step, 0))
	c.viewDirty = true
}

// View returns RotateX(pitch) * RotateY(yaw) * Translate(-position).
func (c *FlyCamera) View() math3d.Mat4 {
	if c.viewDirty {
		c.view = math3d.RotateX(c.Pitch).
			Mul(math3d.RotateY(c.Yaw)).
			Mul(math3d.Translate(c.Position.Negate()))
		c.viewDirty = false
	}
	return c.view
}

// Projection returns the perspective projection.
func (c *FlyCamera) Projection() math3d.Mat4 {
	if c.projDirty {
		c.proj = math3d.Perspective(c.FOV*math.Pi/180, c.Aspect, c.Near, c.Far)
		c.projDirty = false
	}
	return c.proj
}

// ViewProjection returns Projection * View.
func (c *FlyCamera) ViewProjection() math3d.Mat4 {
	return c.Projection().Mul(c.View())
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
