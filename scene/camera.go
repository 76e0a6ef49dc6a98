package scene

import (
	"fmt"

	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
)

// Pitch is clamped to this range to keep the camera basis well defined.
const maxPitch = math32.Pi/2 - 0.1

var worldUp = types.XYZ(0, 1, 0)

type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
	Up
	Down
)

// The camera type controls the scene camera. Its orientation is derived from
// the yaw and pitch angles (in radians); Update must be called after changing
// them directly.
type Camera struct {
	Position types.Vec3
	Yaw      float32
	Pitch    float32

	// Orthonormal camera basis.
	Forward types.Vec3
	Right   types.Vec3
	Up      types.Vec3
}

// Create a new camera and calculate its basis.
func NewCamera(position types.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position: position,
		Yaw:      yaw,
		Pitch:    pitch,
	}
	c.Update()
	return c
}

// Recalculate the camera basis from the yaw and pitch angles.
func (c *Camera) Update() {
	c.Pitch = math32.Max(math32.Min(c.Pitch, maxPitch), -maxPitch)

	c.Forward = types.XYZ(
		math32.Cos(c.Pitch)*math32.Sin(c.Yaw),
		math32.Sin(c.Pitch),
		math32.Cos(c.Pitch)*math32.Cos(c.Yaw),
	).Normalize()
	c.Right = c.Forward.Cross(worldUp).Normalize()
	c.Up = c.Right.Cross(c.Forward).Normalize()
}

// Generate a primary ray for the normalized screen coordinates u, v which
// range from -0.5 to 0.5 with v pointing up.
func (c *Camera) Ray(u, v float32) types.Ray {
	dir := c.Forward.
		Add(c.Right.Mul(2.0 * u)).
		Add(c.Up.Mul(2.0 * v)).
		Normalize()
	return types.NewRay(c.Position, dir)
}

// Move the camera along its basis vectors. Up and Down move along the world Y axis.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.Forward.Mul(amount))
	case Backward:
		c.Position = c.Position.Sub(c.Forward.Mul(amount))
	case Left:
		c.Position = c.Position.Sub(c.Right.Mul(amount))
	case Right:
		c.Position = c.Position.Add(c.Right.Mul(amount))
	case Up:
		c.Position = c.Position.Add(worldUp.Mul(amount))
	case Down:
		c.Position = c.Position.Sub(worldUp.Mul(amount))
	}
}

// Apply a yaw and pitch delta and update the camera basis.
func (c *Camera) Rotate(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.Update()
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"Camera:\nPosition : (%3.3f, %3.3f, %3.3f)\nYaw      : %3.3f\nPitch    : %3.3f\nForward  : (%3.3f, %3.3f, %3.3f)",
		c.Position[0], c.Position[1], c.Position[2],
		c.Yaw, c.Pitch,
		c.Forward[0], c.Forward[1], c.Forward[2],
	)
}
