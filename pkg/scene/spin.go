package scene

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// SpinAxis tracks the angle and angular velocity of one rotation axis.
// Velocity decays toward zero through a critically damped spring.
type SpinAxis struct {
	Angle    float64 // radians
	Velocity float64 // radians per frame

	spring   harmonica.Spring
	velAccel float64 // spring velocity of Velocity itself
}

func newSpinAxis(fps int) SpinAxis {
	return SpinAxis{
		// Frequency 4 with damping 1 settles without overshoot.
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

func (a *SpinAxis) update() {
	a.Angle += a.Velocity
	a.Velocity, a.velAccel = a.spring.Update(a.Velocity, a.velAccel, 0)
}

// Spin is the spring-decayed rotation of an object around X, Y and Z.
type Spin struct {
	X, Y, Z SpinAxis
	fps     int
}

// NewSpin creates a Spin stepped at fps updates per second.
func NewSpin(fps int) *Spin {
	if fps <= 0 {
		fps = 60
	}
	return &Spin{
		X:   newSpinAxis(fps),
		Y:   newSpinAxis(fps),
		Z:   newSpinAxis(fps),
		fps: fps,
	}
}

// Update advances one frame.
func (s *Spin) Update() {
	s.X.update()
	s.Y.update()
	s.Z.update()
}

// Impulse adds angular velocity in radians per frame.
func (s *Spin) Impulse(x, y, z float64) {
	s.X.Velocity += x
	s.Y.Velocity += y
	s.Z.Velocity += z
}

// Reset stops the spin and returns every angle to zero.
func (s *Spin) Reset() {
	s.X = newSpinAxis(s.fps)
	s.Y = newSpinAxis(s.fps)
	s.Z = newSpinAxis(s.fps)
}

// Angles returns the current X, Y and Z angles.
func (s *Spin) Angles() (x, y, z float64) {
	return s.X.Angle, s.Y.Angle, s.Z.Angle
}

// Moving reports whether any axis still has noticeable velocity.
func (s *Spin) Moving() bool {
	const eps = 1e-6
	return math.Abs(s.X.Velocity) > eps || math.Abs(s.Y.Velocity) > eps || math.Abs(s.Z.Velocity) > eps
}
