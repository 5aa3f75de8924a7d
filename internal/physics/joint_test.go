package physics

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBall(w *World, pos rl.Vector3) *Body {
	b := NewBody(BodyConfig{Shape: NewSphereShape(0.25), Mass: 1, Position: pos})
	w.AddBody(b)
	return b
}

func TestFixedJointHoldsAgainstGravity(t *testing.T) {
	w := NewWorld()
	b := newBall(w, rl.Vector3{Y: 5})
	j := NewJoint(b, nil, Frame{}, Frame{Pivot: rl.Vector3{Y: 5}})
	w.AddJoint(j, false)

	for i := 0; i < 60; i++ {
		w.Step(testDt)
	}
	assert.InDelta(t, 5, b.Position().Y, 0.01)
	assert.True(t, j.IsEnabled())

	lin, _ := j.AppliedImpulse()
	assert.InDelta(t, 9.8*testDt, lin, 0.05, "joint carries the body's weight")
}

func TestJointBreaksOnLargeImpulse(t *testing.T) {
	w := NewWorld()
	b := newBall(w, rl.Vector3{})
	j := NewJoint(b, nil, Frame{}, Frame{})
	j.SetBreakingThreshold(100, 100)
	w.AddJoint(j, false)

	w.Step(testDt)
	require.True(t, j.IsEnabled(), "gravity alone must not break it")

	b.ApplyCentralImpulse(rl.Vector3{Y: 1000})
	w.Step(testDt)
	assert.False(t, j.IsEnabled())

	// Broken joints stay broken and are skipped by the solver
	for i := 0; i < 10; i++ {
		w.Step(testDt)
	}
	assert.False(t, j.IsEnabled())
	assert.Less(t, b.LinearVelocity().Y, float32(0), "body falls freely once released")
}

func TestUnbreakableJointSurvivesLargeImpulse(t *testing.T) {
	w := NewWorld()
	b := newBall(w, rl.Vector3{})
	j := NewJoint(b, nil, Frame{}, Frame{})
	w.AddJoint(j, false)

	b.ApplyCentralImpulse(rl.Vector3{Y: 1000})
	w.Step(testDt)
	assert.True(t, j.IsEnabled())
	assert.False(t, j.IsBreakable())
}

func TestHingePendulumKeepsLength(t *testing.T) {
	w := NewWorld()
	b := newBall(w, rl.Vector3{X: 1})
	axis := rl.Vector3{Z: 1}
	j := NewJoint(b, nil, NewFrame(rl.Vector3{X: -1}, axis), NewFrame(rl.Vector3{}, axis))
	j.SetLimit(AngularX, 1, -1)
	w.AddJoint(j, false)

	for i := 0; i < 30; i++ {
		w.Step(testDt)
	}
	assert.Less(t, b.Position().Y, float32(-0.1), "pendulum should swing down")
	assert.InDelta(t, 1, rl.Vector3Length(b.Position()), 0.1)
	assert.InDelta(t, 0, b.Position().Z, 0.01, "motion stays in the hinge plane")
}

func TestSetLimitModes(t *testing.T) {
	w := NewWorld()
	j := NewJoint(newBall(w, rl.Vector3{}), nil, Frame{}, Frame{})

	j.SetLimit(AngularX, 0, 0)
	assert.Equal(t, AxisLocked, j.Axis(AngularX).Mode)
	j.SetLimit(AngularX, 1, -1)
	assert.Equal(t, AxisFree, j.Axis(AngularX).Mode)
	j.SetLimit(AngularX, -0.5, 0.5)
	assert.Equal(t, AxisLimited, j.Axis(AngularX).Mode)

	// Out of range indices are ignored
	j.SetLimit(AxisCount, 0, 1)
	assert.Equal(t, AxisSettings{}, j.Axis(AxisCount))
}

func TestHingeCoordinateTracksRotation(t *testing.T) {
	w := NewWorld()
	b := newBall(w, rl.Vector3{})
	axis := rl.Vector3{Z: 1}
	j := NewJoint(b, nil, NewFrame(rl.Vector3{}, axis), NewFrame(rl.Vector3{}, axis))

	b.SetOrientation(rl.QuaternionFromAxisAngle(axis, 0.5))
	assert.InDelta(t, 0.5, j.Coordinate(AngularX), 1e-3)
	assert.InDelta(t, 0, j.Coordinate(AngularY), 1e-3)
}

func TestSliderMotorDrivesAlongAxis(t *testing.T) {
	w := NewWorld()
	w.Gravity = rl.Vector3{}
	b := newBall(w, rl.Vector3{})
	j := NewJoint(b, nil, NewFrame(rl.Vector3{}, rl.Vector3{X: 1}), NewFrame(rl.Vector3{}, rl.Vector3{X: 1}))
	j.SetLimit(LinearX, -5, 5)
	j.SetMotor(LinearX, true, 2, 100)
	w.AddJoint(j, false)

	for i := 0; i < 30; i++ {
		w.Step(testDt)
	}
	assert.InDelta(t, 1, b.Position().X, 0.1, "half a second at 2 units/s")
	assert.InDelta(t, 0, b.Position().Y, 0.01)
}

func TestSpringPullsTowardEquilibrium(t *testing.T) {
	w := NewWorld()
	w.Gravity = rl.Vector3{}
	b := newBall(w, rl.Vector3{X: 1})
	j := NewJoint(b, nil, Frame{}, Frame{})
	j.SetLimit(LinearX, 1, -1)
	j.SetSpring(LinearX, true, 50, 5)
	j.SetEquilibrium(LinearX, 0)
	w.AddJoint(j, false)

	start := absf(j.Coordinate(LinearX))
	for i := 0; i < 60; i++ {
		w.Step(testDt)
	}
	assert.Less(t, absf(j.Coordinate(LinearX)), start)
}
