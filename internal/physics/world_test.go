package physics

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDt = float32(1.0 / 60.0)

func newGround(w *World) *Body {
	ground := NewBody(BodyConfig{
		Shape:       NewBoxShape(rl.Vector3{X: 10, Y: 0.5, Z: 10}),
		Friction:    0.5,
		Restitution: 0.3,
	})
	w.AddBody(ground)
	return ground
}

func TestAddRemoveBody(t *testing.T) {
	w := NewWorld()
	b := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1})
	h := w.AddBody(b)

	require.False(t, h.IsZero())
	assert.Same(t, b, w.Body(h))
	assert.Equal(t, 1, w.BodyCount())

	assert.True(t, w.RemoveBody(h))
	assert.Nil(t, w.Body(h))
	assert.Equal(t, 0, w.BodyCount())
	assert.False(t, w.RemoveBody(h), "second remove is a no-op")
	assert.False(t, w.RemoveBody(Handle{}), "zero handle is a no-op")
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	w := NewWorld()
	h1 := w.AddBody(NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1}))
	w.RemoveBody(h1)
	h2 := w.AddBody(NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1}))

	assert.Equal(t, h1.Index, h2.Index, "slot should be reused")
	assert.NotEqual(t, h1, h2)
	assert.Nil(t, w.Body(h1))
	assert.NotNil(t, w.Body(h2))
}

func TestGravityIntegration(t *testing.T) {
	w := NewWorld()
	b := NewBody(BodyConfig{Shape: NewSphereShape(0.5), Mass: 2, Position: rl.Vector3{Y: 10}})
	w.AddBody(b)

	w.Step(testDt)

	assert.InDelta(t, -9.8*testDt, b.LinearVelocity().Y, 1e-4)
	assert.Less(t, b.Position().Y, float32(10))
}

func TestStaticBodyDoesNotMove(t *testing.T) {
	w := NewWorld()
	ground := newGround(w)
	for i := 0; i < 30; i++ {
		w.Step(testDt)
	}
	assert.Equal(t, rl.Vector3{}, ground.Position())
	assert.True(t, ground.IsStatic())
}

func TestBoxSettlesOnGroundAndSleeps(t *testing.T) {
	w := NewWorld()
	newGround(w)
	box := NewBody(BodyConfig{
		Shape:    NewBoxShape(rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}),
		Mass:     1,
		Position: rl.Vector3{Y: 1},
		Friction: 0.5,
	})
	w.AddBody(box)

	for i := 0; i < 120; i++ {
		w.Step(testDt)
	}

	assert.InDelta(t, 1.0, box.Position().Y, 0.05)
	assert.Equal(t, Sleeping, box.ActivationState())

	box.ApplyCentralImpulse(rl.Vector3{X: 1})
	assert.Equal(t, Active, box.ActivationState(), "impulse wakes the body")
}

func TestSphereBouncesOffGround(t *testing.T) {
	w := NewWorld()
	newGround(w)
	ball := NewBody(BodyConfig{
		Shape:       NewSphereShape(0.5),
		Mass:        1,
		Position:    rl.Vector3{Y: 4},
		Restitution: 0.8,
	})
	w.AddBody(ball)

	maxUp := float32(0)
	for i := 0; i < 120; i++ {
		w.Step(testDt)
		if v := ball.LinearVelocity().Y; v > maxUp {
			maxUp = v
		}
	}
	assert.Greater(t, maxUp, float32(1), "ball should bounce upward")
	assert.Greater(t, ball.Position().Y, float32(0.5), "ball must not sink through the ground")
}

func TestCollisionFilterGroups(t *testing.T) {
	w := NewWorld()
	a := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1, Group: 2, Mask: 2})
	b := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1, Group: 4, Mask: AllGroups})
	w.AddBody(a)
	w.AddBody(b)

	assert.False(t, w.shouldCollide(a, b), "a's mask excludes b's group")

	b.Group = 2
	assert.True(t, w.shouldCollide(a, b))
}

func TestJointDisablesCollisionBetweenLinkedBodies(t *testing.T) {
	w := NewWorld()
	a := NewBody(BodyConfig{Shape: NewBoxShape(rl.Vector3{X: 1, Y: 1, Z: 1}), Mass: 1})
	b := NewBody(BodyConfig{Shape: NewBoxShape(rl.Vector3{X: 1, Y: 1, Z: 1}), Mass: 1, Position: rl.Vector3{X: 1}})
	w.AddBody(a)
	w.AddBody(b)
	require.True(t, w.shouldCollide(a, b))

	j := NewJoint(a, b, Frame{}, Frame{Pivot: rl.Vector3{X: -1}})
	w.AddJoint(j, true)
	assert.False(t, w.shouldCollide(a, b))

	w.RemoveJoint(j)
	assert.True(t, w.shouldCollide(a, b))
	assert.Equal(t, 0, w.JointCount())
}

func TestRemoveBodyDisablesJoints(t *testing.T) {
	w := NewWorld()
	a := NewBody(BodyConfig{Shape: NewSphereShape(0.5), Mass: 1})
	w.AddBody(a)
	j := NewJoint(a, nil, Frame{}, Frame{})
	w.AddJoint(j, false)
	require.True(t, j.IsEnabled())

	w.RemoveBody(a.Handle())
	assert.False(t, j.IsEnabled())

	// Stepping with a disabled joint that references a removed body is safe
	w.Step(testDt)
}

func TestBroadPhaseFindsOverlappingPairs(t *testing.T) {
	w := NewWorld()
	a := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1})
	b := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1, Position: rl.Vector3{X: 1.5}})
	c := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1, Position: rl.Vector3{X: 10}})
	w.AddBody(a)
	w.AddBody(b)
	w.AddBody(c)

	pairs := w.broadPhase(w.Bodies())
	require.Len(t, pairs, 1)
	assert.ElementsMatch(t, []*Body{a, b}, pairs[0][:])
}

func TestSetDampingClamps(t *testing.T) {
	b := NewBody(BodyConfig{Shape: NewSphereShape(1), Mass: 1})
	b.SetDamping(-1, 3)
	assert.Equal(t, float32(0), b.LinearDamping())
	assert.Equal(t, float32(1), b.AngularDamping())
}

func TestZeroMassIsStatic(t *testing.T) {
	b := NewBody(BodyConfig{Shape: NewBoxShape(rl.Vector3{X: 1, Y: 1, Z: 1})})
	assert.True(t, b.IsStatic())
	assert.Equal(t, rl.Vector3{}, b.LocalInertia())

	b.ApplyCentralImpulse(rl.Vector3{Y: 100})
	assert.Equal(t, rl.Vector3{}, b.LinearVelocity())
}

func TestForcesAccumulateForOneStep(t *testing.T) {
	w := NewWorld()
	w.Gravity = rl.Vector3{}
	b := NewBody(BodyConfig{Shape: NewSphereShape(0.5), Mass: 2})
	w.AddBody(b)

	b.ApplyForce(rl.Vector3{X: 4})
	b.ApplyTorque(rl.Vector3{Y: 1})
	w.Step(testDt)

	// a = F/m = 2; sphere inertia 2/5·m·r² = 0.2 so alpha = 5
	v := b.LinearVelocity().X
	spin := b.AngularVelocity().Y
	assert.InDelta(t, 2*testDt, v, float64(2*testDt*0.02))
	assert.InDelta(t, 5*testDt, spin, float64(5*testDt*0.02))

	w.Step(testDt)
	assert.InDelta(t, v, b.LinearVelocity().X, float64(v*0.02), "forces are cleared after the step")
	assert.InDelta(t, spin, b.AngularVelocity().Y, float64(spin*0.02))
}

func TestTorqueImpulse(t *testing.T) {
	b := NewBody(BodyConfig{Shape: NewSphereShape(0.5), Mass: 2})
	b.ApplyTorqueImpulse(rl.Vector3{Z: 1})
	assert.InDelta(t, 5, b.AngularVelocity().Z, 1e-4)

	static := NewBody(BodyConfig{Shape: NewSphereShape(0.5)})
	static.ApplyTorqueImpulse(rl.Vector3{Z: 1})
	static.ApplyForce(rl.Vector3{X: 1})
	static.ApplyTorque(rl.Vector3{X: 1})
	assert.Equal(t, rl.Vector3{}, static.AngularVelocity())
}

func TestShapeBounds(t *testing.T) {
	capsule := NewCapsuleShape(0.5, 2)
	assert.Equal(t, AABB{Min: rl.Vector3{X: -0.5, Y: -1.5, Z: -0.5}, Max: rl.Vector3{X: 0.5, Y: 1.5, Z: 0.5}}, capsule.LocalAABB())

	sphere := NewSphereShape(2)
	got := sphere.WorldAABB(rl.Vector3{X: 10}, rl.QuaternionIdentity())
	assert.Equal(t, AABB{Min: rl.Vector3{X: 8, Y: -2, Z: -2}, Max: rl.Vector3{X: 12, Y: 2, Z: 2}}, got)
}
