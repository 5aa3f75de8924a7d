package rigidbody

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/physics"
)

const testDt = float32(1.0 / 60.0)

func newPhysics(t *testing.T) *Physics {
	t.Helper()
	p := New(config.Default().Physics, nil, zaptest.NewLogger(t), nil)
	p.Initialize()
	return p
}

func TestCreateBeforeInitialize(t *testing.T) {
	p := New(config.Default().Physics, nil, zaptest.NewLogger(t), nil)
	h := p.CreateRigidBody(physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "")
	assert.True(t, h.IsZero())
	assert.Nil(t, p.World())
	assert.Equal(t, 0, p.BodyCount())
	p.Update(testDt)
}

func TestInitializeUsesConfig(t *testing.T) {
	cfg := config.Default().Physics
	cfg.Gravity = config.Vec3{0, -3, 0}
	cfg.SolverIterations = 4
	p := New(cfg, nil, nil, nil)
	p.Initialize()
	p.Initialize()

	require.NotNil(t, p.World())
	assert.Equal(t, rl.Vector3{Y: -3}, p.World().Gravity)
	assert.Equal(t, 4, p.World().Iterations)
	assert.NotNil(t, p.Constraints())
}

func TestZeroGravityFromConfig(t *testing.T) {
	cfg := config.Default().Physics
	cfg.Gravity = config.Vec3{}
	p := New(cfg, nil, nil, nil)
	p.Initialize()
	assert.Equal(t, rl.Vector3{}, p.World().Gravity)

	h := p.CreateRigidBody(physics.ShapeSphere, rl.Vector3{Y: 5}, rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, 1, "")
	for i := 0; i < 30; i++ {
		p.Update(testDt)
	}
	pos, ok := p.Position(h)
	require.True(t, ok)
	assert.Equal(t, float32(5), pos.Y, "nothing pulls the body down")
}

func TestCreateRigidBodySizing(t *testing.T) {
	p := newPhysics(t)

	box := p.Body(p.CreateRigidBody(physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 2, Y: 4, Z: 6}, 1, ""))
	require.NotNil(t, box)
	assert.Equal(t, rl.Vector3{X: 1, Y: 2, Z: 3}, box.Shape().HalfExtents)

	sphere := p.Body(p.CreateRigidBody(physics.ShapeSphere, rl.Vector3{}, rl.Vector3{X: 0.5, Y: 9, Z: 9}, 1, ""))
	assert.Equal(t, float32(0.5), sphere.Shape().Radius)

	capsule := p.Body(p.CreateRigidBody(physics.ShapeCapsule, rl.Vector3{}, rl.Vector3{X: 0.5, Y: 2}, 1, ""))
	assert.Equal(t, float32(0.5), capsule.Shape().Radius)
	assert.InDelta(t, 1, capsule.Shape().Height, 1e-6)

	short := p.Body(p.CreateRigidBody(physics.ShapeCapsule, rl.Vector3{}, rl.Vector3{X: 0.5, Y: 0.8}, 1, ""))
	assert.InDelta(t, minCapsuleHeight, short.Shape().Height, 1e-6)

	assert.Equal(t, 4, p.BodyCount())
}

func TestUnknownShapeFallsBackToUnitBox(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	p := New(config.Default().Physics, nil, zap.New(core), nil)
	p.Initialize()

	b := p.Body(p.CreateRigidBody(physics.ShapeKind(42), rl.Vector3{}, rl.Vector3{X: 5, Y: 5, Z: 5}, 1, ""))
	require.NotNil(t, b)
	assert.Equal(t, physics.ShapeBox, b.Shape().Kind)
	assert.Equal(t, rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, b.Shape().HalfExtents)
	assert.Equal(t, 1, logs.Len())
}

func TestMaterialAndStatic(t *testing.T) {
	p := newPhysics(t)

	rubber := p.Body(p.CreateRigidBody(physics.ShapeSphere, rl.Vector3{}, rl.Vector3{X: 1}, 1, "Rubber"))
	assert.Equal(t, float32(0.9), rubber.Friction)
	assert.Equal(t, float32(0.8), rubber.Restitution)
	assert.Equal(t, "Rubber", rubber.Material)

	unknown := p.Body(p.CreateRigidBody(physics.ShapeSphere, rl.Vector3{}, rl.Vector3{X: 1}, 1, "Unobtainium"))
	assert.Equal(t, "Default", unknown.Material)

	ground := p.Body(p.CreateRigidBody(physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 1, Y: 1, Z: 1}, 0, ""))
	assert.True(t, ground.IsStatic())
	assert.Equal(t, rl.Vector3{}, ground.LocalInertia())
}

func TestRemoveRigidBody(t *testing.T) {
	p := newPhysics(t)
	h := p.CreateRigidBody(physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "")

	assert.True(t, p.RemoveRigidBody(h))
	assert.Nil(t, p.Body(h), "handle is invalid after removal")
	assert.False(t, p.RemoveRigidBody(h))
	assert.False(t, p.RemoveRigidBody(physics.Handle{}))
	_, ok := p.Position(h)
	assert.False(t, ok)
}

func TestResizeRigidBodyPreservesState(t *testing.T) {
	p := newPhysics(t)
	old := p.CreateRigidBody(physics.ShapeBox, rl.Vector3{X: 1, Y: 2, Z: 3}, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "Wood")
	b := p.Body(old)
	rot := rl.QuaternionFromAxisAngle(rl.Vector3{Y: 1}, 0.7)
	owner := "crate"
	b.SetOrientation(rot)
	b.SetLinearVelocity(rl.Vector3{X: 4})
	b.SetAngularVelocity(rl.Vector3{Z: 1})
	b.SetDamping(0.2, 0.3)
	b.SetActivationState(physics.AlwaysActive)
	require.True(t, p.SetUserPointer(old, owner))

	h := p.ResizeRigidBody(old, physics.ShapeSphere, rl.Vector3{X: 2}, 3, "Metal")
	require.False(t, h.IsZero())
	assert.Nil(t, p.Body(old))
	assert.Equal(t, 1, p.BodyCount())

	nb := p.Body(h)
	require.NotNil(t, nb)
	assert.Equal(t, physics.ShapeSphere, nb.Shape().Kind)
	assert.Equal(t, float32(2), nb.Shape().Radius)
	assert.Equal(t, float32(3), nb.Mass())
	assert.Equal(t, "Metal", nb.Material)
	assert.Equal(t, rl.Vector3{X: 1, Y: 2, Z: 3}, nb.Position())
	assert.InDelta(t, rot.Y, nb.Orientation().Y, 1e-6)
	assert.InDelta(t, rot.W, nb.Orientation().W, 1e-6)
	assert.Equal(t, rl.Vector3{X: 4}, nb.LinearVelocity())
	assert.Equal(t, rl.Vector3{Z: 1}, nb.AngularVelocity())
	assert.InDelta(t, 0.2, nb.LinearDamping(), 1e-6)
	assert.InDelta(t, 0.3, nb.AngularDamping(), 1e-6)
	assert.Equal(t, physics.AlwaysActive, nb.ActivationState())
	assert.Equal(t, owner, nb.UserData)

	assert.True(t, p.ResizeRigidBody(old, physics.ShapeBox, rl.Vector3{X: 1}, 1, "").IsZero(), "stale handle")
}

func TestUpdateStepsOnce(t *testing.T) {
	p := newPhysics(t)
	h := p.CreateRigidBody(physics.ShapeSphere, rl.Vector3{Y: 10}, rl.Vector3{X: 0.5}, 1, "")

	p.Update(testDt)
	pos, ok := p.Position(h)
	require.True(t, ok)
	assert.InDelta(t, 10-9.8*testDt*testDt, pos.Y, 1e-4)

	p.Update(0)
	again, _ := p.Position(h)
	assert.Equal(t, pos, again, "non-positive dt does nothing")
}

func TestApplyImpulseAndGravity(t *testing.T) {
	p := newPhysics(t)
	p.SetGravity(rl.Vector3{})
	h := p.CreateRigidBody(physics.ShapeSphere, rl.Vector3{}, rl.Vector3{X: 0.5}, 2, "")
	static := p.CreateRigidBody(physics.ShapeBox, rl.Vector3{X: 5}, rl.Vector3{X: 1, Y: 1, Z: 1}, 0, "")

	assert.True(t, p.ApplyImpulse(h, rl.Vector3{X: 4}))
	assert.False(t, p.ApplyImpulse(static, rl.Vector3{X: 4}))
	assert.Equal(t, rl.Vector3{X: 2}, p.Body(h).LinearVelocity())
}

func TestCleanup(t *testing.T) {
	p := newPhysics(t)
	a := p.CreateRigidBody(physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "")
	p.CreateRigidBody(physics.ShapeBox, rl.Vector3{X: 3}, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "")

	p.Cleanup()
	assert.Nil(t, p.World())
	assert.Nil(t, p.Body(a))
	assert.Equal(t, 0, p.BodyCount())

	p.Initialize()
	assert.False(t, p.CreateRigidBody(physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 1, Y: 1, Z: 1}, 1, "").IsZero())
}
