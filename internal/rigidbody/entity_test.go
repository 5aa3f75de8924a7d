package rigidbody

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/constraint"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

func newObject(name string, pos, scale rl.Vector3) *engine.GameObject {
	obj := engine.NewGameObject(name)
	obj.Transform.Position = pos
	obj.Transform.Scale = scale
	return obj
}

func TestAttachToObject(t *testing.T) {
	p := newPhysics(t)
	obj := newObject("crate", rl.Vector3{Y: 3}, rl.Vector3{X: 2, Y: 1, Z: -2})
	obj.Transform.SetEulerDegrees(rl.Vector3{Y: 45})

	h := p.AttachToObject(obj, physics.ShapeBox, 5, "Wood")
	require.False(t, h.IsZero())

	rb := engine.GetComponent[*components.Rigidbody](obj)
	require.NotNil(t, rb)
	assert.Equal(t, h, rb.Body)
	assert.Equal(t, float32(5), rb.Mass)
	assert.Equal(t, "Wood", rb.Material)

	b := p.Body(h)
	assert.Equal(t, rl.Vector3{X: 1, Y: 0.5, Z: 1}, b.Shape().HalfExtents, "negative scale is mirrored, not inverted")
	assert.Equal(t, rl.Vector3{Y: 3}, b.Position())
	assert.InDelta(t, obj.Transform.Rotation.Y, b.Orientation().Y, 1e-6)
	assert.Same(t, obj, ObjectOf(b))

	assert.Equal(t, h, p.AttachToObject(obj, physics.ShapeSphere, 1, ""), "second attach keeps the body")
	assert.Equal(t, 1, p.BodyCount())
}

func TestSyncTransforms(t *testing.T) {
	p := newPhysics(t)
	falling := newObject("ball", rl.Vector3{Y: 5}, rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
	ground := newObject("ground", rl.Vector3{}, rl.Vector3{X: 10, Y: 1, Z: 10})
	p.AttachToObject(falling, physics.ShapeSphere, 1, "")
	p.AttachToObject(ground, physics.ShapeBox, 0, "Concrete")

	for i := 0; i < 10; i++ {
		p.Update(testDt)
	}
	p.SyncTransforms()

	assert.Less(t, falling.Transform.Position.Y, float32(5))
	assert.Equal(t, rl.Vector3{}, ground.Transform.Position)
}

func TestDetachFromObject(t *testing.T) {
	p := newPhysics(t)
	a := newObject("a", rl.Vector3{}, rl.Vector3{X: 1, Y: 1, Z: 1})
	b := newObject("b", rl.Vector3{X: 2}, rl.Vector3{X: 1, Y: 1, Z: 1})
	ha := p.AttachToObject(a, physics.ShapeBox, 1, "")
	p.AttachToObject(b, physics.ShapeBox, 1, "")

	presets := constraint.NewPresets(p.World(), zaptest.NewLogger(t))
	require.True(t, p.Constraints().Add(presets.CreateFixed(a, b)))

	assert.True(t, p.DetachFromObject(a))
	assert.Nil(t, p.Body(ha))
	assert.Nil(t, engine.GetComponent[*components.Rigidbody](a))
	assert.Equal(t, 0, p.Constraints().Len())
	assert.Empty(t, p.Constraints().ForObject(b))
	assert.Equal(t, 1, p.BodyCount())

	assert.False(t, p.DetachFromObject(a), "nothing left to detach")
}

func TestResizeObject(t *testing.T) {
	p := newPhysics(t)
	obj := newObject("crate", rl.Vector3{X: 1}, rl.Vector3{X: 1, Y: 1, Z: 1})
	anchor := newObject("anchor", rl.Vector3{X: 4}, rl.Vector3{X: 1, Y: 1, Z: 1})
	old := p.AttachToObject(obj, physics.ShapeBox, 1, "")
	p.AttachToObject(anchor, physics.ShapeBox, 0, "")

	presets := constraint.NewPresets(p.World(), zaptest.NewLogger(t))
	require.True(t, p.Constraints().Add(presets.CreateFixed(obj, anchor)))

	obj.Transform.Scale = rl.Vector3{X: 3, Y: 3, Z: 3}
	h := p.ResizeObject(obj, physics.ShapeBox, 2, "Metal")
	require.False(t, h.IsZero())
	assert.NotEqual(t, old, h)

	rb := engine.GetComponent[*components.Rigidbody](obj)
	assert.Equal(t, h, rb.Body)
	assert.Equal(t, float32(2), rb.Mass)
	assert.Equal(t, "Metal", rb.Material)
	assert.Equal(t, rl.Vector3{X: 1.5, Y: 1.5, Z: 1.5}, p.Body(h).Shape().HalfExtents)
	assert.Equal(t, rl.Vector3{X: 1}, p.Body(h).Position())
	assert.Same(t, obj, ObjectOf(p.Body(h)))
	assert.Equal(t, 0, p.Constraints().Len(), "constraints bound to the old body are dropped")
}

func TestBreakableConstraintPrunedByUpdate(t *testing.T) {
	p := newPhysics(t)
	door := newObject("door", rl.Vector3{}, rl.Vector3{X: 1, Y: 2, Z: 0.1})
	h := p.AttachToObject(door, physics.ShapeBox, 1, "")

	presets := constraint.NewPresets(p.World(), zaptest.NewLogger(t))
	hinge := presets.CreateHinge(door, nil, constraint.HingeParams{})
	require.NotNil(t, hinge)
	hinge.SetBreakingThreshold(100, 100)
	require.True(t, p.Constraints().Add(hinge))

	p.Update(testDt)
	require.Equal(t, 1, p.Constraints().Len())

	p.ApplyImpulse(h, rl.Vector3{Y: 1000})
	p.Update(testDt)
	assert.Equal(t, 0, p.Constraints().Len())
	assert.Nil(t, p.Constraints().FindByName(hinge.Name()))
}
