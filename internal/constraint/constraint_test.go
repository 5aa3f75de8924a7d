package constraint

import (
	"testing"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

const testDt = float32(1.0 / 60.0)

type fixture struct {
	world    *physics.World
	presets  *Presets
	registry *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := physics.NewWorld()
	logger := zaptest.NewLogger(t)
	return &fixture{
		world:    w,
		presets:  NewPresets(w, logger),
		registry: NewRegistry(w, logger, nil),
	}
}

// spawn creates a unit box object with a body at pos.
func (f *fixture) spawn(name string, pos rl.Vector3, mass float32) *engine.GameObject {
	obj := engine.NewGameObject(name)
	obj.Transform.Position = pos
	b := physics.NewBody(physics.BodyConfig{
		Shape:    physics.NewBoxShape(rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}),
		Mass:     mass,
		Position: pos,
	})
	h := f.world.AddBody(b)
	obj.AddComponent(components.NewRigidbody(h, physics.ShapeBox, mass, "Default"))
	return obj
}

func (f *fixture) step(n int) {
	for i := 0; i < n; i++ {
		f.world.Step(testDt)
		f.registry.Update()
	}
}

func bodyOf(f *fixture, obj *engine.GameObject) *physics.Body {
	return f.presets.body(obj)
}

func TestParseType(t *testing.T) {
	for kind := TypeFixed; kind <= TypeGeneric6Dof; kind++ {
		got, ok := ParseType(kind.String())
		require.True(t, ok)
		assert.Equal(t, kind, got)
	}
	got, ok := ParseType("hinge")
	assert.True(t, ok)
	assert.Equal(t, TypeHinge, got)

	_, ok = ParseType("rope")
	assert.False(t, ok)
}

func TestPresetsRequireRigidBody(t *testing.T) {
	w := physics.NewWorld()
	core, logs := observer.New(zap.ErrorLevel)
	p := NewPresets(w, zap.New(core))

	bare := engine.NewGameObject("bare")
	assert.Nil(t, p.CreateHinge(bare, nil, HingeParams{}))
	assert.Nil(t, p.CreateFixed(nil, nil))
	assert.Equal(t, 2, logs.Len())
}

func TestPresetsRejectRemovedBody(t *testing.T) {
	f := newFixture(t)
	obj := f.spawn("gone", rl.Vector3{}, 1)
	rb := engine.GetComponent[*components.Rigidbody](obj)
	f.world.RemoveBody(rb.Body)

	assert.Nil(t, f.presets.CreateFixed(obj, nil))
}

func TestFixedHoldsAgainstGravity(t *testing.T) {
	f := newFixture(t)
	obj := f.spawn("crate", rl.Vector3{Y: 5}, 1)
	c := f.presets.CreateFixed(obj, nil)
	require.NotNil(t, c)
	require.True(t, f.registry.Add(c))

	f.step(60)
	assert.InDelta(t, 5, bodyOf(f, obj).Position().Y, 0.01)
	assert.True(t, c.IsEnabled())
}

func TestBreakableHingeIsPrunedAfterUpdate(t *testing.T) {
	f := newFixture(t)
	obj := f.spawn("door", rl.Vector3{}, 1)
	h := f.presets.CreateHinge(obj, nil, HingeParams{})
	require.NotNil(t, h)
	h.SetBreakingThreshold(100, 100)
	require.True(t, f.registry.Add(h))

	var fired []Constraint
	f.registry.OnBroken.AddListener(func(c Constraint) { fired = append(fired, c) })

	f.step(1)
	require.Equal(t, 1, f.registry.Len(), "gravity alone stays below the threshold")

	bodyOf(f, obj).ApplyCentralImpulse(rl.Vector3{Y: 1000})
	f.step(1)

	assert.Equal(t, 0, f.registry.Len())
	assert.Empty(t, f.registry.All())
	assert.Nil(t, f.registry.FindByName(h.Name()))
	assert.Equal(t, 1, f.registry.Broken())
	assert.Equal(t, 0, f.world.JointCount())
	require.Len(t, fired, 1)
	assert.Same(t, h, fired[0].(*Hinge))
}

func TestUnbreakableConstraintStays(t *testing.T) {
	f := newFixture(t)
	obj := f.spawn("post", rl.Vector3{}, 1)
	c := f.presets.CreateFixed(obj, nil)
	require.True(t, f.registry.Add(c))

	bodyOf(f, obj).ApplyCentralImpulse(rl.Vector3{Y: 1000})
	f.step(1)
	assert.Equal(t, 1, f.registry.Len())
	assert.False(t, c.IsBreakable())
}

func TestBreakingThresholdAccessors(t *testing.T) {
	f := newFixture(t)
	c := f.presets.CreateFixed(f.spawn("a", rl.Vector3{}, 1), nil)
	assert.False(t, c.IsBreakable())

	c.SetBreakingThreshold(250, 40)
	assert.True(t, c.IsBreakable())
	assert.Equal(t, float32(250), c.BreakForce())
	assert.Equal(t, float32(40), c.BreakTorque())
}

func TestPendulumSwingsAndKeepsLength(t *testing.T) {
	f := newFixture(t)
	bob := f.spawn("bob", rl.Vector3{X: 2}, 1)
	h := f.presets.CreatePendulum(bob, rl.Vector3{})
	require.NotNil(t, h)
	require.True(t, f.registry.Add(h))

	f.step(30)
	pos := bodyOf(f, bob).Position()
	assert.Less(t, pos.Y, float32(-0.1))
	assert.InDelta(t, 2, rl.Vector3Length(pos), 0.15)
	assert.Less(t, h.Angle(), float32(0), "swinging down from +X turns clockwise about +Z")
}

func TestSliderMotor(t *testing.T) {
	f := newFixture(t)
	f.world.Gravity = rl.Vector3{}
	obj := f.spawn("platform", rl.Vector3{}, 1)
	s := f.presets.CreateSlider(obj, nil, SliderParams{Limited: true, Lower: -5, Upper: 5})
	require.NotNil(t, s)
	require.True(t, f.registry.Add(s))

	s.EnableMotor(2, 100)
	f.step(30)
	assert.InDelta(t, 1, s.Position(), 0.1)
	assert.InDelta(t, 1, bodyOf(f, obj).Position().X, 0.1)

	s.DisableMotor()
	assert.False(t, s.Joint().Axis(physics.LinearX).MotorEnabled)
}

func TestDoorHinge(t *testing.T) {
	f := newFixture(t)
	door := f.spawn("door", rl.Vector3{Y: 1}, 1)
	door.Transform.Scale = rl.Vector3{X: 2, Y: 2, Z: 0.1}
	h := f.presets.CreateDoorHinge(door, nil)
	require.NotNil(t, h)

	ax := h.Joint().Axis(physics.AngularX)
	assert.Equal(t, physics.AxisLimited, ax.Mode)
	assert.Equal(t, float32(0), ax.Lower)
	assert.InDelta(t, math32.Pi/2, ax.Upper, 1e-6)

	pivot := h.Joint().FrameA().Pivot
	assert.InDelta(t, -1, pivot.X, 1e-6, "left edge of a 2 wide door")
	assert.InDelta(t, -1, h.Joint().FrameB().Pivot.X, 1e-6, "world pivot matches")
	assert.InDelta(t, 1, h.Joint().FrameB().Pivot.Y, 1e-6)
}

func TestDrawerAndRopeSegment(t *testing.T) {
	f := newFixture(t)
	cabinet := f.spawn("cabinet", rl.Vector3{}, 0)
	drawer := f.spawn("drawer", rl.Vector3{Z: 0.2}, 1)

	d := f.presets.CreateDrawer(drawer, cabinet, 0.4)
	require.NotNil(t, d)
	lin := d.Joint().Axis(physics.LinearX)
	assert.Equal(t, physics.AxisLimited, lin.Mode)
	assert.Equal(t, float32(0.4), lin.Upper)

	a := f.spawn("link0", rl.Vector3{Y: 4}, 1)
	b := f.spawn("link1", rl.Vector3{Y: 2}, 1)
	rope := f.presets.CreateRopeSegment(a, b)
	require.NotNil(t, rope)
	assert.InDelta(t, -1, rope.Joint().FrameA().Pivot.Y, 1e-5)
	assert.InDelta(t, 1, rope.Joint().FrameB().Pivot.Y, 1e-5)
	for i := physics.AngularX; i <= physics.AngularZ; i++ {
		assert.Equal(t, physics.AxisFree, rope.Joint().Axis(i).Mode)
	}
	assert.Equal(t, physics.AxisLocked, rope.Joint().Axis(physics.LinearY).Mode)
}

func TestSuspensionAxes(t *testing.T) {
	f := newFixture(t)
	chassis := f.spawn("chassis", rl.Vector3{Y: 1}, 10)
	wheel := f.spawn("wheel", rl.Vector3{Y: 0.4}, 1)

	s := f.presets.CreateSuspension(wheel, chassis, 0.2, 300, 20)
	require.NotNil(t, s)
	y := s.Joint().Axis(physics.LinearY)
	assert.True(t, y.SpringEnabled)
	assert.Equal(t, physics.AxisLimited, y.Mode)
	assert.Equal(t, float32(300), y.Stiffness)
	assert.Equal(t, physics.AxisFree, s.Joint().Axis(physics.AngularX).Mode)
	assert.Equal(t, physics.AxisLocked, s.Joint().Axis(physics.LinearX).Mode)
}

func TestSpringAxisOutOfRange(t *testing.T) {
	w := physics.NewWorld()
	core, logs := observer.New(zap.WarnLevel)
	f := &fixture{world: w, presets: NewPresets(w, zap.New(core))}
	s := f.presets.CreateSpring(f.spawn("s", rl.Vector3{}, 1), nil, SpringParams{})
	require.NotNil(t, s)

	before := s.Joint().Axis(physics.LinearX)
	s.SetStiffness(6, 10)
	s.SetDamping(-1, 10)
	s.EnableSpring(physics.AxisCount, true)
	assert.Equal(t, before, s.Joint().Axis(physics.LinearX))
	assert.Equal(t, 3, logs.Len())

	s.SetStiffness(physics.LinearY, 40)
	s.EnableSpring(physics.LinearY, true)
	assert.True(t, s.Joint().Axis(physics.LinearY).SpringEnabled)
	assert.Equal(t, float32(40), s.Joint().Axis(physics.LinearY).Stiffness)
}

func TestGeneric6DofLimits(t *testing.T) {
	f := newFixture(t)
	g := f.presets.CreateGeneric6Dof(f.spawn("g", rl.Vector3{}, 1), nil, Generic6DofParams{})
	require.NotNil(t, g)
	for i := 0; i < physics.AxisCount; i++ {
		assert.Equal(t, physics.AxisLocked, g.Joint().Axis(i).Mode, "zero limits lock every axis")
	}

	g.SetLinearLimits(rl.Vector3{X: -1, Y: 1}, rl.Vector3{X: 1, Y: -1})
	assert.Equal(t, physics.AxisLimited, g.Joint().Axis(physics.LinearX).Mode)
	assert.Equal(t, physics.AxisFree, g.Joint().Axis(physics.LinearY).Mode)
	assert.Equal(t, physics.AxisLocked, g.Joint().Axis(physics.LinearZ).Mode)

	g.SetAngularLimits(rl.Vector3{Z: -0.5}, rl.Vector3{Z: 0.5})
	assert.Equal(t, physics.AxisLimited, g.Joint().Axis(physics.AngularZ).Mode)
}
