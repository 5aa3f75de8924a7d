package constraint

import (
	"fmt"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/physics"
)

// Pivot and axis of every params struct are in A's local space unless
// WorldSpace is set. The B side is derived from the same world-space point,
// so a freshly built constraint starts without error.

type HingeParams struct {
	Pivot      rl.Vector3
	Axis       rl.Vector3 // zero = local Y
	WorldSpace bool
	// Without Limited the hinge turns freely.
	Limited      bool
	Lower, Upper float32 // radians
}

type SliderParams struct {
	Pivot      rl.Vector3
	Axis       rl.Vector3 // zero = local X
	WorldSpace bool
	Limited    bool
	Lower      float32
	Upper      float32
}

type SpringParams struct {
	Pivot      rl.Vector3
	WorldSpace bool
	// Springs selects the sprung axes (0-2 linear, 3-5 angular). Sprung axes
	// are freed unless a linear range is given for them below.
	Springs   [physics.AxisCount]bool
	Stiffness float32
	Damping   float32
	// Per-axis linear travel for sprung linear axes; lower >= upper = no range.
	LinearLower, LinearUpper rl.Vector3
}

type Generic6DofParams struct {
	Pivot      rl.Vector3
	Axis       rl.Vector3 // frame X axis, zero = local X
	WorldSpace bool
	// Per-axis limits; lower == upper locks, lower > upper frees.
	LinearLower, LinearUpper   rl.Vector3
	AngularLower, AngularUpper rl.Vector3
}

// Presets builds constraints between GameObjects that carry a Rigidbody.
// It does not register them; pass the result to Registry.Add.
type Presets struct {
	world  *physics.World
	logger *zap.Logger
	next   int
}

func NewPresets(world *physics.World, logger *zap.Logger) *Presets {
	return &Presets{world: world, logger: logging.OrNop(logger)}
}

// body resolves the live body behind obj's Rigidbody, or nil.
func (p *Presets) body(obj *engine.GameObject) *physics.Body {
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil || !rb.HasBody() || p.world == nil {
		return nil
	}
	return p.world.Body(rb.Body)
}

// resolve returns the bodies for a and b. ok is false when a has no body or
// b is given without one.
func (p *Presets) resolve(kind Type, a, b *engine.GameObject) (ba, bb *physics.Body, ok bool) {
	ba = p.body(a)
	if ba == nil {
		p.logger.Error("ConstraintPresets: object A has no rigid body", zap.Stringer("type", kind), objectField("objectA", a))
		return nil, nil, false
	}
	if b != nil {
		bb = p.body(b)
		if bb == nil {
			p.logger.Error("ConstraintPresets: object B has no rigid body", zap.Stringer("type", kind), objectField("objectB", b))
			return nil, nil, false
		}
	}
	return ba, bb, true
}

func (p *Presets) frames(a, b *physics.Body, pivot, axis, fallback rl.Vector3, worldSpace bool) (physics.Frame, physics.Frame) {
	if rl.Vector3LengthSqr(axis) == 0 {
		axis = fallback
		if worldSpace {
			axis = rl.Vector3RotateByQuaternion(axis, a.Orientation())
		}
	}
	if !worldSpace {
		pivot = rl.Vector3Add(a.Position(), rl.Vector3RotateByQuaternion(pivot, a.Orientation()))
		axis = rl.Vector3RotateByQuaternion(axis, a.Orientation())
	}
	return physics.WorldFrame(a, pivot, axis), physics.WorldFrame(b, pivot, axis)
}

func (p *Presets) newBase(kind Type, a, b *engine.GameObject, ba, bb *physics.Body, fa, fb physics.Frame) base {
	p.next++
	return base{
		name:   fmt.Sprintf("%s_%d", kind, p.next),
		objA:   a,
		objB:   b,
		joint:  physics.NewJoint(ba, bb, fa, fb),
		logger: p.logger,
	}
}

// CreateFixed welds a to b, or to the world when b is nil, in their current
// relative pose.
func (p *Presets) CreateFixed(a, b *engine.GameObject) *Fixed {
	ba, bb, ok := p.resolve(TypeFixed, a, b)
	if !ok {
		return nil
	}
	fa, fb := p.frames(ba, bb, rl.Vector3{}, rl.Vector3{}, unitX, false)
	return &Fixed{p.newBase(TypeFixed, a, b, ba, bb, fa, fb)}
}

func (p *Presets) CreateHinge(a, b *engine.GameObject, params HingeParams) *Hinge {
	ba, bb, ok := p.resolve(TypeHinge, a, b)
	if !ok {
		return nil
	}
	fa, fb := p.frames(ba, bb, params.Pivot, params.Axis, unitY, params.WorldSpace)
	c := &Hinge{p.newBase(TypeHinge, a, b, ba, bb, fa, fb)}
	if params.Limited {
		c.SetLimits(params.Lower, params.Upper)
	} else {
		c.SetLimits(1, -1)
	}
	return c
}

func (p *Presets) CreateSlider(a, b *engine.GameObject, params SliderParams) *Slider {
	ba, bb, ok := p.resolve(TypeSlider, a, b)
	if !ok {
		return nil
	}
	fa, fb := p.frames(ba, bb, params.Pivot, params.Axis, unitX, params.WorldSpace)
	c := &Slider{p.newBase(TypeSlider, a, b, ba, bb, fa, fb)}
	if params.Limited {
		c.SetLinearLimits(params.Lower, params.Upper)
	} else {
		c.SetLinearLimits(1, -1)
	}
	return c
}

func (p *Presets) CreateSpring(a, b *engine.GameObject, params SpringParams) *Spring {
	ba, bb, ok := p.resolve(TypeSpring, a, b)
	if !ok {
		return nil
	}
	fa, fb := p.frames(ba, bb, params.Pivot, rl.Vector3{}, unitX, params.WorldSpace)
	c := &Spring{p.newBase(TypeSpring, a, b, ba, bb, fa, fb)}
	lower := [3]float32{params.LinearLower.X, params.LinearLower.Y, params.LinearLower.Z}
	upper := [3]float32{params.LinearUpper.X, params.LinearUpper.Y, params.LinearUpper.Z}
	for i, on := range params.Springs {
		if !on {
			continue
		}
		if i < 3 && lower[i] < upper[i] {
			c.joint.SetLimit(i, lower[i], upper[i])
		} else {
			c.joint.SetLimit(i, 1, -1)
		}
		c.joint.SetSpring(i, true, params.Stiffness, params.Damping)
	}
	c.SetEquilibrium()
	return c
}

func (p *Presets) CreateGeneric6Dof(a, b *engine.GameObject, params Generic6DofParams) *Generic6Dof {
	ba, bb, ok := p.resolve(TypeGeneric6Dof, a, b)
	if !ok {
		return nil
	}
	fa, fb := p.frames(ba, bb, params.Pivot, params.Axis, unitX, params.WorldSpace)
	c := &Generic6Dof{p.newBase(TypeGeneric6Dof, a, b, ba, bb, fa, fb)}
	c.SetLinearLimits(params.LinearLower, params.LinearUpper)
	c.SetAngularLimits(params.AngularLower, params.AngularUpper)
	return c
}

// CreateDoorHinge hangs door on its left edge (local -X face) about its local
// Y axis, opening from 0 to 90 degrees. frame may be nil to hinge on the world.
func (p *Presets) CreateDoorHinge(door, frame *engine.GameObject) *Hinge {
	if door == nil {
		p.logger.Error("ConstraintPresets: door hinge needs a door object")
		return nil
	}
	halfWidth := math32.Abs(door.Transform.Scale.X) / 2
	return p.CreateHinge(door, frame, HingeParams{
		Pivot:   rl.Vector3{X: -halfWidth},
		Axis:    unitY,
		Limited: true,
		Lower:   0,
		Upper:   math32.Pi / 2,
	})
}

// CreateDrawer lets drawer slide along its local Z axis between 0 and
// maxTravel relative to cabinet.
func (p *Presets) CreateDrawer(drawer, cabinet *engine.GameObject, maxTravel float32) *Slider {
	return p.CreateSlider(drawer, cabinet, SliderParams{
		Axis:    unitZ,
		Limited: true,
		Lower:   0,
		Upper:   math32.Abs(maxTravel),
	})
}

// CreateSuspension springs wheel against chassis along the local Y axis
// within ±travel and leaves the wheel free to spin about its local X axis.
func (p *Presets) CreateSuspension(wheel, chassis *engine.GameObject, travel, stiffness, damping float32) *Spring {
	travel = math32.Abs(travel)
	var springs [physics.AxisCount]bool
	springs[physics.LinearY] = true
	c := p.CreateSpring(wheel, chassis, SpringParams{
		Springs:     springs,
		Stiffness:   stiffness,
		Damping:     damping,
		LinearLower: rl.Vector3{Y: -travel},
		LinearUpper: rl.Vector3{Y: travel},
	})
	if c != nil {
		c.joint.SetLimit(physics.AngularX, 1, -1)
	}
	return c
}

// CreateRopeSegment joins a and b with a ball joint at the midpoint between
// their centers.
func (p *Presets) CreateRopeSegment(a, b *engine.GameObject) *Generic6Dof {
	if a == nil || b == nil {
		p.logger.Error("ConstraintPresets: rope segment needs two objects")
		return nil
	}
	mid := rl.Vector3Scale(rl.Vector3Add(a.Transform.Position, b.Transform.Position), 0.5)
	free := rl.Vector3{X: 1, Y: 1, Z: 1}
	return p.CreateGeneric6Dof(a, b, Generic6DofParams{
		Pivot:        mid,
		WorldSpace:   true,
		AngularLower: free,
		AngularUpper: rl.Vector3Negate(free),
	})
}

// CreatePendulum swings bob about the world-space anchor around the Z axis.
func (p *Presets) CreatePendulum(bob *engine.GameObject, anchor rl.Vector3) *Hinge {
	return p.CreateHinge(bob, nil, HingeParams{
		Pivot:      anchor,
		Axis:       unitZ,
		WorldSpace: true,
	})
}

var (
	unitX = rl.Vector3{X: 1}
	unitY = rl.Vector3{Y: 1}
	unitZ = rl.Vector3{Z: 1}
)

func objectField(key string, obj *engine.GameObject) zap.Field {
	if obj == nil {
		return zap.String(key, "<nil>")
	}
	return zap.String(key, obj.Name)
}
