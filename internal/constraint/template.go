package constraint

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

// Template is a reusable constraint recipe. Pivot and Axis are in A's local
// space; a zero Pivot is computed from the objects when the template is
// applied.
type Template struct {
	Name        string
	Description string
	Type        Type

	Pivot rl.Vector3
	Axis  rl.Vector3

	// Hinge (radians) and slider range.
	Limited      bool
	Lower, Upper float32

	// Spring: sprung axes share one stiffness and damping.
	Springs   [physics.AxisCount]bool
	Stiffness float32
	Damping   float32

	// Generic6Dof limits, also the linear travel of a spring.
	LinearLower, LinearUpper   rl.Vector3
	AngularLower, AngularUpper rl.Vector3

	Breakable   bool
	BreakForce  float32
	BreakTorque float32
}

// Apply builds a constraint from t between a and b (b may be nil for the
// world). The result is not registered. Returns nil when a has no body.
func (t *Template) Apply(p *Presets, a, b *engine.GameObject) Constraint {
	if a == nil {
		p.logger.Error("ConstraintTemplate: apply needs object A", zap.String("template", t.Name))
		return nil
	}
	pivot := t.Pivot
	if rl.Vector3LengthSqr(pivot) == 0 {
		pivot = autoPivot(a, b)
	}

	var c Constraint
	switch t.Type {
	case TypeFixed:
		if f := p.CreateFixed(a, b); f != nil {
			c = f
		}
	case TypeHinge:
		if h := p.CreateHinge(a, b, HingeParams{
			Pivot: pivot, Axis: t.Axis, Limited: t.Limited, Lower: t.Lower, Upper: t.Upper,
		}); h != nil {
			c = h
		}
	case TypeSlider:
		if s := p.CreateSlider(a, b, SliderParams{
			Pivot: pivot, Axis: t.Axis, Limited: t.Limited, Lower: t.Lower, Upper: t.Upper,
		}); s != nil {
			c = s
		}
	case TypeSpring:
		if s := p.CreateSpring(a, b, SpringParams{
			Pivot:       pivot,
			Springs:     t.Springs,
			Stiffness:   t.Stiffness,
			Damping:     t.Damping,
			LinearLower: t.LinearLower,
			LinearUpper: t.LinearUpper,
		}); s != nil {
			c = s
		}
	case TypeGeneric6Dof:
		if g := p.CreateGeneric6Dof(a, b, Generic6DofParams{
			Pivot:        pivot,
			Axis:         t.Axis,
			LinearLower:  t.LinearLower,
			LinearUpper:  t.LinearUpper,
			AngularLower: t.AngularLower,
			AngularUpper: t.AngularUpper,
		}); g != nil {
			c = g
		}
	default:
		p.logger.Error("ConstraintTemplate: unknown type", zap.String("template", t.Name), zap.Stringer("type", t.Type))
		return nil
	}
	if c == nil {
		return nil
	}
	if t.Breakable {
		c.SetBreakingThreshold(t.BreakForce, t.BreakTorque)
	}
	return c
}

// autoPivot returns, in a's local space, the point where the segment from a's
// center toward b leaves a's box. Without b (or with coincident centers) it
// is the center of a's top face.
func autoPivot(a, b *engine.GameObject) rl.Vector3 {
	s := a.Transform.Scale
	half := rl.Vector3{X: math32.Abs(s.X) / 2, Y: math32.Abs(s.Y) / 2, Z: math32.Abs(s.Z) / 2}
	top := rl.Vector3{Y: half.Y}
	if b == nil {
		return top
	}
	d := rl.Vector3Subtract(b.Transform.Position, a.Transform.Position)
	d = rl.Vector3RotateByQuaternion(d, rl.QuaternionInvert(a.Transform.Rotation))
	if rl.Vector3LengthSqr(d) == 0 {
		return top
	}

	t := float32(math32.MaxFloat32)
	for _, pair := range [3][2]float32{{d.X, half.X}, {d.Y, half.Y}, {d.Z, half.Z}} {
		if pair[0] != 0 {
			t = math32.Min(t, pair[1]/math32.Abs(pair[0]))
		}
	}
	if t > 1 {
		// b's center lies inside a's box
		t = 1
	}
	return rl.Vector3Scale(d, t)
}
