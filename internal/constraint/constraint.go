// Package constraint wraps kernel joints in typed constraints, builds them
// from presets and templates, and keeps the registry that prunes broken ones.
package constraint

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

type Type int

const (
	TypeFixed Type = iota
	TypeHinge
	TypeSlider
	TypeSpring
	TypeGeneric6Dof
)

func (t Type) String() string {
	switch t {
	case TypeFixed:
		return "Fixed"
	case TypeHinge:
		return "Hinge"
	case TypeSlider:
		return "Slider"
	case TypeSpring:
		return "Spring"
	case TypeGeneric6Dof:
		return "Generic6Dof"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType accepts the names produced by Type.String, case-insensitively.
func ParseType(name string) (Type, bool) {
	for t := TypeFixed; t <= TypeGeneric6Dof; t++ {
		if strings.EqualFold(name, t.String()) {
			return t, true
		}
	}
	return TypeFixed, false
}

// Constraint is implemented by *Fixed, *Hinge, *Slider, *Spring and
// *Generic6Dof. Kind-specific operations live on the concrete types.
type Constraint interface {
	Type() Type
	Name() string
	SetName(name string)
	// ObjectA is the object the constraint was built for.
	ObjectA() *engine.GameObject
	// ObjectB is nil for constraints anchored to the world.
	ObjectB() *engine.GameObject

	// SetBreakingThreshold marks the constraint breakable. force bounds the
	// linear impulse and torque the angular impulse the joint may apply in one
	// step; non-positive values leave that component unlimited.
	SetBreakingThreshold(force, torque float32)
	IsBreakable() bool
	BreakForce() float32
	BreakTorque() float32

	// IsEnabled turns false once the joint broke or lost a body. It never
	// turns true again.
	IsEnabled() bool
	Joint() *physics.Joint
}

type base struct {
	name        string
	objA, objB  *engine.GameObject
	joint       *physics.Joint
	breakForce  float32
	breakTorque float32
	logger      *zap.Logger
}

func (c *base) Name() string                { return c.name }
func (c *base) ObjectA() *engine.GameObject { return c.objA }
func (c *base) ObjectB() *engine.GameObject { return c.objB }
func (c *base) Joint() *physics.Joint       { return c.joint }
func (c *base) IsBreakable() bool           { return c.joint.IsBreakable() }
func (c *base) BreakForce() float32         { return c.breakForce }
func (c *base) BreakTorque() float32        { return c.breakTorque }
func (c *base) IsEnabled() bool             { return c.joint.IsEnabled() }

// SetName names the constraint. Names are unique keys once registered, so
// renaming a registered constraint is not supported.
func (c *base) SetName(name string) {
	if c.joint.InWorld() {
		c.logger.Warn("Constraint: cannot rename a registered constraint", zap.String("name", c.name))
		return
	}
	c.name = name
}

func (c *base) SetBreakingThreshold(force, torque float32) {
	c.breakForce = force
	c.breakTorque = torque
	c.joint.SetBreakingThreshold(force, torque)
}

// Fixed locks all six degrees of freedom.
type Fixed struct{ base }

func (c *Fixed) Type() Type { return TypeFixed }

// Hinge rotates about the local X axis of its frames.
type Hinge struct{ base }

func (c *Hinge) Type() Type { return TypeHinge }

// SetLimits bounds the hinge angle in radians. lower > upper removes the limit.
func (c *Hinge) SetLimits(lower, upper float32) {
	c.joint.SetLimit(physics.AngularX, lower, upper)
}

func (c *Hinge) EnableMotor(targetVelocity, maxImpulse float32) {
	c.joint.SetMotor(physics.AngularX, true, targetVelocity, maxImpulse)
}

func (c *Hinge) DisableMotor() {
	c.joint.SetMotor(physics.AngularX, false, 0, 0)
}

// Angle returns the current hinge angle in radians.
func (c *Hinge) Angle() float32 {
	return c.joint.Coordinate(physics.AngularX)
}

// Slider translates along the local X axis of its frames.
type Slider struct{ base }

func (c *Slider) Type() Type { return TypeSlider }

// SetLinearLimits bounds the travel. lower > upper removes the limit.
func (c *Slider) SetLinearLimits(lower, upper float32) {
	c.joint.SetLimit(physics.LinearX, lower, upper)
}

func (c *Slider) EnableMotor(targetVelocity, maxForce float32) {
	c.joint.SetMotor(physics.LinearX, true, targetVelocity, maxForce)
}

func (c *Slider) DisableMotor() {
	c.joint.SetMotor(physics.LinearX, false, 0, 0)
}

// Position returns the current travel along the slider axis.
func (c *Slider) Position() float32 {
	return c.joint.Coordinate(physics.LinearX)
}

// Spring is a six axis joint with a spring per axis. Axes 0-2 are linear,
// 3-5 angular.
type Spring struct{ base }

func (c *Spring) Type() Type { return TypeSpring }

func (c *Spring) validAxis(axis int) bool {
	if axis < 0 || axis >= physics.AxisCount {
		c.logger.Warn("Constraint: spring axis out of range", zap.String("name", c.name), zap.Int("axis", axis))
		return false
	}
	return true
}

func (c *Spring) SetStiffness(axis int, stiffness float32) {
	if !c.validAxis(axis) {
		return
	}
	s := c.joint.Axis(axis)
	c.joint.SetSpring(axis, s.SpringEnabled, stiffness, s.Damping)
}

func (c *Spring) SetDamping(axis int, damping float32) {
	if !c.validAxis(axis) {
		return
	}
	s := c.joint.Axis(axis)
	c.joint.SetSpring(axis, s.SpringEnabled, s.Stiffness, damping)
}

func (c *Spring) EnableSpring(axis int, on bool) {
	if !c.validAxis(axis) {
		return
	}
	s := c.joint.Axis(axis)
	c.joint.SetSpring(axis, on, s.Stiffness, s.Damping)
}

// SetEquilibrium makes the current pose the rest pose of every spring.
func (c *Spring) SetEquilibrium() {
	c.joint.SetEquilibriumToCurrent()
}

// Generic6Dof exposes per-axis limits on all six degrees of freedom.
type Generic6Dof struct{ base }

func (c *Generic6Dof) Type() Type { return TypeGeneric6Dof }

// SetLinearLimits sets per-axis travel. Per component, lower == upper locks
// the axis and lower > upper frees it.
func (c *Generic6Dof) SetLinearLimits(lower, upper rl.Vector3) {
	c.joint.SetLimit(physics.LinearX, lower.X, upper.X)
	c.joint.SetLimit(physics.LinearY, lower.Y, upper.Y)
	c.joint.SetLimit(physics.LinearZ, lower.Z, upper.Z)
}

// SetAngularLimits sets per-axis rotation limits in radians.
func (c *Generic6Dof) SetAngularLimits(lower, upper rl.Vector3) {
	c.joint.SetLimit(physics.AngularX, lower.X, upper.X)
	c.joint.SetLimit(physics.AngularY, lower.Y, upper.Y)
	c.joint.SetLimit(physics.AngularZ, lower.Z, upper.Z)
}
