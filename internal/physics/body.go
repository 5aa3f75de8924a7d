package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Sleep thresholds
const (
	SleepLinearThreshold  = 0.15 // units/sec - below this, object might sleep
	SleepAngularThreshold = 0.15 // rad/sec - below this, object might sleep
	SleepTimeThreshold    = 0.5  // seconds of low velocity before sleeping
)

type ActivationState int

const (
	Active ActivationState = iota
	Sleeping
	AlwaysActive
)

func (s ActivationState) String() string {
	switch s {
	case Active:
		return "Active"
	case Sleeping:
		return "Sleeping"
	case AlwaysActive:
		return "AlwaysActive"
	default:
		return "Unknown"
	}
}

// Collision filter defaults
const (
	DefaultGroup uint32 = 1
	AllGroups    uint32 = 0xFFFFFFFF
)

// BodyConfig describes a body before it is added to a world.
type BodyConfig struct {
	Shape       Shape
	Mass        float32 // 0 = static
	Position    rl.Vector3
	Orientation rl.Quaternion
	Friction    float32
	Restitution float32
	Material    string
	Group       uint32
	Mask        uint32
}

// Body is a simulated solid. It is owned by the World it was added to and is
// only reachable from outside through its Handle.
type Body struct {
	handle Handle
	world  *World

	shape           Shape
	mass            float32
	invMass         float32
	invLocalInertia rl.Vector3

	position        rl.Vector3
	orientation     rl.Quaternion
	linearVelocity  rl.Vector3
	angularVelocity rl.Vector3 // radians per second
	linearDamping   float32
	angularDamping  float32

	force  rl.Vector3
	torque rl.Vector3

	Friction    float32
	Restitution float32
	Material    string

	// Collision filtering: two bodies collide when each one's group matches the other's mask.
	Group uint32
	Mask  uint32

	// UserData links the body back to the entity that owns it. The kernel never reads it.
	UserData any

	state      ActivationState
	sleepTimer float32
}

// NewBody builds an unattached body from cfg.
func NewBody(cfg BodyConfig) *Body {
	q := cfg.Orientation
	if q == (rl.Quaternion{}) {
		q = rl.QuaternionIdentity()
	}
	b := &Body{
		shape:       cfg.Shape,
		position:    cfg.Position,
		orientation: rl.QuaternionNormalize(q),
		Friction:    cfg.Friction,
		Restitution: cfg.Restitution,
		Material:    cfg.Material,
		Group:       cfg.Group,
		Mask:        cfg.Mask,
	}
	if b.Group == 0 {
		b.Group = DefaultGroup
	}
	if b.Mask == 0 {
		b.Mask = AllGroups
	}
	b.setMass(cfg.Mass)
	return b
}

func (b *Body) setMass(mass float32) {
	if mass <= 0 {
		b.mass, b.invMass = 0, 0
		b.invLocalInertia = rl.Vector3{}
		return
	}
	b.mass = mass
	b.invMass = 1 / mass
	inertia := b.shape.LocalInertia(mass)
	b.invLocalInertia = rl.Vector3{}
	if inertia.X > 0 {
		b.invLocalInertia.X = 1 / inertia.X
	}
	if inertia.Y > 0 {
		b.invLocalInertia.Y = 1 / inertia.Y
	}
	if inertia.Z > 0 {
		b.invLocalInertia.Z = 1 / inertia.Z
	}
}

func (b *Body) Handle() Handle                   { return b.handle }
func (b *Body) Shape() Shape                     { return b.shape }
func (b *Body) Mass() float32                    { return b.mass }
func (b *Body) InverseMass() float32             { return b.invMass }
func (b *Body) IsStatic() bool                   { return b.invMass == 0 }
func (b *Body) Position() rl.Vector3             { return b.position }
func (b *Body) Orientation() rl.Quaternion       { return b.orientation }
func (b *Body) LinearVelocity() rl.Vector3       { return b.linearVelocity }
func (b *Body) AngularVelocity() rl.Vector3      { return b.angularVelocity }
func (b *Body) LinearDamping() float32           { return b.linearDamping }
func (b *Body) AngularDamping() float32          { return b.angularDamping }
func (b *Body) ActivationState() ActivationState { return b.state }

// LocalInertia returns the diagonal inertia tensor in body space.
func (b *Body) LocalInertia() rl.Vector3 {
	return b.shape.LocalInertia(b.mass)
}

// IsActive reports whether the body takes part in integration this step.
func (b *Body) IsActive() bool {
	return !b.IsStatic() && b.state != Sleeping
}

// WorldAABB returns the current world-space bounds of the body's shape.
func (b *Body) WorldAABB() AABB {
	return b.shape.WorldAABB(b.position, b.orientation)
}

func (b *Body) SetPosition(p rl.Vector3) {
	b.position = p
	b.Activate()
}

func (b *Body) SetOrientation(q rl.Quaternion) {
	b.orientation = rl.QuaternionNormalize(q)
	b.Activate()
}

func (b *Body) SetLinearVelocity(v rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.linearVelocity = v
	b.Activate()
}

func (b *Body) SetAngularVelocity(w rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.angularVelocity = w
	b.Activate()
}

// SetDamping sets per-second velocity damping factors in [0, 1].
func (b *Body) SetDamping(linear, angular float32) {
	b.linearDamping = clampf(linear, 0, 1)
	b.angularDamping = clampf(angular, 0, 1)
}

// SetActivationState forces an activation state. Static bodies stay inert
// regardless, but keep the value so it survives a rebuild.
func (b *Body) SetActivationState(s ActivationState) {
	b.state = s
	b.sleepTimer = 0
	if s == Sleeping {
		b.linearVelocity = rl.Vector3{}
		b.angularVelocity = rl.Vector3{}
	}
}

// Activate wakes the body if it is sleeping.
func (b *Body) Activate() {
	if b.state == Sleeping {
		b.state = Active
	}
	b.sleepTimer = 0
}

func (b *Body) ApplyCentralImpulse(impulse rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.linearVelocity = rl.Vector3Add(b.linearVelocity, rl.Vector3Scale(impulse, b.invMass))
	b.Activate()
}

// ApplyImpulse applies an impulse at a world-space point.
func (b *Body) ApplyImpulse(impulse, point rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.linearVelocity = rl.Vector3Add(b.linearVelocity, rl.Vector3Scale(impulse, b.invMass))
	r := rl.Vector3Subtract(point, b.position)
	b.angularVelocity = rl.Vector3Add(b.angularVelocity, b.applyInvInertia(cross(r, impulse)))
	b.Activate()
}

func (b *Body) ApplyTorqueImpulse(t rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.angularVelocity = rl.Vector3Add(b.angularVelocity, b.applyInvInertia(t))
	b.Activate()
}

// ApplyForce accumulates a force applied at the center of mass for the next step.
func (b *Body) ApplyForce(f rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.force = rl.Vector3Add(b.force, f)
	b.Activate()
}

func (b *Body) ApplyTorque(t rl.Vector3) {
	if b.IsStatic() {
		return
	}
	b.torque = rl.Vector3Add(b.torque, t)
	b.Activate()
}

func (b *Body) clearForces() {
	b.force = rl.Vector3{}
	b.torque = rl.Vector3{}
}

// applyInvInertia multiplies v by the world-space inverse inertia tensor.
func (b *Body) applyInvInertia(v rl.Vector3) rl.Vector3 {
	if b.invMass == 0 {
		return rl.Vector3{}
	}
	local := rotateInv(b.orientation, v)
	local = rl.Vector3Multiply(local, b.invLocalInertia)
	return rotate(b.orientation, local)
}

// velocityAt returns the world velocity of the material point at p.
func (b *Body) velocityAt(p rl.Vector3) rl.Vector3 {
	r := rl.Vector3Subtract(p, b.position)
	return rl.Vector3Add(b.linearVelocity, cross(b.angularVelocity, r))
}

// trySleep checks if the body should go to sleep based on velocity
func (b *Body) trySleep(dt float32) {
	if b.state != Active || b.IsStatic() {
		return
	}
	if rl.Vector3Length(b.linearVelocity) < SleepLinearThreshold &&
		rl.Vector3Length(b.angularVelocity) < SleepAngularThreshold {
		b.sleepTimer += dt
		if b.sleepTimer >= SleepTimeThreshold {
			b.state = Sleeping
			b.linearVelocity = rl.Vector3{}
			b.angularVelocity = rl.Vector3{}
		}
		return
	}
	b.sleepTimer = 0
}

func (b *Body) obb() OBB {
	return NewOBB(b.position, b.shape.HalfExtents, b.orientation)
}
