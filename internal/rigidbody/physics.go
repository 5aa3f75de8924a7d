// Package rigidbody owns the physics world and the lifetime of its bodies.
package rigidbody

import (
	"time"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/constraint"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/material"
	"github.com/mironco/rigidcore/internal/metrics"
	"github.com/mironco/rigidcore/internal/physics"
)

// Minimum cylinder height of a capsule built from a size.
const minCapsuleHeight = 0.1

// Physics creates, resizes and removes bodies and steps the world. It is
// single-threaded: every call must come from the simulation goroutine.
type Physics struct {
	cfg       config.Physics
	logger    *zap.Logger
	metrics   *metrics.Metrics
	materials *material.Registry

	world       *physics.World
	constraints *constraint.Registry
}

// New returns an uninitialized manager. A nil materials registry gets the
// built-in presets.
func New(cfg config.Physics, materials *material.Registry, logger *zap.Logger, m *metrics.Metrics) *Physics {
	logger = logging.OrNop(logger)
	if materials == nil {
		materials = material.NewRegistry(logger)
	}
	return &Physics{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		materials: materials,
	}
}

// Initialize creates the world and the constraint registry. Calling it again
// is a no-op.
func (p *Physics) Initialize() {
	if p.world != nil {
		return
	}
	p.world = physics.NewWorld()
	// Taken as is so [0, 0, 0] means no gravity; config.Default supplies Earth's.
	p.world.Gravity = p.cfg.Gravity.Vector3()
	if p.cfg.SolverIterations > 0 {
		p.world.Iterations = p.cfg.SolverIterations
	}
	p.constraints = constraint.NewRegistry(p.world, p.logger, p.metrics)
	p.logger.Info("Physics: initialized",
		logging.Vec3("gravity", p.world.Gravity.X, p.world.Gravity.Y, p.world.Gravity.Z),
		zap.Int("iterations", p.world.Iterations),
	)
}

func (p *Physics) IsInitialized() bool {
	return p.world != nil
}

// World returns the underlying world, or nil before Initialize.
func (p *Physics) World() *physics.World {
	return p.world
}

func (p *Physics) Constraints() *constraint.Registry {
	return p.constraints
}

func (p *Physics) Materials() *material.Registry {
	return p.materials
}

// Body resolves h. The pointer must not be kept across a step that may remove
// the body.
func (p *Physics) Body(h physics.Handle) *physics.Body {
	if p.world == nil {
		return nil
	}
	return p.world.Body(h)
}

func (p *Physics) BodyCount() int {
	if p.world == nil {
		return 0
	}
	return p.world.BodyCount()
}

// shapeFor converts a size into a collision shape: boxes take size as full
// extents, spheres use size.X as radius and capsules size.X as radius with
// the remaining size.Y as cylinder height.
func (p *Physics) shapeFor(kind physics.ShapeKind, size rl.Vector3) physics.Shape {
	size = rl.Vector3{X: math32.Abs(size.X), Y: math32.Abs(size.Y), Z: math32.Abs(size.Z)}
	switch kind {
	case physics.ShapeBox:
		return physics.NewBoxShape(rl.Vector3Scale(size, 0.5))
	case physics.ShapeSphere:
		return physics.NewSphereShape(size.X)
	case physics.ShapeCapsule:
		return physics.NewCapsuleShape(size.X, math32.Max(size.Y-2*size.X, minCapsuleHeight))
	default:
		p.logger.Error("Physics: unknown shape type, using unit box", zap.Stringer("shape", kind))
		return physics.NewBoxShape(rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
	}
}

// CreateRigidBody adds a body and returns its handle. mass 0 makes it
// static. Returns the zero handle before Initialize.
func (p *Physics) CreateRigidBody(kind physics.ShapeKind, position, size rl.Vector3, mass float32, materialName string) physics.Handle {
	if p.world == nil {
		p.logger.Error("Physics: CreateRigidBody before Initialize")
		return physics.Handle{}
	}
	if mass < 0 {
		mass = 0
	}
	mat := p.materials.Get(materialName)
	b := physics.NewBody(physics.BodyConfig{
		Shape:    p.shapeFor(kind, size),
		Mass:     mass,
		Position: position,
	})
	mat.Apply(b)
	h := p.world.AddBody(b)
	p.metrics.SetBodies(p.world.BodyCount())
	p.logger.Debug("Physics: body created",
		zap.Stringer("handle", h),
		zap.Stringer("shape", b.Shape().Kind),
		zap.Float32("mass", mass),
		zap.String("material", mat.Name),
	)
	return h
}

// RemoveRigidBody destroys the body. Zero or stale handles are ignored.
// Joints still attached to it stop acting.
func (p *Physics) RemoveRigidBody(h physics.Handle) bool {
	if p.world == nil || h.IsZero() {
		return false
	}
	if !p.world.RemoveBody(h) {
		return false
	}
	p.metrics.SetBodies(p.world.BodyCount())
	return true
}

// snapshot is the state carried over when a body is rebuilt.
type snapshot struct {
	position        rl.Vector3
	orientation     rl.Quaternion
	linearVelocity  rl.Vector3
	angularVelocity rl.Vector3
	linearDamping   float32
	angularDamping  float32
	state           physics.ActivationState
	group, mask     uint32
	userData        any
}

func takeSnapshot(b *physics.Body) snapshot {
	return snapshot{
		position:        b.Position(),
		orientation:     b.Orientation(),
		linearVelocity:  b.LinearVelocity(),
		angularVelocity: b.AngularVelocity(),
		linearDamping:   b.LinearDamping(),
		angularDamping:  b.AngularDamping(),
		state:           b.ActivationState(),
		group:           b.Group,
		mask:            b.Mask,
		userData:        b.UserData,
	}
}

func (s snapshot) restore(b *physics.Body) {
	b.SetOrientation(s.orientation)
	b.SetLinearVelocity(s.linearVelocity)
	b.SetAngularVelocity(s.angularVelocity)
	b.SetDamping(s.linearDamping, s.angularDamping)
	b.Group, b.Mask = s.group, s.mask
	b.UserData = s.userData
	// Last, since the setters above wake the body
	b.SetActivationState(s.state)
}

// ResizeRigidBody replaces the body behind old with one of the new shape and
// size, keeping its pose, velocities, damping, activation state and owner.
// Constraints on the old body are not carried over. Returns the new handle,
// or the zero handle if old is not live.
func (p *Physics) ResizeRigidBody(old physics.Handle, kind physics.ShapeKind, newScale rl.Vector3, mass float32, materialName string) physics.Handle {
	b := p.Body(old)
	if b == nil {
		p.logger.Error("Physics: resize of unknown body", zap.Stringer("handle", old))
		return physics.Handle{}
	}
	snap := takeSnapshot(b)
	p.world.RemoveBody(old)

	h := p.CreateRigidBody(kind, snap.position, newScale, mass, materialName)
	if nb := p.world.Body(h); nb != nil {
		snap.restore(nb)
	}
	return h
}

func (p *Physics) SetUserPointer(h physics.Handle, owner any) bool {
	b := p.Body(h)
	if b == nil {
		return false
	}
	b.UserData = owner
	return true
}

func (p *Physics) Position(h physics.Handle) (rl.Vector3, bool) {
	b := p.Body(h)
	if b == nil {
		return rl.Vector3{}, false
	}
	return b.Position(), true
}

func (p *Physics) Orientation(h physics.Handle) (rl.Quaternion, bool) {
	b := p.Body(h)
	if b == nil {
		return rl.QuaternionIdentity(), false
	}
	return b.Orientation(), true
}

// ApplyImpulse applies a central impulse, waking the body.
func (p *Physics) ApplyImpulse(h physics.Handle, impulse rl.Vector3) bool {
	b := p.Body(h)
	if b == nil || b.IsStatic() {
		return false
	}
	b.ApplyCentralImpulse(impulse)
	return true
}

// ApplyTorqueImpulse changes the body's spin at once. Returns false for
// static or missing bodies.
func (p *Physics) ApplyTorqueImpulse(h physics.Handle, torque rl.Vector3) bool {
	b := p.Body(h)
	if b == nil || b.IsStatic() {
		return false
	}
	b.ApplyTorqueImpulse(torque)
	return true
}

// ApplyForce adds force (at the center of mass) and torque to the body for
// the next step only.
func (p *Physics) ApplyForce(h physics.Handle, force, torque rl.Vector3) bool {
	b := p.Body(h)
	if b == nil || b.IsStatic() {
		return false
	}
	b.ApplyForce(force)
	b.ApplyTorque(torque)
	return true
}

func (p *Physics) SetGravity(g rl.Vector3) {
	if p.world == nil {
		return
	}
	p.world.Gravity = g
	for _, b := range p.world.Bodies() {
		b.Activate()
	}
}

// Update advances the world by exactly one step of fixedDt, then prunes
// broken constraints.
func (p *Physics) Update(fixedDt float32) {
	if p.world == nil || fixedDt <= 0 {
		return
	}
	start := time.Now()
	p.world.Step(fixedDt)
	p.constraints.Update()
	p.metrics.ObserveStep(time.Since(start))
}

// Cleanup tears down constraints, then bodies, then the world. The manager
// can be initialized again afterwards.
func (p *Physics) Cleanup() {
	if p.world == nil {
		return
	}
	p.constraints.ClearAll()
	for _, b := range p.world.Bodies() {
		p.world.RemoveBody(b.Handle())
	}
	p.metrics.SetBodies(0)
	p.world = nil
	p.constraints = nil
	p.logger.Info("Physics: cleaned up")
}
