package sandbox

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/constraint"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/material"
	"github.com/mironco/rigidcore/internal/physics"
	"github.com/mironco/rigidcore/internal/trigger"
)

// BodySpec describes a GameObject to spawn with a rigid body.
type BodySpec struct {
	Name     string      `json:"name"`
	Shape    string      `json:"shape"` // box, sphere or capsule
	Position config.Vec3 `json:"position"`
	Scale    config.Vec3 `json:"scale"`    // zero means unit scale
	Rotation config.Vec3 `json:"rotation"` // Euler degrees
	Mass     float32     `json:"mass"`     // 0 = static
	Material string      `json:"material"`
	Tags     []string    `json:"tags,omitempty"`
}

// TriggerSpec describes a trigger volume. Size is the half extent.
type TriggerSpec struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Position    config.Vec3 `json:"position"`
	Size        config.Vec3 `json:"size"`
	Destination config.Vec3 `json:"destination"`
	Direction   config.Vec3 `json:"direction"`
	Magnitude   float32     `json:"magnitude,omitempty"`
}

func vec(v rl.Vector3) config.Vec3 {
	return config.Vec3{v.X, v.Y, v.Z}
}

func (s *Simulation) object(uid uint64) (*engine.GameObject, error) {
	obj := s.scene.FindByUID(uid)
	if obj == nil {
		return nil, fmt.Errorf("object %d: %w", uid, ErrNotFound)
	}
	return obj, nil
}

// SpawnBody creates a GameObject with a body and registers it with the scene
// and the grid.
func (s *Simulation) SpawnBody(spec BodySpec) (obj *engine.GameObject, err error) {
	defer func() { s.metrics.Command("spawn_body", err) }()

	shape := physics.ShapeBox
	if spec.Shape != "" {
		var ok bool
		if shape, ok = physics.ParseShapeKind(spec.Shape); !ok {
			return nil, fmt.Errorf("shape %q: %w", spec.Shape, ErrInvalid)
		}
	}
	if spec.Mass < 0 {
		return nil, fmt.Errorf("mass %v: %w", spec.Mass, ErrInvalid)
	}
	if spec.Material == "" {
		spec.Material = material.DefaultName
	} else if !s.materials.Has(spec.Material) {
		return nil, fmt.Errorf("material %q: %w", spec.Material, ErrNotFound)
	}

	name := spec.Name
	if name == "" {
		name = shape.String()
	}
	obj = engine.NewGameObject(name)
	obj.Tags = spec.Tags
	obj.Transform.Position = spec.Position.Vector3()
	if spec.Scale != (config.Vec3{}) {
		obj.Transform.Scale = spec.Scale.Vector3()
	}
	obj.Transform.SetEulerDegrees(spec.Rotation.Vector3())

	if h := s.physics.AttachToObject(obj, shape, spec.Mass, spec.Material); h.IsZero() {
		return nil, fmt.Errorf("attach body to %q failed", name)
	}
	s.scene.AddGameObject(obj)
	s.grid.Insert(obj)
	obj.Start()
	s.logger.Debug("Sandbox: spawned body",
		zap.Uint64("uid", obj.UID),
		zap.String("name", obj.Name),
		zap.Stringer("shape", shape),
		zap.Float32("mass", spec.Mass),
	)
	return obj, nil
}

// RemoveObject drops the object's constraints, body and grid entry. Triggers
// that contained it report an exit on their next update.
func (s *Simulation) RemoveObject(uid uint64) (err error) {
	defer func() { s.metrics.Command("remove_object", err) }()

	obj, err := s.object(uid)
	if err != nil {
		return err
	}
	for _, c := range s.physics.Constraints().ForObject(obj) {
		delete(s.constraintTemplates, c.Name())
	}
	s.physics.DetachFromObject(obj)
	s.grid.Remove(obj)
	s.scene.RemoveGameObject(obj)
	return nil
}

// ResizeObject rebuilds the object's body at the new scale. Constraints on
// the object are removed.
func (s *Simulation) ResizeObject(uid uint64, scale rl.Vector3) (err error) {
	defer func() { s.metrics.Command("resize_object", err) }()

	obj, err := s.object(uid)
	if err != nil {
		return err
	}
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return fmt.Errorf("scale %v: %w", scale, ErrInvalid)
	}
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil {
		return fmt.Errorf("object %d has no rigid body: %w", uid, ErrInvalid)
	}
	obj.Transform.Scale = scale
	if h := s.physics.ResizeObject(obj, rb.Shape, rb.Mass, rb.Material); h.IsZero() {
		return fmt.Errorf("resize object %d failed", uid)
	}
	s.grid.Update(obj)
	return nil
}

// ApplyImpulse pushes a dynamic object's body through its center of mass.
func (s *Simulation) ApplyImpulse(uid uint64, impulse rl.Vector3) (err error) {
	defer func() { s.metrics.Command("apply_impulse", err) }()

	obj, err := s.object(uid)
	if err != nil {
		return err
	}
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil || !s.physics.ApplyImpulse(rb.Body, impulse) {
		return fmt.Errorf("object %d has no dynamic body: %w", uid, ErrInvalid)
	}
	return nil
}

// ApplyTorqueImpulse changes a dynamic body's spin at once.
func (s *Simulation) ApplyTorqueImpulse(uid uint64, torque rl.Vector3) (err error) {
	defer func() { s.metrics.Command("apply_torque_impulse", err) }()

	obj, err := s.object(uid)
	if err != nil {
		return err
	}
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil || !s.physics.ApplyTorqueImpulse(rb.Body, torque) {
		return fmt.Errorf("object %d has no dynamic body: %w", uid, ErrInvalid)
	}
	return nil
}

// ApplyForce pushes a dynamic body during the next step only.
func (s *Simulation) ApplyForce(uid uint64, force, torque rl.Vector3) (err error) {
	defer func() { s.metrics.Command("apply_force", err) }()

	obj, err := s.object(uid)
	if err != nil {
		return err
	}
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil || !s.physics.ApplyForce(rb.Body, force, torque) {
		return fmt.Errorf("object %d has no dynamic body: %w", uid, ErrInvalid)
	}
	return nil
}

// ApplyTemplate builds the named template between objects a and b and
// registers the result. b == 0 anchors the constraint to the world.
func (s *Simulation) ApplyTemplate(name string, a, b uint64) (c constraint.Constraint, err error) {
	defer func() { s.metrics.Command("apply_template", err) }()

	tpl := s.templates.Get(name)
	if tpl == nil {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	objA, err := s.object(a)
	if err != nil {
		return nil, err
	}
	var objB *engine.GameObject
	if b != 0 {
		if objB, err = s.object(b); err != nil {
			return nil, err
		}
	}
	c = tpl.Apply(s.presets, objA, objB)
	if c == nil {
		return nil, fmt.Errorf("template %q could not be applied: %w", name, ErrInvalid)
	}
	if !s.physics.Constraints().Add(c) {
		return nil, fmt.Errorf("register constraint %q: %w", c.Name(), ErrInvalid)
	}
	s.constraintTemplates[c.Name()] = name
	return c, nil
}

func (s *Simulation) RemoveConstraint(name string) (err error) {
	defer func() { s.metrics.Command("remove_constraint", err) }()

	if !s.physics.Constraints().RemoveByName(name) {
		return fmt.Errorf("constraint %q: %w", name, ErrNotFound)
	}
	delete(s.constraintTemplates, name)
	return nil
}

// CreateTrigger registers a trigger volume. Teleport and speed zone settings
// are taken from spec regardless of type.
func (s *Simulation) CreateTrigger(spec TriggerSpec) (t *trigger.Trigger, err error) {
	defer func() { s.metrics.Command("create_trigger", err) }()

	typ := trigger.Custom
	if spec.Type != "" {
		var ok bool
		if typ, ok = trigger.ParseType(spec.Type); !ok {
			return nil, fmt.Errorf("trigger type %q: %w", spec.Type, ErrInvalid)
		}
	}
	size := spec.Size.Vector3()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("trigger size %v: %w", spec.Size, ErrInvalid)
	}
	t = trigger.NewTrigger(spec.Name, typ, spec.Position.Vector3(), size)
	t.TeleportDestination = spec.Destination.Vector3()
	t.ForceDirection = spec.Direction.Vector3()
	t.ForceMagnitude = spec.Magnitude
	if !s.triggers.Add(t) {
		return nil, fmt.Errorf("trigger %q already exists: %w", spec.Name, ErrInvalid)
	}
	return t, nil
}

func (s *Simulation) RemoveTrigger(name string) (err error) {
	defer func() { s.metrics.Command("remove_trigger", err) }()

	if !s.triggers.RemoveByName(name) {
		return fmt.Errorf("trigger %q: %w", name, ErrNotFound)
	}
	return nil
}
