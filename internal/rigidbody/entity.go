package rigidbody

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

func absScale(s rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: math32.Abs(s.X), Y: math32.Abs(s.Y), Z: math32.Abs(s.Z)}
}

// ObjectOf returns the GameObject that owns b, if any.
func ObjectOf(b *physics.Body) *engine.GameObject {
	if b == nil {
		return nil
	}
	obj, _ := b.UserData.(*engine.GameObject)
	return obj
}

// AttachToObject creates a body at obj's transform, sized by its scale, and
// records it in a Rigidbody component. An object that already has a body is
// left alone and its handle returned.
func (p *Physics) AttachToObject(obj *engine.GameObject, kind physics.ShapeKind, mass float32, materialName string) physics.Handle {
	if obj == nil {
		p.logger.Error("Physics: attach to nil object")
		return physics.Handle{}
	}
	if rb := engine.GetComponent[*components.Rigidbody](obj); rb != nil && p.Body(rb.Body) != nil {
		p.logger.Warn("Physics: object already has a body", zap.String("object", obj.Name))
		return rb.Body
	}

	h := p.CreateRigidBody(kind, obj.Transform.Position, absScale(obj.Transform.Scale), mass, materialName)
	b := p.Body(h)
	if b == nil {
		return physics.Handle{}
	}
	b.SetOrientation(obj.Transform.Rotation)
	b.UserData = obj

	if rb := engine.GetComponent[*components.Rigidbody](obj); rb != nil {
		rb.Body, rb.Shape, rb.Mass, rb.Material = h, kind, mass, b.Material
	} else {
		obj.AddComponent(components.NewRigidbody(h, kind, mass, b.Material))
	}
	return h
}

// DetachFromObject removes obj's constraints, then its body and Rigidbody
// component.
func (p *Physics) DetachFromObject(obj *engine.GameObject) bool {
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil {
		return false
	}
	if p.constraints != nil {
		p.constraints.RemoveForObject(obj)
	}
	p.RemoveRigidBody(rb.Body)
	obj.RemoveComponent(rb)
	return true
}

// ResizeObject rebuilds obj's body from its current scale. Constraints on the
// object are dropped, since they were bound to the old body.
func (p *Physics) ResizeObject(obj *engine.GameObject, kind physics.ShapeKind, mass float32, materialName string) physics.Handle {
	rb := engine.GetComponent[*components.Rigidbody](obj)
	if rb == nil {
		p.logger.Error("Physics: resize of object without a body")
		return physics.Handle{}
	}
	if p.constraints != nil {
		if n := p.constraints.RemoveForObject(obj); n > 0 {
			p.logger.Info("Physics: constraints dropped by resize", zap.String("object", obj.Name), zap.Int("count", n))
		}
	}
	h := p.ResizeRigidBody(rb.Body, kind, absScale(obj.Transform.Scale), mass, materialName)
	if h.IsZero() {
		return h
	}
	rb.Body, rb.Shape, rb.Mass = h, kind, mass
	if b := p.Body(h); b != nil {
		rb.Material = b.Material
	}
	return h
}

// SyncTransforms copies the pose of every dynamic body back onto its owner.
func (p *Physics) SyncTransforms() {
	if p.world == nil {
		return
	}
	for _, b := range p.world.Bodies() {
		if b.IsStatic() {
			continue
		}
		if obj := ObjectOf(b); obj != nil {
			obj.Transform.Position = b.Position()
			obj.Transform.Rotation = b.Orientation()
		}
	}
}
