package components

import (
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

// Rigidbody links a GameObject to its simulated body. The body itself is
// owned by the physics world; the component only holds its handle.
type Rigidbody struct {
	engine.BaseComponent
	Body     physics.Handle
	Shape    physics.ShapeKind
	Mass     float32 // 0 = static
	Material string
}

func NewRigidbody(body physics.Handle, shape physics.ShapeKind, mass float32, material string) *Rigidbody {
	return &Rigidbody{
		Body:     body,
		Shape:    shape,
		Mass:     mass,
		Material: material,
	}
}

func (r *Rigidbody) IsStatic() bool {
	return r.Mass <= 0
}

// HasBody reports whether the component still points at a body. It does not
// check that the handle is live.
func (r *Rigidbody) HasBody() bool {
	return !r.Body.IsZero()
}

// TypeName implements engine.Serializable
func (r *Rigidbody) TypeName() string {
	return "Rigidbody"
}

// Serialize implements engine.Serializable. The body handle is left out;
// it means nothing outside the running world.
func (r *Rigidbody) Serialize() map[string]any {
	return map[string]any{
		"type":     r.TypeName(),
		"shape":    r.Shape.String(),
		"mass":     r.Mass,
		"material": r.Material,
	}
}
