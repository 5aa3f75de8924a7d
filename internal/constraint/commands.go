package constraint

import (
	"go.uber.org/zap"
)

// Name-based commands for callers that only know a constraint by name, such
// as the sandbox API. A missing name or a constraint of the wrong kind logs a
// warning and returns false.

func lookup[T Constraint](r *Registry, name, op string) (T, bool) {
	var zero T
	c, ok := r.byName[name]
	if !ok {
		r.logger.Warn("ConstraintRegistry: unknown constraint", zap.String("name", name), zap.String("op", op))
		return zero, false
	}
	typed, ok := c.(T)
	if !ok {
		r.logger.Warn("ConstraintRegistry: operation does not apply to constraint type",
			zap.String("name", name),
			zap.String("op", op),
			zap.Stringer("type", c.Type()),
		)
		return zero, false
	}
	return typed, true
}

func (r *Registry) SetHingeLimits(name string, lower, upper float32) bool {
	h, ok := lookup[*Hinge](r, name, "SetHingeLimits")
	if ok {
		h.SetLimits(lower, upper)
	}
	return ok
}

func (r *Registry) SetHingeMotor(name string, enabled bool, targetVelocity, maxImpulse float32) bool {
	h, ok := lookup[*Hinge](r, name, "SetHingeMotor")
	if !ok {
		return false
	}
	if enabled {
		h.EnableMotor(targetVelocity, maxImpulse)
	} else {
		h.DisableMotor()
	}
	return true
}

func (r *Registry) SetSliderLimits(name string, lower, upper float32) bool {
	s, ok := lookup[*Slider](r, name, "SetSliderLimits")
	if ok {
		s.SetLinearLimits(lower, upper)
	}
	return ok
}

func (r *Registry) SetSliderMotor(name string, enabled bool, targetVelocity, maxForce float32) bool {
	s, ok := lookup[*Slider](r, name, "SetSliderMotor")
	if !ok {
		return false
	}
	if enabled {
		s.EnableMotor(targetVelocity, maxForce)
	} else {
		s.DisableMotor()
	}
	return true
}

func (r *Registry) SetSpringStiffness(name string, axis int, stiffness float32) bool {
	s, ok := lookup[*Spring](r, name, "SetSpringStiffness")
	if ok {
		s.SetStiffness(axis, stiffness)
	}
	return ok
}

func (r *Registry) SetSpringDamping(name string, axis int, damping float32) bool {
	s, ok := lookup[*Spring](r, name, "SetSpringDamping")
	if ok {
		s.SetDamping(axis, damping)
	}
	return ok
}

func (r *Registry) EnableSpring(name string, axis int, on bool) bool {
	s, ok := lookup[*Spring](r, name, "EnableSpring")
	if ok {
		s.EnableSpring(axis, on)
	}
	return ok
}

func (r *Registry) SetBreakingThreshold(name string, force, torque float32) bool {
	c, ok := lookup[Constraint](r, name, "SetBreakingThreshold")
	if ok {
		c.SetBreakingThreshold(force, torque)
	}
	return ok
}
