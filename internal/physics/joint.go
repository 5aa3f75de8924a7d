package physics

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Axis indices of a joint: 0-2 are linear along the frame axes, 3-5 angular about them.
const (
	LinearX = iota
	LinearY
	LinearZ
	AngularX
	AngularY
	AngularZ
	AxisCount
)

type AxisMode int

const (
	AxisLocked AxisMode = iota
	AxisLimited
	AxisFree
)

// Baumgarte factor used to pull drifting joints back together.
const jointERP = 0.2

// Frame is a joint anchor expressed in a body's local space (or world space
// for a world-anchored side).
type Frame struct {
	Pivot rl.Vector3
	Basis rl.Quaternion
}

// NewFrame builds a frame whose X axis points along axis.
func NewFrame(pivot, axis rl.Vector3) Frame {
	if isZero(axis) {
		axis = unitX
	}
	return Frame{Pivot: pivot, Basis: FromToRotation(unitX, axis)}
}

// WorldFrame expresses a world-space pivot and primary axis in b's local
// space. With a nil body the frame stays in world space.
func WorldFrame(b *Body, pivot, axis rl.Vector3) Frame {
	if isZero(axis) {
		axis = unitX
	}
	basis := FromToRotation(unitX, rl.Vector3Normalize(axis))
	if b == nil {
		return Frame{Pivot: pivot, Basis: basis}
	}
	inv := conjugate(b.orientation)
	return Frame{
		Pivot: rotate(inv, rl.Vector3Subtract(pivot, b.position)),
		Basis: rl.QuaternionNormalize(rl.QuaternionMultiply(inv, basis)),
	}
}

// AxisSettings configures one degree of freedom.
type AxisSettings struct {
	Mode AxisMode
	// Lower and Upper bound a Limited axis. A Locked axis holds Lower.
	Lower, Upper float32

	MotorEnabled    bool
	MotorTarget     float32 // target velocity (units/s or rad/s)
	MotorMaxImpulse float32

	SpringEnabled bool
	Stiffness     float32
	Damping       float32
	Equilibrium   float32
}

type jointRow struct {
	linA, linB rl.Vector3
	angA, angB rl.Vector3
	// inverse inertia applied to angA / angB, fixed for the step
	impA, impB rl.Vector3
	effMass    float32
	rhs        float32
	lo, hi     float32
	accum      float32
	linear     bool
	counts     bool
}

// Joint restricts the relative motion of bodyA and bodyB (or bodyA and the
// world when bodyB is nil). Every kind of mechanical constraint is expressed
// as a configuration of its six axes.
type Joint struct {
	world *World

	bodyA, bodyB   *Body
	frameA, frameB Frame
	axes           [AxisCount]AxisSettings

	enabled           bool
	disableCollisions bool

	breakable    bool
	breakImpulse float32
	breakTorque  float32

	rows           []jointRow
	appliedLinear  float32
	appliedAngular float32
}

// NewJoint creates a joint with every axis locked. frameB is in world space
// when b is nil.
func NewJoint(a, b *Body, frameA, frameB Frame) *Joint {
	if a == nil {
		return nil
	}
	if frameA.Basis == (rl.Quaternion{}) {
		frameA.Basis = rl.QuaternionIdentity()
	}
	if frameB.Basis == (rl.Quaternion{}) {
		frameB.Basis = rl.QuaternionIdentity()
	}
	return &Joint{
		bodyA:   a,
		bodyB:   b,
		frameA:  frameA,
		frameB:  frameB,
		enabled: true,
	}
}

func (j *Joint) BodyA() *Body  { return j.bodyA }
func (j *Joint) BodyB() *Body  { return j.bodyB }
func (j *Joint) FrameA() Frame { return j.frameA }
func (j *Joint) FrameB() Frame { return j.frameB }

// IsEnabled is false once the joint broke or one of its bodies was removed.
func (j *Joint) IsEnabled() bool { return j.enabled }

func (j *Joint) InWorld() bool { return j.world != nil }

func (j *Joint) Axis(i int) AxisSettings {
	if i < 0 || i >= AxisCount {
		return AxisSettings{}
	}
	return j.axes[i]
}

func (j *Joint) SetAxis(i int, s AxisSettings) {
	if i < 0 || i >= AxisCount {
		return
	}
	j.axes[i] = s
	j.wake()
}

// SetLimit follows the usual kernel convention: lower == upper locks the
// axis at that value, lower > upper frees it, anything else limits it.
func (j *Joint) SetLimit(i int, lower, upper float32) {
	if i < 0 || i >= AxisCount {
		return
	}
	a := &j.axes[i]
	a.Lower, a.Upper = lower, upper
	switch {
	case lower == upper:
		a.Mode = AxisLocked
	case lower > upper:
		a.Mode = AxisFree
	default:
		a.Mode = AxisLimited
	}
	j.wake()
}

func (j *Joint) SetMotor(i int, enabled bool, target, maxImpulse float32) {
	if i < 0 || i >= AxisCount {
		return
	}
	a := &j.axes[i]
	a.MotorEnabled = enabled
	a.MotorTarget = target
	a.MotorMaxImpulse = absf(maxImpulse)
	j.wake()
}

func (j *Joint) SetSpring(i int, enabled bool, stiffness, damping float32) {
	if i < 0 || i >= AxisCount {
		return
	}
	a := &j.axes[i]
	a.SpringEnabled = enabled
	a.Stiffness = absf(stiffness)
	a.Damping = absf(damping)
	j.wake()
}

func (j *Joint) SetEquilibrium(i int, value float32) {
	if i < 0 || i >= AxisCount {
		return
	}
	j.axes[i].Equilibrium = value
}

// SetEquilibriumToCurrent stores the current coordinates as spring rest values.
func (j *Joint) SetEquilibriumToCurrent() {
	for i := 0; i < AxisCount; i++ {
		j.axes[i].Equilibrium = j.Coordinate(i)
	}
}

// SetBreakingThreshold makes the joint breakable. It disables itself once the
// impulse it applies in one step exceeds impulse (linear) or torque (angular).
// Non-positive values mean unlimited for that component.
func (j *Joint) SetBreakingThreshold(impulse, torque float32) {
	j.breakable = true
	j.breakImpulse = impulse
	j.breakTorque = torque
	if impulse <= 0 {
		j.breakImpulse = math32.MaxFloat32
	}
	if torque <= 0 {
		j.breakTorque = math32.MaxFloat32
	}
}

func (j *Joint) IsBreakable() bool { return j.breakable }

// AppliedImpulse returns the linear and angular impulse magnitudes of the last step.
func (j *Joint) AppliedImpulse() (linear, angular float32) {
	return j.appliedLinear, j.appliedAngular
}

func (j *Joint) wake() {
	j.bodyA.Activate()
	if j.bodyB != nil {
		j.bodyB.Activate()
	}
}

type jointState struct {
	pA, pB rl.Vector3
	rA, rB rl.Vector3
	axes   [3]rl.Vector3
	qrel   rl.Quaternion
}

func (j *Joint) measure() jointState {
	var s jointState
	a := j.bodyA
	s.pA = rl.Vector3Add(a.position, rotate(a.orientation, j.frameA.Pivot))
	s.rA = rl.Vector3Subtract(s.pA, a.position)
	qa := rl.QuaternionMultiply(a.orientation, j.frameA.Basis)

	qb := j.frameB.Basis
	s.pB = j.frameB.Pivot
	if b := j.bodyB; b != nil {
		s.pB = rl.Vector3Add(b.position, rotate(b.orientation, j.frameB.Pivot))
		s.rB = rl.Vector3Subtract(s.pB, b.position)
		qb = rl.QuaternionMultiply(b.orientation, j.frameB.Basis)
	}

	s.axes = [3]rl.Vector3{rotate(qa, unitX), rotate(qa, unitY), rotate(qa, unitZ)}
	s.qrel = rl.QuaternionMultiply(qa, conjugate(qb))
	return s
}

func (s jointState) coordinate(i int) float32 {
	if i < AngularX {
		return dot(rl.Vector3Subtract(s.pA, s.pB), s.axes[i])
	}
	return twistAngle(s.qrel, s.axes[i-AngularX])
}

// Coordinate returns the current offset (linear axes) or angle in radians
// (angular axes) of frame A relative to frame B, measured along A's axes.
func (j *Joint) Coordinate(i int) float32 {
	if i < 0 || i >= AxisCount {
		return 0
	}
	return j.measure().coordinate(i)
}

func (j *Joint) newRow(s jointState, i int) jointRow {
	var r jointRow
	if i < AngularX {
		n := s.axes[i]
		r.linear = true
		r.linA, r.linB = n, n
		r.angA = cross(s.rA, n)
		if j.bodyB != nil {
			r.angB = cross(s.rB, n)
		}
	} else {
		n := s.axes[i-AngularX]
		r.angA = n
		if j.bodyB != nil {
			r.angB = n
		}
	}
	if j.bodyB == nil {
		r.linB = rl.Vector3{}
	}

	a, b := j.bodyA, j.bodyB
	r.impA = a.applyInvInertia(r.angA)
	k := a.invMass*dot(r.linA, r.linA) + dot(r.angA, r.impA)
	if b != nil {
		r.impB = b.applyInvInertia(r.angB)
		k += b.invMass*dot(r.linB, r.linB) + dot(r.angB, r.impB)
	}
	if k > 1e-9 {
		r.effMass = 1 / k
	}
	return r
}

func (j *Joint) relativeVelocity(r *jointRow) float32 {
	a := j.bodyA
	v := dot(r.linA, a.linearVelocity) + dot(r.angA, a.angularVelocity)
	if b := j.bodyB; b != nil {
		v -= dot(r.linB, b.linearVelocity) + dot(r.angB, b.angularVelocity)
	}
	return v
}

func (j *Joint) applyRowImpulse(r *jointRow, lambda float32) {
	a := j.bodyA
	if a.invMass > 0 {
		a.linearVelocity = rl.Vector3Add(a.linearVelocity, rl.Vector3Scale(r.linA, lambda*a.invMass))
		a.angularVelocity = rl.Vector3Add(a.angularVelocity, rl.Vector3Scale(r.impA, lambda))
	}
	if b := j.bodyB; b != nil && b.invMass > 0 {
		b.linearVelocity = rl.Vector3Subtract(b.linearVelocity, rl.Vector3Scale(r.linB, lambda*b.invMass))
		b.angularVelocity = rl.Vector3Subtract(b.angularVelocity, rl.Vector3Scale(r.impB, lambda))
	}
}

// prepare builds the solver rows for this step and applies spring impulses.
func (j *Joint) prepare(dt float32) {
	j.rows = j.rows[:0]
	s := j.measure()
	invDt := 1 / dt
	inf := float32(math32.MaxFloat32)

	for i := 0; i < AxisCount; i++ {
		ax := j.axes[i]
		pos := s.coordinate(i)

		if ax.SpringEnabled {
			r := j.newRow(s, i)
			if r.effMass > 0 {
				vel := j.relativeVelocity(&r)
				x := pos - ax.Equilibrium
				impulse := -(ax.Stiffness*x + ax.Damping*vel) * dt
				// Never overshoot what would bring the axis to rest at equilibrium in one step
				limit := r.effMass * (absf(vel) + absf(x)*invDt)
				j.applyRowImpulse(&r, clampf(impulse, -limit, limit))
			}
		}

		switch ax.Mode {
		case AxisLocked:
			r := j.newRow(s, i)
			r.rhs = -jointERP * invDt * (pos - ax.Lower)
			r.lo, r.hi = -inf, inf
			r.counts = true
			j.rows = append(j.rows, r)
		case AxisLimited:
			if pos < ax.Lower {
				r := j.newRow(s, i)
				r.rhs = -jointERP * invDt * (pos - ax.Lower)
				r.lo, r.hi = 0, inf
				r.counts = true
				j.rows = append(j.rows, r)
			} else if pos > ax.Upper {
				r := j.newRow(s, i)
				r.rhs = -jointERP * invDt * (pos - ax.Upper)
				r.lo, r.hi = -inf, 0
				r.counts = true
				j.rows = append(j.rows, r)
			}
		}

		if ax.MotorEnabled && ax.Mode != AxisLocked {
			r := j.newRow(s, i)
			r.rhs = ax.MotorTarget
			r.lo, r.hi = -ax.MotorMaxImpulse, ax.MotorMaxImpulse
			j.rows = append(j.rows, r)
		}
	}
}

func (j *Joint) solve() {
	for i := range j.rows {
		r := &j.rows[i]
		if r.effMass == 0 {
			continue
		}
		lambda := r.effMass * (r.rhs - j.relativeVelocity(r))
		old := r.accum
		r.accum = clampf(old+lambda, r.lo, r.hi)
		j.applyRowImpulse(r, r.accum-old)
	}
}

// finish records the applied impulse and disables the joint when it exceeds
// its breaking threshold.
func (j *Joint) finish() {
	var lin, ang rl.Vector3
	for i := range j.rows {
		r := &j.rows[i]
		if !r.counts {
			continue
		}
		if r.linear {
			lin = rl.Vector3Add(lin, rl.Vector3Scale(r.linA, r.accum))
		} else {
			ang = rl.Vector3Add(ang, rl.Vector3Scale(r.angA, r.accum))
		}
	}
	j.appliedLinear = rl.Vector3Length(lin)
	j.appliedAngular = rl.Vector3Length(ang)
	if j.breakable && (j.appliedLinear > j.breakImpulse || j.appliedAngular > j.breakTorque) {
		j.enabled = false
	}
}
