package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Contact response tuning
const (
	restitutionThreshold = 1.0   // closing speed below which contacts don't bounce
	positionPercent      = 0.8   // fraction of penetration corrected per step
	positionSlop         = 0.005 // penetration allowed without correction
	maxManifoldPoints    = 8
)

type contactPoint struct {
	point         rl.Vector3
	normalImpulse float32
	bounce        float32
}

// contact is a manifold between two bodies. The normal points from b to a.
type contact struct {
	a, b     *Body
	normal   rl.Vector3
	depth    float32
	friction float32
	points   []contactPoint
	prepared bool
}

func (c *contact) addPoint(p rl.Vector3) {
	if len(c.points) < maxManifoldPoints {
		c.points = append(c.points, contactPoint{point: p})
	}
}

// generateContact runs the narrow phase for a candidate pair.
func generateContact(a, b *Body) (contact, bool) {
	c := contact{a: a, b: b}
	var ok bool
	switch {
	case a.shape.Kind == ShapeBox && b.shape.Kind == ShapeBox:
		ok = boxBox(&c, a, b)
	case a.shape.Kind == ShapeBox:
		// Narrow phase routines expect the round shape first
		ok = roundVsShape(&c, b, a)
		c.normal = rl.Vector3Negate(c.normal)
	default:
		ok = roundVsShape(&c, a, b)
	}
	if !ok || len(c.points) == 0 {
		return contact{}, false
	}
	c.friction = combineFriction(a.Friction, b.Friction)
	return c, true
}

func combineFriction(a, b float32) float32 {
	return a * b
}

func combineRestitution(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// roundSegment returns the inner segment of a sphere (degenerate) or capsule.
func roundSegment(b *Body) (rl.Vector3, rl.Vector3) {
	if b.shape.Kind == ShapeCapsule {
		return capsuleSegment(b.shape, b.position, b.orientation)
	}
	return b.position, b.position
}

// roundVsShape handles a sphere or capsule a against any shape b. The normal
// written to c points from b to a.
func roundVsShape(c *contact, a, b *Body) bool {
	a0, a1 := roundSegment(a)
	ra := a.shape.Radius

	switch b.shape.Kind {
	case ShapeSphere, ShapeCapsule:
		b0, b1 := roundSegment(b)
		pa, pb := closestPointsSegments(a0, a1, b0, b1)
		return sphereSphere(c, pa, ra, pb, b.shape.Radius)
	default:
		obb := b.obb()
		samples := []rl.Vector3{a0}
		if a.shape.Kind == ShapeCapsule {
			samples = append(samples, a1, rl.Vector3Scale(rl.Vector3Add(a0, a1), 0.5))
		}
		hit := false
		for _, s := range samples {
			var sc contact
			if !sphereBox(&sc, s, ra, obb) {
				continue
			}
			if !hit || sc.depth > c.depth {
				c.normal = sc.normal
				c.depth = sc.depth
			}
			c.addPoint(sc.points[0].point)
			hit = true
		}
		return hit
	}
}

func sphereSphere(c *contact, pa rl.Vector3, ra float32, pb rl.Vector3, rb float32) bool {
	diff := rl.Vector3Subtract(pa, pb)
	dist := rl.Vector3Length(diff)
	if dist >= ra+rb {
		return false
	}
	if dist < 0.0001 {
		c.normal = unitY
	} else {
		c.normal = rl.Vector3Scale(diff, 1/dist)
	}
	c.depth = ra + rb - dist
	c.addPoint(rl.Vector3Add(pb, rl.Vector3Scale(c.normal, rb)))
	return true
}

func sphereBox(c *contact, center rl.Vector3, radius float32, obb OBB) bool {
	closest := ClosestPointOnOBB(obb, center)
	diff := rl.Vector3Subtract(center, closest)
	dist := rl.Vector3Length(diff)
	if dist >= radius {
		return false
	}
	if dist > 0.0001 {
		c.normal = rl.Vector3Scale(diff, 1/dist)
		c.depth = radius - dist
		c.addPoint(closest)
		return true
	}
	// Center is inside the box: leave through the nearest face
	n, d := pushOutOfOBB(obb, center)
	c.normal = n
	c.depth = d + radius
	c.addPoint(rl.Vector3Add(center, rl.Vector3Scale(n, d)))
	return true
}

func boxBox(c *contact, a, b *Body) bool {
	obbA, obbB := a.obb(), b.obb()
	mtv := obbA.ResolveOBB(obbB)
	depth := rl.Vector3Length(mtv)
	if depth < 0.0001 {
		return false
	}
	c.normal = rl.Vector3Scale(mtv, 1/depth)
	c.depth = depth

	// Manifold: corners of each box that sit inside the other
	const tol = 0.01
	for _, v := range obbA.Vertices() {
		if obbB.ContainsPoint(v, tol) {
			c.addPoint(v)
		}
	}
	for _, v := range obbB.Vertices() {
		if obbA.ContainsPoint(v, tol) {
			c.addPoint(v)
		}
	}
	if len(c.points) == 0 {
		// Edge-edge: use the midpoint between the closest surface points
		pa := ClosestPointOnOBB(obbA, obbB.Center)
		pb := ClosestPointOnOBB(obbB, obbA.Center)
		c.addPoint(rl.Vector3Scale(rl.Vector3Add(pa, pb), 0.5))
	}
	return true
}

// wake activates a sleeping body touched by an awake one.
func (c *contact) wake() {
	if c.a.IsActive() && !c.b.IsStatic() {
		c.b.Activate()
	}
	if c.b.IsActive() && !c.a.IsStatic() {
		c.a.Activate()
	}
}

func (c *contact) relativeVelocity(p rl.Vector3) rl.Vector3 {
	return rl.Vector3Subtract(c.a.velocityAt(p), c.b.velocityAt(p))
}

// effectiveMass returns 1 / (J M^-1 J^T) for an impulse along dir at p.
func (c *contact) effectiveMass(p, dir rl.Vector3) float32 {
	rA := rl.Vector3Subtract(p, c.a.position)
	rB := rl.Vector3Subtract(p, c.b.position)
	k := c.a.invMass + c.b.invMass
	k += dot(dir, cross(c.a.applyInvInertia(cross(rA, dir)), rA))
	k += dot(dir, cross(c.b.applyInvInertia(cross(rB, dir)), rB))
	if k <= 1e-9 {
		return 0
	}
	return 1 / k
}

func (c *contact) applyImpulse(p, impulse rl.Vector3) {
	c.a.ApplyImpulse(impulse, p)
	c.b.ApplyImpulse(rl.Vector3Negate(impulse), p)
}

func (c *contact) prepare() {
	e := combineRestitution(c.a.Restitution, c.b.Restitution)
	for i := range c.points {
		cp := &c.points[i]
		vn := dot(c.relativeVelocity(cp.point), c.normal)
		if -vn > restitutionThreshold {
			cp.bounce = -e * vn
		}
	}
	c.prepared = true
}

// resolveVelocity runs one sequential impulse pass over the manifold.
func (c *contact) resolveVelocity() {
	if !c.prepared {
		c.prepare()
	}
	for i := range c.points {
		cp := &c.points[i]

		// Normal
		vrel := c.relativeVelocity(cp.point)
		vn := dot(vrel, c.normal)
		if m := c.effectiveMass(cp.point, c.normal); m > 0 {
			delta := m * (cp.bounce - vn)
			old := cp.normalImpulse
			cp.normalImpulse = max(old+delta, 0)
			c.applyImpulse(cp.point, rl.Vector3Scale(c.normal, cp.normalImpulse-old))
		}

		// Friction, bounded by the accumulated normal impulse
		vrel = c.relativeVelocity(cp.point)
		vt := rl.Vector3Subtract(vrel, rl.Vector3Scale(c.normal, dot(vrel, c.normal)))
		speed := rl.Vector3Length(vt)
		if speed < 1e-6 {
			continue
		}
		t := rl.Vector3Scale(vt, 1/speed)
		m := c.effectiveMass(cp.point, t)
		if m == 0 {
			continue
		}
		limit := c.friction * cp.normalImpulse
		jt := clampf(-speed*m, -limit, limit)
		c.applyImpulse(cp.point, rl.Vector3Scale(t, jt))
	}
}

// resolvePosition removes most of the penetration by moving the bodies apart
// in proportion to their inverse masses.
func (c *contact) resolvePosition() {
	total := c.a.invMass + c.b.invMass
	if total == 0 {
		return
	}
	depth := c.depth - positionSlop
	if depth <= 0 {
		return
	}
	corr := rl.Vector3Scale(c.normal, depth*positionPercent/total)
	if c.a.invMass > 0 {
		c.a.position = rl.Vector3Add(c.a.position, rl.Vector3Scale(corr, c.a.invMass))
	}
	if c.b.invMass > 0 {
		c.b.position = rl.Vector3Subtract(c.b.position, rl.Vector3Scale(corr, c.b.invMass))
	}
}
