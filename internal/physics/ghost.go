package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Ghost is a non-physical oriented box. It reports the bodies it overlaps
// but never pushes them.
type Ghost struct {
	world *World

	position    rl.Vector3
	orientation rl.Quaternion
	halfExtents rl.Vector3

	// Mask selects which body groups the ghost reports.
	Mask uint32
}

func NewGhost(position, halfExtents rl.Vector3) *Ghost {
	return &Ghost{
		position:    position,
		orientation: rl.QuaternionIdentity(),
		halfExtents: absVec(halfExtents),
		Mask:        AllGroups,
	}
}

// World returns the world the ghost was added to, or nil.
func (g *Ghost) World() *World { return g.world }

func (g *Ghost) Position() rl.Vector3    { return g.position }
func (g *Ghost) HalfExtents() rl.Vector3 { return g.halfExtents }

func (g *Ghost) SetPosition(p rl.Vector3) {
	g.position = p
}

func (g *Ghost) SetOrientation(q rl.Quaternion) {
	g.orientation = rl.QuaternionNormalize(q)
}

func (g *Ghost) SetHalfExtents(h rl.Vector3) {
	g.halfExtents = absVec(h)
}

func (g *Ghost) OBB() OBB {
	return NewOBB(g.position, g.halfExtents, g.orientation)
}

// Overlapping returns every body whose shape overlaps the ghost right now.
// A ghost that is not in a world overlaps nothing.
func (g *Ghost) Overlapping() []*Body {
	if g.world == nil {
		return nil
	}
	box := g.OBB()
	bounds := orientedAABB(g.position, g.halfExtents, g.orientation)
	var out []*Body
	g.world.bodies.each(func(b *Body) {
		if b.Group&g.Mask == 0 || !bounds.Intersects(b.WorldAABB()) {
			return
		}
		if overlapsShape(box, b) {
			out = append(out, b)
		}
	})
	return out
}

// overlapsShape tests an oriented box against a body's shape.
func overlapsShape(box OBB, b *Body) bool {
	switch b.shape.Kind {
	case ShapeSphere:
		return box.IntersectsSphere(b.position, b.shape.Radius)
	case ShapeCapsule:
		p0, p1 := capsuleSegment(b.shape, b.position, b.orientation)
		// Closest point of the segment to the box, refined once from the box side
		s := closestPointOnSegment(p0, p1, box.Center)
		s = closestPointOnSegment(p0, p1, ClosestPointOnOBB(box, s))
		return box.IntersectsSphere(s, b.shape.Radius)
	default:
		return box.IntersectsOBB(b.obb())
	}
}
