package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlapSphere returns every body whose group matches mask and whose shape
// intersects the sphere.
func (w *World) OverlapSphere(center rl.Vector3, radius float32, mask uint32) []*Body {
	if radius < 0 {
		return nil
	}
	r := rl.Vector3{X: radius, Y: radius, Z: radius}
	bounds := AABB{Min: rl.Vector3Subtract(center, r), Max: rl.Vector3Add(center, r)}
	var out []*Body
	w.bodies.each(func(b *Body) {
		if b.Group&mask == 0 || !bounds.Intersects(b.WorldAABB()) {
			return
		}
		if b.OverlapsSphere(center, radius) {
			out = append(out, b)
		}
	})
	return out
}

// OverlapsSphere tests the body's shape against a sphere.
func (b *Body) OverlapsSphere(center rl.Vector3, radius float32) bool {
	switch b.shape.Kind {
	case ShapeSphere:
		rr := b.shape.Radius + radius
		return rl.Vector3LengthSqr(rl.Vector3Subtract(b.position, center)) <= rr*rr
	case ShapeCapsule:
		p0, p1 := capsuleSegment(b.shape, b.position, b.orientation)
		d := rl.Vector3Subtract(closestPointOnSegment(p0, p1, center), center)
		rr := b.shape.Radius + radius
		return rl.Vector3LengthSqr(d) <= rr*rr
	default:
		return b.obb().IntersectsSphere(center, radius)
	}
}
