package physics

import (
	"sort"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// RayHit describes where a ray met a body.
type RayHit struct {
	Body     *Body
	Point    rl.Vector3
	Normal   rl.Vector3
	Fraction float32 // distance / |to - from|
	Distance float32
}

// RayTest returns the closest body hit by the segment from -> to whose group
// matches mask. Shapes that contain from are ignored.
func (w *World) RayTest(from, to rl.Vector3, mask uint32) (RayHit, bool) {
	dir, length, ok := rayDirection(from, to)
	if !ok {
		return RayHit{}, false
	}
	var closest RayHit
	hit := false
	w.bodies.each(func(b *Body) {
		if b.Group&mask == 0 {
			return
		}
		if h, ok := raycastBody(b, from, dir, length); ok && (!hit || h.Distance < closest.Distance) {
			closest = h
			hit = true
		}
	})
	if hit {
		closest.Fraction = closest.Distance / length
	}
	return closest, hit
}

// RayTestAll returns every body hit by the segment, nearest first.
func (w *World) RayTestAll(from, to rl.Vector3, mask uint32) []RayHit {
	dir, length, ok := rayDirection(from, to)
	if !ok {
		return nil
	}
	var hits []RayHit
	w.bodies.each(func(b *Body) {
		if b.Group&mask == 0 {
			return
		}
		if h, ok := raycastBody(b, from, dir, length); ok {
			h.Fraction = h.Distance / length
			hits = append(hits, h)
		}
	})
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func rayDirection(from, to rl.Vector3) (rl.Vector3, float32, bool) {
	delta := rl.Vector3Subtract(to, from)
	length := rl.Vector3Length(delta)
	if length < 1e-6 {
		return rl.Vector3{}, 0, false
	}
	return rl.Vector3Scale(delta, 1/length), length, true
}

func raycastBody(b *Body, origin, dir rl.Vector3, maxDistance float32) (RayHit, bool) {
	if !rayMayHit(b.WorldAABB(), origin, dir, maxDistance) {
		return RayHit{}, false
	}
	var (
		t      float32
		normal rl.Vector3
		ok     bool
	)
	switch b.shape.Kind {
	case ShapeSphere:
		t, normal, ok = raycastSphere(origin, dir, b.position, b.shape.Radius)
	case ShapeCapsule:
		p0, p1 := capsuleSegment(b.shape, b.position, b.orientation)
		t, normal, ok = raycastCapsule(origin, dir, p0, p1, b.shape.Radius)
	default:
		t, normal, ok = raycastBox(origin, dir, b.position, b.shape.HalfExtents, b.orientation)
	}
	if !ok || t > maxDistance {
		return RayHit{}, false
	}
	return RayHit{
		Body:     b,
		Point:    rl.Vector3Add(origin, rl.Vector3Scale(dir, t)),
		Normal:   normal,
		Distance: t,
	}, true
}

// rayMayHit is the slab test against a world AABB, used to reject bodies early.
func rayMayHit(box AABB, origin, dir rl.Vector3, maxDistance float32) bool {
	tmin, _, _, ok := slabAxis(origin, dir, box.Min, box.Max)
	return ok && tmin <= maxDistance
}

// slabAxis intersects a ray with an axis-aligned box and returns the entry and
// exit distances and the axis (0-2) of the entry face.
func slabAxis(origin, dir, min, max rl.Vector3) (float32, float32, int, bool) {
	o := [3]float32{origin.X, origin.Y, origin.Z}
	d := [3]float32{dir.X, dir.Y, dir.Z}
	lo := [3]float32{min.X, min.Y, min.Z}
	hi := [3]float32{max.X, max.Y, max.Z}

	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)
	axis := 0
	for i := 0; i < 3; i++ {
		if absf(d[i]) < 1e-8 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, 0, 0, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, 0, 0, false
		}
	}
	if tmax < 0 {
		return 0, 0, 0, false
	}
	return tmin, tmax, axis, true
}

// raycastBox intersects in the box's local frame. Rays starting inside miss.
func raycastBox(origin, dir, center, half rl.Vector3, q rl.Quaternion) (float32, rl.Vector3, bool) {
	localOrigin := rotateInv(q, rl.Vector3Subtract(origin, center))
	localDir := rotateInv(q, dir)
	tmin, _, axis, ok := slabAxis(localOrigin, localDir, rl.Vector3Negate(half), half)
	if !ok || tmin < 0 {
		return 0, rl.Vector3{}, false
	}

	// The entry face faces against the ray along the entry axis
	var normal rl.Vector3
	switch axis {
	case 0:
		normal.X = -sign(localDir.X)
	case 1:
		normal.Y = -sign(localDir.Y)
	default:
		normal.Z = -sign(localDir.Z)
	}
	return tmin, rotate(q, normal), true
}

func raycastSphere(origin, dir, center rl.Vector3, radius float32) (float32, rl.Vector3, bool) {
	oc := rl.Vector3Subtract(origin, center)
	c := dot(oc, oc) - radius*radius
	if c <= 0 {
		return 0, rl.Vector3{}, false
	}
	b := dot(oc, dir)
	disc := b*b - c
	if disc < 0 {
		return 0, rl.Vector3{}, false
	}
	t := -b - math32.Sqrt(disc)
	if t < 0 {
		return 0, rl.Vector3{}, false
	}
	point := rl.Vector3Add(origin, rl.Vector3Scale(dir, t))
	return t, rl.Vector3Normalize(rl.Vector3Subtract(point, center)), true
}

// raycastCapsule takes the nearest of the cylinder side and both end spheres.
func raycastCapsule(origin, dir, p0, p1 rl.Vector3, radius float32) (float32, rl.Vector3, bool) {
	inner := closestPointOnSegment(p0, p1, origin)
	if rl.Vector3LengthSqr(rl.Vector3Subtract(origin, inner)) <= radius*radius {
		return 0, rl.Vector3{}, false
	}

	best := float32(math32.MaxFloat32)
	var normal rl.Vector3
	hit := false

	ba := rl.Vector3Subtract(p1, p0)
	oa := rl.Vector3Subtract(origin, p0)
	baba := dot(ba, ba)
	bard := dot(ba, dir)
	baoa := dot(ba, oa)
	a := baba - bard*bard
	if a > 1e-8 {
		b := baba*dot(dir, oa) - baoa*bard
		c := baba*dot(oa, oa) - baoa*baoa - radius*radius*baba
		if h := b*b - a*c; h >= 0 {
			t := (-b - math32.Sqrt(h)) / a
			y := baoa + t*bard
			if t >= 0 && y > 0 && y < baba {
				best = t
				point := rl.Vector3Add(origin, rl.Vector3Scale(dir, t))
				axisPoint := rl.Vector3Add(p0, rl.Vector3Scale(ba, y/baba))
				normal = rl.Vector3Normalize(rl.Vector3Subtract(point, axisPoint))
				hit = true
			}
		}
	}
	for _, end := range [2]rl.Vector3{p0, p1} {
		if t, n, ok := raycastSphere(origin, dir, end, radius); ok && t < best {
			best, normal, hit = t, n, true
		}
	}
	return best, normal, hit
}

func sign(x float32) float32 {
	if x < 0 {
		return -1
	}
	return 1
}
