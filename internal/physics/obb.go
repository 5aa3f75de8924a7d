package physics

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OBB represents an Oriented Bounding Box
type OBB struct {
	Center   rl.Vector3    // World-space center
	HalfSize rl.Vector3    // Half-extents along local axes
	Axes     [3]rl.Vector3 // Local X, Y, Z axes (rotated)
}

// NewOBB creates an OBB from center, half extents and orientation.
func NewOBB(center, halfSize rl.Vector3, q rl.Quaternion) OBB {
	return OBB{
		Center:   center,
		HalfSize: absVec(halfSize),
		Axes: [3]rl.Vector3{
			rl.Vector3Normalize(rotate(q, unitX)),
			rl.Vector3Normalize(rotate(q, unitY)),
			rl.Vector3Normalize(rotate(q, unitZ)),
		},
	}
}

// IntersectsOBB tests if two OBBs intersect using the Separating Axis Theorem
func (a OBB) IntersectsOBB(b OBB) bool {
	t := rl.Vector3Subtract(b.Center, a.Center)

	// 3 face normals from each box plus 9 edge cross products
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, a.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, b.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := cross(a.Axes[i], b.Axes[j])
			// Skip near-zero axes (parallel edges)
			if rl.Vector3Length(axis) > 0.0001 {
				if !overlapOnAxis(a, b, rl.Vector3Normalize(axis), t) {
					return false
				}
			}
		}
	}

	return true
}

func (o OBB) project(axis rl.Vector3) float32 {
	return o.HalfSize.X*absf(dot(o.Axes[0], axis)) +
		o.HalfSize.Y*absf(dot(o.Axes[1], axis)) +
		o.HalfSize.Z*absf(dot(o.Axes[2], axis))
}

// overlapOnAxis checks if two OBBs overlap when projected onto a given axis
func overlapOnAxis(a, b OBB, axis, t rl.Vector3) bool {
	return absf(dot(t, axis)) <= a.project(axis)+b.project(axis)
}

// ResolveOBB returns the minimum translation vector to push 'a' out of 'b'
// Returns zero vector if no overlap
func (a OBB) ResolveOBB(b OBB) rl.Vector3 {
	if !a.IntersectsOBB(b) {
		return rl.Vector3Zero()
	}

	t := rl.Vector3Subtract(b.Center, a.Center)
	minPenetration := float32(math32.MaxFloat32)
	var mtv rl.Vector3

	testAxis := func(axis rl.Vector3) {
		if rl.Vector3Length(axis) < 0.0001 {
			return
		}
		axis = rl.Vector3Normalize(axis)

		dist := dot(t, axis)
		penetration := a.project(axis) + b.project(axis) - absf(dist)

		if penetration < minPenetration {
			minPenetration = penetration
			// Push in the direction away from B
			if dist < 0 {
				mtv = rl.Vector3Scale(axis, penetration)
			} else {
				mtv = rl.Vector3Scale(axis, -penetration)
			}
		}
	}

	for i := 0; i < 3; i++ {
		testAxis(a.Axes[i])
	}
	for i := 0; i < 3; i++ {
		testAxis(b.Axes[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			testAxis(cross(a.Axes[i], b.Axes[j]))
		}
	}

	return mtv
}

// IntersectsSphere tests if an OBB intersects with a sphere
func (o OBB) IntersectsSphere(center rl.Vector3, radius float32) bool {
	closest := ClosestPointOnOBB(o, center)
	d := rl.Vector3Subtract(center, closest)
	return dot(d, d) <= radius*radius
}

// ContainsPoint reports whether p lies inside the box, grown by tolerance.
func (o OBB) ContainsPoint(p rl.Vector3, tolerance float32) bool {
	local := rl.Vector3Subtract(p, o.Center)
	return absf(dot(local, o.Axes[0])) <= o.HalfSize.X+tolerance &&
		absf(dot(local, o.Axes[1])) <= o.HalfSize.Y+tolerance &&
		absf(dot(local, o.Axes[2])) <= o.HalfSize.Z+tolerance
}

// Vertices returns the 8 world-space corners.
func (o OBB) Vertices() [8]rl.Vector3 {
	var out [8]rl.Vector3
	i := 0
	for _, sx := range [2]float32{-1, 1} {
		for _, sy := range [2]float32{-1, 1} {
			for _, sz := range [2]float32{-1, 1} {
				v := o.Center
				v = rl.Vector3Add(v, rl.Vector3Scale(o.Axes[0], sx*o.HalfSize.X))
				v = rl.Vector3Add(v, rl.Vector3Scale(o.Axes[1], sy*o.HalfSize.Y))
				v = rl.Vector3Add(v, rl.Vector3Scale(o.Axes[2], sz*o.HalfSize.Z))
				out[i] = v
				i++
			}
		}
	}
	return out
}

// ClosestPointOnOBB returns the closest point on or inside the OBB to the given point
func ClosestPointOnOBB(o OBB, point rl.Vector3) rl.Vector3 {
	// Transform point to OBB's local space
	local := rl.Vector3Subtract(point, o.Center)
	localX := dot(local, o.Axes[0])
	localY := dot(local, o.Axes[1])
	localZ := dot(local, o.Axes[2])

	// Clamp to box extents
	closestX := clampf(localX, -o.HalfSize.X, o.HalfSize.X)
	closestY := clampf(localY, -o.HalfSize.Y, o.HalfSize.Y)
	closestZ := clampf(localZ, -o.HalfSize.Z, o.HalfSize.Z)

	// Transform back to world space
	result := o.Center
	result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[0], closestX))
	result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[1], closestY))
	result = rl.Vector3Add(result, rl.Vector3Scale(o.Axes[2], closestZ))

	return result
}

// pushOutOfOBB returns the outward normal and depth for a point inside the box,
// choosing the face with the least penetration.
func pushOutOfOBB(o OBB, point rl.Vector3) (rl.Vector3, float32) {
	local := rl.Vector3Subtract(point, o.Center)
	best := float32(math32.MaxFloat32)
	var normal rl.Vector3
	half := [3]float32{o.HalfSize.X, o.HalfSize.Y, o.HalfSize.Z}
	for i := 0; i < 3; i++ {
		d := dot(local, o.Axes[i])
		depth := half[i] - absf(d)
		if depth < best {
			best = depth
			if d < 0 {
				normal = rl.Vector3Negate(o.Axes[i])
			} else {
				normal = o.Axes[i]
			}
		}
	}
	return normal, best
}
