package physics

import rl "github.com/gen2brain/raylib-go/raylib"

type AABB struct {
	Min rl.Vector3
	Max rl.Vector3
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// Translate moves the box by d.
func (a AABB) Translate(d rl.Vector3) AABB {
	return AABB{Min: rl.Vector3Add(a.Min, d), Max: rl.Vector3Add(a.Max, d)}
}

// Expand grows the box by margin on every side.
func (a AABB) Expand(margin float32) AABB {
	m := rl.Vector3{X: margin, Y: margin, Z: margin}
	return AABB{Min: rl.Vector3Subtract(a.Min, m), Max: rl.Vector3Add(a.Max, m)}
}

// orientedAABB returns the world AABB of a box with the given half extents and orientation.
func orientedAABB(center, half rl.Vector3, q rl.Quaternion) AABB {
	ax := absVec(rotate(q, unitX))
	ay := absVec(rotate(q, unitY))
	az := absVec(rotate(q, unitZ))
	ext := rl.Vector3{
		X: ax.X*half.X + ay.X*half.Y + az.X*half.Z,
		Y: ax.Y*half.X + ay.Y*half.Y + az.Y*half.Z,
		Z: ax.Z*half.X + ay.Z*half.Y + az.Z*half.Z,
	}
	return AABB{Min: rl.Vector3Subtract(center, ext), Max: rl.Vector3Add(center, ext)}
}
