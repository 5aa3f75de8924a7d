package physics

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "Box"
	case ShapeSphere:
		return "Sphere"
	case ShapeCapsule:
		return "Capsule"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is an immutable collision shape. A body's shape is never resized in
// place; bodies are rebuilt instead.
type Shape struct {
	Kind ShapeKind
	// HalfExtents is used by boxes.
	HalfExtents rl.Vector3
	// Radius is used by spheres and capsules.
	Radius float32
	// Height is the cylinder section of a capsule, along local Y.
	Height float32
}

func NewBoxShape(halfExtents rl.Vector3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: absVec(halfExtents)}
}

func NewSphereShape(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: absf(radius)}
}

func NewCapsuleShape(radius, height float32) Shape {
	return Shape{Kind: ShapeCapsule, Radius: absf(radius), Height: absf(height)}
}

// LocalInertia returns the diagonal inertia tensor for the given mass.
func (s Shape) LocalInertia(mass float32) rl.Vector3 {
	if mass <= 0 {
		return rl.Vector3{}
	}
	switch s.Kind {
	case ShapeSphere:
		i := 0.4 * mass * s.Radius * s.Radius
		return rl.Vector3{X: i, Y: i, Z: i}
	case ShapeCapsule:
		// Approximated by the bounding box
		return boxInertia(mass, s.LocalAABB().Max)
	default:
		return boxInertia(mass, s.HalfExtents)
	}
}

func boxInertia(mass float32, half rl.Vector3) rl.Vector3 {
	lx, ly, lz := 2*half.X, 2*half.Y, 2*half.Z
	return rl.Vector3{
		X: mass / 12 * (ly*ly + lz*lz),
		Y: mass / 12 * (lx*lx + lz*lz),
		Z: mass / 12 * (lx*lx + ly*ly),
	}
}

// LocalAABB returns the shape's bounding box in its own frame.
func (s Shape) LocalAABB() AABB {
	var half rl.Vector3
	switch s.Kind {
	case ShapeSphere:
		half = rl.Vector3{X: s.Radius, Y: s.Radius, Z: s.Radius}
	case ShapeCapsule:
		half = rl.Vector3{X: s.Radius, Y: s.Height/2 + s.Radius, Z: s.Radius}
	default:
		half = s.HalfExtents
	}
	return AABB{Min: rl.Vector3Negate(half), Max: half}
}

// WorldAABB returns the bounding box of the shape placed at pos with orientation q.
func (s Shape) WorldAABB(pos rl.Vector3, q rl.Quaternion) AABB {
	switch s.Kind {
	case ShapeSphere:
		return s.LocalAABB().Translate(pos)
	case ShapeCapsule:
		a, b := capsuleSegment(s, pos, q)
		r := rl.Vector3{X: s.Radius, Y: s.Radius, Z: s.Radius}
		return AABB{
			Min: rl.Vector3Subtract(rl.Vector3Min(a, b), r),
			Max: rl.Vector3Add(rl.Vector3Max(a, b), r),
		}
	default:
		return orientedAABB(pos, s.HalfExtents, q)
	}
}

// capsuleSegment returns the world endpoints of a capsule's inner segment.
func capsuleSegment(s Shape, pos rl.Vector3, q rl.Quaternion) (rl.Vector3, rl.Vector3) {
	up := rotate(q, rl.Vector3{Y: s.Height / 2})
	return rl.Vector3Subtract(pos, up), rl.Vector3Add(pos, up)
}

// ParseShapeKind accepts the names produced by ShapeKind.String, case-insensitively.
func ParseShapeKind(name string) (ShapeKind, bool) {
	switch strings.ToLower(name) {
	case "box":
		return ShapeBox, true
	case "sphere":
		return ShapeSphere, true
	case "capsule":
		return ShapeCapsule, true
	default:
		return ShapeBox, false
	}
}
