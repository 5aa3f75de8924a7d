// Package query answers ray and overlap questions about the physics world in
// terms of GameObjects.
package query

import (
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/material"
	"github.com/mironco/rigidcore/internal/physics"
	"github.com/mironco/rigidcore/internal/rigidbody"
)

const (
	// A ground hit must lie within this fraction of the ray length.
	groundedFraction = 0.9
	// Hits this close to the target do not block line of sight.
	sightEpsilon = 1e-3
)

// AllGroups makes a query consider every collision group.
const AllGroups = physics.AllGroups

// Hit is a ray hit resolved to its owner.
type Hit struct {
	Object   *engine.GameObject // nil for bodies without an owner
	Body     physics.Handle
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
	Material material.Material
}

// Query is read-only: it never changes the world.
type Query struct {
	world *physics.World
}

func New(world *physics.World) *Query {
	return &Query{world: world}
}

func toHit(h physics.RayHit) Hit {
	b := h.Body
	return Hit{
		Object:   rigidbody.ObjectOf(b),
		Body:     b.Handle(),
		Point:    h.Point,
		Normal:   h.Normal,
		Distance: h.Distance,
		Material: material.Material{Name: b.Material, Friction: b.Friction, Restitution: b.Restitution},
	}
}

// Raycast returns the closest hit on the segment from -> to. Bodies that
// contain from are ignored.
func (q *Query) Raycast(from, to rl.Vector3, mask uint32) (Hit, bool) {
	if q.world == nil {
		return Hit{}, false
	}
	h, ok := q.world.RayTest(from, to, mask)
	if !ok {
		return Hit{}, false
	}
	return toHit(h), true
}

// RaycastAll returns every hit on the segment, nearest first.
func (q *Query) RaycastAll(from, to rl.Vector3, mask uint32) []Hit {
	if q.world == nil {
		return nil
	}
	raw := q.world.RayTestAll(from, to, mask)
	hits := make([]Hit, len(raw))
	for i, h := range raw {
		hits[i] = toHit(h)
	}
	return hits
}

// IsGrounded casts a ray straight down from pos for up to maxDist.
func (q *Query) IsGrounded(pos rl.Vector3, maxDist float32) bool {
	if maxDist <= 0 {
		return false
	}
	h, ok := q.Raycast(pos, rl.Vector3Subtract(pos, rl.Vector3{Y: maxDist}), AllGroups)
	return ok && h.Distance <= maxDist*groundedFraction
}

// HasLineOfSight reports whether nothing lies between a and b.
func (q *Query) HasLineOfSight(a, b rl.Vector3) bool {
	h, ok := q.Raycast(a, b, AllGroups)
	if !ok {
		return true
	}
	return h.Distance >= rl.Vector3Distance(a, b)-sightEpsilon
}

// CanSeeObject reports whether the first thing a ray from from to the
// target's position plus offset hits is the target itself.
func (q *Query) CanSeeObject(from rl.Vector3, target *engine.GameObject, offset rl.Vector3) bool {
	if target == nil {
		return false
	}
	h, ok := q.Raycast(from, rl.Vector3Add(target.Transform.Position, offset), AllGroups)
	return ok && h.Object == target
}

// SphereOverlap returns the owners of every body touching the sphere,
// ordered by UID. Ownerless bodies are skipped.
func (q *Query) SphereOverlap(center rl.Vector3, radius float32) []*engine.GameObject {
	if q.world == nil {
		return nil
	}
	seen := make(map[*engine.GameObject]bool)
	var out []*engine.GameObject
	for _, b := range q.world.OverlapSphere(center, radius, AllGroups) {
		obj := rigidbody.ObjectOf(b)
		if obj == nil || seen[obj] {
			continue
		}
		seen[obj] = true
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// ClosestObjectAlong returns the first owned object hit by a ray from from
// along dir.
func (q *Query) ClosestObjectAlong(from, dir rl.Vector3, maxDist float32) *engine.GameObject {
	if maxDist <= 0 || rl.Vector3LengthSqr(dir) == 0 {
		return nil
	}
	to := rl.Vector3Add(from, rl.Vector3Scale(rl.Vector3Normalize(dir), maxDist))
	for _, h := range q.RaycastAll(from, to, AllGroups) {
		if h.Object != nil {
			return h.Object
		}
	}
	return nil
}
