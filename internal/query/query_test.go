package query

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
	"github.com/mironco/rigidcore/internal/rigidbody"
)

type scene struct {
	physics *rigidbody.Physics
	query   *Query
}

func newScene(t *testing.T) *scene {
	t.Helper()
	p := rigidbody.New(config.Default().Physics, nil, zaptest.NewLogger(t), nil)
	p.Initialize()
	return &scene{physics: p, query: New(p.World())}
}

func (s *scene) add(name string, kind physics.ShapeKind, pos, scale rl.Vector3, material string) *engine.GameObject {
	obj := engine.NewGameObject(name)
	obj.Transform.Position = pos
	obj.Transform.Scale = scale
	s.physics.AttachToObject(obj, kind, 0, material)
	return obj
}

func (s *scene) ground() *engine.GameObject {
	return s.add("ground", physics.ShapeBox, rl.Vector3{}, rl.Vector3{X: 20, Y: 1, Z: 20}, "Concrete")
}

func TestRaycastOntoGround(t *testing.T) {
	s := newScene(t)
	ground := s.ground()

	hit, ok := s.query.Raycast(rl.Vector3{Y: 10}, rl.Vector3{Y: -10}, AllGroups)
	require.True(t, ok)
	assert.InDelta(t, 9.5, hit.Distance, 1e-3)
	assert.InDelta(t, 0.5, hit.Point.Y, 1e-3)
	assert.InDelta(t, 1, hit.Normal.Y, 1e-3)
	assert.Same(t, ground, hit.Object)
	assert.Equal(t, "Concrete", hit.Material.Name)
	assert.Equal(t, float32(0.8), hit.Material.Friction)

	_, ok = s.query.Raycast(rl.Vector3{X: 50, Y: 10}, rl.Vector3{X: 50, Y: -10}, AllGroups)
	assert.False(t, ok)
}

func TestRaycastAllOrdersByDistance(t *testing.T) {
	s := newScene(t)
	ground := s.ground()
	crate := s.add("crate", physics.ShapeBox, rl.Vector3{Y: 3}, rl.Vector3{X: 1, Y: 1, Z: 1}, "Wood")

	hits := s.query.RaycastAll(rl.Vector3{Y: 10}, rl.Vector3{Y: -10}, AllGroups)
	require.Len(t, hits, 2)
	assert.Same(t, crate, hits[0].Object)
	assert.Same(t, ground, hits[1].Object)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestIsGrounded(t *testing.T) {
	s := newScene(t)
	s.ground()

	assert.True(t, s.query.IsGrounded(rl.Vector3{Y: 1.3}, 1))
	assert.False(t, s.query.IsGrounded(rl.Vector3{Y: 1.45}, 1), "hit beyond 90% of the ray")
	assert.False(t, s.query.IsGrounded(rl.Vector3{Y: 3}, 1))
	assert.False(t, s.query.IsGrounded(rl.Vector3{Y: 1.3}, 0))
}

func TestLineOfSight(t *testing.T) {
	s := newScene(t)
	wall := s.add("wall", physics.ShapeBox, rl.Vector3{X: 5, Y: 2}, rl.Vector3{X: 1, Y: 4, Z: 4}, "")
	target := s.add("target", physics.ShapeSphere, rl.Vector3{X: 10, Y: 2}, rl.Vector3{X: 0.5}, "")

	assert.False(t, s.query.HasLineOfSight(rl.Vector3{Y: 2}, rl.Vector3{X: 10, Y: 2}))
	assert.True(t, s.query.HasLineOfSight(rl.Vector3{Y: 2}, rl.Vector3{X: 4, Y: 2}), "stops short of the wall")
	assert.True(t, s.query.HasLineOfSight(rl.Vector3{Y: 2}, rl.Vector3{X: 4.5, Y: 2}), "ends on the wall surface")

	assert.False(t, s.query.CanSeeObject(rl.Vector3{Y: 2}, target, rl.Vector3{}))
	assert.True(t, s.query.CanSeeObject(rl.Vector3{X: 7, Y: 2}, target, rl.Vector3{}))
	assert.True(t, s.query.CanSeeObject(rl.Vector3{Y: 2}, wall, rl.Vector3{}))
	assert.False(t, s.query.CanSeeObject(rl.Vector3{}, nil, rl.Vector3{}))
}

func TestSphereOverlap(t *testing.T) {
	s := newScene(t)
	a := s.add("a", physics.ShapeSphere, rl.Vector3{X: 1}, rl.Vector3{X: 0.5}, "")
	b := s.add("b", physics.ShapeBox, rl.Vector3{X: -2}, rl.Vector3{X: 1, Y: 1, Z: 1}, "")
	s.add("far", physics.ShapeCapsule, rl.Vector3{X: 20}, rl.Vector3{X: 0.5, Y: 2}, "")

	got := s.query.SphereOverlap(rl.Vector3{}, 1.6)
	assert.Equal(t, []*engine.GameObject{a, b}, got)
	assert.Empty(t, s.query.SphereOverlap(rl.Vector3{Y: 10}, 1))
}

func TestClosestObjectAlong(t *testing.T) {
	s := newScene(t)
	near := s.add("near", physics.ShapeBox, rl.Vector3{Z: 3}, rl.Vector3{X: 1, Y: 1, Z: 1}, "")
	s.add("far", physics.ShapeBox, rl.Vector3{Z: 6}, rl.Vector3{X: 1, Y: 1, Z: 1}, "")

	assert.Same(t, near, s.query.ClosestObjectAlong(rl.Vector3{}, rl.Vector3{Z: 2}, 10))
	assert.Nil(t, s.query.ClosestObjectAlong(rl.Vector3{}, rl.Vector3{Z: -1}, 10))
	assert.Nil(t, s.query.ClosestObjectAlong(rl.Vector3{}, rl.Vector3{}, 10))
}

func TestNilWorld(t *testing.T) {
	q := New(nil)
	_, ok := q.Raycast(rl.Vector3{}, rl.Vector3{X: 1}, AllGroups)
	assert.False(t, ok)
	assert.Nil(t, q.RaycastAll(rl.Vector3{}, rl.Vector3{X: 1}, AllGroups))
	assert.True(t, q.HasLineOfSight(rl.Vector3{}, rl.Vector3{X: 1}))
	assert.Nil(t, q.SphereOverlap(rl.Vector3{}, 1))
}
