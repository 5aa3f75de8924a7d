package engine

import (
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var lastUID atomic.Uint64

type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// EulerDegrees returns the rotation as XYZ Euler angles in degrees.
func (t Transform) EulerDegrees() rl.Vector3 {
	return rl.Vector3Scale(rl.QuaternionToEuler(t.Rotation), rl.Rad2deg)
}

// SetEulerDegrees sets the rotation from XYZ Euler angles in degrees.
func (t *Transform) SetEulerDegrees(deg rl.Vector3) {
	r := rl.Vector3Scale(deg, rl.Deg2rad)
	t.Rotation = rl.QuaternionFromEuler(r.X, r.Y, r.Z)
}

type GameObject struct {
	UID        uint64
	Name       string
	Tags       []string
	Transform  Transform
	Active     bool
	Scene      *Scene
	components []Component
	started    bool
}

func NewGameObject(name string) *GameObject {
	return &GameObject{
		UID:    lastUID.Add(1),
		Name:   name,
		Active: true,
		Transform: Transform{
			Position: rl.Vector3{},
			Rotation: rl.QuaternionIdentity(),
			Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
		},
		components: make([]Component, 0),
	}
}

func (g *GameObject) AddComponent(c Component) {
	c.SetGameObject(g)
	g.components = append(g.components, c)
}

// RemoveComponent detaches c. Returns false if c was not attached.
func (g *GameObject) RemoveComponent(c Component) bool {
	for i, existing := range g.components {
		if existing == c {
			g.components = append(g.components[:i], g.components[i+1:]...)
			c.SetGameObject(nil)
			return true
		}
	}
	return false
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](g *GameObject) T {
	var zero T
	if g == nil {
		return zero
	}
	for _, c := range g.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (g *GameObject) Start() {
	if g.started {
		return
	}
	for _, c := range g.components {
		c.Start()
	}
	g.started = true
}

func (g *GameObject) Update(deltaTime float32) {
	if !g.Active {
		return
	}
	for _, c := range g.components {
		c.Update(deltaTime)
	}
}

func (g *GameObject) Components() []Component {
	return g.components
}

func (g *GameObject) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Bounds returns the axis-aligned box spanned by position ± |scale|/2.
func (g *GameObject) Bounds() (min, max rl.Vector3) {
	s := g.Transform.Scale
	half := rl.Vector3{X: abs(s.X) / 2, Y: abs(s.Y) / 2, Z: abs(s.Z) / 2}
	return rl.Vector3Subtract(g.Transform.Position, half), rl.Vector3Add(g.Transform.Position, half)
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
