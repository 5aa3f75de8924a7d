package physics

import (
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	DefaultSolverIterations = 10
	contactIterations       = 6
)

// DefaultGravity points down the Y axis.
var DefaultGravity = rl.Vector3{X: 0, Y: -9.8, Z: 0}

// pairKey identifies a pair of bodies independent of order. Handles are
// never reused, so keys stay unique after a body is removed.
type pairKey struct {
	A, B Handle
}

func makePair(a, b *Body) pairKey {
	ha, hb := a.handle, b.handle
	if ha.Index > hb.Index || (ha.Index == hb.Index && ha.Gen > hb.Gen) {
		ha, hb = hb, ha
	}
	return pairKey{A: ha, B: hb}
}

// sapEndpoint is one end of a body's interval on the sweep axis.
type sapEndpoint struct {
	value float32
	body  *Body
	isMin bool
}

// World owns bodies, joints and ghost volumes and advances them with Step.
// It is not safe for concurrent use.
type World struct {
	Gravity    rl.Vector3
	Iterations int

	bodies    arena
	joints    []*Joint
	ghosts    []*Ghost
	noCollide map[pairKey]int

	endpoints []sapEndpoint
	active    []*Body
	contacts  []contact
}

func NewWorld() *World {
	return &World{
		Gravity:    DefaultGravity,
		Iterations: DefaultSolverIterations,
		noCollide:  make(map[pairKey]int),
	}
}

// AddBody takes ownership of b and returns its handle.
func (w *World) AddBody(b *Body) Handle {
	if b == nil {
		return Handle{}
	}
	b.world = w
	b.handle = w.bodies.insert(b)
	return b.handle
}

// RemoveBody releases the body behind h. Joints that still reference it are
// disabled so the solver never touches a released body. Returns false for
// stale or zero handles.
func (w *World) RemoveBody(h Handle) bool {
	b := w.bodies.remove(h)
	if b == nil {
		return false
	}
	for _, j := range w.joints {
		if j.bodyA == b || j.bodyB == b {
			j.enabled = false
		}
	}
	b.world = nil
	return true
}

// Body resolves a handle; nil if the body was removed.
func (w *World) Body(h Handle) *Body {
	return w.bodies.get(h)
}

func (w *World) BodyCount() int {
	return w.bodies.count
}

// Bodies returns the live bodies in slot order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, 0, w.bodies.count)
	w.bodies.each(func(b *Body) { out = append(out, b) })
	return out
}

// AddJoint inserts j into the simulation. With disableCollisions the two
// linked bodies stop generating contacts with each other.
func (w *World) AddJoint(j *Joint, disableCollisions bool) {
	if j == nil || j.world != nil {
		return
	}
	j.world = w
	j.disableCollisions = disableCollisions
	if disableCollisions && j.bodyB != nil {
		w.noCollide[makePair(j.bodyA, j.bodyB)]++
	}
	w.joints = append(w.joints, j)
}

func (w *World) RemoveJoint(j *Joint) {
	if j == nil || j.world != w {
		return
	}
	for i, other := range w.joints {
		if other == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			break
		}
	}
	if j.disableCollisions && j.bodyB != nil {
		key := makePair(j.bodyA, j.bodyB)
		if w.noCollide[key]--; w.noCollide[key] <= 0 {
			delete(w.noCollide, key)
		}
	}
	j.world = nil
}

func (w *World) JointCount() int {
	return len(w.joints)
}

func (w *World) AddGhost(g *Ghost) {
	if g == nil || g.world != nil {
		return
	}
	g.world = w
	w.ghosts = append(w.ghosts, g)
}

func (w *World) RemoveGhost(g *Ghost) {
	if g == nil || g.world != w {
		return
	}
	for i, other := range w.ghosts {
		if other == g {
			w.ghosts = append(w.ghosts[:i], w.ghosts[i+1:]...)
			break
		}
	}
	g.world = nil
}

func (w *World) GhostCount() int {
	return len(w.ghosts)
}

// Step advances the simulation by exactly dt seconds.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}
	bodies := w.Bodies()

	// 1. Apply gravity and accumulated forces, integrate velocity
	for _, b := range bodies {
		if !b.IsActive() {
			b.clearForces()
			continue
		}
		accel := rl.Vector3Add(w.Gravity, rl.Vector3Scale(b.force, b.invMass))
		b.linearVelocity = rl.Vector3Add(b.linearVelocity, rl.Vector3Scale(accel, dt))
		b.angularVelocity = rl.Vector3Add(b.angularVelocity, rl.Vector3Scale(b.applyInvInertia(b.torque), dt))

		// Damping is time-based so it's framerate independent
		b.linearVelocity = rl.Vector3Scale(b.linearVelocity, clampf(1-b.linearDamping*dt, 0, 1))
		b.angularVelocity = rl.Vector3Scale(b.angularVelocity, clampf(1-b.angularDamping*dt, 0, 1))
		b.clearForces()
	}

	// 2. Joints: springs, then sequential impulses, then break detection
	w.solveJoints(dt)

	// 3. Integrate position and orientation
	for _, b := range bodies {
		if !b.IsActive() {
			continue
		}
		b.position = rl.Vector3Add(b.position, rl.Vector3Scale(b.linearVelocity, dt))
		b.orientation = integrateOrientation(b.orientation, b.angularVelocity, dt)
	}

	// 4. Collision detection and response
	w.collide(bodies)

	// 5. Sleep
	for _, b := range bodies {
		b.trySleep(dt)
	}
}

func (w *World) solveJoints(dt float32) {
	active := make([]*Joint, 0, len(w.joints))
	for _, j := range w.joints {
		if !j.enabled {
			continue
		}
		if !j.bodyA.IsActive() && (j.bodyB == nil || !j.bodyB.IsActive()) {
			continue
		}
		// A sleeping partner of an awake body has to wake or the joint would stretch
		j.bodyA.Activate()
		if j.bodyB != nil {
			j.bodyB.Activate()
		}
		j.prepare(dt)
		active = append(active, j)
	}
	iterations := w.Iterations
	if iterations <= 0 {
		iterations = DefaultSolverIterations
	}
	for it := 0; it < iterations; it++ {
		for _, j := range active {
			j.solve()
		}
	}
	for _, j := range active {
		j.finish()
	}
}

// broadPhase returns candidate pairs using a sweep along the X axis.
func (w *World) broadPhase(bodies []*Body) [][2]*Body {
	w.endpoints = w.endpoints[:0]
	boxes := make(map[*Body]AABB, len(bodies))
	for _, b := range bodies {
		box := b.WorldAABB().Expand(0.01)
		boxes[b] = box
		w.endpoints = append(w.endpoints,
			sapEndpoint{value: box.Min.X, body: b, isMin: true},
			sapEndpoint{value: box.Max.X, body: b, isMin: false},
		)
	}
	sort.SliceStable(w.endpoints, func(i, j int) bool {
		if w.endpoints[i].value == w.endpoints[j].value {
			return w.endpoints[i].isMin && !w.endpoints[j].isMin
		}
		return w.endpoints[i].value < w.endpoints[j].value
	})

	var pairs [][2]*Body
	w.active = w.active[:0]
	for _, ep := range w.endpoints {
		if !ep.isMin {
			for i, b := range w.active {
				if b == ep.body {
					w.active[i] = w.active[len(w.active)-1]
					w.active = w.active[:len(w.active)-1]
					break
				}
			}
			continue
		}
		for _, other := range w.active {
			if boxes[ep.body].Intersects(boxes[other]) {
				pairs = append(pairs, [2]*Body{other, ep.body})
			}
		}
		w.active = append(w.active, ep.body)
	}
	return pairs
}

// shouldCollide filters pairs before narrow phase
func (w *World) shouldCollide(a, b *Body) bool {
	if a.IsStatic() && b.IsStatic() {
		return false
	}
	if !a.IsActive() && !b.IsActive() {
		return false
	}
	if a.Group&b.Mask == 0 || b.Group&a.Mask == 0 {
		return false
	}
	if len(w.noCollide) > 0 && w.noCollide[makePair(a, b)] > 0 {
		return false
	}
	return true
}

func (w *World) collide(bodies []*Body) {
	w.contacts = w.contacts[:0]
	for _, pair := range w.broadPhase(bodies) {
		a, b := pair[0], pair[1]
		if !w.shouldCollide(a, b) {
			continue
		}
		if c, ok := generateContact(a, b); ok {
			w.contacts = append(w.contacts, c)
		}
	}
	if len(w.contacts) == 0 {
		return
	}

	for i := range w.contacts {
		w.contacts[i].wake()
	}
	for it := 0; it < contactIterations; it++ {
		for i := range w.contacts {
			w.contacts[i].resolveVelocity()
		}
	}
	for i := range w.contacts {
		w.contacts[i].resolvePosition()
	}
}
