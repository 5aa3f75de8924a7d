package constraint

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/metrics"
	"github.com/mironco/rigidcore/internal/physics"
)

// Registry owns the constraints living in a world. Constraints are kept in
// insertion order and indexed by name and by the objects they connect.
type Registry struct {
	world   *physics.World
	logger  *zap.Logger
	metrics *metrics.Metrics

	entries  []Constraint
	byName   map[string]Constraint
	byObject map[uint64][]Constraint
	broken   int
	unnamed  int

	// OnBroken fires for each breakable constraint pruned by Update.
	OnBroken engine.EventWithArg[Constraint]
}

func NewRegistry(world *physics.World, logger *zap.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		world:    world,
		logger:   logging.OrNop(logger),
		metrics:  m,
		byName:   make(map[string]Constraint),
		byObject: make(map[uint64][]Constraint),
	}
}

// Add inserts c into the world with collisions between its two bodies
// disabled. Names must be unique; an unnamed constraint gets one.
func (r *Registry) Add(c Constraint) bool {
	if c == nil || c.Joint() == nil {
		r.logger.Error("ConstraintRegistry: cannot add nil constraint")
		return false
	}
	if c.Joint().InWorld() {
		r.logger.Error("ConstraintRegistry: constraint already registered", zap.String("name", c.Name()))
		return false
	}
	if c.Name() == "" {
		c.SetName(r.generateName(c.Type()))
	}
	if _, exists := r.byName[c.Name()]; exists {
		r.logger.Error("ConstraintRegistry: duplicate constraint name", zap.String("name", c.Name()))
		return false
	}

	r.world.AddJoint(c.Joint(), true)
	r.entries = append(r.entries, c)
	r.byName[c.Name()] = c
	for _, obj := range objectsOf(c) {
		r.byObject[obj.UID] = append(r.byObject[obj.UID], c)
	}
	r.metrics.SetConstraints(len(r.entries))
	r.logger.Debug("ConstraintRegistry: added", zap.String("name", c.Name()), zap.Stringer("type", c.Type()))
	return true
}

func (r *Registry) generateName(kind Type) string {
	for {
		r.unnamed++
		name := fmt.Sprintf("%s_constraint_%d", kind, r.unnamed)
		if _, taken := r.byName[name]; !taken {
			return name
		}
	}
}

// Remove takes c out of the world and every index. Returns false if c was
// not registered here.
func (r *Registry) Remove(c Constraint) bool {
	if c == nil {
		return false
	}
	idx := -1
	for i, e := range r.entries {
		if e == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	r.world.RemoveJoint(c.Joint())
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	delete(r.byName, c.Name())
	for _, obj := range objectsOf(c) {
		r.unindexObject(obj.UID, c)
	}
	r.metrics.SetConstraints(len(r.entries))
	return true
}

func (r *Registry) unindexObject(uid uint64, c Constraint) {
	list := r.byObject[uid]
	for i, e := range list {
		if e == c {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.byObject, uid)
		return
	}
	r.byObject[uid] = list
}

func (r *Registry) RemoveByName(name string) bool {
	c, ok := r.byName[name]
	if !ok {
		return false
	}
	return r.Remove(c)
}

// RemoveForObject removes every constraint attached to obj and returns how
// many were removed.
func (r *Registry) RemoveForObject(obj *engine.GameObject) int {
	if obj == nil {
		return 0
	}
	list := append([]Constraint(nil), r.byObject[obj.UID]...)
	for _, c := range list {
		r.Remove(c)
	}
	return len(list)
}

// Update prunes breakable constraints whose joint broke during the last step.
func (r *Registry) Update() {
	var broken []Constraint
	for _, c := range r.entries {
		if c.IsBreakable() && !c.IsEnabled() {
			broken = append(broken, c)
		}
	}
	for _, c := range broken {
		lin, ang := c.Joint().AppliedImpulse()
		r.logger.Info("ConstraintRegistry: constraint broke",
			zap.String("name", c.Name()),
			zap.Stringer("type", c.Type()),
			zap.Float32("impulse", lin),
			zap.Float32("torque", ang),
		)
		r.Remove(c)
		r.broken++
		r.metrics.ConstraintBroken()
		r.OnBroken.Invoke(c)
	}
}

func (r *Registry) FindByName(name string) Constraint {
	return r.byName[name]
}

func (r *Registry) FindByType(t Type) []Constraint {
	var out []Constraint
	for _, c := range r.entries {
		if c.Type() == t {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) FindBreakable() []Constraint {
	var out []Constraint
	for _, c := range r.entries {
		if c.IsBreakable() {
			out = append(out, c)
		}
	}
	return out
}

// All returns a copy of the constraints in insertion order.
func (r *Registry) All() []Constraint {
	return append([]Constraint(nil), r.entries...)
}

func (r *Registry) ForObject(obj *engine.GameObject) []Constraint {
	if obj == nil {
		return nil
	}
	return append([]Constraint(nil), r.byObject[obj.UID]...)
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Broken returns how many constraints Update has pruned so far.
func (r *Registry) Broken() int {
	return r.broken
}

func (r *Registry) ClearAll() {
	for _, c := range r.entries {
		r.world.RemoveJoint(c.Joint())
	}
	r.entries = nil
	r.byName = make(map[string]Constraint)
	r.byObject = make(map[uint64][]Constraint)
	r.metrics.SetConstraints(0)
}

func objectsOf(c Constraint) []*engine.GameObject {
	var out []*engine.GameObject
	if a := c.ObjectA(); a != nil {
		out = append(out, a)
	}
	if b := c.ObjectB(); b != nil && b != c.ObjectA() {
		out = append(out, b)
	}
	return out
}
