package trigger

import (
	"fmt"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/metrics"
	"github.com/mironco/rigidcore/internal/physics"
)

// Event is passed to the registry signals.
type Event struct {
	Trigger *Trigger
	Object  *engine.GameObject
}

// Registry owns the triggers of one physics world and hands out their IDs.
type Registry struct {
	world   *physics.World
	logger  *zap.Logger
	metrics *metrics.Metrics

	triggers []*Trigger
	byName   map[string]*Trigger
	byID     map[uint64]*Trigger
	lastID   uint64

	// Default behaviors of GoalZone, DeathZone and Checkpoint triggers. The
	// listener decides what happens to the object.
	OnGoal       engine.EventWithArg[Event]
	OnDeath      engine.EventWithArg[Event]
	OnCheckpoint engine.EventWithArg[Event]
}

func New(world *physics.World, logger *zap.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		world:   world,
		logger:  logging.OrNop(logger),
		metrics: m,
		byName:  make(map[string]*Trigger),
		byID:    make(map[uint64]*Trigger),
	}
}

// Create builds and adds a trigger. An empty name gets a generated one.
// Returns nil if the name is taken.
func (r *Registry) Create(name string, typ Type, position, size rl.Vector3) *Trigger {
	t := NewTrigger(name, typ, position, size)
	if !r.Add(t) {
		return nil
	}
	return t
}

// Add registers t and places its volume in the world.
func (r *Registry) Add(t *Trigger) bool {
	if t == nil {
		return false
	}
	if t.registry != nil {
		r.logger.Error("TriggerRegistry: trigger already registered", zap.String("name", t.Name))
		return false
	}
	if _, taken := r.byName[t.Name]; taken && t.Name != "" {
		r.logger.Error("TriggerRegistry: duplicate trigger name", zap.String("name", t.Name))
		return false
	}
	if t.ID == 0 {
		r.lastID++
		t.ID = r.lastID
	} else if _, taken := r.byID[t.ID]; taken {
		r.logger.Error("TriggerRegistry: duplicate trigger id", zap.Uint64("id", t.ID))
		return false
	} else if t.ID > r.lastID {
		r.lastID = t.ID
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf("Trigger_%d", t.ID)
	}
	if _, taken := r.byName[t.Name]; taken {
		r.logger.Error("TriggerRegistry: duplicate trigger name", zap.String("name", t.Name))
		return false
	}

	t.registry = r
	if w := t.ghost.World(); w != nil && w != r.world {
		w.RemoveGhost(t.ghost)
	}
	r.world.AddGhost(t.ghost)
	r.triggers = append(r.triggers, t)
	r.byName[t.Name] = t
	r.byID[t.ID] = t
	r.metrics.SetTriggers(len(r.triggers))
	r.logger.Debug("TriggerRegistry: added",
		zap.String("name", t.Name),
		zap.Uint64("id", t.ID),
		zap.Stringer("type", t.Type),
	)
	return true
}

// Remove fires exit for everything inside t, then drops it.
func (r *Registry) Remove(t *Trigger) bool {
	if t == nil || t.registry != r {
		return false
	}
	t.exitAll()
	for i, e := range r.triggers {
		if e == t {
			r.triggers = append(r.triggers[:i], r.triggers[i+1:]...)
			break
		}
	}
	delete(r.byName, t.Name)
	delete(r.byID, t.ID)
	r.world.RemoveGhost(t.ghost)
	t.registry = nil
	r.metrics.SetTriggers(len(r.triggers))
	return true
}

func (r *Registry) RemoveByName(name string) bool {
	return r.Remove(r.byName[name])
}

func (r *Registry) ClearAll() {
	for len(r.triggers) > 0 {
		r.Remove(r.triggers[len(r.triggers)-1])
	}
}

// Update refreshes every enabled trigger in insertion order.
func (r *Registry) Update(dt float32) {
	if dt < 0 {
		return
	}
	for _, t := range append([]*Trigger(nil), r.triggers...) {
		// An earlier callback may have removed it
		if t.registry == r {
			t.update()
		}
	}
}

func (r *Registry) FindByName(name string) *Trigger {
	return r.byName[name]
}

func (r *Registry) FindByID(id uint64) *Trigger {
	return r.byID[id]
}

func (r *Registry) FindByType(typ Type) []*Trigger {
	var out []*Trigger
	for _, t := range r.triggers {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// FindInRadius returns triggers whose center lies within radius of center,
// nearest first.
func (r *Registry) FindInRadius(center rl.Vector3, radius float32) []*Trigger {
	var out []*Trigger
	for _, t := range r.triggers {
		if rl.Vector3Distance(t.position, center) <= radius {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rl.Vector3Distance(out[i].position, center) < rl.Vector3Distance(out[j].position, center)
	})
	return out
}

// FindContaining returns the triggers obj was inside at the last update.
func (r *Registry) FindContaining(obj *engine.GameObject) []*Trigger {
	var out []*Trigger
	for _, t := range r.triggers {
		if t.Contains(obj) {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) All() []*Trigger {
	return append([]*Trigger(nil), r.triggers...)
}

func (r *Registry) Len() int {
	return len(r.triggers)
}
