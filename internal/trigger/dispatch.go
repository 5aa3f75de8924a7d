package trigger

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/physics"
	"github.com/mironco/rigidcore/internal/rigidbody"
)

// Update refreshes the trigger against world outside of a registry. A
// detached trigger places its volume in world first; a registered trigger
// only updates against its registry's world.
func (t *Trigger) Update(world *physics.World, dt float32) {
	if world == nil || dt < 0 {
		return
	}
	if t.registry != nil {
		if t.registry.world == world {
			t.update()
		}
		return
	}
	if old := t.ghost.World(); old != world {
		if old != nil {
			old.RemoveGhost(t.ghost)
		}
		world.AddGhost(t.ghost)
	}
	t.update()
}

// update diffs the ghost's current overlaps against the previous inside set
// and fires enter, stay and exit. A callback that removes or disables the
// trigger ends the pass.
func (t *Trigger) update() {
	if !t.enabled {
		return
	}
	current := make(map[uint64]occupant)
	for _, b := range t.ghost.Overlapping() {
		if obj := rigidbody.ObjectOf(b); obj != nil {
			current[obj.UID] = occupant{obj: obj, body: b}
		}
	}

	reg := t.registry
	live := func() bool { return t.enabled && t.registry == reg }
	for uid, o := range t.inside {
		if _, still := current[uid]; !still {
			delete(t.inside, uid)
			t.exit(o)
			if !live() {
				return
			}
		}
	}
	for uid, o := range current {
		if _, was := t.inside[uid]; was {
			t.inside[uid] = o
			t.stay(o)
		} else {
			t.inside[uid] = o
			t.enter(o)
		}
		if !live() {
			return
		}
	}
}

func (t *Trigger) enter(o occupant) {
	t.record("enter")
	if t.onEnter != nil {
		t.onEnter(t, o.obj)
	} else {
		t.defaultEnter(o)
	}
	for _, c := range o.obj.Components() {
		if h, ok := c.(engine.TriggerHandler); ok {
			h.OnTriggerEnter(t.Name)
		}
	}
}

func (t *Trigger) stay(o occupant) {
	t.record("stay")
	if t.onStay != nil {
		t.onStay(t, o.obj)
	}
}

func (t *Trigger) exit(o occupant) {
	t.record("exit")
	if t.onExit != nil {
		t.onExit(t, o.obj)
	}
	for _, c := range o.obj.Components() {
		if h, ok := c.(engine.TriggerHandler); ok {
			h.OnTriggerExit(t.Name)
		}
	}
}

func (t *Trigger) exitAll() {
	for uid, o := range t.inside {
		delete(t.inside, uid)
		t.exit(o)
	}
}

func (t *Trigger) record(kind string) {
	if t.registry != nil {
		t.registry.metrics.TriggerEvent(kind)
	}
}

func (t *Trigger) logger() *zap.Logger {
	if t.registry == nil {
		return zap.NewNop()
	}
	return t.registry.logger
}

func (t *Trigger) defaultEnter(o occupant) {
	log := t.logger().With(zap.String("trigger", t.Name), zap.String("object", o.obj.Name))
	ev := Event{Trigger: t, Object: o.obj}

	switch t.Type {
	case GoalZone:
		log.Info("Trigger: goal reached")
		if t.registry != nil {
			t.registry.OnGoal.Invoke(ev)
		}
	case DeathZone:
		log.Warn("Trigger: object entered death zone")
		if t.registry != nil {
			t.registry.OnDeath.Invoke(ev)
		}
	case Checkpoint:
		log.Info("Trigger: checkpoint reached")
		if t.registry != nil {
			t.registry.OnCheckpoint.Invoke(ev)
		}
	case Teleport:
		dest := t.TeleportDestination
		o.obj.Transform.Position = dest
		o.body.SetPosition(dest)
		log.Info("Trigger: teleported", logging.Vec3("destination", dest.X, dest.Y, dest.Z))
	case SpeedZone:
		if rl.Vector3LengthSqr(t.ForceDirection) == 0 || o.body.IsStatic() {
			return
		}
		o.body.ApplyCentralImpulse(rl.Vector3Scale(rl.Vector3Normalize(t.ForceDirection), t.ForceMagnitude))
	}
}
