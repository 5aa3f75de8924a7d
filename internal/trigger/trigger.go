// Package trigger implements volumes that report objects entering, staying
// in and leaving them.
package trigger

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/physics"
)

type Type int

const (
	Custom Type = iota
	GoalZone
	DeathZone
	Checkpoint
	Teleport
	SpeedZone
)

func (t Type) String() string {
	switch t {
	case Custom:
		return "Custom"
	case GoalZone:
		return "GoalZone"
	case DeathZone:
		return "DeathZone"
	case Checkpoint:
		return "Checkpoint"
	case Teleport:
		return "Teleport"
	case SpeedZone:
		return "SpeedZone"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType accepts the names produced by Type.String, case-insensitively.
func ParseType(name string) (Type, bool) {
	for t := Custom; t <= SpeedZone; t++ {
		if strings.EqualFold(name, t.String()) {
			return t, true
		}
	}
	return Custom, false
}

// Callback handles one trigger event for one object. Setting an enter
// callback replaces the type's default enter behavior.
type Callback func(t *Trigger, obj *engine.GameObject)

type occupant struct {
	obj  *engine.GameObject
	body *physics.Body
}

// Trigger is an axis-aligned box volume backed by a ghost in the physics
// world. Only bodies owned by a GameObject are reported.
type Trigger struct {
	ID   uint64
	Name string
	Type Type

	// Teleport
	TeleportDestination rl.Vector3
	// SpeedZone
	ForceDirection rl.Vector3
	ForceMagnitude float32

	position rl.Vector3
	size     rl.Vector3 // half extents
	enabled  bool
	ghost    *physics.Ghost
	inside   map[uint64]occupant
	registry *Registry

	onEnter, onStay, onExit Callback
}

// NewTrigger builds a detached trigger; size is the half extent of the box.
func NewTrigger(name string, typ Type, position, size rl.Vector3) *Trigger {
	return &Trigger{
		Name:     name,
		Type:     typ,
		position: position,
		size:     size,
		enabled:  true,
		ghost:    physics.NewGhost(position, size),
		inside:   make(map[uint64]occupant),
	}
}

func (t *Trigger) Position() rl.Vector3 { return t.position }
func (t *Trigger) Size() rl.Vector3     { return t.size }
func (t *Trigger) IsEnabled() bool      { return t.enabled }

func (t *Trigger) SetPosition(p rl.Vector3) {
	t.position = p
	t.ghost.SetPosition(p)
}

// SetSize sets the half extents of the volume.
func (t *Trigger) SetSize(size rl.Vector3) {
	t.size = size
	t.ghost.SetHalfExtents(size)
}

func (t *Trigger) SetOnEnter(cb Callback) { t.onEnter = cb }
func (t *Trigger) SetOnStay(cb Callback)  { t.onStay = cb }
func (t *Trigger) SetOnExit(cb Callback)  { t.onExit = cb }

// SetEnabled turns the trigger on or off. Disabling it fires exit for
// everything inside.
func (t *Trigger) SetEnabled(on bool) {
	if t.enabled == on {
		return
	}
	t.enabled = on
	if !on {
		t.exitAll()
	}
}

// Contains reports whether obj was inside at the last update.
func (t *Trigger) Contains(obj *engine.GameObject) bool {
	if obj == nil {
		return false
	}
	_, ok := t.inside[obj.UID]
	return ok
}

// Occupants returns the objects inside at the last update.
func (t *Trigger) Occupants() []*engine.GameObject {
	out := make([]*engine.GameObject, 0, len(t.inside))
	for _, o := range t.inside {
		out = append(out, o.obj)
	}
	return out
}

// ContainsPoint reports whether p lies inside the volume.
func (t *Trigger) ContainsPoint(p rl.Vector3) bool {
	return t.ghost.OBB().ContainsPoint(p, 0)
}
