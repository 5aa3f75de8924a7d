package sandbox

import (
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/constraint"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/query"
	"github.com/mironco/rigidcore/internal/trigger"
)

type BodyView struct {
	UID      uint64      `json:"uid"`
	Name     string      `json:"name"`
	Tags     []string    `json:"tags,omitempty"`
	Shape    string      `json:"shape"`
	Mass     float32     `json:"mass"`
	Material string      `json:"material"`
	Position config.Vec3 `json:"position"`
	Rotation config.Vec3 `json:"rotation"` // Euler degrees
	Scale    config.Vec3 `json:"scale"`
	Velocity config.Vec3 `json:"velocity"`
	Spin     config.Vec3 `json:"angular_velocity"`
	Active   bool        `json:"active"`
}

type ConstraintView struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ObjectA   uint64 `json:"object_a"`
	ObjectB   uint64 `json:"object_b,omitempty"` // 0 when anchored to the world
	Enabled   bool   `json:"enabled"`
	Breakable bool   `json:"breakable"`
}

type TriggerView struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Position  config.Vec3 `json:"position"`
	Size      config.Vec3 `json:"size"`
	Enabled   bool        `json:"enabled"`
	Occupants []uint64    `json:"occupants"`
}

type HitView struct {
	UID      uint64      `json:"uid,omitempty"`
	Name     string      `json:"name,omitempty"`
	Point    config.Vec3 `json:"point"`
	Normal   config.Vec3 `json:"normal"`
	Distance float32     `json:"distance"`
	Material string      `json:"material"`
}

func (s *Simulation) bodyView(obj *engine.GameObject) BodyView {
	v := BodyView{
		UID:      obj.UID,
		Name:     obj.Name,
		Tags:     obj.Tags,
		Position: vec(obj.Transform.Position),
		Rotation: vec(obj.Transform.EulerDegrees()),
		Scale:    vec(obj.Transform.Scale),
	}
	if rb := engine.GetComponent[*components.Rigidbody](obj); rb != nil {
		v.Shape = rb.Shape.String()
		v.Mass = rb.Mass
		v.Material = rb.Material
		if b := s.physics.Body(rb.Body); b != nil {
			v.Velocity = vec(b.LinearVelocity())
			v.Spin = vec(b.AngularVelocity())
			v.Active = b.IsActive()
		}
	}
	return v
}

func (s *Simulation) bodyViews(objs []*engine.GameObject) []BodyView {
	out := make([]BodyView, 0, len(objs))
	for _, obj := range objs {
		out = append(out, s.bodyView(obj))
	}
	return out
}

// Bodies lists every object in the scene in spawn order.
func (s *Simulation) Bodies() []BodyView {
	return s.bodyViews(s.scene.GameObjects)
}

func (s *Simulation) Body(uid uint64) (BodyView, error) {
	obj, err := s.object(uid)
	if err != nil {
		return BodyView{}, err
	}
	return s.bodyView(obj), nil
}

func uidOf(obj *engine.GameObject) uint64 {
	if obj == nil {
		return 0
	}
	return obj.UID
}

func constraintView(c constraint.Constraint) ConstraintView {
	return ConstraintView{
		Name:      c.Name(),
		Type:      c.Type().String(),
		ObjectA:   uidOf(c.ObjectA()),
		ObjectB:   uidOf(c.ObjectB()),
		Enabled:   c.IsEnabled(),
		Breakable: c.IsBreakable(),
	}
}

// Constraints lists registered constraints sorted by name.
func (s *Simulation) Constraints() []ConstraintView {
	all := s.physics.Constraints().All()
	out := make([]ConstraintView, 0, len(all))
	for _, c := range all {
		out = append(out, constraintView(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func triggerView(t *trigger.Trigger) TriggerView {
	occ := t.Occupants()
	uids := make([]uint64, 0, len(occ))
	for _, obj := range occ {
		uids = append(uids, obj.UID)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return TriggerView{
		ID:        t.ID,
		Name:      t.Name,
		Type:      t.Type.String(),
		Position:  vec(t.Position()),
		Size:      vec(t.Size()),
		Enabled:   t.IsEnabled(),
		Occupants: uids,
	}
}

// Triggers lists triggers in creation order.
func (s *Simulation) Triggers() []TriggerView {
	all := s.triggers.All()
	out := make([]TriggerView, 0, len(all))
	for _, t := range all {
		out = append(out, triggerView(t))
	}
	return out
}

// Raycast reports the first body hit between from and to.
func (s *Simulation) Raycast(from, to rl.Vector3) (HitView, bool) {
	hit, ok := s.query.Raycast(from, to, query.AllGroups)
	if !ok {
		return HitView{}, false
	}
	return HitView{
		UID:      uidOf(hit.Object),
		Name:     nameOf(hit.Object),
		Point:    vec(hit.Point),
		Normal:   vec(hit.Normal),
		Distance: hit.Distance,
		Material: hit.Material.Name,
	}, true
}

func nameOf(obj *engine.GameObject) string {
	if obj == nil {
		return ""
	}
	return obj.Name
}

// QueryRadius returns objects whose position lies within radius of center,
// optionally only those carrying tag.
func (s *Simulation) QueryRadius(center rl.Vector3, radius float32, tag string) []BodyView {
	var filter func(*engine.GameObject) bool
	if tag != "" {
		filter = func(obj *engine.GameObject) bool { return obj.HasTag(tag) }
	}
	return s.bodyViews(s.grid.QueryRadius(center, radius, filter))
}
