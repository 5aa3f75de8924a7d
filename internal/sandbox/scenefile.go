package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/components"
	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/engine"
)

// --- JSON types ---

type SceneFile struct {
	Objects     []ObjectDef     `json:"objects"`
	Constraints []ConstraintDef `json:"constraints,omitempty"`
	Triggers    []TriggerSpec   `json:"triggers,omitempty"`
}

type ObjectDef struct {
	// ID is local to the file; constraints refer to objects by it.
	ID         uint64            `json:"id"`
	Name       string            `json:"name"`
	Tags       []string          `json:"tags,omitempty"`
	Position   config.Vec3       `json:"position"`
	Rotation   config.Vec3       `json:"rotation"` // Euler degrees
	Scale      config.Vec3       `json:"scale"`
	Components []json.RawMessage `json:"components"`
}

// ConstraintDef re-applies a template. B == 0 anchors to the world.
type ConstraintDef struct {
	Template string `json:"template"`
	A        uint64 `json:"a"`
	B        uint64 `json:"b,omitempty"`
}

type componentHeader struct {
	Type string `json:"type"`
}

type rigidbodyDef struct {
	Type     string      `json:"type"`
	Shape    string      `json:"shape"`
	Mass     float32     `json:"mass,omitempty"`
	Material string      `json:"material,omitempty"`
	Velocity config.Vec3 `json:"velocity"`
}

// --- Loading ---

// ReadScene decodes a scene from r and adds it with AddScene.
func (s *Simulation) ReadScene(r io.Reader) (int, error) {
	var sf SceneFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return 0, fmt.Errorf("parse scene: %w", err)
	}
	return s.AddScene(sf)
}

// AddScene adds sf to the simulation. Objects without a Rigidbody component
// and unknown component types are skipped. A constraint or trigger that
// cannot be created is logged and skipped. If an object cannot be built the
// objects added so far are removed again and nothing is added. Returns the
// number of objects added.
func (s *Simulation) AddScene(sf SceneFile) (int, error) {
	ids := make(map[uint64]uint64, len(sf.Objects))
	var added []uint64
	for _, objDef := range sf.Objects {
		var rb *rigidbodyDef
		for _, raw := range objDef.Components {
			var header componentHeader
			if err := json.Unmarshal(raw, &header); err != nil {
				continue
			}
			if header.Type != "Rigidbody" {
				continue
			}
			var def rigidbodyDef
			if err := json.Unmarshal(raw, &def); err == nil {
				rb = &def
			}
		}
		if rb == nil {
			s.logger.Warn("Sandbox: scene object has no rigid body, skipped", zap.String("object", objDef.Name))
			continue
		}

		obj, err := s.SpawnBody(BodySpec{
			Name:     objDef.Name,
			Shape:    rb.Shape,
			Position: objDef.Position,
			Scale:    objDef.Scale,
			Rotation: objDef.Rotation,
			Mass:     rb.Mass,
			Material: rb.Material,
			Tags:     objDef.Tags,
		})
		if err != nil {
			for i := len(added) - 1; i >= 0; i-- {
				if rmErr := s.RemoveObject(added[i]); rmErr != nil {
					s.logger.Warn("Sandbox: scene rollback failed", zap.Uint64("uid", added[i]), zap.Error(rmErr))
				}
			}
			return 0, fmt.Errorf("object %q: %w", objDef.Name, err)
		}
		if rb.Velocity != (config.Vec3{}) {
			if b := s.physics.Body(engine.GetComponent[*components.Rigidbody](obj).Body); b != nil {
				b.SetLinearVelocity(rb.Velocity.Vector3())
			}
		}
		if objDef.ID != 0 {
			ids[objDef.ID] = obj.UID
		}
		added = append(added, obj.UID)
	}

	for _, def := range sf.Constraints {
		a, ok := ids[def.A]
		b := ids[def.B]
		if !ok || (def.B != 0 && b == 0) {
			s.logger.Warn("Sandbox: scene constraint refers to a missing object",
				zap.String("template", def.Template), zap.Uint64("a", def.A), zap.Uint64("b", def.B))
			continue
		}
		if _, err := s.ApplyTemplate(def.Template, a, b); err != nil {
			s.logger.Warn("Sandbox: scene constraint skipped", zap.String("template", def.Template), zap.Error(err))
		}
	}

	for _, spec := range sf.Triggers {
		if _, err := s.CreateTrigger(spec); err != nil {
			s.logger.Warn("Sandbox: scene trigger skipped", zap.String("trigger", spec.Name), zap.Error(err))
		}
	}

	s.logger.Info("Sandbox: scene loaded",
		zap.Int("objects", len(added)),
		zap.Int("constraints", len(sf.Constraints)),
		zap.Int("triggers", len(sf.Triggers)),
	)
	return len(added), nil
}

func (s *Simulation) LoadScene(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("read scene: %w", err)
	}
	defer f.Close()
	return s.ReadScene(f)
}

// --- Saving ---

// SceneFile captures objects, template-built constraints and triggers. Object
// IDs in the result are the current UIDs.
func (s *Simulation) SceneFile() SceneFile {
	var sf SceneFile
	for _, g := range s.scene.GameObjects {
		objDef := ObjectDef{
			ID:       g.UID,
			Name:     g.Name,
			Tags:     g.Tags,
			Position: vec(g.Transform.Position),
			Rotation: vec(g.Transform.EulerDegrees()),
			Scale:    vec(g.Transform.Scale),
		}
		for _, c := range g.Components() {
			if raw := s.serializeComponent(c); raw != nil {
				objDef.Components = append(objDef.Components, raw)
			}
		}
		sf.Objects = append(sf.Objects, objDef)
	}

	for _, c := range s.physics.Constraints().All() {
		tpl, ok := s.constraintTemplates[c.Name()]
		if !ok {
			continue
		}
		sf.Constraints = append(sf.Constraints, ConstraintDef{
			Template: tpl,
			A:        uidOf(c.ObjectA()),
			B:        uidOf(c.ObjectB()),
		})
	}

	for _, t := range s.triggers.All() {
		sf.Triggers = append(sf.Triggers, TriggerSpec{
			Name:        t.Name,
			Type:        t.Type.String(),
			Position:    vec(t.Position()),
			Size:        vec(t.Size()),
			Destination: vec(t.TeleportDestination),
			Direction:   vec(t.ForceDirection),
			Magnitude:   t.ForceMagnitude,
		})
	}
	return sf
}

func (s *Simulation) WriteScene(w io.Writer) error {
	data, err := json.MarshalIndent(s.SceneFile(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

func (s *Simulation) SaveScene(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	if err := s.WriteScene(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// serializeComponent encodes components that implement engine.Serializable.
// Rigid bodies also carry their current velocity.
func (s *Simulation) serializeComponent(c engine.Component) json.RawMessage {
	ser, ok := c.(engine.Serializable)
	if !ok {
		return nil
	}
	def := ser.Serialize()
	if rb, ok := c.(*components.Rigidbody); ok {
		if b := s.physics.Body(rb.Body); b != nil && !b.IsStatic() {
			def["velocity"] = vec(b.LinearVelocity())
		}
	}

	data, err := json.Marshal(def)
	if err != nil {
		s.logger.Warn("Sandbox: cannot serialize component", zap.String("type", ser.TypeName()), zap.Error(err))
		return nil
	}
	return data
}
