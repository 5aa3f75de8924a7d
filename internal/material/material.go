// Package material holds the named friction/restitution presets applied to bodies.
package material

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/physics"
)

const DefaultName = "Default"

// Material is a value type. Applying it copies its coefficients onto a body,
// so later edits to the registry never reach existing bodies.
type Material struct {
	Name        string  `json:"name"`
	Friction    float32 `json:"friction"`
	Restitution float32 `json:"restitution"`
}

// Apply copies the coefficients and the material name onto b.
func (m Material) Apply(b *physics.Body) {
	if b == nil {
		return
	}
	b.Friction = m.Friction
	b.Restitution = m.Restitution
	b.Material = m.Name
}

func presets() []Material {
	return []Material{
		{Name: DefaultName, Friction: 0.5, Restitution: 0.3},
		{Name: "Wood", Friction: 0.6, Restitution: 0.3},
		{Name: "Metal", Friction: 0.4, Restitution: 0.2},
		{Name: "Rubber", Friction: 0.9, Restitution: 0.8},
		{Name: "Ice", Friction: 0.05, Restitution: 0.1},
		{Name: "Concrete", Friction: 0.8, Restitution: 0.1},
		{Name: "Plastic", Friction: 0.4, Restitution: 0.5},
		{Name: "Glass", Friction: 0.3, Restitution: 0.2},
	}
}

// Registry maps names to materials. It is seeded with the built-in presets.
type Registry struct {
	mu        sync.RWMutex
	materials map[string]Material
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		materials: make(map[string]Material),
		logger:    logging.OrNop(logger),
	}
	for _, m := range presets() {
		r.materials[m.Name] = m
	}
	return r
}

// Register inserts or replaces m. Friction is clamped to >= 0 and
// restitution into [0, 1]. Returns false for an empty name.
func (r *Registry) Register(m Material) bool {
	if m.Name == "" {
		r.logger.Error("Materials: cannot register a material without a name")
		return false
	}
	if m.Friction < 0 {
		m.Friction = 0
	}
	m.Restitution = min(max(m.Restitution, 0), 1)

	r.mu.Lock()
	r.materials[m.Name] = m
	r.mu.Unlock()
	return true
}

// LoadPresets registers extra materials from configuration.
func (r *Registry) LoadPresets(list []config.Material) {
	for _, m := range list {
		if r.Register(Material{Name: m.Name, Friction: m.Friction, Restitution: m.Restitution}) {
			r.logger.Debug("Materials: registered preset", zap.String("material", m.Name))
		}
	}
}

// Get never fails: unknown names fall back to Default with a warning.
func (r *Registry) Get(name string) Material {
	r.mu.RLock()
	m, ok := r.materials[name]
	if !ok {
		m = r.materials[DefaultName]
	}
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("Materials: unknown material, using Default", zap.String("material", name))
	}
	return m
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.materials[name]
	return ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.materials))
	for name := range r.materials {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// All returns every material sorted by name.
func (r *Registry) All() []Material {
	names := r.Names()
	out := make([]Material, 0, len(names))
	r.mu.RLock()
	for _, n := range names {
		if m, ok := r.materials[n]; ok {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.materials)
}
