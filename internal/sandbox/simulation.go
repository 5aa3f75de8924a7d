// Package sandbox hosts a physics scene behind a command loop and an HTTP API.
package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/constraint"
	"github.com/mironco/rigidcore/internal/engine"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/material"
	"github.com/mironco/rigidcore/internal/metrics"
	"github.com/mironco/rigidcore/internal/physics"
	"github.com/mironco/rigidcore/internal/query"
	"github.com/mironco/rigidcore/internal/rigidbody"
	"github.com/mironco/rigidcore/internal/spatial"
	"github.com/mironco/rigidcore/internal/trigger"
)

var (
	// ErrNotRunning is returned by Do when no loop is accepting commands.
	ErrNotRunning = errors.New("simulation loop is not running")
	// ErrAlreadyRunning is returned by Run when another loop owns the simulation.
	ErrAlreadyRunning = errors.New("simulation loop is already running")
	ErrNotFound       = errors.New("not found")
	ErrInvalid        = errors.New("invalid request")
)

type command struct {
	fn   func() error
	done chan error
}

// Simulation owns one scene and every subsystem that acts on it. All methods
// except Do and Run must be called from the loop goroutine, or before Run.
type Simulation struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	materials *material.Registry
	physics   *rigidbody.Physics
	query     *query.Query
	grid      *spatial.Grid
	triggers  *trigger.Registry
	presets   *constraint.Presets
	templates *constraint.TemplateLibrary
	scene     *engine.Scene

	// constraint name -> template it was built from, for scene saving
	constraintTemplates map[string]string

	accumulator float32
	steps       uint64

	commands chan command
	mu       sync.Mutex
	stop     chan struct{} // nil while no loop runs
}

// New wires the subsystems from cfg. A template library path that fails to
// load is an error; a missing path only leaves the built-in templates.
func New(cfg config.Config, logger *zap.Logger) (*Simulation, error) {
	logger = logging.OrNop(logger)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	materials := material.NewRegistry(logger)
	materials.LoadPresets(cfg.Materials)

	phys := rigidbody.New(cfg.Physics, materials, logger, m)
	phys.Initialize()

	s := &Simulation{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		metrics:   m,
		materials: materials,
		physics:   phys,
		query:     query.New(phys.World()),
		grid:      spatial.NewGrid(cfg.Spatial.CellSize),
		triggers:  trigger.New(phys.World(), logger, m),
		presets:   constraint.NewPresets(phys.World(), logger),
		templates: constraint.NewTemplateLibrary(logger),
		scene:     engine.NewScene("sandbox"),
		commands:  make(chan command),

		constraintTemplates: make(map[string]string),
	}
	phys.Constraints().OnBroken.AddListener(func(c constraint.Constraint) {
		delete(s.constraintTemplates, c.Name())
	})
	for _, t := range builtinTemplates() {
		s.templates.Add(t)
	}
	if cfg.Templates.Path != "" {
		n, err := s.templates.LoadFile(cfg.Templates.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("Sandbox: loaded constraint templates", zap.String("path", cfg.Templates.Path), zap.Int("count", n))
	}

	logger.Info("Sandbox: simulation ready",
		logging.Vec3("gravity", cfg.Physics.Gravity[0], cfg.Physics.Gravity[1], cfg.Physics.Gravity[2]),
		zap.Float32("fixed_timestep", cfg.Physics.FixedTimestep),
		zap.Float32("cell_size", s.grid.CellSize()),
		zap.Int("materials", materials.Len()),
		zap.Int("templates", s.templates.Len()),
	)
	return s, nil
}

func (s *Simulation) Registry() *prometheus.Registry         { return s.registry }
func (s *Simulation) Physics() *rigidbody.Physics            { return s.physics }
func (s *Simulation) Query() *query.Query                    { return s.query }
func (s *Simulation) Grid() *spatial.Grid                    { return s.grid }
func (s *Simulation) TriggerRegistry() *trigger.Registry     { return s.triggers }
func (s *Simulation) Templates() *constraint.TemplateLibrary { return s.templates }
func (s *Simulation) Scene() *engine.Scene                   { return s.scene }
func (s *Simulation) Steps() uint64                          { return s.steps }

// Tick runs exactly one fixed step: physics, transform sync, grid refresh,
// then triggers.
func (s *Simulation) Tick(dt float32) {
	if dt <= 0 {
		return
	}
	s.physics.Update(dt)
	s.physics.SyncTransforms()
	s.scene.Update(dt)
	for _, obj := range s.scene.GameObjects {
		s.grid.Update(obj)
	}
	s.triggers.Update(dt)
	s.steps++
}

// Advance feeds frameTime into the accumulator and runs as many fixed steps
// as it covers. frameTime is clamped to max_frame_time. Returns the number of
// steps taken.
func (s *Simulation) Advance(frameTime float32) int {
	if frameTime <= 0 {
		return 0
	}
	if frameTime > s.cfg.Physics.MaxFrameTime {
		frameTime = s.cfg.Physics.MaxFrameTime
	}
	fixed := s.cfg.Physics.FixedTimestep
	s.accumulator += frameTime
	n := 0
	for s.accumulator >= fixed {
		s.Tick(fixed)
		s.accumulator -= fixed
		n++
	}
	return n
}

// Run drives the simulation until ctx is done. Commands submitted through Do
// run between steps on this goroutine.
func (s *Simulation) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		close(stop)
		s.stop = nil
		s.mu.Unlock()
	}()

	step := time.Duration(float64(s.cfg.Physics.FixedTimestep) * float64(time.Second))
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	s.logger.Info("Sandbox: loop started", zap.Duration("step", step))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sandbox: loop stopped", zap.Uint64("steps", s.steps))
			return nil
		case c := <-s.commands:
			c.done <- c.fn()
		case now := <-ticker.C:
			s.Advance(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// Do runs fn on the loop goroutine and returns its error.
func (s *Simulation) Do(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop == nil {
		return ErrNotRunning
	}

	c := command{fn: fn, done: make(chan error, 1)}
	select {
	case s.commands <- c:
	case <-stop:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close removes triggers, constraints and bodies and tears down the world.
// The loop must be stopped and the simulation is unusable afterwards.
func (s *Simulation) Close() {
	s.triggers.ClearAll()
	s.physics.Cleanup()
	s.grid.Clear()
	s.scene = engine.NewScene("sandbox")
}

func builtinTemplates() []*constraint.Template {
	var springY [physics.AxisCount]bool
	springY[physics.LinearY] = true
	return []*constraint.Template{
		{Name: "weld", Description: "Rigid joint", Type: constraint.TypeFixed},
		{Name: "breakable_weld", Description: "Rigid joint that snaps under load", Type: constraint.TypeFixed,
			Breakable: true, BreakForce: 100, BreakTorque: 100},
		{Name: "hinge", Description: "Free hinge around Y", Type: constraint.TypeHinge,
			Axis: rl.Vector3{Y: 1}},
		{Name: "slider", Description: "Slider along X within one unit", Type: constraint.TypeSlider,
			Axis: rl.Vector3{X: 1}, Limited: true, Lower: 0, Upper: 1},
		{Name: "spring", Description: "Vertical spring", Type: constraint.TypeSpring,
			Springs: springY, Stiffness: 50, Damping: 0.5,
			LinearLower: rl.Vector3{Y: -1}, LinearUpper: rl.Vector3{Y: 1}},
	}
}
