// Package config loads the simulation settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// Vec3 is written as a three element sequence: [x, y, z].
type Vec3 [3]float32

func (v Vec3) Vector3() rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

type Config struct {
	Physics   Physics    `yaml:"physics"`
	Spatial   Spatial    `yaml:"spatial"`
	Materials []Material `yaml:"materials"`
	Logging   Logging    `yaml:"logging"`
	Server    Server     `yaml:"server"`
	Templates Templates  `yaml:"templates"`
}

type Physics struct {
	Gravity          Vec3    `yaml:"gravity"`
	FixedTimestep    float32 `yaml:"fixed_timestep"`    // seconds per simulation step
	SolverIterations int     `yaml:"solver_iterations"` // joint solver passes per step
	MaxFrameTime     float32 `yaml:"max_frame_time"`    // clamp for the accumulator, avoids spiral of death
}

type Spatial struct {
	CellSize float32 `yaml:"cell_size"`
}

// Material is an extra friction/restitution preset registered at startup.
type Material struct {
	Name        string  `yaml:"name"`
	Friction    float32 `yaml:"friction"`
	Restitution float32 `yaml:"restitution"`
}

type Logging struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json or console
}

type Server struct {
	Listen      string   `yaml:"listen"`
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit caps mutating requests per second across all clients. 0 disables it.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type Templates struct {
	// Path of a constraint template library loaded at startup. Empty disables it.
	Path string `yaml:"path"`
}

func Default() Config {
	return Config{
		Physics: Physics{
			Gravity:          Vec3{0, -9.8, 0},
			FixedTimestep:    1.0 / 60.0,
			SolverIterations: 10,
			MaxFrameTime:     0.25,
		},
		Spatial: Spatial{CellSize: 10},
		Logging: Logging{Level: "info", Encoding: "console"},
		Server: Server{
			Listen:      "127.0.0.1:8080",
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			RateLimit:   50,
			RateBurst:   100,
		},
	}
}

// Load reads and validates the YAML file at path. Keys missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Physics.FixedTimestep <= 0 {
		errs = append(errs, fmt.Errorf("physics.fixed_timestep must be positive, got %v", c.Physics.FixedTimestep))
	}
	if c.Physics.SolverIterations <= 0 {
		errs = append(errs, fmt.Errorf("physics.solver_iterations must be positive, got %d", c.Physics.SolverIterations))
	}
	if c.Physics.MaxFrameTime < c.Physics.FixedTimestep {
		errs = append(errs, fmt.Errorf("physics.max_frame_time (%v) must be at least fixed_timestep", c.Physics.MaxFrameTime))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_burst must be positive when rate_limit is set, got %d", c.Server.RateBurst))
	}
	if c.Spatial.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("spatial.cell_size must be positive, got %v", c.Spatial.CellSize))
	}

	seen := make(map[string]bool, len(c.Materials))
	for i, m := range c.Materials {
		switch {
		case m.Name == "":
			errs = append(errs, fmt.Errorf("materials[%d]: name is required", i))
		case seen[m.Name]:
			errs = append(errs, fmt.Errorf("materials[%d]: duplicate name %q", i, m.Name))
		}
		seen[m.Name] = true
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.encoding %q is not json or console", c.Logging.Encoding))
	}
	return errors.Join(errs...)
}
