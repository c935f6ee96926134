// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Floor        FloorConfig        `yaml:"floor"`
	Tick         TickConfig         `yaml:"tick"`
	Agent        AgentConfig        `yaml:"agent"`
	Steering     SteeringConfig     `yaml:"steering"`
	Coordination CoordinationConfig `yaml:"coordination"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FloorConfig holds factory floor dimensions in millimetres.
type FloorConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// TickConfig holds driver loop rates.
type TickConfig struct {
	RateHz            int     `yaml:"rate_hz"`
	RenderFPS         int     `yaml:"render_fps"`
	BarrierTimeoutSec float64 `yaml:"barrier_timeout_sec"`
}

// AgentConfig holds defaults for agents the blueprint doesn't fully specify.
type AgentConfig struct {
	Radius       float64 `yaml:"radius"`
	DimensionX   float64 `yaml:"dimension_x"`
	DimensionY   float64 `yaml:"dimension_y"`
	MaxSpeed     float64 `yaml:"max_speed"`
	MaxForce     float64 `yaml:"max_force"`
	ArriveRadius float64 `yaml:"arrive_radius"`
}

// SteeringConfig holds steering behavior gains and thresholds.
type SteeringConfig struct {
	BorderRadius      float64 `yaml:"border_radius"`
	BorderGain        float64 `yaml:"border_gain"`
	CollisionGain     float64 `yaml:"collision_gain"`
	LookAheadSec      float64 `yaml:"look_ahead_sec"`
	AngularBiasGain   float64 `yaml:"angular_bias_gain"`
	SpringGain        float64 `yaml:"spring_gain"`
	WaypointPopFactor float64 `yaml:"waypoint_pop_factor"`
	SlowRadius        float64 `yaml:"slow_radius"`
	CancelEpsilon     float64 `yaml:"cancel_epsilon"`
}

// CoordinationConfig holds coordination layer parameters.
type CoordinationConfig struct {
	MailboxSize      int `yaml:"mailbox_size"`
	OrderPeriodTicks int `yaml:"order_period_ticks"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	HeatmapCellSize float64 `yaml:"heatmap_cell_size"`
	PerfWindow      int     `yaml:"perf_window"`
	DumpEvery       int     `yaml:"dump_every"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TickInterval   time.Duration // 1 / Tick.RateHz
	BarrierTimeout time.Duration
	LookAheadTicks float64 // LookAheadSec expressed in ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Tick.RateHz <= 0 {
		return fmt.Errorf("tick.rate_hz must be positive, got %d", c.Tick.RateHz)
	}
	if c.Floor.Width <= 0 || c.Floor.Height <= 0 {
		return fmt.Errorf("floor dimensions must be positive, got %gx%g", c.Floor.Width, c.Floor.Height)
	}
	if c.Floor.GridCellSize <= 0 {
		return fmt.Errorf("floor.grid_cell_size must be positive, got %g", c.Floor.GridCellSize)
	}
	if c.Steering.CancelEpsilon <= 0 {
		return fmt.Errorf("steering.cancel_epsilon must be positive, got %g", c.Steering.CancelEpsilon)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TickInterval = time.Second / time.Duration(c.Tick.RateHz)
	c.Derived.BarrierTimeout = time.Duration(c.Tick.BarrierTimeoutSec * float64(time.Second))
	c.Derived.LookAheadTicks = c.Steering.LookAheadSec * float64(c.Tick.RateHz)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
