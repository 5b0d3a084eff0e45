// Package config provides configuration loading and access for the danger engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen     ScreenConfig      `yaml:"screen"`
	Sim        SimConfig         `yaml:"sim"`
	Grid       GridConfig        `yaml:"grid"`
	Despawn    DespawnConfig     `yaml:"despawn"`
	Decision   DecisionConfig    `yaml:"decision"`
	Logging    LoggingConfig     `yaml:"logging"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Scenario   ScenarioConfig    `yaml:"scenario"`
	Archetypes []ArchetypeConfig `yaml:"archetypes"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the debug viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimConfig holds clock and scheduling parameters.
type SimConfig struct {
	DT                float64 `yaml:"dt"`                 // Seconds per tick
	Workers           int     `yaml:"workers"`            // Scoring workers (0 = GOMAXPROCS)
	ParallelThreshold int     `yaml:"parallel_threshold"` // Below this many live actors, score serially
}

// GridConfig holds the pending-danger grid parameters.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// DespawnConfig holds retirement parameters.
type DespawnConfig struct {
	Distance    float64 `yaml:"distance"`     // Retire only when every player is farther than this
	GracePeriod float64 `yaml:"grace_period"` // Seconds an actor stays live before it may retire
}

// DecisionConfig holds picker defaults shared by all archetypes.
type DecisionConfig struct {
	Threshold        float64 `yaml:"threshold"`         // FirstToScore threshold when an archetype sets none
	ArrivalTolerance float64 `yaml:"arrival_tolerance"` // Chasing succeeds within this band of its target distance
	MaxRestlessness  float64 `yaml:"max_restlessness"`  // Restless scorer normalizer
}

// LoggingConfig holds zap logger settings.
type LoggingConfig struct {
	Level            string `yaml:"level"`             // debug, info, warn, error
	Development      bool   `yaml:"development"`       // Console encoder instead of JSON
	SampleInitial    int    `yaml:"sample_initial"`    // Per-second messages logged before sampling
	SampleThereafter int    `yaml:"sample_thereafter"` // Then log every Nth message
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// ScenarioConfig describes the demo field used by the headless runner and viewer.
type ScenarioConfig struct {
	Width   float64        `yaml:"width"`
	Height  float64        `yaml:"height"`
	Dangers int            `yaml:"dangers"`
	Players []PlayerConfig `yaml:"players"`
}

// PlayerConfig is a scripted player walking a closed loop of waypoints.
type PlayerConfig struct {
	Speed     float64       `yaml:"speed"`
	Waypoints []PointConfig `yaml:"waypoints"`
}

// PointConfig is a world-space point.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ArchetypeConfig declares one hostile archetype.
// Priority is evaluated in list order; the first behavior whose scorer
// reaches the threshold wins, otherwise Fallback runs.
type ArchetypeConfig struct {
	Name             string           `yaml:"name"`
	Radius           float64          `yaml:"radius"`
	MoveSpeed        float64          `yaml:"move_speed"`
	RestlessnessRate float64          `yaml:"restlessness_rate"`
	Threshold        float64          `yaml:"threshold"` // 0 = decision.threshold
	LethalTouch      bool             `yaml:"lethal_touch"`
	Mesh             string           `yaml:"mesh"`
	Priority         []BehaviorConfig `yaml:"priority"`
	Fallback         string           `yaml:"fallback"`
}

// BehaviorConfig pairs a scorer with the action it drives.
type BehaviorConfig struct {
	Scorer ScorerConfig `yaml:"scorer"`
	Action ActionConfig `yaml:"action"`
}

// ScorerConfig parameterizes a scorer. Only the fields of its kind are read.
type ScorerConfig struct {
	Kind string `yaml:"kind"` // chase, shoot, restless

	// chase
	TriggerDistance float64 `yaml:"trigger_distance,omitempty"`
	MaxDistance     float64 `yaml:"max_distance,omitempty"`
	TargetDistance  float64 `yaml:"target_distance,omitempty"`

	// shoot
	MaxRange          float64 `yaml:"max_range,omitempty"`
	TooClose          float64 `yaml:"too_close,omitempty"`
	PreferredDistance float64 `yaml:"preferred_distance,omitempty"`
}

// ActionConfig parameterizes an action. Only the fields of its kind are read.
type ActionConfig struct {
	Kind string `yaml:"kind"` // chasing, shooting, meandering, resting

	// chasing
	MaxDistance        float64 `yaml:"max_distance,omitempty"`
	TargetDistance     float64 `yaml:"target_distance,omitempty"`
	DrainsRestlessness bool    `yaml:"drains_restlessness,omitempty"`

	// shooting
	MaxRange float64 `yaml:"max_range,omitempty"`
	TooClose float64 `yaml:"too_close,omitempty"`
	Cooldown float64 `yaml:"cooldown,omitempty"`

	// meandering
	Recovery float64 `yaml:"recovery,omitempty"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32              float32 // Sim.DT as float32
	CellSize32        float32 // Grid.CellSize as float32
	DespawnDistance32 float32 // Despawn.Distance as float32
	GracePeriod32     float32 // Despawn.GracePeriod as float32
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

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
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
		// Only overwrites fields present in file. A user archetype list
		// replaces the default list wholesale.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks engine-wide settings. Archetype behavior tables are
// validated when they are registered.
func (c *Config) Validate() error {
	var errs []error
	if c.Sim.DT <= 0 {
		errs = append(errs, fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT))
	}
	if c.Grid.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("grid.cell_size must be positive, got %v", c.Grid.CellSize))
	}
	if c.Despawn.Distance < 0 {
		errs = append(errs, fmt.Errorf("despawn.distance must not be negative, got %v", c.Despawn.Distance))
	}
	if c.Despawn.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("despawn.grace_period must not be negative, got %v", c.Despawn.GracePeriod))
	}
	if c.Decision.Threshold <= 0 || c.Decision.Threshold > 1 {
		errs = append(errs, fmt.Errorf("decision.threshold must be in (0, 1], got %v", c.Decision.Threshold))
	}
	if c.Decision.MaxRestlessness <= 0 {
		errs = append(errs, fmt.Errorf("decision.max_restlessness must be positive, got %v", c.Decision.MaxRestlessness))
	}
	if len(c.Archetypes) > 255 {
		errs = append(errs, fmt.Errorf("at most 255 archetypes supported, got %d", len(c.Archetypes)))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.CellSize32 = float32(c.Grid.CellSize)
	c.Derived.DespawnDistance32 = float32(c.Despawn.Distance)
	c.Derived.GracePeriod32 = float32(c.Despawn.GracePeriod)

	if c.Decision.ArrivalTolerance == 0 {
		c.Decision.ArrivalTolerance = 10
	}

	for i := range c.Archetypes {
		arch := &c.Archetypes[i]
		if arch.Threshold == 0 {
			arch.Threshold = c.Decision.Threshold
		}
		if arch.Fallback == "" {
			arch.Fallback = "resting"
		}
		if arch.Mesh == "" {
			arch.Mesh = arch.Name
		}
	}
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
