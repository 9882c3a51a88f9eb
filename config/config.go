// Package config provides configuration loading for the simulation and the evolution run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation and evolution parameters.
// A loaded *Config is passed explicitly to every constructor that needs it.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Bird      BirdConfig      `yaml:"bird"`
	Pipe      PipeConfig      `yaml:"pipe"`
	Base      BaseConfig      `yaml:"base"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Evolution EvolutionConfig `yaml:"evolution"`
	NEAT      NEATConfig      `yaml:"neat"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the windowed and terminal backends.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// BirdConfig holds agent spawn, body and kinematic constants.
type BirdConfig struct {
	SpawnX           float64 `yaml:"spawn_x"`
	SpawnY           float64 `yaml:"spawn_y"`
	Width            float64 `yaml:"width"`             // Visual bounds used for collisions
	Height           float64 `yaml:"height"`            // Visual bounds used for collisions and the ground rule
	JumpVelocity     float64 `yaml:"jump_velocity"`     // Velocity set by an impulse (negative = up)
	Acceleration     float64 `yaml:"acceleration"`      // Quadratic term of the displacement law
	MaxDisplacement  float64 `yaml:"max_displacement"`  // Per-tick displacement cap
	UpwardBoost      float64 `yaml:"upward_boost"`      // Extra lift applied to negative displacement
	MaxRotation      float64 `yaml:"max_rotation"`      // Upward tilt in degrees
	MinRotation      float64 `yaml:"min_rotation"`      // Tilt floor in degrees
	RotationVelocity float64 `yaml:"rotation_velocity"` // Tilt decay per tick in degrees
	TiltHold         float64 `yaml:"tilt_hold"`         // Keep max tilt while within this many units below the jump height
}

// PipeConfig holds obstacle geometry and scrolling parameters.
type PipeConfig struct {
	Gap       float64 `yaml:"gap"`        // Vertical clearance between barriers
	Velocity  float64 `yaml:"velocity"`   // Units scrolled left per tick
	SpawnX    float64 `yaml:"spawn_x"`    // X position of new pipes
	Width     float64 `yaml:"width"`      // Barrier width
	Height    float64 `yaml:"height"`     // Barrier image height
	MinHeight int     `yaml:"min_height"` // Lowest gap height (inclusive)
	MaxHeight int     `yaml:"max_height"` // Highest gap height (exclusive)
}

// BaseConfig holds ground parameters.
type BaseConfig struct {
	Y        float64 `yaml:"y"`
	Width    float64 `yaml:"width"`
	Velocity float64 `yaml:"velocity"`
}

// FitnessConfig holds the three fitness accumulation rules.
type FitnessConfig struct {
	SurvivalReward float64 `yaml:"survival_reward"` // Added per tick alive
	DeathPenalty   float64 `yaml:"death_penalty"`   // Added once on death
	PassageBonus   float64 `yaml:"passage_bonus"`   // Added to every survivor when a pipe is passed
}

// EvolutionConfig holds driver-owned run parameters.
type EvolutionConfig struct {
	Population        int     `yaml:"population"`
	MaxGenerations    int     `yaml:"max_generations"`
	MaxTicks          int     `yaml:"max_ticks"`          // Per-generation tick budget (0 = unlimited)
	FitnessThreshold  float64 `yaml:"fitness_threshold"`  // Stop once the best fitness reaches this (0 = never)
	Workers           int     `yaml:"workers"`            // Step-2 workers (0 = GOMAXPROCS, 1 = serial)
	ParallelThreshold int     `yaml:"parallel_threshold"` // Minimum live agents before going parallel
}

// NEATConfig holds the subset of NEAT options the driver uses.
type NEATConfig struct {
	InitialConnectionProb  float64 `yaml:"initial_connection_prob"`
	WeightMutPower         float64 `yaml:"weight_mut_power"`
	MutateAddNodeProb      float64 `yaml:"mutate_add_node_prob"`
	MutateAddLinkProb      float64 `yaml:"mutate_add_link_prob"`
	MutateToggleEnableProb float64 `yaml:"mutate_toggle_enable_prob"`
	MutateLinkWeightsProb  float64 `yaml:"mutate_link_weights_prob"`
	MutateOnlyProb         float64 `yaml:"mutate_only_prob"`
	MateOnlyProb           float64 `yaml:"mate_only_prob"`
	CompatThreshold        float64 `yaml:"compat_threshold"`
	DisjointCoeff          float64 `yaml:"disjoint_coeff"`
	ExcessCoeff            float64 `yaml:"excess_coeff"`
	MutdiffCoeff           float64 `yaml:"mutdiff_coeff"`
	DropOffAge             int     `yaml:"drop_off_age"`
	SurvivalThresh         float64 `yaml:"survival_thresh"`
	Elitism                int     `yaml:"elitism"` // Champions copied unchanged per species
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	HallOfFameSize int `yaml:"hall_of_fame_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers     int     // Evolution.Workers resolved against GOMAXPROCS
	GroundY     float64 // Base.Y, the boundary for the ground rule
	RetireTicks int     // Ticks from spawn until a pipe is retired
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

// MustLoad is like Load but panics on error. Intended for tests and tools.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Default returns the embedded defaults.
func Default() *Config {
	return MustLoad("")
}

func (c *Config) validate() error {
	if c.Pipe.MaxHeight <= c.Pipe.MinHeight {
		return fmt.Errorf("pipe.max_height (%d) must exceed pipe.min_height (%d)", c.Pipe.MaxHeight, c.Pipe.MinHeight)
	}
	if c.Pipe.Velocity <= 0 || c.Base.Velocity <= 0 {
		return fmt.Errorf("pipe and base velocities must be positive")
	}
	if c.Evolution.Population < 1 {
		return fmt.Errorf("evolution.population must be at least 1, got %d", c.Evolution.Population)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Workers = c.Evolution.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}
	c.Derived.GroundY = c.Base.Y

	// A pipe retires once x + width <= 0
	span := c.Pipe.SpawnX + c.Pipe.Width
	ticks := int(span / c.Pipe.Velocity)
	if float64(ticks)*c.Pipe.Velocity < span {
		ticks++
	}
	c.Derived.RetireTicks = ticks
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
