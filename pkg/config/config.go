// Package config provides the configuration system for spawnpool.
// A single Config structure describes which kinds a registry pre-allocates,
// how warm-up is scheduled, and the ambient logging/metrics/tracing settings.
//
// The configuration is organized into logical sections:
//   - Pools: kind name, entity class, and warm target size
//   - Warmup: scheduling strategy (tick or async) and yield interval
//   - Simulation: the headless tick loop driven by the CLI
//   - Logging, Metrics, Tracing: ambient observability
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Pools = append(cfg.Pools, config.KindConfig{Kind: "Ember", Class: "effect", TargetSize: 12})
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"time"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
)

// Warm-up strategies
const (
	// StrategyTick constructs one instance per simulation tick
	StrategyTick = "tick"
	// StrategyAsync constructs instances on a background runner that yields between steps
	StrategyAsync = "async"
)

// Config is the root configuration structure.
type Config struct {
	// Name identifies the registry (scene or level) in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`

	// Pools lists every kind registered up front
	Pools []KindConfig `yaml:"pools" json:"pools" mapstructure:"pools"`

	// Warmup controls incremental construction
	Warmup WarmupConfig `yaml:"warmup" json:"warmup" mapstructure:"warmup"`

	// Simulation drives the headless world used by the CLI
	Simulation SimulationConfig `yaml:"simulation" json:"simulation" mapstructure:"simulation"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Metrics settings
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`

	// Tracing settings
	Tracing TracingConfig `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
}

// KindConfig describes one pooled kind.
type KindConfig struct {
	// Kind is the key consumers acquire by (e.g. "Spark")
	Kind string `yaml:"kind" json:"kind" mapstructure:"kind"`
	// Class selects the entity implementation (enemy, effect, projectile, indicator, voice)
	Class string `yaml:"class" json:"class" mapstructure:"class"`
	// TargetSize is the warm count. Zero leaves the kind to on-demand construction.
	TargetSize int `yaml:"target_size" json:"target_size" mapstructure:"target_size"`
	// Lifetime is the default active lifetime for self-timed classes
	Lifetime time.Duration `yaml:"lifetime" json:"lifetime" mapstructure:"lifetime"`
}

// WarmupConfig contains warm-up scheduling settings.
type WarmupConfig struct {
	// Strategy is "tick" or "async"
	Strategy string `yaml:"strategy" json:"strategy" mapstructure:"strategy"`
	// Interval is the pause between async steps (0 = cooperative yield only)
	Interval time.Duration `yaml:"interval" json:"interval" mapstructure:"interval"`
}

// SimulationConfig contains the headless simulation settings.
type SimulationConfig struct {
	// Ticks is the total number of ticks to simulate
	Ticks int `yaml:"ticks" json:"ticks" mapstructure:"ticks"`
	// TickInterval paces the loop in real time (0 = as fast as possible)
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval" mapstructure:"tick_interval"`
	// Step is the simulated time advanced per tick
	Step time.Duration `yaml:"step" json:"step" mapstructure:"step"`
	// Seed makes runs reproducible
	Seed int64 `yaml:"seed" json:"seed" mapstructure:"seed"`
	// LevelLength is the number of ticks between level teardowns (0 = never)
	LevelLength int `yaml:"level_length" json:"level_length" mapstructure:"level_length"`
	// ChaosRate is the per-tick probability that an active instance is destroyed externally
	ChaosRate float64 `yaml:"chaos_rate" json:"chaos_rate" mapstructure:"chaos_rate"`
	// DeathBurst is the number of effects spawned when an enemy dies
	DeathBurst int `yaml:"death_burst" json:"death_burst" mapstructure:"death_burst"`
	// Waves schedules enemy spawns
	Waves []WaveConfig `yaml:"waves" json:"waves" mapstructure:"waves"`
	// Roles maps gameplay roles to kinds
	Roles RolesConfig `yaml:"roles" json:"roles" mapstructure:"roles"`
}

// WaveConfig spawns Count enemies of Kind every Every ticks, starting at Start.
type WaveConfig struct {
	Kind  string `yaml:"kind" json:"kind" mapstructure:"kind"`
	Count int    `yaml:"count" json:"count" mapstructure:"count"`
	Start int    `yaml:"start" json:"start" mapstructure:"start"`
	Every int    `yaml:"every" json:"every" mapstructure:"every"`
}

// RolesConfig names the kinds the simulation acquires for each gameplay role.
type RolesConfig struct {
	Projectile  string `yaml:"projectile" json:"projectile" mapstructure:"projectile"`
	HitEffect   string `yaml:"hit_effect" json:"hit_effect" mapstructure:"hit_effect"`
	DeathEffect string `yaml:"death_effect" json:"death_effect" mapstructure:"death_effect"`
	Indicator   string `yaml:"indicator" json:"indicator" mapstructure:"indicator"`
	Voice       string `yaml:"voice" json:"voice" mapstructure:"voice"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" json:"address" mapstructure:"address"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate" mapstructure:"sample_rate"`
}

// Default returns a Config with the kinds of a typical arena level.
func Default() *Config {
	return &Config{
		Name: "arena",
		Pools: []KindConfig{
			{Kind: "Grunt", Class: "enemy", TargetSize: 16},
			{Kind: "Bolt", Class: "projectile", TargetSize: 24, Lifetime: 400 * time.Millisecond},
			{Kind: "Spark", Class: "effect", TargetSize: 32, Lifetime: 250 * time.Millisecond},
			{Kind: "Explosion", Class: "effect", TargetSize: 8, Lifetime: 600 * time.Millisecond},
			{Kind: "DamageNumber", Class: "indicator", TargetSize: 16, Lifetime: 800 * time.Millisecond},
			{Kind: "HitSound", Class: "voice", TargetSize: 8, Lifetime: 300 * time.Millisecond},
		},
		Warmup: WarmupConfig{
			Strategy: StrategyTick,
		},
		Simulation: SimulationConfig{
			Ticks:       600,
			Step:        time.Second / 60,
			Seed:        1,
			LevelLength: 300,
			DeathBurst:  12,
			Waves: []WaveConfig{
				{Kind: "Grunt", Count: 6, Start: 30, Every: 60},
			},
			Roles: RolesConfig{
				Projectile:  "Bolt",
				HitEffect:   "Spark",
				DeathEffect: "Explosion",
				Indicator:   "DamageNumber",
				Voice:       "HitSound",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Metrics: MetricsConfig{
			Address: ":9102",
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
	}
}

// Validate checks the configuration for structural errors. A zero target
// size is allowed; the registry logs it and serves the kind on demand.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}

	seen := make(map[string]struct{}, len(c.Pools))
	for i, p := range c.Pools {
		if p.Kind == "" {
			return errors.Newf(errors.ErrorTypeConfig, "pools[%d]: kind is required", i)
		}
		if _, dup := seen[p.Kind]; dup {
			return errors.Newf(errors.ErrorTypeConfig, "pools[%d]: duplicate kind %q", i, p.Kind).
				WithDetail("kind", p.Kind)
		}
		seen[p.Kind] = struct{}{}
		if p.TargetSize < 0 {
			return errors.Newf(errors.ErrorTypeConfig, "pools[%d]: target_size cannot be negative", i).
				WithDetail("kind", p.Kind)
		}
		if p.Lifetime < 0 {
			return errors.Newf(errors.ErrorTypeConfig, "pools[%d]: lifetime cannot be negative", i).
				WithDetail("kind", p.Kind)
		}
	}

	switch c.Warmup.Strategy {
	case StrategyTick, StrategyAsync:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "warmup.strategy must be %q or %q", StrategyTick, StrategyAsync).
			WithDetail("strategy", c.Warmup.Strategy)
	}
	if c.Warmup.Interval < 0 {
		return errors.New(errors.ErrorTypeConfig, "warmup.interval cannot be negative")
	}

	if c.Simulation.Ticks < 0 {
		return errors.New(errors.ErrorTypeConfig, "simulation.ticks cannot be negative")
	}
	if c.Simulation.LevelLength < 0 {
		return errors.New(errors.ErrorTypeConfig, "simulation.level_length cannot be negative")
	}
	if c.Simulation.ChaosRate < 0 || c.Simulation.ChaosRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "simulation.chaos_rate must be within [0, 1]")
	}
	for i, w := range c.Simulation.Waves {
		if w.Kind == "" || w.Count <= 0 {
			return errors.Newf(errors.ErrorTypeConfig, "simulation.waves[%d]: kind and positive count required", i)
		}
		if w.Every < 0 || w.Start < 0 {
			return errors.Newf(errors.ErrorTypeConfig, "simulation.waves[%d]: start and every cannot be negative", i)
		}
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.New(errors.ErrorTypeConfig, "metrics.address is required when metrics are enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "tracing.sample_rate must be within [0, 1]")
	}
	return nil
}

// Kind returns the configuration for kind, if present.
func (c *Config) Kind(kind string) (KindConfig, bool) {
	for _, p := range c.Pools {
		if p.Kind == kind {
			return p, true
		}
	}
	return KindConfig{}, false
}

// TotalTarget returns the sum of all target sizes
func (c *Config) TotalTarget() int {
	total := 0
	for _, p := range c.Pools {
		total += p.TargetSize
	}
	return total
}

// IsAsync returns true if warm-up runs on a background runner
func (w *WarmupConfig) IsAsync() bool {
	return w.Strategy == StrategyAsync
}
