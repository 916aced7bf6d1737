// Package config loads the exploration parameters shared by every
// command: scheduling policy, seeds, execution budgets and the archive
// database location.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weftlabs/weft/internal/engine"
)

// Config is the full parameter surface of an exploration.
type Config struct {
	// Quiet suppresses informational log output.
	Quiet bool `yaml:"quiet"`

	// LogLevelTrace enables per-event debug logging. Very verbose.
	LogLevelTrace bool `yaml:"log_level_trace"`

	// Policy selects the scheduling policy: wf, rr or random.
	Policy string `yaml:"policy"`

	// Seed is the base schedule seed; execution n runs under seed+n.
	Seed int64 `yaml:"seed"`

	// MaxExecutions bounds a verification exploration.
	MaxExecutions int `yaml:"max_executions"`

	// EstimationMax bounds the sampling pass of the estimate command.
	EstimationMax int `yaml:"estimation_max"`

	// PrintGraphs dumps the execution graph after every exploration.
	PrintGraphs bool `yaml:"print_graphs"`

	// PrintScheduleSeed logs the effective seed before each exploration
	// so a failing schedule can be replayed.
	PrintScheduleSeed bool `yaml:"print_schedule_seed"`

	// SymmetryReduction is accepted but not yet acted on; the reference
	// engine explores without symmetry pruning.
	SymmetryReduction bool `yaml:"symmetry_reduction"`

	// DBPath is the run archive location. Empty disables archiving.
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Policy:        string(engine.PolicyWritesFirst),
		Seed:          1,
		MaxExecutions: 100,
		EstimationMax: 1000,
	}
}

// Load reads a YAML config file and merges it over the defaults.
// Unknown fields are rejected to catch typos early.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks parameter ranges.
func (c *Config) Validate() error {
	if !engine.ValidPolicy(engine.Policy(c.Policy)) {
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	if c.MaxExecutions <= 0 {
		return fmt.Errorf("max_executions must be positive, got %d", c.MaxExecutions)
	}
	if c.EstimationMax <= 0 {
		return fmt.Errorf("estimation_max must be positive, got %d", c.EstimationMax)
	}
	return nil
}
