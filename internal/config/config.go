package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 1.0e6
	DefaultTotalTime = 1.0e9
	DefaultPreset    = "planets"
	DefaultSolver    = "direct"
	DefaultTheta     = 0.5
)

// Solvers lists the force solver names a config may select.
var Solvers = []string{"direct", "parallel", "barneshut"}

type Config struct {
	// Preset names a built-in universe; Input, when set, takes precedence.
	Preset        string  `yaml:"preset"`
	Input         string  `yaml:"input"`
	Dt            float64 `yaml:"dt"`
	TotalTime     float64 `yaml:"total_time"`
	Solver        string  `yaml:"solver"`
	Workers       int     `yaml:"workers"`
	Theta         float64 `yaml:"theta"`
	RecordEvery   int     `yaml:"record_every"`
	ValidateState bool    `yaml:"validate_state"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset:    DefaultPreset,
		Dt:        DefaultDt,
		TotalTime: DefaultTotalTime,
		Solver:    DefaultSolver,
		Theta:     DefaultTheta,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("record_every must not be negative, got %d", c.RecordEvery)
	}
	if c.Theta < 0 {
		return fmt.Errorf("theta must not be negative, got %g", c.Theta)
	}
	if c.Input == "" && c.Preset == "" {
		return fmt.Errorf("either input or preset must be set")
	}
	for _, s := range Solvers {
		if c.Solver == s {
			return nil
		}
	}
	return fmt.Errorf("unknown solver: %s (available: %v)", c.Solver, Solvers)
}
