// Package config loads engine settings from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the engine. Zero values fall back to the
// envDefault tags; paths left empty are resolved by the CLI layer.
type Config struct {
	GraphDBPath   string `env:"RECALL_GRAPH_DB"`
	LearnerDBPath string `env:"RECALL_LEARNER_DB"`
	Debug         bool   `env:"RECALL_DEBUG" envDefault:"false"`

	SessionLimit int     `env:"RECALL_SESSION_LIMIT" envDefault:"20"`
	WeightDue    float64 `env:"RECALL_WEIGHT_DUE" envDefault:"0.5"`
	WeightNeed   float64 `env:"RECALL_WEIGHT_NEED" envDefault:"0.3"`
	WeightYield  float64 `env:"RECALL_WEIGHT_YIELD" envDefault:"0.2"`

	EnergyGain  float64 `env:"RECALL_ENERGY_GAIN" envDefault:"0.35"`
	EnergyDecay float64 `env:"RECALL_ENERGY_DECAY" envDefault:"0.5"`

	DesiredRetention float64 `env:"RECALL_DESIRED_RETENTION" envDefault:"0.9"`
}

// Load reads the environment (and a .env file when present) into a Config.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionLimit <= 0 {
		return fmt.Errorf("session limit %d must be positive", c.SessionLimit)
	}
	for name, w := range map[string]float64{
		"due": c.WeightDue, "need": c.WeightNeed, "yield": c.WeightYield,
	} {
		if w < 0 {
			return fmt.Errorf("weight %s = %f must be non-negative", name, w)
		}
	}
	if c.EnergyGain < 0 || c.EnergyGain > 1 {
		return fmt.Errorf("energy gain %f outside [0,1]", c.EnergyGain)
	}
	if c.EnergyDecay < 0 || c.EnergyDecay > 1 {
		return fmt.Errorf("energy decay %f outside [0,1]", c.EnergyDecay)
	}
	if c.DesiredRetention <= 0 || c.DesiredRetention > 1 {
		return fmt.Errorf("desired retention %f outside (0,1]", c.DesiredRetention)
	}
	return nil
}
