package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	defaultVotingAge  = 18
	defaultDrivingAge = 17
)

// Config holds initialization parameters for the person demo: the registry
// every person owns and the age thresholds its observers react to.
type Config struct {
	Registry   RegistryConfig `json:"registry"`
	VotingAge  int            `json:"voting_age,omitempty"`
	DrivingAge int            `json:"driving_age,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Registry:   DefaultRegistryConfig(),
		VotingAge:  defaultVotingAge,
		DrivingAge: defaultDrivingAge,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Registry.Merge(&source.Registry)

	if source.VotingAge > 0 {
		c.VotingAge = source.VotingAge
	}
	if source.DrivingAge > 0 {
		c.DrivingAge = source.DrivingAge
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
