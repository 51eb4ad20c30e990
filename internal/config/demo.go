package config

import "fmt"

// DemoConfig controls the built-in demo dataset. When enabled, the
// server seeds its collections with deterministic synthetic records so
// the API is explorable without any external data source.
type DemoConfig struct {
	Enabled bool  `yaml:"enabled"`
	Items   int   `yaml:"items"` // records in the items collection
	Users   int   `yaml:"users"` // records in the users collection
	Seed    int64 `yaml:"seed"`  // PRNG seed for user generation
}

// DefaultDemoConfig returns the demo defaults with the demo enabled.
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		Enabled: true,
		Items:   150,
		Users:   500,
		Seed:    42,
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *DemoConfig) ApplyDefaults() {
	if c.Items == 0 {
		c.Items = 150
	}
	if c.Users == 0 {
		c.Users = 500
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *DemoConfig) ApplyEnvOverrides() {}

// ResolvePaths resolves relative paths. No paths in demo config.
func (c *DemoConfig) ResolvePaths(_ string) {}

// Validate validates the configuration.
func (c *DemoConfig) Validate() error {
	if c.Items < 0 {
		return fmt.Errorf("demo items cannot be negative, got %d", c.Items)
	}
	if c.Users < 0 {
		return fmt.Errorf("demo users cannot be negative, got %d", c.Users)
	}
	return nil
}
