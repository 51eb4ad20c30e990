package config

import (
	"fmt"
	"os"
)

// NatsConfig controls the NATS request-reply endpoint. Disabled by
// default; the HTTP gateways do not depend on it.
type NatsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultNatsConfig returns the NATS defaults.
func DefaultNatsConfig() NatsConfig {
	return NatsConfig{
		Enabled:       false,
		URL:           "nats://127.0.0.1:4222",
		SubjectPrefix: "quire",
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *NatsConfig) ApplyDefaults() {
	if c.URL == "" {
		c.URL = "nats://127.0.0.1:4222"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "quire"
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *NatsConfig) ApplyEnvOverrides() {
	if v := os.Getenv("QUIRE_NATS_URL"); v != "" {
		c.URL = v
	}
}

// ResolvePaths resolves relative paths. No paths in NATS config.
func (c *NatsConfig) ResolvePaths(_ string) {}

// Validate validates the configuration.
func (c *NatsConfig) Validate() error {
	if c.Enabled && c.URL == "" {
		return fmt.Errorf("nats url cannot be empty when nats is enabled")
	}
	return nil
}
