// Package bench is a load generator for a running quire server. A
// scenario is a weighted mix of read operations (offset walks, cursor
// walks, filtered queries, ranked search) executed by concurrent
// workers against the REST gateway, with latency percentiles collected
// per operation type.
package bench

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one benchmark run.
type Config struct {
	Name       string        `yaml:"name"`
	Target     string        `yaml:"target"`
	Collection string        `yaml:"collection"`
	Duration   time.Duration `yaml:"duration"`
	Timeout    time.Duration `yaml:"timeout"` // per-request
	Workers    int           `yaml:"workers"`
	Seed       int64         `yaml:"seed"`

	Operations []OperationConfig `yaml:"operations"`
}

// OperationConfig declares one weighted operation in the mix.
type OperationConfig struct {
	Type   string `yaml:"type"`
	Weight int    `yaml:"weight"`

	// Collection overrides the run-level collection for this operation.
	Collection string `yaml:"collection"`

	// Walk and query controls.
	PageSize  int               `yaml:"page_size"`
	Pages     int               `yaml:"pages"` // walk depth cap
	Sort      string            `yaml:"sort"`
	Filters   map[string]string `yaml:"filters"` // field__op -> value
	WithTotal bool              `yaml:"with_total"`

	// Search controls.
	Queries []string `yaml:"queries"`
	Limit   int      `yaml:"limit"`
}

// Operation type identifiers.
const (
	OpOffsetWalk = "offset_walk"
	OpCursorWalk = "cursor_walk"
	OpFiltered   = "filtered"
	OpSearch     = "search"
)

var validOperationTypes = map[string]bool{
	OpOffsetWalk: true,
	OpCursorWalk: true,
	OpFiltered:   true,
	OpSearch:     true,
}

// LoadConfig loads a scenario from a YAML file, fills in defaults and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns a ready-to-run scenario against a local server
// seeded with the demo collections.
func DefaultConfig() *Config {
	cfg := &Config{
		Operations: []OperationConfig{
			{Type: OpOffsetWalk, Weight: 25, Pages: 4, WithTotal: true},
			{Type: OpCursorWalk, Weight: 40, Pages: 6, Sort: "seq:desc"},
			{Type: OpFiltered, Weight: 25, Filters: map[string]string{"status": "ACTIVE", "seq__gte": "50"}},
			{Type: OpSearch, Weight: 10, Collection: "users", Queries: []string{"ada", "grace", "alan", "edsger"}},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills missing values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "quire-bench"
	}
	if c.Target == "" {
		c.Target = "http://localhost:8080"
	}
	if c.Collection == "" {
		c.Collection = "records"
	}
	if c.Duration == 0 {
		c.Duration = 30 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Workers == 0 {
		c.Workers = 10
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}

	for i := range c.Operations {
		op := &c.Operations[i]
		if op.Collection == "" {
			op.Collection = c.Collection
		}
		if op.Weight == 0 {
			op.Weight = 1
		}
		if op.Pages == 0 {
			op.Pages = 5
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target URL is required")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Workers > 10000 {
		return fmt.Errorf("workers must not exceed 10000")
	}
	if len(c.Operations) == 0 {
		return fmt.Errorf("at least one operation is required")
	}

	totalWeight := 0
	for i, op := range c.Operations {
		if !validOperationTypes[op.Type] {
			return fmt.Errorf("operation[%d]: invalid type %q (must be %s, %s, %s or %s)",
				i, op.Type, OpOffsetWalk, OpCursorWalk, OpFiltered, OpSearch)
		}
		if op.Weight < 0 {
			return fmt.Errorf("operation[%d]: weight must be non-negative", i)
		}
		if op.PageSize < 0 {
			return fmt.Errorf("operation[%d]: page_size must be non-negative", i)
		}
		if op.Pages < 0 {
			return fmt.Errorf("operation[%d]: pages must be non-negative", i)
		}
		if op.Type == OpSearch && len(op.Queries) == 0 {
			return fmt.Errorf("operation[%d]: search requires at least one query term", i)
		}
		totalWeight += op.Weight
	}
	if totalWeight == 0 {
		return fmt.Errorf("total operation weight must be positive")
	}
	return nil
}
