package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/quirelab/quire/pkg/engine"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/search"
)

// EngineConfig tunes the pagination engine and declares the collections
// it serves.
type EngineConfig struct {
	MaxPageSize         int  `yaml:"max_page_size"`
	DefaultPageSize     int  `yaml:"default_page_size"`
	RejectOversizedPage bool `yaml:"reject_oversized_page"`
	StrictFilters       bool `yaml:"strict_filters"`

	Collections []CollectionConfig `yaml:"collections"`
}

// CollectionConfig declares one collection: its name, typed fields and
// an optional search setup. The identifier field is implicit.
type CollectionConfig struct {
	Name   string            `yaml:"name"`
	Fields map[string]string `yaml:"fields"` // attribute name -> kind
	Search search.Config     `yaml:"search"`
}

// Options converts the tuning knobs into engine options.
func (c EngineConfig) Options() engine.Options {
	return engine.Options{
		MaxPageSize:         c.MaxPageSize,
		DefaultPageSize:     c.DefaultPageSize,
		RejectOversizedPage: c.RejectOversizedPage,
		StrictFilters:       c.StrictFilters,
	}
}

// Schema converts the declared fields into a model schema.
func (c CollectionConfig) Schema() model.Schema {
	fields := make(map[string]model.Kind, len(c.Fields))
	for name, kind := range c.Fields {
		fields[name] = model.Kind(kind)
	}
	return model.NewSchema(fields)
}

// DefaultEngineConfig returns the engine defaults: clamping page sizes
// and lenient filter evaluation.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxPageSize:     100,
		DefaultPageSize: 25,
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *EngineConfig) ApplyDefaults() {
	if c.MaxPageSize == 0 {
		c.MaxPageSize = 100
	}
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = 25
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *EngineConfig) ApplyEnvOverrides() {
	if v := os.Getenv("QUIRE_MAX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxPageSize = n
		}
	}
}

// ResolvePaths resolves relative paths. No paths in engine config.
func (c *EngineConfig) ResolvePaths(_ string) {}

// Validate validates the configuration, including every declared
// collection's schema and search setup.
func (c *EngineConfig) Validate() error {
	if c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be at least 1, got %d", c.MaxPageSize)
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size %d must be within [1, %d]", c.DefaultPageSize, c.MaxPageSize)
	}

	seen := make(map[string]bool, len(c.Collections))
	for _, col := range c.Collections {
		if col.Name == "" {
			return fmt.Errorf("collection name cannot be empty")
		}
		if !model.CheckRecordID(col.Name) {
			return fmt.Errorf("invalid collection name %q", col.Name)
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate collection %q", col.Name)
		}
		seen[col.Name] = true

		schema := col.Schema()
		if err := schema.Validate(); err != nil {
			return fmt.Errorf("collection %q: %w", col.Name, err)
		}
		if len(col.Search.Fields) > 0 {
			if err := col.Search.Validate(schema); err != nil {
				return fmt.Errorf("collection %q: %w", col.Name, err)
			}
		}
	}

	return nil
}
