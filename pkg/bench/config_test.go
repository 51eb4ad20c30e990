package bench

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeScenario(t, `
name: walk-test
target: http://127.0.0.1:9999
collection: records
duration: 10s
workers: 4
seed: 7
operations:
  - type: cursor_walk
    weight: 3
    page_size: 50
    pages: 2
    sort: "seq:desc"
    filters:
      status: ACTIVE
  - type: search
    collection: users
    weight: 1
    queries: ["ada", "grace"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "walk-test", cfg.Name)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Target)
	assert.Equal(t, 10*time.Second, cfg.Duration)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, int64(7), cfg.Seed)

	require.Len(t, cfg.Operations, 2)
	walk := cfg.Operations[0]
	assert.Equal(t, OpCursorWalk, walk.Type)
	assert.Equal(t, 3, walk.Weight)
	assert.Equal(t, 50, walk.PageSize)
	assert.Equal(t, 2, walk.Pages)
	assert.Equal(t, "seq:desc", walk.Sort)
	assert.Equal(t, map[string]string{"status": "ACTIVE"}, walk.Filters)
	// The run-level collection fills per-operation gaps.
	assert.Equal(t, "records", walk.Collection)
	assert.Equal(t, "users", cfg.Operations[1].Collection)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeScenario(t, "operations: [1, {")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadConfig_InvalidScenario(t *testing.T) {
	path := writeScenario(t, `
operations:
  - type: teleport
    weight: 1
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid type")
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{Operations: []OperationConfig{{Type: OpFiltered}}}
	cfg.ApplyDefaults()

	assert.Equal(t, "quire-bench", cfg.Name)
	assert.Equal(t, "http://localhost:8080", cfg.Target)
	assert.Equal(t, "records", cfg.Collection)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.Workers)
	assert.NotZero(t, cfg.Seed)

	op := cfg.Operations[0]
	assert.Equal(t, "records", op.Collection)
	assert.Equal(t, 1, op.Weight)
	assert.Equal(t, 5, op.Pages)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Target:   "http://localhost:8080",
			Duration: time.Second,
			Workers:  2,
			Operations: []OperationConfig{
				{Type: OpFiltered, Weight: 1},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no target", func(c *Config) { c.Target = "" }, "target URL"},
		{"zero duration", func(c *Config) { c.Duration = 0 }, "duration"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"too many workers", func(c *Config) { c.Workers = 10001 }, "workers"},
		{"no operations", func(c *Config) { c.Operations = nil }, "at least one operation"},
		{"unknown type", func(c *Config) { c.Operations[0].Type = "teleport" }, "invalid type"},
		{"negative weight", func(c *Config) { c.Operations[0].Weight = -1 }, "weight"},
		{"negative page size", func(c *Config) { c.Operations[0].PageSize = -1 }, "page_size"},
		{"zero total weight", func(c *Config) { c.Operations[0].Weight = 0 }, "total operation weight"},
		{"search without queries", func(c *Config) {
			c.Operations = []OperationConfig{{Type: OpSearch, Weight: 1}}
		}, "query term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Operations, 4)

	types := make([]string, len(cfg.Operations))
	for i, op := range cfg.Operations {
		types[i] = op.Type
	}
	assert.ElementsMatch(t, []string{OpOffsetWalk, OpCursorWalk, OpFiltered, OpSearch}, types)
}
