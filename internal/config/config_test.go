package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Engine.MaxPageSize)
	assert.Equal(t, 25, cfg.Engine.DefaultPageSize)
	assert.True(t, cfg.Demo.Enabled)
	assert.Equal(t, 150, cfg.Demo.Items)
	assert.False(t, cfg.Nats.Enabled)
}

func TestLoad_FileLayering(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(dir, 0755))

	base := []byte(`
server:
  http_port: 7070
engine:
  max_page_size: 50
  default_page_size: 10
`)
	local := []byte(`
server:
  http_port: 7071
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), base, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.yml"), local, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// config.local.yml wins over config.yml, which wins over defaults.
	assert.Equal(t, 7071, cfg.Server.HTTPPort)
	assert.Equal(t, 50, cfg.Engine.MaxPageSize)
	assert.Equal(t, 10, cfg.Engine.DefaultPageSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUIRE_HTTP_PORT", "9191")
	t.Setenv("QUIRE_LOG_LEVEL", "debug")
	t.Setenv("QUIRE_NATS_URL", "nats://env:4222")

	cfg, err := Load(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "nats://env:4222", cfg.Nats.URL)
}

func TestLoad_CollectionsFromYAML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := []byte(`
engine:
  collections:
    - name: books
      fields:
        title: string
        pages: int
        published_at: time
      search:
        fields:
          - name: title
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, cfg.Engine.Collections, 1)
	col := cfg.Engine.Collections[0]
	assert.Equal(t, "books", col.Name)

	schema := col.Schema()
	require.NoError(t, schema.Validate())
	assert.True(t, schema.Has("title"))
	assert.True(t, schema.Has("id"))
}

func TestLoad_InvalidCollection(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := []byte(`
engine:
  collections:
    - name: broken
      fields:
        weight: heavy
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_MalformedFileKeepsDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("not: [valid"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestEngineConfig_Validate(t *testing.T) {
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())

	cfg.DefaultPageSize = cfg.MaxPageSize + 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultEngineConfig()
	cfg.Collections = []CollectionConfig{
		{Name: "a", Fields: map[string]string{"x": "string"}},
		{Name: "a", Fields: map[string]string{"y": "int"}},
	}
	assert.Error(t, cfg.Validate(), "duplicate collection names")

	cfg.Collections = []CollectionConfig{{Name: "bad name!", Fields: map[string]string{"x": "string"}}}
	assert.Error(t, cfg.Validate())
}

func TestLoggingConfig_ResolvePaths(t *testing.T) {
	c := DefaultLoggingConfig()
	c.Dir = "logs"
	c.ResolvePaths(filepath.Join("deploy", "config"))
	assert.Equal(t, filepath.Join("deploy", "logs"), c.Dir)

	c = DefaultLoggingConfig()
	c.Dir = filepath.Join("..", "var", "logs")
	c.ResolvePaths("config")
	assert.Equal(t, filepath.Join("var", "logs"), c.Dir)

	abs := filepath.Join(t.TempDir(), "logs")
	c = DefaultLoggingConfig()
	c.Dir = abs
	c.ResolvePaths("config")
	assert.Equal(t, abs, c.Dir)
}
