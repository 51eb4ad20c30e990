package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quirelab/quire/internal/server"
)

// Config holds the application configuration.
type Config struct {
	Server  server.Config `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	Demo    DemoConfig    `yaml:"demo"`
	Nats    NatsConfig    `yaml:"nats"`
}

// Load builds the configuration in layers: defaults, then config.yml,
// then config.local.yml, then environment overrides. Missing files are
// skipped; a structurally invalid result is an error.
func Load(configDir string) (*Config, error) {
	cfg := &Config{
		Server:  server.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
		Engine:  DefaultEngineConfig(),
		Demo:    DefaultDemoConfig(),
		Nats:    DefaultNatsConfig(),
	}

	loadFile(filepath.Join(configDir, "config.yml"), cfg)
	loadFile(filepath.Join(configDir, "config.local.yml"), cfg)

	if err := applyLifecycle(configDir,
		&cfg.Server,
		&cfg.Logging,
		&cfg.Engine,
		&cfg.Demo,
		&cfg.Nats,
	); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		slog.Warn("Error reading config file", "file", filename, "error", err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("Error parsing config file", "file", filename, "error", err)
	}
}
