package config

// ServiceConfig defines the standard configuration lifecycle. Every
// config section implements it so Load can treat them uniformly.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults.
	ApplyDefaults()

	// ApplyEnvOverrides applies environment variable overrides.
	ApplyEnvOverrides()

	// ResolvePaths resolves relative paths against the config directory.
	ResolvePaths(configDir string)

	// Validate returns an error if the configuration is invalid.
	Validate() error
}

// applyLifecycle runs the configuration lifecycle over each section in
// order: defaults, env overrides, path resolution, validation.
func applyLifecycle(configDir string, configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		cfg.ResolvePaths(configDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
