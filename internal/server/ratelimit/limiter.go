// Package ratelimit provides per-client rate limiting for API endpoints.
package ratelimit

import (
	"time"
)

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(key string) bool

	// Reset clears the rate limit counter for the given key.
	Reset(key string)
}

// Stoppable extends Limiter with a Stop method for cleanup.
type Stoppable interface {
	Limiter
	Stop()
}

// Config holds the configuration for rate limiting.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool `yaml:"enabled"`

	// Requests is the maximum number of requests allowed per window.
	Requests int `yaml:"requests"`

	// Window is the duration of the rate limiting window.
	Window time.Duration `yaml:"window"`
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Requests: 300,
		Window:   time.Minute,
	}
}
