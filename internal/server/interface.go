package server

import (
	"context"
	"net/http"
)

// Service is the HTTP network layer: one listener, a shared middleware
// chain, and graceful shutdown.
type Service interface {
	// Start runs the listener. It blocks until a fatal error occurs or
	// the context is canceled.
	Start(ctx context.Context) error

	// Stop initiates a graceful shutdown, waiting for active connections
	// to drain or for the context to expire.
	Stop(ctx context.Context) error

	// RegisterHTTPHandler registers a handler for a specific pattern.
	// This must be called before Start().
	RegisterHTTPHandler(pattern string, handler http.Handler)

	// HTTPMux returns the underlying mux for direct route registration.
	// This must be called before Start().
	HTTPMux() *http.ServeMux
}
