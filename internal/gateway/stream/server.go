// Package stream serves live queries over websocket. A client opens
// GET /stream/v1/query, subscribes with a collection, filter tree and
// sort, optionally receives the current matching records as a snapshot,
// and from then on hears every matching store change as an event frame.
package stream

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/collection"
)

// Server owns the hub and the websocket endpoint.
type Server struct {
	hub      *Hub
	registry *gateway.Registry
}

// NewServer creates a streaming server over the registry's collections.
func NewServer(registry *gateway.Registry) *Server {
	if registry == nil {
		panic("registry cannot be nil")
	}
	return &Server{
		hub:      NewHub(),
		registry: registry,
	}
}

// RegisterRoutes registers the websocket route on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /stream/v1/query", s.handleWS)
}

// Run wires the registry's stores into the hub and routes events until
// ctx ends. Collections registered after Run starts do not stream.
func (s *Server) Run(ctx context.Context) {
	s.registry.Each(func(col *gateway.Collection) {
		name := col.Name
		col.Store.OnChange(func(evt collection.Event) {
			s.hub.Broadcast(change{Collection: name, Event: evt})
		})
	})
	s.hub.Run(ctx)
}

// handleWS upgrades the connection and starts the client's pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:           s.hub,
		registry:      s.registry,
		conn:          conn,
		send:          make(chan BaseMessage, sendBufferSize),
		subscriptions: make(map[string]*subscription),
	}
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// All further work happens on the pump goroutines, so the handler
	// can return and release its stack.
	go client.writePump()
	go client.readPump()
}
