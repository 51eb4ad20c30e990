package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/quirelab/quire/pkg/collection"
)

// change is one store event tagged with its collection.
type change struct {
	Collection string
	Event      collection.Event
}

// Hub maintains the set of active clients and fans store changes out to
// their subscriptions.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound store changes.
	broadcast chan change

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	runCtx   context.Context
	runCtxMu sync.RWMutex
}

// NewHub creates a hub. It routes nothing until Run is called.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan change),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set until ctx ends, then closes every client's
// send channel so their write pumps wind down.
func (h *Hub) Run(ctx context.Context) {
	h.setRunCtx(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdownClients()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case ch := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				client.deliver(ch)
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast hands a store change to the routing loop. It is a no-op
// once the hub has shut down.
func (h *Hub) Broadcast(ch change) {
	select {
	case <-h.Done():
		return
	default:
	}

	select {
	case h.broadcast <- ch:
	case <-h.Done():
	}
}

// Register adds a client, reporting false when the hub is shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.Done():
		return false
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.Done():
	}
}

func (h *Hub) setRunCtx(ctx context.Context) {
	h.runCtxMu.Lock()
	h.runCtx = ctx
	h.runCtxMu.Unlock()
}

// Done returns a channel closed when the hub's run context ends. Before
// Run it returns nil, which never fires.
func (h *Hub) Done() <-chan struct{} {
	h.runCtxMu.RLock()
	defer h.runCtxMu.RUnlock()
	if h.runCtx == nil {
		return nil
	}
	return h.runCtx.Done()
}

func (h *Hub) shutdownClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func mustMarshal(v interface{}) []byte {
	b, _ := json.Marshal(v) // Should not fail for internal types
	return b
}
