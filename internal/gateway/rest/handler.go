// Package rest serves collections over a query-string driven HTTP API.
// Pagination mode, sorting and filters are all expressed as URL
// parameters; responses reuse the engine's envelope types verbatim.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/model"
)

// Default request timeout for list and search handlers.
const DefaultRequestTimeout = 30 * time.Second

// withTimeout wraps a handler with a context timeout.
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// Handler serves the REST surface over a collection registry.
type Handler struct {
	registry *gateway.Registry
}

// NewHandler creates a REST handler. The registry cannot be nil.
func NewHandler(registry *gateway.Registry) *Handler {
	if registry == nil {
		panic("registry cannot be nil")
	}
	return &Handler{registry: registry}
}

// RegisterRoutes registers the REST routes on the given mux.
// Request ID and panic recovery are handled by the server middleware.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/collections", withTimeout(h.handleListCollections, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/collections/{collection}/records", withTimeout(h.handleListRecords, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/collections/{collection}/records/{id}", withTimeout(h.handleGetRecord, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/collections/{collection}/search", withTimeout(h.handleSearch, DefaultRequestTimeout))

	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}

// collectionOrError resolves the {collection} path value against the
// registry, writing a 404 when it is unknown.
func (h *Handler) collectionOrError(w http.ResponseWriter, r *http.Request) (*gateway.Collection, bool) {
	name := r.PathValue("collection")
	col, ok := h.registry.Get(name)
	if !ok {
		gateway.WriteError(w, http.StatusNotFound, gateway.ErrCodeNotFound, "Unknown collection")
		return nil, false
	}
	return col, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// collectionInfo is the list-collections response item.
type collectionInfo struct {
	Name       string       `json:"name"`
	Fields     model.Schema `json:"fields"`
	Records    int          `json:"records"`
	Searchable bool         `json:"searchable"`
}

func (h *Handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	infos := make([]collectionInfo, 0, len(names))
	for _, name := range names {
		col, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, collectionInfo{
			Name:       col.Name,
			Fields:     col.Schema,
			Records:    col.Store.Len(),
			Searchable: col.Searchable(),
		})
	}
	gateway.WriteJSON(w, http.StatusOK, map[string]interface{}{"collections": infos})
}
