// Package queryapi serves the typed query surface: one POST endpoint
// per collection taking the nested filter tree, a sort list and
// connection-style pagination arguments, answering with the connection
// envelope.
package queryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/engine"
	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

const (
	// DefaultMaxBodySize bounds query request bodies.
	DefaultMaxBodySize = 1 << 20 // 1MB

	// DefaultRequestTimeout bounds query execution.
	DefaultRequestTimeout = 30 * time.Second
)

// QueryRequest is the request body of the query endpoint. Exactly one
// scan direction may be used: first/after walk forward, last/before walk
// backward. Omitting all four returns the first window at the default
// page size.
type QueryRequest struct {
	Filter    json.RawMessage `json:"filter,omitempty"`
	Sort      ordering.Spec   `json:"sort,omitempty"`
	First     *int            `json:"first,omitempty" validate:"omitempty,gte=0"`
	After     string          `json:"after,omitempty"`
	Last      *int            `json:"last,omitempty" validate:"omitempty,gte=0"`
	Before    string          `json:"before,omitempty"`
	WithTotal bool            `json:"withTotal,omitempty"`
}

// pageRequest resolves the connection arguments into an engine request.
func (q *QueryRequest) pageRequest() (engine.PageRequest, error) {
	if q.First != nil && q.Last != nil {
		return engine.PageRequest{}, fmt.Errorf("%w: first and last are mutually exclusive", model.ErrValidation)
	}
	if q.After != "" && q.Before != "" {
		return engine.PageRequest{}, fmt.Errorf("%w: after and before are mutually exclusive", model.ErrValidation)
	}

	backward := q.Last != nil || q.Before != ""
	if backward && (q.First != nil || q.After != "") {
		return engine.PageRequest{}, fmt.Errorf("%w: cannot mix forward and backward arguments", model.ErrValidation)
	}

	var req engine.PageRequest
	if backward {
		size := 0
		if q.Last != nil {
			size = *q.Last
		}
		req = engine.BackwardRequest(q.Before, size)
	} else {
		size := 0
		if q.First != nil {
			size = *q.First
		}
		req = engine.ForwardRequest(q.After, size)
	}
	if q.WithTotal {
		req = req.WithTotalCount()
	}
	return req, nil
}

// filterExpr parses the raw filter document, distinguishing an absent
// filter from a malformed one.
func (q *QueryRequest) filterExpr() (filter.Expr, error) {
	if len(q.Filter) == 0 {
		return nil, nil
	}
	return filter.Parse(q.Filter)
}

// maxBodySize wraps a handler with request body size limiting.
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout.
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// Handler serves the typed query surface over a collection registry.
type Handler struct {
	registry *gateway.Registry
}

// NewHandler creates a query handler. The registry cannot be nil.
func NewHandler(registry *gateway.Registry) *Handler {
	if registry == nil {
		panic("registry cannot be nil")
	}
	return &Handler{registry: registry}
}

// RegisterRoutes registers the query route on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query/v1/collections/{collection}",
		withTimeout(maxBodySize(h.handleQuery, DefaultMaxBodySize), DefaultRequestTimeout))
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	col, ok := h.registry.Get(r.PathValue("collection"))
	if !ok {
		gateway.WriteError(w, http.StatusNotFound, gateway.ErrCodeNotFound, "Unknown collection")
		return
	}

	req, err := decodeAndValidate[QueryRequest](r)
	if err != nil {
		gateway.WriteError(w, http.StatusBadRequest, gateway.ErrCodeBadRequest, err.Error())
		return
	}

	expr, err := req.filterExpr()
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}
	if err := filter.Validate(expr, col.Schema); err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}
	expr = gateway.CoerceTimeOperands(expr, col.Schema)

	pageReq, err := req.pageRequest()
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}

	window, err := col.Engine().Paginate(r.Context(), col.Store.Snapshot(), expr, req.Sort, pageReq)
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}

	conn, err := window.Connection()
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}
	gateway.WriteJSON(w, http.StatusOK, conn)
}
