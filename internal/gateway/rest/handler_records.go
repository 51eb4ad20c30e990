package rest

import (
	"net/http"

	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/engine"
)

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collectionOrError(w, r)
	if !ok {
		return
	}

	req, expr, spec, err := parseListRequest(r.URL.Query(), col.Schema)
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}

	window, err := col.Engine().Paginate(r.Context(), col.Store.Snapshot(), expr, spec, req)
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}

	// Offset windows carry page arithmetic, cursor windows carry edge
	// tokens. The two envelope shapes are deliberately distinct.
	if req.Mode == engine.ModeOffset {
		gateway.WriteJSON(w, http.StatusOK, window.OffsetPage())
		return
	}

	conn, err := window.Connection()
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}
	gateway.WriteJSON(w, http.StatusOK, conn)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collectionOrError(w, r)
	if !ok {
		return
	}

	rec, found := col.Store.Get(r.PathValue("id"))
	if !found {
		gateway.WriteError(w, http.StatusNotFound, gateway.ErrCodeNotFound, "Record not found")
		return
	}
	gateway.WriteJSON(w, http.StatusOK, rec)
}

// searchParams carries the controls of the search endpoint. Filters ride
// along in the same field__op form as the list endpoint.
type searchParams struct {
	Query string `schema:"q" validate:"required"`
	Limit int    `schema:"limit"`
	Sort  string `schema:"sort"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	col, ok := h.collectionOrError(w, r)
	if !ok {
		return
	}
	if !col.Searchable() {
		gateway.WriteError(w, http.StatusNotFound, gateway.ErrCodeNotFound, "Collection is not searchable")
		return
	}

	var params searchParams
	if err := queryDecoder.Decode(&params, r.URL.Query()); err != nil {
		gateway.WriteError(w, http.StatusBadRequest, gateway.ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	if err := validateStruct(&params); err != nil {
		gateway.WriteError(w, http.StatusBadRequest, gateway.ErrCodeBadRequest, err.Error())
		return
	}

	expr, err := parseFilters(r.URL.Query(), col.Schema)
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}
	spec := parseSort(params.Sort)

	ranked, err := col.Engine().Search(r.Context(), col.Store.Snapshot(), expr, params.Query, col.Search, spec, params.Limit)
	if err != nil {
		gateway.WriteEngineError(w, r, err)
		return
	}
	gateway.WriteJSON(w, http.StatusOK, ranked)
}
