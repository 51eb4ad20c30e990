package engine

import (
	"github.com/quirelab/quire/pkg/cursor"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

// Window is one slice of a filtered, ordered traversal. Page and
// TotalPages are populated in offset mode only; TotalCount only when the
// request asked for it. Records alias the engine's working slice and
// must not be mutated.
type Window struct {
	Records     []model.Record
	HasNext     bool
	HasPrevious bool
	TotalCount  *int
	Page        int
	PageSize    int
	TotalPages  int

	spec ordering.Spec
}

// OffsetPage is the page-numbered response shape.
type OffsetPage struct {
	Items       []model.Record `json:"items"`
	Page        int            `json:"page"`
	PageSize    int            `json:"pageSize"`
	TotalPages  int            `json:"totalPages"`
	TotalCount  *int           `json:"totalCount,omitempty"`
	HasNext     bool           `json:"hasNext"`
	HasPrevious bool           `json:"hasPrevious"`
}

// Edge pairs a record with the token addressing its position.
type Edge struct {
	Cursor string       `json:"cursor"`
	Node   model.Record `json:"node"`
}

// PageInfo summarizes a connection's traversal state. Start and end
// cursors are omitted entirely on an empty window.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor,omitempty"`
	EndCursor       *string `json:"endCursor,omitempty"`
}

// Connection is the cursor-based response shape: one edge per record,
// each carrying a token minted under the window's sort context.
type Connection struct {
	Edges      []Edge   `json:"edges"`
	PageInfo   PageInfo `json:"pageInfo"`
	TotalCount *int     `json:"totalCount,omitempty"`
}

// OffsetPage shapes the window for page-numbered clients.
func (w *Window) OffsetPage() *OffsetPage {
	items := w.Records
	if items == nil {
		items = []model.Record{}
	}
	return &OffsetPage{
		Items:       items,
		Page:        w.Page,
		PageSize:    w.PageSize,
		TotalPages:  w.TotalPages,
		TotalCount:  w.TotalCount,
		HasNext:     w.HasNext,
		HasPrevious: w.HasPrevious,
	}
}

// Connection shapes the window for cursor-based clients, minting one
// token per edge so any row can serve as the next resume point.
func (w *Window) Connection() (*Connection, error) {
	fp := w.spec.Fingerprint()
	edges := make([]Edge, len(w.Records))
	for i, r := range w.Records {
		token, err := cursor.Encode(fp, w.spec.Key(r))
		if err != nil {
			return nil, err
		}
		edges[i] = Edge{Cursor: token, Node: r}
	}

	info := PageInfo{
		HasNextPage:     w.HasNext,
		HasPreviousPage: w.HasPrevious,
	}
	if len(edges) > 0 {
		start := edges[0].Cursor
		end := edges[len(edges)-1].Cursor
		info.StartCursor = &start
		info.EndCursor = &end
	}

	return &Connection{
		Edges:      edges,
		PageInfo:   info,
		TotalCount: w.TotalCount,
	}, nil
}
