package engine

import (
	"context"
	"sort"

	"github.com/quirelab/quire/pkg/cursor"
	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

// Paginate filters and orders records, then slices the requested window.
//
// Cursor positioning is value-based: the decoded key tuple is located by
// binary search under the active order, so the window is stable even when
// the record the cursor was minted from has since been deleted (the
// search lands on its nearest successor, silently). A token minted under
// a different sort spec is ignored rather than misapplied: forward
// requests restart from the beginning, backward ones from the end. Only
// an undecodable token is an error, surfaced as ErrMalformedCursor.
func (e *Engine) Paginate(ctx context.Context, records []model.Record, expr filter.Expr, spec ordering.Spec, req PageRequest) (*Window, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	size, err := e.pageSize(req.PageSize)
	if err != nil {
		return nil, err
	}

	ordered, err := e.prepare(ctx, records, expr, spec)
	if err != nil {
		return nil, err
	}

	var w *Window
	switch req.Mode {
	case ModeOffset:
		w = offsetWindow(ordered, req.Page, size)
	default:
		w, err = cursorWindow(ordered, spec, req.Direction, req.Cursor, size)
		if err != nil {
			return nil, err
		}
	}

	w.spec = spec
	if req.WithTotal {
		total := len(ordered)
		w.TotalCount = &total
	}
	return w, nil
}

func offsetWindow(ordered []model.Record, page, size int) *Window {
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > len(ordered) {
		start = len(ordered)
	}
	if end > len(ordered) {
		end = len(ordered)
	}

	return &Window{
		Records:     ordered[start:end],
		HasNext:     page*size < len(ordered),
		HasPrevious: page > 1,
		Page:        page,
		PageSize:    size,
		TotalPages:  (len(ordered) + size - 1) / size,
	}
}

func cursorWindow(ordered []model.Record, spec ordering.Spec, dir Direction, token string, size int) (*Window, error) {
	var decoded *cursor.Decoded
	if token != "" {
		dec, err := cursor.Decode(token)
		if err != nil {
			return nil, err
		}
		// A fingerprint or arity mismatch means the token belongs to a
		// different (filter, sort) context; ignore it instead of crashing
		// or guessing positions.
		if dec.Matches(spec.Fingerprint(), len(spec.Effective())) {
			decoded = dec
		}
	}

	if dir == Backward {
		return backwardWindow(ordered, spec, decoded, size), nil
	}
	return forwardWindow(ordered, spec, decoded, size), nil
}

func forwardWindow(ordered []model.Record, spec ordering.Spec, decoded *cursor.Decoded, size int) *Window {
	start := 0
	if decoded != nil {
		key := ordering.Key(decoded.Key)
		// First record whose key tuple strictly succeeds the decoded one.
		start = sort.Search(len(ordered), func(i int) bool {
			return spec.CompareKey(key, ordered[i]) < 0
		})
	}

	end := start + size
	if end > len(ordered) {
		end = len(ordered)
	}

	return &Window{
		Records:     ordered[start:end],
		HasNext:     end < len(ordered),
		HasPrevious: start > 0,
		PageSize:    size,
	}
}

func backwardWindow(ordered []model.Record, spec ordering.Spec, decoded *cursor.Decoded, size int) *Window {
	end := len(ordered)
	if decoded != nil {
		key := ordering.Key(decoded.Key)
		// First record at or past the decoded tuple; everything before it
		// strictly precedes the cursor position.
		end = sort.Search(len(ordered), func(i int) bool {
			return spec.CompareKey(key, ordered[i]) <= 0
		})
	}

	start := end - size
	if start < 0 {
		start = 0
	}

	return &Window{
		Records:     ordered[start:end],
		HasNext:     end < len(ordered),
		HasPrevious: start > 0,
		PageSize:    size,
	}
}
