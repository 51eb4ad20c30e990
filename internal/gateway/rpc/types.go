package rpc

import (
	"fmt"

	"github.com/quirelab/quire/pkg/engine"
	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

// OpCode enumerates filter operators on the wire. Zero is invalid so an
// omitted operator never silently means equality.
type OpCode uint8

const (
	OpInvalid OpCode = iota
	OpEq
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNotIn
	OpContains
	OpStartsWith
	OpEndsWith
	OpIsNull
	OpIsNotNull
)

var opCodes = map[OpCode]filter.Op{
	OpEq:         filter.OpEq,
	OpNeq:        filter.OpNeq,
	OpGt:         filter.OpGt,
	OpGte:        filter.OpGte,
	OpLt:         filter.OpLt,
	OpLte:        filter.OpLte,
	OpIn:         filter.OpIn,
	OpNotIn:      filter.OpNotIn,
	OpContains:   filter.OpContains,
	OpStartsWith: filter.OpStartsWith,
	OpEndsWith:   filter.OpEndsWith,
	OpIsNull:     filter.OpIsNull,
	OpIsNotNull:  filter.OpIsNotNull,
}

// Op resolves the wire code to the engine operator.
func (c OpCode) Op() (filter.Op, error) {
	op, ok := opCodes[c]
	if !ok {
		return "", fmt.Errorf("%w: unknown operator code %d", model.ErrValidation, c)
	}
	return op, nil
}

// DirCode enumerates sort directions on the wire. Zero is ascending.
type DirCode uint8

const (
	DirAsc DirCode = iota
	DirDesc
)

// Direction resolves the wire code to the engine direction.
func (c DirCode) Direction() (ordering.Direction, error) {
	switch c {
	case DirAsc:
		return ordering.Asc, nil
	case DirDesc:
		return ordering.Desc, nil
	default:
		return "", fmt.Errorf("%w: unknown direction code %d", model.ErrValidation, c)
	}
}

// Condition is one filter leaf. Leaves combine conjunctively; clients
// needing or/not compose over the HTTP query surface instead.
type Condition struct {
	Field string      `msgpack:"field"`
	Op    OpCode      `msgpack:"op"`
	Value interface{} `msgpack:"value,omitempty"`
}

// SortField is one ordering component.
type SortField struct {
	Field     string  `msgpack:"field"`
	Direction DirCode `msgpack:"direction,omitempty"`
}

// PageQuery requests one window on the page subject. Page selects
// offset mode, after/before select cursor mode; they are mutually
// exclusive.
type PageQuery struct {
	Collection string      `msgpack:"collection"`
	Filters    []Condition `msgpack:"filters,omitempty"`
	Sort       []SortField `msgpack:"sort,omitempty"`
	Page       int         `msgpack:"page,omitempty"`
	Limit      int         `msgpack:"limit,omitempty"`
	After      string      `msgpack:"after,omitempty"`
	Before     string      `msgpack:"before,omitempty"`
	WithTotal  bool        `msgpack:"withTotal,omitempty"`
}

// StreamQuery requests a full filtered traversal on the stream subject.
type StreamQuery struct {
	Collection string      `msgpack:"collection"`
	Filters    []Condition `msgpack:"filters,omitempty"`
	Sort       []SortField `msgpack:"sort,omitempty"`
}

// WireError is the failure half of a reply.
type WireError struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

// PageReply answers a PageQuery. Cursors run parallel to Records so any
// row can serve as a resume point; Page and TotalPages are set in
// offset mode only.
type PageReply struct {
	Records     []model.Record `msgpack:"records"`
	Cursors     []string       `msgpack:"cursors,omitempty"`
	HasNext     bool           `msgpack:"hasNext"`
	HasPrevious bool           `msgpack:"hasPrevious"`
	StartCursor string         `msgpack:"startCursor,omitempty"`
	EndCursor   string         `msgpack:"endCursor,omitempty"`
	Page        int            `msgpack:"page,omitempty"`
	TotalPages  int            `msgpack:"totalPages,omitempty"`
	TotalCount  *int           `msgpack:"totalCount,omitempty"`
	Error       *WireError     `msgpack:"error,omitempty"`
}

// StreamFrame is one message of a stream reply: a record frame, or the
// terminal frame carrying done plus the count, or an error frame.
type StreamFrame struct {
	Record model.Record `msgpack:"record,omitempty"`
	Done   bool         `msgpack:"done,omitempty"`
	Count  int          `msgpack:"count,omitempty"`
	Error  *WireError   `msgpack:"error,omitempty"`
}

// buildFilter builds the conjunctive filter tree from the conditions.
func buildFilter(conditions []Condition, schema model.Schema) (filter.Expr, error) {
	if len(conditions) == 0 {
		return nil, nil
	}

	children := make([]filter.Expr, len(conditions))
	for i, c := range conditions {
		op, err := c.Op.Op()
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		children[i] = filter.Leaf{Field: c.Field, Op: op, Operand: model.NormalizeValue(c.Value)}
	}

	var expr filter.Expr
	if len(children) == 1 {
		expr = children[0]
	} else {
		expr = filter.And(children...)
	}
	if err := filter.Validate(expr, schema); err != nil {
		return nil, err
	}
	return expr, nil
}

// buildSort resolves the wire sort list into an ordering spec.
func buildSort(fields []SortField) (ordering.Spec, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	spec := make(ordering.Spec, len(fields))
	for i, f := range fields {
		dir, err := f.Direction.Direction()
		if err != nil {
			return nil, fmt.Errorf("sort %d: %w", i, err)
		}
		spec[i] = ordering.Field{Field: f.Field, Direction: dir}
	}
	return spec, nil
}

// pageRequest resolves the paging arguments, mirroring the query
// surface's exclusivity rules.
func (q *PageQuery) pageRequest() (engine.PageRequest, error) {
	if q.After != "" && q.Before != "" {
		return engine.PageRequest{}, fmt.Errorf("%w: after and before are mutually exclusive", model.ErrValidation)
	}
	if q.Page > 0 && (q.After != "" || q.Before != "") {
		return engine.PageRequest{}, fmt.Errorf("%w: page cannot be combined with cursors", model.ErrValidation)
	}
	if q.Page < 0 {
		return engine.PageRequest{}, fmt.Errorf("%w: page must be positive", model.ErrValidation)
	}

	var req engine.PageRequest
	switch {
	case q.Page > 0:
		req = engine.OffsetRequest(q.Page, q.Limit)
	case q.Before != "":
		req = engine.BackwardRequest(q.Before, q.Limit)
	default:
		req = engine.ForwardRequest(q.After, q.Limit)
	}
	if q.WithTotal {
		req = req.WithTotalCount()
	}
	return req, nil
}
