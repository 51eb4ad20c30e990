package rest

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/quirelab/quire/pkg/engine"
	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

// queryDecoder is the shared query-string decoder. It caches struct
// metadata, so one instance serves all handlers.
var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// reservedParams are the list-endpoint parameters that are never
// interpreted as filters.
var reservedParams = map[string]bool{
	"page":      true,
	"limit":     true,
	"after":     true,
	"before":    true,
	"sort":      true,
	"withTotal": true,
	"q":         true,
}

// listParams carries the pagination controls of the list endpoint.
// Cursor tokens and page numbers are mutually exclusive; everything not
// named here is treated as a filter parameter.
type listParams struct {
	Page      int    `schema:"page" validate:"gte=0,excluded_with=After Before"`
	Limit     int    `schema:"limit"`
	After     string `schema:"after" validate:"excluded_with=Before"`
	Before    string `schema:"before"`
	Sort      string `schema:"sort"`
	WithTotal bool   `schema:"withTotal"`
}

// parseListRequest translates the query string into the canonical
// (page request, filter, sort) triple. A page number selects offset
// mode, a before token selects backward scanning, everything else is a
// forward scan where an empty after token means the first window.
func parseListRequest(query url.Values, schema model.Schema) (engine.PageRequest, filter.Expr, ordering.Spec, error) {
	var params listParams
	if err := queryDecoder.Decode(&params, query); err != nil {
		return engine.PageRequest{}, nil, nil, fmt.Errorf("%w: invalid query parameters", model.ErrValidation)
	}
	if err := validateStruct(&params); err != nil {
		return engine.PageRequest{}, nil, nil, fmt.Errorf("%w: %s", model.ErrValidation, err.Error())
	}

	expr, err := parseFilters(query, schema)
	if err != nil {
		return engine.PageRequest{}, nil, nil, err
	}
	spec := parseSort(params.Sort)

	var req engine.PageRequest
	switch {
	case params.Before != "":
		req = engine.BackwardRequest(params.Before, params.Limit)
	case params.Page > 0:
		req = engine.OffsetRequest(params.Page, params.Limit)
	default:
		req = engine.ForwardRequest(params.After, params.Limit)
	}
	if params.WithTotal {
		req = req.WithTotalCount()
	}
	return req, expr, spec, nil
}

// parseSort parses "field:asc,other:desc" into an ordering spec. A bare
// field name sorts ascending. Field and direction validity is checked by
// the engine against the collection schema.
func parseSort(raw string) ordering.Spec {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var spec ordering.Spec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dir, _ := strings.Cut(part, ":")
		spec = append(spec, ordering.Field{
			Field:     strings.TrimSpace(name),
			Direction: ordering.Direction(strings.TrimSpace(dir)),
		})
	}
	return spec
}

// parseFilters builds an AND tree from the non-reserved query parameters.
// Keys follow the field__op convention; a bare field name means equality.
// Operand strings are coerced to the field's declared kind, and list
// operands for in/not_in are comma separated.
func parseFilters(query url.Values, schema model.Schema) (filter.Expr, error) {
	keys := make([]string, 0, len(query))
	for key := range query {
		if reservedParams[key] {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	var children []filter.Expr
	for _, key := range keys {
		name, opName, hasOp := strings.Cut(key, "__")
		op := filter.OpEq
		if hasOp {
			op = filter.Op(opName)
			if !op.IsValid() {
				return nil, fmt.Errorf("%w: unknown filter operator %q", model.ErrValidation, opName)
			}
		}
		for _, raw := range query[key] {
			leaf, err := buildLeaf(name, op, raw, schema)
			if err != nil {
				return nil, err
			}
			children = append(children, leaf)
		}
	}

	if len(children) == 1 {
		return children[0], nil
	}
	return filter.And(children...), nil
}

func buildLeaf(field string, op filter.Op, raw string, schema model.Schema) (filter.Expr, error) {
	kind, ok := schema.Kind(field)
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter field %q", model.ErrValidation, field)
	}

	if !op.NeedsOperand() {
		return filter.Leaf{Field: field, Op: op}, nil
	}

	if op == filter.OpIn || op == filter.OpNotIn {
		parts := strings.Split(raw, ",")
		operand := make([]interface{}, 0, len(parts))
		for _, part := range parts {
			v, err := coerceValue(field, kind, strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			operand = append(operand, v)
		}
		return filter.Leaf{Field: field, Op: op, Operand: operand}, nil
	}

	v, err := coerceValue(field, kind, raw)
	if err != nil {
		return nil, err
	}
	return filter.Leaf{Field: field, Op: op, Operand: v}, nil
}

// coerceValue parses a raw query-string value into the field's declared
// kind. Timestamps use RFC 3339.
func coerceValue(field string, kind model.Kind, raw string) (interface{}, error) {
	switch kind {
	case model.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q expects an integer, got %q", model.ErrValidation, field, raw)
		}
		return n, nil
	case model.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q expects a number, got %q", model.ErrValidation, field, raw)
		}
		return f, nil
	case model.KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q expects a boolean, got %q", model.ErrValidation, field, raw)
		}
		return b, nil
	case model.KindTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q expects an RFC 3339 timestamp, got %q", model.ErrValidation, field, raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}
