// Package engine orchestrates filtering, ordering and windowing into page
// results. It is the seam the service surfaces share: every transport
// translates its native request into a (filter, sort, page request)
// triple, calls Paginate, Stream or Search, and shapes the outcome back
// into its wire format.
//
// The engine is stateless: each call is a pure function of its inputs,
// safe to run concurrently from any goroutine, and never mutates the
// records it is given. Callers holding mutable collections pass an
// immutable snapshot (pkg/collection provides copy-on-write snapshots).
//
// # Usage
//
//	eng := engine.New(schema, engine.Options{MaxPageSize: 100})
//	win, err := eng.Paginate(ctx, records, flt, sort, engine.ForwardRequest(token, 25))
//	conn, err := win.Connection()
package engine

import (
	"context"
	"fmt"

	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

const (
	// DefaultMaxPageSize caps window sizes when Options does not.
	DefaultMaxPageSize = 100
	// DefaultPageSize is used when a request leaves the size unset.
	DefaultPageSize = 25

	// cancelCheckInterval is how many records the filter stage scans
	// between context checks.
	cancelCheckInterval = 1024
)

// Options configures an Engine. The zero value gets sensible defaults.
type Options struct {
	// MaxPageSize bounds every window. Zero means DefaultMaxPageSize.
	MaxPageSize int
	// DefaultPageSize is applied when a request's page size is zero.
	// Zero means the package default.
	DefaultPageSize int
	// RejectOversizedPage returns ErrPageSizeOutOfRange for explicit
	// out-of-range sizes instead of clamping them to the nearest bound.
	RejectOversizedPage bool
	// StrictFilters makes type-mismatched filter leaves fail the call
	// with ErrUnsupportedOperator instead of silently matching nothing.
	StrictFilters bool
}

// Engine evaluates page requests over in-memory record sets.
type Engine struct {
	schema model.Schema
	eval   *filter.Evaluator
	opts   Options
}

// New creates an engine for the given schema. It panics on a structurally
// invalid schema, which is a caller contract violation rather than bad
// end-user input.
func New(schema model.Schema, opts Options) *Engine {
	if err := schema.Validate(); err != nil {
		panic(fmt.Sprintf("engine: invalid schema: %v", err))
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = DefaultMaxPageSize
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	return &Engine{
		schema: schema,
		eval:   filter.NewEvaluator(schema, opts.StrictFilters),
		opts:   opts,
	}
}

// Schema returns the schema the engine validates against.
func (e *Engine) Schema() model.Schema {
	return e.schema
}

// Options returns the engine's effective configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// pageSize resolves a requested size against the configured bounds:
// zero takes the default, out-of-range values clamp to the nearest bound
// unless the application opted into rejection.
func (e *Engine) pageSize(requested int) (int, error) {
	if requested == 0 {
		return e.opts.DefaultPageSize, nil
	}
	if requested < 1 {
		if e.opts.RejectOversizedPage {
			return 0, fmt.Errorf("%w: %d is below 1", model.ErrPageSizeOutOfRange, requested)
		}
		return 1, nil
	}
	if requested > e.opts.MaxPageSize {
		if e.opts.RejectOversizedPage {
			return 0, fmt.Errorf("%w: %d exceeds %d", model.ErrPageSizeOutOfRange, requested, e.opts.MaxPageSize)
		}
		return e.opts.MaxPageSize, nil
	}
	return requested, nil
}

// filterRecords prunes records down to those matching expr, checking ctx
// periodically so an abandoned request stops burning CPU.
func (e *Engine) filterRecords(ctx context.Context, records []model.Record, expr filter.Expr) ([]model.Record, error) {
	out := make([]model.Record, 0, len(records))
	for i, r := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, model.WrapError(err)
			}
		}
		ok, err := e.eval.Matches(r, expr)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// prepare runs the shared filter and sort stages, returning the ordered
// filtered set.
func (e *Engine) prepare(ctx context.Context, records []model.Record, expr filter.Expr, spec ordering.Spec) ([]model.Record, error) {
	if err := spec.Validate(e.schema); err != nil {
		return nil, err
	}

	filtered, err := e.filterRecords(ctx, records, expr)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}

	spec.Sort(filtered)

	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	return filtered, nil
}
