package engine

import (
	"context"

	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

// Stream filters and orders records, then hands them to fn one at a time
// without materializing a window. Cancellation is checked before every
// callback, so a slow consumer stops within one record of its context
// ending. A non-nil error from fn aborts the traversal and is returned
// as-is.
func (e *Engine) Stream(ctx context.Context, records []model.Record, expr filter.Expr, spec ordering.Spec, fn func(model.Record) error) error {
	ordered, err := e.prepare(ctx, records, expr, spec)
	if err != nil {
		return err
	}

	for _, r := range ordered {
		if err := ctx.Err(); err != nil {
			return model.WrapError(err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
