package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
	"github.com/quirelab/quire/pkg/search"
)

// RankedHit pairs a record with its relevance score.
type RankedHit struct {
	Score int          `json:"score"`
	Node  model.Record `json:"node"`
}

// RankedList is the search response shape. Hits arrive sorted by
// descending score with identifier ties broken ascending, unless the
// caller supplied an explicit sort spec.
type RankedList struct {
	Hits []RankedHit `json:"hits"`
}

// Search filters records, scores the survivors against the query over
// the configured text fields, drops non-matches and returns the top
// hits. A non-empty sort spec replaces the default score ordering;
// limit passes through the same page-size policy as pagination, so 0
// means the default page size.
func (e *Engine) Search(ctx context.Context, records []model.Record, expr filter.Expr, query string, cfg search.Config, spec ordering.Spec, limit int) (*RankedList, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", model.ErrValidation)
	}
	if err := cfg.Validate(e.schema); err != nil {
		return nil, err
	}
	if err := spec.Validate(e.schema); err != nil {
		return nil, err
	}
	size, err := e.pageSize(limit)
	if err != nil {
		return nil, err
	}

	matched, err := e.filterRecords(ctx, records, expr)
	if err != nil {
		return nil, err
	}

	hits := make([]RankedHit, 0, len(matched))
	for i, r := range matched {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, model.WrapError(err)
			}
		}
		if score := search.Score(query, r, cfg); score > 0 {
			hits = append(hits, RankedHit{Score: score, Node: r})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(err)
	}

	if len(spec) > 0 {
		sort.Slice(hits, func(i, j int) bool {
			return spec.Compare(hits[i].Node, hits[j].Node) < 0
		})
	} else {
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return model.CompareIDs(hits[i].Node.GetID(), hits[j].Node.GetID()) < 0
		})
	}

	if len(hits) > size {
		hits = hits[:size]
	}
	return &RankedList{Hits: hits}, nil
}
