package bench

import (
	"context"
	"math/rand"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder receives the outcome of every request an operation makes.
type Recorder interface {
	Record(op string, d time.Duration, err error)
}

// Operation is one runnable unit of load. Walks issue several requests
// per execution, queries exactly one; each request is recorded
// individually. Requests cut short by the end of the run are dropped
// rather than recorded as failures.
type Operation interface {
	Type() string
	Execute(ctx context.Context, client *Client, rec Recorder) error
}

// Scenario turns the configured operation mix into a weighted stream of
// operations.
type Scenario struct {
	ops     []Operation
	weights []int
	total   int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScenario builds the operation set from a validated config.
func NewScenario(cfg *Config) *Scenario {
	s := &Scenario{
		ops:     make([]Operation, 0, len(cfg.Operations)),
		weights: make([]int, 0, len(cfg.Operations)),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, oc := range cfg.Operations {
		s.ops = append(s.ops, buildOperation(oc))
		s.weights = append(s.weights, oc.Weight)
		s.total += oc.Weight
	}
	return s
}

// Next picks the next operation by weight.
func (s *Scenario) Next() Operation {
	s.mu.Lock()
	r := s.rng.Intn(s.total)
	s.mu.Unlock()

	cumulative := 0
	for i, w := range s.weights {
		cumulative += w
		if r < cumulative {
			return s.ops[i]
		}
	}
	return s.ops[len(s.ops)-1]
}

func buildOperation(oc OperationConfig) Operation {
	switch oc.Type {
	case OpOffsetWalk:
		return &offsetWalk{collection: oc.Collection, pages: oc.Pages, params: listParams(oc)}
	case OpCursorWalk:
		return &cursorWalk{collection: oc.Collection, pages: oc.Pages, params: listParams(oc)}
	case OpFiltered:
		return &filteredQuery{collection: oc.Collection, params: listParams(oc)}
	case OpSearch:
		return &searchQuery{collection: oc.Collection, queries: oc.Queries, limit: oc.Limit}
	default:
		// Validate rejects unknown types before a scenario is built.
		panic("unknown operation type " + oc.Type)
	}
}

// listParams prebuilds the shared query parameters of a list operation.
// Operations never mutate these; the client clones before adding the
// page or cursor control.
func listParams(oc OperationConfig) url.Values {
	params := url.Values{}
	if oc.PageSize > 0 {
		params.Set("limit", strconv.Itoa(oc.PageSize))
	}
	if oc.Sort != "" {
		params.Set("sort", oc.Sort)
	}
	if oc.WithTotal {
		params.Set("withTotal", "true")
	}
	for key, value := range oc.Filters {
		params.Set(key, value)
	}
	return params
}

// offsetWalk pages through a collection by page number until the last
// page or the depth cap.
type offsetWalk struct {
	collection string
	pages      int
	params     url.Values
}

func (o *offsetWalk) Type() string { return OpOffsetWalk }

func (o *offsetWalk) Execute(ctx context.Context, client *Client, rec Recorder) error {
	for page := 1; page <= o.pages; page++ {
		start := time.Now()
		env, err := client.ListOffset(ctx, o.collection, page, o.params)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec.Record(o.Type(), time.Since(start), err)
		if err != nil {
			return err
		}
		if !env.HasNext {
			break
		}
	}
	return nil
}

// cursorWalk follows end cursors through a collection until the window
// boundary or the depth cap.
type cursorWalk struct {
	collection string
	pages      int
	params     url.Values
}

func (o *cursorWalk) Type() string { return OpCursorWalk }

func (o *cursorWalk) Execute(ctx context.Context, client *Client, rec Recorder) error {
	after := ""
	for page := 0; page < o.pages; page++ {
		start := time.Now()
		conn, err := client.ListForward(ctx, o.collection, after, o.params)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec.Record(o.Type(), time.Since(start), err)
		if err != nil {
			return err
		}
		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == nil {
			break
		}
		after = *conn.PageInfo.EndCursor
	}
	return nil
}

// filteredQuery fetches the first window of a filtered listing.
type filteredQuery struct {
	collection string
	params     url.Values
}

func (o *filteredQuery) Type() string { return OpFiltered }

func (o *filteredQuery) Execute(ctx context.Context, client *Client, rec Recorder) error {
	start := time.Now()
	_, err := client.ListForward(ctx, o.collection, "", o.params)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	rec.Record(o.Type(), time.Since(start), err)
	return err
}

// searchQuery runs one ranked lookup, cycling through the configured
// query terms.
type searchQuery struct {
	collection string
	queries    []string
	limit      int
	next       atomic.Uint64
}

func (o *searchQuery) Type() string { return OpSearch }

func (o *searchQuery) Execute(ctx context.Context, client *Client, rec Recorder) error {
	term := o.queries[o.next.Add(1)%uint64(len(o.queries))]

	start := time.Now()
	_, err := client.Search(ctx, o.collection, term, o.limit)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	rec.Record(o.Type(), time.Since(start), err)
	return err
}
