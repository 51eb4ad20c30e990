// Package gateway exposes the pagination engine over service surfaces:
// query-string REST, a typed JSON query API, websocket streaming and an
// optional NATS responder. All of them translate their native request
// shape into the canonical (filter, sort, page request) triple, run it
// through the engine and translate the result back out.
//
// The Registry is the shared piece: it maps collection names to their
// schema, record store and search setup, and hands every collection an
// engine built from one common set of options.
package gateway

import (
	"fmt"
	"sort"
	"sync"

	"github.com/quirelab/quire/pkg/collection"
	"github.com/quirelab/quire/pkg/engine"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/search"
)

// Collection bundles everything the surfaces need to serve one record
// collection.
type Collection struct {
	Name   string
	Schema model.Schema
	Store  *collection.Store

	// Search configures ranked lookups. A zero value disables the
	// search surface for this collection.
	Search search.Config

	engine *engine.Engine
}

// Engine returns the pagination engine bound to this collection's schema.
func (c *Collection) Engine() *engine.Engine {
	return c.engine
}

// Searchable reports whether ranked search is configured.
func (c *Collection) Searchable() bool {
	return len(c.Search.Fields) > 0
}

// Registry is the set of served collections. Safe for concurrent use;
// collections are usually registered once at startup and read ever after.
type Registry struct {
	mu   sync.RWMutex
	opts engine.Options
	cols map[string]*Collection
}

// NewRegistry creates an empty registry. Every added collection gets an
// engine configured with opts.
func NewRegistry(opts engine.Options) *Registry {
	return &Registry{
		opts: opts,
		cols: make(map[string]*Collection),
	}
}

// Add registers a collection under the given name with an empty store.
// The search config may be zero to disable ranked search.
func (r *Registry) Add(name string, schema model.Schema, searchCfg search.Config) (*Collection, error) {
	if !model.CheckRecordID(name) {
		return nil, fmt.Errorf("%w: invalid collection name %q", model.ErrValidation, name)
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("collection %q: %w", name, err)
	}
	if len(searchCfg.Fields) > 0 {
		if err := searchCfg.Validate(schema); err != nil {
			return nil, fmt.Errorf("collection %q: %w", name, err)
		}
	}

	col := &Collection{
		Name:   name,
		Schema: schema,
		Store:  collection.NewStore(),
		Search: searchCfg,
		engine: engine.New(schema, r.opts),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cols[name]; exists {
		return nil, fmt.Errorf("%w: collection %q already registered", model.ErrValidation, name)
	}
	r.cols[name] = col
	return col, nil
}

// Get returns the collection registered under name.
func (r *Registry) Get(name string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.cols[name]
	return col, ok
}

// Names returns the registered collection names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.cols))
	for name := range r.cols {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Each calls fn for every registered collection. Registration order is
// not preserved; fn runs outside the registry lock.
func (r *Registry) Each(fn func(*Collection)) {
	r.mu.RLock()
	cols := make([]*Collection, 0, len(r.cols))
	for _, col := range r.cols {
		cols = append(cols, col)
	}
	r.mu.RUnlock()

	for _, col := range cols {
		fn(col)
	}
}
