// Package collection provides the ordered, concurrency-safe record store
// the engine paginates over. The store hands out copy-on-write snapshots:
// a snapshot clones the underlying btree under a short lock, so writers
// proceed immediately and an in-flight pagination never observes a record
// set that changes mid-computation.
package collection

import (
	"sync"

	"github.com/google/btree"

	"github.com/quirelab/quire/pkg/model"
)

// EventType represents the type of store change.
type EventType string

const (
	EventUpsert EventType = "upsert"
	EventDelete EventType = "delete"
)

// Event describes a single store change, delivered to OnChange listeners.
type Event struct {
	Type   EventType
	ID     string
	Record model.Record // snapshot of the new state, nil for deletes
}

// btreeItem wraps a record for btree storage, keyed by identifier.
type btreeItem struct {
	id  string
	rec model.Record
}

// lessFunc orders items by the identifier's natural order, matching the
// engine's tiebreaker so an unsorted snapshot already comes out id-ordered.
func lessFunc(a, b btreeItem) bool {
	return model.CompareIDs(a.id, b.id) < 0
}

// Store is an ordered record collection. Stored record maps are never
// mutated in place: Upsert stores a fresh clone and Get returns one, so
// records reachable from an earlier Snapshot stay frozen.
type Store struct {
	mu        sync.RWMutex
	tree      *btree.BTreeG[btreeItem]
	listeners []func(Event)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tree: btree.NewG[btreeItem](32, lessFunc),
	}
}

// Upsert inserts or replaces the record under its identifier.
func (s *Store) Upsert(r model.Record) error {
	rec := r.Clone()
	if err := rec.ValidateRecord(); err != nil {
		return err
	}
	id := rec.GetID()

	s.mu.Lock()
	s.tree.ReplaceOrInsert(btreeItem{id: id, rec: rec})
	s.mu.Unlock()

	s.notify(Event{Type: EventUpsert, ID: id, Record: rec.Clone()})
	return nil
}

// Delete removes the record with the given identifier. It reports whether
// a record was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, found := s.tree.Delete(btreeItem{id: id})
	s.mu.Unlock()

	if found {
		s.notify(Event{Type: EventDelete, ID: id})
	}
	return found
}

// Get returns a copy of the record with the given identifier.
func (s *Store) Get(id string) (model.Record, bool) {
	s.mu.RLock()
	item, found := s.tree.Get(btreeItem{id: id})
	s.mu.RUnlock()

	if !found {
		return nil, false
	}
	return item.rec.Clone(), true
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Snapshot returns the records in identifier order as an immutable view.
// The btree clone is copy-on-write, so the call is cheap and the returned
// slice is decoupled from all future writes.
func (s *Store) Snapshot() []model.Record {
	s.mu.RLock()
	clone := s.tree.Clone()
	s.mu.RUnlock()

	out := make([]model.Record, 0, clone.Len())
	clone.Ascend(func(item btreeItem) bool {
		out = append(out, item.rec)
		return true
	})
	return out
}

// OnChange registers a listener invoked synchronously after every
// successful Upsert or Delete. Listeners that need to block should hand
// the event off to their own goroutine.
func (s *Store) OnChange(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify(evt Event) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(evt)
	}
}
