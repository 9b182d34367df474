// Package game keeps track of the roulette tables that are currently open.
package game

import (
	"fmt"
	"sort"
	"sync"

	"roulette-table/internal/game/roulette"
)

// Registry manages open tables keyed by table id.
// It is safe for concurrent use; the tables it holds are not.
type Registry struct {
	tables map[string]*roulette.Table
	mu     sync.RWMutex
}

// NewRegistry creates a new table registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*roulette.Table),
	}
}

// Register adds a table to the registry. Registering a second table under
// an id that is already open is an error.
func (r *Registry) Register(t *roulette.Table) error {
	if t == nil {
		return fmt.Errorf("cannot register nil table")
	}
	if t.ID() == "" {
		return fmt.Errorf("table id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.ID()]; ok {
		return fmt.Errorf("table %s already registered", t.ID())
	}
	r.tables[t.ID()] = t
	return nil
}

// Get retrieves a table by id.
func (r *Registry) Get(id string) (*roulette.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	return t, ok
}

// IDs returns the ids of all open tables, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of open tables.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}

// Unregister removes a table by id.
// Returns true if the table was found and removed, false otherwise.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[id]; ok {
		delete(r.tables, id)
		return true
	}
	return false
}
