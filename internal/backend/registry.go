package backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the configured backends keyed by id.
type Registry struct {
	mu        sync.RWMutex
	backends  map[string]Backend
	defaultID string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend. A later registration under the same id replaces
// the earlier one. The first backend registered becomes the default until
// SetDefault overrides it.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.backends) == 0 {
		r.defaultID = b.ID()
	}
	r.backends[b.ID()] = b
}

// SetDefault marks id as the default backend.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[id]; !ok {
		return fmt.Errorf("unknown backend %q", id)
	}
	r.defaultID = id
	return nil
}

// Get returns the backend registered under id.
func (r *Registry) Get(id string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[id]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (registered: %s)", id, strings.Join(r.idsLocked(), ", "))
	}
	return b, nil
}

// Default returns the default backend.
func (r *Registry) Default() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultID == "" {
		return nil, fmt.Errorf("no backends registered")
	}
	return r.backends[r.defaultID], nil
}

// Resolve returns the backend for id, falling back to the default when id
// is empty.
func (r *Registry) Resolve(id string) (Backend, error) {
	if id == "" {
		return r.Default()
	}
	return r.Get(id)
}

// DefaultID returns the id of the default backend, or empty when nothing is
// registered.
func (r *Registry) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

// IDs returns the registered backend ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

// All returns the registered backends sorted by id.
func (r *Registry) All() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Backend, 0, len(r.backends))
	for _, id := range r.idsLocked() {
		all = append(all, r.backends[id])
	}
	return all
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
