// Package shadow implements the shadow store and the rewriter that evaluates
// sub-expressions of a binding form with previously captured values in scope.
//
// A shadow is a namespace-level variable holding the last evaluated value of an
// otherwise-local binding. Shadows let a session re-run any step of a let-style
// pipeline in isolation: earlier steps resolve to their stored values instead
// of being recomputed.
package shadow

import (
	"sort"
	"sync"

	"github.com/replforge/shadowlet/internal/interp"
)

// Store maps name to last-evaluated value, scoped per namespace. Namespaces are
// created lazily on first write and entries are removed only by Clear.
//
// The store is safe for concurrent use: the REPL's init-file watcher can write
// while the interactive session reads.
type Store struct {
	mu     sync.RWMutex
	spaces map[string]map[string]interp.Value
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{spaces: make(map[string]map[string]interp.Value)}
}

// Get returns the shadow value bound to name in namespace ns.
func (s *Store) Get(ns, name string) (interp.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.spaces[ns][name]
	return v, ok
}

// Set binds name to v in namespace ns, overwriting any previous value.
func (s *Store) Set(ns, name string, v interp.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	space, ok := s.spaces[ns]
	if !ok {
		space = make(map[string]interp.Value)
		s.spaces[ns] = space
	}
	space[name] = v
}

// Names returns the shadow names in namespace ns, sorted.
func (s *Store) Names(ns string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.spaces[ns]))
	for name := range s.spaces[ns] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all shadows in namespace ns.
func (s *Store) Snapshot(ns string) map[string]interp.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interp.Value, len(s.spaces[ns]))
	for name, v := range s.spaces[ns] {
		out[name] = v
	}
	return out
}

// Namespaces returns all namespaces that hold at least one shadow, sorted.
func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.spaces))
	for ns, space := range s.spaces {
		if len(space) > 0 {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}

// Clear removes every shadow in namespace ns and returns how many were removed.
func (s *Store) Clear(ns string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.spaces[ns])
	delete(s.spaces, ns)
	return n
}
