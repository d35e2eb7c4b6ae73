// Package expansion remembers which folders the user expanded or collapsed,
// independently of any particular tree snapshot.
package expansion

import (
	"sync"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/tree"
)

// Store maps node keys to their last recorded expansion state.
// A key that was never toggled keeps whatever the snapshot says.
type Store struct {
	mu       sync.RWMutex
	expanded map[string]bool
}

func New() *Store {
	return &Store{expanded: make(map[string]bool)}
}

// RecordToggle flips the folder's expansion, stores the post-toggle state
// and returns it. Files are ignored and report false.
func (s *Store) RecordToggle(n *tree.Node) bool {
	if n == nil || !n.IsFolder {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state := !n.Expanded
	s.expanded[n.Key] = state
	debug.Log(debug.TREE, "expansion: %s -> %v", n.Key, state)
	return state
}

// Set records an explicit state for key.
func (s *Store) Set(key string, expanded bool) {
	s.mu.Lock()
	s.expanded[key] = expanded
	s.mu.Unlock()
}

// Expanded returns the recorded state and whether one exists.
func (s *Store) Expanded(key string) (expanded, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expanded, ok = s.expanded[key]
	return expanded, ok
}

// Restore applies every recorded entry to the folders under root.
// Calling it twice has the same effect as calling it once.
func (s *Store) Restore(root *tree.Node) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.expanded) == 0 {
		return
	}
	applied := 0
	tree.Walk(root, func(n *tree.Node, _ int) bool {
		if !n.IsFolder {
			return false
		}
		if state, ok := s.expanded[n.Key]; ok {
			n.Expanded = state
			applied++
		}
		return true
	})
	debug.Log(debug.TREE, "expansion: restored %d of %d entries", applied, len(s.expanded))
}

// Reset forgets everything.
func (s *Store) Reset() {
	s.mu.Lock()
	s.expanded = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expanded)
}

// Snapshot returns a copy of the recorded entries.
func (s *Store) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyStringBoolMap(s.expanded)
}

func copyStringBoolMap(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	result := make(map[string]bool, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
