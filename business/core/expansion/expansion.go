// Package expansion maintains the set of blocks a viewer has expanded. The
// set is keyed by block index only, so it survives every new snapshot of
// the chain.
package expansion

import (
	"sort"
	"sync"
)

// Set represents the block indexes that are currently expanded.
type Set struct {
	mu  sync.RWMutex
	set map[uint64]struct{}
}

// New constructs an empty expansion set.
func New() *Set {
	return &Set{
		set: make(map[uint64]struct{}),
	}
}

// Toggle adds the index if it's absent and removes it if it's present. The
// new membership of the set is returned.
func (s *Set) Toggle(index uint64) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[index]; exists {
		delete(s.set, index)
	} else {
		s.set[index] = struct{}{}
	}

	return s.copy()
}

// IsExpanded reports whether the block with the specified index is expanded.
func (s *Set) IsExpanded(index uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.set[index]
	return exists
}

// Len returns the number of expanded blocks.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.set)
}

// Copy returns the expanded indexes in ascending order.
func (s *Set) Copy() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.copy()
}

func (s *Set) copy() []uint64 {
	indexes := make([]uint64, 0, len(s.set))
	for index := range s.set {
		indexes = append(indexes, index)
	}

	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	return indexes
}
