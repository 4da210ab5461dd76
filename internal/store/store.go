// Package store keeps the most recently finished projects in memory.
package store

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned for unknown or evicted IDs.
var ErrNotFound = errors.New("project not found")

// Store is a fixed-size LRU keyed by project ID. It is safe for concurrent use.
type Store[T any] struct {
	cache *lru.Cache[string, T]
}

// New returns a store holding at most size entries.
func New[T any](size int) (*Store[T], error) {
	cache, err := lru.New[string, T](size)
	if err != nil {
		return nil, fmt.Errorf("create project cache: %w", err)
	}
	return &Store[T]{cache: cache}, nil
}

// Put adds or refreshes an entry, evicting the least recently used one when full.
func (s *Store[T]) Put(id string, v T) {
	s.cache.Add(id, v)
}

// Get returns the entry for id and marks it recently used.
func (s *Store[T]) Get(id string) (T, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v, nil
}

// IDs lists stored IDs from oldest to newest.
func (s *Store[T]) IDs() []string { return s.cache.Keys() }

func (s *Store[T]) Len() int { return s.cache.Len() }
