// Package memory provides external memory for context-construction
// strategies: a key/value Store with map and SQLite backends, the
// Scratchpad that records fact writes across steps, and a Summarizer
// for compressing oversized contexts.
package memory

import (
	"sync"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Store is the key/value backend behind a Scratchpad.
type Store interface {
	Put(key, value string) error
	// Get returns the stored value, or a ResourceNotFound error.
	Get(key string) (string, error)
	All() (map[string]string, error)
	Clear() error
	Close() error
}

// MapStore is the default in-memory Store.
type MapStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMapStore creates an empty in-memory store.
func NewMapStore() *MapStore {
	return &MapStore{entries: make(map[string]string)}
}

// Put implements Store.
func (s *MapStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

// Get implements Store.
func (s *MapStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return "", errors.WithFields(
			errors.New(errors.ResourceNotFound, "key not found"),
			errors.Fields{"key": key})
	}
	return value, nil
}

// All implements Store.
func (s *MapStore) All() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

// Clear implements Store.
func (s *MapStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]string)
	return nil
}

// Close implements Store.
func (s *MapStore) Close() error { return nil }
