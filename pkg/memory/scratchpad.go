package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Scratchpad is external memory for facts that must outlive the context
// window. Every operation is recorded in an append-only history. A
// scratchpad belongs to a single experiment iteration and is never shared.
type Scratchpad struct {
	mu      sync.Mutex
	store   Store
	history []string
}

// NewScratchpad creates a scratchpad over the given store. A nil store
// gets an in-memory MapStore.
func NewScratchpad(store Store) *Scratchpad {
	if store == nil {
		store = NewMapStore()
	}
	return &Scratchpad{store: store}
}

// Write stores a value under key.
func (s *Scratchpad) Write(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Put(key, value); err != nil {
		return err
	}
	s.history = append(s.history, fmt.Sprintf("WRITE: %s = %s", key, value))
	return nil
}

// Read returns the value for key and whether it was present. A hit is
// recorded in the history; a miss is not.
func (s *Scratchpad) Read(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.store.Get(key)
	if err != nil {
		return "", false
	}
	s.history = append(s.history, fmt.Sprintf("READ: %s = %s", key, value))
	return value, true
}

// ReadAll returns a copy of all stored entries.
func (s *Scratchpad) ReadAll() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// Clear removes all entries.
func (s *Scratchpad) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return err
	}
	s.history = append(s.history, "CLEAR: All memory cleared")
	return nil
}

// Summary renders the stored entries for inclusion in a prompt context.
// Entries are sorted by key for a stable rendering.
func (s *Scratchpad) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.All()
	if err != nil || len(entries) == 0 {
		return "Scratchpad is empty."
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Scratchpad Memory:")
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  - %s: %s", k, entries[k]))
	}
	return strings.Join(lines, "\n")
}

// Len returns the number of stored entries.
func (s *Scratchpad) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.All()
	if err != nil {
		return 0
	}
	return len(entries)
}

// History returns a copy of the operation log.
func (s *Scratchpad) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Close releases the underlying store.
func (s *Scratchpad) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Close(); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to close scratchpad store")
	}
	return nil
}
