// Package memstore provides an in-memory implementation of store.Backend.
// It backs the ephemeral mode and unit tests; data exists only for the
// lifetime of the process.
package memstore

import (
	"sync"

	"github.com/yiblet/cliprecall/internal/store"
)

// MemoryStore is an in-memory implementation of store.Backend.
// It is thread-safe via a mutex and can be told to fail for testing
// the best-effort persistence paths.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []string
	saves   int
	loadErr error
	saveErr error
	closed  bool
}

// NewMemoryStore creates a new, empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates an in-memory store pre-populated with entries,
// most recent first.
func NewMemoryStoreWith(entries ...string) *MemoryStore {
	return &MemoryStore{entries: append([]string(nil), entries...)}
}

// Load returns a copy of the stored entries.
func (m *MemoryStore) Load() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, store.ErrClosed
	}
	if m.loadErr != nil {
		return nil, m.loadErr
	}

	// Return copy to prevent external modification
	result := make([]string, len(m.entries))
	copy(result, m.entries)
	return result, nil
}

// Save replaces the stored entries with a copy of entries.
func (m *MemoryStore) Save(entries []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return store.ErrClosed
	}
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}

	m.entries = append(m.entries[:0:0], entries...)
	return nil
}

// Update applies fn to a copy of the stored entries under the store's lock.
// It counts as a save for Saves and SetSaveError.
func (m *MemoryStore) Update(fn func([]string) []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return store.ErrClosed
	}
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}

	m.entries = append(m.entries[:0:0], fn(append([]string(nil), m.entries...))...)
	return nil
}

// Close marks the store closed. Later Load and Save calls fail.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetLoadError makes subsequent Load calls fail with err (nil restores normal behavior).
func (m *MemoryStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetSaveError makes subsequent Save calls fail with err (nil restores normal behavior).
func (m *MemoryStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns how many times Save or Update has been called, including failed calls.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Entries returns the stored entries without going through Load (for testing).
func (m *MemoryStore) Entries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.entries...)
}
