// Package boltstore persists history as a single JSON document in a bbolt bucket.
//
// bbolt locks the database file for as long as it is open, so the store
// opens it per operation. A long-running watcher and a popup can then share
// one file; each waits at most openTimeout for the other's transaction.
package boltstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yiblet/cliprecall/internal/store"
	"go.etcd.io/bbolt"
)

const (
	historyBucket = "history"
	entriesKey    = "entries"
	savedAtKey    = "saved_at"
)

// openTimeout bounds how long an operation waits for the file lock held by another handle.
const openTimeout = 2 * time.Second

// BoltStore is a bbolt-backed implementation of store.Backend.
type BoltStore struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// NewBoltStore creates the database at dbPath if needed and checks it can be opened.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	s := &BoltStore{path: dbPath}
	err := s.with(false, func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(historyBucket))
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// with opens the database, runs fn and closes it again.
func (s *BoltStore) with(readOnly bool, fn func(db *bbolt.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	db, err := bbolt.Open(s.path, 0o600, &bbolt.Options{Timeout: openTimeout, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	err = fn(db)
	if cerr := db.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	return err
}

// Load returns the stored entries, newest first.
func (s *BoltStore) Load() ([]string, error) {
	var entries []string
	err := s.with(true, func(db *bbolt.DB) error {
		return db.View(func(tx *bbolt.Tx) error {
			var err error
			entries, err = readEntries(tx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces the stored entries.
func (s *BoltStore) Save(entries []string) error {
	return s.Update(func([]string) []string { return entries })
}

// Update writes fn applied to the stored entries in one write transaction.
func (s *BoltStore) Update(fn func([]string) []string) error {
	err := s.with(false, func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			current, err := readEntries(tx)
			if err != nil {
				return err
			}
			next := fn(current)
			if next == nil {
				next = []string{}
			}
			encoded, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("failed to encode entries: %w", err)
			}

			b := tx.Bucket([]byte(historyBucket))
			if err := b.Put([]byte(entriesKey), encoded); err != nil {
				return err
			}
			return b.Put([]byte(savedAtKey), []byte(time.Now().UTC().Format(time.RFC3339Nano)))
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// readEntries decodes the entries document; a missing one is an empty history.
func readEntries(tx *bbolt.Tx) ([]string, error) {
	entries := []string{}
	b := tx.Bucket([]byte(historyBucket))
	if b == nil {
		return entries, nil
	}
	v := b.Get([]byte(entriesKey))
	if v == nil {
		return entries, nil
	}
	if err := json.Unmarshal(v, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	return entries, nil
}

// SavedAt returns when entries were last saved, or the zero time if never.
func (s *BoltStore) SavedAt() (time.Time, error) {
	var savedAt time.Time
	err := s.with(true, func(db *bbolt.DB) error {
		return db.View(func(tx *bbolt.Tx) error {
			v := tx.Bucket([]byte(historyBucket)).Get([]byte(savedAtKey))
			if v == nil {
				return nil
			}
			t, err := time.Parse(time.RFC3339Nano, string(v))
			if err != nil {
				return fmt.Errorf("failed to parse timestamp: %w", err)
			}
			savedAt = t
			return nil
		})
	})
	return savedAt, err
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

// Close marks the store closed. Later operations fail with store.ErrClosed.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
