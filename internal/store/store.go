// Package store defines the persistence interface for cliprecall's history.
// A backend loads and saves the whole ordered list of entries; all retention
// rules (dedup, capacity, reject patterns) live in the history package.
//
// Several processes may share one backend (a background watcher next to a
// popup or a capture command), so mutations go through Update, which applies
// a change to the latest persisted list while holding the backend's lock.
package store

import "errors"

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store is closed")

// Backend persists the clipboard history between runs.
type Backend interface {
	// Load returns the persisted entries, most recent first.
	// A backend with nothing persisted yet returns an empty slice and no error.
	Load() ([]string, error)

	// Save replaces the persisted entries with the given list, most recent first.
	// Callers may hand over a slice they no longer mutate; backends must not
	// retain it past the call.
	Save(entries []string) error

	// Update replaces the persisted entries with fn(current) atomically with
	// respect to other handles on the same storage, in this process or another.
	// fn may be called with a slice it is free to modify and must not retain it.
	Update(fn func(current []string) []string) error

	// Close releases any resources (DB connections, file handles, etc.).
	Close() error
}

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindBolt   Kind = "bolt"
	KindFile   Kind = "file"
	KindMemory Kind = "memory"
)

// ParseKind validates a backend name from configuration.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSQLite, KindBolt, KindFile, KindMemory:
		return k, nil
	default:
		return "", errors.New("unknown backend: " + s + " (must be sqlite, bolt, file or memory)")
	}
}
