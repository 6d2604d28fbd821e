// Package filestore keeps history in a flat file, oldest entry first.
//
// The file is either a JSON array of strings or plain text with one entry
// per line. Load accepts both; Save writes the format the store was built with.
package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/flock"
)

// Format selects the on-disk encoding written by Save.
type Format int

const (
	// FormatJSON writes a JSON array of strings.
	FormatJSON Format = iota
	// FormatLines writes one entry per line. Entries containing newlines
	// are split on reload.
	FormatLines
)

// FileStore is a flat-file implementation of store.Backend.
type FileStore struct {
	path   string
	format Format
}

// NewFileStore returns a store reading and writing path.
// The file is not touched until Load or Save.
func NewFileStore(path string, format Format) *FileStore {
	return &FileStore{path: path, format: format}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file and returns its entries newest first.
// A missing or unparsable file yields an empty history.
func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	entries := Parse(data)
	slices.Reverse(entries)
	return entries, nil
}

// Parse decodes file contents in file order (oldest first).
// JSON arrays are tried first, then newline-separated UTF-8 text.
// Anything else decodes to an empty list.
func Parse(data []byte) []string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []string{}
	}

	if trimmed[0] == '[' {
		var arr []string
		if err := json.Unmarshal(trimmed, &arr); err == nil {
			return arr
		}
	}

	if !utf8.Valid(data) {
		return []string{}
	}

	lines := strings.FieldsFunc(string(data), func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	return lines
}

// Save writes entries (newest first) to the file, oldest first.
func (s *FileStore) Save(entries []string) error {
	return s.Update(func([]string) []string { return entries })
}

// Update rewrites the file with fn applied to its current entries. Writers
// serialize on an advisory lock next to the file; readers never block since
// the file is replaced by an atomic temp file + rename.
func (s *FileStore) Update(fn func([]string) []string) error {
	if s.path == "" {
		return errors.New("history path is empty")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	lock := flock.New(s.LockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock history file: %w", err)
	}
	defer lock.Unlock()

	current, err := s.Load()
	if err != nil {
		return err
	}
	return s.write(fn(current))
}

// LockPath returns the advisory lock file guarding writes.
func (s *FileStore) LockPath() string {
	return s.path + ".lock"
}

// write encodes entries and replaces the file. Must hold the lock.
func (s *FileStore) write(entries []string) error {
	ordered := slices.Clone(entries)
	slices.Reverse(ordered)

	var data []byte
	switch s.format {
	case FormatLines:
		if len(ordered) > 0 {
			data = []byte(strings.Join(ordered, "\n") + "\n")
		}
	default:
		if ordered == nil {
			ordered = []string{}
		}
		encoded, err := json.MarshalIndent(ordered, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		data = append(encoded, '\n')
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write history: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Update.
func (s *FileStore) Close() error {
	return nil
}
