package history

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/yiblet/cliprecall/internal/logging"
	"github.com/yiblet/cliprecall/internal/store"
)

// Store is the live history: captures update memory immediately and are
// replayed onto the backend's latest contents by a background saver, so
// several processes can share one backend without overwriting each other.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	items   []string
	rules   Rules
	backend store.Backend
	log     *logging.Logger

	// ops are the mutations not yet written. inflight is set while the saver
	// holds a batch, so Sync does not replace items with an older state.
	ops      []op
	inflight bool
	wake     chan struct{}
	done     chan struct{}
	closed   bool
}

// op is one mutation, applied to memory first and later to the backend.
// It must not modify its argument.
type op func(items []string) []string

var _ Source = (*Store)(nil)

// New creates an empty Store. A nil backend keeps history in memory only.
// Call Restore to load persisted entries and Close to flush and release the backend.
func New(backend store.Backend, opts ...Option) *Store {
	o := buildOptions(opts)
	s := &Store{
		items:   []string{},
		rules:   o.rules,
		backend: backend,
		log:     o.logger.With("component", "history"),
		done:    make(chan struct{}),
	}
	if backend == nil {
		close(s.done)
		return s
	}
	s.wake = make(chan struct{}, 1)
	go s.saveLoop()
	return s
}

// Rules returns the retention policy in effect.
func (s *Store) Rules() Rules {
	return s.rules
}

// Restore replaces history with the backend's contents. On failure history
// is left empty and the error wraps ErrPersistenceUnavailable.
func (s *Store) Restore() error {
	if s.backend == nil {
		return nil
	}

	entries, err := s.backend.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.items = []string{}
		s.log.Warn("failed to restore history", "error", err)
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}

	s.items = normalize(entries, s.rules)
	for _, o := range s.ops {
		s.items = o(s.items)
	}
	s.log.Debug("restored history", "loaded", len(entries), "kept", len(s.items))
	return nil
}

// Accept reports whether text would be stored by Capture.
func (s *Store) Accept(text string) error {
	return s.rules.Accept(text)
}

// Capture moves text to the front of history, evicting the oldest entries
// beyond capacity. Empty or rejected text is ignored. Persistence failures
// are logged, never returned.
func (s *Store) Capture(text string) {
	if err := s.rules.Accept(text); err != nil {
		s.log.Debug("capture ignored", "reason", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) > 0 && s.items[0] == text {
		return
	}
	rules := s.rules
	s.apply(func(items []string) []string {
		return insert(normalize(items, rules), text, rules.capacity())
	})
	s.log.Debug("captured", "bytes", len(text), "entries", len(s.items))
}

// Snapshot returns a copy of history, most recent first.
func (s *Store) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.items...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear empties history, including entries other processes persisted
// since this Store last read the backend.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(func([]string) []string { return []string{} })
}

// Sync reloads history from the backend to pick up captures made by other
// processes. It reports whether history changed. While local mutations are
// still being written, Sync leaves history as is.
func (s *Store) Sync() (bool, error) {
	if s.backend == nil {
		return false, nil
	}

	entries, err := s.backend.Load()
	if err != nil {
		return false, fmt.Errorf("failed to reload history: %w", err)
	}
	entries = normalize(entries, s.rules)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight || len(s.ops) > 0 || slices.Equal(entries, s.items) {
		return false, nil
	}
	s.items = entries
	return true, nil
}

// Watch calls Sync every interval until ctx is done and reports each change
// on the returned channel, which holds at most one pending notification.
func (s *Store) Watch(ctx context.Context, interval time.Duration) <-chan struct{} {
	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, err := s.Sync()
				if err != nil {
					s.log.Debug("history sync failed", "error", err)
					continue
				}
				if !changed {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()
	return changes
}

// Close waits for pending mutations to be written and closes the backend.
// History stays readable; later captures are no longer persisted.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.wake != nil {
		close(s.wake)
	}
	s.mu.Unlock()

	<-s.done
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("failed to close history backend: %w", err)
	}
	return nil
}

// apply runs o on memory and queues it for the saver. Must hold s.mu.
func (s *Store) apply(o op) {
	s.items = o(s.items)
	if s.wake == nil || s.closed {
		return
	}
	s.ops = append(s.ops, o)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) saveLoop() {
	defer close(s.done)
	for range s.wake {
		s.flush()
	}
	s.flush()
}

// flush writes every queued mutation in one backend update, then adopts the
// merged result with any mutations queued meanwhile replayed on top.
func (s *Store) flush() {
	s.mu.Lock()
	ops := s.ops
	s.ops = nil
	s.inflight = len(ops) > 0
	s.mu.Unlock()
	if len(ops) == 0 {
		return
	}

	var merged []string
	var err error
	s.log.Time("save history", func() {
		err = s.backend.Update(func(current []string) []string {
			for _, o := range ops {
				current = o(current)
			}
			merged = current
			return current
		})
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	if err != nil {
		s.log.Warn("failed to persist history", "error", err, "changes", len(ops))
		return
	}
	items := append([]string(nil), merged...)
	for _, o := range s.ops {
		items = o(items)
	}
	s.items = items
}
