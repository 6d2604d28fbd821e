package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/yiblet/cliprecall/internal/logging"
	"github.com/yiblet/cliprecall/internal/store/filestore"
)

// FileSource uses a flat file as the only source of truth. Every Snapshot
// re-reads the file, so edits made by other programs show up on the next open.
// Every line of the file is listed; capacity only trims what Capture writes.
type FileSource struct {
	mu    sync.Mutex
	file  *filestore.FileStore
	rules Rules
	log   *logging.Logger
}

var _ Source = (*FileSource)(nil)

// NewFileSource returns a source backed by file.
func NewFileSource(file *filestore.FileStore, opts ...Option) *FileSource {
	o := buildOptions(opts)
	return &FileSource{
		file:  file,
		rules: o.rules,
		log:   o.logger.With("component", "history", "path", file.Path()),
	}
}

// Path returns the backing file path.
func (f *FileSource) Path() string {
	return f.file.Path()
}

// Snapshot reads the file and returns its entries, most recent first.
// An unreadable file yields an empty history.
func (f *FileSource) Snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Capture applies the same rules as Store.Capture and rewrites the file
// under its lock, so concurrent writers never drop each other's entries.
func (f *FileSource) Capture(text string) {
	if err := f.rules.Accept(text); err != nil {
		f.log.Debug("capture ignored", "reason", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.file.Update(func(current []string) []string {
		items := filter(current, f.rules, 0)
		if len(items) > 0 && items[0] == text {
			return items
		}
		return insert(items, text, f.rules.capacity())
	})
	if err != nil {
		f.log.Warn("failed to write history file", "error", err)
	}
}

// Clear truncates the history file.
func (f *FileSource) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.file.Update(func([]string) []string { return nil }); err != nil {
		return fmt.Errorf("failed to clear history file: %w", err)
	}
	return nil
}

// load must be called with f.mu held.
func (f *FileSource) load() []string {
	entries, err := f.file.Load()
	if err != nil {
		f.log.Warn("failed to read history file", "error", err)
		return []string{}
	}
	return filter(entries, f.rules, 0)
}

// Watch reports changes to the history file until ctx is done. Bursts of
// events are coalesced: the channel holds at most one pending notification.
// The parent directory is watched so atomic replace-by-rename is seen.
func (f *FileSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	path := filepath.Clean(f.file.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.log.Warn("history file watcher error", "error", err)
			}
		}
	}()

	return changes, nil
}

// Close releases the file store. Watchers stop with their context.
func (f *FileSource) Close() error {
	return f.file.Close()
}
