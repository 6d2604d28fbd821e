// Package history keeps the bounded, de-duplicated, most-recent-first list
// of captured clipboard text.
//
// Two sources implement the same contract: Store holds history in memory and
// persists it in the background; FileSource treats a flat file as the only
// source of truth and re-reads it on every snapshot.
package history

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yiblet/cliprecall/internal/logging"
)

// DefaultMaxItems is the capacity used when none is configured.
const DefaultMaxItems = 100

// DefaultRejectPatterns keeps generated patch text out of history.
var DefaultRejectPatterns = []string{
	"git apply --3way",
	"diff --git",
}

var (
	// ErrPersistenceUnavailable reports that stored history could not be read.
	// History is still usable (empty) when this is returned.
	ErrPersistenceUnavailable = errors.New("history persistence unavailable")

	// ErrRejected reports that text will never be stored.
	ErrRejected = errors.New("capture rejected")
)

// Source is what the recall session and the clipboard observer depend on.
type Source interface {
	// Capture records a clipboard observation. Rejected text is ignored.
	Capture(text string)
	// Snapshot returns entries most recent first. Callers own the slice.
	Snapshot() []string
}

// Rules is the retention policy shared by every source.
type Rules struct {
	MaxItems       int
	RejectPatterns []string
}

// DefaultRules returns the default retention policy.
func DefaultRules() Rules {
	return Rules{
		MaxItems:       DefaultMaxItems,
		RejectPatterns: append([]string(nil), DefaultRejectPatterns...),
	}
}

// Accept returns nil if text may be stored, or an error wrapping ErrRejected.
func (r Rules) Accept(text string) error {
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrRejected)
	}
	for _, p := range r.RejectPatterns {
		if p != "" && strings.Contains(text, p) {
			return fmt.Errorf("%w: contains %q", ErrRejected, p)
		}
	}
	return nil
}

func (r Rules) capacity() int {
	if r.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return r.MaxItems
}

// insert moves or adds text to the front of items and trims the tail to max.
// items is modified in place when possible; callers pass an owned slice.
func insert(items []string, text string, max int) []string {
	for i, existing := range items {
		if existing == text {
			if i == 0 {
				return items
			}
			copy(items[1:i+1], items[:i])
			items[0] = text
			return items
		}
	}

	items = append(items, "")
	copy(items[1:], items)
	items[0] = text
	if len(items) > max {
		clear(items[max:])
		items = items[:max]
	}
	return items
}

// normalize enforces the retention policy on entries read from storage,
// which may predate the current rules. The first occurrence of a duplicate wins.
func normalize(entries []string, r Rules) []string {
	return filter(entries, r, r.capacity())
}

// filter drops rejected and duplicate entries and keeps at most max.
// max <= 0 keeps everything.
func filter(entries []string, r Rules, max int) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if max > 0 && len(out) == max {
			break
		}
		if r.Accept(e) != nil {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Option configures a Store or FileSource.
type Option func(*options)

type options struct {
	rules  Rules
	logger *logging.Logger
}

func buildOptions(opts []Option) options {
	o := options{rules: DefaultRules(), logger: logging.Get()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxItems sets the history capacity. Values below 1 select DefaultMaxItems.
func WithMaxItems(n int) Option {
	return func(o *options) { o.rules.MaxItems = n }
}

// WithRejectPatterns replaces the reject markers. Text containing any marker is never stored.
func WithRejectPatterns(patterns ...string) Option {
	return func(o *options) { o.rules.RejectPatterns = append([]string(nil), patterns...) }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
