// Package recall drives one popup's worth of history recall: filtering by
// query, moving a wraparound cursor, and committing a choice, which restores
// the previously focused application and pastes into it after a short delay.
package recall

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yiblet/cliprecall/internal/desktop"
	"github.com/yiblet/cliprecall/internal/history"
	"github.com/yiblet/cliprecall/internal/logging"
)

const (
	// DefaultResultLimit caps the filtered list.
	DefaultResultLimit = 30
	// DefaultSettleDelay is how long to wait after restoring focus before pasting.
	DefaultSettleDelay = 100 * time.Millisecond
)

// ErrInvalidSelection is returned by Selected when nothing is selected.
var ErrInvalidSelection = errors.New("no valid selection")

// State is the session lifecycle state.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Timer is a cancelable scheduled action.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn after d. The default is time.AfterFunc.
type Scheduler func(d time.Duration, fn func()) Timer

func afterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Rows is the read side consumed by renderers.
type Rows interface {
	RowCount() int
	RowText(i int) string
	MatchSpan(i int) (start, end int, ok bool)
	Cursor() int
}

// Option configures a Session.
type Option func(*Session)

// WithResultLimit caps the filtered list. Values below 1 select DefaultResultLimit.
func WithResultLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithSettleDelay sets the pause between restoring focus and pasting.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithScheduler replaces time.AfterFunc, mainly for tests. The scheduler
// must not call fn before returning.
func WithScheduler(fn Scheduler) Option {
	return func(s *Session) {
		if fn != nil {
			s.schedule = fn
		}
	}
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// pendingPaste is a scheduled paste that may still be canceled.
type pendingPaste struct {
	timer Timer
	done  chan struct{}
	once  sync.Once
}

func (p *pendingPaste) finish() {
	p.once.Do(func() { close(p.done) })
}

// Session is the recall state machine. It reads from a history.Source but
// never mutates it. Methods are safe for concurrent use; the deferred paste
// runs on its own goroutine.
type Session struct {
	src   history.Source
	focus desktop.FocusController
	paste desktop.PasteSynthesizer

	limit    int
	settle   time.Duration
	schedule Scheduler
	log      *logging.Logger

	mu       sync.Mutex
	state    State
	query    string
	filtered []string
	cursor   int
	previous desktop.AppHandle

	// generation increases on every transition that invalidates a pending paste.
	generation uint64
	pending    *pendingPaste
}

var _ Rows = (*Session)(nil)

// New creates a closed session.
func New(src history.Source, focus desktop.FocusController, paste desktop.PasteSynthesizer, opts ...Option) *Session {
	s := &Session{
		src:      src,
		focus:    focus,
		paste:    paste,
		limit:    DefaultResultLimit,
		settle:   DefaultSettleDelay,
		schedule: afterFunc,
		log:      logging.Get(),
		cursor:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "recall")
	return s
}

// Open shows the session: it cancels any pending paste, remembers the
// currently focused application, clears the query, and lists the newest entries.
func (s *Session) Open() {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.mu.Unlock()

	prev, err := s.focus.Current()
	if err != nil {
		s.log.Warn("failed to read focused app", "error", err)
		prev = ""
	}
	s.open(prev)
}

// OpenWith is Open for callers that already know which application had
// focus, such as a launcher that started the popup in a new window.
func (s *Session) OpenWith(prev desktop.AppHandle) {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.mu.Unlock()
	s.open(prev)
}

func (s *Session) open(prev desktop.AppHandle) {
	snap := s.src.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = prev
	s.state = Open
	s.query = ""
	s.applyLocked(snap)
	s.log.Debug("session opened", "previous", string(prev), "rows", len(s.filtered))
}

// SetQuery refilters a fresh snapshot and resets the cursor. Ignored while closed.
func (s *Session) SetQuery(q string) {
	snap := s.src.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Open {
		return
	}
	s.query = q
	s.applyLocked(snap)
}

// Refresh refilters a fresh snapshot with the current query, keeping the
// cursor on the same entry when it is still listed.
func (s *Session) Refresh() {
	snap := s.src.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Open {
		return
	}
	var selected string
	hadSelection := s.cursor >= 0 && s.cursor < len(s.filtered)
	if hadSelection {
		selected = s.filtered[s.cursor]
	}
	s.applyLocked(snap)
	if !hadSelection {
		return
	}
	for i, e := range s.filtered {
		if e == selected {
			s.cursor = i
			return
		}
	}
}

// applyLocked must be called with s.mu held.
func (s *Session) applyLocked(snap []string) {
	s.filtered = Filter(snap, s.query, s.limit)
	if len(s.filtered) == 0 {
		s.cursor = -1
	} else {
		s.cursor = 0
	}
}

// Move advances the cursor by delta with wraparound. No-op while closed or empty.
func (s *Session) Move(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.filtered)
	if s.state != Open || n == 0 {
		return
	}
	c := s.cursor + delta
	switch {
	case c < 0:
		c = n - 1
	case c >= n:
		c = 0
	}
	s.cursor = c
}

// Selected returns the entry under the cursor.
func (s *Session) Selected() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Session) selectedLocked() (string, error) {
	if s.state != Open || s.cursor < 0 || s.cursor >= len(s.filtered) {
		return "", ErrInvalidSelection
	}
	return s.filtered[s.cursor], nil
}

// Commit closes the session with the selected entry: focus returns to the
// previous application immediately and the entry is pasted after the settle
// delay. With no valid selection it does nothing and the session stays open.
func (s *Session) Commit() (string, bool) {
	s.mu.Lock()
	text, err := s.selectedLocked()
	if err != nil {
		s.mu.Unlock()
		return "", false
	}
	s.state = Closed
	s.cancelPendingLocked()
	gen := s.generation
	prev := s.previous
	s.mu.Unlock()

	s.restoreFocus(prev)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// Reopened or closed while focus was being restored.
		return text, true
	}
	p := &pendingPaste{done: make(chan struct{})}
	p.timer = s.schedule(s.settle, func() { s.firePaste(gen, p, prev, text) })
	s.pending = p
	s.log.Debug("paste scheduled", "delay", s.settle, "bytes", len(text))
	return text, true
}

// Close hides the session without pasting and returns focus to the previous
// application. Any pending paste is canceled.
func (s *Session) Close() {
	s.mu.Lock()
	wasOpen := s.state == Open
	s.state = Closed
	s.cancelPendingLocked()
	prev := s.previous
	s.mu.Unlock()

	if wasOpen {
		s.restoreFocus(prev)
	}
}

// Hotkey implements toggle-or-confirm: commit when open and focused, otherwise open.
func (s *Session) Hotkey(popupFocused bool) (string, bool) {
	s.mu.Lock()
	open := s.state == Open
	s.mu.Unlock()

	if open && popupFocused {
		return s.Commit()
	}
	s.Open()
	return "", false
}

// Wait blocks until the paste pending at call time has run or been canceled.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	p := s.pending
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cancelPendingLocked invalidates any scheduled paste. Must hold s.mu.
func (s *Session) cancelPendingLocked() {
	s.generation++
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending.finish()
	s.pending = nil
	s.log.Debug("pending paste canceled")
}

func (s *Session) firePaste(gen uint64, p *pendingPaste, prev desktop.AppHandle, text string) {
	defer p.finish()

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	s.restoreFocus(prev)
	if err := desktop.Paste(s.paste, text); err != nil {
		s.log.Warn("failed to paste", "error", err)
		return
	}
	s.log.Debug("pasted", "bytes", len(text))
}

func (s *Session) restoreFocus(prev desktop.AppHandle) {
	if prev == "" {
		return
	}
	if err := s.focus.Activate(prev); err != nil {
		s.log.Warn("failed to restore focus", "app", string(prev), "error", err)
	}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool {
	return s.State() == Open
}

// Query returns the current query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Previous returns the application that was focused when the session opened.
func (s *Session) Previous() desktop.AppHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

// Results returns a copy of the filtered list.
func (s *Session) Results() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.filtered...)
}

// RowCount returns the number of filtered entries.
func (s *Session) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered)
}

// RowText returns filtered entry i, or "" when out of range.
func (s *Session) RowText(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.filtered) {
		return ""
	}
	return s.filtered[i]
}

// MatchSpan returns the byte span of the query's first occurrence in row i.
func (s *Session) MatchSpan(i int) (int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.filtered) {
		return 0, 0, false
	}
	return MatchSpan(s.filtered[i], s.query)
}

// Cursor returns the selected row, or -1 when nothing is selected.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
