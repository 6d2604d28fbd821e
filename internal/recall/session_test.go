package recall

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yiblet/cliprecall/internal/desktop"
	"github.com/yiblet/cliprecall/internal/history"
)

// fakeSource is a history.Source whose contents the test controls.
type fakeSource struct {
	mu        sync.Mutex
	entries   []string
	snapshots int
}

func (f *fakeSource) Capture(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]string{text}, f.entries...)
}

func (f *fakeSource) Snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return append([]string(nil), f.entries...)
}

func (f *fakeSource) set(entries ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

// fakeDesktop records focus and paste calls.
type fakeDesktop struct {
	mu        sync.Mutex
	current   desktop.AppHandle
	currErr   error
	events    []string
	pasted    []string
	activated []desktop.AppHandle
}

func (d *fakeDesktop) Current() (desktop.AppHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, d.currErr
}

func (d *fakeDesktop) Activate(app desktop.AppHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activated = append(d.activated, app)
	d.events = append(d.events, "activate:"+string(app))
	return nil
}

func (d *fakeDesktop) Place(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pasted = append(d.pasted, text)
	d.events = append(d.events, "place:"+text)
	return nil
}

func (d *fakeDesktop) EmitPasteGesture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, "gesture")
	return nil
}

func (d *fakeDesktop) snapshot() (events []string, pasted []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...), append([]string(nil), d.pasted...)
}

// fakeClock collects scheduled callbacks so tests decide when they fire.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) schedule(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer that is due, ignoring Stop, so tests can also
// simulate a timer that raced with cancellation.
func (c *fakeClock) fire(ignoreStop bool) int {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()

	n := 0
	for _, t := range timers {
		t.mu.Lock()
		run := !t.fired && (ignoreStop || !t.stopped)
		t.fired = t.fired || run
		t.mu.Unlock()
		if run {
			t.fn()
			n++
		}
	}
	return n
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

type harness struct {
	src     *fakeSource
	desk    *fakeDesktop
	clock   *fakeClock
	session *Session
}

func newHarness(entries ...string) *harness {
	h := &harness{
		src:   &fakeSource{entries: entries},
		desk:  &fakeDesktop{current: "Editor"},
		clock: &fakeClock{},
	}
	h.session = New(h.src, h.desk, h.desk, WithScheduler(h.clock.schedule))
	return h
}

func TestSession_OpenResetsState(t *testing.T) {
	h := newHarness("b", "a", "c")
	s := h.session

	assert.Equal(t, Closed, s.State())
	assert.Equal(t, -1, s.Cursor())

	s.Open()
	assert.True(t, s.IsOpen())
	assert.Equal(t, "", s.Query())
	assert.Equal(t, []string{"b", "a", "c"}, s.Results())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, desktop.AppHandle("Editor"), s.Previous())

	s.SetQuery("a")
	s.Close()
	s.Open()
	assert.Equal(t, "", s.Query(), "query resets on every open")
	assert.Equal(t, 3, s.RowCount())
}

func TestSession_OpenEmpty(t *testing.T) {
	h := newHarness()
	h.session.Open()

	assert.Equal(t, 0, h.session.RowCount())
	assert.Equal(t, -1, h.session.Cursor())

	_, err := h.session.Selected()
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSession_OpenCapsResults(t *testing.T) {
	entries := make([]string, 50)
	for i := range entries {
		entries[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	h := newHarness(entries...)
	h.session.Open()

	assert.Equal(t, DefaultResultLimit, h.session.RowCount())
}

func TestSession_SetQuery(t *testing.T) {
	h := newHarness("apple", "banana", "Apricot")
	s := h.session
	s.Open()

	s.SetQuery("ap")
	assert.Equal(t, []string{"apple", "Apricot"}, s.Results())
	assert.Equal(t, 0, s.Cursor())

	start, end, ok := s.MatchSpan(1)
	require.True(t, ok)
	assert.Equal(t, "Ap", s.RowText(1)[start:end])

	s.SetQuery("zzz")
	assert.Equal(t, 0, s.RowCount())
	assert.Equal(t, -1, s.Cursor())

	s.SetQuery("")
	assert.Equal(t, 3, s.RowCount())
	_, _, ok = s.MatchSpan(0)
	assert.False(t, ok, "empty query highlights nothing")
}

func TestSession_SetQueryUsesFreshSnapshot(t *testing.T) {
	h := newHarness("old")
	s := h.session
	s.Open()

	h.src.set("new entry", "old")
	s.SetQuery("")
	assert.Equal(t, []string{"new entry", "old"}, s.Results())
}

func TestSession_SetQueryIgnoredWhenClosed(t *testing.T) {
	h := newHarness("a")
	h.session.SetQuery("a")
	assert.Equal(t, "", h.session.Query())
}

func TestSession_MoveWraps(t *testing.T) {
	h := newHarness("a", "b", "c")
	s := h.session
	s.Open()

	s.Move(-1)
	assert.Equal(t, 2, s.Cursor(), "moving up from the top wraps to the bottom")

	s.Move(1)
	assert.Equal(t, 0, s.Cursor(), "moving down from the bottom wraps to the top")

	s.Move(1)
	s.Move(1)
	assert.Equal(t, 2, s.Cursor())
}

func TestSession_MoveCycle(t *testing.T) {
	for n := 1; n <= 7; n++ {
		entries := make([]string, n)
		for i := range entries {
			entries[i] = string(rune('a' + i))
		}
		h := newHarness(entries...)
		s := h.session
		s.Open()

		seen := map[int]bool{}
		for i := 0; i < n; i++ {
			seen[s.Cursor()] = true
			s.Move(1)
		}
		assert.Equal(t, 0, s.Cursor(), "n=%d: back at 0 after n moves", n)
		assert.Len(t, seen, n, "n=%d: every index visited", n)
	}
}

func TestSession_MoveEmptyIsNoop(t *testing.T) {
	h := newHarness()
	h.session.Open()
	h.session.Move(1)
	h.session.Move(-1)
	assert.Equal(t, -1, h.session.Cursor())
}

func TestSession_CommitPastesAfterSettle(t *testing.T) {
	h := newHarness("first", "second")
	s := h.session
	s.Open()
	s.Move(1)

	text, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, "second", text)
	assert.Equal(t, Closed, s.State())

	events, pasted := h.desk.snapshot()
	assert.Equal(t, []string{"activate:Editor"}, events, "focus is restored before the delay")
	assert.Empty(t, pasted)

	require.Equal(t, 1, h.clock.count())
	assert.Equal(t, DefaultSettleDelay, h.clock.timers[0].delay)

	assert.Equal(t, 1, h.clock.fire(false))
	events, pasted = h.desk.snapshot()
	assert.Equal(t, []string{"activate:Editor", "activate:Editor", "place:second", "gesture"}, events)
	assert.Equal(t, []string{"second"}, pasted)

	require.NoError(t, s.Wait(context.Background()))
}

func TestSession_CommitEmptyStaysOpen(t *testing.T) {
	h := newHarness("a")
	s := h.session
	s.Open()
	s.SetQuery("nothing matches")

	text, ok := s.Commit()
	assert.False(t, ok)
	assert.Equal(t, "", text)
	assert.True(t, s.IsOpen())
	assert.Equal(t, 0, h.clock.count(), "no paste scheduled")

	events, _ := h.desk.snapshot()
	assert.Empty(t, events)
}

func TestSession_CommitWhenClosed(t *testing.T) {
	h := newHarness("a")
	_, ok := h.session.Commit()
	assert.False(t, ok)
}

func TestSession_ReopenCancelsPendingPaste(t *testing.T) {
	h := newHarness("a")
	s := h.session
	s.Open()
	_, ok := s.Commit()
	require.True(t, ok)

	s.Open()
	assert.Equal(t, 0, h.clock.fire(false), "canceled timer does not run")

	// Even a timer that fires despite Stop does nothing.
	h.clock.fire(true)
	_, pasted := h.desk.snapshot()
	assert.Empty(t, pasted)
}

func TestSession_CloseCancelsPendingPaste(t *testing.T) {
	h := newHarness("a")
	s := h.session
	s.Open()
	s.Commit()

	s.Close()
	h.clock.fire(true)

	_, pasted := h.desk.snapshot()
	assert.Empty(t, pasted)
	require.NoError(t, s.Wait(context.Background()))
}

func TestSession_CloseRestoresFocus(t *testing.T) {
	h := newHarness("a")
	s := h.session
	s.Open()

	s.Close()
	assert.Equal(t, Closed, s.State())
	events, pasted := h.desk.snapshot()
	assert.Equal(t, []string{"activate:Editor"}, events)
	assert.Empty(t, pasted)

	// Closing again does not re-activate.
	s.Close()
	events, _ = h.desk.snapshot()
	assert.Len(t, events, 1)
}

func TestSession_UnknownPreviousApp(t *testing.T) {
	h := newHarness("a")
	h.desk.currErr = errors.New("no display")
	s := h.session

	s.Open()
	assert.True(t, s.IsOpen())
	s.Close()

	events, _ := h.desk.snapshot()
	assert.Empty(t, events, "nothing to re-activate")
}

func TestSession_OpenWithKnownPrevious(t *testing.T) {
	h := newHarness("a")
	// The popup's own terminal has focus by the time the session opens.
	h.desk.current = "cliprecall-terminal"
	s := h.session

	s.OpenWith("Editor")
	require.True(t, s.IsOpen())

	_, ok := s.Commit()
	require.True(t, ok)
	h.clock.fire(false)

	events, pasted := h.desk.snapshot()
	assert.Equal(t, []string{"activate:Editor", "activate:Editor", "place:a", "gesture"}, events)
	assert.Equal(t, []string{"a"}, pasted)
}

func TestSession_OpenWithCancelsPendingPaste(t *testing.T) {
	h := newHarness("a")
	s := h.session
	s.Open()
	_, ok := s.Commit()
	require.True(t, ok)

	s.OpenWith("Browser")
	h.clock.fire(true)

	_, pasted := h.desk.snapshot()
	assert.Empty(t, pasted)
}

func TestSession_Hotkey(t *testing.T) {
	h := newHarness("a", "b")
	s := h.session

	_, committed := s.Hotkey(false)
	assert.False(t, committed)
	assert.True(t, s.IsOpen(), "hotkey opens a closed session")

	s.Move(1)
	_, committed = s.Hotkey(false)
	assert.False(t, committed, "unfocused popup is re-shown, not confirmed")
	assert.Equal(t, 0, s.Cursor(), "re-open resets the cursor")

	s.Move(1)
	text, committed := s.Hotkey(true)
	assert.True(t, committed)
	assert.Equal(t, "b", text)
	assert.Equal(t, Closed, s.State())
}

func TestSession_Refresh(t *testing.T) {
	h := newHarness("a1", "a2", "b")
	s := h.session
	s.Open()
	s.SetQuery("a")
	s.Move(1)
	require.Equal(t, "a2", s.RowText(s.Cursor()))

	h.src.set("a0", "a1", "a2", "b")
	s.Refresh()
	assert.Equal(t, []string{"a0", "a1", "a2"}, s.Results())
	assert.Equal(t, "a2", s.RowText(s.Cursor()), "cursor follows the selected entry")
	assert.Equal(t, "a", s.Query())
}

func TestSession_RowAccessorsOutOfRange(t *testing.T) {
	h := newHarness("a")
	h.session.Open()

	assert.Equal(t, "", h.session.RowText(-1))
	assert.Equal(t, "", h.session.RowText(5))
	_, _, ok := h.session.MatchSpan(5)
	assert.False(t, ok)
}

func TestSession_WaitRespectsContext(t *testing.T) {
	h := newHarness("a")
	s := h.session
	s.Open()
	s.Commit()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	h.clock.fire(false)
	assert.NoError(t, s.Wait(context.Background()))
}

// TestSession_RealTimer exercises the default scheduler end to end.
func TestSession_RealTimer(t *testing.T) {
	src := history.New(nil)
	defer src.Close()
	src.Capture("older")
	src.Capture("newest")

	desk := &fakeDesktop{current: "Terminal"}
	s := New(src, desk, desk, WithSettleDelay(5*time.Millisecond))

	s.Open()
	text, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, "newest", text)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	_, pasted := desk.snapshot()
	assert.Equal(t, []string{"newest"}, pasted)
	assert.Equal(t, []string{"newest", "older"}, src.Snapshot(), "recall never mutates history")
}
