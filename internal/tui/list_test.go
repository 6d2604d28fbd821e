package tui

import (
	"strings"
	"testing"
)

// stubRows is a fixed recall.Rows for rendering tests.
type stubRows struct {
	texts  []string
	query  string
	cursor int
}

func (r stubRows) RowCount() int        { return len(r.texts) }
func (r stubRows) RowText(i int) string { return r.texts[i] }
func (r stubRows) Cursor() int          { return r.cursor }

func (r stubRows) MatchSpan(i int) (int, int, bool) {
	if r.query == "" {
		return 0, 0, false
	}
	start := strings.Index(r.texts[i], r.query)
	if start < 0 {
		return 0, 0, false
	}
	return start, start + len(r.query), true
}

func TestNewListModel(t *testing.T) {
	model := NewListModel(30, 20)

	if model.Offset != 0 {
		t.Errorf("Expected offset 0, got %d", model.Offset)
	}
	if model.Width != 30 || model.Height != 20 {
		t.Errorf("Expected 30x20, got %dx%d", model.Width, model.Height)
	}
	if got := model.VisibleRows(); got != 14 {
		t.Errorf("Expected 14 visible rows, got %d", got)
	}
}

func TestListModel_FollowCursor(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		cursor int
		want   int
	}{
		{"visible stays", 0, 5, 0},
		{"below scrolls down", 0, 20, 7},
		{"above scrolls up", 10, 3, 3},
		{"no cursor resets", 10, -1, 0},
		{"last visible row", 0, 13, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewListModel(30, 20)
			model.Offset = tt.offset
			model.Update(FollowCursorMsg{Cursor: tt.cursor})
			if model.Offset != tt.want {
				t.Errorf("Expected offset %d, got %d", tt.want, model.Offset)
			}
		})
	}
}

func TestListModel_Resize(t *testing.T) {
	model := NewListModel(30, 20)
	model.Update(ResizeListMsg{Width: 50, Height: 10})

	if model.Width != 50 || model.Height != 10 {
		t.Errorf("Expected 50x10, got %dx%d", model.Width, model.Height)
	}
	if got := model.VisibleRows(); got != 4 {
		t.Errorf("Expected 4 visible rows, got %d", got)
	}
}

func TestListView(t *testing.T) {
	rows := stubRows{texts: []string{"first entry", "second\nentry", "  \n third"}}
	view := ListView(NewListModel(40, 20), rows, "")

	for _, want := range []string{"History (3)", "0. first entry", "1. second", "2. third"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestListView_ShowsMatchingLine(t *testing.T) {
	rows := stubRows{texts: []string{"header\nthe needle line\nfooter"}, query: "needle"}
	view := ListView(NewListModel(40, 20), rows, "needle")

	if !strings.Contains(view, "the needle line") {
		t.Errorf("Expected the line holding the match:\n%s", view)
	}
	if strings.Contains(view, "header") {
		t.Error("Expected the first line to be skipped in favour of the match")
	}
}

func TestListView_Scrolled(t *testing.T) {
	var texts []string
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		texts = append(texts, "entry "+s)
	}
	model := NewListModel(30, 10) // 4 visible rows
	model.Update(FollowCursorMsg{Cursor: 6})

	view := ListView(model, stubRows{texts: texts, cursor: 6}, "")

	if strings.Contains(view, "entry a") {
		t.Error("Expected rows above the offset to be hidden")
	}
	if !strings.Contains(view, "6. entry g") {
		t.Errorf("Expected cursor row to be visible:\n%s", view)
	}
}

func TestListView_Empty(t *testing.T) {
	model := NewListModel(30, 20)

	if view := ListView(model, stubRows{}, ""); !strings.Contains(view, "History is empty") {
		t.Errorf("Expected empty message, got:\n%s", view)
	}
	if view := ListView(model, stubRows{}, "zzz"); !strings.Contains(view, "No matches") {
		t.Errorf("Expected no matches message, got:\n%s", view)
	}
}

func TestRowSegments(t *testing.T) {
	tests := []struct {
		name               string
		text               string
		start, end         int
		ok                 bool
		before, match, aft string
	}{
		{"no match uses first non-blank line", "\n  hello \nworld", 0, 0, false, "hello", "", ""},
		{"blank entry", " \n\t", 0, 0, false, "[blank]", "", ""},
		{"match on first line", "say hello there", 4, 9, true, "say ", "hello", " there"},
		{"match on later line", "one\ntwo three\nfour", 8, 13, true, "two ", "three", ""},
		{"tabs flattened", "a\tneedle", 2, 8, true, "a ", "needle", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, match, after := rowSegments(tt.text, tt.start, tt.end, tt.ok)
			if before != tt.before || match != tt.match || after != tt.aft {
				t.Errorf("rowSegments = (%q, %q, %q), want (%q, %q, %q)",
					before, match, after, tt.before, tt.match, tt.aft)
			}
		})
	}
}

func TestFitSegments(t *testing.T) {
	tests := []struct {
		name               string
		before, match, aft string
		width              int
		want               string
	}{
		{"fits", "ab", "cd", "ef", 10, "abcdef"},
		{"tail cut", "ab", "cd", "efghijkl", 6, "abcde…"},
		{"long prefix keeps match visible", "0123456789", "XY", "", 9, "…89XY"},
		{"plain line cut", "abcdefghij", "", "", 5, "abcd…"},
		{"zero width", "abc", "d", "e", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, m, a := fitSegments(tt.before, tt.match, tt.aft, tt.width)
			if got := b + m + a; got != tt.want {
				t.Errorf("fitSegments = %q, want %q", got, tt.want)
			}
			if tt.match != "" && tt.width > len(tt.match)+1 && m != tt.match {
				t.Errorf("Expected match %q to survive, got %q", tt.match, m)
			}
		})
	}
}
