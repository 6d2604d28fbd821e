package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/cliprecall/internal/recall"
)

// ListMsg represents messages that the result list handles
type ListMsg interface {
	isListMsg()
}

// FollowCursorMsg scrolls the list so the cursor row is visible
type FollowCursorMsg struct {
	Cursor int
}

func (FollowCursorMsg) isListMsg() {}

type ResizeListMsg struct {
	Width  int
	Height int
}

func (ResizeListMsg) isListMsg() {}

// ListModel holds the state for the result list. The cursor itself lives
// in the recall session; the list only tracks what is scrolled into view.
type ListModel struct {
	Offset int // First visible row
	Width  int // Pane width
	Height int // Pane height
}

// NewListModel creates a new list model with default values
func NewListModel(width, height int) ListModel {
	return ListModel{
		Width:  width,
		Height: height,
	}
}

// Update applies msg to the list
func (l *ListModel) Update(msg ListMsg) error {
	switch m := msg.(type) {
	case FollowCursorMsg:
		l.follow(m.Cursor)
	case ResizeListMsg:
		l.Width = m.Width
		l.Height = m.Height
	}
	return nil
}

func (l *ListModel) follow(cursor int) {
	rows := l.VisibleRows()
	switch {
	case cursor < 0:
		l.Offset = 0
	case cursor < l.Offset:
		l.Offset = cursor
	case cursor >= l.Offset+rows:
		l.Offset = cursor - rows + 1
	}
}

// VisibleRows is the number of rows that fit below the title
func (l ListModel) VisibleRows() int {
	return max(l.Height-6, 1)
}

// ListView renders the result list as a pure function
func ListView(model ListModel, rows recall.Rows, query string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(0, 1).
		Width(model.Width).
		Height(model.Height - 4).
		Inline(false)

	var content strings.Builder
	n := rows.RowCount()
	title := fmt.Sprintf("History (%d)", n)
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	if n == 0 {
		if query != "" {
			content.WriteString("No matches")
		} else {
			content.WriteString("History is empty")
		}
		return style.Render(content.String())
	}

	cursor := rows.Cursor()
	lineWidth := max(model.Width-2, 4)
	end := min(model.Offset+model.VisibleRows(), n)
	for i := model.Offset; i < end; i++ {
		prefix := fmt.Sprintf("%d. ", i)
		start, end, ok := rows.MatchSpan(i)
		before, match, after := rowSegments(rows.RowText(i), start, end, ok)
		before, match, after = fitSegments(before, match, after, lineWidth-len(prefix))

		if i == cursor {
			selected := lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230"))
			line := selected.Render(prefix + before)
			if match != "" {
				line += currentMatchStyle.Render(match)
			}
			if after != "" {
				line += selected.Render(after)
			}
			pad := lineWidth - lipgloss.Width(line)
			if pad > 0 {
				line += selected.Render(strings.Repeat(" ", pad))
			}
			content.WriteString(line + "\n")
			continue
		}

		line := prefix + before
		if match != "" {
			line += matchStyle.Render(match)
		}
		content.WriteString(line + after + "\n")
	}

	return style.Render(strings.TrimSuffix(content.String(), "\n"))
}

// rowSegments picks the line of text to show for a row and splits it around
// the match at [start,end). Without a match the first non-blank line is used.
func rowSegments(text string, start, end int, ok bool) (before, match, after string) {
	if !ok {
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) != "" {
				return flatten(strings.TrimSpace(line)), "", ""
			}
		}
		return "[blank]", "", ""
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		lineEnd = start + i
	}
	end = min(end, lineEnd)
	return flatten(text[lineStart:start]), flatten(text[start:end]), flatten(text[end:lineEnd])
}

// fitSegments trims the segments to width runes, keeping the match in view.
func fitSegments(before, match, after string, width int) (string, string, string) {
	if width <= 0 {
		return "", "", ""
	}
	b, m, a := []rune(before), []rune(match), []rune(after)
	if len(b)+len(m)+len(a) <= width {
		return before, match, after
	}

	// Show at most a third of the line before the match.
	if keep := width / 3; len(m) > 0 && len(b) > keep {
		if keep == 0 {
			b = nil
		} else {
			b = append([]rune{'…'}, b[len(b)-(keep-1):]...)
		}
	}

	b, room := clip(b, width)
	m, room = clip(m, room)
	a, _ = clip(a, room)
	return string(b), string(m), string(a)
}

// clip shortens r to at most room runes, marking a cut with an ellipsis.
func clip(r []rune, room int) ([]rune, int) {
	if len(r) <= room {
		return r, room - len(r)
	}
	if room == 0 {
		return nil, 0
	}
	return append(r[:room-1:room-1], '…'), 0
}

// flatten replaces control characters so a row renders on one line.
func flatten(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
