package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/cliprecall/internal/history"
	"github.com/yiblet/cliprecall/internal/recall"
)

// PreviewMsg represents messages that the preview pane handles
type PreviewMsg interface {
	isPreviewMsg()
}

// Preview message implementations
type ScrollUpMsg struct{}

func (ScrollUpMsg) isPreviewMsg() {}

type ScrollDownMsg struct{}

func (ScrollDownMsg) isPreviewMsg() {}

type PageUpMsg struct{}

func (PageUpMsg) isPreviewMsg() {}

type PageDownMsg struct{}

func (PageDownMsg) isPreviewMsg() {}

type ResizePreviewMsg struct {
	Width  int
	Height int
}

func (ResizePreviewMsg) isPreviewMsg() {}

// UpdateContentMsg shows text in the preview. The scroll position resets
// when the text changes.
type UpdateContentMsg struct {
	Text string
}

func (UpdateContentMsg) isPreviewMsg() {}

// PreviewModel holds the state for the preview pane (selected entry)
type PreviewModel struct {
	Width   int // Pane width
	Height  int // Pane height
	ViewPos int // First visible wrapped line

	Text  string   // Entry being shown
	Lines []string // Text wrapped to the current width
}

// NewPreviewModel creates a preview pane with default values
func NewPreviewModel(width, height int) PreviewModel {
	return PreviewModel{
		Width:  width,
		Height: height,
	}
}

// Update applies msg to the preview pane
func (p *PreviewModel) Update(msg PreviewMsg) error {
	switch m := msg.(type) {
	case ScrollUpMsg:
		if p.ViewPos > 0 {
			p.ViewPos--
		}
	case ScrollDownMsg:
		if p.ViewPos < p.MaxScroll() {
			p.ViewPos++
		}
	case PageUpMsg:
		p.ViewPos = max(p.ViewPos-p.pageSize(), 0)
	case PageDownMsg:
		p.ViewPos = min(p.ViewPos+p.pageSize(), p.MaxScroll())
	case ResizePreviewMsg:
		p.Width = m.Width
		p.Height = m.Height
		p.Lines = WrapText(p.Text, p.wrapWidth())
		p.ViewPos = min(p.ViewPos, p.MaxScroll())
	case UpdateContentMsg:
		if m.Text == p.Text && p.Lines != nil {
			return nil
		}
		p.Text = m.Text
		p.Lines = WrapText(m.Text, p.wrapWidth())
		p.ViewPos = 0
	}
	return nil
}

// visibleLines is the number of content lines that fit below the title
func (p PreviewModel) visibleLines() int {
	return max(p.Height-6, 1)
}

func (p PreviewModel) pageSize() int {
	return max(p.visibleLines()/2, 1)
}

func (p PreviewModel) wrapWidth() int {
	return max(p.Width-6, 1)
}

// MaxScroll returns the largest useful ViewPos
func (p PreviewModel) MaxScroll() int {
	if len(p.Lines) <= p.visibleLines() {
		return 0
	}
	return len(p.Lines) - p.visibleLines()
}

// PreviewView renders the preview pane as a pure function. index is the
// selected row, or -1 when nothing is selected.
func PreviewView(model PreviewModel, index int, query string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(model.Width - 2).
		Height(model.Height - 4)

	var content strings.Builder
	if index < 0 {
		content.WriteString(lipgloss.NewStyle().Bold(true).Render("Preview") + "\n\n")
		content.WriteString("Nothing selected")
		return style.Render(content.String())
	}

	title := fmt.Sprintf("Preview [%d] %d lines, %d bytes", index, history.LineCount(model.Text), len(model.Text))
	visible := model.visibleLines()
	if model.MaxScroll() > 0 {
		bottom := min(model.ViewPos+visible, len(model.Lines))
		title += fmt.Sprintf(" (%d-%d/%d)", model.ViewPos+1, bottom, len(model.Lines))
	}
	title = history.TruncateTitle(title, max(model.Width-6, 3))
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	end := min(model.ViewPos+visible, len(model.Lines))
	for i := model.ViewPos; i < end; i++ {
		content.WriteString(highlightMatches(model.Lines[i], query, matchStyle) + "\n")
	}

	return style.Render(strings.TrimSuffix(content.String(), "\n"))
}

var matchStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("11")).
	Foreground(lipgloss.Color("0"))

var currentMatchStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("220")).
	Foreground(lipgloss.Color("0"))

// highlightMatches styles every case-insensitive occurrence of query in line (pure function)
func highlightMatches(line, query string, style lipgloss.Style) string {
	if query == "" {
		return line
	}

	var out strings.Builder
	rest := line
	for {
		start, end, ok := recall.MatchSpan(rest, query)
		if !ok || end <= start {
			break
		}
		out.WriteString(rest[:start])
		out.WriteString(style.Render(rest[start:end]))
		rest = rest[end:]
	}
	out.WriteString(rest)
	return out.String()
}
