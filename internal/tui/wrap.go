package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// tabWidth is the number of spaces a tab expands to in the preview.
const tabWidth = 4

// WrapText breaks text into lines no wider than width terminal cells,
// preferring word boundaries. Blank lines are kept.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return []string{}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if lipgloss.Width(line) <= width {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, wrapWords(line, width)...)
	}
	return lines
}

// wrapWords fills lines greedily with the words of line
func wrapWords(line string, width int) []string {
	var (
		lines []string
		cur   []string
		used  int
	)
	emit := func() {
		if len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
		}
		cur, used = cur[:0], 0
	}

	for _, word := range strings.FieldsFunc(line, unicode.IsSpace) {
		w := lipgloss.Width(word)
		if w > width {
			emit()
			chunks := chunkCells(word, width)
			lines = append(lines, chunks[:len(chunks)-1]...)
			last := chunks[len(chunks)-1]
			cur, used = append(cur, last), lipgloss.Width(last)
			continue
		}
		if used > 0 && used+1+w > width {
			emit()
		}
		if used > 0 {
			used++
		}
		cur = append(cur, word)
		used += w
	}
	emit()
	return lines
}

// chunkCells splits word into pieces of at most width cells
func chunkCells(word string, width int) []string {
	var (
		chunks []string
		b      strings.Builder
		used   int
	)
	for _, r := range word {
		w := lipgloss.Width(string(r))
		if used > 0 && used+w > width {
			chunks = append(chunks, b.String())
			b.Reset()
			used = 0
		}
		b.WriteRune(r)
		used += w
	}
	return append(chunks, b.String())
}
