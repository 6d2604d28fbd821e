package history

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Title returns a one-line label for an entry: the first non-blank line,
// sanitized and truncated to maxLen runes.
func Title(text string, maxLen int) string {
	for _, line := range strings.Split(text, "\n") {
		if cleaned := SanitizeTitle(line); cleaned != "" {
			return TruncateTitle(cleaned, maxLen)
		}
	}
	return "[blank]"
}

// TruncateTitle ensures title is at most maxLen runes.
// If truncation is needed, appends "..." to indicate truncation.
func TruncateTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) <= maxLen {
		return title
	}

	// Reserve 3 characters for "..."
	if maxLen < 3 {
		return strings.Repeat(".", max(maxLen, 0))
	}

	runes := []rune(title)
	return string(runes[:maxLen-3]) + "..."
}

// SanitizeTitle removes control characters and collapses whitespace.
// This ensures titles are safe for display in terminals.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)

	return strings.Join(strings.Fields(title), " ")
}

// LineCount returns the number of lines in text, counting a final
// unterminated line.
func LineCount(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
