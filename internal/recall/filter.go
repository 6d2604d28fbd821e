package recall

import (
	"unicode"
	"unicode/utf8"
)

// Filter returns the entries that contain query, ignoring case, in their
// original order and truncated to limit. An empty query matches everything.
// A limit below 1 means no limit.
func Filter(entries []string, query string, limit int) []string {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, 0, n)
	for _, e := range entries {
		if limit > 0 && len(out) == limit {
			break
		}
		if query == "" {
			out = append(out, e)
			continue
		}
		if start, _ := indexFold(e, query); start >= 0 {
			out = append(out, e)
		}
	}
	return out
}

// MatchSpan returns the byte range of the first case-insensitive occurrence
// of query in text. ok is false for an empty query or no match.
func MatchSpan(text, query string) (start, end int, ok bool) {
	if query == "" {
		return 0, 0, false
	}
	start, end = indexFold(text, query)
	if start < 0 {
		return 0, 0, false
	}
	return start, end, true
}

// indexFold is strings.Index with Unicode simple case folding. It returns
// byte offsets into s, which may differ in length from substr.
func indexFold(s, substr string) (int, int) {
	first, _ := utf8.DecodeRuneInString(substr)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if equalFold(r, first) {
			if n, ok := hasPrefixFold(s[i:], substr); ok {
				return i, i + n
			}
		}
		i += size
	}
	return -1, -1
}

// hasPrefixFold reports whether s starts with prefix under case folding and
// how many bytes of s the match covers.
func hasPrefixFold(s, prefix string) (int, bool) {
	j := 0
	for _, pr := range prefix {
		if j >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[j:])
		if !equalFold(r, pr) {
			return 0, false
		}
		j += size
	}
	return j, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
