package history

import "testing"

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{name: "single line", text: "hello world", maxLen: 80, want: "hello world"},
		{name: "first non-blank line", text: "\n\n  second line\nthird", maxLen: 80, want: "second line"},
		{name: "collapses whitespace", text: "a\t\tb   c", maxLen: 80, want: "a b c"},
		{name: "truncated", text: "abcdefghij", maxLen: 6, want: "abc..."},
		{name: "blank", text: " \n\t\n", maxLen: 80, want: "[blank]"},
		{name: "unicode truncation", text: "日本語のテキスト", maxLen: 5, want: "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.text, tt.maxLen); got != tt.want {
				t.Errorf("Title(%q, %d) = %q, want %q", tt.text, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		title  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, ".."},
		{"abc", 0, ""},
		{"  padded  ", 10, "padded"},
	}

	for _, tt := range tests {
		if got := TruncateTitle(tt.title, tt.maxLen); got != tt.want {
			t.Errorf("TruncateTitle(%q, %d) = %q, want %q", tt.title, tt.maxLen, got, tt.want)
		}
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"normal", "normal"},
		{"with\x00null", "with null"},
		{"bell\x07char", "bell char"},
		{"  lots   of\n\nspace  ", "lots of space"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLineCount(t *testing.T) {
	tests := map[string]int{
		"":          0,
		"one":       1,
		"one\n":     1,
		"one\ntwo":  2,
		"a\nb\nc\n": 3,
		"\n":        1,
	}
	for in, want := range tests {
		if got := LineCount(in); got != want {
			t.Errorf("LineCount(%q) = %d, want %d", in, got, want)
		}
	}
}
