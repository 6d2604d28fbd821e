package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yiblet/cliprecall/internal/store"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{name: "empty file", data: "", want: []string{}},
		{name: "whitespace only", data: "  \n\n", want: []string{}},
		{name: "json array", data: `["old", "new"]`, want: []string{"old", "new"}},
		{name: "json array keeps newlines", data: `["a\nb", "c"]`, want: []string{"a\nb", "c"}},
		{name: "newline text", data: "first\nsecond\nthird\n", want: []string{"first", "second", "third"}},
		{name: "blank lines skipped", data: "a\n\n\nb\r\nc", want: []string{"a", "b", "c"}},
		{name: "broken json falls back to lines", data: "[\"unterminated\n", want: []string{"[\"unterminated"}},
		{name: "invalid utf8", data: "\xff\xfe\xfd", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse([]byte(tt.data))
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Parse()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestFileStore_LoadReverses verifies the newest-last file becomes newest-first history.
func TestFileStore_LoadReverses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	if err := os.WriteFile(path, []byte("oldest\nmiddle\nnewest\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	st := NewFileStore(path, FormatLines)
	var _ store.Backend = st

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if strings.Join(got, ",") != "newest,middle,oldest" {
		t.Errorf("Load() = %v, want [newest middle oldest]", got)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "nope"), FormatJSON)

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %v, want empty", got)
	}
}

func TestFileStore_LoadDirectoryFails(t *testing.T) {
	st := NewFileStore(t.TempDir(), FormatJSON)
	if _, err := st.Load(); err == nil {
		t.Error("expected error loading a directory")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format Format
	}{
		{name: "json", format: FormatJSON},
		{name: "lines", format: FormatLines},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", "history")
			st := NewFileStore(path, tt.format)

			entries := []string{"c", "b", "a"}
			if err := st.Save(entries); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			got, err := st.Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if strings.Join(got, ",") != "c,b,a" {
				t.Errorf("Load() = %v, want [c b a]", got)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
			if strings.Index(string(raw), "a") > strings.Index(string(raw), "c") {
				t.Errorf("file should list oldest entry first, got %q", raw)
			}

			leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
			if len(leftovers) != 0 {
				t.Errorf("temp files left behind: %v", leftovers)
			}
		})
	}
}

func TestFileStore_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	st := NewFileStore(path, FormatJSON)

	if err := st.Save(nil); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("file = %q, want []", raw)
	}
}

func TestFileStore_SaveNoPath(t *testing.T) {
	if err := NewFileStore("", FormatJSON).Save([]string{"x"}); err == nil {
		t.Error("expected error saving with empty path")
	}
}

func TestFileStore_UpdateSharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	handles := []*FileStore{NewFileStore(path, FormatJSON), NewFileStore(path, FormatJSON)}

	const perHandle = 25
	var wg sync.WaitGroup
	for h, st := range handles {
		wg.Add(1)
		go func(h int, st *FileStore) {
			defer wg.Done()
			for i := 0; i < perHandle; i++ {
				text := fmt.Sprintf("handle %d entry %02d", h, i)
				err := st.Update(func(current []string) []string {
					return append([]string{text}, current...)
				})
				if err != nil {
					t.Errorf("Update() error: %v", err)
					return
				}
			}
		}(h, st)
	}
	wg.Wait()

	got, err := handles[1].Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 2*perHandle {
		t.Errorf("expected %d entries after concurrent updates, got %d", 2*perHandle, len(got))
	}
}

func TestFileStore_UpdateReadsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	if err := os.WriteFile(path, []byte("older\nnewer\n"), 0o600); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	st := NewFileStore(path, FormatLines)
	var seen []string
	err := st.Update(func(current []string) []string {
		seen = append([]string(nil), current...)
		return append([]string{"newest"}, current...)
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if strings.Join(seen, ",") != "newer,older" {
		t.Errorf("Update() saw %v, want [newer older]", seen)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "older\nnewer\nnewest\n" {
		t.Errorf("file = %q", raw)
	}
}
