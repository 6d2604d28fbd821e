package mockboard

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yiblet/cliprecall/internal/clipboard"
)

func TestMockClipboard(t *testing.T) {
	var _ clipboard.Clipboard = (*MockClipboard)(nil)

	m := New()
	if err := clipboard.WriteText(m, "hello"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	got, err := clipboard.ReadText(m)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadText() = %q, want %q", got, "hello")
	}
	if m.Writes() != 1 || m.Reads() != 1 {
		t.Errorf("Writes()=%d Reads()=%d, want 1 and 1", m.Writes(), m.Reads())
	}
}

func TestMockClipboard_SetText(t *testing.T) {
	m := New()
	m.SetText("external copy")

	rc, err := m.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "external copy" {
		t.Errorf("Read() = %q", data)
	}
	if m.Writes() != 0 {
		t.Errorf("SetText should not count as a write")
	}
}

func TestMockClipboard_ReadError(t *testing.T) {
	m := New()
	boom := errors.New("clipboard locked")
	m.SetReadError(boom)

	if _, err := m.Read(); !errors.Is(err, boom) {
		t.Errorf("Read() error = %v, want %v", err, boom)
	}

	m.SetReadError(nil)
	if _, err := m.Read(); err != nil {
		t.Errorf("Read() after reset error = %v", err)
	}
}

func TestMockClipboard_GetDataIsCopy(t *testing.T) {
	m := New()
	m.Write(strings.NewReader("abc"))

	data := m.GetData()
	data[0] = 'x'
	if string(m.GetData()) != "abc" {
		t.Errorf("GetData returned internal buffer")
	}
}
