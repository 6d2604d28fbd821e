package nativeboard

import (
	"testing"

	"github.com/yiblet/cliprecall/internal/clipboard"
)

func TestNativeClipboard_RoundTrip(t *testing.T) {
	var _ clipboard.Clipboard = (*NativeClipboard)(nil)

	n := New()
	if !n.IsSupported() {
		t.Skip("native clipboard unavailable (no display)")
	}

	if err := clipboard.WriteText(n, "native round trip"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	got, err := clipboard.ReadText(n)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if got != "native round trip" {
		t.Errorf("ReadText() = %q", got)
	}
}
