// Package clipboard defines the clipboard abstraction shared by the
// observer and the paste synthesizer, plus text helpers on top of it.
// Implementations live in the sysboard, nativeboard, portboard, and mockboard subpackages.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxTextSize is the largest clipboard payload accepted as a history entry.
const MaxTextSize = 1 << 20

var (
	// ErrNotText is returned by ReadText for binary or non-UTF-8 content.
	ErrNotText = errors.New("clipboard content is not text")
	// ErrTooLarge is returned by ReadText when content exceeds MaxTextSize.
	ErrTooLarge = errors.New("clipboard content too large")
)

// Clipboard reads and writes the shared system clipboard.
type Clipboard interface {
	Read() (io.ReadCloser, error)
	Write(r io.Reader) error
	IsSupported() bool
}

// ReadText returns the clipboard contents as a string.
// Binary, invalid UTF-8, and oversized content are reported as errors.
func ReadText(c Clipboard) (string, error) {
	rc, err := c.Read()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxTextSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	if len(data) > MaxTextSize {
		return "", ErrTooLarge
	}
	if IsBinary(data) || !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}

// WriteText replaces the clipboard contents with text.
func WriteText(c Clipboard, text string) error {
	if err := c.Write(strings.NewReader(text)); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// IsBinary detects binary content from its first 512 bytes.
func IsBinary(data []byte) bool {
	// Check for null bytes or high concentration of non-printable characters
	nullCount := 0
	nonPrintable := 0
	sampleSize := min(len(data), 512)

	for i := 0; i < sampleSize; i++ {
		b := data[i]
		if b == 0 {
			nullCount++
		}
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			nonPrintable++
		}
	}

	// If more than 10% null bytes or 30% non-printable, consider binary
	return nullCount > sampleSize/10 || nonPrintable > sampleSize*3/10
}
