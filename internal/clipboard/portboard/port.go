// Package portboard implements the clipboard with github.com/atotto/clipboard,
// a pure-Go fallback that shells out to whichever tool the platform provides
// (including Windows, which sysboard does not cover).
package portboard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when atotto found no usable clipboard tool.
var ErrUnsupported = errors.New("clipboard unsupported on this system")

// PortableClipboard implements clipboard.Clipboard.
type PortableClipboard struct{}

// New creates a new PortableClipboard instance
func New() *PortableClipboard {
	return &PortableClipboard{}
}

// IsSupported reports whether atotto found a clipboard tool.
func (p *PortableClipboard) IsSupported() bool {
	return !clipboard.Unsupported
}

// Read returns the clipboard text.
func (p *PortableClipboard) Read() (io.ReadCloser, error) {
	if clipboard.Unsupported {
		return nil, ErrUnsupported
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// Write replaces the clipboard text.
func (p *PortableClipboard) Write(r io.Reader) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
