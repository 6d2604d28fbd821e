// Package nativeboard implements the clipboard with golang.design/x/clipboard,
// which talks to the platform clipboard API directly (cgo on macOS and Linux).
package nativeboard

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// initialize runs clipboard.Init once per process.
func initialize() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// NativeClipboard implements clipboard.Clipboard for text content.
type NativeClipboard struct{}

// New creates a new NativeClipboard instance
func New() *NativeClipboard {
	return &NativeClipboard{}
}

// IsSupported reports whether the native clipboard could be initialized.
func (n *NativeClipboard) IsSupported() bool {
	return initialize() == nil
}

// Read returns the text currently on the clipboard. Non-text content reads as empty.
func (n *NativeClipboard) Read() (io.ReadCloser, error) {
	if err := initialize(); err != nil {
		return nil, fmt.Errorf("failed to init clipboard: %w", err)
	}
	return io.NopCloser(bytes.NewReader(clipboard.Read(clipboard.FmtText))), nil
}

// Write replaces the clipboard contents with r as text.
func (n *NativeClipboard) Write(r io.Reader) error {
	if err := initialize(); err != nil {
		return fmt.Errorf("failed to init clipboard: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	clipboard.Write(clipboard.FmtText, data)
	return nil
}
