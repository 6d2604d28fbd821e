// Package sysboard implements the clipboard with platform commands:
// pbcopy/pbpaste on macOS; wl-clipboard, xclip, or xsel on Linux.
package sysboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned when no clipboard tool is available.
var ErrUnsupported = errors.New("no clipboard command available")

// Tool is one read/write command pair.
type Tool struct {
	Name  string
	Read  []string
	Write []string
}

var (
	pbTool    = Tool{Name: "pbpaste", Read: []string{"pbpaste"}, Write: []string{"pbcopy"}}
	wlTool    = Tool{Name: "wl-clipboard", Read: []string{"wl-paste", "--no-newline"}, Write: []string{"wl-copy"}}
	xclipTool = Tool{Name: "xclip", Read: []string{"xclip", "-selection", "clipboard", "-o"}, Write: []string{"xclip", "-selection", "clipboard"}}
	xselTool  = Tool{Name: "xsel", Read: []string{"xsel", "--clipboard", "--output"}, Write: []string{"xsel", "--clipboard", "--input"}}
)

// SystemClipboard implements clipboard.Clipboard using system commands.
// Tools are tried in order; the first that succeeds wins.
type SystemClipboard struct {
	tools []Tool
}

// New creates a SystemClipboard with the tools installed on this system.
func New() *SystemClipboard {
	return NewWithTools(available(candidates(runtime.GOOS, os.Getenv("WAYLAND_DISPLAY") != "")))
}

// NewWithTools creates a SystemClipboard that uses exactly tools.
func NewWithTools(tools []Tool) *SystemClipboard {
	return &SystemClipboard{tools: tools}
}

// candidates lists the tools worth trying on goos, most preferred first.
func candidates(goos string, wayland bool) []Tool {
	switch goos {
	case "darwin":
		return []Tool{pbTool}
	case "linux", "freebsd", "openbsd", "netbsd":
		if wayland {
			return []Tool{wlTool, xclipTool, xselTool}
		}
		return []Tool{xclipTool, xselTool}
	default:
		return nil
	}
}

// available filters tools to those whose commands are on PATH.
func available(tools []Tool) []Tool {
	var out []Tool
	for _, t := range tools {
		if _, err := exec.LookPath(t.Read[0]); err != nil {
			continue
		}
		if _, err := exec.LookPath(t.Write[0]); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Tools returns the tools this clipboard will try.
func (s *SystemClipboard) Tools() []Tool {
	return s.tools
}

// IsSupported returns true if at least one clipboard tool is available.
func (s *SystemClipboard) IsSupported() bool {
	return len(s.tools) > 0
}

// Read returns the clipboard contents. The first tool that runs successfully wins.
func (s *SystemClipboard) Read() (io.ReadCloser, error) {
	if len(s.tools) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
	}

	var errs []string
	for _, t := range s.tools {
		data, err := runRead(t.Read)
		if err == nil {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", t.Name, err))
	}
	return nil, fmt.Errorf("failed to read clipboard (%s)", strings.Join(errs, "; "))
}

// Write replaces the clipboard contents with r.
func (s *SystemClipboard) Write(r io.Reader) error {
	if len(s.tools) == 0 {
		return fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
	}

	// Buffer once so a failed tool does not consume the input for the next one.
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var errs []string
	for _, t := range s.tools {
		err := runWrite(t.Write, data)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", t.Name, err))
	}
	return fmt.Errorf("failed to write clipboard (%s)", strings.Join(errs, "; "))
}

// runRead executes argv and returns its stdout.
func runRead(argv []string) ([]byte, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// runWrite executes argv with data as stdin.
func runWrite(argv []string, data []byte) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	return cmd.Run()
}
