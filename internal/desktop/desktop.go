// Package desktop restores application focus and synthesizes paste keystrokes.
//
// Focus and paste are driven through platform tools: osascript on macOS and
// xdotool on X11. Where neither is present the Noop implementations are used
// and recall degrades to copying the entry onto the clipboard.
package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/yiblet/cliprecall/internal/clipboard"
)

// AppHandle identifies a foreground application: an application name on
// macOS, a window id on X11. The zero value means "unknown".
type AppHandle string

// ErrNoApp is returned by Activate for the zero AppHandle.
var ErrNoApp = errors.New("no application to activate")

// FocusController reports and changes the foreground application.
type FocusController interface {
	Current() (AppHandle, error)
	Activate(app AppHandle) error
}

// PasteSynthesizer delivers text into the focused application.
type PasteSynthesizer interface {
	// Place puts text on the shared clipboard.
	Place(text string) error
	// EmitPasteGesture sends the platform paste keystroke.
	EmitPasteGesture() error
}

// Paste places text on the clipboard and sends the paste keystroke.
func Paste(p PasteSynthesizer, text string) error {
	if err := p.Place(text); err != nil {
		return fmt.Errorf("failed to place text: %w", err)
	}
	if err := p.EmitPasteGesture(); err != nil {
		return fmt.Errorf("failed to emit paste: %w", err)
	}
	return nil
}

// commandTimeout bounds each helper process.
const commandTimeout = 2 * time.Second

// Runner executes a command and returns its trimmed stdout.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("failed to run %s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("failed to run %s: %w", name, err)
	}
	return strings.TrimSpace(out.String()), nil
}

func run(r Runner, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return r(ctx, name, args...)
}

// Platform names the automation backend in use.
type Platform string

const (
	PlatformMac  Platform = "osascript"
	PlatformX11  Platform = "xdotool"
	PlatformNone Platform = "none"
)

// Detect picks the automation backend for this system.
func Detect() Platform {
	return detect(runtime.GOOS, exec.LookPath)
}

func detect(goos string, lookPath func(string) (string, error)) Platform {
	switch goos {
	case "darwin":
		if _, err := lookPath("osascript"); err == nil {
			return PlatformMac
		}
	case "linux", "freebsd", "openbsd", "netbsd":
		if _, err := lookPath("xdotool"); err == nil {
			return PlatformX11
		}
	}
	return PlatformNone
}

// NewFocusController returns the focus controller for platform.
func NewFocusController(platform Platform, r Runner) FocusController {
	switch platform {
	case PlatformMac:
		return &macFocus{run: r}
	case PlatformX11:
		return &x11Focus{run: r}
	default:
		return Noop{}
	}
}

// NewPaster returns a synthesizer that places text on board and, if
// gesture is true, sends the paste keystroke for platform.
func NewPaster(platform Platform, board clipboard.Clipboard, r Runner, gesture bool) PasteSynthesizer {
	p := &ClipboardPaster{board: board}
	if !gesture {
		return p
	}
	switch platform {
	case PlatformMac:
		p.gesture = func() error {
			_, err := run(r, "osascript", "-e", `tell application "System Events" to keystroke "v" using command down`)
			return err
		}
	case PlatformX11:
		p.gesture = func() error {
			_, err := run(r, "xdotool", "key", "--clearmodifiers", "ctrl+v")
			return err
		}
	}
	return p
}

// ClipboardPaster places text on a clipboard and optionally sends a keystroke.
type ClipboardPaster struct {
	board   clipboard.Clipboard
	gesture func() error
}

// Place writes text to the clipboard.
func (p *ClipboardPaster) Place(text string) error {
	return clipboard.WriteText(p.board, text)
}

// EmitPasteGesture sends the paste keystroke, or does nothing if none is configured.
func (p *ClipboardPaster) EmitPasteGesture() error {
	if p.gesture == nil {
		return nil
	}
	return p.gesture()
}

type macFocus struct {
	run Runner
}

func (m *macFocus) Current() (AppHandle, error) {
	out, err := run(m.run, "osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`)
	if err != nil {
		return "", fmt.Errorf("failed to get frontmost app: %w", err)
	}
	return AppHandle(out), nil
}

func (m *macFocus) Activate(app AppHandle) error {
	if app == "" {
		return ErrNoApp
	}
	script := fmt.Sprintf("tell application %q to activate", string(app))
	if _, err := run(m.run, "osascript", "-e", script); err != nil {
		return fmt.Errorf("failed to activate %s: %w", app, err)
	}
	return nil
}

type x11Focus struct {
	run Runner
}

func (x *x11Focus) Current() (AppHandle, error) {
	out, err := run(x.run, "xdotool", "getactivewindow")
	if err != nil {
		return "", fmt.Errorf("failed to get active window: %w", err)
	}
	return AppHandle(out), nil
}

func (x *x11Focus) Activate(app AppHandle) error {
	if app == "" {
		return ErrNoApp
	}
	if _, err := run(x.run, "xdotool", "windowactivate", "--sync", string(app)); err != nil {
		return fmt.Errorf("failed to activate window %s: %w", app, err)
	}
	return nil
}

// Noop is a FocusController and PasteSynthesizer that does nothing.
type Noop struct{}

func (Noop) Current() (AppHandle, error) { return "", nil }
func (Noop) Activate(AppHandle) error    { return nil }
func (Noop) Place(string) error          { return nil }
func (Noop) EmitPasteGesture() error     { return nil }
