// Package appdir resolves where cliprecall keeps its files.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yiblet/cliprecall/internal/store"
)

const (
	// ConfigDir is the application directory relative to the home directory.
	ConfigDir = ".config/cliprecall"
	// HistoryFileName is the default flat history file, relative to the home directory.
	HistoryFileName = ".cliprecall_history"
	// LogFileName is the log file inside the application directory.
	LogFileName = "cliprecall.log"
)

// Dir is the application directory, ~/.config/cliprecall by default.
type Dir struct {
	home string
	root string
}

// New returns the default application directory.
func New() (*Dir, error) {
	return NewWithRoot("")
}

// NewWithRoot returns an application directory at root.
// An empty root selects ~/.config/cliprecall; a relative root is taken
// relative to the home directory.
func NewWithRoot(root string) (*Dir, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	d := &Dir{home: homeDir}
	switch {
	case root == "":
		d.root = filepath.Join(homeDir, ConfigDir)
	default:
		d.root = d.Resolve(root)
	}
	return d, nil
}

// Root returns the application directory path.
func (d *Dir) Root() string {
	return d.root
}

// Ensure creates the application directory if needed.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.root, err)
	}
	return nil
}

// Path joins name onto the application directory.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Resolve expands a leading ~ and makes relative paths relative to the home directory.
func (d *Dir) Resolve(p string) string {
	switch {
	case p == "~":
		return d.home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(d.home, p[2:])
	case filepath.IsAbs(p):
		return filepath.Clean(p)
	default:
		return filepath.Join(d.home, p)
	}
}

// ConfigPath returns the config file path.
func (d *Dir) ConfigPath() string {
	return d.Path("config.yaml")
}

// LogPath returns the default log file path.
func (d *Dir) LogPath() string {
	return d.Path(LogFileName)
}

// HistoryFile returns the flat history file path, configured or default.
func (d *Dir) HistoryFile(configured string) string {
	if configured != "" {
		return d.Resolve(configured)
	}
	return filepath.Join(d.home, HistoryFileName)
}

// StorePath returns the database path for a backend kind, configured or default.
// The memory backend has no path.
func (d *Dir) StorePath(kind store.Kind, configured string) string {
	if configured != "" {
		return d.Resolve(configured)
	}
	switch kind {
	case store.KindSQLite:
		return d.Path("history.db")
	case store.KindBolt:
		return d.Path("history.bolt")
	case store.KindFile:
		return d.Path("history.json")
	default:
		return ""
	}
}
