// Package logging wraps log/slog with rotated file output.
//
// The popup owns the terminal, so logs never go to stdout or stderr.
// With no file configured every call is a no-op.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger.
type Logger struct {
	logger *slog.Logger
	noop   bool
}

// LogFormat represents the output format for logs
type LogFormat string

const (
	// FormatText outputs human-readable text logs
	FormatText LogFormat = "text"
	// FormatJSON outputs structured JSON logs
	FormatJSON LogFormat = "json"
)

// Config holds configuration for logger initialization
type Config struct {
	// FilePath is the path to the log file (empty = no logging)
	FilePath string
	// Level is the minimum log level
	Level slog.Level
	// Format is the output format (text or json)
	Format LogFormat
	// MaxSizeMB is the maximum size in MB before rotation
	MaxSizeMB int
	// MaxBackups is the maximum number of old log files to keep
	MaxBackups int
}

var (
	mu      sync.RWMutex
	global  *Logger
	closer  io.Closer
	discard = &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), noop: true}
)

// Init installs the global logger. An empty FilePath installs the no-op logger.
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
		closer = nil
	}

	if config.FilePath == "" {
		global = discard
		return nil
	}

	writer := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		Compress:   true,
	}
	closer = writer
	global = New(writer, config.Level, config.Format)
	return nil
}

// New builds a logger writing to w. Used for tests and non-global loggers.
func New(w io.Writer, level slog.Level, format LogFormat) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// Discard returns the no-op logger.
func Discard() *Logger {
	return discard
}

// Get returns the global logger, or the no-op logger before Init.
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return discard
	}
	return global
}

// Shutdown closes the log file, if any, and reverts to the no-op logger.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()

	global = discard
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// With returns a new Logger with the given key-value pairs added as context
func (l *Logger) With(args ...any) *Logger {
	if l.noop {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// IsEnabled reports whether l writes anywhere.
func (l *Logger) IsEnabled() bool {
	return !l.noop
}

// Time runs fn and logs its duration at debug level.
func (l *Logger) Time(name string, fn func()) {
	if l.noop {
		fn()
		return
	}

	start := time.Now()
	fn()
	duration := time.Since(start)

	l.Debug(name,
		"duration", duration.String(),
		"ms", duration.Milliseconds(),
	)
}

// ParseLevel converts a string to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a string to LogFormat, defaulting to text.
func ParseFormat(format string) LogFormat {
	if strings.ToLower(format) == "json" {
		return FormatJSON
	}
	return FormatText
}
