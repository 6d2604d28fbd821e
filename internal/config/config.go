package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Ingestion sources.
const (
	SourceLive = "live"
	SourceFile = "file"
)

// Clipboard implementations.
const (
	ClipboardSystem   = "system"
	ClipboardNative   = "native"
	ClipboardPortable = "portable"
)

// Config represents the cliprecall configuration
type Config struct {
	MaxItems       int           `yaml:"max_items"`
	ResultLimit    int           `yaml:"result_limit"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	Source         string        `yaml:"source"`
	Backend        string        `yaml:"backend"`
	StorePath      string        `yaml:"store_path,omitempty"`
	HistoryFile    string        `yaml:"history_file,omitempty"`
	Clipboard      string        `yaml:"clipboard"`
	Hotkey         string        `yaml:"hotkey"`
	RejectPatterns []string      `yaml:"reject_patterns"`
	Paste          bool          `yaml:"paste"`
	LogFile        string        `yaml:"log_file,omitempty"`
	LogLevel       string        `yaml:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxItems:       100,
		ResultLimit:    30,
		PollInterval:   800 * time.Millisecond,
		SettleDelay:    100 * time.Millisecond,
		Source:         SourceLive,
		Backend:        "sqlite",
		Clipboard:      ClipboardSystem,
		Hotkey:         "ctrl+v",
		RejectPatterns: []string{"git apply --3way", "diff --git"},
		Paste:          true,
		LogLevel:       "info",
	}
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a manager for ~/.config/cliprecall/config.yaml
func NewConfigManager() (*ConfigManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return &ConfigManager{
		configPath: filepath.Join(homeDir, ".config", "cliprecall", "config.yaml"),
	}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist.
// Keys missing from the file keep their defaults.
func (cm *ConfigManager) Load() (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every field's range.
func (c *Config) Validate() error {
	if c.MaxItems <= 0 {
		return fmt.Errorf("max_items must be greater than 0")
	}
	if c.MaxItems > 10000 {
		return fmt.Errorf("max_items cannot exceed 10000 items")
	}
	if c.ResultLimit <= 0 || c.ResultLimit > 1000 {
		return fmt.Errorf("result_limit must be between 1 and 1000")
	}
	if c.PollInterval < 50*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 50ms")
	}
	if c.SettleDelay < 0 || c.SettleDelay > 5*time.Second {
		return fmt.Errorf("settle_delay must be between 0 and 5s")
	}
	if err := oneOf("source", c.Source, SourceLive, SourceFile); err != nil {
		return err
	}
	if err := oneOf("backend", c.Backend, "sqlite", "bolt", "file", "memory"); err != nil {
		return err
	}
	if err := oneOf("clipboard", c.Clipboard, ClipboardSystem, ClipboardNative, ClipboardPortable); err != nil {
		return err
	}
	if err := oneOf("log_level", c.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Hotkey) == "" {
		return fmt.Errorf("hotkey cannot be empty")
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s must be one of %s (got %q)", name, strings.Join(allowed, ", "), value)
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// field binds a dashed key to a Config field.
type field struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

func intField(name string, ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %s", name, value)
			}
			*ptr(c) = n
			return nil
		},
	}
}

func durationField(name string, ptr func(c *Config) *time.Duration) field {
	return field{
		get: func(c *Config) string { return ptr(c).String() },
		set: func(c *Config, value string) error {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration value for %s: %s", name, value)
			}
			*ptr(c) = d
			return nil
		},
	}
}

func stringField(ptr func(c *Config) *string, emptyAs string) field {
	return field{
		get: func(c *Config) string {
			if v := *ptr(c); v != "" {
				return v
			}
			return emptyAs
		},
		set: func(c *Config, value string) error {
			*ptr(c) = value
			return nil
		},
	}
}

var fields = map[string]field{
	"max-items":     intField("max-items", func(c *Config) *int { return &c.MaxItems }),
	"result-limit":  intField("result-limit", func(c *Config) *int { return &c.ResultLimit }),
	"poll-interval": durationField("poll-interval", func(c *Config) *time.Duration { return &c.PollInterval }),
	"settle-delay":  durationField("settle-delay", func(c *Config) *time.Duration { return &c.SettleDelay }),
	"source":        stringField(func(c *Config) *string { return &c.Source }, ""),
	"backend":       stringField(func(c *Config) *string { return &c.Backend }, ""),
	"store-path":    stringField(func(c *Config) *string { return &c.StorePath }, "[default]"),
	"history-file":  stringField(func(c *Config) *string { return &c.HistoryFile }, "[default]"),
	"clipboard":     stringField(func(c *Config) *string { return &c.Clipboard }, ""),
	"hotkey":        stringField(func(c *Config) *string { return &c.Hotkey }, ""),
	"log-file":      stringField(func(c *Config) *string { return &c.LogFile }, "[none]"),
	"log-level":     stringField(func(c *Config) *string { return &c.LogLevel }, ""),
	"paste": {
		get: func(c *Config) string { return strconv.FormatBool(c.Paste) },
		set: func(c *Config, value string) error {
			switch value {
			case "true":
				c.Paste = true
			case "false":
				c.Paste = false
			default:
				return fmt.Errorf("invalid boolean value for paste: %s (must be 'true' or 'false')", value)
			}
			return nil
		},
	},
	"reject-patterns": {
		get: func(c *Config) string { return strings.Join(c.RejectPatterns, ",") },
		set: func(c *Config, value string) error {
			c.RejectPatterns = nil
			for _, p := range strings.Split(value, ",") {
				if p = strings.TrimSpace(p); p != "" {
					c.RejectPatterns = append(c.RejectPatterns, p)
				}
			}
			return nil
		},
	},
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	config, err := cm.Load()
	if err != nil {
		return err
	}
	if err := f.set(config, value); err != nil {
		return err
	}
	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}

	config, err := cm.Load()
	if err != nil {
		return "", err
	}
	return f.get(config), nil
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(fields))
	for k, f := range fields {
		result[k] = f.get(config)
	}
	return result, nil
}
