package cli

import (
	"fmt"

	"github.com/yiblet/cliprecall/internal/config"
)

// Args represents the top-level command structure
type Args struct {
	ConfigPath *string `arg:"--config" help:"Config file (default: ~/.config/cliprecall/config.yaml)"`
	DBPath     *string `arg:"--db" help:"History store path, overrides store-path from the config"`

	Pick    *PickCmd    `arg:"subcommand:pick" help:"Open the recall popup (default)"`
	Watch   *WatchCmd   `arg:"subcommand:watch" help:"Record clipboard changes until interrupted"`
	Capture *CaptureCmd `arg:"subcommand:capture" help:"Record text as if it had been copied"`
	List    *ListCmd    `arg:"subcommand:list" help:"Print history, most recent first"`
	Clear   *ClearCmd   `arg:"subcommand:clear" help:"Remove every history entry"`
	Config  *ConfigCmd  `arg:"subcommand:config" help:"Manage configuration settings"`
}

// PickCmd represents the 'cliprecall pick' command
type PickCmd struct {
	Watch    bool   `arg:"-w,--watch" help:"Also record clipboard changes while the popup is open"`
	Previous string `arg:"--previous,env:CLIPRECALL_PREVIOUS" help:"Application to paste into, as reported before the popup window opened"`
}

// WatchCmd represents the 'cliprecall watch' command
type WatchCmd struct{}

// CaptureCmd represents the 'cliprecall capture' command
type CaptureCmd struct {
	Text *string `arg:"positional" help:"Text to capture (default: read stdin)"`
}

// ListCmd represents the 'cliprecall list' command
type ListCmd struct {
	Limit int    `arg:"-n,--limit" help:"Maximum entries to print (0 = all, or the result limit with --query)"`
	Query string `arg:"-q,--query" help:"Only print entries containing this text, ignoring case"`
	Full  bool   `arg:"-f,--full" help:"Print whole entries separated by blank lines instead of titles"`
}

// ClearCmd represents the 'cliprecall clear' command
type ClearCmd struct {
	Force bool `arg:"-f,--force" help:"Skip confirmation prompt"`
}

// ConfigCmd represents the 'cliprecall config' command
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get a configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set a configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration values"`
}

// ConfigGetCmd represents the 'cliprecall config get' command
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

// ConfigSetCmd represents the 'cliprecall config set' command
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"Configuration value"`
}

// ConfigListCmd represents the 'cliprecall config list' command
type ConfigListCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "cliprecall - clipboard history with a searchable recall popup"
}

// Version returns the program version
func (Args) Version() string {
	return "cliprecall 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  cliprecall watch &                # Record clipboard changes in the background
  cliprecall                        # Open the popup, enter pastes the selection
  cliprecall pick --watch           # Popup that records while open
  echo "hello" | cliprecall capture # Capture from stdin
  cliprecall list -q ssh            # Print entries containing "ssh"
  cliprecall config set max-items 200

Bind "cliprecall pick" to a desktop shortcut to recall from any application.
When the shortcut opens a new terminal for the popup, read the focused
application first so the selection is pasted back into it:
  cliprecall pick --previous "$(xdotool getactivewindow)"     # X11
  CLIPRECALL_PREVIOUS="$(osascript -e 'tell application "System Events" to get name of first application process whose frontmost is true')" cliprecall pick`
}

// HasCommand reports whether any subcommand was given
func (args *Args) HasCommand() bool {
	return args.Pick != nil || args.Watch != nil || args.Capture != nil ||
		args.List != nil || args.Clear != nil || args.Config != nil
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.DBPath != nil && *args.DBPath == "" {
		return fmt.Errorf("--db cannot be empty")
	}
	if args.ConfigPath != nil && *args.ConfigPath == "" {
		return fmt.Errorf("--config cannot be empty")
	}
	if args.List != nil {
		return args.List.Validate()
	}
	if args.Config != nil {
		return args.Config.Validate()
	}
	return nil
}

// Validate validates list command arguments
func (l *ListCmd) Validate() error {
	if l.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	return nil
}

// Validate validates config command arguments
func (c *ConfigCmd) Validate() error {
	if c.Get == nil && c.Set == nil && c.List == nil {
		return fmt.Errorf("no config subcommand specified")
	}
	if c.Get != nil {
		return validateKey(c.Get.Key)
	}
	if c.Set != nil {
		return validateKey(c.Set.Key)
	}
	return nil
}

func validateKey(key string) error {
	for _, k := range config.Keys() {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown configuration key: %s (valid keys: %v)", key, config.Keys())
}
