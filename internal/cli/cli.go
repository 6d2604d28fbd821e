package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yiblet/cliprecall/internal/appdir"
	"github.com/yiblet/cliprecall/internal/clipboard"
	"github.com/yiblet/cliprecall/internal/clipboard/nativeboard"
	"github.com/yiblet/cliprecall/internal/clipboard/portboard"
	"github.com/yiblet/cliprecall/internal/clipboard/sysboard"
	"github.com/yiblet/cliprecall/internal/config"
	"github.com/yiblet/cliprecall/internal/desktop"
	"github.com/yiblet/cliprecall/internal/history"
	"github.com/yiblet/cliprecall/internal/logging"
	"github.com/yiblet/cliprecall/internal/recall"
	"github.com/yiblet/cliprecall/internal/store"
	"github.com/yiblet/cliprecall/internal/store/boltstore"
	"github.com/yiblet/cliprecall/internal/store/dbstore"
	"github.com/yiblet/cliprecall/internal/store/filestore"
	"github.com/yiblet/cliprecall/internal/store/memstore"
	"github.com/yiblet/cliprecall/internal/tui"
	"github.com/yiblet/cliprecall/internal/watch"
)

// pasteTimeout bounds how long pick waits for the deferred paste beyond the settle delay.
const pasteTimeout = 2 * time.Second

// CLI handles the command-line interface
type CLI struct {
	dir     *appdir.Dir
	configs *config.ConfigManager
	config  *config.Config
	log     *logging.Logger
	dbPath  string

	// History is opened on first use; config commands never touch it.
	source history.Source
	live   *history.Store
	file   *history.FileSource

	clipboard clipboard.Clipboard
	stdin     io.Reader
	stdout    io.Writer
}

// New creates a new CLI instance with default paths
func New() (*CLI, error) {
	return NewWithArgs(nil)
}

// NewWithArgs creates a new CLI instance honoring --config and --db
func NewWithArgs(args *Args) (*CLI, error) {
	dir, err := appdir.New()
	if err != nil {
		return nil, err
	}

	var configs *config.ConfigManager
	if args != nil && args.ConfigPath != nil {
		configs = config.NewConfigManagerWithPath(dir.Resolve(*args.ConfigPath))
	} else {
		configs, err = config.NewConfigManager()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	c := &CLI{
		dir:     dir,
		configs: configs,
		config:  cfg,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
	if args != nil && args.DBPath != nil {
		c.dbPath = *args.DBPath
	}

	if err := c.initLogging(); err != nil {
		return nil, err
	}
	c.log = logging.Get().With("component", "cli")
	c.clipboard = newClipboard(cfg.Clipboard)
	return c, nil
}

// initLogging installs the file logger when log-file is configured
func (c *CLI) initLogging() error {
	if c.config.LogFile == "" {
		return nil
	}
	path := c.dir.Resolve(c.config.LogFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	err := logging.Init(logging.Config{
		FilePath:   path,
		Level:      logging.ParseLevel(c.config.LogLevel),
		Format:     logging.FormatText,
		MaxSizeMB:  10,
		MaxBackups: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func newClipboard(kind string) clipboard.Clipboard {
	switch kind {
	case config.ClipboardNative:
		return nativeboard.New()
	case config.ClipboardPortable:
		return portboard.New()
	default:
		return sysboard.New()
	}
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	switch {
	case args.Watch != nil:
		return c.executeWatch(args.Watch)
	case args.Capture != nil:
		return c.executeCapture(args.Capture)
	case args.List != nil:
		return c.executeList(args.List)
	case args.Clear != nil:
		return c.executeClear(args.Clear)
	case args.Config != nil:
		return c.executeConfig(args.Config)
	case args.Pick != nil:
		return c.executePick(args.Pick)
	default:
		// Default behavior: open the popup
		return c.executePick(&PickCmd{})
	}
}

// Close flushes history and releases the store and the log file
func (c *CLI) Close() error {
	var firstErr error
	if c.live != nil {
		firstErr = c.live.Close()
		c.live = nil
	}
	if c.file != nil {
		if err := c.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.file = nil
	}
	c.source = nil
	if err := logging.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// rules is the retention policy from the config
func (c *CLI) rules() history.Rules {
	return history.Rules{
		MaxItems:       c.config.MaxItems,
		RejectPatterns: c.config.RejectPatterns,
	}
}

// openSource opens the configured history. Storage problems are logged and
// reported but never fatal: history then lives in memory for this run.
func (c *CLI) openSource() history.Source {
	if c.source != nil {
		return c.source
	}

	opts := []history.Option{
		history.WithMaxItems(c.config.MaxItems),
		history.WithRejectPatterns(c.config.RejectPatterns...),
		history.WithLogger(logging.Get()),
	}

	if c.config.Source == config.SourceFile {
		path := c.dir.HistoryFile(c.config.HistoryFile)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			c.log.Warn("history file directory unavailable", "error", err)
		}
		c.file = history.NewFileSource(filestore.NewFileStore(path, filestore.FormatJSON), opts...)
		c.source = c.file
		return c.source
	}

	backend, err := c.openBackend()
	if err != nil {
		c.log.Warn("history will not be saved", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: %v; history will not be saved\n", err)
		backend = nil
	}
	c.live = history.New(backend, opts...)
	if err := c.live.Restore(); err != nil {
		c.log.Warn("starting with empty history", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	c.source = c.live
	return c.source
}

// openBackend opens the configured store; --db overrides its path
func (c *CLI) openBackend() (store.Backend, error) {
	kind, err := store.ParseKind(c.config.Backend)
	if err != nil {
		return nil, err
	}
	if kind == store.KindMemory {
		return memstore.NewMemoryStore(), nil
	}

	configured := c.config.StorePath
	if c.dbPath != "" {
		configured = c.dbPath
	}
	path := c.dir.StorePath(kind, configured)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	switch kind {
	case store.KindSQLite:
		s, err := dbstore.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		return s, nil
	case store.KindBolt:
		s, err := boltstore.NewBoltStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		return s, nil
	default:
		return filestore.NewFileStore(path, filestore.FormatJSON), nil
	}
}

// clearSource empties whichever history is open
func (c *CLI) clearSource() error {
	if c.file != nil {
		return c.file.Clear()
	}
	if c.live != nil {
		c.live.Clear()
	}
	return nil
}

// newSession wires a recall session to the desktop of this machine
func (c *CLI) newSession(src history.Source) *recall.Session {
	platform := desktop.Detect()
	c.log.Debug("desktop detected", "platform", string(platform))

	focus := desktop.NewFocusController(platform, desktop.ExecRunner)
	paster := desktop.NewPaster(platform, c.clipboard, desktop.ExecRunner, c.config.Paste)
	return recall.New(src, focus, paster,
		recall.WithResultLimit(c.config.ResultLimit),
		recall.WithSettleDelay(c.config.SettleDelay),
		recall.WithLogger(logging.Get()),
	)
}

// executePick handles the 'cliprecall pick' command
func (c *CLI) executePick(cmd *PickCmd) error {
	src := c.openSource()

	// Nothing to show and nothing that could fill the list while open
	if len(src.Snapshot()) == 0 && !cmd.Watch && c.file == nil {
		fmt.Fprintln(c.stdout, "History is empty!")
		fmt.Fprintln(c.stdout)
		fmt.Fprintln(c.stdout, "To record clipboard history:")
		fmt.Fprintln(c.stdout, "  cliprecall watch              # in the background")
		fmt.Fprintln(c.stdout, "  cliprecall pick --watch       # only while the popup is open")
		fmt.Fprintln(c.stdout, "  echo \"Hello\" | cliprecall capture")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := c.newSession(src)
	if cmd.Previous != "" {
		session.OpenWith(desktop.AppHandle(cmd.Previous))
	} else {
		session.Open()
	}

	opts := []tui.Option{tui.WithKeyMap(tui.NewKeyMap(c.config.Hotkey))}
	if cmd.Watch {
		observer := watch.NewObserver(c.clipboard, c.config.PollInterval, logging.Get())
		opts = append(opts, tui.WithObserver(observer, src))
	}
	if c.live != nil {
		// Pick up captures made by a background watch or capture command
		opts = append(opts, tui.WithChanges(c.live.Watch(ctx, c.config.PollInterval)))
	}
	if c.file != nil {
		changes, err := c.file.Watch(ctx)
		if err != nil {
			c.log.Warn("history file changes will not be shown", "error", err)
		} else {
			opts = append(opts, tui.WithChanges(changes))
		}
	}

	model := tui.NewAppModel(session, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		session.Close()
		return fmt.Errorf("failed to run popup: %w", err)
	}

	text, ok := model.Committed()
	if !ok {
		return nil
	}
	return c.awaitPaste(ctx, session, text)
}

// awaitPaste keeps the process alive until the deferred paste has run
func (c *CLI) awaitPaste(ctx context.Context, session *recall.Session, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.SettleDelay+pasteTimeout)
	defer cancel()

	if err := session.Wait(ctx); err != nil {
		return fmt.Errorf("failed to paste selection: %w", err)
	}
	if !c.config.Paste {
		fmt.Fprintf(c.stdout, "Copied to clipboard: %s\n", history.Title(text, 60))
	}
	return nil
}

// executeWatch handles the 'cliprecall watch' command
func (c *CLI) executeWatch(cmd *WatchCmd) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.runWatch(ctx)
}

// runWatch records clipboard changes until ctx is done
func (c *CLI) runWatch(ctx context.Context) error {
	if !c.clipboard.IsSupported() {
		return fmt.Errorf("clipboard %q is not available on this system", c.config.Clipboard)
	}
	src := c.openSource()

	observer := watch.NewObserver(c.clipboard, c.config.PollInterval, logging.Get())
	fmt.Fprintf(c.stdout, "Watching clipboard every %s. Press Ctrl+C to stop.\n", observer.Interval())
	if err := watch.Run(ctx, observer, src); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Stopped.")
	return nil
}

// executeCapture handles the 'cliprecall capture' command
func (c *CLI) executeCapture(cmd *CaptureCmd) error {
	var text string
	if cmd.Text != nil {
		text = *cmd.Text
	} else {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = trimFinalNewline(string(data))
	}

	if err := c.rules().Accept(text); err != nil {
		fmt.Fprintf(c.stdout, "Skipped: %v\n", err)
		return nil
	}

	c.openSource().Capture(text)
	fmt.Fprintf(c.stdout, "Captured: %s\n", history.Title(text, 60))
	return nil
}

// trimFinalNewline drops the single line ending most shells append
func trimFinalNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// executeList handles the 'cliprecall list' command
func (c *CLI) executeList(cmd *ListCmd) error {
	limit := cmd.Limit
	if cmd.Query != "" && limit == 0 {
		limit = c.config.ResultLimit
	}
	entries := recall.Filter(c.openSource().Snapshot(), cmd.Query, limit)

	if len(entries) == 0 {
		if cmd.Query != "" {
			fmt.Fprintf(c.stdout, "No entries match %q.\n", cmd.Query)
		} else {
			fmt.Fprintln(c.stdout, "History is empty.")
		}
		return nil
	}

	for i, entry := range entries {
		if cmd.Full {
			if i > 0 {
				fmt.Fprintln(c.stdout)
			}
			fmt.Fprintln(c.stdout, entry)
			continue
		}
		fmt.Fprintf(c.stdout, "%3d  %s\n", i, history.Title(entry, 80))
	}
	return nil
}

// executeClear handles the 'cliprecall clear' command
func (c *CLI) executeClear(cmd *ClearCmd) error {
	count := len(c.openSource().Snapshot())
	if count == 0 {
		fmt.Fprintln(c.stdout, "History is already empty.")
		return nil
	}

	// Prompt for confirmation unless --force is used
	if !cmd.Force {
		fmt.Fprintf(c.stdout, "This will delete %d item(s) from history. Continue? [y/N]: ", count)
		var response string
		fmt.Fscanln(c.stdin, &response)
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(c.stdout, "Cancelled.")
			return nil
		}
	}

	if err := c.clearSource(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintf(c.stdout, "Cleared %d item(s) from history.\n", count)
	return nil
}

// executeConfig handles the 'cliprecall config' command
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		return c.executeConfigGet(cmd.Get)
	case cmd.Set != nil:
		return c.executeConfigSet(cmd.Set)
	case cmd.List != nil:
		return c.executeConfigList(cmd.List)
	default:
		return fmt.Errorf("no config subcommand specified")
	}
}

// executeConfigGet handles the 'cliprecall config get' command
func (c *CLI) executeConfigGet(cmd *ConfigGetCmd) error {
	value, err := c.configs.Get(cmd.Key)
	if err != nil {
		return fmt.Errorf("failed to get config value: %w", err)
	}

	fmt.Fprintln(c.stdout, value)
	return nil
}

// executeConfigSet handles the 'cliprecall config set' command
func (c *CLI) executeConfigSet(cmd *ConfigSetCmd) error {
	if err := c.configs.Update(cmd.Key, cmd.Value); err != nil {
		return fmt.Errorf("failed to set config value: %w", err)
	}

	fmt.Fprintf(c.stdout, "Set %s = %s\n", cmd.Key, cmd.Value)
	return nil
}

// executeConfigList handles the 'cliprecall config list' command
func (c *CLI) executeConfigList(cmd *ConfigListCmd) error {
	values, err := c.configs.List()
	if err != nil {
		return fmt.Errorf("failed to list config values: %w", err)
	}

	fmt.Fprintf(c.stdout, "Current configuration (%s):\n", c.configs.GetConfigPath())
	for _, key := range config.Keys() {
		fmt.Fprintf(c.stdout, "  %s = %s\n", key, values[key])
	}
	return nil
}
