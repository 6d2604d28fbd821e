package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yiblet/cliprecall/internal/history"
	"github.com/yiblet/cliprecall/internal/recall"
	"github.com/yiblet/cliprecall/internal/watch"
)

// UIMode represents the current modal state of the application
type UIMode int

const (
	NormalMode UIMode = iota
	HelpMode
)

// clipPolledMsg carries the result of one clipboard poll
type clipPolledMsg struct {
	text string
	ok   bool
}

// sourceChangedMsg reports that the history changed outside this process
type sourceChangedMsg struct{}

type flashExpiredMsg struct{}

// Option configures an AppModel.
type Option func(*AppModel)

// WithKeyMap replaces the default key bindings.
func WithKeyMap(k KeyMap) Option {
	return func(a *AppModel) {
		a.Keys = k
	}
}

// WithObserver polls the clipboard while the popup is open and records
// every change in src. Captures run on the UI loop.
func WithObserver(o *watch.Observer, src history.Source) Option {
	return func(a *AppModel) {
		a.observer = o
		a.source = src
	}
}

// WithChanges refreshes the list whenever ch fires.
func WithChanges(ch <-chan struct{}) Option {
	return func(a *AppModel) {
		a.changes = ch
	}
}

// AppModel is the recall popup. The session owns the query, the results
// and the cursor; the model owns layout and input.
type AppModel struct {
	Width        int    // Window width
	Height       int    // Window height
	ListWidth    int    // Result list width
	PreviewWidth int    // Preview pane width
	CurrentMode  UIMode // Current modal state

	// Sub-models
	Input   textinput.Model
	List    ListModel
	Preview PreviewModel
	Help    HelpModel
	Keys    KeyMap

	// Flash message for temporary notifications
	FlashMessage string
	FlashExpiry  time.Time

	session  *recall.Session
	observer *watch.Observer
	source   history.Source
	changes  <-chan struct{}

	committed    string
	hasCommitted bool
	finished     bool
}

// NewAppModel creates the popup for an open session
func NewAppModel(session *recall.Session, opts ...Option) *AppModel {
	// Default dimensions that will be properly set on first resize
	defaultWidth := 120
	defaultHeight := 20
	defaultListWidth := 48
	defaultPreviewWidth := 70

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type to filter"
	input.Width = defaultWidth - 4
	input.Focus()

	a := &AppModel{
		Width:        defaultWidth,
		Height:       defaultHeight,
		ListWidth:    defaultListWidth,
		PreviewWidth: defaultPreviewWidth,
		CurrentMode:  NormalMode,
		Input:        input,
		List:         NewListModel(defaultListWidth, defaultHeight-1),
		Preview:      NewPreviewModel(defaultPreviewWidth, defaultHeight-1),
		Help:         NewHelpModel(),
		Keys:         NewKeyMap(DefaultHotkey),
		session:      session,
	}
	for _, opt := range opts {
		opt(a)
	}
	if q := session.Query(); q != "" {
		a.Input.SetValue(q)
	}
	a.syncSelection()
	return a
}

// Committed returns the entry chosen by the user, if any.
func (a *AppModel) Committed() (string, bool) {
	return a.committed, a.hasCommitted
}

// Init starts the cursor blink and any background feeds
func (a *AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.pollClipboard(), a.waitForChange())
}

// Update handles app-level messages and routes to appropriate sub-models
func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleWindowResize(m)
	case tea.KeyMsg:
		return a.handleKeyPress(m)
	case tea.BlurMsg:
		if a.finished {
			return a, nil
		}
		return a.close()
	case clipPolledMsg:
		var flash tea.Cmd
		if m.ok && !a.finished {
			a.source.Capture(m.text)
			a.refresh()
			flash = a.setFlashMessage("Captured: "+history.Title(m.text, 40), 2*time.Second)
		}
		return a, tea.Batch(flash, a.pollClipboard())
	case sourceChangedMsg:
		if !a.finished {
			a.refresh()
		}
		return a, a.waitForChange()
	case flashExpiredMsg:
		if !time.Now().Before(a.FlashExpiry) {
			a.FlashMessage = ""
			a.FlashExpiry = time.Time{}
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.Input, cmd = a.Input.Update(msg)
	return a, cmd
}

// handleWindowResize processes window resize events
func (a *AppModel) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	a.Width = max(msg.Width, 30)
	a.Height = max(msg.Height, 10)

	minListWidth := 20
	minPreviewWidth := 20
	borderSpacing := 2 // Adjacent borders, no separator

	a.ListWidth = max(a.Width*2/5, minListWidth)
	a.PreviewWidth = a.Width - a.ListWidth - borderSpacing
	if a.PreviewWidth < minPreviewWidth {
		a.PreviewWidth = minPreviewWidth
		a.ListWidth = max(a.Width-a.PreviewWidth-borderSpacing, minListWidth)
	}

	// The query line takes one row above the panes
	paneHeight := a.Height - 1
	a.List.Update(ResizeListMsg{Width: a.ListWidth, Height: paneHeight})
	a.Preview.Update(ResizePreviewMsg{Width: a.PreviewWidth, Height: paneHeight})
	a.List.Update(FollowCursorMsg{Cursor: a.session.Cursor()})
	a.Input.Width = max(a.Width-len(a.Input.Prompt)-1, 1)

	return a, nil
}

// handleKeyPress processes key press events, mode first
func (a *AppModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.finished {
		return a, nil
	}
	if a.CurrentMode == HelpMode {
		return a.handleHelpModeKeys(msg)
	}

	switch {
	case key.Matches(msg, a.Keys.Hotkey):
		text, ok := a.session.Hotkey(true)
		if ok {
			return a.finish(text)
		}
		a.syncSelection()
		return a, nil
	case key.Matches(msg, a.Keys.Commit):
		if text, ok := a.session.Commit(); ok {
			return a.finish(text)
		}
		return a, nil
	case key.Matches(msg, a.Keys.Close):
		return a.close()
	case key.Matches(msg, a.Keys.Up):
		a.session.Move(-1)
		a.syncSelection()
		return a, nil
	case key.Matches(msg, a.Keys.Down):
		a.session.Move(1)
		a.syncSelection()
		return a, nil
	case key.Matches(msg, a.Keys.PreviewUp):
		a.Preview.Update(PageUpMsg{})
		return a, nil
	case key.Matches(msg, a.Keys.PreviewDown):
		a.Preview.Update(PageDownMsg{})
		return a, nil
	case key.Matches(msg, a.Keys.Help):
		a.CurrentMode = HelpMode
		a.Help.Update(ShowHelpMsg{})
		return a, nil
	}

	// Everything else edits the query
	before := a.Input.Value()
	var cmd tea.Cmd
	a.Input, cmd = a.Input.Update(msg)
	if after := a.Input.Value(); after != before {
		a.session.SetQuery(after)
		a.syncSelection()
	}
	return a, cmd
}

// handleHelpModeKeys processes keys when the help modal is shown
func (a *AppModel) handleHelpModeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		// Force close is always available
		return a.close()
	case key.Matches(msg, a.Keys.Help), key.Matches(msg, a.Keys.Close):
		a.Help.Update(HideHelpMsg{})
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) finish(text string) (tea.Model, tea.Cmd) {
	a.committed = text
	a.hasCommitted = true
	a.finished = true
	return a, tea.Quit
}

func (a *AppModel) close() (tea.Model, tea.Cmd) {
	a.session.Close()
	a.finished = true
	return a, tea.Quit
}

// refresh re-reads the history keeping the query and the selected entry
func (a *AppModel) refresh() {
	a.session.Refresh()
	a.syncSelection()
}

// syncSelection scrolls the list to the cursor and shows the selected entry
func (a *AppModel) syncSelection() {
	a.List.Update(FollowCursorMsg{Cursor: a.session.Cursor()})
	text, err := a.session.Selected()
	if err != nil {
		text = ""
	}
	a.Preview.Update(UpdateContentMsg{Text: text})
}

// pollClipboard schedules the next clipboard poll
func (a *AppModel) pollClipboard() tea.Cmd {
	if a.observer == nil || a.source == nil {
		return nil
	}
	o := a.observer
	return tea.Tick(o.Interval(), func(time.Time) tea.Msg {
		text, ok := o.Poll()
		return clipPolledMsg{text: text, ok: ok}
	})
}

// waitForChange blocks on the change feed until it fires or closes
func (a *AppModel) waitForChange() tea.Cmd {
	ch := a.changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sourceChangedMsg{}
	}
}

// setFlashMessage sets a flash message that will disappear after the specified duration
func (a *AppModel) setFlashMessage(message string, duration time.Duration) tea.Cmd {
	a.FlashMessage = message
	a.FlashExpiry = time.Now().Add(duration)
	return tea.Tick(duration, func(t time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

// View method for tea.Model compatibility
func (a *AppModel) View() string {
	return AppView(*a)
}

// AppView renders the complete popup using pure functions
func AppView(model AppModel) string {
	if model.Width == 0 {
		return "Initializing..."
	}

	if model.Help.Active {
		return HelpView(model.Help, model.Keys, model.Width, model.Height)
	}
	return renderNormalView(model)
}

// renderNormalView renders the query line above the list and preview panes
func renderNormalView(model AppModel) string {
	query := model.session.Query()
	index := model.session.Cursor()

	listLines := strings.Split(ListView(model.List, model.session, query), "\n")
	previewLines := strings.Split(PreviewView(model.Preview, index, query), "\n")

	var result strings.Builder
	result.WriteString(model.Input.View() + "\n")

	maxLines := max(len(listLines), len(previewLines))
	for i := 0; i < maxLines; i++ {
		var listLine, previewLine string
		if i < len(listLines) {
			listLine = listLines[i]
		}
		if i < len(previewLines) {
			previewLine = previewLines[i]
		}
		// Borders provide the visual separation
		result.WriteString(listLine + previewLine + "\n")
	}

	result.WriteString(renderStatusLine(model))
	return result.String()
}

// renderStatusLine renders the bottom status line (pure function)
func renderStatusLine(model AppModel) string {
	statusStyle := lipgloss.NewStyle().Width(model.Width)

	if model.FlashMessage != "" && time.Now().Before(model.FlashExpiry) {
		return statusStyle.Foreground(lipgloss.Color("10")).Render(model.FlashMessage)
	}

	if model.CurrentMode == HelpMode {
		return statusStyle.Render("Help - press f1 or esc to return")
	}

	n := model.session.RowCount()
	if n == 0 {
		return statusStyle.Render("Nothing to paste - esc to close, f1 for help")
	}
	position := fmt.Sprintf("%d/%d", model.session.Cursor()+1, n)
	hotkey := model.Keys.Hotkey.Help().Key
	return statusStyle.Render(position + "  enter or " + hotkey + " to paste, esc to close, f1 for help")
}
