package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// HelpMsg represents messages that the help overlay handles
type HelpMsg interface {
	isHelpMsg()
}

type ShowHelpMsg struct{}

func (ShowHelpMsg) isHelpMsg() {}

type HideHelpMsg struct{}

func (HideHelpMsg) isHelpMsg() {}

// HelpModel is the key binding overlay
type HelpModel struct {
	Active bool
	Help   help.Model
}

// NewHelpModel creates a hidden overlay listing every binding
func NewHelpModel() HelpModel {
	h := help.New()
	h.ShowAll = true
	return HelpModel{Help: h}
}

// Update handles help messages
func (m *HelpModel) Update(msg HelpMsg) {
	switch msg.(type) {
	case ShowHelpMsg:
		m.Active = true
	case HideHelpMsg:
		m.Active = false
	}
}

var helpBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("205")).
	Padding(1, 2)

// HelpView centers the binding overview in a window of the given size
func HelpView(model HelpModel, keys KeyMap, windowWidth, windowHeight int) string {
	h := model.Help
	h.Width = max(windowWidth-8, 0)

	title := lipgloss.NewStyle().Bold(true).Render("cliprecall")
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		h.View(keys),
		"",
		"Type to filter, matching ignores case.",
		"Press f1 or esc to return",
	)
	return lipgloss.Place(windowWidth, windowHeight, lipgloss.Center, lipgloss.Center, helpBoxStyle.Render(body))
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Close, k.Help}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Commit, k.Hotkey, k.Close},
		{k.Up, k.Down},
		{k.PreviewUp, k.PreviewDown, k.Help},
	}
}
