package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// DefaultHotkey is the in-popup chord that confirms the selection.
const DefaultHotkey = "ctrl+v"

// KeyMap holds every binding the popup reacts to. Keys not bound here are
// typed into the query.
type KeyMap struct {
	Hotkey      key.Binding
	Commit      key.Binding
	Close       key.Binding
	Up          key.Binding
	Down        key.Binding
	PreviewUp   key.Binding
	PreviewDown key.Binding
	Help        key.Binding
}

// NewKeyMap returns the default bindings with the confirm chord set to
// hotkey. Several chords may be given separated by commas.
func NewKeyMap(hotkey string) KeyMap {
	chords := splitChords(hotkey)
	if len(chords) == 0 {
		chords = []string{DefaultHotkey}
	}

	return KeyMap{
		Hotkey:      key.NewBinding(key.WithKeys(chords...), key.WithHelp(strings.Join(chords, "/"), "paste selection")),
		Commit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "paste selection")),
		Close:       key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "close")),
		Up:          key.NewBinding(key.WithKeys("up", "ctrl+p", "shift+tab"), key.WithHelp("↑/ctrl+p", "previous")),
		Down:        key.NewBinding(key.WithKeys("down", "ctrl+n", "tab"), key.WithHelp("↓/ctrl+n", "next")),
		PreviewUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll preview up")),
		PreviewDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll preview down")),
		Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
	}
}

// Bindings lists the bindings in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Commit, k.Hotkey, k.Up, k.Down, k.PreviewUp, k.PreviewDown, k.Help, k.Close}
}

func splitChords(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
