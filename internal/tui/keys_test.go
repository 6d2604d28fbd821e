package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyMap_Hotkey(t *testing.T) {
	tests := []struct {
		name   string
		hotkey string
		want   []string
	}{
		{"default", "", []string{"ctrl+v"}},
		{"single", "ctrl+y", []string{"ctrl+y"}},
		{"several", "ctrl+y, alt+v ,", []string{"ctrl+y", "alt+v"}},
		{"blank falls back", " , ", []string{"ctrl+v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := NewKeyMap(tt.hotkey)
			require.Equal(t, tt.want, keys.Hotkey.Keys())
		})
	}
}

func TestKeyMap_Matches(t *testing.T) {
	keys := NewKeyMap(DefaultHotkey)

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlV}, keys.Hotkey))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, keys.Commit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, keys.Close))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlP}, keys.Up))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlN}, keys.Down))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyF1}, keys.Help))

	// "/" and "?" are part of queries
	slash := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")}
	for _, b := range keys.Bindings() {
		assert.False(t, key.Matches(slash, b), "binding %v should not claim /", b.Keys())
	}
}

func TestKeyMap_BindingsHaveHelp(t *testing.T) {
	for _, b := range NewKeyMap(DefaultHotkey).Bindings() {
		assert.NotEmpty(t, b.Help().Key, "binding %v", b.Keys())
		assert.NotEmpty(t, b.Help().Desc, "binding %v", b.Keys())
	}
}
