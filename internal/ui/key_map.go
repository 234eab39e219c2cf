package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines the [key.Binding] mapping for the TUI.
//
// In the wizard panel every printable key not bound to save or cancel is a hotkey.
type keyMap struct {
	focus  key.Binding
	up     key.Binding
	down   key.Binding
	left   key.Binding
	right  key.Binding
	enter  key.Binding
	back   key.Binding
	save   key.Binding
	cancel key.Binding
	clock  key.Binding
	remove key.Binding
	quit   key.Binding
}

// newKeyMap builds the bindings; empty save or cancel keys fall back to enter/b and esc.
func newKeyMap(saveKeys, cancelKeys []string) keyMap {
	if len(saveKeys) == 0 {
		saveKeys = []string{"enter", "b"}
	}
	if len(cancelKeys) == 0 {
		cancelKeys = []string{"esc"}
	}

	return keyMap{
		focus:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next panel")),
		up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		down:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		left:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
		right:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "back")),
		save:   key.NewBinding(key.WithKeys(saveKeys...), key.WithHelp(strings.Join(saveKeys, "/"), "save")),
		cancel: key.NewBinding(key.WithKeys(cancelKeys...), key.WithHelp(strings.Join(cancelKeys, "/"), "cancel")),
		clock:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "start/stop clock")),
		remove: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove event")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.focus, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.focus, k.up, k.down, k.left, k.right, k.enter},
		{k.back, k.save, k.cancel},
		{k.clock, k.remove, k.quit},
	}
}

// helpFor lists the bindings that apply in a panel.
func (k keyMap) helpFor(f focus) []key.Binding {
	switch f {
	case focusRoster:
		return []key.Binding{k.up, k.down, k.enter, k.focus, k.quit}
	case focusPitch:
		return []key.Binding{k.up, k.down, k.left, k.right, k.enter, k.focus, k.quit}
	case focusEvents:
		return []key.Binding{k.up, k.down, k.remove, k.focus, k.quit}
	default:
		return []key.Binding{k.back, k.save, k.cancel, k.clock, k.focus, k.quit}
	}
}
