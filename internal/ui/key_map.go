package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	related key.Binding
	toggle  key.Binding
	sync    key.Binding
	play    key.Binding
	seekB   key.Binding
	seekF   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		related: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "related")),
		toggle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "alignments/assets")),
		sync:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sync")),
		play:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		seekB:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-5s")),
		seekF:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+5s")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.related, k.toggle, k.sync},
		{k.play, k.seekB, k.seekF, k.quit},
	}
}
