package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the explorer's keyboard shortcuts
type KeyMap struct {
	Step  key.Binding
	Burst key.Binding
	Auto  key.Binding
	Reset key.Binding
	Copy  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Step: key.NewBinding(
			key.WithKeys("n", " "),
			key.WithHelp("n/space", "step"),
		),
		Burst: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "100 steps"),
		),
		Auto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto-step"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset heap"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy block table"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Auto, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Burst, k.Auto},
		{k.Reset, k.Copy},
		{k.Help, k.Quit},
	}
}
