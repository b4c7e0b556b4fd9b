package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Send        key.Binding
	NextChoice  key.Binding
	PrevChoice  key.Binding
	Restart     key.Binding
	TogglePanel key.Binding
	Up          key.Binding
	Down        key.Binding
	Cancel      key.Binding
	Export      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NextChoice: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next choice"),
		),
		PrevChoice: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev choice"),
		),
		Restart: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "restart"),
		),
		TogglePanel: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "appointments"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "cancel appointment"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export .ics"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Send, m.keys.NextChoice, m.keys.Restart, m.keys.TogglePanel}
	if m.panelOpen {
		keys = append(keys, m.keys.Cancel, m.keys.Export)
	}
	return append(keys, m.keys.Help, m.keys.Quit)
}

func (m Model) FullHelp() [][]key.Binding {
	chat := []key.Binding{m.keys.Send, m.keys.NextChoice, m.keys.PrevChoice, m.keys.Restart}
	panel := []key.Binding{m.keys.TogglePanel, m.keys.Up, m.keys.Down, m.keys.Cancel, m.keys.Export}
	global := []key.Binding{m.keys.Help, m.keys.Quit}
	return [][]key.Binding{chat, panel, global}
}
