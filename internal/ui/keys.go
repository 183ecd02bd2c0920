package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Modes
	ToggleFollow key.Binding
	Reload       key.Binding

	// Highlights
	AddTerm    key.Binding
	RemoveTerm key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	CopyLine   key.Binding

	// Filter
	Filter           key.Binding
	ToggleIgnoreCase key.Binding
	ToggleFilterType key.Binding

	// Modal input
	Confirm  key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("?", "Help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		// Modes
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Live tail"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reopen anchor"),
		),

		// Highlights
		AddTerm: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Highlight"),
		),
		RemoveTerm: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Remove term"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),
		CopyLine: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy line"),
		),

		// Filter
		Filter: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Filter"),
		),
		ToggleIgnoreCase: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Ignore case"),
		),
		ToggleFilterType: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Include/exclude"),
		),

		// Modal input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.ToggleFollow, k.AddTerm, k.NextMatch, k.PrevMatch,
		k.Filter, k.Reload, k.Help, k.Quit,
	}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.HalfPageUp, k.HalfPageDown},
		{k.ToggleFollow, k.Reload},
		{k.AddTerm, k.RemoveTerm, k.NextMatch, k.PrevMatch, k.CopyLine},
		{k.Filter, k.ToggleIgnoreCase, k.ToggleFilterType},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
