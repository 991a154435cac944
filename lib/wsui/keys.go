// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the worksheet viewer.
type KeyMap struct {
	// Navigation (context-sensitive: worksheet item movement or
	// directory listing movement depending on current focus).
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Item interaction.
	Select key.Binding // Expand/collapse a bundle row; enter a directory.
	Back   key.Binding // Collapse detail; go up one directory.

	// Detail pane toggles.
	ToggleContent key.Binding // Show/hide stdout and stderr.
	ToggleSidebar key.Binding // Show/hide the metadata sidebar.

	// Terminal pane.
	FocusTerminal key.Binding // Focus (and expand) the terminal.
	ReleaseFocus  key.Binding // Release terminal focus back to the worksheet.
	AbandonLine   key.Binding // Discard the partial command line.

	// Worksheet.
	Refresh  key.Binding
	EditMode key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k) alongside standard arrow keys and page up/down.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter", "l", "right"),
		key.WithHelp("Enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("h", "left", "backspace"),
		key.WithHelp("h/←", "back"),
	),
	ToggleContent: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "toggle output"),
	),
	ToggleSidebar: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "toggle info"),
	),
	FocusTerminal: key.NewBinding(
		key.WithKeys(":"),
		key.WithHelp(":", "terminal"),
	),
	ReleaseFocus: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "leave terminal"),
	),
	AbandonLine: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "abandon line"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	EditMode: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit source"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+q"),
		key.WithHelp("q", "quit"),
	),
}
