// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/jsonc"
)

// Settings is the on-disk viewer configuration: key binding and color
// overrides layered over the built-in defaults. The file is JSONC
// (JSON extended with // comments, /* block comments */, and trailing
// commas) so users can annotate their bindings.
type Settings struct {
	// Keys maps an action name to its key list, replacing the default
	// binding for that action entirely. Unknown action names are an
	// error so typos don't silently leave the default active.
	Keys map[string][]string `json:"keys"`

	// Colors maps a theme field name to an ANSI 256 color code.
	Colors map[string]string `json:"colors"`
}

// LoadSettings reads a JSONC settings file and applies it over the
// defaults. An empty path returns the defaults unchanged.
func LoadSettings(path string) (KeyMap, Theme, error) {
	keys := DefaultKeyMap
	theme := DefaultTheme
	if path == "" {
		return keys, theme, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return keys, theme, fmt.Errorf("wsui: reading settings %s: %w", path, err)
	}

	var settings Settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &settings); err != nil {
		return keys, theme, fmt.Errorf("wsui: parsing settings %s: %w", path, err)
	}

	if err := settings.applyKeys(&keys); err != nil {
		return DefaultKeyMap, theme, fmt.Errorf("wsui: settings %s: %w", path, err)
	}
	if err := settings.applyColors(&theme); err != nil {
		return keys, DefaultTheme, fmt.Errorf("wsui: settings %s: %w", path, err)
	}
	return keys, theme, nil
}

func (s *Settings) applyKeys(keys *KeyMap) error {
	bindings := map[string]*key.Binding{
		"up":             &keys.Up,
		"down":           &keys.Down,
		"page_up":        &keys.PageUp,
		"page_down":      &keys.PageDown,
		"home":           &keys.Home,
		"end":            &keys.End,
		"select":         &keys.Select,
		"back":           &keys.Back,
		"toggle_content": &keys.ToggleContent,
		"toggle_sidebar": &keys.ToggleSidebar,
		"focus_terminal": &keys.FocusTerminal,
		"release_focus":  &keys.ReleaseFocus,
		"abandon_line":   &keys.AbandonLine,
		"refresh":        &keys.Refresh,
		"edit_mode":      &keys.EditMode,
		"quit":           &keys.Quit,
	}

	for action, list := range s.Keys {
		binding, ok := bindings[action]
		if !ok {
			return fmt.Errorf("unknown key action %q", action)
		}
		if len(list) == 0 {
			return fmt.Errorf("key action %q has no keys", action)
		}
		binding.SetKeys(list...)
	}
	return nil
}

func (s *Settings) applyColors(theme *Theme) error {
	colors := map[string]*lipgloss.Color{
		"normal_text":         &theme.NormalText,
		"faint_text":          &theme.FaintText,
		"selected_background": &theme.SelectedBackground,
		"selected_foreground": &theme.SelectedForeground,
		"state_active":        &theme.StateActive,
		"state_ready":         &theme.StateReady,
		"state_failed":        &theme.StateFailed,
		"state_offline":       &theme.StateOffline,
		"header_foreground":   &theme.HeaderForeground,
		"border":              &theme.BorderColor,
		"help_text":           &theme.HelpText,
		"link":                &theme.LinkForeground,
		"terminal_prompt":     &theme.TerminalPrompt,
		"terminal_error":      &theme.TerminalError,
	}

	for field, value := range s.Colors {
		color, ok := colors[field]
		if !ok {
			return fmt.Errorf("unknown color field %q", field)
		}
		if value == "" {
			return fmt.Errorf("color field %q is empty", field)
		}
		*color = lipgloss.Color(value)
	}
	return nil
}
