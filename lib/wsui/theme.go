// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bundlelab/bundlelab/lib/bundle"
)

// Theme defines the color palette for the worksheet viewer. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Bundle lifecycle state colors.
	StateActive  lipgloss.Color // created through finalizing
	StateReady   lipgloss.Color
	StateFailed  lipgloss.Color // failed and killed
	StateOffline lipgloss.Color // worker_offline

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Hyperlinked references (bundle and worksheet tokens).
	LinkForeground lipgloss.Color

	// Terminal pane.
	TerminalPrompt lipgloss.Color
	TerminalError  lipgloss.Color
}

// StateColor returns the color for a bundle lifecycle state.
func (theme Theme) StateColor(state bundle.State) lipgloss.Color {
	switch {
	case state == bundle.StateReady:
		return theme.StateReady
	case state == bundle.StateFailed || state == bundle.StateKilled:
		return theme.StateFailed
	case bundle.IsOffline(state):
		return theme.StateOffline
	default:
		return theme.StateActive
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StateActive:  lipgloss.Color("220"), // amber: in progress
	StateReady:   lipgloss.Color("114"), // green
	StateFailed:  lipgloss.Color("196"), // red
	StateOffline: lipgloss.Color("208"), // orange: recoverable

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	LinkForeground: lipgloss.Color("75"), // blue

	TerminalPrompt: lipgloss.Color("114"),
	TerminalError:  lipgloss.Color("196"),
}
