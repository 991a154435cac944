// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	return path
}

func TestLoadSettingsEmptyPathReturnsDefaults(t *testing.T) {
	keys, theme, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got := keys.Quit.Keys(); len(got) != 2 || got[0] != "q" {
		t.Errorf("Quit keys = %v", got)
	}
	if theme.NormalText != DefaultTheme.NormalText {
		t.Errorf("theme = %+v", theme)
	}
}

func TestLoadSettingsAppliesOverrides(t *testing.T) {
	path := writeSettings(t, `{
		// Quit with Q only; keep muscle memory from the web UI.
		"keys": {
			"quit": ["ctrl+q"],
			"focus_terminal": ["t", ":"],
		},
		"colors": {
			"state_ready": "46",
		},
	}`)

	keys, theme, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got := keys.Quit.Keys(); len(got) != 1 || got[0] != "ctrl+q" {
		t.Errorf("Quit keys = %v", got)
	}
	if got := keys.FocusTerminal.Keys(); len(got) != 2 || got[0] != "t" {
		t.Errorf("FocusTerminal keys = %v", got)
	}
	if theme.StateReady != lipgloss.Color("46") {
		t.Errorf("StateReady = %v", theme.StateReady)
	}
	// Untouched bindings keep their defaults.
	if got := keys.Up.Keys(); len(got) != 2 || got[0] != "k" {
		t.Errorf("Up keys = %v", got)
	}
	if theme.StateFailed != DefaultTheme.StateFailed {
		t.Errorf("StateFailed = %v", theme.StateFailed)
	}
}

func TestLoadSettingsRejectsUnknownAction(t *testing.T) {
	path := writeSettings(t, `{"keys": {"qiut": ["q"]}}`)
	_, _, err := LoadSettings(path)
	if err == nil || !strings.Contains(err.Error(), "qiut") {
		t.Fatalf("err = %v, want unknown action error", err)
	}
}

func TestLoadSettingsRejectsUnknownColor(t *testing.T) {
	path := writeSettings(t, `{"colors": {"stat_ready": "46"}}`)
	_, _, err := LoadSettings(path)
	if err == nil || !strings.Contains(err.Error(), "stat_ready") {
		t.Fatalf("err = %v, want unknown color error", err)
	}
}

func TestLoadSettingsRejectsEmptyKeyList(t *testing.T) {
	path := writeSettings(t, `{"keys": {"quit": []}}`)
	_, _, err := LoadSettings(path)
	if err == nil {
		t.Fatal("want error for empty key list")
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, _, err := LoadSettings(filepath.Join(t.TempDir(), "absent.jsonc"))
	if err == nil {
		t.Fatal("want error for missing settings file")
	}
}
