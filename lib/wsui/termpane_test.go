// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bundlelab/bundlelab/lib/terminal"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typeLine(pane *TermPane, line string) {
	for _, r := range line {
		pane.HandleKey(keyPress(r))
	}
}

func TestFocusExpandsPane(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	if pane.Expanded() || pane.Focused() {
		t.Fatal("new pane should start minimized and unfocused")
	}
	pane.Focus()
	if !pane.Expanded() || !pane.Focused() {
		t.Error("focus should expand the pane")
	}
}

func TestBlurDoesNotCollapse(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	pane.Blur()
	if pane.Focused() {
		t.Error("blur should drop focus")
	}
	if !pane.Expanded() {
		t.Error("blur must not collapse the pane")
	}
}

func TestBlurDuringResizeSuppressed(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	pane.SetResizing(true)
	pane.Blur()
	if !pane.Focused() {
		t.Error("blur during a resize drag must be dropped")
	}
	pane.SetResizing(false)
	pane.Blur()
	if pane.Focused() {
		t.Error("blur after the drag ends should apply")
	}
}

func TestMinimizeKeepsFocus(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	pane.Minimize()
	if pane.Expanded() {
		t.Error("minimize should collapse")
	}
	if !pane.Focused() {
		t.Error("minimize must not drop focus")
	}
}

func TestAbandonLineClearsInputKeepsFocus(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	typeLine(pane, "cl run mis")

	result := pane.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	if result.Event != TermEventNone {
		t.Errorf("event = %v", result.Event)
	}
	if pane.Line() != "" {
		t.Errorf("line = %q, want empty", pane.Line())
	}
	if !pane.Focused() {
		t.Error("abandoning the line must keep focus")
	}
}

func TestEscapeReleasesFocus(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	typeLine(pane, "cl ls")

	result := pane.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if result.Event != TermEventRelease {
		t.Errorf("event = %v, want release", result.Event)
	}
	if pane.Focused() {
		t.Error("escape should release focus")
	}
	if pane.Line() != "cl ls" {
		t.Errorf("line = %q; releasing focus must not discard it", pane.Line())
	}
}

func TestEnterSubmitsTrimmedCommand(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	typeLine(pane, "  cl search maverick  ")

	result := pane.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if result.Event != TermEventSubmit {
		t.Fatalf("event = %v, want submit", result.Event)
	}
	if result.Submitted != "cl search maverick" {
		t.Errorf("submitted = %q", result.Submitted)
	}
	if pane.Line() != "" {
		t.Errorf("line = %q, want cleared", pane.Line())
	}
}

func TestEnterOnEmptyLineIsNoOp(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	result := pane.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if result.Event != TermEventNone {
		t.Errorf("event = %v", result.Event)
	}
}

func TestTabRequestsCompletion(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.Focus()
	typeLine(pane, "cl ru")

	result := pane.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	if result.Event != TermEventComplete {
		t.Fatalf("event = %v, want complete", result.Event)
	}
	if result.Partial != "cl ru" {
		t.Errorf("partial = %q", result.Partial)
	}
}

func TestViewShowsTranscriptTail(t *testing.T) {
	pane := NewTermPane(DefaultTheme, DefaultKeyMap)
	pane.SetWidth(80)
	pane.Focus()
	for i := 0; i < 20; i++ {
		pane.Append([]terminal.Line{{Spans: []terminal.Span{{Text: "line"}}}})
	}
	pane.Append([]terminal.Line{{Spans: []terminal.Span{{Text: "freshest output"}}}})

	view := ansi.Strip(pane.View())
	if !strings.Contains(view, "freshest output") {
		t.Errorf("view missing newest line: %q", view)
	}
	if strings.Count(view, "line") > termPaneExpandedRows {
		t.Errorf("view shows more than the transcript tail: %q", view)
	}
}
