// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bundlelab/bundlelab/lib/terminal"
)

// Terminal pane sizing, in transcript rows.
const (
	termPaneMinimizedRows = 1
	termPaneExpandedRows  = 10
)

// TermPane is the command terminal strip at the top of the worksheet
// viewer. It owns the input line, the visible transcript tail, and
// the focus/size state machine:
//
//   - Focusing the pane expands it. Blurring does NOT collapse it;
//     the user minimizes explicitly, so output stays readable while
//     they navigate the worksheet.
//   - A blur arriving during a split resize is suppressed: terminal
//     emulators report focus loss while the mouse drags the divider,
//     and honoring it would end the drag mid-gesture.
//   - Ctrl-C abandons the partial command line but keeps focus.
//   - Esc releases focus back to the worksheet.
type TermPane struct {
	input textinput.Model
	theme Theme
	keys  KeyMap

	focused  bool
	expanded bool
	resizing bool

	transcript []terminal.Line
	width      int
}

// TermEvent is what a key press did to the pane, for the parent model
// to act on.
type TermEvent int

const (
	TermEventNone TermEvent = iota
	// TermEventSubmit: a command was submitted; read it from Submitted.
	TermEventSubmit
	// TermEventRelease: the user released focus back to the worksheet.
	TermEventRelease
	// TermEventComplete: the user asked for completion of the partial
	// line; read it from Partial.
	TermEventComplete
)

// TermResult carries the outcome of HandleKey.
type TermResult struct {
	Event     TermEvent
	Submitted string
	Partial   string
	Cmd       tea.Cmd
}

// NewTermPane creates a minimized, unfocused pane.
func NewTermPane(theme Theme, keys KeyMap) *TermPane {
	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = lipgloss.NewStyle().Foreground(theme.TerminalPrompt)
	input.Placeholder = "cl command"
	return &TermPane{
		input: input,
		theme: theme,
		keys:  keys,
		width: 80,
	}
}

// Focused reports whether the input line has focus.
func (p *TermPane) Focused() bool { return p.focused }

// Expanded reports whether the pane shows the full transcript tail.
func (p *TermPane) Expanded() bool { return p.expanded }

// Focus gives the pane keyboard focus and expands it.
func (p *TermPane) Focus() tea.Cmd {
	p.focused = true
	p.expanded = true
	return p.input.Focus()
}

// Blur removes keyboard focus. The pane stays expanded. Blurs during
// a resize drag are dropped entirely.
func (p *TermPane) Blur() {
	if p.resizing {
		return
	}
	p.focused = false
	p.input.Blur()
}

// Minimize collapses the pane to a single row. Focus is unaffected.
func (p *TermPane) Minimize() { p.expanded = false }

// SetResizing marks a split-divider drag in progress; see Blur.
func (p *TermPane) SetResizing(resizing bool) { p.resizing = resizing }

// SetWidth sets the render width.
func (p *TermPane) SetWidth(width int) {
	p.width = width
	p.input.Width = width - len(p.input.Prompt) - 1
}

// Append adds interpreted output lines to the transcript.
func (p *TermPane) Append(lines []terminal.Line) {
	p.transcript = append(p.transcript, lines...)
}

// SetLine replaces the input line, used when a completion is accepted.
func (p *TermPane) SetLine(value string) {
	p.input.SetValue(value)
	p.input.CursorEnd()
}

// Line returns the current partial command.
func (p *TermPane) Line() string { return p.input.Value() }

// HandleKey processes a key press while the pane has focus.
func (p *TermPane) HandleKey(msg tea.KeyMsg) TermResult {
	switch {
	case key.Matches(msg, p.keys.ReleaseFocus):
		p.Blur()
		return TermResult{Event: TermEventRelease}

	case key.Matches(msg, p.keys.AbandonLine):
		p.input.SetValue("")
		return TermResult{Event: TermEventNone}

	case msg.Type == tea.KeyEnter:
		command := strings.TrimSpace(p.input.Value())
		p.input.SetValue("")
		if command == "" {
			return TermResult{Event: TermEventNone}
		}
		return TermResult{Event: TermEventSubmit, Submitted: command}

	case msg.Type == tea.KeyTab:
		return TermResult{Event: TermEventComplete, Partial: p.input.Value()}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return TermResult{Event: TermEventNone, Cmd: cmd}
}

// View renders the pane: the transcript tail above the input line.
func (p *TermPane) View() string {
	rows := termPaneMinimizedRows
	if p.expanded {
		rows = termPaneExpandedRows
	}

	normal := lipgloss.NewStyle().Foreground(p.theme.NormalText)
	errored := lipgloss.NewStyle().Foreground(p.theme.TerminalError)
	link := lipgloss.NewStyle().Foreground(p.theme.LinkForeground).Underline(true)

	tail := p.transcript
	if len(tail) > rows {
		tail = tail[len(tail)-rows:]
	}

	var view strings.Builder
	for _, line := range tail {
		if line.IsError {
			view.WriteString(errored.Render(line.Text()))
		} else {
			for _, span := range line.Spans {
				if span.URL != "" {
					view.WriteString(link.Render(span.Text))
				} else {
					view.WriteString(normal.Render(span.Text))
				}
			}
		}
		view.WriteString("\n")
	}
	view.WriteString(p.input.View())

	border := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(p.theme.BorderColor).
		Width(p.width)
	return border.Render(view.String())
}
