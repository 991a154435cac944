// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package wsui is the terminal worksheet viewer: a bubbletea view
// layer over the polling engines. The engines own all fetching and
// cadence; the model only subscribes to their update channels and
// renders the latest snapshot.
package wsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bundlelab/bundlelab/lib/browser"
	"github.com/bundlelab/bundlelab/lib/bundle"
	"github.com/bundlelab/bundlelab/lib/detail"
	"github.com/bundlelab/bundlelab/lib/ref"
	"github.com/bundlelab/bundlelab/lib/terminal"
	"github.com/bundlelab/bundlelab/lib/worksheet"
)

// row is one selectable line of the worksheet pane. Markup items
// render as static text between rows; only bundle rows take the
// cursor.
type row struct {
	uuid ref.BundleUUID
}

// Config assembles a viewer model. The engines must already be
// running (Run launched by the caller); the model only consumes
// their update channels.
type Config struct {
	Theme Theme
	Keys  KeyMap

	Sheet    *worksheet.Worksheet
	Detail   *detail.Engine
	Browser  *browser.Engine
	Terminal *terminal.Engine

	// Reload re-fetches the worksheet; called after every terminal
	// command and on the refresh key.
	Reload func(ctx context.Context) (*worksheet.Worksheet, error)
}

// Model is the bubbletea model for the worksheet viewer.
type Model struct {
	theme Theme
	keys  KeyMap

	sheet    *worksheet.Worksheet
	detail   *detail.Engine
	browser  *browser.Engine
	terminal *terminal.Engine
	reload   func(ctx context.Context) (*worksheet.Worksheet, error)

	pane *TermPane

	rows     []row
	cursor   int
	openUUID ref.BundleUUID // bundle with the detail pane open; zero = none.
	browsing bool           // detail pane shows the file browser.
	sidebar  bool           // detail pane shows the metadata sidebar.

	snapshot detail.Snapshot
	listing  browser.Listing

	completions []string
	editMode    bool
	status      string

	width  int
	height int

	actions chan func(*Model)
}

// Messages delivered by the subscription and command tea.Cmds.
type (
	snapshotMsg detail.Snapshot
	listingMsg  browser.Listing
	execMsg     struct{ lines []terminal.Line }
	completeMsg struct{ candidates []string }
	reloadMsg   struct {
		sheet *worksheet.Worksheet
		err   error
	}
)

// NewModel creates the viewer over an already-loaded worksheet.
func NewModel(config Config) *Model {
	model := &Model{
		theme:    config.Theme,
		keys:     config.Keys,
		sheet:    config.Sheet,
		detail:   config.Detail,
		browser:  config.Browser,
		terminal: config.Terminal,
		reload:   config.Reload,
		pane:     NewTermPane(config.Theme, config.Keys),
		width:    80,
		height:   24,
		actions:  make(chan func(*Model), 8),
	}
	model.rebuildRows()
	return model
}

// SetTerminal attaches the terminal engine. The engine is constructed
// after the model because its dispatcher comes from the model; call
// this before the program starts.
func (model *Model) SetTerminal(engine *terminal.Engine) {
	model.terminal = engine
}

// Dispatcher returns the terminal action dispatcher to wire into the
// terminal engine's config. Server-pushed UI actions queue onto the
// model and apply on the next Update.
func (model *Model) Dispatcher() terminal.ActionDispatcher {
	return &uiDispatcher{actions: model.actions}
}

// rebuildRows flattens the worksheet's table items into cursor rows.
func (model *Model) rebuildRows() {
	model.rows = model.rows[:0]
	for _, item := range model.sheet.Items {
		if item.Type != worksheet.ItemTable {
			continue
		}
		for _, uuid := range item.BundleUUIDs {
			model.rows = append(model.rows, row{uuid: uuid})
		}
	}
	if model.cursor >= len(model.rows) {
		model.cursor = len(model.rows) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		model.waitSnapshot(),
		model.waitListing(),
		textinput.Blink,
	)
}

func (model *Model) waitSnapshot() tea.Cmd {
	updates := model.detail.Updates()
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snapshot)
	}
}

func (model *Model) waitListing() tea.Cmd {
	updates := model.browser.Updates()
	return func() tea.Msg {
		listing, ok := <-updates
		if !ok {
			return nil
		}
		return listingMsg(listing)
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	model.drainActions()

	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.pane.SetWidth(message.Width)
		return model, nil

	case snapshotMsg:
		model.snapshot = detail.Snapshot(message)
		return model, model.waitSnapshot()

	case listingMsg:
		model.listing = browser.Listing(message)
		return model, model.waitListing()

	case execMsg:
		model.pane.Append(message.lines)
		return model, model.reloadCmd()

	case completeMsg:
		model.completions = message.candidates
		if len(message.candidates) > 0 {
			model.pane.SetLine(message.candidates[0])
		}
		return model, nil

	case reloadMsg:
		if message.err != nil {
			model.status = message.err.Error()
			return model, nil
		}
		model.sheet = message.sheet
		model.rebuildRows()
		model.status = ""
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)
	}

	return model, nil
}

func (model *Model) drainActions() {
	for {
		select {
		case apply := <-model.actions:
			apply(model)
		default:
			return
		}
	}
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.pane.Focused() {
		result := model.pane.HandleKey(message)
		switch result.Event {
		case TermEventSubmit:
			model.completions = nil
			return model, model.execCmd(result.Submitted)
		case TermEventComplete:
			return model, model.completeCmd(result.Partial)
		case TermEventRelease:
			model.completions = nil
			return model, nil
		}
		return model, result.Cmd
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.FocusTerminal):
		return model, model.pane.Focus()

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-10)
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(10)
	case key.Matches(message, model.keys.Home):
		model.cursor = 0
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.rows))

	case key.Matches(message, model.keys.Select):
		model.openSelection()

	case key.Matches(message, model.keys.Back):
		model.closeSelection()

	case key.Matches(message, model.keys.ToggleContent):
		if !model.openUUID.IsZero() {
			model.browsing = !model.browsing
			model.browser.SetActive(model.browsing)
		}

	case key.Matches(message, model.keys.ToggleSidebar):
		model.sidebar = !model.sidebar

	case key.Matches(message, model.keys.Refresh):
		return model, model.reloadCmd()
	}

	return model, nil
}

func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	if model.cursor < 0 {
		model.cursor = 0
	}
	if model.cursor >= len(model.rows) {
		model.cursor = len(model.rows) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

// openSelection opens the detail pane on the selected bundle, or, if
// the browser is showing, enters the selected directory.
func (model *Model) openSelection() {
	if model.browsing {
		if entry, ok := model.selectedEntry(); ok && entry.Type == bundle.NodeDirectory {
			model.browser.Enter(entry.Name)
		}
		return
	}
	if model.cursor >= len(model.rows) {
		return
	}
	selected := model.rows[model.cursor].uuid
	if selected == model.openUUID {
		return
	}
	model.openUUID = selected
	model.detail.SetUUID(selected)
	model.browser.Open(selected, false)
}

// closeSelection backs out one level: browser directory, then browser
// pane, then the detail pane.
func (model *Model) closeSelection() {
	switch {
	case model.browsing && len(model.listing.Path) > 0:
		model.browser.Up()
	case model.browsing:
		model.browsing = false
		model.browser.SetActive(false)
	default:
		model.openUUID = ref.BundleUUID{}
		model.detail.SetUUID(ref.BundleUUID{})
	}
}

func (model *Model) selectedEntry() (bundle.Entry, bool) {
	// Browser navigation reuses the worksheet cursor while the pane
	// is showing; clamp to the listing.
	if len(model.listing.Entries) == 0 {
		return bundle.Entry{}, false
	}
	index := model.cursor % len(model.listing.Entries)
	return model.listing.Entries[index], true
}

func (model *Model) execCmd(command string) tea.Cmd {
	engine := model.terminal
	sheet := model.sheet.UUID
	return func() tea.Msg {
		lines, _ := engine.Execute(context.Background(), sheet, command)
		// Transport errors already arrive as styled error lines.
		return execMsg{lines: lines}
	}
}

func (model *Model) completeCmd(partial string) tea.Cmd {
	engine := model.terminal
	sheet := model.sheet.UUID
	return func() tea.Msg {
		candidates, err := engine.Complete(context.Background(), sheet, partial)
		if err != nil {
			return completeMsg{}
		}
		return completeMsg{candidates: candidates}
	}
}

func (model *Model) reloadCmd() tea.Cmd {
	reload := model.reload
	if reload == nil {
		return nil
	}
	return func() tea.Msg {
		sheet, err := reload(context.Background())
		return reloadMsg{sheet: sheet, err: err}
	}
}

// uiDispatcher queues server-pushed UI actions for the model.
type uiDispatcher struct {
	actions chan func(*Model)
}

func (d *uiDispatcher) push(apply func(*Model)) {
	select {
	case d.actions <- apply:
	default:
		// Queue full: drop rather than block the terminal engine.
	}
}

func (d *uiDispatcher) OpenWorksheet(uuid ref.WorksheetUUID) {
	d.push(func(model *Model) {
		model.status = "switch to worksheet " + uuid.String()
	})
}

func (d *uiDispatcher) SetEditMode(enabled bool) {
	d.push(func(model *Model) { model.editMode = enabled })
}

func (d *uiDispatcher) OpenBundle(uuid ref.BundleUUID) {
	d.push(func(model *Model) {
		model.openUUID = uuid
		model.detail.SetUUID(uuid)
		model.browser.Open(uuid, false)
	})
}

func (d *uiDispatcher) Upload() {
	d.push(func(model *Model) {
		model.status = "upload requested; use `cl upload` from a shell"
	})
}

// --- Rendering ---

// View implements tea.Model.
func (model Model) View() string {
	var view strings.Builder

	view.WriteString(model.pane.View())
	view.WriteString("\n")
	view.WriteString(model.renderHeader())
	view.WriteString("\n")

	rowIndex := 0
	for _, item := range model.sheet.Items {
		switch item.Type {
		case worksheet.ItemMarkup:
			view.WriteString(RenderMarkup(item.Markup, model.theme, model.width))
			view.WriteString("\n")
		case worksheet.ItemTable:
			for range item.BundleUUIDs {
				view.WriteString(model.renderRow(rowIndex))
				view.WriteString("\n")
				if model.rows[rowIndex].uuid == model.openUUID && !model.openUUID.IsZero() {
					view.WriteString(model.renderDetail())
				}
				rowIndex++
			}
		case worksheet.ItemSubworksheet:
			link := lipgloss.NewStyle().Foreground(model.theme.LinkForeground).Underline(true)
			view.WriteString(link.Render("⤷ worksheet " + item.SubworksheetUUID.String()))
			view.WriteString("\n")
		case worksheet.ItemGraph:
			faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
			view.WriteString(faint.Render(fmt.Sprintf("[graph of %d bundles]", len(item.BundleUUIDs))))
			view.WriteString("\n")
		}
	}

	view.WriteString(model.renderFooter())
	return view.String()
}

func (model Model) renderHeader() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	title := model.sheet.Title
	if title == "" {
		title = model.sheet.Name
	}
	line := header.Render(title) + faint.Render("  "+model.sheet.Name+" · "+model.sheet.Owner)
	if model.sheet.Frozen {
		line += faint.Render(" · frozen")
	}
	if model.editMode {
		line += faint.Render(" · editing")
	}
	return line
}

func (model Model) renderRow(rowIndex int) string {
	entry := model.rows[rowIndex]
	uuid := entry.uuid

	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	line := "  " + shortUUID(uuid)

	// The open bundle's row shows live engine state; other rows show
	// just the UUID (their cells come from the table item's genpaths,
	// resolved server-side).
	if uuid == model.openUUID && model.snapshot.BundleInfo != nil {
		info := model.snapshot.BundleInfo
		state := lipgloss.NewStyle().Foreground(model.theme.StateColor(info.State))
		line += "  " + state.Render(string(info.State))
		if duration, ok := bundle.DisplayTime(info.State, info.Metadata); ok {
			line += normal.Render("  " + formatDuration(duration))
		}
		if name, ok := info.Metadata.String("name"); ok {
			line += normal.Render("  " + name)
		}
	}

	if rowIndex == model.cursor && !model.pane.Focused() {
		selected := lipgloss.NewStyle().
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground).
			Width(model.width)
		return selected.Render(line)
	}
	return normal.Render(line)
}

func (model Model) renderDetail() string {
	snapshot := model.snapshot
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	errored := lipgloss.NewStyle().Foreground(model.theme.TerminalError)

	pane := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(model.theme.BorderColor).
		PaddingLeft(1)

	var body strings.Builder

	if snapshot.AccessDenied {
		body.WriteString(errored.Render("access denied") + "\n")
		for _, message := range snapshot.Errors {
			body.WriteString(errored.Render(message) + "\n")
		}
		return pane.Render(strings.TrimRight(body.String(), "\n")) + "\n"
	}
	if !snapshot.Loaded {
		body.WriteString(faint.Render("loading…") + "\n")
		return pane.Render(strings.TrimRight(body.String(), "\n")) + "\n"
	}

	if info := snapshot.BundleInfo; info != nil {
		body.WriteString(model.renderStateSequence(info))
		if info.Command != "" {
			body.WriteString(faint.Render("$ "+info.Command) + "\n")
		}
		if info.StateDetails != "" {
			body.WriteString(faint.Render(info.StateDetails) + "\n")
		}
	}

	for _, message := range snapshot.Errors {
		body.WriteString(errored.Render(message) + "\n")
	}

	if model.sidebar && snapshot.BundleInfo != nil {
		body.WriteString(model.renderSidebar(snapshot.BundleInfo))
	}

	if model.browsing {
		body.WriteString(model.renderListing())
	} else {
		body.WriteString(model.renderContents(snapshot))
	}

	return pane.Render(strings.TrimRight(body.String(), "\n")) + "\n"
}

// renderStateSequence draws the kind's happy-path states with the
// current one highlighted, the detail view's state diagram.
func (model Model) renderStateSequence(info *bundle.Info) string {
	sequence := bundle.SequenceFor(info.Kind)
	if sequence == nil {
		return ""
	}
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	var parts []string
	for _, state := range sequence {
		if state == info.State {
			current := lipgloss.NewStyle().Bold(true).Foreground(model.theme.StateColor(state))
			label := string(state)
			if duration, ok := bundle.DisplayTime(state, info.Metadata); ok {
				label += " " + formatDuration(duration)
			}
			parts = append(parts, current.Render("["+label+"]"))
		} else {
			parts = append(parts, faint.Render(string(state)))
		}
	}
	if !bundle.IsActive(info.State) && !bundle.IsFinal(info.State) {
		offline := lipgloss.NewStyle().Bold(true).Foreground(model.theme.StateOffline)
		parts = append(parts, offline.Render("["+string(info.State)+"]"))
	}
	if info.State == bundle.StateFailed || info.State == bundle.StateKilled {
		failed := lipgloss.NewStyle().Bold(true).Foreground(model.theme.StateFailed)
		parts = append(parts, failed.Render("["+string(info.State)+"]"))
	}
	return strings.Join(parts, faint.Render(" → ")) + "\n"
}

// renderSidebar shows ownership and placement metadata for the open
// bundle.
func (model Model) renderSidebar(info *bundle.Info) string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	var body strings.Builder
	body.WriteString(faint.Render("uuid: "+info.UUID.String()) + "\n")
	body.WriteString(faint.Render("owner: "+info.Owner.UserName) + "\n")
	for _, permission := range info.GroupPermissions {
		body.WriteString(faint.Render(fmt.Sprintf("group: %s (%d)", permission.GroupName, permission.Permission)) + "\n")
	}
	for _, host := range info.HostWorksheets {
		body.WriteString(faint.Render("worksheet: "+host.Name) + "\n")
	}
	return body.String()
}

func (model Model) renderContents(snapshot detail.Snapshot) string {
	var body strings.Builder
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	switch snapshot.ContentType {
	case bundle.NodeFile, bundle.NodeLink:
		if snapshot.FileContents != nil {
			body.WriteString(renderSummary(*snapshot.FileContents, normal))
		}
	case bundle.NodeDirectory:
		for _, entry := range snapshot.Contents {
			body.WriteString(normal.Render("  "+formatEntry(entry)) + "\n")
		}
		if snapshot.Stdout != nil {
			body.WriteString(faint.Render("── stdout ──") + "\n")
			body.WriteString(renderSummary(*snapshot.Stdout, normal))
		}
		if snapshot.Stderr != nil {
			body.WriteString(faint.Render("── stderr ──") + "\n")
			body.WriteString(renderSummary(*snapshot.Stderr, normal))
		}
	default:
		body.WriteString(faint.Render("contents not available yet") + "\n")
	}
	return body.String()
}

func (model Model) renderListing() string {
	var body strings.Builder
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	body.WriteString(faint.Render(model.listing.PathString()) + "\n")
	if model.listing.Error != "" {
		errored := lipgloss.NewStyle().Foreground(model.theme.TerminalError)
		body.WriteString(errored.Render(model.listing.Error) + "\n")
	}
	for _, entry := range model.listing.Entries {
		body.WriteString(normal.Render("  "+formatEntry(entry)) + "\n")
	}
	return body.String()
}

func (model Model) renderFooter() string {
	help := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	if model.status != "" {
		return help.Render(model.status)
	}
	bindings := []key.Binding{
		model.keys.Up, model.keys.Down, model.keys.Select,
		model.keys.Back, model.keys.FocusTerminal, model.keys.Quit,
	}
	var parts []string
	for _, binding := range bindings {
		parts = append(parts, binding.Help().Key+" "+binding.Help().Desc)
	}
	return help.Render(strings.Join(parts, "  "))
}

// renderSummary emits a file summary verbatim, truncation marker
// included: the marker is part of the protocol text, not decoration.
func renderSummary(summary bundle.FileSummary, style lipgloss.Style) string {
	var body strings.Builder
	for _, line := range strings.Split(strings.TrimRight(summary.Text, "\n"), "\n") {
		body.WriteString(style.Render(line) + "\n")
	}
	return body.String()
}

func formatEntry(entry bundle.Entry) string {
	switch entry.Type {
	case bundle.NodeDirectory:
		return entry.Name + "/"
	case bundle.NodeLink:
		return entry.Name + " → " + entry.Link
	default:
		return fmt.Sprintf("%s  %s", entry.Name, formatSize(entry.Size))
	}
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.1fg", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.1fm", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1fk", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%db", size)
	}
}

// shortUUID abbreviates "0x<32 hex>" to its first ten characters for
// row display; the detail pane carries the full UUID.
func shortUUID(uuid ref.BundleUUID) string {
	raw := uuid.String()
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}

func formatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	if duration >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(duration.Hours()), int(duration.Minutes())%60)
	}
	if duration >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(duration.Minutes()), int(duration.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(duration.Seconds()))
}
