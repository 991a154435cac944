// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/ref"
)

// ActionDispatcher receives the UI action directives a command
// response carries. The view layer implements it; a nil dispatcher
// drops actions with a warning.
type ActionDispatcher interface {
	// OpenWorksheet navigates the current view to the worksheet.
	OpenWorksheet(uuid ref.WorksheetUUID)

	// SetEditMode toggles the worksheet's edit mode.
	SetEditMode(enabled bool)

	// OpenBundle opens the bundle page without leaving the worksheet.
	OpenBundle(uuid ref.BundleUUID)

	// Upload invokes the upload affordance.
	Upload()
}

// Config holds the parameters for creating an Engine.
type Config struct {
	// Client is the API gateway. Required.
	Client *api.Client

	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// History, when set, records executed commands and feeds
	// autocompletion. Optional.
	History *History

	// Dispatcher executes UI action directives. Optional.
	Dispatcher ActionDispatcher

	// ReloadWorksheet is invoked after every Execute, successful or
	// not: most commands mutate the worksheet, and the few that do
	// not still tolerate a refresh. Optional.
	ReloadWorksheet func()
}

// Engine executes commands against the server and interprets the
// responses. Safe for concurrent use.
type Engine struct {
	client     *api.Client
	logger     *slog.Logger
	history    *History
	dispatcher ActionDispatcher
	reload     func()
}

// New creates an Engine.
func New(config Config) (*Engine, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("terminal: Client is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:     config.Client,
		logger:     logger,
		history:    config.History,
		dispatcher: config.Dispatcher,
		reload:     config.ReloadWorksheet,
	}, nil
}

// Execute runs command in the context of the worksheet and returns the
// transcript lines to append. Server-side exceptions become error
// lines with a nil error; transport failures return both an error line
// and the error. The reload hook fires on every terminating branch.
func (e *Engine) Execute(ctx context.Context, worksheet ref.WorksheetUUID, command string) ([]Line, error) {
	defer func() {
		if e.reload != nil {
			e.reload()
		}
	}()

	if e.history != nil {
		if err := e.history.Append(ctx, worksheet, command); err != nil {
			e.logger.Warn("recording command history failed", "error", err)
		}
	}

	response, err := e.client.Command(ctx, worksheet, command)
	if err != nil {
		return []Line{errorLine(err.Error())}, err
	}

	var refs map[string]api.CommandRef
	var actions []api.UIAction
	if response.StructuredResult != nil {
		refs = response.StructuredResult.Refs
		actions = response.StructuredResult.UIActions
	}

	var lines []Line
	if response.Output != "" {
		// One trailing newline is the server's line terminator, not
		// an empty transcript line.
		text := strings.TrimSuffix(response.Output, "\n")
		for _, lineText := range strings.Split(text, "\n") {
			lines = append(lines, Line{Spans: linkify(lineText, refs, e.logger)})
		}
	}
	if response.Exception != "" {
		lines = append(lines, errorLine(response.Exception))
	}

	e.dispatchActions(actions)
	return lines, nil
}

// dispatchActions executes UI actions in response order.
func (e *Engine) dispatchActions(actions []api.UIAction) {
	for _, action := range actions {
		if e.dispatcher == nil {
			e.logger.Warn("no dispatcher registered for ui action", "kind", action.Kind)
			continue
		}
		switch action.Kind {
		case "openWorksheet":
			uuid, err := parseWorksheetParam(action.Param)
			if err != nil {
				e.logger.Warn("openWorksheet action dropped", "error", err)
				continue
			}
			e.dispatcher.OpenWorksheet(uuid)
		case "setEditMode":
			var enabled bool
			if err := json.Unmarshal(action.Param, &enabled); err != nil {
				e.logger.Warn("setEditMode action dropped", "error", err)
				continue
			}
			e.dispatcher.SetEditMode(enabled)
		case "openBundle":
			var raw string
			if err := json.Unmarshal(action.Param, &raw); err != nil {
				e.logger.Warn("openBundle action dropped", "error", err)
				continue
			}
			uuid, err := ref.ParseBundleUUID(raw)
			if err != nil {
				e.logger.Warn("openBundle action dropped", "error", err)
				continue
			}
			e.dispatcher.OpenBundle(uuid)
		case "upload":
			e.dispatcher.Upload()
		default:
			e.logger.Warn("unknown ui action", "kind", action.Kind)
		}
	}
}

func parseWorksheetParam(param json.RawMessage) (ref.WorksheetUUID, error) {
	var raw string
	if err := json.Unmarshal(param, &raw); err != nil {
		return ref.WorksheetUUID{}, fmt.Errorf("terminal: worksheet action param: %w", err)
	}
	return ref.ParseWorksheetUUID(raw)
}

// Complete merges the server's completions for the partial command
// with prefix matches from local history, ranked by fuzzy match
// quality against the partial. A server failure degrades to
// history-only completion.
func (e *Engine) Complete(ctx context.Context, worksheet ref.WorksheetUUID, partial string) ([]string, error) {
	candidates, err := e.client.Complete(ctx, worksheet, partial)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		e.logger.Warn("server completion failed", "error", err)
		candidates = nil
	}

	if e.history != nil {
		recent, err := e.history.PrefixSearch(ctx, partial, 50)
		if err != nil {
			e.logger.Warn("history completion failed", "error", err)
		} else {
			candidates = append(candidates, recent...)
		}
	}

	seen := make(map[string]bool, len(candidates))
	unique := candidates[:0]
	for _, candidate := range candidates {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		unique = append(unique, candidate)
	}

	rankCompletions(unique, partial)
	return unique, nil
}

// rankCompletions sorts candidates by descending fuzzy score against
// the pattern, keeping the incoming order for ties (server results
// arrive first and win them).
func rankCompletions(candidates []string, pattern string) {
	runes := []rune(strings.ToLower(pattern))
	if len(runes) == 0 {
		return
	}
	scores := make(map[string]int, len(candidates))
	slab := newSlab()
	for _, candidate := range candidates {
		scores[candidate] = fuzzyScore(candidate, runes, slab)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i]] > scores[candidates[j]]
	})
}
