// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bundlelab/bundlelab/lib/ref"
)

// CommandResponse is the server's answer to a CLI command.
type CommandResponse struct {
	// Output is the command's plain-text output, possibly empty.
	Output string `json:"output"`

	// Exception is the server-side failure message, styled as an
	// error by the terminal.
	Exception string `json:"exception"`

	// StructuredResult carries hyperlink references and UI action
	// directives. Nil when the command produced neither.
	StructuredResult *StructuredResult `json:"structured_result"`
}

// StructuredResult augments command output with machine-readable
// annotations.
type StructuredResult struct {
	// Refs maps tokens appearing verbatim in Output to the entity
	// they denote, so the terminal can rewrite them as hyperlinks.
	Refs map[string]CommandRef `json:"refs"`

	// UIActions are executed in order after the output is appended.
	UIActions []UIAction `json:"ui_actions"`
}

// CommandRef resolves an output token to a bundle or worksheet.
type CommandRef struct {
	Type string `json:"type"`
	UUID string `json:"uuid"`
}

// UIAction is a (kind, parameter) directive. On the wire it is a
// two-element array, e.g. ["openWorksheet", "0x..."] or
// ["setEditMode", true]; the parameter is kept raw because its type
// depends on the kind.
type UIAction struct {
	Kind  string
	Param json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler for the array encoding.
// One-element arrays (e.g. ["upload"]) leave Param nil.
func (a *UIAction) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("api: ui action is not an array: %w", err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("api: empty ui action")
	}
	if err := json.Unmarshal(parts[0], &a.Kind); err != nil {
		return fmt.Errorf("api: ui action kind: %w", err)
	}
	if len(parts) > 1 {
		a.Param = parts[1]
	}
	return nil
}

// commandRequest is the wire shape of POST /cli/command.
type commandRequest struct {
	WorksheetUUID string `json:"worksheet_uuid,omitempty"`
	Command       string `json:"command"`
	Autocomplete  bool   `json:"autocomplete,omitempty"`
}

// Command executes a CLI command on the server in the context of the
// given worksheet (zero UUID for no context).
func (c *Client) Command(ctx context.Context, worksheet ref.WorksheetUUID, command string) (*CommandResponse, error) {
	request := commandRequest{Command: command}
	if !worksheet.IsZero() {
		request.WorksheetUUID = worksheet.String()
	}
	var response CommandResponse
	if err := c.postJSON(ctx, "/cli/command", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Complete asks the server to complete a partial command line.
func (c *Client) Complete(ctx context.Context, worksheet ref.WorksheetUUID, partial string) ([]string, error) {
	request := commandRequest{Command: partial, Autocomplete: true}
	if !worksheet.IsZero() {
		request.WorksheetUUID = worksheet.String()
	}
	var response struct {
		Completions []string `json:"completions"`
	}
	if err := c.postJSON(ctx, "/cli/command", request, &response); err != nil {
		return nil, err
	}
	return response.Completions, nil
}
