// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// genpathSlots bounds concurrent genpath-table-contents requests at 3.
// The semaphore is process-wide: worksheet tables fan out one request
// per row block, and an unbounded burst visibly degrades the server.
// All other request classes are unbounded.
var genpathSlots = make(chan struct{}, 3)

// SearchKeywords runs an interpret/search query and returns the raw
// response value. Keyword grammar is the server's: filters like
// "owner=alice" plus directives like ".count" and "state=running".
func (c *Client) SearchKeywords(ctx context.Context, keywords []string) (json.RawMessage, error) {
	request := map[string]any{"keywords": keywords}
	var response struct {
		Response json.RawMessage `json:"response"`
	}
	if err := c.postJSON(ctx, "/interpret/search", request, &response); err != nil {
		return nil, err
	}
	return response.Response, nil
}

// SearchCount runs a ".count" interpret/search query and parses the
// numeric result. The server returns the count as a bare JSON number.
func (c *Client) SearchCount(ctx context.Context, keywords []string) (int64, error) {
	raw, err := c.SearchKeywords(ctx, keywords)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := json.Unmarshal(raw, &count); err != nil {
		// Some server versions report counts as floats.
		var asFloat float64
		if floatErr := json.Unmarshal(raw, &asFloat); floatErr != nil {
			return 0, fmt.Errorf("api: count query returned non-numeric response %s", raw)
		}
		count = int64(asFloat)
	}
	return count, nil
}

// WorksheetSummary is one row of a worksheet search result.
type WorksheetSummary struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	OwnerName string `json:"owner_name"`
	Frozen    bool   `json:"frozen"`
}

// WSearch runs an interpret/wsearch query and returns the matching
// worksheets.
func (c *Client) WSearch(ctx context.Context, keywords []string) ([]WorksheetSummary, error) {
	request := map[string]any{"keywords": keywords}
	var response struct {
		Response []WorksheetSummary `json:"response"`
	}
	if err := c.postJSON(ctx, "/interpret/wsearch", request, &response); err != nil {
		return nil, err
	}
	return response.Response, nil
}

// GenpathTableContents resolves the deferred cells of a worksheet
// table block. Admission is gated by the process-wide 3-slot
// semaphore; additional calls wait. The permit is released on every
// exit path, including context cancellation while waiting.
func (c *Client) GenpathTableContents(ctx context.Context, contents any) (json.RawMessage, error) {
	select {
	case genpathSlots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("api: waiting for genpath slot: %w", ctx.Err())
	}
	defer func() { <-genpathSlots }()

	request := map[string]any{"contents": contents}
	var response struct {
		Contents json.RawMessage `json:"contents"`
	}
	if err := c.postJSON(ctx, "/interpret/genpath-table-contents", request, &response); err != nil {
		return nil, err
	}
	return response.Contents, nil
}
