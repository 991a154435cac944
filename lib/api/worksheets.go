// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bundlelab/bundlelab/lib/ref"
)

// FetchWorksheet retrieves the server-interpreted form of a worksheet:
// metadata plus resolved blocks (markup, tables with bundle lists,
// subworksheets, graphs). The worksheet package parses the raw value.
func (c *Client) FetchWorksheet(ctx context.Context, uuid ref.WorksheetUUID) (json.RawMessage, error) {
	request := map[string]any{"uuid": uuid.String()}
	var response json.RawMessage
	if err := c.postJSON(ctx, "/interpret/worksheet", request, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// UpdateWorksheet patches worksheet attributes (name, title, frozen
// marker, raw item source).
func (c *Client) UpdateWorksheet(ctx context.Context, uuid ref.WorksheetUUID, attributes map[string]any) error {
	requestBody := map[string]any{
		"data": []map[string]any{{
			"id":         uuid.String(),
			"type":       "worksheets",
			"attributes": attributes,
		}},
	}
	_, err := c.doRequest(ctx, http.MethodPatch, "/worksheets", nil, requestBody)
	return err
}

// AddWorksheetItems appends or inserts items into a worksheet. The
// items payload is built by the worksheet package so sort-key
// assignment stays in one place.
func (c *Client) AddWorksheetItems(ctx context.Context, uuid ref.WorksheetUUID, payload any) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/worksheets/"+uuid.String()+"/add-items", nil, payload)
	return err
}
