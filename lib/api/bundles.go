// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bundlelab/bundlelab/lib/ref"
)

// FetchBundle retrieves a bundle's metadata as a JSON:API document,
// side-loading the owner, group permissions, and host worksheets, and
// asking the server to flag the editable metadata subset.
func (c *Client) FetchBundle(ctx context.Context, uuid ref.BundleUUID) (*Document, error) {
	query := url.Values{
		"include_display_metadata": {"1"},
		"include":                  {"owner,group_permissions,host_worksheets"},
	}
	body, err := c.doRequest(ctx, http.MethodGet, "/bundles/"+uuid.String(), query, nil)
	if err != nil {
		return nil, err
	}
	var document Document
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("api: parsing bundle document: %w", err)
	}
	return &document, nil
}

// FetchContentsInfo retrieves the contents node at path inside the
// bundle. path is slash-separated and unencoded ("" or "/" for the
// bundle root); depth controls directory listing recursion. The raw
// "data" member is returned for the bundle package to interpret.
//
// A 404 here is an expected lifecycle condition (contents not yet
// materialized) — callers check with IsNotFound.
func (c *Client) FetchContentsInfo(ctx context.Context, uuid ref.BundleUUID, path string, depth int) (json.RawMessage, error) {
	endpoint := "/bundles/" + uuid.String() + "/contents/info/" + trimLeadingSlash(EncodeContentsPath(path))
	query := url.Values{"depth": {strconv.Itoa(depth)}}
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("api: parsing contents info: %w", err)
	}
	return envelope.Data, nil
}

// FetchFileSummary retrieves a head-and-tail extract of the file at
// path inside the bundle. The server truncates the middle and splices
// in truncationText verbatim, so the same string must be used when
// rendering. The response is plain text, returned as-is.
func (c *Client) FetchFileSummary(ctx context.Context, uuid ref.BundleUUID, path string, headLines, tailLines int, truncationText string) (string, error) {
	endpoint := "/bundles/" + uuid.String() + "/contents/blob/" + trimLeadingSlash(EncodeContentsPath(path))
	query := url.Values{
		"head":            {strconv.Itoa(headLines)},
		"tail":            {strconv.Itoa(tailLines)},
		"truncation_text": {truncationText},
	}
	body, err := c.do(ctx, http.MethodGet, endpoint, query, "", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// UpdateBundleMetadata patches the editable metadata of a bundle. The
// server validates that every key is in the editable subset.
func (c *Client) UpdateBundleMetadata(ctx context.Context, uuid ref.BundleUUID, metadata map[string]any) error {
	requestBody := map[string]any{
		"data": []map[string]any{{
			"id":   uuid.String(),
			"type": "bundles",
			"attributes": map[string]any{
				"metadata": metadata,
			},
		}},
	}
	_, err := c.doRequest(ctx, http.MethodPatch, "/bundles", nil, requestBody)
	return err
}

// trimLeadingSlash drops one leading "/" so a root path ("/") maps to
// the endpoint's trailing slash and deeper paths do not double it.
func trimLeadingSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}
