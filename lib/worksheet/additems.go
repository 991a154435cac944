// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"fmt"

	"github.com/bundlelab/bundlelab/lib/ref"
)

// AddItemsRequest is the payload of POST /worksheets/{uuid}/add-items.
type AddItemsRequest struct {
	// Items are the raw source lines to insert, one per item.
	Items []string `json:"items"`

	// AfterSortKey positions the insertion: items go immediately
	// after the item with this sort key. Nil appends at the end.
	AfterSortKey *int64 `json:"after_sort_key,omitempty"`
}

// NewMarkupItems builds an add-items request for markup blocks.
func NewMarkupItems(afterSortKey *int64, blocks ...string) AddItemsRequest {
	return AddItemsRequest{Items: blocks, AfterSortKey: afterSortKey}
}

// NewBundleItems builds an add-items request referencing bundles. Each
// bundle becomes one item line in the server's directive syntax.
func NewBundleItems(afterSortKey *int64, uuids ...ref.BundleUUID) AddItemsRequest {
	items := make([]string, len(uuids))
	for i, uuid := range uuids {
		items[i] = fmt.Sprintf("{%s}", uuid)
	}
	return AddItemsRequest{Items: items, AfterSortKey: afterSortKey}
}

// NewSubworksheetItem builds an add-items request embedding another
// worksheet.
func NewSubworksheetItem(afterSortKey *int64, uuid ref.WorksheetUUID) AddItemsRequest {
	return AddItemsRequest{
		Items:        []string{fmt.Sprintf("{{%s}}", uuid)},
		AfterSortKey: afterSortKey,
	}
}
