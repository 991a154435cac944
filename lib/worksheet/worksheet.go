// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package worksheet models worksheets: ordered sequences of markup,
// table, subworksheet, and graph items, positioned by integer sort
// keys. The midpoint insertion scheme keeps keys strictly monotonic
// without renumbering on every edit.
package worksheet

import (
	"fmt"

	"github.com/bundlelab/bundlelab/lib/ref"
)

// ItemType tags a worksheet item variant.
type ItemType string

const (
	// ItemMarkup is a block of extended-Markdown narrative text.
	ItemMarkup ItemType = "markup"
	// ItemTable is a table of bundle rows with genpath columns.
	ItemTable ItemType = "table"
	// ItemSubworksheet embeds a reference to another worksheet.
	ItemSubworksheet ItemType = "subworksheet"
	// ItemGraph plots metadata tuples from a set of bundles.
	ItemGraph ItemType = "graph"
)

// Item is one entry of a worksheet.
type Item struct {
	// SortKey positions the item. Keys are strictly increasing
	// within a worksheet.
	SortKey int64

	Type ItemType

	// Markup is the raw block source for markup items.
	Markup string

	// BundleUUIDs are the bundles a table or graph item references.
	BundleUUIDs []ref.BundleUUID

	// SubworksheetUUID is set for subworksheet items.
	SubworksheetUUID ref.WorksheetUUID

	// GenpathSpecs are the column (table) or axis (graph)
	// specifications, in the server's genpath syntax.
	GenpathSpecs []string
}

// Worksheet is an ordered sequence of items.
type Worksheet struct {
	UUID   ref.WorksheetUUID
	Name   string
	Title  string
	Owner  string
	Frozen bool
	Items  []Item
}

// ValidateName checks a proposed worksheet name against the server's
// name rule. The server enforces the same pattern; checking client-
// side turns a round-trip failure into an immediate validation error.
func ValidateName(name string) error {
	if !ref.ValidName(name) {
		return fmt.Errorf("worksheet: name %q must start with a letter or underscore and contain only letters, digits, '_', '.', '-'", name)
	}
	return nil
}

// CheckSortKeys verifies the strict monotonicity invariant, returning
// the index of the first violation.
func (w *Worksheet) CheckSortKeys() (int, bool) {
	for i := 1; i < len(w.Items); i++ {
		if w.Items[i].SortKey <= w.Items[i-1].SortKey {
			return i, false
		}
	}
	return 0, true
}
