// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package worksheet

import "fmt"

// edgeGap is the sort-key distance used when inserting before the
// first or after the last item. A gap (rather than ±1) leaves room
// for subsequent edge insertions without immediate key exhaustion.
const edgeGap = 10

// InsertKeyBetween returns a sort key strictly between after and
// before, using the midpoint. Integer midpoints exhaust when neighbors
// become adjacent (before == after+1); the caller must then renumber —
// signalled by an error rather than a silent duplicate key.
func InsertKeyBetween(after, before int64) (int64, error) {
	if before <= after {
		return 0, fmt.Errorf("worksheet: cannot insert between keys %d and %d", after, before)
	}
	if before == after+1 {
		return 0, fmt.Errorf("worksheet: no key available between adjacent keys %d and %d", after, before)
	}
	// Overflow-safe midpoint.
	return after + (before-after)/2, nil
}

// InsertKeyFirst returns a key for inserting before the current first
// item.
func InsertKeyFirst(firstKey int64) int64 { return firstKey - edgeGap }

// InsertKeyLast returns a key for inserting after the current last
// item.
func InsertKeyLast(lastKey int64) int64 { return lastKey + edgeGap }

// InsertKeyAt computes the sort key for inserting at position index
// within the worksheet (0 = before everything, len(items) = append).
func (w *Worksheet) InsertKeyAt(index int) (int64, error) {
	if len(w.Items) == 0 {
		return 0, nil
	}
	switch {
	case index <= 0:
		return InsertKeyFirst(w.Items[0].SortKey), nil
	case index >= len(w.Items):
		return InsertKeyLast(w.Items[len(w.Items)-1].SortKey), nil
	default:
		return InsertKeyBetween(w.Items[index-1].SortKey, w.Items[index].SortKey)
	}
}
