// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package detail

import (
	"encoding/json"

	"github.com/bundlelab/bundlelab/lib/bundle"
	"github.com/bundlelab/bundlelab/lib/ref"
)

// Snapshot is the engine's published view of one bundle. The engine
// owns its internal copy; published values are independent copies the
// view may hold as long as it likes.
type Snapshot struct {
	// UUID is the bundle the snapshot describes. During a UUID
	// change this may lag the subscribed UUID until the first
	// successful metadata fetch — the stale view is retained to
	// avoid a loading flicker.
	UUID ref.BundleUUID

	// BundleInfo is the normalized metadata, nil before first load.
	BundleInfo *bundle.Info

	// ContentType is the root contents node type, "" while unknown
	// (not yet fetched, or contents not yet materialized).
	ContentType bundle.NodeType

	// Contents is the sorted root directory listing when ContentType
	// is directory.
	Contents []bundle.Entry

	// FileContents is the root file summary when ContentType is file
	// or link.
	FileContents *bundle.FileSummary

	// Stdout and Stderr are present when the root directory contains
	// files by those names.
	Stdout *bundle.FileSummary
	Stderr *bundle.FileSummary

	// Errors is the engine's error buffer: transport failures in
	// arrival order. 404 on contents never lands here.
	Errors []string

	// AccessDenied is terminal: the bundle is private (or the caller
	// lost permission) and polling has stopped.
	AccessDenied bool

	// Loaded reports that at least one metadata fetch has succeeded
	// for UUID (or a cached snapshot was restored). A view with
	// Loaded false shows a loading state, never an error.
	Loaded bool

	// Generation counts UUID changes; diagnostics only.
	Generation uint64
}

// clone returns an independent copy. Summaries and BundleInfo are
// shared by pointer — the engine replaces them wholesale and never
// mutates them in place.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Contents = append([]bundle.Entry(nil), s.Contents...)
	out.Errors = append([]string(nil), s.Errors...)
	return out
}

// RowState is the transient state a worksheet row tracks for the same
// bundle. When the detail view is embedded in a row, the row owns
// these fields and the engine merges them read-only into every
// published snapshot, so the two views never disagree.
type RowState struct {
	State        bundle.State
	StateDetails string

	// Time fields in seconds; nil leaves the engine's copy.
	Time          *float64
	TimePreparing *float64
	TimeRunning   *float64
}

// mergeRow overlays row-owned fields onto a snapshot copy. The
// engine's own Info is not mutated: the metadata map is re-created
// with the overridden fields.
func mergeRow(snapshot Snapshot, row *RowState) Snapshot {
	if row == nil || snapshot.BundleInfo == nil {
		return snapshot
	}
	merged := *snapshot.BundleInfo
	if row.State != "" {
		merged.State = row.State
	}
	if row.StateDetails != "" {
		merged.StateDetails = row.StateDetails
	}

	overrides := map[string]*float64{
		"time":           row.Time,
		"time_preparing": row.TimePreparing,
		"time_running":   row.TimeRunning,
	}
	needsCopy := false
	for _, value := range overrides {
		if value != nil {
			needsCopy = true
		}
	}
	if needsCopy {
		metadata := make(bundle.Metadata, len(merged.Metadata)+3)
		for key, value := range merged.Metadata {
			metadata[key] = value
		}
		for key, value := range overrides {
			if value != nil {
				encoded, err := json.Marshal(*value)
				if err != nil {
					continue
				}
				metadata[key] = encoded
			}
		}
		merged.Metadata = metadata
	}

	snapshot.BundleInfo = &merged
	return snapshot
}
