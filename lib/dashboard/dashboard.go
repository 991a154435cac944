// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard aggregates a user's bundles and worksheets for the
// landing page: per-state bundle counts plus owned and shared
// worksheet lists.
//
// Count queries run strictly sequentially. The dashboard fires one
// query per lifecycle state and the server prices each as a full
// search; issuing them one at a time bounds the concurrent load to a
// single request regardless of how many states exist.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/bundle"
)

// Bucket is one non-zero count on the dashboard.
type Bucket struct {
	// Label is the state name, or "floating" for the bundles attached
	// to no worksheet.
	Label string

	Count int64
}

// Summary is the assembled dashboard content.
type Summary struct {
	// Buckets holds the non-zero bundle counts in query order: the
	// lifecycle states first, floating last.
	Buckets []Bucket

	// Owned are the user's worksheets; Shared are worksheets others
	// granted the user access to.
	Owned  []api.WorksheetSummary
	Shared []api.WorksheetSummary
}

// worksheetListLimit caps both worksheet lists.
const worksheetListLimit = "100"

// Aggregator issues the dashboard's queries.
type Aggregator struct {
	client *api.Client
	logger *slog.Logger
}

// New creates an Aggregator.
func New(client *api.Client, logger *slog.Logger) (*Aggregator, error) {
	if client == nil {
		return nil, fmt.Errorf("dashboard: client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{client: client, logger: logger}, nil
}

// BundleCounts runs the per-state count queries for user, one at a
// time, and returns the non-zero buckets in query order.
func (a *Aggregator) BundleCounts(ctx context.Context, user string) ([]Bucket, error) {
	var buckets []Bucket
	for _, state := range bundle.AllStates() {
		count, err := a.client.SearchCount(ctx, []string{
			"owner=" + user, ".count", "state=" + string(state),
		})
		if err != nil {
			return nil, fmt.Errorf("dashboard: counting state %s: %w", state, err)
		}
		if count > 0 {
			buckets = append(buckets, Bucket{Label: string(state), Count: count})
		}
	}

	floating, err := a.client.SearchCount(ctx, []string{
		"owner=" + user, ".count", ".floating",
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: counting floating bundles: %w", err)
	}
	if floating > 0 {
		buckets = append(buckets, Bucket{Label: "floating", Count: floating})
	}
	return buckets, nil
}

// OwnedWorksheets lists the user's worksheets.
func (a *Aggregator) OwnedWorksheets(ctx context.Context, user string) ([]api.WorksheetSummary, error) {
	sheets, err := a.client.WSearch(ctx, []string{
		"owner=" + user, ".limit=" + worksheetListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: listing owned worksheets: %w", err)
	}
	return sheets, nil
}

// SharedWorksheets lists worksheets shared with the caller by others.
func (a *Aggregator) SharedWorksheets(ctx context.Context) ([]api.WorksheetSummary, error) {
	sheets, err := a.client.WSearch(ctx, []string{
		".shared", ".notmine", ".limit=" + worksheetListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: listing shared worksheets: %w", err)
	}
	return sheets, nil
}

// Load assembles the full dashboard for user.
func (a *Aggregator) Load(ctx context.Context, user string) (*Summary, error) {
	buckets, err := a.BundleCounts(ctx, user)
	if err != nil {
		return nil, err
	}
	owned, err := a.OwnedWorksheets(ctx, user)
	if err != nil {
		return nil, err
	}
	shared, err := a.SharedWorksheets(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("dashboard loaded",
		"user", user,
		"buckets", len(buckets),
		"owned", len(owned),
		"shared", len(shared),
	)
	return &Summary{Buckets: buckets, Owned: owned, Shared: shared}, nil
}
