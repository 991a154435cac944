// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/bundle"
	"github.com/bundlelab/bundlelab/lib/clock"
	"github.com/bundlelab/bundlelab/lib/ref"
	"github.com/bundlelab/bundlelab/lib/snapcache"
)

// DefaultPollInterval is the revalidation cadence for bundles that
// are still progressing. Fixed, not adaptive — the server sizes its
// capacity around this number.
const DefaultPollInterval = 4 * time.Second

// Options are the view-level knobs recognized by embedders. The
// engine itself only consults BundleInfoFromRow; the rest travel to
// the rendering layer through the engine so an embedder configures
// everything in one place.
type Options struct {
	ContentExpanded    bool
	SidebarExpanded    bool
	HideBundlePageLink bool
	ShowBorder         bool
	FullMinHeight      bool

	// BundleInfoFromRow, when set, is the worksheet row's transient
	// state for the same bundle. Row fields override the engine's
	// copy in every published snapshot. The engine never writes back.
	BundleInfoFromRow *RowState
}

// Config holds the parameters for creating an Engine.
type Config struct {
	// Client is the API gateway. Required.
	Client *api.Client

	// Clock drives the polling cadence. If nil, the real clock.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// Cache, when set, persists the last published snapshot per
	// bundle so a resubscribe renders instantly. Optional.
	Cache *snapcache.Store

	// PollInterval overrides DefaultPollInterval (tests).
	PollInterval time.Duration

	Options Options
}

// Engine maintains the live snapshot for one subscribed bundle UUID.
// Create with New, start the loop with Run, feed it UUIDs with
// SetUUID, and receive snapshots from Updates.
type Engine struct {
	client   *api.Client
	clock    clock.Clock
	logger   *slog.Logger
	cache    *snapcache.Store
	options  Options
	interval time.Duration

	mu         sync.Mutex
	uuid       ref.BundleUUID
	generation uint64
	snapshot   Snapshot
	row        *RowState

	// Single-flight guards, one per fetch class. A tick skips a
	// class whose previous fetch has not completed.
	metadataInFlight bool
	contentsInFlight bool

	// Loaded markers for the current generation. Final-state bundles
	// fetch each class once and then suspend.
	metadataLoaded bool
	contentsLoaded bool

	updates chan Snapshot
	kick    chan struct{}
}

// New creates an Engine. No fetches happen until Run.
func New(config Config) (*Engine, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("detail: Client is required")
	}
	tick := config.Clock
	if tick == nil {
		tick = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Engine{
		client:   config.Client,
		clock:    tick,
		logger:   logger,
		cache:    config.Cache,
		options:  config.Options,
		interval: interval,
		row:      config.Options.BundleInfoFromRow,
		updates:  make(chan Snapshot, 1),
		kick:     make(chan struct{}, 1),
	}, nil
}

// Options returns the view-level options the engine was created with.
func (e *Engine) Opts() Options { return e.options }

// Updates returns the snapshot channel. Capacity one, latest wins:
// a slow consumer sees the newest snapshot, never a backlog.
func (e *Engine) Updates() <-chan Snapshot { return e.updates }

// SetUUID switches the engine to a new bundle. The error buffer is
// cleared; the prior snapshot is retained until the first successful
// metadata fetch for the new UUID so the view does not flicker
// through a loading state. Responses from fetches started for the
// old UUID are discarded by generation comparison.
func (e *Engine) SetUUID(uuid ref.BundleUUID) {
	e.mu.Lock()
	if uuid == e.uuid {
		e.mu.Unlock()
		return
	}
	e.uuid = uuid
	e.generation++
	e.snapshot.Generation = e.generation
	e.snapshot.Errors = nil
	e.snapshot.AccessDenied = false
	e.metadataInFlight = false
	e.contentsInFlight = false
	e.metadataLoaded = false
	e.contentsLoaded = false

	// Flicker-free resubscribe: restore the last published snapshot
	// for this bundle from the cache while the first fetch runs.
	if e.cache != nil && !uuid.IsZero() {
		var cached cachedSnapshot
		err := e.cache.Get(cacheKey(uuid), &cached)
		switch {
		case err == nil:
			cached.restore(&e.snapshot, uuid, e.generation)
		case !errors.Is(err, snapcache.ErrMiss):
			e.logger.Debug("snapshot cache read failed", "uuid", uuid, "error", err)
		}
	}
	e.publishLocked()
	e.mu.Unlock()
	e.kickRun()
}

// SetRowState replaces the row-owned transient state and republishes
// so both views agree within one render pass.
func (e *Engine) SetRowState(row *RowState) {
	e.mu.Lock()
	e.row = row
	e.publishLocked()
	e.mu.Unlock()
}

// Run drives the engine until ctx is cancelled. The ticker is armed
// only while polling is warranted; it is released when the bundle
// reaches a final state or access is denied, and re-armed on SetUUID.
func (e *Engine) Run(ctx context.Context) {
	var ticker *clock.Ticker
	var ticks <-chan time.Time
	disarm := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			ticks = nil
		}
	}
	defer disarm()

	rearm := func() {
		needed := e.pollingNeeded()
		if needed && ticker == nil {
			ticker = e.clock.NewTicker(e.interval)
			ticks = ticker.C
		} else if !needed {
			disarm()
		}
	}

	e.tick(ctx, true)
	rearm()

	for {
		select {
		case <-ctx.Done():
			// Outstanding fetches are allowed to complete; their
			// results are discarded by the generation check.
			e.mu.Lock()
			e.generation++
			e.mu.Unlock()
			return
		case <-e.kick:
			e.tick(ctx, false)
			rearm()
		case <-ticks:
			e.tick(ctx, true)
			rearm()
		}
	}
}

// kickRun nudges the Run loop outside the ticker cadence: a kicked
// tick starts first-load fetches and re-evaluates whether the ticker
// should stay armed, but never refreshes an already-loaded class.
// Non-blocking: a pending kick already covers this one.
func (e *Engine) kickRun() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// pollingNeeded reports whether any future fetch can happen. Final
// state with everything loaded, access denied, and no subscribed
// UUID all suspend the ticker.
func (e *Engine) pollingNeeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uuid.IsZero() || e.snapshot.AccessDenied {
		return false
	}
	if !e.metadataLoaded || !e.contentsLoaded {
		return true
	}
	info := e.snapshot.BundleInfo
	return info == nil || bundle.ShouldPoll(info.State)
}

// tick starts whichever fetch classes are due. Active-state
// revalidation happens only on ticker ticks (refresh true); completion
// kicks pass refresh false and start nothing but never-loaded classes,
// so a chain of completions cannot outrun the poll interval. Each
// class is skipped while its previous fetch is outstanding
// (single-flight), so server latency above the poll interval thins the
// cadence instead of stacking requests.
func (e *Engine) tick(ctx context.Context, refresh bool) {
	e.mu.Lock()
	uuid := e.uuid
	generation := e.generation
	if uuid.IsZero() || e.snapshot.AccessDenied {
		e.mu.Unlock()
		return
	}

	startMetadata := !e.metadataInFlight &&
		(!e.metadataLoaded || (refresh && e.activeLocked()))
	if startMetadata {
		e.metadataInFlight = true
	}

	info := e.snapshot.BundleInfo
	haveInfo := e.metadataLoaded && info != nil
	startContents := !e.contentsInFlight && haveInfo && !info.IsPrivate() &&
		(!e.contentsLoaded || (refresh && e.activeLocked()))
	if startContents {
		e.contentsInFlight = true
	}
	e.mu.Unlock()

	if startMetadata {
		go e.fetchMetadata(ctx, generation, uuid)
	}
	if startContents {
		go e.fetchContents(ctx, generation, uuid)
	}
}

// activeLocked reports whether the bundle still warrants the 4 s
// cadence: states outside the final set, including worker_offline.
func (e *Engine) activeLocked() bool {
	if !e.metadataLoaded || e.snapshot.BundleInfo == nil {
		return true
	}
	return bundle.ShouldPoll(e.snapshot.BundleInfo.State)
}

func (e *Engine) fetchMetadata(ctx context.Context, generation uint64, uuid ref.BundleUUID) {
	document, err := e.client.FetchBundle(ctx, uuid)
	var info *bundle.Info
	if err == nil {
		info, err = bundle.NormalizeBundleDocument(document)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if generation != e.generation {
		// Superseded by a UUID change or shutdown: the in-flight
		// flag was already reset for the new generation.
		return
	}
	e.metadataInFlight = false

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if api.IsPermissionDenied(err) {
			e.denyAccessLocked(err.Error())
			e.kickRun()
		} else {
			// The retry waits for the next ticker tick.
			e.appendErrorLocked(err)
			e.publishLocked()
		}
		return
	}

	// First successful metadata for a new UUID replaces the retained
	// stale snapshot; content fields from the old bundle go with it.
	if e.snapshot.UUID != uuid {
		e.snapshot.ContentType = ""
		e.snapshot.Contents = nil
		e.snapshot.FileContents = nil
		e.snapshot.Stdout = nil
		e.snapshot.Stderr = nil
	}
	e.snapshot.UUID = uuid
	e.snapshot.BundleInfo = info
	e.snapshot.Loaded = true
	e.metadataLoaded = true

	if info.IsPrivate() {
		e.denyAccessLocked("bundle is private")
		e.kickRun()
		return
	}

	e.publishLocked()
	e.cachePutLocked()
	e.kickRun()
}

// fetchContents refreshes the root contents node and, depending on
// its type, the root file summary or the stdout/stderr summaries.
// All constituent fetches resolve before the one snapshot
// publication — partial snapshots are forbidden.
func (e *Engine) fetchContents(ctx context.Context, generation uint64, uuid ref.BundleUUID) {
	raw, err := e.client.FetchContentsInfo(ctx, uuid, "/", 1)
	if err != nil {
		e.finishContentsError(ctx, generation, err)
		return
	}
	node, err := bundle.ParseContentsNode(raw)
	if err != nil {
		e.finishContentsError(ctx, generation, err)
		return
	}

	switch node.Type {
	case bundle.NodeFile, bundle.NodeLink:
		summary, err := e.fetchSummary(ctx, uuid, "/")
		e.mu.Lock()
		defer e.mu.Unlock()
		if generation != e.generation {
			return
		}
		e.contentsInFlight = false
		e.contentsLoaded = true
		e.snapshot.ContentType = node.Type
		e.snapshot.Contents = nil
		e.snapshot.Stdout = nil
		e.snapshot.Stderr = nil
		e.snapshot.FileContents = summary
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.appendErrorLocked(err)
		}
		e.publishLocked()
		e.cachePutLocked()
		e.kickRun()

	case bundle.NodeDirectory:
		entries := append([]bundle.Entry(nil), node.Contents...)
		bundle.SortEntries(entries)

		// Fan out the stream summaries and wait for both: the
		// listing and the summaries land in a single publication.
		var group sync.WaitGroup
		var stdout, stderr *bundle.FileSummary
		var stdoutErr, stderrErr error
		if _, ok := node.FindEntry("stdout"); ok {
			group.Add(1)
			go func() {
				defer group.Done()
				stdout, stdoutErr = e.fetchSummary(ctx, uuid, "/stdout")
			}()
		}
		if _, ok := node.FindEntry("stderr"); ok {
			group.Add(1)
			go func() {
				defer group.Done()
				stderr, stderrErr = e.fetchSummary(ctx, uuid, "/stderr")
			}()
		}
		group.Wait()

		e.mu.Lock()
		defer e.mu.Unlock()
		if generation != e.generation {
			return
		}
		e.contentsInFlight = false
		e.contentsLoaded = true
		e.snapshot.ContentType = bundle.NodeDirectory
		e.snapshot.Contents = entries
		e.snapshot.FileContents = nil
		e.snapshot.Stdout = stdout
		e.snapshot.Stderr = stderr
		for _, err := range []error{stdoutErr, stderrErr} {
			if err != nil && ctx.Err() == nil {
				e.appendErrorLocked(err)
			}
		}
		e.publishLocked()
		e.cachePutLocked()
		e.kickRun()
	}
}

// fetchSummary retrieves one head/tail file summary. 404 yields a nil
// summary without error — the file vanished between the listing and
// the fetch, which reads as "not present".
func (e *Engine) fetchSummary(ctx context.Context, uuid ref.BundleUUID, path string) (*bundle.FileSummary, error) {
	text, err := e.client.FetchFileSummary(ctx, uuid, path,
		bundle.SummaryHeadLines, bundle.SummaryTailLines, bundle.TruncationMarker)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &bundle.FileSummary{Path: path, Text: text}, nil
}

// finishContentsError handles a failed contents refresh. 404 is the
// expected early-lifecycle condition: contents are not materialized
// yet, so the content fields clear without an error. Anything else
// lands in the error buffer with the previous good content retained.
func (e *Engine) finishContentsError(ctx context.Context, generation uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if generation != e.generation {
		return
	}
	e.contentsInFlight = false
	e.contentsLoaded = true
	if api.IsNotFound(err) {
		e.snapshot.ContentType = ""
		e.snapshot.Contents = nil
		e.snapshot.FileContents = nil
		e.snapshot.Stdout = nil
		e.snapshot.Stderr = nil
	} else {
		if ctx.Err() != nil {
			return
		}
		e.appendErrorLocked(err)
	}
	e.publishLocked()
	e.kickRun()
}

// denyAccessLocked enters the terminal access-denied state: one
// message, no further polling.
func (e *Engine) denyAccessLocked(message string) {
	e.snapshot.AccessDenied = true
	e.snapshot.Errors = []string{message}
	e.snapshot.ContentType = ""
	e.snapshot.Contents = nil
	e.snapshot.FileContents = nil
	e.snapshot.Stdout = nil
	e.snapshot.Stderr = nil
	e.publishLocked()
}

func (e *Engine) appendErrorLocked(err error) {
	e.snapshot.Errors = append(e.snapshot.Errors, err.Error())
	e.logger.Warn("bundle detail fetch failed", "uuid", e.uuid, "error", err)
}

// publishLocked sends the merged snapshot copy, latest wins.
func (e *Engine) publishLocked() {
	snapshot := mergeRow(e.snapshot.clone(), e.row)
	select {
	case e.updates <- snapshot:
	default:
		select {
		case <-e.updates:
		default:
		}
		select {
		case e.updates <- snapshot:
		default:
		}
	}
}
