// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package browser navigates the directory tree inside a bundle.
//
// The engine tracks a path stack within one bundle and keeps the
// listing for the current directory fresh: revalidated every 4 seconds
// while the owning bundle is still active, fetched once otherwise.
// Navigation and fetch lifecycle follow the same discipline as the
// detail engine: single-flight per location, generation tokens so a
// response for a superseded location is discarded, and a latest-wins
// publication channel.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/bundle"
	"github.com/bundlelab/bundlelab/lib/clock"
	"github.com/bundlelab/bundlelab/lib/ref"
)

// DefaultPollInterval matches the platform-wide revalidation cadence.
const DefaultPollInterval = 4 * time.Second

// Listing is the engine's published view of the current directory.
type Listing struct {
	UUID ref.BundleUUID

	// Path is the segment stack; empty means the bundle root.
	Path []string

	// Entries is the sorted listing: directories first, then by name.
	Entries []bundle.Entry

	// Error is the latest fetch failure, "" when the listing is good.
	// The previous entries are retained alongside an error.
	Error string

	// Loaded reports at least one successful fetch for this location.
	Loaded bool

	Generation uint64
}

func (l Listing) clone() Listing {
	l.Path = append([]string(nil), l.Path...)
	l.Entries = append([]bundle.Entry(nil), l.Entries...)
	return l
}

// PathString returns the slash-joined absolute path within the bundle.
func (l Listing) PathString() string { return "/" + strings.Join(l.Path, "/") }

// Config holds the parameters for creating an Engine.
type Config struct {
	// Client is the API gateway. Required.
	Client *api.Client

	// Clock drives revalidation. If nil, the real clock.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// PollInterval overrides DefaultPollInterval (tests).
	PollInterval time.Duration
}

// Engine maintains the listing for one directory inside one bundle.
type Engine struct {
	client   *api.Client
	clock    clock.Clock
	logger   *slog.Logger
	interval time.Duration

	mu         sync.Mutex
	uuid       ref.BundleUUID
	path       []string
	active     bool
	generation uint64
	inFlight   bool
	loaded     bool
	listing    Listing

	updates chan Listing
	kick    chan struct{}
}

// New creates an Engine. No fetches happen until Run.
func New(config Config) (*Engine, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("browser: Client is required")
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
		interval: interval,
		updates:  make(chan Listing, 1),
		kick:     make(chan struct{}, 1),
	}, nil
}

// Updates returns the listing channel. Capacity one, latest wins.
func (e *Engine) Updates() <-chan Listing { return e.updates }

// Open points the engine at a bundle, resetting the path to the root.
// active controls revalidation: true keeps the 4 s cadence, false
// fetches once per location.
func (e *Engine) Open(uuid ref.BundleUUID, active bool) {
	e.mu.Lock()
	e.uuid = uuid
	e.path = nil
	e.active = active
	e.relocateLocked()
	e.mu.Unlock()
	e.kickRun()
}

// SetActive updates the owning bundle's liveness. Turning active on
// resumes the cadence; the current listing is kept.
func (e *Engine) SetActive(active bool) {
	e.mu.Lock()
	e.active = active
	e.mu.Unlock()
	e.kickRun()
}

// Enter navigates into the named directory entry. The ".." entry pops
// the last segment instead.
func (e *Engine) Enter(name string) {
	if name == ".." {
		e.Up()
		return
	}
	e.mu.Lock()
	e.path = append(e.path[:len(e.path):len(e.path)], name)
	e.relocateLocked()
	e.mu.Unlock()
	e.kickRun()
}

// Up pops the last path segment. At the root it is a no-op.
func (e *Engine) Up() {
	e.mu.Lock()
	if len(e.path) == 0 {
		e.mu.Unlock()
		return
	}
	e.path = e.path[:len(e.path)-1]
	e.relocateLocked()
	e.mu.Unlock()
	e.kickRun()
}

// relocateLocked resets per-location state after any navigation. The
// previous entries are retained until the new listing arrives so the
// view does not blank during the transition.
func (e *Engine) relocateLocked() {
	e.generation++
	e.inFlight = false
	e.loaded = false
	e.listing.UUID = e.uuid
	e.listing.Path = e.path
	e.listing.Error = ""
	e.listing.Loaded = false
	e.listing.Generation = e.generation
	e.publishLocked()
}

// Run drives the engine until ctx is cancelled.
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

func (e *Engine) kickRun() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) pollingNeeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uuid.IsZero() {
		return false
	}
	return e.active || !e.loaded
}

// tick starts a fetch when the location needs one: not yet loaded, or
// due for revalidation on an active bundle. Revalidation happens only
// on ticker ticks (refresh true); a completion kick starts nothing but
// a first load, so completions cannot outrun the poll interval.
func (e *Engine) tick(ctx context.Context, refresh bool) {
	e.mu.Lock()
	if e.uuid.IsZero() || e.inFlight || (e.loaded && !(refresh && e.active)) {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	uuid := e.uuid
	path := e.listing.PathString()
	generation := e.generation
	e.mu.Unlock()

	go e.fetch(ctx, generation, uuid, path)
}

func (e *Engine) fetch(ctx context.Context, generation uint64, uuid ref.BundleUUID, path string) {
	raw, err := e.client.FetchContentsInfo(ctx, uuid, path, 1)
	var node *bundle.ContentsNode
	if err == nil {
		node, err = bundle.ParseContentsNode(raw)
	}
	if err == nil && node.Type != bundle.NodeDirectory {
		err = fmt.Errorf("browser: %s is not a directory", path)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if generation != e.generation {
		return
	}
	e.inFlight = false

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// 404 and transport failures alike: keep the stale entries,
		// surface the message. The retry waits for the next ticker
		// tick.
		e.listing.Error = err.Error()
		e.logger.Warn("directory listing fetch failed",
			"uuid", uuid, "path", path, "error", err)
		e.publishLocked()
		return
	}

	entries := append([]bundle.Entry(nil), node.Contents...)
	bundle.SortEntries(entries)
	e.listing.Entries = entries
	e.listing.Error = ""
	e.listing.Loaded = true
	e.loaded = true
	e.publishLocked()
	e.kickRun()
}

func (e *Engine) publishLocked() {
	listing := e.listing.clone()
	select {
	case e.updates <- listing:
	default:
		select {
		case <-e.updates:
		default:
		}
		select {
		case e.updates <- listing:
		default:
		}
	}
}
