// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package detail

import (
	"github.com/bundlelab/bundlelab/lib/bundle"
	"github.com/bundlelab/bundlelab/lib/ref"
)

// cachedSnapshot is the persisted subset of a snapshot. Errors,
// generation, and access flags are session state and never cached.
type cachedSnapshot struct {
	BundleInfo   *bundle.Info
	ContentType  bundle.NodeType
	Contents     []bundle.Entry
	FileContents *bundle.FileSummary
	Stdout       *bundle.FileSummary
	Stderr       *bundle.FileSummary
}

func cacheKey(uuid ref.BundleUUID) string {
	return "bundle/" + uuid.String()
}

// restore overlays a cached snapshot onto the engine state for uuid.
// The loaded markers stay false so the next tick still fetches; the
// cache only buys an instant first render.
func (c cachedSnapshot) restore(snapshot *Snapshot, uuid ref.BundleUUID, generation uint64) {
	snapshot.UUID = uuid
	snapshot.BundleInfo = c.BundleInfo
	snapshot.ContentType = c.ContentType
	snapshot.Contents = c.Contents
	snapshot.FileContents = c.FileContents
	snapshot.Stdout = c.Stdout
	snapshot.Stderr = c.Stderr
	snapshot.Loaded = c.BundleInfo != nil
	snapshot.Generation = generation
}

// cachePutLocked persists the current snapshot. Best effort: a write
// failure is logged and otherwise ignored.
func (e *Engine) cachePutLocked() {
	if e.cache == nil || !e.metadataLoaded || e.snapshot.UUID.IsZero() {
		return
	}
	entry := cachedSnapshot{
		BundleInfo:   e.snapshot.BundleInfo,
		ContentType:  e.snapshot.ContentType,
		Contents:     e.snapshot.Contents,
		FileContents: e.snapshot.FileContents,
		Stdout:       e.snapshot.Stdout,
		Stderr:       e.snapshot.Stderr,
	}
	if err := e.cache.Put(cacheKey(e.snapshot.UUID), entry); err != nil {
		e.logger.Debug("snapshot cache write failed", "uuid", e.snapshot.UUID, "error", err)
	}
}
