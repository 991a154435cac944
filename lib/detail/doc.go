// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package detail maintains a live snapshot of one bundle: metadata,
// contents listing, and stdout/stderr summaries, revalidated on a
// lifecycle-aware cadence.
//
// The engine polls every 4 seconds while the bundle is progressing
// (or its worker is offline) and suspends when it reaches a final
// state. Each fetch class — metadata, contents — carries a
// single-flight guard so a slow server never stacks overlapping
// requests, and a generation token so responses that arrive after the
// subscribed UUID changed are discarded instead of clobbering the new
// bundle's state.
//
// Snapshots are published on a latest-wins channel of capacity one:
// a view that falls behind sees the newest state, never a backlog.
// A snapshot is only published once every constituent fetch of its
// refresh has resolved — directory listing plus stdout and stderr
// summaries land together, never piecemeal.
package detail
