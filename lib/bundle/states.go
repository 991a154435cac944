// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle models bundles: their kinds, lifecycle states, typed
// metadata, and contents trees. Everything here is pure data and pure
// functions — the polling engines layer behavior on top.
package bundle

import "time"

// Kind is the bundle type.
type Kind string

const (
	// KindRun is a command execution with captured output.
	KindRun Kind = "run"
	// KindDataset is uploaded data.
	KindDataset Kind = "dataset"
	// KindMake is a bundle derived from other bundles.
	KindMake Kind = "make"
	// KindPrivate is the server's placeholder for a bundle the caller
	// may not read. Only the UUID and this marker are visible.
	KindPrivate Kind = "private"
)

// State is a bundle lifecycle state.
type State string

const (
	StateCreated    State = "created"
	StateUploading  State = "uploading"
	StateStaged     State = "staged"
	StateMaking     State = "making"
	StateStarting   State = "starting"
	StatePreparing  State = "preparing"
	StateRunning    State = "running"
	StateFinalizing State = "finalizing"
	StateReady      State = "ready"

	// Absorbing off-sequence states, reachable from any point in any
	// kind's sequence.
	StateFailed        State = "failed"
	StateKilled        State = "killed"
	StateWorkerOffline State = "worker_offline"
)

// sequences lists each kind's happy-path state order. The detail view
// renders this as the state diagram; progression is monotonic except
// for the absorbing states.
var sequences = map[Kind][]State{
	KindRun: {
		StateCreated, StateStaged, StateStarting, StatePreparing,
		StateRunning, StateFinalizing, StateReady,
	},
	KindDataset: {StateCreated, StateUploading, StateReady},
	KindMake:    {StateCreated, StateMaking, StateReady},
}

// AllStates lists every lifecycle state in display order: the union of
// the kind sequences followed by the absorbing states.
func AllStates() []State {
	return []State{
		StateCreated, StateUploading, StateStaged, StateMaking,
		StateStarting, StatePreparing, StateRunning, StateFinalizing,
		StateReady, StateFailed, StateKilled, StateWorkerOffline,
	}
}

// SequenceFor returns the happy-path state sequence for a kind. The
// returned slice is a copy; callers may reorder it. Unknown kinds
// (including private) have no sequence.
func SequenceFor(kind Kind) []State {
	sequence, ok := sequences[kind]
	if !ok {
		return nil
	}
	out := make([]State, len(sequence))
	copy(out, sequence)
	return out
}

// IsFinal reports whether the state absorbs all further transitions
// and display-wise ends the bundle's life. Polling suspends on final
// states.
func IsFinal(state State) bool {
	return state == StateReady || state == StateFailed || state == StateKilled
}

// IsOffline reports whether the bundle's worker has gone offline. The
// state renders like a terminal condition but the server can resume
// the bundle, so polling continues.
func IsOffline(state State) bool {
	return state == StateWorkerOffline
}

// IsActive reports whether the bundle is still progressing:
// not final and not offline.
func IsActive(state State) bool {
	return !IsFinal(state) && !IsOffline(state)
}

// ShouldPoll reports whether a bundle in this state warrants the 4 s
// refresh cadence. Active states and worker_offline poll (offline
// bundles come back); final states do not.
func ShouldPoll(state State) bool {
	return !IsFinal(state)
}

// DisplayTime returns the duration to show beside the state box, and
// whether one applies. Preparing and running states show their
// per-phase timers; everything else shows the overall time when the
// metadata carries one.
func DisplayTime(state State, metadata Metadata) (time.Duration, bool) {
	switch state {
	case StatePreparing:
		return metadata.Duration("time_preparing")
	case StateRunning:
		if d, ok := metadata.Duration("time_running"); ok {
			return d, true
		}
		return metadata.Duration("time")
	default:
		return 0, false
	}
}
