// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the HTTP gateway to the platform's REST interface.
//
// A Client wraps one server and one session cookie. Every endpoint the
// platform exposes has a typed method; all of them funnel through a
// single doRequest helper that normalizes failures into *Error values
// carrying the HTTP status, a human-readable message, and the raw
// response text.
//
// The gateway imposes no retries and no timeouts — callers own both
// policies and cancel through the context. The one shared resource is
// a process-wide 3-slot semaphore bounding concurrent
// genpath-table-contents resolution, the only request class the
// server cannot absorb unbounded fan-out on.
package api
