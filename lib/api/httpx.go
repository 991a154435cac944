// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"io"
)

// maxResponseSize bounds response body reads: 256 MB. This exists
// solely to prevent a pathological response from exhausting memory.
// File summaries are head/tail truncated server-side and JSON
// responses are orders of magnitude smaller, so the limit never
// interferes with normal operation.
const maxResponseSize int64 = 256 << 20

// readResponse reads a response body up to maxResponseSize bytes. Use
// instead of io.ReadAll when reading HTTP response bodies.
func readResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, maxResponseSize))
}
