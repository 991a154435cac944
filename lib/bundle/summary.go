// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import "strings"

// TruncationMarker is the protocol constant separating the head and
// tail segments of a file summary. The client sends it as the
// truncation_text request parameter and the server splices it in
// verbatim, so rendering can detect truncation by substring match.
const TruncationMarker = "\n... [truncated] ...\n\n"

// Summary fetch bounds: the server returns at most this many lines
// from each end of the file.
const (
	SummaryHeadLines = 50
	SummaryTailLines = 50
)

// FileSummary is a head-and-tail extract of one file inside a bundle.
type FileSummary struct {
	// Path is the file's slash-separated path inside the bundle
	// ("/" for single-file bundles).
	Path string

	// Text is the extract, with TruncationMarker between head and
	// tail when the file exceeded the line bounds.
	Text string
}

// Truncated reports whether the extract elides middle content.
func (s FileSummary) Truncated() bool {
	return strings.Contains(s.Text, TruncationMarker)
}
