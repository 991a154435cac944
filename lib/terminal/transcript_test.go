// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"log/slog"
	"testing"

	"github.com/bundlelab/bundlelab/lib/api"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestLinkifyRewritesEveryOccurrence(t *testing.T) {
	refs := map[string]api.CommandRef{
		"run1": {Type: "bundle", UUID: bundleUUID},
	}
	spans := linkify("run1 depends on run1", refs, discard())

	linked := 0
	for _, span := range spans {
		if span.URL != "" {
			linked++
			if span.Text != "run1" || span.URL != "/bundles/"+bundleUUID {
				t.Errorf("span = %+v", span)
			}
		}
	}
	if linked != 2 {
		t.Errorf("linked spans = %d, want 2", linked)
	}
}

func TestLinkifyLongerTokenWins(t *testing.T) {
	// "run1-final" contains "run1"; the longer token must claim the
	// text before the shorter one can split it.
	refs := map[string]api.CommandRef{
		"run1":       {Type: "bundle", UUID: bundleUUID},
		"run1-final": {Type: "worksheet", UUID: sheetUUID},
	}
	spans := linkify("promote run1-final", refs, discard())

	for _, span := range spans {
		if span.Text == "run1-final" && span.URL != "/worksheets/"+sheetUUID {
			t.Errorf("run1-final linked to %q", span.URL)
		}
	}
	text := Line{Spans: spans}.Text()
	if text != "promote run1-final" {
		t.Errorf("round-trip text = %q", text)
	}
}

func TestLinkifyMalformedUUIDLeftPlain(t *testing.T) {
	refs := map[string]api.CommandRef{
		"run1": {Type: "bundle", UUID: "not-a-uuid"},
	}
	spans := linkify("see run1", refs, discard())
	for _, span := range spans {
		if span.URL != "" {
			t.Errorf("malformed ref produced link: %+v", span)
		}
	}
}

func TestLinkifyNoRefs(t *testing.T) {
	spans := linkify("plain text", nil, discard())
	if len(spans) != 1 || spans[0].Text != "plain text" || spans[0].URL != "" {
		t.Errorf("spans = %+v", spans)
	}
}
