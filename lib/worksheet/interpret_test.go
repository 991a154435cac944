// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"encoding/json"
	"strings"
	"testing"
)

const interpretedFixture = `{
	"uuid": "0x1234567890abcdef1234567890abcdef",
	"name": "experiments",
	"title": "Experiments",
	"owner_name": "alice",
	"frozen": false,
	"blocks": [
		{"mode": "markup_block", "text": "## Results", "sort_keys": [10]},
		{"mode": "table_block",
		 "header": ["name", "state"],
		 "bundles_spec": {"bundle_infos": [
			{"uuid": "0xfeedfacefeedfacefeedfacefeedface"},
			{"uuid": "0xdeadbeefdeadbeefdeadbeefdeadbeef"}
		 ]},
		 "sort_keys": [20, 30]},
		{"mode": "subworksheet_block",
		 "subworksheet_spec": {"uuid": "0xabcdefabcdefabcdefabcdefabcdefab"},
		 "sort_keys": [40]},
		{"mode": "wsearch_block", "sort_keys": [50]}
	]
}`

func TestParseInterpreted(t *testing.T) {
	sheet, err := ParseInterpreted(json.RawMessage(interpretedFixture))
	if err != nil {
		t.Fatalf("ParseInterpreted failed: %v", err)
	}
	if sheet.Name != "experiments" || sheet.Owner != "alice" {
		t.Errorf("sheet = %+v", sheet)
	}

	// The unknown wsearch_block is skipped, leaving three items.
	if len(sheet.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(sheet.Items))
	}

	markup := sheet.Items[0]
	if markup.Type != ItemMarkup || markup.Markup != "## Results" || markup.SortKey != 10 {
		t.Errorf("markup item = %+v", markup)
	}

	table := sheet.Items[1]
	if table.Type != ItemTable || len(table.BundleUUIDs) != 2 || table.SortKey != 20 {
		t.Errorf("table item = %+v", table)
	}
	if table.BundleUUIDs[0].String() != "0xfeedfacefeedfacefeedfacefeedface" {
		t.Errorf("first bundle = %s", table.BundleUUIDs[0])
	}
	if len(table.GenpathSpecs) != 2 || table.GenpathSpecs[1] != "state" {
		t.Errorf("genpaths = %v", table.GenpathSpecs)
	}

	sub := sheet.Items[2]
	if sub.Type != ItemSubworksheet || sub.SubworksheetUUID.String() != "0xabcdefabcdefabcdefabcdefabcdefab" {
		t.Errorf("subworksheet item = %+v", sub)
	}
}

func TestParseInterpretedRejectsMalformedBundleUUID(t *testing.T) {
	raw := `{
		"uuid": "0x1234567890abcdef1234567890abcdef",
		"blocks": [
			{"mode": "table_block",
			 "bundles_spec": {"bundle_infos": [{"uuid": "not-a-uuid"}]}}
		]
	}`
	_, err := ParseInterpreted(json.RawMessage(raw))
	if err == nil || !strings.Contains(err.Error(), "not-a-uuid") {
		t.Fatalf("err = %v, want malformed UUID error", err)
	}
}

func TestParseInterpretedRejectsMalformedWorksheetUUID(t *testing.T) {
	_, err := ParseInterpreted(json.RawMessage(`{"uuid": "bogus"}`))
	if err == nil {
		t.Fatal("want error for malformed worksheet uuid")
	}
}

func TestParseInterpretedGraphBlock(t *testing.T) {
	raw := `{
		"uuid": "0x1234567890abcdef1234567890abcdef",
		"blocks": [
			{"mode": "graph_block",
			 "genpath": "/stats:accuracy",
			 "bundles_spec": {"bundle_infos": [{"uuid": "0xfeedfacefeedfacefeedfacefeedface"}]}}
		]
	}`
	sheet, err := ParseInterpreted(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("ParseInterpreted failed: %v", err)
	}
	if len(sheet.Items) != 1 {
		t.Fatalf("items = %d", len(sheet.Items))
	}
	graph := sheet.Items[0]
	if graph.Type != ItemGraph || len(graph.BundleUUIDs) != 1 {
		t.Errorf("graph item = %+v", graph)
	}
	if len(graph.GenpathSpecs) != 1 || graph.GenpathSpecs[0] != "/stats:accuracy" {
		t.Errorf("genpaths = %v", graph.GenpathSpecs)
	}
}
