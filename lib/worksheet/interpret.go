// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"encoding/json"
	"fmt"

	"github.com/bundlelab/bundlelab/lib/ref"
)

// interpretedWorksheet is the wire form of an interpret/worksheet
// response. Block modes map onto the Item variants; unknown modes are
// skipped so new server-side block types degrade gracefully.
type interpretedWorksheet struct {
	UUID      string             `json:"uuid"`
	Name      string             `json:"name"`
	Title     string             `json:"title"`
	OwnerName string             `json:"owner_name"`
	Frozen    bool               `json:"frozen"`
	Blocks    []interpretedBlock `json:"blocks"`
}

type interpretedBlock struct {
	Mode string `json:"mode"`

	// SortKeys carries one key per source item the block was built
	// from; the block's position is the first.
	SortKeys []int64 `json:"sort_keys"`

	// markup_block
	Text string `json:"text"`

	// table_block and graph_block
	BundlesSpec *struct {
		BundleInfos []struct {
			UUID string `json:"uuid"`
		} `json:"bundle_infos"`
	} `json:"bundles_spec"`
	Header []string `json:"header"`

	// subworksheet_block
	SubworksheetSpec *struct {
		UUID string `json:"uuid"`
	} `json:"subworksheet_spec"`

	// graph_block
	Genpath string `json:"genpath"`
}

// ParseInterpreted converts a raw interpret/worksheet response into a
// Worksheet. Blocks referencing malformed UUIDs fail the whole parse:
// a worksheet that half-loads is worse than an error.
func ParseInterpreted(raw json.RawMessage) (*Worksheet, error) {
	var wire interpretedWorksheet
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("worksheet: parsing interpreted response: %w", err)
	}

	uuid, err := ref.ParseWorksheetUUID(wire.UUID)
	if err != nil {
		return nil, fmt.Errorf("worksheet: interpreted response: %w", err)
	}

	sheet := &Worksheet{
		UUID:   uuid,
		Name:   wire.Name,
		Title:  wire.Title,
		Owner:  wire.OwnerName,
		Frozen: wire.Frozen,
	}

	for _, block := range wire.Blocks {
		item, ok, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		if ok {
			sheet.Items = append(sheet.Items, item)
		}
	}
	return sheet, nil
}

func parseBlock(block interpretedBlock) (Item, bool, error) {
	item := Item{}
	if len(block.SortKeys) > 0 {
		item.SortKey = block.SortKeys[0]
	}

	switch block.Mode {
	case "markup_block":
		item.Type = ItemMarkup
		item.Markup = block.Text

	case "table_block", "graph_block":
		item.Type = ItemTable
		if block.Mode == "graph_block" {
			item.Type = ItemGraph
			if block.Genpath != "" {
				item.GenpathSpecs = []string{block.Genpath}
			}
		} else {
			item.GenpathSpecs = block.Header
		}
		if block.BundlesSpec != nil {
			for _, info := range block.BundlesSpec.BundleInfos {
				uuid, err := ref.ParseBundleUUID(info.UUID)
				if err != nil {
					return Item{}, false, fmt.Errorf("worksheet: %s references %q: %w", block.Mode, info.UUID, err)
				}
				item.BundleUUIDs = append(item.BundleUUIDs, uuid)
			}
		}

	case "subworksheet_block":
		item.Type = ItemSubworksheet
		if block.SubworksheetSpec == nil {
			return Item{}, false, fmt.Errorf("worksheet: subworksheet_block without subworksheet_spec")
		}
		uuid, err := ref.ParseWorksheetUUID(block.SubworksheetSpec.UUID)
		if err != nil {
			return Item{}, false, fmt.Errorf("worksheet: subworksheet_block references %q: %w", block.SubworksheetSpec.UUID, err)
		}
		item.SubworksheetUUID = uuid

	default:
		return Item{}, false, nil
	}

	return item, true, nil
}
