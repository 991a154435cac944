// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NodeType tags a contents node.
type NodeType string

const (
	// NodeFile is a regular file with a size.
	NodeFile NodeType = "file"
	// NodeLink is a symlink with a target.
	NodeLink NodeType = "link"
	// NodeDirectory is a directory with entries.
	NodeDirectory NodeType = "directory"
)

// ContentsNode is one node of a bundle's contents tree as reported by
// the contents/info endpoint.
type ContentsNode struct {
	Type NodeType `json:"type"`

	// Size in bytes. Meaningful for files.
	Size int64 `json:"size"`

	// Link is the symlink target. Meaningful for links.
	Link string `json:"link"`

	// Contents are the directory entries, present at depth >= 1.
	Contents []Entry `json:"contents"`
}

// Entry is one row of a directory listing.
type Entry struct {
	Name string   `json:"name"`
	Type NodeType `json:"type"`
	Size int64    `json:"size"`
	Link string   `json:"link"`
}

// ParseContentsNode decodes the raw "data" member of a contents/info
// response.
func ParseContentsNode(raw json.RawMessage) (*ContentsNode, error) {
	var node ContentsNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("bundle: parsing contents node: %w", err)
	}
	switch node.Type {
	case NodeFile, NodeLink, NodeDirectory:
	default:
		return nil, fmt.Errorf("bundle: unknown contents node type %q", node.Type)
	}
	return &node, nil
}

// SortEntries orders a directory listing for display: directories
// before files and links, then case-sensitive ascending by name. The
// sort is stable so equal keys keep server order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		iDir := entries[i].Type == NodeDirectory
		jDir := entries[j].Type == NodeDirectory
		if iDir != jDir {
			return iDir
		}
		return entries[i].Name < entries[j].Name
	})
}

// FindEntry returns the named entry of a directory node, if present.
func (n *ContentsNode) FindEntry(name string) (Entry, bool) {
	for _, entry := range n.Contents {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}
