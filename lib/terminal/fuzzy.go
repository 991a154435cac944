// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	// Fixed scoring scheme; Init only rejects unknown scheme names.
	algo.Init("default")
}

// newSlab allocates the scratch buffers fzf's matcher reuses across
// calls. One slab per ranking pass; slabs are not goroutine-safe.
func newSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// fuzzyScore returns the fzf match score of pattern against text,
// case-insensitively. Zero means no match. pattern must already be
// lowercased.
func fuzzyScore(text string, pattern []rune, slab *util.Slab) int {
	if len(pattern) == 0 {
		return 0
	}
	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
	if result.Score < 0 {
		return 0
	}
	return result.Score
}
