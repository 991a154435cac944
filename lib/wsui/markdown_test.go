// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// plain renders markup and strips the ANSI styling, leaving layout.
func plain(t *testing.T, input string, width int) string {
	t.Helper()
	return ansi.Strip(RenderMarkup(input, DefaultTheme, width))
}

func TestRenderMarkupEmpty(t *testing.T) {
	if got := RenderMarkup("", DefaultTheme, 80); got != "" {
		t.Errorf("empty input rendered %q", got)
	}
	if got := RenderMarkup("  \n\t\n", DefaultTheme, 80); got != "" {
		t.Errorf("blank input rendered %q", got)
	}
}

func TestRenderMarkupReflowsSoftBreaks(t *testing.T) {
	// Hard-wrapped source text must reflow as one paragraph.
	input := "This paragraph was wrapped\nin the source file\nat an arbitrary column."
	got := plain(t, input, 200)
	want := "This paragraph was wrapped in the source file at an arbitrary column."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderMarkupWrapsToWidth(t *testing.T) {
	input := strings.Repeat("word ", 40)
	got := plain(t, input, 30)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 30 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
	if !strings.Contains(got, "\n") {
		t.Error("long paragraph did not wrap")
	}
}

func TestRenderMarkupHeadings(t *testing.T) {
	got := plain(t, "# Results\n\nbody text", 80)
	if !strings.Contains(got, "RESULTS") {
		t.Errorf("level-1 heading not uppercased: %q", got)
	}
	got = plain(t, "### details\n\nbody", 80)
	if !strings.Contains(got, "details") || strings.Contains(got, "DETAILS") {
		t.Errorf("level-3 heading should keep its case: %q", got)
	}
}

func TestRenderMarkupLists(t *testing.T) {
	got := plain(t, "- first\n- second\n", 80)
	if !strings.Contains(got, "• first") || !strings.Contains(got, "• second") {
		t.Errorf("unordered list = %q", got)
	}

	got = plain(t, "1. alpha\n2. beta\n", 80)
	if !strings.Contains(got, "1. alpha") || !strings.Contains(got, "2. beta") {
		t.Errorf("ordered list = %q", got)
	}
}

func TestRenderMarkupNestedListIndents(t *testing.T) {
	got := plain(t, "- outer\n  - inner\n", 80)
	if !strings.Contains(got, "• outer") {
		t.Errorf("outer item missing: %q", got)
	}
	if !strings.Contains(got, "  • inner") {
		t.Errorf("inner item not indented: %q", got)
	}
}

func TestRenderMarkupFencedCode(t *testing.T) {
	input := "```python\nprint('hi')\n```\n"
	got := plain(t, input, 80)
	if !strings.Contains(got, "print('hi')") {
		t.Errorf("code body missing: %q", got)
	}
	if strings.Contains(got, "```") {
		t.Errorf("fence markers leaked: %q", got)
	}
}

func TestRenderMarkupCodeIsNotReflowed(t *testing.T) {
	// Code lines keep their breaks even when narrower than the wrap
	// width would merge them.
	input := "```\nline one\nline two\n```\n"
	got := plain(t, input, 200)
	if !strings.Contains(got, "line one\nline two") {
		t.Errorf("code lines merged: %q", got)
	}
}

func TestRenderMarkupBlockquote(t *testing.T) {
	got := plain(t, "> quoted text\n", 80)
	if !strings.Contains(got, "│ quoted text") {
		t.Errorf("blockquote prefix missing: %q", got)
	}
}

func TestRenderMarkupLinkShowsDestination(t *testing.T) {
	got := plain(t, "[docs](https://example.org/docs)\n", 120)
	if !strings.Contains(got, "docs") || !strings.Contains(got, "(https://example.org/docs)") {
		t.Errorf("link = %q", got)
	}
}

func TestRenderMarkupTableAligned(t *testing.T) {
	input := "| name | state |\n| --- | --- |\n| run-1 | ready |\n| experiment-2 | failed |\n"
	got := plain(t, input, 120)
	if !strings.Contains(got, "name") || !strings.Contains(got, "experiment-2") {
		t.Errorf("table content missing: %q", got)
	}
	// Cells in one column start at the same offset.
	lines := strings.Split(got, "\n")
	var stateColumn []int
	for _, line := range lines {
		if index := strings.Index(line, "ready"); index >= 0 {
			stateColumn = append(stateColumn, index)
		}
		if index := strings.Index(line, "failed"); index >= 0 {
			stateColumn = append(stateColumn, index)
		}
	}
	if len(stateColumn) != 2 || stateColumn[0] != stateColumn[1] {
		t.Errorf("state column misaligned: %v in %q", stateColumn, got)
	}
}

func TestRenderMarkupEmphasisSurvivesStripping(t *testing.T) {
	got := plain(t, "plain **bold** *italic* ~~gone~~\n", 120)
	want := "plain bold italic gone"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
