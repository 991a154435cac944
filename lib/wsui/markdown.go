// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package wsui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// wrapBreakpoints are the characters ansi.Wrap may break a line at.
const wrapBreakpoints = " ,.;-+|"

// markupParser is initialized once and reused. Parsing creates
// per-call state, so the shared goldmark.Markdown is safe across
// worksheet blocks.
var (
	markupParser     goldmark.Markdown
	markupParserOnce sync.Once
)

func getMarkupParser() goldmark.Markdown {
	markupParserOnce.Do(func() {
		markupParser = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markupParser
}

// RenderMarkup renders a worksheet markup block as styled terminal
// text wrapped to width. Soft line breaks inside a paragraph become
// spaces so hard-wrapped source reflows at the terminal's width.
func RenderMarkup(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkupParser().Parser().Parse(text.NewReader(source))

	// The output always targets a terminal, so pin ANSI256 instead of
	// auto-detecting: detection sees no TTY under tests and in pipes
	// and would strip all color. SetColorProfile is needed as well
	// because lipgloss re-detects unless the profile is explicit.
	styler := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	styler.SetColorProfile(termenv.ANSI256)

	writer := &markupWriter{
		source: source,
		theme:  theme,
		width:  width,
		styler: styler,
	}
	ast.Walk(document, writer.walk)
	return strings.TrimRight(writer.out.String(), "\n")
}

// markupWriter walks the goldmark AST directly instead of using
// goldmark's renderer interface: paragraph inline content has to
// accumulate and word-wrap as a unit when the paragraph closes, which
// the streaming NodeRendererFunc interface doesn't express.
type markupWriter struct {
	source []byte
	theme  Theme
	width  int
	styler *lipgloss.Renderer

	out    strings.Builder
	inline strings.Builder

	// indent is the left margin for the current block nesting (list
	// items, blockquotes). bullet, when set, replaces indent on the
	// next emitted line only.
	indent string
	bullet string

	bold   int
	italic int
	strike int

	lists []listLevel

	trailingNewlines int
}

type listLevel struct {
	ordered bool
	number  int
	tight   bool
}

func (w *markupWriter) style() lipgloss.Style {
	return w.styler.NewStyle()
}

func (w *markupWriter) contentWidth() int {
	width := w.width - ansi.StringWidth(w.indent)
	if width < 10 {
		width = 10
	}
	return width
}

func (w *markupWriter) write(s string) {
	if s == "" {
		return
	}
	w.out.WriteString(s)
	trailing := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		trailing++
	}
	if trailing == len(s) {
		w.trailingNewlines += trailing
	} else {
		w.trailingNewlines = trailing
	}
}

func (w *markupWriter) newline() {
	if w.trailingNewlines < 1 {
		w.write("\n")
	}
}

func (w *markupWriter) blankLine() {
	for w.trailingNewlines < 2 {
		w.write("\n")
	}
}

// margin returns the indent for the next line, consuming the pending
// bullet if one is set.
func (w *markupWriter) margin() string {
	if w.bullet != "" {
		bullet := w.bullet
		w.bullet = ""
		return bullet
	}
	return w.indent
}

// emitBlock writes already-wrapped content line by line with the
// current margins.
func (w *markupWriter) emitBlock(content string) {
	for _, line := range strings.Split(content, "\n") {
		w.write(w.margin() + line)
		w.newline()
	}
}

// flushParagraph wraps and emits the accumulated inline content.
func (w *markupWriter) flushParagraph() {
	content := w.inline.String()
	w.inline.Reset()
	if content == "" {
		return
	}
	w.emitBlock(ansi.Wrap(content, w.contentWidth(), wrapBreakpoints))
	if !w.inTightList() {
		w.blankLine()
	}
}

func (w *markupWriter) inTightList() bool {
	return len(w.lists) > 0 && w.lists[len(w.lists)-1].tight
}

func (w *markupWriter) styledText(content string) string {
	style := w.style().Foreground(w.theme.NormalText)
	if w.bold > 0 {
		style = style.Bold(true)
	}
	if w.italic > 0 {
		style = style.Italic(true)
	}
	if w.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// highlightCode syntax-highlights fenced code via chroma, falling
// back to faint plain text when the language is unknown.
func (w *markupWriter) highlightCode(code, language string) string {
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			return buffer.String()
		}
	}
	return w.style().Foreground(w.theme.FaintText).Render(code)
}

func (w *markupWriter) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindDocument:

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.inline.Reset()
		} else {
			w.flushParagraph()
		}

	case ast.KindHeading:
		if entering {
			w.inline.Reset()
		} else {
			w.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			w.renderCode(blockText(block, w.source), string(block.Language(w.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			w.renderCode(blockText(node, w.source), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			w.indent += "│ "
		} else {
			w.indent = strings.TrimSuffix(w.indent, "│ ")
			w.blankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			number := 0
			if list.IsOrdered() {
				number = list.Start
			}
			w.lists = append(w.lists, listLevel{
				ordered: list.IsOrdered(),
				number:  number,
				tight:   list.IsTight,
			})
		} else {
			w.lists = w.lists[:len(w.lists)-1]
			if !w.inTightList() {
				w.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			w.enterListItem()
		} else {
			w.leaveListItem()
		}

	case ast.KindThematicBreak:
		if entering {
			rule := strings.Repeat("─", w.contentWidth())
			w.blankLine()
			w.emitBlock(w.style().Foreground(w.theme.BorderColor).Render(rule))
			w.blankLine()
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			w.inline.WriteString(w.styledText(string(textNode.Segment.Value(w.source))))
			if textNode.SoftLineBreak() {
				w.inline.WriteString(" ")
			} else if textNode.HardLineBreak() {
				w.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			w.inline.WriteString(w.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			w.bold += delta
		} else {
			w.italic += delta
		}

	case extast.KindStrikethrough:
		if entering {
			w.strike++
		} else {
			w.strike--
		}

	case ast.KindCodeSpan:
		if entering {
			code := string(node.Text(w.source))
			w.inline.WriteString(w.style().Foreground(w.theme.StateActive).Render(code))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			w.renderLink(string(node.Text(w.source)), string(link.Destination))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(w.source))
			w.renderLink(url, url)
		}

	case ast.KindImage:
		if entering {
			// No inline images on a terminal; show the alt text as a link.
			image := node.(*ast.Image)
			w.renderLink(string(node.Text(w.source)), string(image.Destination))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTable:
		if entering {
			w.renderTable(node)
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				check := w.style().Foreground(w.theme.StateReady)
				w.inline.WriteString(check.Render("[x]") + " ")
			} else {
				w.inline.WriteString(w.styledText("[ ] "))
			}
		}
	}

	return ast.WalkContinue, nil
}

func (w *markupWriter) leaveHeading(heading *ast.Heading) {
	// Headings carry their own style; drop the NormalText styling the
	// text handler already applied.
	content := ansi.Strip(w.inline.String())
	w.inline.Reset()
	if content == "" {
		return
	}

	style := w.style().Bold(true).Foreground(w.theme.NormalText)
	if heading.Level <= 2 {
		style = style.Foreground(w.theme.HeaderForeground)
		content = strings.ToUpper(content)
	}

	w.blankLine()
	w.emitBlock(ansi.Wrap(style.Render(content), w.contentWidth(), wrapBreakpoints))
	w.blankLine()
}

func (w *markupWriter) renderCode(code, language string) {
	w.blankLine()
	highlighted := strings.TrimRight(w.highlightCode(code, language), "\n")
	w.emitBlock(highlighted)
	w.blankLine()
}

func (w *markupWriter) enterListItem() {
	if len(w.lists) == 0 {
		return
	}
	top := &w.lists[len(w.lists)-1]

	bullet := "• "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.number)
		top.number++
	}

	// The bullet replaces the indent on the item's first line;
	// continuation lines get matching blank space.
	w.bullet = w.indent + bullet
	w.indent += strings.Repeat(" ", len([]rune(bullet)))
}

func (w *markupWriter) leaveListItem() {
	if len(w.lists) == 0 {
		return
	}
	top := w.lists[len(w.lists)-1]
	width := 2
	if top.ordered {
		width = len(fmt.Sprintf("%d. ", top.number-1))
	}
	w.indent = w.indent[:len(w.indent)-width]
	w.bullet = ""
}

func (w *markupWriter) renderLink(label, destination string) {
	style := w.style().Foreground(w.theme.LinkForeground).Underline(true)
	w.inline.WriteString(style.Render(label))
	if destination != "" && destination != label {
		faint := w.style().Foreground(w.theme.FaintText)
		w.inline.WriteString(faint.Render(" (" + destination + ")"))
	}
}

// renderTable renders a GFM table as a plain aligned grid. Column
// widths come from the widest cell; the header row is bold with a
// rule underneath.
func (w *markupWriter) renderTable(table ast.Node) {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, string(cell.Text(w.source)))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if width := ansi.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}

	w.blankLine()
	for rowIndex, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			padded := cell + strings.Repeat(" ", widths[i]-ansi.StringWidth(cell))
			if rowIndex == 0 {
				padded = w.style().Bold(true).Foreground(w.theme.HeaderForeground).Render(padded)
			} else {
				padded = w.styledText(padded)
			}
			line.WriteString(padded)
			if i < len(row)-1 {
				line.WriteString("  ")
			}
		}
		w.emitBlock(strings.TrimRight(line.String(), " "))
		if rowIndex == 0 {
			total := 0
			for _, width := range widths {
				total += width + 2
			}
			total -= 2
			rule := strings.Repeat("─", total)
			w.emitBlock(w.style().Foreground(w.theme.BorderColor).Render(rule))
		}
	}
	w.blankLine()
}

func blockText(node ast.Node, source []byte) string {
	var code strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	return code.String()
}
