// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/ref"
)

// Span is a run of transcript text, optionally carrying a hyperlink
// target (host-relative URL).
type Span struct {
	Text string
	URL  string
}

// Line is one transcript line. Error lines render in the error style.
type Line struct {
	Spans   []Span
	IsError bool
}

// Text returns the line's plain text with link markup dropped.
func (l Line) Text() string {
	var builder strings.Builder
	for _, span := range l.Spans {
		builder.WriteString(span.Text)
	}
	return builder.String()
}

func errorLine(text string) Line {
	return Line{Spans: []Span{{Text: text}}, IsError: true}
}

// linkify splits a line of command output into spans, rewriting each
// occurrence of a ref token into a hyperlink. Refs with an unknown
// type or a malformed UUID are logged and left as plain text. Longer
// tokens are applied first so a token that contains another is not
// split by it.
func linkify(text string, refs map[string]api.CommandRef, logger *slog.Logger) []Span {
	spans := []Span{{Text: text}}
	if len(refs) == 0 {
		return spans
	}

	tokens := make([]string, 0, len(refs))
	for token := range refs {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})

	for _, token := range tokens {
		url := refURL(token, refs[token], logger)
		if url == "" {
			continue
		}
		spans = splitSpans(spans, token, url)
	}
	return spans
}

// refURL resolves one ref to its page URL, "" when unresolvable.
func refURL(token string, commandRef api.CommandRef, logger *slog.Logger) string {
	switch commandRef.Type {
	case "bundle":
		uuid, err := ref.ParseBundleUUID(commandRef.UUID)
		if err != nil {
			logger.Warn("command ref has malformed bundle UUID",
				"token", token, "uuid", commandRef.UUID)
			return ""
		}
		return uuid.PageURL()
	case "worksheet":
		uuid, err := ref.ParseWorksheetUUID(commandRef.UUID)
		if err != nil {
			logger.Warn("command ref has malformed worksheet UUID",
				"token", token, "uuid", commandRef.UUID)
			return ""
		}
		return uuid.PageURL()
	default:
		logger.Warn("command ref has unknown type",
			"token", token, "type", commandRef.Type)
		return ""
	}
}

// splitSpans rewrites every occurrence of token within plain (not yet
// linked) spans into a linked span.
func splitSpans(spans []Span, token, url string) []Span {
	var out []Span
	for _, span := range spans {
		if span.URL != "" {
			out = append(out, span)
			continue
		}
		rest := span.Text
		for {
			index := strings.Index(rest, token)
			if index < 0 {
				if rest != "" {
					out = append(out, Span{Text: rest})
				}
				break
			}
			if index > 0 {
				out = append(out, Span{Text: rest[:index]})
			}
			out = append(out, Span{Text: token, URL: url})
			rest = rest[index+len(token):]
		}
	}
	return out
}
