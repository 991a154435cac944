// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package terminal executes worksheet CLI commands and interprets the
// server's responses for the embedded terminal.
//
// The engine is transport and interpretation only: it turns a command
// response into transcript lines (output, exceptions styled as errors,
// ref tokens rewritten into hyperlinks) and dispatches UI action
// directives through a caller-supplied ActionDispatcher. Focus and
// sizing behavior of the on-screen terminal pane lives in the view
// layer, not here.
//
// Executed commands are appended to a per-user SQLite history, which
// also feeds autocompletion: server completions and history prefix
// matches are merged and ranked with fzf's fuzzy matcher.
package terminal
