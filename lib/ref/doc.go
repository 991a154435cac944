// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides typed identifiers for platform entities.
//
// Bundles and worksheets are addressed by 34-character hex UUIDs
// ("0x" + 32 lowercase hex digits). Users are addressed by name.
// The types in this package validate at parse time so that code
// further down the stack never handles malformed identifiers: a
// non-zero BundleUUID is always well-formed.
//
// All identifier types implement encoding.TextMarshaler and
// TextUnmarshaler so they round-trip through JSON without custom
// marshal code on the containing structs.
package ref
