// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/url"
	"strings"
)

// EncodeContentsPath percent-encodes a path inside a bundle for use in
// a contents URL. Each segment is escaped individually; the `/`
// separators are preserved. Segments must not themselves contain `/`
// (the split makes that structurally impossible), which gives the
// round-trip law DecodeContentsPath(EncodeContentsPath(p)) == p.
func EncodeContentsPath(path string) string {
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	encoded := make([]string, len(segments))
	for i, segment := range segments {
		// PathEscape, not QueryEscape: spaces must become %20, and a
		// literal "+" must survive as itself.
		encoded[i] = url.PathEscape(segment)
	}
	return strings.Join(encoded, "/")
}

// DecodeContentsPath reverses EncodeContentsPath.
func DecodeContentsPath(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	segments := strings.Split(encoded, "/")
	decoded := make([]string, len(segments))
	for i, segment := range segments {
		value, err := url.PathUnescape(segment)
		if err != nil {
			return "", fmt.Errorf("api: invalid contents path segment %q: %w", segment, err)
		}
		decoded[i] = value
	}
	return strings.Join(decoded, "/"), nil
}
