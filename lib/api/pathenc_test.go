// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "testing"

func TestEncodeContentsPath(t *testing.T) {
	cases := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"root", "/", "/"},
		{"plain", "/stdout", "/stdout"},
		{"nested", "/results/model.json", "/results/model.json"},
		{"space", "/run 1/out", "/run%201/out"},
		{"percent", "/100%/done", "/100%25/done"},
		{"hash", "/a#b", "/a%23b"},
		{"question mark", "/a?b", "/a%3Fb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeContentsPath(tc.path)
			if got != tc.want {
				t.Errorf("EncodeContentsPath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestContentsPathRoundTrip(t *testing.T) {
	paths := []string{
		"",
		"/",
		"/stdout",
		"/results/run 1/métriques.csv",
		"/weird%segment/#frag?q",
		"no/leading/slash",
	}
	for _, path := range paths {
		decoded, err := DecodeContentsPath(EncodeContentsPath(path))
		if err != nil {
			t.Errorf("round trip of %q failed: %v", path, err)
			continue
		}
		if decoded != path {
			t.Errorf("round trip of %q = %q", path, decoded)
		}
	}
}

func TestDecodeContentsPathInvalid(t *testing.T) {
	if _, err := DecodeContentsPath("/bad%zz"); err == nil {
		t.Error("DecodeContentsPath accepted invalid escape")
	}
}
