// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"testing"

	"github.com/bundlelab/bundlelab/lib/ref"
)

func mustBundleUUID(t *testing.T, raw string) ref.BundleUUID {
	t.Helper()
	uuid, err := ref.ParseBundleUUID(raw)
	if err != nil {
		t.Fatalf("parsing bundle UUID: %v", err)
	}
	return uuid
}

func mustWorksheetUUID(t *testing.T, raw string) ref.WorksheetUUID {
	t.Helper()
	uuid, err := ref.ParseWorksheetUUID(raw)
	if err != nil {
		t.Fatalf("parsing worksheet UUID: %v", err)
	}
	return uuid
}
