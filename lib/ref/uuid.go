// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// uuidLength is the full length of a platform UUID: "0x" plus 32 hex
// digits.
const uuidLength = 34

// validUUID reports whether raw has the canonical UUID shape. The hex
// digits must be lowercase — server-issued UUIDs always are, and
// accepting mixed case would break map lookups keyed by UUID string.
func validUUID(raw string) bool {
	if len(raw) != uuidLength || !strings.HasPrefix(raw, "0x") {
		return false
	}
	for _, c := range raw[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// BundleUUID identifies a bundle. The zero value is invalid and
// reports IsZero.
type BundleUUID struct {
	raw string
}

// ParseBundleUUID validates raw and returns a BundleUUID.
func ParseBundleUUID(raw string) (BundleUUID, error) {
	if !validUUID(raw) {
		return BundleUUID{}, fmt.Errorf("ref: invalid bundle UUID %q (want 0x + 32 lowercase hex)", raw)
	}
	return BundleUUID{raw: raw}, nil
}

// String returns the canonical "0x..." form.
func (u BundleUUID) String() string { return u.raw }

// IsZero reports whether the UUID is the zero value.
func (u BundleUUID) IsZero() bool { return u.raw == "" }

// PageURL returns the host-relative bundle page route.
func (u BundleUUID) PageURL() string { return "/bundles/" + u.raw }

// MarshalText implements encoding.TextMarshaler.
func (u BundleUUID) MarshalText() ([]byte, error) {
	if u.IsZero() {
		return nil, fmt.Errorf("ref: cannot marshal zero bundle UUID")
	}
	return []byte(u.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *BundleUUID) UnmarshalText(data []byte) error {
	parsed, err := ParseBundleUUID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler. Unlike the text
// form it tolerates the zero value, so structs embedding a UUID can
// round-trip through binary codecs without special-casing unset IDs.
func (u BundleUUID) MarshalBinary() ([]byte, error) {
	return []byte(u.raw), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (u *BundleUUID) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		*u = BundleUUID{}
		return nil
	}
	parsed, err := ParseBundleUUID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// WorksheetUUID identifies a worksheet. Same wire shape as BundleUUID;
// a distinct type prevents cross-assignment between the two ID spaces.
type WorksheetUUID struct {
	raw string
}

// ParseWorksheetUUID validates raw and returns a WorksheetUUID.
func ParseWorksheetUUID(raw string) (WorksheetUUID, error) {
	if !validUUID(raw) {
		return WorksheetUUID{}, fmt.Errorf("ref: invalid worksheet UUID %q (want 0x + 32 lowercase hex)", raw)
	}
	return WorksheetUUID{raw: raw}, nil
}

// String returns the canonical "0x..." form.
func (u WorksheetUUID) String() string { return u.raw }

// IsZero reports whether the UUID is the zero value.
func (u WorksheetUUID) IsZero() bool { return u.raw == "" }

// PageURL returns the host-relative worksheet page route.
func (u WorksheetUUID) PageURL() string { return "/worksheets/" + u.raw }

// MarshalText implements encoding.TextMarshaler.
func (u WorksheetUUID) MarshalText() ([]byte, error) {
	if u.IsZero() {
		return nil, fmt.Errorf("ref: cannot marshal zero worksheet UUID")
	}
	return []byte(u.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *WorksheetUUID) UnmarshalText(data []byte) error {
	parsed, err := ParseWorksheetUUID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler. Zero values are
// allowed, matching BundleUUID.
func (u WorksheetUUID) MarshalBinary() ([]byte, error) {
	return []byte(u.raw), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (u *WorksheetUUID) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		*u = WorksheetUUID{}
		return nil
	}
	parsed, err := ParseWorksheetUUID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
