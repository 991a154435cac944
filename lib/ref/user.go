// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"regexp"
)

// namePattern is the server's account and worksheet name rule: a
// letter or underscore followed by word characters, dots, or dashes.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidName reports whether raw satisfies the platform name rule.
// Shared by user names and worksheet names.
func ValidName(raw string) bool {
	return namePattern.MatchString(raw)
}

// UserName identifies a platform account by name.
type UserName struct {
	raw string
}

// ParseUserName validates raw and returns a UserName.
func ParseUserName(raw string) (UserName, error) {
	if !ValidName(raw) {
		return UserName{}, fmt.Errorf("ref: invalid user name %q", raw)
	}
	return UserName{raw: raw}, nil
}

// String returns the account name.
func (n UserName) String() string { return n.raw }

// IsZero reports whether the name is the zero value.
func (n UserName) IsZero() bool { return n.raw == "" }

// PageURL returns the host-relative user page route.
func (n UserName) PageURL() string { return "/users/" + n.raw }

// MarshalText implements encoding.TextMarshaler.
func (n UserName) MarshalText() ([]byte, error) {
	if n.IsZero() {
		return nil, fmt.Errorf("ref: cannot marshal zero user name")
	}
	return []byte(n.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *UserName) UnmarshalText(data []byte) error {
	parsed, err := ParseUserName(string(data))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
