// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/ref"
)

// Metadata is a bundle's typed metadata map, keyed by field name.
// Values keep their JSON encoding; typed accessors decode on demand.
type Metadata map[string]json.RawMessage

// String returns the named field as a string. Non-string and missing
// fields report false.
func (m Metadata) String(field string) (string, bool) {
	raw, ok := m[field]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

// Float returns the named field as a float64.
func (m Metadata) Float(field string) (float64, bool) {
	raw, ok := m[field]
	if !ok {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return value, true
}

// Duration returns the named field interpreted as seconds.
func (m Metadata) Duration(field string) (time.Duration, bool) {
	seconds, ok := m.Float(field)
	if !ok {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// Owner is the bundle owner reference.
type Owner struct {
	ID       string
	UserName string
}

// GroupPermission is one group's access entry on a bundle.
type GroupPermission struct {
	GroupName  string
	Permission int
}

// HostWorksheet back-references a worksheet that displays the bundle.
type HostWorksheet struct {
	UUID ref.WorksheetUUID
	Name string
}

// Info is the flattened form of a bundle metadata document: the
// JSON:API structure collapsed into one object, with the display-
// metadata annotations attached.
type Info struct {
	UUID       ref.BundleUUID
	Kind       Kind
	State      State
	Command    string
	Metadata   Metadata
	Owner      Owner
	Permission int

	GroupPermissions []GroupPermission
	HostWorksheets   []HostWorksheet

	// StateDetails is the server's human-readable progress line
	// (e.g. a download percentage while uploading).
	StateDetails string

	// EditableMetadataFields is the server-flagged subset of metadata
	// keys the caller may modify.
	EditableMetadataFields []string

	// MetadataDescriptions maps metadata keys to display descriptions.
	MetadataDescriptions map[string]string

	// MetadataTypes maps metadata keys to server-side type names
	// (basestring, int, float, duration, bool, ...).
	MetadataTypes map[string]string
}

// IsPrivate reports whether the server withheld the bundle's content:
// the caller can see that the bundle exists and nothing else.
func (info *Info) IsPrivate() bool { return info.Kind == KindPrivate }

// NormalizeBundleDocument flattens the JSON:API document returned by
// the bundle metadata endpoint.
func NormalizeBundleDocument(document *api.Document) (*Info, error) {
	uuid, err := ref.ParseBundleUUID(document.Data.ID)
	if err != nil {
		return nil, fmt.Errorf("bundle: document id: %w", err)
	}
	info := &Info{UUID: uuid}

	var kind, state string
	if _, err := document.Data.Attribute("bundle_type", &kind); err != nil {
		return nil, err
	}
	if _, err := document.Data.Attribute("state", &state); err != nil {
		return nil, err
	}
	info.Kind = Kind(kind)
	info.State = State(state)

	if _, err := document.Data.Attribute("command", &info.Command); err != nil {
		return nil, err
	}
	if _, err := document.Data.Attribute("metadata", &info.Metadata); err != nil {
		return nil, err
	}
	if _, err := document.Data.Attribute("state_details", &info.StateDetails); err != nil {
		return nil, err
	}
	if _, err := document.Data.Attribute("permission", &info.Permission); err != nil {
		return nil, err
	}

	if owners := document.Resolve("owner"); len(owners) > 0 {
		info.Owner.ID = owners[0].ID
		if _, err := owners[0].Attribute("user_name", &info.Owner.UserName); err != nil {
			return nil, err
		}
	}

	for _, resource := range document.Resolve("group_permissions") {
		var entry GroupPermission
		if _, err := resource.Attribute("group_name", &entry.GroupName); err != nil {
			return nil, err
		}
		if _, err := resource.Attribute("permission", &entry.Permission); err != nil {
			return nil, err
		}
		info.GroupPermissions = append(info.GroupPermissions, entry)
	}

	for _, resource := range document.Resolve("host_worksheets") {
		sheetUUID, err := ref.ParseWorksheetUUID(resource.ID)
		if err != nil {
			// Host worksheet references are advisory; a malformed one
			// should not fail the whole bundle load.
			continue
		}
		host := HostWorksheet{UUID: sheetUUID}
		if _, err := resource.Attribute("name", &host.Name); err != nil {
			return nil, err
		}
		info.HostWorksheets = append(info.HostWorksheets, host)
	}

	if _, err := document.Data.MetaValue("editable_metadata_keys", &info.EditableMetadataFields); err != nil {
		return nil, err
	}
	if _, err := document.Data.MetaValue("metadata_descriptions", &info.MetadataDescriptions); err != nil {
		return nil, err
	}
	if _, err := document.Data.MetaValue("metadata_type", &info.MetadataTypes); err != nil {
		return nil, err
	}

	return info, nil
}
