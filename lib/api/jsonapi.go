// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"fmt"
)

// Document is a JSON:API response. The server returns bundle and
// worksheet metadata in this shape; NormalizeBundleDocument in the
// bundle package flattens it for display.
type Document struct {
	// Data is the primary resource. Endpoints in use always return a
	// single resource, never an array.
	Data Resource `json:"data"`

	// Included carries side-loaded resources referenced from Data's
	// relationships (owner, group permissions, host worksheets).
	Included []Resource `json:"included"`

	// Meta is document-level metadata.
	Meta map[string]json.RawMessage `json:"meta"`
}

// Resource is one JSON:API resource object.
type Resource struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"type"`
	Attributes    map[string]json.RawMessage `json:"attributes"`
	Relationships map[string]Relationship    `json:"relationships"`
	Meta          map[string]json.RawMessage `json:"meta"`
}

// Relationship links a resource to one or many others.
type Relationship struct {
	Data RelationshipData `json:"data"`
}

// RelationshipData accepts both to-one ({"id":..}) and to-many
// ([{"id":..}, ..]) linkage shapes.
type RelationshipData struct {
	Identifiers []ResourceIdentifier
}

// ResourceIdentifier names a linked resource.
type ResourceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// UnmarshalJSON implements json.Unmarshaler, normalizing to-one
// linkage into a one-element slice. null linkage becomes empty.
func (d *RelationshipData) UnmarshalJSON(data []byte) error {
	d.Identifiers = nil
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &d.Identifiers)
	}
	var single ResourceIdentifier
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	d.Identifiers = []ResourceIdentifier{single}
	return nil
}

// Resolve returns the included resources linked through the named
// relationship, in linkage order. Identifiers with no matching
// included resource are skipped — the server omits resources the
// caller lacks permission to see.
func (doc *Document) Resolve(relationship string) []Resource {
	linkage, ok := doc.Data.Relationships[relationship]
	if !ok {
		return nil
	}
	var resolved []Resource
	for _, identifier := range linkage.Data.Identifiers {
		for _, included := range doc.Included {
			if included.ID == identifier.ID && included.Type == identifier.Type {
				resolved = append(resolved, included)
				break
			}
		}
	}
	return resolved
}

// Attribute decodes the named attribute of a resource into v. Missing
// attributes leave v untouched and return false.
func (r *Resource) Attribute(name string, v any) (bool, error) {
	raw, ok := r.Attributes[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("api: decoding attribute %q: %w", name, err)
	}
	return true, nil
}

// MetaValue decodes the named entry of a resource's meta section into
// v. Missing entries leave v untouched and return false.
func (r *Resource) MetaValue(name string, v any) (bool, error) {
	raw, ok := r.Meta[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("api: decoding meta %q: %w", name, err)
	}
	return true, nil
}
