// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// User is the flattened account record.
type User struct {
	ID          string `json:"id"`
	UserName    string `json:"user_name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Affiliation string `json:"affiliation"`
	Email       string `json:"email"`
}

// FetchUser retrieves the authenticated account.
func (c *Client) FetchUser(ctx context.Context) (*User, error) {
	return c.fetchUserFrom(ctx, "/user")
}

// FetchUserByName retrieves a public account profile.
func (c *Client) FetchUserByName(ctx context.Context, name string) (*User, error) {
	return c.fetchUserFrom(ctx, "/users/"+name)
}

func (c *Client) fetchUserFrom(ctx context.Context, path string) (*User, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var document Document
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("api: parsing user document: %w", err)
	}

	user := &User{ID: document.Data.ID}
	for name, target := range map[string]*string{
		"user_name":   &user.UserName,
		"first_name":  &user.FirstName,
		"last_name":   &user.LastName,
		"affiliation": &user.Affiliation,
		"email":       &user.Email,
	} {
		if _, err := document.Data.Attribute(name, target); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpdateUser patches the authenticated account's profile attributes.
func (c *Client) UpdateUser(ctx context.Context, id string, attributes map[string]any) error {
	requestBody := map[string]any{
		"data": map[string]any{
			"id":         id,
			"type":       "users",
			"attributes": attributes,
		},
	}
	_, err := c.doRequest(ctx, http.MethodPatch, "/user", nil, requestBody)
	return err
}
