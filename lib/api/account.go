// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/url"
)

// Login authenticates with username and password. On success the
// session cookie from the response is installed on the client, and
// every subsequent request carries it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" {
		return fmt.Errorf("api: username is required for login")
	}
	if password == "" {
		return fmt.Errorf("api: password is required for login")
	}

	form := url.Values{
		"username": {username},
		"password": {password},
	}
	response, _, err := c.doForm(ctx, "/account/login", form)
	if err != nil {
		return fmt.Errorf("api: login failed: %w", err)
	}

	for _, cookie := range response.Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			c.session = cookie.Value
			c.logger.Info("logged in", "username", username)
			return nil
		}
	}
	// The account endpoints answer bad credentials with a redirect
	// back to the login page rather than a 4xx, so a missing cookie is
	// the failure signal.
	return fmt.Errorf("api: login failed: server did not issue a session cookie")
}

// SignupRequest holds the account creation form.
type SignupRequest struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Affiliation string
}

// Signup creates a new account. The server sends a verification email;
// the account is not usable until verified.
func (c *Client) Signup(ctx context.Context, request SignupRequest) error {
	if request.Username == "" || request.Email == "" || request.Password == "" {
		return fmt.Errorf("api: username, email, and password are required for signup")
	}
	form := url.Values{
		"username":    {request.Username},
		"email":       {request.Email},
		"password":    {request.Password},
		"first_name":  {request.FirstName},
		"last_name":   {request.LastName},
		"affiliation": {request.Affiliation},
	}
	if _, _, err := c.doForm(ctx, "/account/signup", form); err != nil {
		return fmt.Errorf("api: signup failed: %w", err)
	}
	return nil
}

// ResetPassword requests a password reset email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("api: email is required for password reset")
	}
	form := url.Values{"email": {email}}
	if _, _, err := c.doForm(ctx, "/account/reset", form); err != nil {
		return fmt.Errorf("api: password reset failed: %w", err)
	}
	return nil
}
