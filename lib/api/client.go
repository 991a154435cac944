// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// sessionCookieName is the cookie the server issues on login. Its
// presence gates all authenticated affordances.
const sessionCookieName = "codalab_session"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// ServerURL is the base URL of the platform server
	// (e.g., "https://worksheets.example.org").
	ServerURL string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// SessionCookie is an existing codalab_session value. Empty means
	// unauthenticated; Login fills it in.
	SessionCookie string
}

// Client is the gateway to one platform server. It holds the base URL,
// the HTTP transport, and the session cookie, shared by every engine.
//
// Client is safe for concurrent use. The session cookie is set at
// construction or by Login before any engine starts — it is not
// synchronized for mid-flight replacement.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	session    string
}

// NewClient creates a Client for the given server.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("api: ServerURL is required")
	}

	// Validate the URL structure. The string form (trailing slash
	// stripped) is stored and request URLs are built by direct
	// concatenation — url.URL.String() re-encodes Path and would
	// double-encode the per-segment escaping in contents paths.
	if _, err := url.Parse(config.ServerURL); err != nil {
		return nil, fmt.Errorf("api: invalid ServerURL %q: %w", config.ServerURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.ServerURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		session:    config.SessionCookie,
	}, nil
}

// Authenticated reports whether the client carries a session cookie.
func (c *Client) Authenticated() bool { return c.session != "" }

// SessionCookie returns the current codalab_session value, or "" when
// unauthenticated.
func (c *Client) SessionCookie() string { return c.session }

// CloseIdleConnections drops idle HTTP connections from the transport
// pool. Call after a network disruption so the next request opens a
// fresh TCP connection instead of reusing a poisoned one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// doRequest performs a JSON request against the REST interface and
// returns the response body. path is relative to /rest. On 2xx the
// body is returned; on any other status the body is parsed into an
// *Error. query may be nil.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("api: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	contentType := ""
	if requestBody != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, contentType, bodyReader)
}

// doForm performs a form-encoded POST (the account endpoints). Returns
// the response alongside the body so callers can harvest Set-Cookie.
func (c *Client) doForm(ctx context.Context, path string, form url.Values) (*http.Response, []byte, error) {
	requestURL := c.baseURL + "/rest" + path
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("api: creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.attachSession(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, nil, fmt.Errorf("api: POST %s failed: %w", path, err)
	}
	defer response.Body.Close()

	body, err := readResponse(response.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("api: reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 400 {
		// The account endpoints answer successful form posts with a
		// redirect; 3xx is success here.
		return response, body, nil
	}
	return response, body, newError(response.StatusCode, body)
}

// do is the transport core shared by doRequest and the blob fetch.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, bodyReader io.Reader) ([]byte, error) {
	requestURL := c.baseURL + "/rest" + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	c.attachSession(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := readResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("api: reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}
	return nil, newError(response.StatusCode, responseBody)
}

// getJSON fetches path and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("api: parsing %s response: %w", path, err)
	}
	return nil
}

// postJSON posts requestBody to path and decodes the response into v.
// v may be nil when the caller only cares about success.
func (c *Client) postJSON(ctx context.Context, path string, requestBody, v any) error {
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, requestBody)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("api: parsing %s response: %w", path, err)
	}
	return nil
}

func (c *Client) attachSession(request *http.Request) {
	if c.session != "" {
		request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.session})
	}
}
