// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the server.
type Error struct {
	// StatusCode is the HTTP status of the failed request.
	StatusCode int

	// Message is the human-readable failure description. Taken from
	// the first error detail in a JSON error body when present,
	// otherwise the HTTP status text.
	Message string

	// Body is the raw response text, kept for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("api: server returned %d: %s", e.StatusCode, e.Message)
}

// newError builds an *Error from a failed response body. The server
// reports failures as {"errors": [{"detail": ...}]}; anything else
// falls back to the status text with the raw body attached.
func newError(statusCode int, body []byte) *Error {
	apiError := &Error{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
		Body:       string(body),
	}

	var document struct {
		Errors []struct {
			Detail string `json:"detail"`
			Title  string `json:"title"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &document); err == nil && len(document.Errors) > 0 {
		if detail := document.Errors[0].Detail; detail != "" {
			apiError.Message = detail
		} else if title := document.Errors[0].Title; title != "" {
			apiError.Message = title
		}
	}
	return apiError
}

// IsNotFound reports whether err is a 404 from the server. The detail
// engine treats 404 on contents as "not yet available" rather than a
// failure, so this check sits on its hot path.
func IsNotFound(err error) bool {
	var apiError *Error
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsPermissionDenied reports whether err is a 401 or 403.
func IsPermissionDenied(err error) bool {
	var apiError *Error
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden
}
