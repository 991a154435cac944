// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{ServerURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{ServerURL: "https://worksheets.example.org/"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client.Authenticated() {
			t.Error("client with no cookie reports Authenticated")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{ServerURL: "://bad"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestErrorNormalization(t *testing.T) {
	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(map[string]any{
				"errors": []map[string]any{{"detail": "you are not the owner"}},
			})
		}))
		defer server.Close()

		client := testClient(t, server)
		_, err := client.doRequest(context.Background(), http.MethodGet, "/user", nil, nil)
		if err == nil {
			t.Fatal("expected error for 403")
		}
		apiError, ok := err.(*Error)
		if !ok {
			t.Fatalf("error is %T, want *Error", err)
		}
		if apiError.StatusCode != http.StatusForbidden {
			t.Errorf("StatusCode = %d, want 403", apiError.StatusCode)
		}
		if apiError.Message != "you are not the owner" {
			t.Errorf("Message = %q", apiError.Message)
		}
		if apiError.Body == "" {
			t.Error("raw body not preserved")
		}
	})

	t.Run("non-json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadGateway)
			writer.Write([]byte("upstream exploded"))
		}))
		defer server.Close()

		client := testClient(t, server)
		_, err := client.doRequest(context.Background(), http.MethodGet, "/user", nil, nil)
		apiError, ok := err.(*Error)
		if !ok {
			t.Fatalf("error is %T, want *Error", err)
		}
		if apiError.Message != http.StatusText(http.StatusBadGateway) {
			t.Errorf("Message = %q, want status text fallback", apiError.Message)
		}
		if apiError.Body != "upstream exploded" {
			t.Errorf("Body = %q", apiError.Body)
		}
	})

	t.Run("404 classification", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := testClient(t, server)
		_, err := client.doRequest(context.Background(), http.MethodGet, "/bundles/0xdead", nil, nil)
		if !IsNotFound(err) {
			t.Errorf("IsNotFound = false for 404, err = %v", err)
		}
		if IsPermissionDenied(err) {
			t.Error("IsPermissionDenied = true for 404")
		}
	})
}

func TestSessionCookieAttached(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if cookie, err := request.Cookie("codalab_session"); err == nil {
			gotCookie = cookie.Value
		}
		writer.Write([]byte("{}"))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{ServerURL: server.URL, SessionCookie: "s3cret"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.doRequest(context.Background(), http.MethodGet, "/user", nil, nil); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotCookie != "s3cret" {
		t.Errorf("server saw cookie %q, want %q", gotCookie, "s3cret")
	}
}

func TestLogin(t *testing.T) {
	t.Run("success installs cookie", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/rest/account/login" {
				t.Errorf("unexpected path %s", request.URL.Path)
			}
			if err := request.ParseForm(); err != nil {
				t.Fatalf("parsing form: %v", err)
			}
			if request.PostForm.Get("username") != "alice" {
				t.Errorf("username = %q", request.PostForm.Get("username"))
			}
			http.SetCookie(writer, &http.Cookie{Name: "codalab_session", Value: "fresh-session"})
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := testClient(t, server)
		if err := client.Login(context.Background(), "alice", "hunter2"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if !client.Authenticated() {
			t.Error("client not authenticated after login")
		}
		if client.SessionCookie() != "fresh-session" {
			t.Errorf("SessionCookie = %q", client.SessionCookie())
		}
	})

	t.Run("no cookie means failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := testClient(t, server)
		if err := client.Login(context.Background(), "alice", "wrong"); err == nil {
			t.Fatal("Login succeeded without a session cookie")
		}
	})
}

func TestFetchFileSummary(t *testing.T) {
	const marker = "\n... [truncated] ...\n\n"
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/rest/bundles/0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa/contents/blob/stdout" {
			t.Errorf("unexpected path %s", request.URL.Path)
		}
		query := request.URL.Query()
		if query.Get("head") != "50" || query.Get("tail") != "50" {
			t.Errorf("head/tail = %s/%s", query.Get("head"), query.Get("tail"))
		}
		if query.Get("truncation_text") != marker {
			t.Errorf("truncation_text = %q", query.Get("truncation_text"))
		}
		writer.Write([]byte("first lines" + marker + "last lines"))
	}))
	defer server.Close()

	client := testClient(t, server)
	uuid := mustBundleUUID(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	summary, err := client.FetchFileSummary(context.Background(), uuid, "/stdout", 50, 50, marker)
	if err != nil {
		t.Fatalf("FetchFileSummary failed: %v", err)
	}
	if summary != "first lines"+marker+"last lines" {
		t.Errorf("summary = %q", summary)
	}
}

func TestFetchContentsInfoEncodesPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		gotPath = request.URL.EscapedPath()
		writer.Write([]byte(`{"data": {"type": "directory", "contents": []}}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	uuid := mustBundleUUID(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if _, err := client.FetchContentsInfo(context.Background(), uuid, "/results/run 1", 1); err != nil {
		t.Fatalf("FetchContentsInfo failed: %v", err)
	}
	want := "/rest/bundles/0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb/contents/info/results/run%201"
	if gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
}
