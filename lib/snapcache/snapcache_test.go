// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package snapcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name  string
	State string
	Count int
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openStore(t)

	in := payload{Name: "train", State: "running", Count: 3}
	if err := store.Put("bundle/0xabc", in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var out payload
	if err := store.Get("bundle/0xabc", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestGetMiss(t *testing.T) {
	store := openStore(t)
	var out payload
	if err := store.Get("nothing/here", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Get on absent key = %v, want ErrMiss", err)
	}
}

func TestPutReplaces(t *testing.T) {
	store := openStore(t)
	if err := store.Put("k", payload{Count: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("k", payload{Count: 2}); err != nil {
		t.Fatal(err)
	}
	var out payload
	if err := store.Get("k", &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
}

func TestDelete(t *testing.T) {
	store := openStore(t)
	if err := store.Put("k", payload{}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var out payload
	if err := store.Get("k", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Delete = %v, want ErrMiss", err)
	}
	// Deleting again is not an error.
	if err := store.Delete("k"); err != nil {
		t.Errorf("second Delete = %v", err)
	}
}

func TestCorruptEntryRemoved(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put("k", payload{Count: 7}); err != nil {
		t.Fatal(err)
	}

	// Scribble over the entry file.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 cache file, found %d", len(entries))
	}
	if err := os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out payload
	if err := store.Get("k", &out); err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("Get on corrupt entry = %v, want decode error", err)
	}

	// The corrupt entry was removed; the next read is a clean miss.
	if err := store.Get("k", &out); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after corrupt removal = %v, want ErrMiss", err)
	}
}

func TestKeysDoNotCollide(t *testing.T) {
	store := openStore(t)
	if err := store.Put("a/b", payload{Count: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.Put("a/c", payload{Count: 2}); err != nil {
		t.Fatal(err)
	}
	var out payload
	if err := store.Get("a/b", &out); err != nil || out.Count != 1 {
		t.Errorf("Get(a/b) = %+v, %v", out, err)
	}
}
