// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapcache is a small on-disk cache for engine snapshots.
//
// The detail engine persists its last published snapshot per bundle so
// that re-opening a bundle renders the previous state immediately
// instead of a blank loading pane while the first fetch is in flight.
// Values are CBOR-encoded and zstd-compressed; file names are keyed
// BLAKE3 hashes of the logical key, so arbitrary key strings never
// touch the filesystem namespace.
//
// The cache is advisory. Every failure mode (missing entry, corrupt
// file, unwritable directory) is reported as a miss or error for the
// caller to log and ignore — nothing here is load-bearing.
package snapcache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// keyDomain is the BLAKE3 keyed-hash domain for cache file names.
// Fixed constant; changing it orphans every existing cache entry.
// ASCII, zero-padded to 32 bytes, so the key is readable in dumps.
var keyDomain = [32]byte{
	'b', 'u', 'n', 'd', 'l', 'e', 'l', 'a', 'b', '.',
	's', 'n', 'a', 'p', 'c', 'a', 'c', 'h', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("snapcache: miss")

// Store is a directory-backed cache. Safe for concurrent use by
// multiple goroutines as long as keys are not written concurrently
// with themselves (the engines write each key from one goroutine).
type Store struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open creates a Store rooted at dir, creating the directory if
// needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapcache: creating cache dir: %w", err)
	}
	// Concurrency 1 on the encoder: snapshot payloads are small and
	// the encoder is shared across Put calls.
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("snapcache: creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("snapcache: creating zstd decoder: %w", err)
	}
	return &Store{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Put encodes value and writes it under key, replacing any previous
// entry atomically (write to temp file, rename).
func (s *Store) Put(key string, value any) error {
	encoded, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("snapcache: encoding %q: %w", key, err)
	}
	compressed := s.encoder.EncodeAll(encoded, nil)

	path := s.entryPath(key)
	temp, err := os.CreateTemp(s.dir, "put-*")
	if err != nil {
		return fmt.Errorf("snapcache: creating temp file: %w", err)
	}
	if _, err := temp.Write(compressed); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return fmt.Errorf("snapcache: writing %q: %w", key, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("snapcache: closing temp file: %w", err)
	}
	if err := os.Rename(temp.Name(), path); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("snapcache: installing %q: %w", key, err)
	}
	return nil
}

// Get reads the entry for key into value. Returns ErrMiss when the
// entry does not exist; corrupt entries are removed and reported as
// an error.
func (s *Store) Get(key string, value any) error {
	path := s.entryPath(key)
	compressed, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrMiss
		}
		return fmt.Errorf("snapcache: reading %q: %w", key, err)
	}
	encoded, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("snapcache: decompressing %q: %w", key, err)
	}
	if err := cbor.Unmarshal(encoded, value); err != nil {
		os.Remove(path)
		return fmt.Errorf("snapcache: decoding %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key. Absent entries are not an error.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.entryPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("snapcache: deleting %q: %w", key, err)
	}
	return nil
}

func (s *Store) entryPath(key string) string {
	// NewKeyed requires exactly 32 bytes, which keyDomain guarantees.
	hasher, err := blake3.NewKeyed(keyDomain[:])
	if err != nil {
		panic("snapcache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(key))
	sum := hasher.Sum(nil)
	return filepath.Join(s.dir, hex.EncodeToString(sum)+".snap")
}
