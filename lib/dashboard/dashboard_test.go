// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/bundle"
)

// searchServer answers interpret/search count queries from a fixed
// table and records the keyword sets it saw.
type searchServer struct {
	mu       sync.Mutex
	counts   map[string]int64 // keyed by "state=<s>" or ".floating"
	requests [][]string
	inFlight atomic.Int32
	parallel atomic.Bool
}

func (s *searchServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.inFlight.Add(1) > 1 {
			s.parallel.Store(true)
		}
		defer s.inFlight.Add(-1)

		var request struct {
			Keywords []string `json:"keywords"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, request.Keywords)
		s.mu.Unlock()

		if strings.HasSuffix(r.URL.Path, "/interpret/wsearch") {
			fmt.Fprint(w, `{"response": [{"uuid": "0x1234567890abcdef1234567890abcdef", "name": "main", "title": "Main", "owner_name": "alice"}]}`)
			return
		}

		var count int64
		for _, keyword := range request.Keywords {
			if value, ok := s.counts[keyword]; ok {
				count = value
			}
		}
		fmt.Fprintf(w, `{"response": %d}`, count)
	})
}

func (s *searchServer) keywordSets() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.requests...)
}

func newAggregator(t *testing.T, server *searchServer) *Aggregator {
	t.Helper()
	httpServer := httptest.NewServer(server.handler())
	t.Cleanup(httpServer.Close)

	client, err := api.NewClient(api.ClientConfig{
		ServerURL: httpServer.URL,
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	aggregator, err := New(client, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return aggregator
}

func TestBundleCountsNonZeroBucketsInOrder(t *testing.T) {
	server := &searchServer{counts: map[string]int64{
		"state=running": 3,
		"state=ready":   17,
		"state=failed":  2,
		".floating":     5,
	}}
	aggregator := newAggregator(t, server)

	buckets, err := aggregator.BundleCounts(context.Background(), "alice")
	if err != nil {
		t.Fatalf("BundleCounts failed: %v", err)
	}

	want := []Bucket{
		{Label: "running", Count: 3},
		{Label: "ready", Count: 17},
		{Label: "failed", Count: 2},
		{Label: "floating", Count: 5},
	}
	if len(buckets) != len(want) {
		t.Fatalf("buckets = %+v, want %+v", buckets, want)
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("buckets[%d] = %+v, want %+v", i, buckets[i], want[i])
		}
	}
	if server.parallel.Load() {
		t.Error("count queries overlapped; they must run sequentially")
	}
}

func TestBundleCountsQueryShape(t *testing.T) {
	server := &searchServer{counts: map[string]int64{}}
	aggregator := newAggregator(t, server)

	if _, err := aggregator.BundleCounts(context.Background(), "alice"); err != nil {
		t.Fatalf("BundleCounts failed: %v", err)
	}

	sets := server.keywordSets()
	// One query per lifecycle state plus the floating query.
	wantQueries := len(bundle.AllStates()) + 1
	if len(sets) != wantQueries {
		t.Fatalf("queries = %d, want %d", len(sets), wantQueries)
	}
	first := sets[0]
	if len(first) != 3 || first[0] != "owner=alice" || first[1] != ".count" {
		t.Errorf("first query = %v", first)
	}
	last := sets[len(sets)-1]
	if len(last) != 3 || last[2] != ".floating" {
		t.Errorf("last query = %v, want floating", last)
	}
}

func TestWorksheetQueries(t *testing.T) {
	server := &searchServer{counts: map[string]int64{}}
	aggregator := newAggregator(t, server)
	ctx := context.Background()

	owned, err := aggregator.OwnedWorksheets(ctx, "alice")
	if err != nil {
		t.Fatalf("OwnedWorksheets failed: %v", err)
	}
	if len(owned) != 1 || owned[0].Name != "main" {
		t.Errorf("owned = %+v", owned)
	}

	if _, err := aggregator.SharedWorksheets(ctx); err != nil {
		t.Fatalf("SharedWorksheets failed: %v", err)
	}

	sets := server.keywordSets()
	if len(sets) != 2 {
		t.Fatalf("queries = %v", sets)
	}
	if sets[0][0] != "owner=alice" || sets[0][1] != ".limit=100" {
		t.Errorf("owned query = %v", sets[0])
	}
	if sets[1][0] != ".shared" || sets[1][1] != ".notmine" || sets[1][2] != ".limit=100" {
		t.Errorf("shared query = %v", sets[1])
	}
}

func TestLoadAssemblesSummary(t *testing.T) {
	server := &searchServer{counts: map[string]int64{"state=ready": 1}}
	aggregator := newAggregator(t, server)

	summary, err := aggregator.Load(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(summary.Buckets) != 1 || summary.Buckets[0].Label != "ready" {
		t.Errorf("Buckets = %+v", summary.Buckets)
	}
	if len(summary.Owned) != 1 || len(summary.Shared) != 1 {
		t.Errorf("Owned/Shared = %d/%d", len(summary.Owned), len(summary.Shared))
	}
}
