// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/ref"
)

const (
	sheetUUID  = "0x1234567890abcdef1234567890abcdef"
	bundleUUID = "0xfeedfacefeedfacefeedfacefeedface"
)

// recorder captures dispatched UI actions in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) OpenWorksheet(uuid ref.WorksheetUUID) { r.record("openWorksheet:" + uuid.String()) }
func (r *recorder) SetEditMode(enabled bool)             { r.record(fmt.Sprintf("setEditMode:%t", enabled)) }
func (r *recorder) OpenBundle(uuid ref.BundleUUID)       { r.record("openBundle:" + uuid.String()) }
func (r *recorder) Upload()                              { r.record("upload") }

type engineFixture struct {
	engine   *Engine
	actions  *recorder
	reloads  *int
	response *string
	status   *int
}

func newEngine(t *testing.T, withHistory bool) *engineFixture {
	t.Helper()
	response := `{}`
	status := http.StatusOK
	fixture := &engineFixture{
		actions:  &recorder{},
		reloads:  new(int),
		response: &response,
		status:   &status,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *fixture.status != http.StatusOK {
			http.Error(w, `{"errors": [{"detail": "command backend down"}]}`, *fixture.status)
			return
		}
		fmt.Fprint(w, *fixture.response)
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(api.ClientConfig{
		ServerURL: server.URL,
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	var history *History
	if withHistory {
		history, err = OpenHistory(filepath.Join(t.TempDir(), "history.db"), nil)
		if err != nil {
			t.Fatalf("OpenHistory failed: %v", err)
		}
		t.Cleanup(func() { history.Close() })
	}

	engine, err := New(Config{
		Client:          client,
		Logger:          slog.New(slog.DiscardHandler),
		History:         history,
		Dispatcher:      fixture.actions,
		ReloadWorksheet: func() { *fixture.reloads++ },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fixture.engine = engine
	return fixture
}

func mustSheet(t *testing.T) ref.WorksheetUUID {
	t.Helper()
	uuid, err := ref.ParseWorksheetUUID(sheetUUID)
	if err != nil {
		t.Fatal(err)
	}
	return uuid
}

func TestExecuteSplitsOutputLines(t *testing.T) {
	f := newEngine(t, false)
	*f.response = `{"output": "uploading\ndone\n"}`

	lines, err := f.engine.Execute(context.Background(), mustSheet(t), "cl upload .")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].Text() != "uploading" || lines[1].Text() != "done" {
		t.Errorf("lines = %q, %q", lines[0].Text(), lines[1].Text())
	}
	if lines[0].IsError || lines[1].IsError {
		t.Error("plain output styled as error")
	}
	if *f.reloads != 1 {
		t.Errorf("reloads = %d, want 1", *f.reloads)
	}
}

func TestExecuteRewritesRefs(t *testing.T) {
	f := newEngine(t, false)
	*f.response = fmt.Sprintf(`{
	  "output": "created run1 in sheet\n",
	  "structured_result": {
	    "refs": {
	      "run1":  {"type": "bundle", "uuid": %q},
	      "sheet": {"type": "worksheet", "uuid": %q},
	      "bogus": {"type": "mystery", "uuid": %q}
	    }
	  }
	}`, bundleUUID, sheetUUID, bundleUUID)

	lines, err := f.engine.Execute(context.Background(), mustSheet(t), "cl run")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0].Text() != "created run1 in sheet" {
		t.Errorf("text = %q", lines[0].Text())
	}

	links := map[string]string{}
	for _, span := range lines[0].Spans {
		if span.URL != "" {
			links[span.Text] = span.URL
		}
	}
	if links["run1"] != "/bundles/"+bundleUUID {
		t.Errorf("run1 link = %q", links["run1"])
	}
	if links["sheet"] != "/worksheets/"+sheetUUID {
		t.Errorf("sheet link = %q", links["sheet"])
	}
	if _, ok := links["bogus"]; ok {
		t.Error("unknown ref type was linked")
	}
}

func TestExecuteExceptionStyledAsError(t *testing.T) {
	f := newEngine(t, false)
	*f.response = `{"output": "partial work\n", "exception": "permission denied on bundle"}`

	lines, err := f.engine.Execute(context.Background(), mustSheet(t), "cl rm 0x0")
	if err != nil {
		t.Fatalf("Execute returned transport error for server exception: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].IsError {
		t.Error("output line styled as error")
	}
	if !lines[1].IsError || lines[1].Text() != "permission denied on bundle" {
		t.Errorf("exception line = %+v", lines[1])
	}
	if *f.reloads != 1 {
		t.Errorf("reloads = %d, want 1", *f.reloads)
	}
}

func TestExecuteTransportError(t *testing.T) {
	f := newEngine(t, false)
	*f.status = http.StatusInternalServerError

	lines, err := f.engine.Execute(context.Background(), mustSheet(t), "cl ls")
	if err == nil {
		t.Fatal("Execute succeeded against a failing server")
	}
	if len(lines) != 1 || !lines[0].IsError {
		t.Fatalf("lines = %+v, want one error line", lines)
	}
	// The hook fires even when the command never reached the server
	// logic; a failed command may still have mutated the worksheet.
	if *f.reloads != 1 {
		t.Errorf("reloads = %d, want 1", *f.reloads)
	}
}

func TestExecuteDispatchesActionsInOrder(t *testing.T) {
	f := newEngine(t, false)
	*f.response = fmt.Sprintf(`{
	  "output": "ok\n",
	  "structured_result": {
	    "ui_actions": [
	      ["openWorksheet", %q],
	      ["setEditMode", true],
	      ["openBundle", %q],
	      ["upload"]
	    ]
	  }
	}`, sheetUUID, bundleUUID)

	if _, err := f.engine.Execute(context.Background(), mustSheet(t), "cl wedit"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []string{
		"openWorksheet:" + sheetUUID,
		"setEditMode:true",
		"openBundle:" + bundleUUID,
		"upload",
	}
	if len(f.actions.events) != len(want) {
		t.Fatalf("events = %v, want %v", f.actions.events, want)
	}
	for i := range want {
		if f.actions.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, f.actions.events[i], want[i])
		}
	}
}

func TestExecuteRecordsHistory(t *testing.T) {
	f := newEngine(t, true)
	*f.response = `{"output": "ok\n"}`

	if _, err := f.engine.Execute(context.Background(), mustSheet(t), "cl ls"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	recent, err := f.engine.history.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0] != "cl ls" {
		t.Errorf("Recent = %v", recent)
	}
}

func TestCompleteMergesServerAndHistory(t *testing.T) {
	f := newEngine(t, true)
	*f.response = `{"completions": ["cl upload", "cl uedit"]}`

	ctx := context.Background()
	sheet := mustSheet(t)
	for _, command := range []string{"cl upload ./data", "cl work main", "cl upload ./more"} {
		if err := f.engine.history.Append(ctx, sheet, command); err != nil {
			t.Fatal(err)
		}
	}

	completions, err := f.engine.Complete(ctx, sheet, "cl u")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	seen := map[string]bool{}
	for _, completion := range completions {
		if seen[completion] {
			t.Errorf("duplicate completion %q", completion)
		}
		seen[completion] = true
	}
	for _, want := range []string{"cl upload", "cl uedit", "cl upload ./data", "cl upload ./more"} {
		if !seen[want] {
			t.Errorf("completion %q missing from %v", want, completions)
		}
	}
	// "cl work main" does not extend the "cl u" prefix and must not
	// leak in from history.
	if seen["cl work main"] {
		t.Errorf("non-prefix history entry leaked into %v", completions)
	}
}

func TestCompleteDegradesWithoutServer(t *testing.T) {
	f := newEngine(t, true)
	*f.status = http.StatusBadGateway

	ctx := context.Background()
	sheet := mustSheet(t)
	if err := f.engine.history.Append(ctx, sheet, "cl upload ./data"); err != nil {
		t.Fatal(err)
	}

	completions, err := f.engine.Complete(ctx, sheet, "cl up")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(completions) != 1 || completions[0] != "cl upload ./data" {
		t.Errorf("completions = %v", completions)
	}
}
