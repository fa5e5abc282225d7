package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const simpleNetworkFixture = "T 2\nC 1\n1 0\nS 1\n5 0 2 0\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitForStatus(t *testing.T, mgr *Manager, id string, want Status, timeout time.Duration) *Run {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		run, ok := mgr.Get(id)
		if !ok {
			t.Fatalf("run %s not found", id)
		}
		run.mu.RLock()
		status := run.Status
		run.mu.RUnlock()
		if status == want || status == StatusFailed {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach status %s in time", id, want)
	return nil
}

func TestManagerSubmitHeuristicRun(t *testing.T) {
	mgr := NewManager(nil)
	run, err := mgr.Submit(context.Background(), Request{
		Network: simpleNetworkFixture, Policy: "mtct", NumSamples: 1, ShiftLength: 40,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	done := waitForStatus(t, mgr, run.ID, StatusDone, 5*time.Second)
	if done.Status != StatusDone {
		t.Fatalf("run failed: %s", done.Err)
	}
	if done.Result == nil || len(done.Result.Samples) != 1 {
		t.Fatalf("expected one sample, got %+v", done.Result)
	}
}

func TestManagerSubmitRejectsUnknownPolicy(t *testing.T) {
	mgr := NewManager(nil)
	run, err := mgr.Submit(context.Background(), Request{
		Network: simpleNetworkFixture, Policy: "bogus", NumSamples: 1, ShiftLength: 10,
	})
	if err != nil {
		t.Fatalf("submit itself should succeed, run fails async: %v", err)
	}
	done := waitForStatus(t, mgr, run.ID, StatusFailed, 5*time.Second)
	if done.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", done.Status)
	}
}

func TestManagerSubmitRejectsBadNetwork(t *testing.T) {
	mgr := NewManager(nil)
	_, err := mgr.Submit(context.Background(), Request{Network: "not a network", Policy: "mtct"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestServerHandleRunsRoundTrip(t *testing.T) {
	mgr := NewManager(nil)
	srv := NewServer(mgr).WithLogger(testLogger())
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body := `{"network":"T 2\nC 1\n1 0\nS 1\n5 0 2 0\n","policy":"mtct","numSamples":1,"shiftLength":20}`
	resp, err := http.Post(ts.URL+"/api/runs", "application/json", stringsReader(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("expected non-empty run id")
	}

	done := waitForStatus(t, mgr, snap.ID, StatusDone, 5*time.Second)
	if done.Status != StatusDone {
		t.Fatalf("run did not complete: %s", done.Err)
	}
}

func TestServerHealthz(t *testing.T) {
	srv := NewServer(NewManager(nil)).WithLogger(testLogger())
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestLastPathSegment(t *testing.T) {
	cases := map[string]string{
		"/ws/sim/abc123": "abc123",
		"/ws/ga/xyz/":     "xyz",
		"noSlash":         "noSlash",
	}
	for in, want := range cases {
		if got := lastPathSegment(in); got != want {
			t.Errorf("lastPathSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
