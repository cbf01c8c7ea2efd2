package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTracker_RecordAggregatesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	tracker, err := NewTracker(path)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	// Avoid background autosave during the test (debounce uses AfterFunc).
	tracker.dirty = true

	tracker.Record("GET", "/api/v2/buildings/b-17", 200, 40*time.Millisecond, 0)
	tracker.Record("GET", "/api/v2/buildings/b-99", 200, 60*time.Millisecond, 1)
	tracker.Record("POST", "/api/v2/audits", 502, 10*time.Millisecond, 0)

	stats := tracker.Stats()
	if stats.Total.Calls != 3 {
		t.Fatalf("Total.Calls=%d, want 3", stats.Total.Calls)
	}
	if stats.Total.Errors != 1 {
		t.Fatalf("Total.Errors=%d, want 1", stats.Total.Errors)
	}
	if stats.Total.Retries != 1 {
		t.Fatalf("Total.Retries=%d, want 1", stats.Total.Retries)
	}

	// Both building detail calls collapse onto one endpoint key.
	detail := stats.ByEndpoint["GET /api/v2/buildings/{id}"]
	if detail.Calls != 2 {
		t.Fatalf("ByEndpoint detail=%+v, want 2 calls", detail)
	}
	if detail.TotalLatencyMS != 100 || detail.MaxLatencyMS != 60 {
		t.Fatalf("latency sums=%+v, want total=100 max=60", detail)
	}
	if detail.AvgLatencyMS() != 50 {
		t.Fatalf("AvgLatencyMS=%d, want 50", detail.AvgLatencyMS())
	}

	if got := stats.ByMethod["POST"]; got.Errors != 1 {
		t.Fatalf("ByMethod[POST]=%+v, want 1 error", got)
	}
	if got := stats.ByStatus["5xx"]; got.Calls != 1 {
		t.Fatalf("ByStatus[5xx]=%+v, want 1 call", got)
	}
	if got := stats.ByStatus["2xx"]; got.Calls != 2 {
		t.Fatalf("ByStatus[2xx]=%+v, want 2 calls", got)
	}

	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics.json: %v", err)
	}
	var persisted MetricsData
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal metrics.json: %v", err)
	}
	if persisted.Aggregate.Total.Calls != 3 {
		t.Fatalf("persisted calls=%d, want 3", persisted.Aggregate.Total.Calls)
	}
}

func TestTracker_LoadPriorData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")

	first, err := NewTracker(path)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	first.dirty = true
	first.Record("GET", "/api/v2/alerts", 200, 5*time.Millisecond, 0)
	if err := first.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := NewTracker(path)
	if err != nil {
		t.Fatalf("NewTracker reload: %v", err)
	}
	stats := second.Stats()
	if stats.Total.Calls != 1 {
		t.Fatalf("reloaded calls=%d, want 1", stats.Total.Calls)
	}
}

func TestTracker_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := os.WriteFile(path, []byte("not json{"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	tracker, err := NewTracker(path)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	if stats := tracker.Stats(); stats.Total.Calls != 0 {
		t.Fatalf("corrupt file should start empty, got %+v", stats.Total)
	}
}

func TestTracker_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	tracker, err := NewTracker(path)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tracker.dirty = true
	tracker.Record("GET", "/api/v2/users", 200, time.Millisecond, 0)

	if err := tracker.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if stats := tracker.Stats(); stats.Total.Calls != 0 {
		t.Fatalf("stats after reset=%+v, want empty", stats.Total)
	}

	reloaded, err := NewTracker(path)
	if err != nil {
		t.Fatalf("NewTracker reload: %v", err)
	}
	if stats := reloaded.Stats(); stats.Total.Calls != 0 {
		t.Fatalf("persisted stats after reset=%+v, want empty", stats.Total)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v2/buildings", "/api/v2/buildings"},
		{"/api/v2/buildings/b-17", "/api/v2/buildings/{id}"},
		{"/api/v2/buildings/b-17/energy", "/api/v2/buildings/{id}/energy"},
		{"/api/v2/compliance-checks/cc-3", "/api/v2/compliance-checks/{id}"},
		{"/api/v2/alerts/a-1/acknowledge", "/api/v2/alerts/{id}/acknowledge"},
		{"/api/v2/buildings?page=2", "/api/v2/buildings"},
		{"/api/v2/auth/me", "/api/v2/auth/me"},
	}
	for _, tt := range tests {
		if got := normalizeEndpoint(tt.in); got != tt.want {
			t.Errorf("normalizeEndpoint(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusBucket(t *testing.T) {
	if got := statusBucket(0); got != "network_error" {
		t.Errorf("statusBucket(0)=%q", got)
	}
	if got := statusBucket(204); got != "2xx" {
		t.Errorf("statusBucket(204)=%q", got)
	}
	if got := statusBucket(429); got != "4xx" {
		t.Errorf("statusBucket(429)=%q", got)
	}
	if got := statusBucket(503); got != "5xx" {
		t.Errorf("statusBucket(503)=%q", got)
	}
}
