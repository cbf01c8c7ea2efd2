// Package metrics records per-call API statistics to a local JSON file.
//
// The tracker implements the client's MetricsRecorder interface. Writes are
// debounced so a burst of calls costs one disk write, with an explicit
// Flush for process exit.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Tracker accumulates API call statistics and persists them.
type Tracker struct {
	mu       sync.Mutex
	data     MetricsData
	filePath string
	dirty    bool
}

// NewTracker creates a tracker persisting to filePath, loading any prior
// data. A corrupt or missing file starts the tracker empty.
func NewTracker(filePath string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create metrics dir: %w", err)
	}

	t := &Tracker{
		filePath: filePath,
		data: MetricsData{
			Version: "1.0",
			Aggregate: AggregatedStats{
				ByEndpoint: make(map[string]CallStats),
				ByMethod:   make(map[string]CallStats),
				ByStatus:   make(map[string]CallStats),
			},
		},
	}

	if err := t.Load(); err != nil {
		// Stats are advisory; a corrupt file should not block the CLI.
		t.data.Aggregate = AggregatedStats{
			ByEndpoint: make(map[string]CallStats),
			ByMethod:   make(map[string]CallStats),
			ByStatus:   make(map[string]CallStats),
		}
	}

	return t, nil
}

// Load reads the metrics data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}

	// Ensure maps are initialized if file was empty/partial
	if t.data.Aggregate.ByEndpoint == nil {
		t.data.Aggregate.ByEndpoint = make(map[string]CallStats)
	}
	if t.data.Aggregate.ByMethod == nil {
		t.data.Aggregate.ByMethod = make(map[string]CallStats)
	}
	if t.data.Aggregate.ByStatus == nil {
		t.data.Aggregate.ByStatus = make(map[string]CallStats)
	}

	return nil
}

// Save writes the metrics data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Record folds one logical API call into the aggregates. Implements the
// client's MetricsRecorder.
func (t *Tracker) Record(method, endpoint string, status int, latency time.Duration, retries int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Aggregate.Total.Add(status, latency, retries)
	addToMap(t.data.Aggregate.ByEndpoint, method+" "+normalizeEndpoint(endpoint), status, latency, retries)
	addToMap(t.data.Aggregate.ByMethod, method, status, latency, retries)
	addToMap(t.data.Aggregate.ByStatus, statusBucket(status), status, latency, retries)

	// Debounced auto-save
	if !t.dirty {
		t.dirty = true
		time.AfterFunc(5*time.Second, func() {
			t.Save()
			t.mu.Lock()
			t.dirty = false
			t.mu.Unlock()
		})
	}
}

// Flush persists immediately, regardless of the debounce state.
func (t *Tracker) Flush() error {
	return t.Save()
}

// Reset discards all recorded data and persists the empty state.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Aggregate = AggregatedStats{
		ByEndpoint: make(map[string]CallStats),
		ByMethod:   make(map[string]CallStats),
		ByStatus:   make(map[string]CallStats),
	}
	return t.saveLocked()
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByEndpoint = copyCallStatsMap(stats.ByEndpoint)
	stats.ByMethod = copyCallStatsMap(stats.ByMethod)
	stats.ByStatus = copyCallStatsMap(stats.ByStatus)
	return stats
}

func copyCallStatsMap(src map[string]CallStats) map[string]CallStats {
	if src == nil {
		return nil
	}
	dst := make(map[string]CallStats, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]CallStats, key string, status int, latency time.Duration, retries int) {
	entry := m[key]
	entry.Add(status, latency, retries)
	m[key] = entry
}

// collections lists path segments that are followed by a resource ID.
var collections = map[string]bool{
	"buildings":         true,
	"equipment":         true,
	"audits":            true,
	"compliance-checks": true,
	"reports":           true,
	"alerts":            true,
	"users":             true,
	"jobs":              true,
}

// normalizeEndpoint collapses resource IDs so the per-endpoint map stays
// bounded: /api/v2/buildings/b-17/energy becomes /api/v2/buildings/{id}/energy.
func normalizeEndpoint(endpoint string) string {
	path := endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "/")
	for i := 0; i < len(segs)-1; i++ {
		if collections[segs[i]] && segs[i+1] != "" {
			segs[i+1] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}

func statusBucket(status int) string {
	if status == 0 {
		return "network_error"
	}
	return fmt.Sprintf("%dxx", status/100)
}
