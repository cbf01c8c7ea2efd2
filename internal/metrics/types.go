package metrics

import "time"

// MetricsData is the root structure stored in persistence.
type MetricsData struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// AggregatedStats holds counters broken down by various dimensions.
type AggregatedStats struct {
	Total      CallStats            `json:"total"`
	ByEndpoint map[string]CallStats `json:"by_endpoint"` // "GET /api/v2/buildings/{id}"
	ByMethod   map[string]CallStats `json:"by_method"`
	ByStatus   map[string]CallStats `json:"by_status"` // 2xx, 4xx, 5xx, network_error
}

// CallStats accumulates one dimension's call counters.
type CallStats struct {
	Calls          int64 `json:"calls"`
	Errors         int64 `json:"errors"` // status >= 400 or network failure
	Retries        int64 `json:"retries"`
	TotalLatencyMS int64 `json:"total_latency_ms"`
	MaxLatencyMS   int64 `json:"max_latency_ms"`
}

// Add folds one call observation into the counters.
func (cs *CallStats) Add(status int, latency time.Duration, retries int) {
	cs.Calls++
	if status == 0 || status >= 400 {
		cs.Errors++
	}
	cs.Retries += int64(retries)
	ms := latency.Milliseconds()
	cs.TotalLatencyMS += ms
	if ms > cs.MaxLatencyMS {
		cs.MaxLatencyMS = ms
	}
}

// AvgLatencyMS returns the mean latency, zero when no calls were recorded.
func (cs CallStats) AvgLatencyMS() int64 {
	if cs.Calls == 0 {
		return 0
	}
	return cs.TotalLatencyMS / cs.Calls
}
