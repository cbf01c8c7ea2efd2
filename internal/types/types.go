// Package types defines the EnergyGrid API resources shared by the client,
// cache, and UI layers. Field tags use the canonical camelCase dialect; the
// snake_case wire dialect is produced and consumed by internal/gridapi's
// normalization layer, never by these structs directly.
package types

import "time"

// ListMeta is the pagination envelope returned by every collection endpoint.
type ListMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether another page follows this one.
func (m ListMeta) HasNext() bool {
	return m.Page < m.TotalPages
}

// EnergyPoint is one sample in a building's consumption series.
type EnergyPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	KWhConsumed    float64   `json:"kWhConsumed"`
	KWhGenerated   float64   `json:"kWhGenerated,omitempty"`
	PeakDemandKW   float64   `json:"peakDemandKw,omitempty"`
	CO2EmissionsKg float64   `json:"co2EmissionsKg,omitempty"`
	CostUSD        float64   `json:"costUsd,omitempty"`
}

// SeriesResolution selects the bucket size for energy series queries.
type SeriesResolution string

const (
	ResolutionHourly  SeriesResolution = "hourly"
	ResolutionDaily   SeriesResolution = "daily"
	ResolutionMonthly SeriesResolution = "monthly"
)

// KnownSeriesResolution reports whether r is a resolution the server accepts.
func KnownSeriesResolution(r SeriesResolution) bool {
	switch r {
	case ResolutionHourly, ResolutionDaily, ResolutionMonthly:
		return true
	}
	return false
}
