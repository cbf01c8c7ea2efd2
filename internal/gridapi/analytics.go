package gridapi

import (
	"context"
	"net/url"
	"time"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// SeriesQuery bounds an energy series request. From/To are truncated to the
// resolution bucket by the server.
type SeriesQuery struct {
	From       time.Time
	To         time.Time
	Resolution types.SeriesResolution
}

func (s SeriesQuery) query() url.Values {
	q := url.Values{}
	if !s.From.IsZero() {
		q.Set("from", s.From.UTC().Format(time.RFC3339))
	}
	if !s.To.IsZero() {
		q.Set("to", s.To.UTC().Format(time.RFC3339))
	}
	if s.Resolution != "" {
		q.Set("resolution", string(s.Resolution))
	}
	return q
}

type energySeriesResponse struct {
	Data []types.EnergyPoint `json:"data"`
}

// EnergySeries returns a building's consumption samples for the window.
func (c *Client) EnergySeries(ctx context.Context, buildingID string, sq SeriesQuery) ([]types.EnergyPoint, error) {
	var resp energySeriesResponse
	path := "/api/v2/buildings/" + url.PathEscape(buildingID) + "/energy"
	if err := c.get(ctx, path, sq.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DashboardStats is the server-computed portfolio rollup.
type DashboardStats struct {
	TotalBuildings   int     `json:"totalBuildings"`
	TotalEquipment   int     `json:"totalEquipment"`
	OpenAlerts       int     `json:"openAlerts"`
	CriticalAlerts   int     `json:"criticalAlerts"`
	UpcomingAudits   int     `json:"upcomingAudits"`
	FailedChecks     int     `json:"failedChecks"`
	PortfolioKWhMTD  float64 `json:"portfolioKWhMtd"`
	AvgSiteEUI       float64 `json:"avgSiteEUI"`
	CO2EmissionsMTD  float64 `json:"co2EmissionsMtd"`
	ActiveUsersToday int     `json:"activeUsersToday"`
}

// Stats fetches the dashboard rollup.
func (c *Client) Stats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	if err := c.get(ctx, "/api/v2/dashboard/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
