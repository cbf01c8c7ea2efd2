package gridapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

func emptyList() string {
	return `{"data":[],"meta":{"page":1,"per_page":10,"total_items":0,"total_pages":1}}`
}

func dashboardHandler(t *testing.T, overrides map[string]http.HandlerFunc) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := overrides[r.URL.Path]; ok {
			h(w, r)
			return
		}
		switch {
		case r.URL.Path == "/api/v2/dashboard/stats":
			fmt.Fprint(w, `{
				"total_buildings": 12,
				"open_alerts": 4,
				"critical_alerts": 1,
				"portfolio_kwh_mtd": 84211.5,
				"avg_site_eui": 101.2,
				"co2_emissions_mtd": 3120.8
			}`)
		case r.URL.Path == "/api/v2/alerts":
			fmt.Fprint(w, `{
				"data": [
					{"id":"al-2","building_id":"b-1","severity":"warning","status":"open","rule_code":"EUI_DRIFT","message":"eui trending up","created_at":"2026-02-01T00:00:00Z","updated_at":"2026-02-01T00:00:00Z"},
					{"id":"al-1","building_id":"b-1","severity":"critical","status":"open","rule_code":"HVAC_FAULT","message":"chiller offline","created_at":"2026-02-02T00:00:00Z","updated_at":"2026-02-02T00:00:00Z"}
				],
				"meta": {"page":1,"per_page":10,"total_items":2,"total_pages":1}
			}`)
		case r.URL.Path == "/api/v2/audits":
			fmt.Fprint(w, `{
				"data": [
					{"id":"au-1","building_id":"b-1","audit_typ":"energy","title":"Q1 walkthrough","status":"scheduled","created_at":"2026-02-01T00:00:00Z","updated_at":"2026-02-01T00:00:00Z"}
				],
				"meta": {"page":1,"per_page":5,"total_items":1,"total_pages":1}
			}`)
		case r.URL.Path == "/api/v2/compliance-checks":
			fmt.Fprint(w, `{
				"data": [
					{"id":"cc-1","building_id":"b-1","standard":"ashrae_90_1","rule_code":"90.1-G36","result":"failed","created_at":"2026-02-01T00:00:00Z","updated_at":"2026-02-01T00:00:00Z"}
				],
				"meta": {"page":1,"per_page":10,"total_items":1,"total_pages":1}
			}`)
		case strings.HasSuffix(r.URL.Path, "/energy"):
			fmt.Fprint(w, `{"data":[{"timestamp":"2026-02-01T00:00:00Z","kwh_consumed":412.5,"co2_emissions_kg":180.2}]}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestFetchDashboardAllSections(t *testing.T) {
	srv := httptest.NewServer(dashboardHandler(t, nil))
	defer srv.Close()

	c := testClient(t, srv)
	d, err := c.FetchDashboard(context.Background(), DashboardOptions{EnergyBuildingID: "b-1"})
	if err != nil {
		t.Fatalf("FetchDashboard: %v", err)
	}
	if !d.Complete() {
		t.Fatalf("sections degraded: %v", d.SectionErrs())
	}
	if d.Stats == nil || d.Stats.PortfolioKWhMTD != 84211.5 {
		t.Errorf("stats = %+v", d.Stats)
	}
	if d.Stats.AvgSiteEUI != 101.2 || d.Stats.CO2EmissionsMTD != 3120.8 {
		t.Errorf("stats tail fields = %+v", d.Stats)
	}
	if len(d.Alerts) != 2 || d.Alerts[0].Severity != types.SeverityCritical {
		t.Errorf("alerts not sorted by urgency: %+v", d.Alerts)
	}
	if len(d.Audits) != 1 || d.Audits[0].AuditType != types.AuditEnergy {
		t.Errorf("audits = %+v", d.Audits)
	}
	if len(d.FailedChecks) != 1 || d.FailedChecks[0].Result != types.CheckFailed {
		t.Errorf("failed checks = %+v", d.FailedChecks)
	}
	if len(d.Energy) != 1 || d.Energy[0].KWhConsumed != 412.5 {
		t.Errorf("energy = %+v", d.Energy)
	}
}

func TestFetchDashboardDegradedSection(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/api/v2/alerts": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	}
	srv := httptest.NewServer(dashboardHandler(t, overrides))
	defer srv.Close()

	c := testClient(t, srv)
	d, err := c.FetchDashboard(context.Background(), DashboardOptions{})
	if err != nil {
		t.Fatalf("degraded section must not fail the fetch: %v", err)
	}
	if d.AlertsErr == nil || !IsServer(d.AlertsErr) {
		t.Errorf("AlertsErr = %v", d.AlertsErr)
	}
	if d.Complete() {
		t.Error("Complete() = true with a degraded section")
	}
	if got := len(d.SectionErrs()); got != 1 {
		t.Errorf("SectionErrs() = %d entries, want 1", got)
	}
	if d.Stats == nil || len(d.Audits) != 1 {
		t.Errorf("healthy sections missing: stats=%v audits=%v", d.Stats, d.Audits)
	}
}

func TestFetchDashboardAuthFailureAborts(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/api/v2/dashboard/stats": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":"token_expired","message":"session dead"}}`)
		},
	}
	srv := httptest.NewServer(dashboardHandler(t, overrides))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.FetchDashboard(context.Background(), DashboardOptions{})
	if !IsAuthError(err) {
		t.Fatalf("want auth error from FetchDashboard, got %v", err)
	}
}
