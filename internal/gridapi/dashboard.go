package gridapi

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// Dashboard is the console's main screen, assembled client-side from
// independent endpoints. Every section carries its own error slot so one
// failing endpoint degrades that section instead of blanking the screen.
// Only an authentication failure aborts the whole fetch.
type Dashboard struct {
	Stats    *DashboardStats
	StatsErr error

	// Alerts holds open alerts, most urgent first.
	Alerts    []types.Alert
	AlertsErr error

	// Audits holds upcoming scheduled audits.
	Audits    []types.Audit
	AuditsErr error

	// FailedChecks holds compliance checks currently failing.
	FailedChecks []types.ComplianceCheck
	ChecksErr    error

	// Energy holds the focus building's recent consumption, when a focus
	// building was requested.
	Energy    []types.EnergyPoint
	EnergyErr error

	FetchedAt time.Time
}

// SectionErrs returns the per-section failures, nil-free.
func (d *Dashboard) SectionErrs() []error {
	var errs []error
	for _, err := range []error{d.StatsErr, d.AlertsErr, d.AuditsErr, d.ChecksErr, d.EnergyErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Complete reports whether every section loaded.
func (d *Dashboard) Complete() bool { return len(d.SectionErrs()) == 0 }

// DashboardOptions tune FetchDashboard.
type DashboardOptions struct {
	// AlertLimit caps the alert feed; default 10.
	AlertLimit int
	// AuditLimit caps the upcoming audit list; default 5.
	AuditLimit int
	// CheckLimit caps the failing check list; default 10.
	CheckLimit int
	// EnergyBuildingID selects the focus building for the consumption
	// sparkline; empty skips the energy section.
	EnergyBuildingID string
}

func (o DashboardOptions) withDefaults() DashboardOptions {
	if o.AlertLimit <= 0 {
		o.AlertLimit = 10
	}
	if o.AuditLimit <= 0 {
		o.AuditLimit = 5
	}
	if o.CheckLimit <= 0 {
		o.CheckLimit = 10
	}
	return o
}

// FetchDashboard loads all sections concurrently and returns whatever
// completed. The returned error is non-nil only for failures that make the
// rest of the data untrustworthy, currently a dead session.
func (c *Client) FetchDashboard(ctx context.Context, opts DashboardOptions) (*Dashboard, error) {
	opts = opts.withDefaults()
	d := &Dashboard{FetchedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	// section wraps one fetch: ordinary failures land in the slot and the
	// group keeps going; auth failures propagate and cancel the rest.
	section := func(slot *error, fetch func(context.Context) error) {
		g.Go(func() error {
			err := fetch(gctx)
			if err == nil {
				return nil
			}
			*slot = err
			if IsAuthError(err) {
				return err
			}
			logging.APIDebug("dashboard section degraded: %v", err)
			return nil
		})
	}

	section(&d.StatsErr, func(ctx context.Context) error {
		stats, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		d.Stats = stats
		return nil
	})

	section(&d.AlertsErr, func(ctx context.Context) error {
		alerts, _, err := c.ListAlerts(ctx, AlertFilter{
			ListOptions: ListOptions{PerPage: opts.AlertLimit},
			Status:      types.AlertOpen,
		})
		if err != nil {
			return err
		}
		// The server orders by age; the feed wants urgency first.
		sort.SliceStable(alerts, func(i, j int) bool {
			return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
		})
		d.Alerts = alerts
		return nil
	})

	section(&d.AuditsErr, func(ctx context.Context) error {
		audits, _, err := c.ListAudits(ctx, AuditFilter{
			ListOptions: ListOptions{PerPage: opts.AuditLimit},
			Status:      types.AuditScheduled,
		})
		if err != nil {
			return err
		}
		d.Audits = audits
		return nil
	})

	section(&d.ChecksErr, func(ctx context.Context) error {
		checks, _, err := c.ListComplianceChecks(ctx, ComplianceFilter{
			ListOptions: ListOptions{PerPage: opts.CheckLimit},
			Result:      types.CheckFailed,
		})
		if err != nil {
			return err
		}
		d.FailedChecks = checks
		return nil
	})

	if opts.EnergyBuildingID != "" {
		section(&d.EnergyErr, func(ctx context.Context) error {
			points, err := c.EnergySeries(ctx, opts.EnergyBuildingID, SeriesQuery{
				From:       time.Now().AddDate(0, 0, -30),
				To:         time.Now(),
				Resolution: types.ResolutionDaily,
			})
			if err != nil {
				return err
			}
			d.Energy = points
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return d, err
	}
	return d, nil
}
