package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
)

var dashboardBuilding string

// dashboardCmd prints the portfolio overview
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the portfolio overview",
	Long: `Print the portfolio rollup, the open alert feed, upcoming audits
and failing compliance checks in one shot.

For the live version run energygrid with no arguments.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardBuilding, "building", "", "Focus building for the energy section (default from config)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	focus := dashboardBuilding
	if focus == "" {
		focus = cliApp.cfg.UI.DefaultBuilding
	}

	ctx, cancel := commandContext()
	defer cancel()

	d, err := client.FetchDashboard(ctx, gridapi.DashboardOptions{EnergyBuildingID: focus})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(dashboardJSON(d))
	}

	for _, serr := range d.SectionErrs() {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", serr)
	}

	if d.Stats != nil {
		s := d.Stats
		fmt.Printf("Portfolio: %d buildings, %d equipment, %d active users today\n", s.TotalBuildings, s.TotalEquipment, s.ActiveUsersToday)
		fmt.Printf("Alerts:    %d open (%d critical)\n", s.OpenAlerts, s.CriticalAlerts)
		fmt.Printf("Audits:    %d upcoming    Failing checks: %d\n", s.UpcomingAudits, s.FailedChecks)
		fmt.Printf("Energy:    %.0f kWh MTD, avg EUI %.1f, %.1f t CO2 MTD\n", s.PortfolioKWhMTD, s.AvgSiteEUI, s.CO2EmissionsMTD/1000)
		fmt.Println()
	}

	if len(d.Alerts) > 0 {
		now := time.Now()
		table := ui.NewSimpleTable("Open Alerts", []string{"SEV", "BUILDING", "RULE", "MESSAGE", "AGE"})
		for _, a := range d.Alerts {
			sev := string(a.Severity)
			if a.Overdue(now) {
				sev += "!"
			}
			table.AddRow(sev, a.BuildingID, a.RuleCode, truncate(a.Message, 44), humanAge(now.Sub(a.CreatedAt)))
		}
		printTable(table)
		fmt.Println()
	}

	if len(d.Audits) > 0 {
		table := ui.NewSimpleTable("Upcoming Audits", []string{"ID", "TITLE", "BUILDING", "TYPE", "SCHEDULED"})
		for _, a := range d.Audits {
			table.AddRow(a.ID, truncate(a.Title, 32), a.BuildingID, string(a.AuditType), fmtTime(a.ScheduledAt))
		}
		printTable(table)
		fmt.Println()
	}

	if len(d.FailedChecks) > 0 {
		table := ui.NewSimpleTable("Failing Compliance Checks", []string{"ID", "BUILDING", "STANDARD", "REQUIREMENT", "DUE"})
		for _, c := range d.FailedChecks {
			table.AddRow(c.ID, c.BuildingID, string(c.Standard), truncate(c.Requirement, 40), fmtTime(c.DueAt))
		}
		printTable(table)
		fmt.Println()
	}

	if len(d.Energy) > 0 {
		var total float64
		for _, p := range d.Energy {
			total += p.KWhConsumed
		}
		fmt.Printf("Energy (%s, last 30 days): %.0f kWh across %d days\n", focus, total, len(d.Energy))
	}

	fmt.Printf("Fetched %s\n", d.FetchedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// dashboardJSON flattens the dashboard for --json output; error slots
// become plain strings.
func dashboardJSON(d *gridapi.Dashboard) map[string]any {
	out := map[string]any{
		"stats":        d.Stats,
		"alerts":       d.Alerts,
		"audits":       d.Audits,
		"failedChecks": d.FailedChecks,
		"energy":       d.Energy,
		"fetchedAt":    d.FetchedAt,
	}
	var sections []string
	for _, err := range d.SectionErrs() {
		sections = append(sections, err.Error())
	}
	if len(sections) > 0 {
		out["errors"] = sections
	}
	return out
}
