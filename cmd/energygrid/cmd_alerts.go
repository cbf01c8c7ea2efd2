package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	alertsBuilding string
	alertsSeverity string
	alertsStatus   string
	alertsPage     int
	alertsPerPage  int
	resolveNote    string
)

// alertsCmd manages monitoring alerts
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Triage monitoring alerts",
	Long: `Work the alert queue raised by server-side monitoring rules.

Available subcommands:
  list    - List alerts with optional filters
  show    - Show one alert
  ack     - Acknowledge an open alert
  resolve - Resolve an alert with an optional note`,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	RunE:  runAlertsList,
}

var alertsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsShow,
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge an open alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsAck,
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve an alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsResolve,
}

func init() {
	alertsListCmd.Flags().StringVar(&alertsBuilding, "building", "", "Filter by building ID")
	alertsListCmd.Flags().StringVar(&alertsSeverity, "severity", "", "Filter by severity (critical, warning, info)")
	alertsListCmd.Flags().StringVar(&alertsStatus, "status", "", "Filter by status (open, acknowledged, resolved)")
	alertsListCmd.Flags().IntVar(&alertsPage, "page", 0, "Page number")
	alertsListCmd.Flags().IntVar(&alertsPerPage, "per-page", 0, "Items per page")

	alertsResolveCmd.Flags().StringVar(&resolveNote, "note", "", "Resolution note recorded on the alert")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsShowCmd)
	alertsCmd.AddCommand(alertsAckCmd)
	alertsCmd.AddCommand(alertsResolveCmd)
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if alertsSeverity != "" && !types.KnownAlertSeverity(types.AlertSeverity(alertsSeverity)) {
		return fmt.Errorf("unknown severity %q (critical, warning, info)", alertsSeverity)
	}
	if alertsStatus != "" && !types.KnownAlertStatus(types.AlertStatus(alertsStatus)) {
		return fmt.Errorf("unknown status %q (open, acknowledged, resolved)", alertsStatus)
	}

	filter := gridapi.AlertFilter{
		ListOptions: gridapi.ListOptions{Page: alertsPage, PerPage: alertsPerPage},
		BuildingID:  alertsBuilding,
		Severity:    types.AlertSeverity(alertsSeverity),
		Status:      types.AlertStatus(alertsStatus),
	}
	query := url.Values{}
	if alertsPage > 0 {
		query.Set("page", strconv.Itoa(alertsPage))
	}
	if alertsPerPage > 0 {
		query.Set("per_page", strconv.Itoa(alertsPerPage))
	}
	if alertsBuilding != "" {
		query.Set("building_id", alertsBuilding)
	}
	if alertsSeverity != "" {
		query.Set("severity", alertsSeverity)
	}
	if alertsStatus != "" {
		query.Set("status", alertsStatus)
	}

	ctx, cancel := commandContext()
	defer cancel()

	alerts, meta, info, err := cachedList(ctx, cliApp, "/api/v2/alerts", query,
		func(ctx context.Context) ([]types.Alert, types.ListMeta, error) {
			return client.ListAlerts(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(alerts)
	}

	now := time.Now()
	table := ui.NewSimpleTable(fmt.Sprintf("Alerts (%d)", meta.TotalItems), []string{"ID", "SEV", "STATUS", "BUILDING", "RULE", "MESSAGE", "AGE"})
	for _, a := range alerts {
		sev := string(a.Severity)
		if a.Overdue(now) {
			sev += "!"
		}
		table.AddRow(a.ID, sev, string(a.Status), a.BuildingID, a.RuleCode, truncate(a.Message, 40), humanAge(now.Sub(a.CreatedAt)))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runAlertsShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	a, info, err := cachedGet(ctx, cliApp, "/api/v2/alerts/"+url.PathEscape(id),
		func(ctx context.Context) (*types.Alert, error) {
			return client.GetAlert(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(a)
	}

	fmt.Printf("[%s] %s\n", a.Severity, a.Message)
	fmt.Printf("ID:        %s\n", a.ID)
	fmt.Printf("Rule:      %s\n", a.RuleCode)
	fmt.Printf("Status:    %s\n", a.Status)
	fmt.Printf("Building:  %s\n", a.BuildingID)
	if a.EquipmentID != "" {
		fmt.Printf("Equipment: %s\n", a.EquipmentID)
	}
	fmt.Printf("Raised:    %s (%s)\n", fmtTimeVal(a.CreatedAt), fmtAgo(&a.CreatedAt))
	if a.ResponseSLAMinutes > 0 {
		overdue := ""
		if a.Overdue(time.Now()) {
			overdue = "  OVERDUE"
		}
		fmt.Printf("SLA:       %d min%s\n", a.ResponseSLAMinutes, overdue)
	}
	if a.AcknowledgedAt != nil {
		fmt.Printf("Ack'd:     %s by %s\n", fmtTime(a.AcknowledgedAt), a.AcknowledgedBy)
	}
	if a.ResolvedAt != nil {
		fmt.Printf("Resolved:  %s by %s\n", fmtTime(a.ResolvedAt), a.ResolvedBy)
		if a.ResolutionNote != "" {
			fmt.Printf("Note:      %s\n", a.ResolutionNote)
		}
	}
	return nil
}

func runAlertsAck(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := client.AcknowledgeAlert(ctx, args[0])
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/alerts")

	if flagJSON {
		return printJSON(a)
	}
	fmt.Printf("Acknowledged %s (%s)\n", a.ID, a.RuleCode)
	return nil
}

func runAlertsResolve(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := client.ResolveAlert(ctx, args[0], resolveNote)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/alerts")

	if flagJSON {
		return printJSON(a)
	}
	fmt.Printf("Resolved %s (%s)\n", a.ID, a.RuleCode)
	return nil
}
