package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	auditsBuilding string
	auditsType     string
	auditsStatus   string
	auditsPage     int
	auditsPerPage  int
	auditsFile     string
	auditsWait     bool
)

// auditsCmd manages site audits
var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "Manage site audits",
	Long: `Track audits from draft to completion.

Available subcommands:
  list     - List audits with optional filters
  show     - Show one audit
  create   - Create an audit from a JSON document
  update   - Update an audit from a JSON document
  schedule - Run server-side scheduling for a draft audit`,
}

var auditsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audits",
	RunE:  runAuditsList,
}

var auditsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one audit",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditsShow,
}

var auditsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an audit from a JSON document",
	RunE:  runAuditsCreate,
}

var auditsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an audit from a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditsUpdate,
}

var auditsScheduleCmd = &cobra.Command{
	Use:   "schedule <id>",
	Short: "Run server-side scheduling for a draft audit",
	Long: `Ask the server to assign an auditor and book the audit. Scheduling
runs as a background job; pass --wait to block until it finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuditsSchedule,
}

func init() {
	auditsListCmd.Flags().StringVar(&auditsBuilding, "building", "", "Filter by building ID")
	auditsListCmd.Flags().StringVar(&auditsType, "type", "", "Filter by type (energy, safety, compliance, retrofit)")
	auditsListCmd.Flags().StringVar(&auditsStatus, "status", "", "Filter by status (draft, scheduled, in_progress, completed, cancelled)")
	auditsListCmd.Flags().IntVar(&auditsPage, "page", 0, "Page number")
	auditsListCmd.Flags().IntVar(&auditsPerPage, "per-page", 0, "Items per page")

	auditsCreateCmd.Flags().StringVarP(&auditsFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = auditsCreateCmd.MarkFlagRequired("file")
	auditsUpdateCmd.Flags().StringVarP(&auditsFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = auditsUpdateCmd.MarkFlagRequired("file")

	auditsScheduleCmd.Flags().BoolVar(&auditsWait, "wait", false, "Block until the scheduling job finishes")

	auditsCmd.AddCommand(auditsListCmd)
	auditsCmd.AddCommand(auditsShowCmd)
	auditsCmd.AddCommand(auditsCreateCmd)
	auditsCmd.AddCommand(auditsUpdateCmd)
	auditsCmd.AddCommand(auditsScheduleCmd)
}

func runAuditsList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if auditsStatus != "" && !types.KnownAuditStatus(types.AuditStatus(auditsStatus)) {
		return fmt.Errorf("unknown status %q (draft, scheduled, in_progress, completed, cancelled)", auditsStatus)
	}

	filter := gridapi.AuditFilter{
		ListOptions: gridapi.ListOptions{Page: auditsPage, PerPage: auditsPerPage},
		BuildingID:  auditsBuilding,
		Type:        types.AuditType(auditsType),
		Status:      types.AuditStatus(auditsStatus),
	}
	query := url.Values{}
	if auditsPage > 0 {
		query.Set("page", strconv.Itoa(auditsPage))
	}
	if auditsPerPage > 0 {
		query.Set("per_page", strconv.Itoa(auditsPerPage))
	}
	if auditsBuilding != "" {
		query.Set("building_id", auditsBuilding)
	}
	if auditsType != "" {
		query.Set("audit_type", auditsType)
	}
	if auditsStatus != "" {
		query.Set("status", auditsStatus)
	}

	ctx, cancel := commandContext()
	defer cancel()

	audits, meta, info, err := cachedList(ctx, cliApp, "/api/v2/audits", query,
		func(ctx context.Context) ([]types.Audit, types.ListMeta, error) {
			return client.ListAudits(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(audits)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Audits (%d)", meta.TotalItems), []string{"ID", "TITLE", "BUILDING", "TYPE", "STATUS", "SCHEDULED", "SCORE"})
	for _, a := range audits {
		score := "-"
		if a.Status == types.AuditCompleted {
			score = fmt.Sprintf("%.0f", a.Score)
		}
		table.AddRow(a.ID, truncate(a.Title, 32), a.BuildingID, string(a.AuditType), string(a.Status), fmtTime(a.ScheduledAt), score)
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runAuditsShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	a, info, err := cachedGet(ctx, cliApp, "/api/v2/audits/"+url.PathEscape(id),
		func(ctx context.Context) (*types.Audit, error) {
			return client.GetAudit(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(a)
	}

	fmt.Printf("%s  (%s audit)\n", a.Title, a.AuditType)
	fmt.Printf("ID:        %s\n", a.ID)
	fmt.Printf("Building:  %s\n", a.BuildingID)
	fmt.Printf("Status:    %s\n", a.Status)
	if a.Description != "" {
		fmt.Printf("Details:   %s\n", a.Description)
	}
	if a.AuditorID != "" {
		fmt.Printf("Auditor:   %s\n", a.AuditorID)
	}
	fmt.Printf("Scheduled: %s\n", fmtTime(a.ScheduledAt))
	fmt.Printf("Started:   %s\n", fmtTime(a.StartedAt))
	fmt.Printf("Completed: %s\n", fmtTime(a.CompletedAt))
	if a.Status == types.AuditCompleted {
		fmt.Printf("Score:     %.0f/100 (%d findings)\n", a.Score, a.FindingCount)
	}
	return nil
}

func runAuditsCreate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.AuditRequest](auditsFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := client.CreateAudit(ctx, *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/audits")

	if flagJSON {
		return printJSON(a)
	}
	fmt.Printf("Created audit %s (%s)\n", a.ID, a.Title)
	return nil
}

func runAuditsUpdate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.AuditRequest](auditsFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	a, err := client.UpdateAudit(ctx, args[0], *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/audits")

	if flagJSON {
		return printJSON(a)
	}
	fmt.Printf("Updated audit %s\n", a.ID)
	return nil
}

func runAuditsSchedule(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	job, err := client.ScheduleAudit(ctx, args[0])
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/audits")

	if !auditsWait {
		if flagJSON {
			return printJSON(job)
		}
		fmt.Printf("Scheduling started, job %s\n", job.ID)
		fmt.Printf("Track it with: energygrid jobs watch %s\n", job.ID)
		return nil
	}
	return waitForJob(ctx, client, job.ID)
}
