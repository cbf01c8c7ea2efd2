package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	reportsKind     string
	reportsStatus   string
	reportsBuilding string
	reportsPage     int
	reportsPerPage  int

	reportsFile    string
	generateTitle  string
	generateFormat string
	generateFrom   string
	generateTo     string
	reportsWait    bool
	downloadOutput string
)

// reportsCmd manages generated reports
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Generate and fetch reports",
	Long: `Queue report generation and download finished documents.

Available subcommands:
  list     - List reports with optional filters
  show     - Show one report with its summary
  generate - Queue generation of a new report
  download - Download a ready report`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsGenerateCmd = &cobra.Command{
	Use:   "generate <kind>",
	Short: "Queue generation of a new report",
	Long: `Queue a report for generation. Kind is one of energy_usage,
compliance_state, audit_summary or portfolio. Generation runs as a
background job; pass --wait to block until the document is ready.

For parameter-heavy reports pass --file with a full JSON request
instead of flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReportsGenerate,
}

var reportsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a ready report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsDownload,
}

func init() {
	reportsListCmd.Flags().StringVar(&reportsKind, "kind", "", "Filter by kind (energy_usage, compliance_state, audit_summary, portfolio)")
	reportsListCmd.Flags().StringVar(&reportsStatus, "status", "", "Filter by status (queued, generating, ready, failed)")
	reportsListCmd.Flags().StringVar(&reportsBuilding, "building", "", "Filter by building ID")
	reportsListCmd.Flags().IntVar(&reportsPage, "page", 0, "Page number")
	reportsListCmd.Flags().IntVar(&reportsPerPage, "per-page", 0, "Items per page")

	reportsGenerateCmd.Flags().StringVarP(&reportsFile, "file", "f", "", "Full JSON request document, or - for stdin")
	reportsGenerateCmd.Flags().StringVar(&generateTitle, "title", "", "Report title")
	reportsGenerateCmd.Flags().StringVar(&generateFormat, "format", "pdf", "Output format (pdf, csv, xlsx)")
	reportsGenerateCmd.Flags().StringVar(&reportsBuilding, "building", "", "Scope to one building")
	reportsGenerateCmd.Flags().StringVar(&generateFrom, "from", "", "Period start (RFC 3339 or YYYY-MM-DD)")
	reportsGenerateCmd.Flags().StringVar(&generateTo, "to", "", "Period end (RFC 3339 or YYYY-MM-DD)")
	reportsGenerateCmd.Flags().BoolVar(&reportsWait, "wait", false, "Block until generation finishes")

	reportsDownloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output path (default: server-suggested name, - for stdout)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsGenerateCmd)
	reportsCmd.AddCommand(reportsDownloadCmd)
}

func runReportsList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if reportsStatus != "" && !types.KnownReportStatus(types.ReportStatus(reportsStatus)) {
		return fmt.Errorf("unknown status %q (queued, generating, ready, failed)", reportsStatus)
	}

	filter := gridapi.ReportFilter{
		ListOptions: gridapi.ListOptions{Page: reportsPage, PerPage: reportsPerPage},
		Kind:        types.ReportKind(reportsKind),
		Status:      types.ReportStatus(reportsStatus),
		BuildingID:  reportsBuilding,
	}
	query := url.Values{}
	if reportsPage > 0 {
		query.Set("page", strconv.Itoa(reportsPage))
	}
	if reportsPerPage > 0 {
		query.Set("per_page", strconv.Itoa(reportsPerPage))
	}
	if reportsKind != "" {
		query.Set("kind", reportsKind)
	}
	if reportsStatus != "" {
		query.Set("status", reportsStatus)
	}
	if reportsBuilding != "" {
		query.Set("building_id", reportsBuilding)
	}

	ctx, cancel := commandContext()
	defer cancel()

	reports, meta, info, err := cachedList(ctx, cliApp, "/api/v2/reports", query,
		func(ctx context.Context) ([]types.Report, types.ListMeta, error) {
			return client.ListReports(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(reports)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Reports (%d)", meta.TotalItems), []string{"ID", "TITLE", "KIND", "FORMAT", "STATUS", "SIZE", "CREATED"})
	for _, r := range reports {
		size := "-"
		if r.SizeBytes > 0 {
			size = fmtBytes(r.SizeBytes)
		}
		table.AddRow(r.ID, truncate(r.Title, 32), string(r.Kind), string(r.Format), string(r.Status), size, fmtTimeVal(r.CreatedAt))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	r, info, err := cachedGet(ctx, cliApp, "/api/v2/reports/"+url.PathEscape(id),
		func(ctx context.Context) (*types.Report, error) {
			return client.GetReport(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(r)
	}

	fmt.Printf("%s  (%s, %s)\n", r.Title, r.Kind, r.Format)
	fmt.Printf("ID:        %s\n", r.ID)
	fmt.Printf("Status:    %s\n", r.Status)
	if r.BuildingID != "" {
		fmt.Printf("Building:  %s\n", r.BuildingID)
	}
	if r.PeriodStart != nil && r.PeriodEnd != nil {
		fmt.Printf("Period:    %s to %s\n", r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"))
	}
	if r.SizeBytes > 0 {
		fmt.Printf("Size:      %s\n", fmtBytes(r.SizeBytes))
	}
	fmt.Printf("Created:   %s\n", fmtTimeVal(r.CreatedAt))
	fmt.Printf("Completed: %s\n", fmtTime(r.CompletedAt))

	if r.Summary != "" {
		out, err := renderMarkdown(r.Summary)
		if err != nil {
			fmt.Printf("\n%s\n", r.Summary)
		} else {
			fmt.Print(out)
		}
	}
	return nil
}

func runReportsGenerate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	var req *types.ReportRequest
	if reportsFile != "" {
		if req, err = readJSONFile[types.ReportRequest](reportsFile); err != nil {
			return err
		}
	} else {
		if len(args) == 0 {
			return fmt.Errorf("report kind required (or pass --file)")
		}
		r := types.ReportRequest{
			Kind:       types.ReportKind(args[0]),
			Title:      generateTitle,
			Format:     types.ReportFormat(generateFormat),
			BuildingID: reportsBuilding,
		}
		if r.Title == "" {
			r.Title = fmt.Sprintf("%s %s", args[0], time.Now().Format("2006-01"))
		}
		if generateFrom != "" {
			t, err := parseWhen(generateFrom)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			r.PeriodStart = &t
		}
		if generateTo != "" {
			t, err := parseWhen(generateTo)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			r.PeriodEnd = &t
		}
		req = &r
	}

	ctx, cancel := commandContext()
	defer cancel()

	job, err := client.GenerateReport(ctx, *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/reports")

	if !reportsWait {
		if flagJSON {
			return printJSON(job)
		}
		fmt.Printf("Generation queued, job %s (report %s)\n", job.ID, job.ResourceID)
		fmt.Printf("Track it with: energygrid jobs watch %s\n", job.ID)
		return nil
	}

	if err := waitForJob(ctx, client, job.ID); err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/reports")
	if job.ResourceID != "" {
		fmt.Printf("Report ready: %s\n", job.ResourceID)
		fmt.Printf("Download with: energygrid reports download %s\n", job.ResourceID)
	}
	return nil
}

func runReportsDownload(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]

	if downloadOutput == "-" {
		_, err := client.DownloadReport(ctx, id, os.Stdout)
		return err
	}

	// Stream into a temp file first so an aborted download leaves nothing
	// half-written at the target path.
	tmp, err := os.CreateTemp(".", ".energygrid-download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	suggested, err := client.DownloadReport(ctx, id, tmp)
	closeErr := tmp.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	target := downloadOutput
	if target == "" {
		target = suggested
	}
	if target == "" {
		target = id + ".bin"
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("moving download into place: %w", err)
	}
	logger.Debug("report downloaded",
		zap.String("id", id),
		zap.String("path", target))

	info, err := os.Stat(target)
	if err == nil {
		fmt.Printf("Saved %s (%s)\n", target, fmtBytes(info.Size()))
	} else {
		fmt.Printf("Saved %s\n", target)
	}
	return nil
}
