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
	complianceBuilding string
	complianceStandard string
	complianceResult   string
	compliancePage     int
	compliancePerPage  int
	complianceFile     string
	complianceWait     bool
)

// complianceCmd manages compliance checks
var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Manage compliance checks",
	Long: `Track buildings against energy codes and standards.

Available subcommands:
  list   - List compliance checks with optional filters
  show   - Show one check with its latest result
  create - Create a check from a JSON document
  run    - Start an evaluation run for a check`,
}

var complianceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compliance checks",
	RunE:  runComplianceList,
}

var complianceShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one compliance check",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplianceShow,
}

var complianceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a compliance check from a JSON document",
	RunE:  runComplianceCreate,
}

var complianceRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Start an evaluation run",
	Long: `Evaluate a check against the building's current data. Evaluation
runs server-side as a background job; pass --wait to block until the
result lands.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplianceRun,
}

func init() {
	complianceListCmd.Flags().StringVar(&complianceBuilding, "building", "", "Filter by building ID")
	complianceListCmd.Flags().StringVar(&complianceStandard, "standard", "", "Filter by standard (ashrae_90_1, iso_50001, local_energy_code, leed)")
	complianceListCmd.Flags().StringVar(&complianceResult, "result", "", "Filter by result (pending, passed, failed, needs_evidence)")
	complianceListCmd.Flags().IntVar(&compliancePage, "page", 0, "Page number")
	complianceListCmd.Flags().IntVar(&compliancePerPage, "per-page", 0, "Items per page")

	complianceCreateCmd.Flags().StringVarP(&complianceFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = complianceCreateCmd.MarkFlagRequired("file")

	complianceRunCmd.Flags().BoolVar(&complianceWait, "wait", false, "Block until the run finishes")

	complianceCmd.AddCommand(complianceListCmd)
	complianceCmd.AddCommand(complianceShowCmd)
	complianceCmd.AddCommand(complianceCreateCmd)
	complianceCmd.AddCommand(complianceRunCmd)
}

func runComplianceList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if complianceResult != "" && !types.KnownCheckResult(types.CheckResult(complianceResult)) {
		return fmt.Errorf("unknown result %q (pending, passed, failed, needs_evidence)", complianceResult)
	}

	filter := gridapi.ComplianceFilter{
		ListOptions: gridapi.ListOptions{Page: compliancePage, PerPage: compliancePerPage},
		BuildingID:  complianceBuilding,
		Standard:    types.ComplianceStandard(complianceStandard),
		Result:      types.CheckResult(complianceResult),
	}
	query := url.Values{}
	if compliancePage > 0 {
		query.Set("page", strconv.Itoa(compliancePage))
	}
	if compliancePerPage > 0 {
		query.Set("per_page", strconv.Itoa(compliancePerPage))
	}
	if complianceBuilding != "" {
		query.Set("building_id", complianceBuilding)
	}
	if complianceStandard != "" {
		query.Set("standard", complianceStandard)
	}
	if complianceResult != "" {
		query.Set("result", complianceResult)
	}

	ctx, cancel := commandContext()
	defer cancel()

	checks, meta, info, err := cachedList(ctx, cliApp, "/api/v2/compliance-checks", query,
		func(ctx context.Context) ([]types.ComplianceCheck, types.ListMeta, error) {
			return client.ListComplianceChecks(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(checks)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Compliance Checks (%d)", meta.TotalItems), []string{"ID", "BUILDING", "STANDARD", "REQUIREMENT", "RESULT", "LAST RUN", "DUE"})
	for _, c := range checks {
		table.AddRow(c.ID, c.BuildingID, string(c.Standard), truncate(c.Requirement, 36), string(c.Result), fmtTime(c.LastRunAt), fmtTime(c.DueAt))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runComplianceShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	c, info, err := cachedGet(ctx, cliApp, "/api/v2/compliance-checks/"+url.PathEscape(id),
		func(ctx context.Context) (*types.ComplianceCheck, error) {
			return client.GetComplianceCheck(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(c)
	}

	fmt.Printf("%s  [%s]\n", c.Requirement, c.Standard)
	fmt.Printf("ID:        %s\n", c.ID)
	fmt.Printf("Building:  %s\n", c.BuildingID)
	fmt.Printf("Result:    %s\n", c.Result)
	if c.Details != "" {
		fmt.Printf("Details:   %s\n", c.Details)
	}
	if c.EvidenceURL != "" {
		fmt.Printf("Evidence:  %s\n", c.EvidenceURL)
	}
	fmt.Printf("Last run:  %s", fmtTime(c.LastRunAt))
	if c.LastRunJobID != "" {
		fmt.Printf("  (job %s)", c.LastRunJobID)
	}
	fmt.Println()
	fmt.Printf("Due:       %s\n", fmtTime(c.DueAt))
	return nil
}

func runComplianceCreate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.ComplianceCheckRequest](complianceFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := client.CreateComplianceCheck(ctx, *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/compliance-checks")

	if flagJSON {
		return printJSON(c)
	}
	fmt.Printf("Created check %s (%s, %s)\n", c.ID, c.Standard, c.BuildingID)
	return nil
}

func runComplianceRun(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	job, err := client.RunComplianceCheck(ctx, args[0])
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/compliance-checks")

	if !complianceWait {
		if flagJSON {
			return printJSON(job)
		}
		fmt.Printf("Run started, job %s\n", job.ID)
		fmt.Printf("Track it with: energygrid jobs watch %s\n", job.ID)
		return nil
	}
	if err := waitForJob(ctx, client, job.ID); err != nil {
		return err
	}

	// The run updated the check; show the fresh result.
	c, err := client.GetComplianceCheck(ctx, args[0])
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/compliance-checks")
	if flagJSON {
		return printJSON(c)
	}
	fmt.Printf("Result: %s\n", c.Result)
	if c.Details != "" {
		fmt.Printf("Details: %s\n", c.Details)
	}
	return nil
}
