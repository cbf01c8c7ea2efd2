package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	jobsKind    string
	jobsState   string
	jobsPage    int
	jobsPerPage int
)

// jobsCmd tracks background jobs
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Track background jobs",
	Long: `Inspect the server-side jobs behind long operations (compliance
runs, report generation, audit scheduling, data ingests).

Available subcommands:
  list  - List jobs with optional filters
  show  - Show one job
  watch - Poll a job until it finishes`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Poll a job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsWatch,
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsKind, "kind", "", "Filter by kind (compliance_run, report_generate, audit_schedule, data_ingest)")
	jobsListCmd.Flags().StringVar(&jobsState, "state", "", "Filter by state (queued, running, succeeded, failed, cancelled)")
	jobsListCmd.Flags().IntVar(&jobsPage, "page", 0, "Page number")
	jobsListCmd.Flags().IntVar(&jobsPerPage, "per-page", 0, "Items per page")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsWatchCmd)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if jobsState != "" && !types.KnownJobState(types.JobState(jobsState)) {
		return fmt.Errorf("unknown state %q (queued, running, succeeded, failed, cancelled)", jobsState)
	}

	filter := gridapi.JobFilter{
		ListOptions: gridapi.ListOptions{Page: jobsPage, PerPage: jobsPerPage},
		Kind:        types.JobKind(jobsKind),
		State:       types.JobState(jobsState),
	}

	ctx, cancel := commandContext()
	defer cancel()

	// Job states flip too fast for cached listings to be useful.
	jobs, meta, err := client.ListJobs(ctx, filter)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(jobs)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Jobs (%d)", meta.TotalItems), []string{"ID", "KIND", "STATE", "PROGRESS", "RESOURCE", "ENQUEUED", "FINISHED"})
	for _, j := range jobs {
		table.AddRow(j.ID, string(j.Kind), string(j.State), jobProgress(j), dash(j.ResourceID), fmtTimeVal(j.EnqueuedAt), fmtTime(j.FinishedAt))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	j, err := client.GetJob(ctx, args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(j)
	}

	fmt.Printf("Job %s (%s)\n", j.ID, j.Kind)
	fmt.Printf("State:    %s\n", j.State)
	fmt.Printf("Progress: %s\n", jobProgress(*j))
	if j.Message != "" {
		fmt.Printf("Message:  %s\n", j.Message)
	}
	if j.ResourceID != "" {
		fmt.Printf("Resource: %s\n", j.ResourceID)
	}
	if j.Error != "" {
		fmt.Printf("Error:    %s\n", j.Error)
	}
	fmt.Printf("Enqueued: %s\n", fmtTimeVal(j.EnqueuedAt))
	fmt.Printf("Started:  %s\n", fmtTime(j.StartedAt))
	fmt.Printf("Finished: %s\n", fmtTime(j.FinishedAt))
	return nil
}

func runJobsWatch(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	return waitForJob(ctx, client, args[0])
}

// waitForJob polls a job to completion, printing progress as it moves.
// Shared by every --wait flag and jobs watch.
func waitForJob(ctx context.Context, client *gridapi.Client, id string) error {
	logger.Debug("watching job", zap.String("id", id))

	var lastLine string
	job, err := client.AwaitJob(ctx, id, gridapi.AwaitOptions{
		OnProgress: func(j types.Job) {
			line := fmt.Sprintf("%s %s %s", j.ID, j.State, jobProgress(j))
			if j.Message != "" {
				line += "  " + j.Message
			}
			if line == lastLine {
				return
			}
			lastLine = line
			fmt.Println(line)
		},
	})
	if err != nil {
		return err
	}
	logger.Debug("job finished",
		zap.String("id", job.ID),
		zap.String("state", string(job.State)),
		zap.String("resource", job.ResourceID))
	if flagJSON {
		return printJSON(job)
	}
	fmt.Printf("Job %s succeeded", job.ID)
	if job.ResourceID != "" {
		fmt.Printf(" (resource %s)", job.ResourceID)
	}
	fmt.Println()
	return nil
}

// jobProgress renders a small text bar for running jobs.
func jobProgress(j types.Job) string {
	if j.Succeeded() {
		return "100%"
	}
	if j.Progress <= 0 {
		return "-"
	}
	filled := j.Progress / 10
	bar := strings.Repeat("#", filled) + strings.Repeat(".", 10-filled)
	return fmt.Sprintf("[%s] %d%%", bar, j.Progress)
}
