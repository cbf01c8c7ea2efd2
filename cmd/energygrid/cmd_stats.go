package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/metrics"
)

// statsCmd reports local API call statistics
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show API call statistics",
	Long: `Show call counts, error rates and latency for API traffic from
this machine. Numbers accumulate across commands in a local file and
never leave the machine.

Available subcommands:
  reset - Zero the counters`,
	RunE: runStats,
}

var statsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero the counters",
	RunE:  runStatsReset,
}

func init() {
	statsCmd.AddCommand(statsResetCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	tracker, err := metrics.NewTracker(cliApp.cfg.MetricsPath())
	if err != nil {
		return err
	}

	stats := tracker.Stats()

	if flagJSON {
		return printJSON(stats)
	}

	total := stats.Total
	fmt.Printf("Calls:   %d (%d errors, %d retries)\n", total.Calls, total.Errors, total.Retries)
	if total.Calls > 0 {
		fmt.Printf("Latency: %d ms avg, %d ms max\n", total.AvgLatencyMS(), total.MaxLatencyMS)
	}

	if len(stats.ByStatus) > 0 {
		fmt.Println()
		table := ui.NewSimpleTable("By Status", []string{"STATUS", "CALLS"})
		for _, bucket := range sortedKeys(stats.ByStatus) {
			table.AddRow(bucket, fmt.Sprintf("%d", stats.ByStatus[bucket].Calls))
		}
		printTable(table)
	}

	if len(stats.ByEndpoint) > 0 {
		fmt.Println()
		table := ui.NewSimpleTable("By Endpoint", []string{"ENDPOINT", "CALLS", "ERRORS", "AVG MS", "MAX MS"})
		for _, endpoint := range sortedKeys(stats.ByEndpoint) {
			cs := stats.ByEndpoint[endpoint]
			table.AddRow(endpoint,
				fmt.Sprintf("%d", cs.Calls),
				fmt.Sprintf("%d", cs.Errors),
				fmt.Sprintf("%d", cs.AvgLatencyMS()),
				fmt.Sprintf("%d", cs.MaxLatencyMS))
		}
		printTable(table)
	}
	return nil
}

func runStatsReset(cmd *cobra.Command, args []string) error {
	tracker, err := metrics.NewTracker(cliApp.cfg.MetricsPath())
	if err != nil {
		return err
	}
	if err := tracker.Reset(); err != nil {
		return err
	}
	fmt.Println("Statistics reset.")
	return nil
}

func sortedKeys(m map[string]metrics.CallStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
