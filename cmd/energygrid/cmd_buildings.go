package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	buildingsSearch  string
	buildingsStatus  string
	buildingsPage    int
	buildingsPerPage int
	buildingsFile    string
	buildingsYes     bool

	energyFrom       string
	energyTo         string
	energyResolution string
)

// buildingsCmd manages portfolio buildings
var buildingsCmd = &cobra.Command{
	Use:   "buildings",
	Short: "Manage portfolio buildings",
	Long: `List, inspect and edit the buildings in the portfolio.

Available subcommands:
  list   - List buildings with optional filters
  show   - Show one building in detail
  energy - Print a building's energy series
  create - Create a building from a JSON document
  update - Update a building from a JSON document
  delete - Delete a building`,
}

var buildingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List buildings",
	RunE:  runBuildingsList,
}

var buildingsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one building",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuildingsShow,
}

var buildingsEnergyCmd = &cobra.Command{
	Use:   "energy <id>",
	Short: "Print a building's energy series",
	Long: `Print consumption, generation and cost for a building over a window.

The window defaults to the last 30 days at daily resolution.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuildingsEnergy,
}

var buildingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a building from a JSON document",
	Long: `Create a building from a JSON document given with --file (use "-"
for stdin). The document is validated locally before anything is sent.`,
	RunE: runBuildingsCreate,
}

var buildingsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a building from a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuildingsUpdate,
}

var buildingsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a building",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuildingsDelete,
}

func init() {
	buildingsListCmd.Flags().StringVar(&buildingsSearch, "search", "", "Match against name, code and address")
	buildingsListCmd.Flags().StringVar(&buildingsStatus, "status", "", "Filter by status (active, under_retrofit, decommissioned)")
	buildingsListCmd.Flags().IntVar(&buildingsPage, "page", 0, "Page number")
	buildingsListCmd.Flags().IntVar(&buildingsPerPage, "per-page", 0, "Items per page")

	buildingsEnergyCmd.Flags().StringVar(&energyFrom, "from", "", "Window start (RFC 3339 or YYYY-MM-DD)")
	buildingsEnergyCmd.Flags().StringVar(&energyTo, "to", "", "Window end (RFC 3339 or YYYY-MM-DD)")
	buildingsEnergyCmd.Flags().StringVar(&energyResolution, "resolution", "daily", "Series resolution (hourly, daily, monthly)")

	buildingsCreateCmd.Flags().StringVarP(&buildingsFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = buildingsCreateCmd.MarkFlagRequired("file")
	buildingsUpdateCmd.Flags().StringVarP(&buildingsFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = buildingsUpdateCmd.MarkFlagRequired("file")

	buildingsDeleteCmd.Flags().BoolVar(&buildingsYes, "yes", false, "Skip the confirmation prompt")

	buildingsCmd.AddCommand(buildingsListCmd)
	buildingsCmd.AddCommand(buildingsShowCmd)
	buildingsCmd.AddCommand(buildingsEnergyCmd)
	buildingsCmd.AddCommand(buildingsCreateCmd)
	buildingsCmd.AddCommand(buildingsUpdateCmd)
	buildingsCmd.AddCommand(buildingsDeleteCmd)
}

func runBuildingsList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if buildingsStatus != "" && !types.KnownBuildingStatus(types.BuildingStatus(buildingsStatus)) {
		return fmt.Errorf("unknown status %q (active, under_retrofit, decommissioned)", buildingsStatus)
	}

	filter := gridapi.BuildingFilter{
		ListOptions: gridapi.ListOptions{Page: buildingsPage, PerPage: buildingsPerPage},
		Search:      buildingsSearch,
		Status:      types.BuildingStatus(buildingsStatus),
	}
	query := url.Values{}
	if buildingsPage > 0 {
		query.Set("page", strconv.Itoa(buildingsPage))
	}
	if buildingsPerPage > 0 {
		query.Set("per_page", strconv.Itoa(buildingsPerPage))
	}
	if buildingsSearch != "" {
		query.Set("search", buildingsSearch)
	}
	if buildingsStatus != "" {
		query.Set("status", buildingsStatus)
	}

	ctx, cancel := commandContext()
	defer cancel()

	buildings, meta, info, err := cachedList(ctx, cliApp, "/api/v2/buildings", query,
		func(ctx context.Context) ([]types.Building, types.ListMeta, error) {
			return client.ListBuildings(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(buildings)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Buildings (%d)", meta.TotalItems), []string{"CODE", "NAME", "CITY", "STATUS", "EUI", "EQUIP", "UPDATED"})
	for _, b := range buildings {
		eui := "-"
		if b.SiteEUI > 0 {
			eui = fmt.Sprintf("%.1f", b.SiteEUI)
		}
		table.AddRow(b.BuildingCode, truncate(b.Name, 32), dash(b.City), string(b.Status), eui, strconv.Itoa(b.EquipmentCount), fmtTimeVal(b.UpdatedAt))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runBuildingsShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	b, info, err := cachedGet(ctx, cliApp, "/api/v2/buildings/"+url.PathEscape(id),
		func(ctx context.Context) (*types.Building, error) {
			return client.GetBuilding(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(b)
	}

	fmt.Printf("%s  %s\n", b.BuildingCode, b.Name)
	fmt.Printf("ID:         %s\n", b.ID)
	fmt.Printf("Status:     %s\n", b.Status)
	if b.Address != "" {
		fmt.Printf("Address:    %s, %s %s\n", b.Address, b.City, b.PostalCode)
	}
	if b.FloorAreaM2 > 0 {
		fmt.Printf("Floor area: %.0f m2\n", b.FloorAreaM2)
	}
	if b.YearBuilt > 0 {
		fmt.Printf("Built:      %d\n", b.YearBuilt)
	}
	if b.SiteEUI > 0 {
		fmt.Printf("Site EUI:   %.1f kWh/m2/yr\n", b.SiteEUI)
	}
	fmt.Printf("Equipment:  %d\n", b.EquipmentCount)
	if b.ManagerID != "" {
		fmt.Printf("Manager:    %s\n", b.ManagerID)
	}
	fmt.Printf("Updated:    %s\n", fmtTimeVal(b.UpdatedAt))
	return nil
}

func runBuildingsEnergy(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	res := types.SeriesResolution(energyResolution)
	if !types.KnownSeriesResolution(res) {
		return fmt.Errorf("unknown resolution %q (hourly, daily, monthly)", energyResolution)
	}

	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now
	if energyFrom != "" {
		if from, err = parseWhen(energyFrom); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}
	if energyTo != "" {
		if to, err = parseWhen(energyTo); err != nil {
			return fmt.Errorf("--to: %w", err)
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	points, err := client.EnergySeries(ctx, args[0], gridapi.SeriesQuery{From: from, To: to, Resolution: res})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(points)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Energy %s to %s (%s)", from.Format("2006-01-02"), to.Format("2006-01-02"), res),
		[]string{"TIMESTAMP", "CONSUMED kWh", "GENERATED kWh", "PEAK kW", "CO2 kg", "COST USD"})
	var totalKWh, totalCost float64
	for _, p := range points {
		table.AddRow(
			p.Timestamp.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", p.KWhConsumed),
			fmt.Sprintf("%.1f", p.KWhGenerated),
			fmt.Sprintf("%.1f", p.PeakDemandKW),
			fmt.Sprintf("%.1f", p.CO2EmissionsKg),
			fmt.Sprintf("%.2f", p.CostUSD),
		)
		totalKWh += p.KWhConsumed
		totalCost += p.CostUSD
	}
	printTable(table)
	fmt.Printf("Total: %.1f kWh, $%.2f across %d points\n", totalKWh, totalCost, len(points))
	return nil
}

func runBuildingsCreate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.BuildingRequest](buildingsFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	b, err := client.CreateBuilding(ctx, *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/buildings")

	if flagJSON {
		return printJSON(b)
	}
	fmt.Printf("Created building %s (%s)\n", b.BuildingCode, b.ID)
	return nil
}

func runBuildingsUpdate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.BuildingRequest](buildingsFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	b, err := client.UpdateBuilding(ctx, args[0], *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/buildings")

	if flagJSON {
		return printJSON(b)
	}
	fmt.Printf("Updated building %s\n", b.BuildingCode)
	return nil
}

func runBuildingsDelete(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	if !buildingsYes && !confirm(fmt.Sprintf("Delete building %s? This removes its equipment links, audits and alerts.", args[0])) {
		fmt.Println("Aborted.")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := client.DeleteBuilding(ctx, args[0]); err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/buildings")
	fmt.Printf("Deleted building %s\n", args[0])
	return nil
}

// parseWhen accepts RFC 3339 or a bare date.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("want RFC 3339 or YYYY-MM-DD, got %q", s)
}

// confirm asks a yes/no question on the terminal.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
