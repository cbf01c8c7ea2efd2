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
	equipmentBuilding string
	equipmentCategory string
	equipmentStatus   string
	equipmentPage     int
	equipmentPerPage  int
	equipmentFile     string
	equipmentYes      bool
)

// equipmentCmd manages monitored equipment
var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Manage monitored equipment",
	Long: `List, inspect and edit the equipment tracked across buildings.

Available subcommands:
  list   - List equipment with optional filters
  show   - Show one piece of equipment
  create - Register equipment from a JSON document
  update - Update equipment from a JSON document
  delete - Remove equipment`,
}

var equipmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List equipment",
	RunE:  runEquipmentList,
}

var equipmentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one piece of equipment",
	Args:  cobra.ExactArgs(1),
	RunE:  runEquipmentShow,
}

var equipmentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register equipment from a JSON document",
	RunE:  runEquipmentCreate,
}

var equipmentUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update equipment from a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runEquipmentUpdate,
}

var equipmentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove equipment",
	Args:  cobra.ExactArgs(1),
	RunE:  runEquipmentDelete,
}

func init() {
	equipmentListCmd.Flags().StringVar(&equipmentBuilding, "building", "", "Filter by building ID")
	equipmentListCmd.Flags().StringVar(&equipmentCategory, "category", "", "Filter by category (hvac, lighting, metering, boiler, chiller, solar, other)")
	equipmentListCmd.Flags().StringVar(&equipmentStatus, "status", "", "Filter by maintenance status (ok, due, overdue, in_service, retired)")
	equipmentListCmd.Flags().IntVar(&equipmentPage, "page", 0, "Page number")
	equipmentListCmd.Flags().IntVar(&equipmentPerPage, "per-page", 0, "Items per page")

	equipmentCreateCmd.Flags().StringVarP(&equipmentFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = equipmentCreateCmd.MarkFlagRequired("file")
	equipmentUpdateCmd.Flags().StringVarP(&equipmentFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = equipmentUpdateCmd.MarkFlagRequired("file")

	equipmentDeleteCmd.Flags().BoolVar(&equipmentYes, "yes", false, "Skip the confirmation prompt")

	equipmentCmd.AddCommand(equipmentListCmd)
	equipmentCmd.AddCommand(equipmentShowCmd)
	equipmentCmd.AddCommand(equipmentCreateCmd)
	equipmentCmd.AddCommand(equipmentUpdateCmd)
	equipmentCmd.AddCommand(equipmentDeleteCmd)
}

func runEquipmentList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if equipmentStatus != "" && !types.KnownMaintenanceStatus(types.MaintenanceStatus(equipmentStatus)) {
		return fmt.Errorf("unknown maintenance status %q (ok, due, overdue, in_service, retired)", equipmentStatus)
	}

	filter := gridapi.EquipmentFilter{
		ListOptions: gridapi.ListOptions{Page: equipmentPage, PerPage: equipmentPerPage},
		BuildingID:  equipmentBuilding,
		Category:    types.EquipmentCategory(equipmentCategory),
		Status:      types.MaintenanceStatus(equipmentStatus),
	}
	query := url.Values{}
	if equipmentPage > 0 {
		query.Set("page", strconv.Itoa(equipmentPage))
	}
	if equipmentPerPage > 0 {
		query.Set("per_page", strconv.Itoa(equipmentPerPage))
	}
	if equipmentBuilding != "" {
		query.Set("building_id", equipmentBuilding)
	}
	if equipmentCategory != "" {
		query.Set("category", equipmentCategory)
	}
	if equipmentStatus != "" {
		query.Set("maintenance_status", equipmentStatus)
	}

	ctx, cancel := commandContext()
	defer cancel()

	items, meta, info, err := cachedList(ctx, cliApp, "/api/v2/equipment", query,
		func(ctx context.Context) ([]types.Equipment, types.ListMeta, error) {
			return client.ListEquipment(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(items)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Equipment (%d)", meta.TotalItems), []string{"ID", "NAME", "BUILDING", "CATEGORY", "MAINT", "kW", "SERVICED"})
	for _, e := range items {
		kw := "-"
		if e.RatedPowerKW > 0 {
			kw = fmt.Sprintf("%.1f", e.RatedPowerKW)
		}
		table.AddRow(e.ID, truncate(e.Name, 28), e.BuildingID, string(e.Category), string(e.MaintenanceStatus), kw, fmtTime(e.LastServicedAt))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runEquipmentShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	e, info, err := cachedGet(ctx, cliApp, "/api/v2/equipment/"+url.PathEscape(id),
		func(ctx context.Context) (*types.Equipment, error) {
			return client.GetEquipment(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(e)
	}

	fmt.Printf("%s  (%s)\n", e.Name, e.Category)
	fmt.Printf("ID:           %s\n", e.ID)
	fmt.Printf("Building:     %s\n", e.BuildingID)
	fmt.Printf("Maintenance:  %s\n", e.MaintenanceStatus)
	if e.Manufacturer != "" {
		fmt.Printf("Make/model:   %s %s\n", e.Manufacturer, e.ModelNumber)
	}
	if e.SerialNumber != "" {
		fmt.Printf("Serial:       %s\n", e.SerialNumber)
	}
	if e.RatedPowerKW > 0 {
		fmt.Printf("Rated power:  %.1f kW\n", e.RatedPowerKW)
	}
	if e.ScadaURL != "" {
		fmt.Printf("SCADA:        %s\n", e.ScadaURL)
	}
	fmt.Printf("Installed:    %s\n", fmtTime(e.InstalledAt))
	fmt.Printf("Serviced:     %s\n", fmtTime(e.LastServicedAt))
	return nil
}

func runEquipmentCreate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.EquipmentRequest](equipmentFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	e, err := client.CreateEquipment(ctx, *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/equipment")

	if flagJSON {
		return printJSON(e)
	}
	fmt.Printf("Registered %s (%s) in building %s\n", e.Name, e.ID, e.BuildingID)
	return nil
}

func runEquipmentUpdate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.EquipmentRequest](equipmentFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	e, err := client.UpdateEquipment(ctx, args[0], *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/equipment")

	if flagJSON {
		return printJSON(e)
	}
	fmt.Printf("Updated %s\n", e.Name)
	return nil
}

func runEquipmentDelete(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	if !equipmentYes && !confirm(fmt.Sprintf("Remove equipment %s?", args[0])) {
		fmt.Println("Aborted.")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := client.DeleteEquipment(ctx, args[0]); err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/equipment")
	fmt.Printf("Removed equipment %s\n", args[0])
	return nil
}
