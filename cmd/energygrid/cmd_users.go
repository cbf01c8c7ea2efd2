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
	usersRole    string
	usersActive  string
	usersSearch  string
	usersPage    int
	usersPerPage int
	usersFile    string
	usersYes     bool
)

// usersCmd manages operator accounts
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage operator accounts",
	Long: `Administer the accounts that can sign in to EnergyGrid.

Available subcommands:
  list       - List accounts with optional filters
  show       - Show one account
  create     - Create an account from a JSON document
  update     - Update an account from a JSON document
  deactivate - Disable sign-in for an account`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE:  runUsersList,
}

var usersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersShow,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account from a JSON document",
	RunE:  runUsersCreate,
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an account from a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersUpdate,
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Disable sign-in for an account",
	Long: `Disable sign-in without deleting the account. Audit trails and
resolved alerts keep pointing at it.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersDeactivate,
}

func init() {
	usersListCmd.Flags().StringVar(&usersRole, "role", "", "Filter by role (admin, manager, auditor, viewer)")
	usersListCmd.Flags().StringVar(&usersActive, "active", "", "Filter by active state (true, false)")
	usersListCmd.Flags().StringVar(&usersSearch, "search", "", "Match against name and email")
	usersListCmd.Flags().IntVar(&usersPage, "page", 0, "Page number")
	usersListCmd.Flags().IntVar(&usersPerPage, "per-page", 0, "Items per page")

	usersCreateCmd.Flags().StringVarP(&usersFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = usersCreateCmd.MarkFlagRequired("file")
	usersUpdateCmd.Flags().StringVarP(&usersFile, "file", "f", "", "JSON document path, or - for stdin (required)")
	_ = usersUpdateCmd.MarkFlagRequired("file")

	usersDeactivateCmd.Flags().BoolVar(&usersYes, "yes", false, "Skip the confirmation prompt")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersShowCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(usersDeactivateCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	if usersRole != "" && !types.KnownUserRole(types.UserRole(usersRole)) {
		return fmt.Errorf("unknown role %q (admin, manager, auditor, viewer)", usersRole)
	}

	filter := gridapi.UserFilter{
		ListOptions: gridapi.ListOptions{Page: usersPage, PerPage: usersPerPage},
		Role:        types.UserRole(usersRole),
		Search:      usersSearch,
	}
	query := url.Values{}
	if usersPage > 0 {
		query.Set("page", strconv.Itoa(usersPage))
	}
	if usersPerPage > 0 {
		query.Set("per_page", strconv.Itoa(usersPerPage))
	}
	if usersRole != "" {
		query.Set("role", usersRole)
	}
	switch usersActive {
	case "":
	case "true", "false":
		active := usersActive == "true"
		filter.Active = &active
		query.Set("active", usersActive)
	default:
		return fmt.Errorf("--active takes true or false, got %q", usersActive)
	}
	if usersSearch != "" {
		query.Set("search", usersSearch)
	}

	ctx, cancel := commandContext()
	defer cancel()

	users, meta, info, err := cachedList(ctx, cliApp, "/api/v2/users", query,
		func(ctx context.Context) ([]types.User, types.ListMeta, error) {
			return client.ListUsers(ctx, filter)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(users)
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Users (%d)", meta.TotalItems), []string{"ID", "NAME", "EMAIL", "ROLE", "ACTIVE", "2FA", "LAST LOGIN"})
	for _, u := range users {
		active := "yes"
		if !u.Active {
			active = "no"
		}
		twoFA := "-"
		if u.TwoFactorEnabled {
			twoFA = "on"
		}
		table.AddRow(u.ID, truncate(u.DisplayName(), 28), u.Email, string(u.Role), active, twoFA, fmtTime(u.LastLoginAt))
	}
	printTable(table)
	printMeta(meta)
	return nil
}

func runUsersShow(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id := args[0]
	u, info, err := cachedGet(ctx, cliApp, "/api/v2/users/"+url.PathEscape(id),
		func(ctx context.Context) (*types.User, error) {
			return client.GetUser(ctx, id)
		})
	if err != nil {
		return err
	}
	printCacheNote(info)

	if flagJSON {
		return printJSON(u)
	}

	fmt.Printf("%s  <%s>\n", u.DisplayName(), u.Email)
	fmt.Printf("ID:         %s\n", u.ID)
	fmt.Printf("Role:       %s\n", u.Role)
	fmt.Printf("Active:     %t\n", u.Active)
	fmt.Printf("2FA:        %t\n", u.TwoFactorEnabled)
	fmt.Printf("Last login: %s\n", fmtTime(u.LastLoginAt))
	return nil
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.UserRequest](usersFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	u, err := client.CreateUser(ctx, *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/users")

	if flagJSON {
		return printJSON(u)
	}
	fmt.Printf("Created account %s (%s, %s)\n", u.ID, u.Email, u.Role)
	return nil
}

func runUsersUpdate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	req, err := readJSONFile[types.UserRequest](usersFile)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	u, err := client.UpdateUser(ctx, args[0], *req)
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/users")

	if flagJSON {
		return printJSON(u)
	}
	fmt.Printf("Updated account %s\n", u.Email)
	return nil
}

func runUsersDeactivate(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	if !usersYes && !confirm(fmt.Sprintf("Deactivate account %s? They will be signed out everywhere.", args[0])) {
		fmt.Println("Aborted.")
		return nil
	}

	ctx, cancel := commandContext()
	defer cancel()

	u, err := client.DeactivateUser(ctx, args[0])
	if err != nil {
		return err
	}
	cliApp.invalidate("/api/v2/users")

	if flagJSON {
		return printJSON(u)
	}
	fmt.Printf("Deactivated %s\n", u.Email)
	return nil
}
