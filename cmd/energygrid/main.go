package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/auth"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
)

// Version is stamped by the release build; dev builds carry the default.
var Version = "dev"

var (
	// Global flags
	flagServer  string
	flagConfig  string
	flagJSON    bool
	flagVerbose bool
	flagNoCache bool
	flagCached  bool

	// Logger for non-interactive commands
	logger *zap.Logger

	// cliApp holds the wired config, client, session and cache for the
	// lifetime of one command invocation.
	cliApp *app
)

// Exit codes, so scripts can tell auth failures from missing resources.
const (
	exitGeneric    = 1
	exitValidation = 2
	exitAuth       = 3
	exitNotFound   = 4
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "energygrid",
	Short: "EnergyGrid admin console",
	Long: `energygrid is the terminal admin console for the EnergyGrid
energy/compliance-management platform.

It talks to the EnergyGrid REST API through a typed client that handles
session refresh, retries, and the server's snake_case wire dialect, so
every command sees clean camelCase resources.

Run without arguments to start the interactive dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use != "energygrid" || cmd.CalledAs() != "energygrid" {
			config := zap.NewProductionConfig()
			if flagVerbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}

		var err error
		cliApp, err = loadApp()
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Debug("config loaded",
				zap.String("path", cliApp.configPath),
				zap.String("server", cliApp.cfg.Server.BaseURL))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cliApp != nil {
			cliApp.shutdown()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive console
		return runInteractive()
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the energygrid version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("energygrid %s\n", Version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "API server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default ~/.energygrid/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print raw JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the local response cache")
	rootCmd.PersistentFlags().BoolVar(&flagCached, "cached", false, "Serve reads from the local cache when possible")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(buildingsCmd)
	rootCmd.AddCommand(equipmentCmd)
	rootCmd.AddCommand(auditsCmd)
	rootCmd.AddCommand(complianceCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		printFieldErrors(err)
		logging.CloseAll()
		os.Exit(exitCode(err))
	}
	logging.CloseAll()
}

// printFieldErrors expands per-field validation detail under the main
// error line, one field per line.
func printFieldErrors(err error) {
	var apiErr *gridapi.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return
	}
	for field, issues := range apiErr.Fields {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  %s %s\n", field, issue)
		}
	}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrSessionExpired):
		return exitAuth
	case gridapi.IsAuthError(err), gridapi.IsPermission(err):
		return exitAuth
	case gridapi.IsValidation(err):
		return exitValidation
	case gridapi.IsNotFound(err):
		return exitNotFound
	}
	return exitGeneric
}
