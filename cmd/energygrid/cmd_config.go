package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/config"
)

var configForce bool

// configCmd manages the config file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
	Long: `Inspect and edit the energygrid config file.

Available subcommands:
  show - Print the effective configuration
  set  - Set one value in the config file
  init - Write a fresh config file with defaults

Values resolve in three layers: built-in defaults, then the config
file, then ENERGYGRID_* environment variables. "show" prints the
merged result; "set" edits only the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one value in the config file",
	Long: `Set a config value by dotted key and save the file.

Supported keys:
  server.base_url          server.timeout          server.max_retries
  server.retry_base_delay  server.retry_max_delay  server.insecure_skip_verify
  cache.enabled            cache.path              cache.ttl
  cache.max_entries        ui.theme                ui.refresh_interval
  ui.default_building      logging.debug           logging.level
  logging.json_format      metrics.enabled         metrics.path`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a fresh config file with defaults",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if flagJSON {
		return printJSON(cliApp.cfg)
	}

	out, err := yaml.Marshal(cliApp.cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Printf("# %s\n", cliApp.configPath)
	fmt.Print(string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Edit the file layer only; env overrides stay out of the saved file.
	cfg, err := config.LoadFile(cliApp.configPath)
	if err != nil {
		return err
	}
	if err := applyConfigKey(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(cliApp.configPath); err != nil {
		return err
	}
	fmt.Printf("Set %s = %s in %s\n", key, value, cliApp.configPath)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cliApp.configPath
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (pass --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set your server with: energygrid config set server.base_url https://grid.example.com")
	return nil
}

func applyConfigKey(cfg *config.Config, key, value string) error {
	boolVal := func() (bool, error) {
		switch value {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return false, fmt.Errorf("%s takes a boolean, got %q", key, value)
	}
	intVal := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s takes an integer, got %q", key, value)
		}
		return n, nil
	}

	var err error
	switch key {
	case "server.base_url":
		cfg.Server.BaseURL = value
	case "server.timeout":
		cfg.Server.Timeout = value
	case "server.max_retries":
		cfg.Server.MaxRetries, err = intVal()
	case "server.retry_base_delay":
		cfg.Server.RetryBaseDelay = value
	case "server.retry_max_delay":
		cfg.Server.RetryMaxDelay = value
	case "server.insecure_skip_verify":
		cfg.Server.InsecureSkipVerify, err = boolVal()
	case "cache.enabled":
		cfg.Cache.Enabled, err = boolVal()
	case "cache.path":
		cfg.Cache.Path = value
	case "cache.ttl":
		cfg.Cache.TTL = value
	case "cache.max_entries":
		cfg.Cache.MaxEntries, err = intVal()
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.refresh_interval":
		cfg.UI.RefreshInterval = value
	case "ui.default_building":
		cfg.UI.DefaultBuilding = value
	case "logging.debug":
		cfg.Logging.Debug, err = boolVal()
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.json_format":
		cfg.Logging.JSONFormat, err = boolVal()
	case "metrics.enabled":
		cfg.Metrics.Enabled, err = boolVal()
	case "metrics.path":
		cfg.Metrics.Path = value
	default:
		return fmt.Errorf("unknown config key %q (see energygrid config set --help)", key)
	}
	return err
}
