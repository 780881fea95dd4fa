package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/shopsync/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate checks the configuration file for required fields and
valid values without touching the remote API.

Checks performed:
  - Configuration syntax
  - Store and access token presence
  - API version format
  - Start date format
  - Polling and logging settings

Example:
  shopsync validate --config shopsync.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.PollInterval, overrides.PollTimeout, overrides.Bulk)

	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd.Printf("Configuration OK\n")
	cmd.Printf("  Config file: %s\n", configFile)
	cmd.Printf("  Store: %s\n", cfg.Store)
	cmd.Printf("  API version: %s\n", cfg.APIVersion)
	cmd.Printf("  Mode: %s\n", modeName(cfg.Bulk))
	if len(cfg.Entities) > 0 {
		cmd.Printf("  Entities: %d selected\n", len(cfg.Entities))
	} else {
		cmd.Printf("  Entities: all discovered\n")
	}

	return nil
}

func modeName(bulk bool) string {
	if bulk {
		return "bulk"
	}
	return "interactive"
}
