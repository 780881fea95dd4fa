package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	logLevel     string
	logFormat    string
	pollInterval int
	pollTimeout  int
	useBulk      bool
)

var rootCmd = &cobra.Command{
	Use:   "shopsync",
	Short: "Shopify GraphQL Extractor",
	Long: `A CLI tool for extracting entity data from the Shopify Admin GraphQL API
without any maintained field mapping.

Features:
  - Introspection-driven entity discovery and schema inference
  - Cost-aware adaptive pagination with budget backpressure
  - Asynchronous bulk extraction jobs (submit/poll/stream)
  - Field-level error recovery that prunes inaccessible fields and retries
  - Incremental sync via per-entity checkpoints`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "shopsync.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Mode overrides
	rootCmd.PersistentFlags().BoolVar(&useBulk, "bulk", false,
		"Use the asynchronous bulk API instead of paged queries")
	rootCmd.PersistentFlags().IntVar(&pollInterval, "poll-interval", 0,
		"Override bulk poll interval in seconds")
	rootCmd.PersistentFlags().IntVar(&pollTimeout, "poll-timeout", 0,
		"Override bulk poll timeout in seconds")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel     string
	LogFormat    string
	PollInterval int
	PollTimeout  int
	Bulk         bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		PollInterval: pollInterval,
		PollTimeout:  pollTimeout,
		Bulk:         useBulk,
	}
}
