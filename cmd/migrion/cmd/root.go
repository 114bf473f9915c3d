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
	cfgFile    string
	logLevel   string
	logFormat  string
	batchSize  int
	workers    int
	policy     string
	skipVerify bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "migrion",
	Short: "AI-assisted data migration pipeline",
	Long: `A CLI tool for migrating legacy datasets into a target schema with
AI-suggested field mappings.

The pipeline has three stages:
  1. Profile the source dataset (completeness, uniqueness, type inference, PII)
  2. Validate suggested field mappings into an executable rule set
  3. Execute the migration in batches with retry and post-migration verification`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "migrion.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override batch size (records per batch)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override number of parallel batch workers")
	rootCmd.PersistentFlags().StringVar(&policy, "policy", "",
		"Override failure policy (fail-fast, best-effort)")

	// Safety and output overrides
	rootCmd.PersistentFlags().BoolVar(&skipVerify, "skip-verify", false,
		"Skip post-migration verification")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel   string
	LogFormat  string
	BatchSize  int
	Workers    int
	Policy     string
	SkipVerify bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		BatchSize:  batchSize,
		Workers:    workers,
		Policy:     policy,
		SkipVerify: skipVerify,
	}
}
