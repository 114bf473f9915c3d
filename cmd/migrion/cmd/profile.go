package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/migrion/internal/logger"
	"github.com/dbsmedya/migrion/internal/profiler"
	"github.com/dbsmedya/migrion/internal/report"
)

var profileJSONOut string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile the source dataset and report data quality",
	Long: `Profile analyzes the configured source dataset and reports per-field
statistics and an overall quality score.

Computed per field:
  - Inferred type (numeric, date, boolean, string)
  - Completeness (share of non-missing values)
  - Uniqueness (distinct share of non-missing values)
  - Likely PII flag (name and value-shape heuristics)

Example:
  migrion profile --config migrion.yaml --json report.json`,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileJSONOut, "json", "",
		"Write the quality report as JSON to this file")

	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ds, err := loadDataset(cfg)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	log.WithDataset(ds.Name).Infow("Profiling dataset",
		"records", ds.Len(),
		"fields", len(ds.Fields),
	)

	qualityReport, err := profiler.New(cfg.Profiling).Profile(ds)
	if err != nil {
		return fmt.Errorf("profiling failed: %w", err)
	}

	cmd.Print(report.New(!noColor).Quality(qualityReport))

	if err := exportJSON(profileJSONOut, qualityReport); err != nil {
		return err
	}
	return nil
}
