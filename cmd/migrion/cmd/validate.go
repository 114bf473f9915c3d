package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/logger"
	"github.com/dbsmedya/migrion/internal/mapping"
	"github.com/dbsmedya/migrion/internal/profiler"
	"github.com/dbsmedya/migrion/internal/report"
	"github.com/dbsmedya/migrion/internal/source"
	"github.com/dbsmedya/migrion/internal/suggest"
	"github.com/dbsmedya/migrion/internal/types"
)

var (
	validateSchemaFile     string
	validateCandidatesFile string
	validateJSONOut        string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate mapping candidates against the profile and target schema",
	Long: `Validate turns suggested field mappings into an executable rule set.

Candidates are read from a JSON file (--candidates) or requested from the
configured suggestion service. Each candidate is checked against the source
profile and the target schema; rejected candidates are reported with the
rejection reason.

Example:
  migrion validate --config migrion.yaml --schema customers.json --candidates mappings.json`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateSchemaFile, "schema", "s", "",
		"Target schema JSON file (required)")
	validateCmd.MarkFlagRequired("schema")

	validateCmd.Flags().StringVar(&validateCandidatesFile, "candidates", "",
		"Mapping candidates JSON file (default: query the suggestion service)")
	validateCmd.Flags().StringVar(&validateJSONOut, "json", "",
		"Write the validated rule set as JSON to this file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	_, _, _, ruleset, rejected, err := validatePipeline(cmd.Context(), cfg, log)
	if err != nil && !errors.Is(err, mapping.ErrEmptyMappingSet) {
		return err
	}

	if ruleset == nil {
		ruleset = &mapping.RuleSet{}
	}
	cmd.Print(report.New(!noColor).Validation(ruleset, rejected))

	if exportErr := exportJSON(validateJSONOut, struct {
		Rules    *mapping.RuleSet   `json:"ruleset"`
		Rejected []mapping.Rejected `json:"rejected"`
	}{ruleset, rejected}); exportErr != nil {
		return exportErr
	}

	if err != nil {
		return err
	}

	log.Infow("Mapping validated",
		"rules", len(ruleset.Rules),
		"rejected", len(rejected),
	)
	return nil
}

// validatePipeline runs the profile and validation stages shared by the
// validate and migrate commands.
func validatePipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (*types.Dataset, *profiler.QualityReport, *types.Schema, *mapping.RuleSet, []mapping.Rejected, error) {
	ds, err := loadDataset(cfg)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	qualityReport, err := profiler.New(cfg.Profiling).Profile(ds)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("profiling failed: %w", err)
	}

	schema, err := source.LoadSchema(validateSchemaFile)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	candidates, err := loadCandidates(ctx, cfg, qualityReport, schema, ds)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	log.Infow("Validating mapping candidates",
		"candidates", len(candidates),
		"schema", schema.Name,
	)

	ruleset, rejected, err := mapping.NewValidator().Validate(candidates, qualityReport, schema)
	return ds, qualityReport, schema, ruleset, rejected, err
}

// loadCandidates reads candidates from the file flag when given, otherwise
// asks the configured suggestion service.
func loadCandidates(ctx context.Context, cfg *config.Config, qualityReport *profiler.QualityReport, schema *types.Schema, ds *types.Dataset) ([]mapping.Candidate, error) {
	if validateCandidatesFile != "" {
		return suggest.LoadCandidatesFile(validateCandidatesFile)
	}

	client, err := suggest.NewHTTP(&cfg.Suggest)
	if err != nil {
		return nil, fmt.Errorf("no candidates file given and %w", err)
	}
	return client.Suggest(ctx, qualityReport, schema, ds.Records)
}
