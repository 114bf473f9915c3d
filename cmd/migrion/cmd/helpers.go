package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/source"
	"github.com/dbsmedya/migrion/internal/types"
)

// loadConfig loads the config file and applies CLI overrides. Commands that
// never touch the target database pass requireTarget=false so a local
// pipeline needs no target credentials.
func loadConfig(requireTarget bool) (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.BatchSize, overrides.Workers,
		overrides.Policy, overrides.SkipVerify)

	validate := cfg.ValidateLocal
	if requireTarget {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadDataset reads the source dataset configured in the source section.
func loadDataset(cfg *config.Config) (*types.Dataset, error) {
	if cfg.Source.Type != "csv" {
		return nil, fmt.Errorf("unsupported source type %q", cfg.Source.Type)
	}
	if cfg.Source.Path == "" {
		return nil, fmt.Errorf("source path is not configured")
	}

	ds, err := source.NewCSV(cfg.Source.Path).Read()
	if err != nil {
		return nil, err
	}
	if cfg.Source.Dataset != "" {
		ds.Name = cfg.Source.Dataset
	}
	return ds, nil
}

// exportJSON writes v as indented JSON to the given path when it is set.
func exportJSON(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}
