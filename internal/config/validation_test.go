package config

import (
	"strings"
	"testing"
)

// validConfig returns a fully valid configuration for mutation in tests.
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Source.Path = "/data/customers.csv"
	cfg.Target.Host = "localhost"
	cfg.Target.User = "migrator"
	cfg.Target.Database = "crm"
	cfg.Target.Table = "customers"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "unsupported source type",
			mutate:  func(c *Config) { c.Source.Type = "parquet" },
			wantMsg: "source.type",
		},
		{
			name:    "missing source path",
			mutate:  func(c *Config) { c.Source.Path = "" },
			wantMsg: "source.path",
		},
		{
			name:    "missing target host",
			mutate:  func(c *Config) { c.Target.Host = "" },
			wantMsg: "target.host",
		},
		{
			name:    "invalid target port",
			mutate:  func(c *Config) { c.Target.Port = 70000 },
			wantMsg: "target.port",
		},
		{
			name:    "missing target table",
			mutate:  func(c *Config) { c.Target.Table = "" },
			wantMsg: "target.table",
		},
		{
			name:    "invalid tls mode",
			mutate:  func(c *Config) { c.Target.TLS = "maybe" },
			wantMsg: "target.tls",
		},
		{
			name:    "zero sample size",
			mutate:  func(c *Config) { c.Profiling.SampleSize = 0 },
			wantMsg: "profiling.sample_size",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Profiling.CompletenessThreshold = 1.5 },
			wantMsg: "completeness_threshold",
		},
		{
			name: "zero weights",
			mutate: func(c *Config) {
				c.Profiling.CompletenessWeight = 0
				c.Profiling.UniquenessWeight = 0
			},
			wantMsg: "at least one weight",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Processing.BatchSize = 0 },
			wantMsg: "processing.batch_size",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Processing.MaxRetries = -1 },
			wantMsg: "processing.max_retries",
		},
		{
			name:    "invalid policy",
			mutate:  func(c *Config) { c.Processing.Policy = "retry-forever" },
			wantMsg: "processing.policy",
		},
		{
			name:    "invalid verification method",
			mutate:  func(c *Config) { c.Verification.Method = "eyeball" },
			wantMsg: "verification.method",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantMsg: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error to mention %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestValidateLocal_IgnoresTarget(t *testing.T) {
	cfg := validConfig()
	cfg.Target = TargetConfig{} // no target settings at all

	if err := cfg.ValidateLocal(); err != nil {
		t.Errorf("expected local validation to pass without target config, got: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected full validation to fail without target config")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "broken"},
		{Field: "b", Message: "also broken"},
	}

	msg := errs.Error()
	if !strings.Contains(msg, "a: broken") || !strings.Contains(msg, "b: also broken") {
		t.Errorf("unexpected error message: %s", msg)
	}
}
