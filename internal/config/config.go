// Package config provides configuration structures and loading for Migrion.
package config

// Config represents the complete application configuration.
type Config struct {
	Source       SourceConfig       `yaml:"source" mapstructure:"source"`
	Target       TargetConfig       `yaml:"target" mapstructure:"target"`
	Suggest      SuggestConfig      `yaml:"suggest" mapstructure:"suggest"`
	Profiling    ProfilingConfig    `yaml:"profiling" mapstructure:"profiling"`
	Processing   ProcessingConfig   `yaml:"processing" mapstructure:"processing"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig describes where the legacy dataset is read from.
type SourceConfig struct {
	Type    string `yaml:"type" mapstructure:"type"` // csv
	Path    string `yaml:"path" mapstructure:"path"`
	Dataset string `yaml:"dataset" mapstructure:"dataset"` // dataset identifier for reports
}

// TargetConfig describes the target store connection and destination table.
type TargetConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Table              string `yaml:"table" mapstructure:"table"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// SuggestConfig describes the external mapping suggestion service.
type SuggestConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ProfilingConfig holds thresholds and weights for data quality profiling.
type ProfilingConfig struct {
	SampleSize            int      `yaml:"sample_size" mapstructure:"sample_size"`
	CompletenessWeight    float64  `yaml:"completeness_weight" mapstructure:"completeness_weight"`
	UniquenessWeight      float64  `yaml:"uniqueness_weight" mapstructure:"uniqueness_weight"`
	CompletenessThreshold float64  `yaml:"completeness_threshold" mapstructure:"completeness_threshold"`
	ExpectedUniqueFields  []string `yaml:"expected_unique_fields" mapstructure:"expected_unique_fields"`
}

// ProcessingConfig represents batch execution settings.
type ProcessingConfig struct {
	BatchSize          int     `yaml:"batch_size" mapstructure:"batch_size"`
	Workers            int     `yaml:"workers" mapstructure:"workers"`
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffMillis int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	WriteTimeoutSecs   float64 `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	Policy             string  `yaml:"policy" mapstructure:"policy"` // fail-fast or best-effort
}

// VerificationConfig represents post-migration verification settings.
type VerificationConfig struct {
	Method           string `yaml:"method" mapstructure:"method"` // count or checksum
	SkipVerification bool   `yaml:"skip_verification" mapstructure:"skip_verification"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Type: "csv",
		},
		Target: TargetConfig{
			Driver:             "mysql",
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Suggest: SuggestConfig{
			TimeoutSeconds: 30,
		},
		Profiling: ProfilingConfig{
			SampleSize:            100,
			CompletenessWeight:    0.6,
			UniquenessWeight:      0.4,
			CompletenessThreshold: 0.9,
		},
		Processing: ProcessingConfig{
			BatchSize:          1000,
			Workers:            2,
			MaxRetries:         3,
			RetryBackoffMillis: 500,
			WriteTimeoutSecs:   30,
			Policy:             "fail-fast",
		},
		Verification: VerificationConfig{
			Method:           "count",
			SkipVerification: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies non-zero CLI flag values on top of the loaded config.
func (c *Config) ApplyOverrides(logLevel, logFormat string, batchSize, workers int, policy string, skipVerify bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if batchSize > 0 {
		c.Processing.BatchSize = batchSize
	}
	if workers > 0 {
		c.Processing.Workers = workers
	}
	if policy != "" {
		c.Processing.Policy = policy
	}
	if skipVerify {
		c.Verification.SkipVerification = true
	}
}
