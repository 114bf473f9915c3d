package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values
// in the fields that commonly carry credentials or paths.
func substituteEnvVars(cfg *Config) {
	cfg.Source.Path = expandEnvVar(cfg.Source.Path)

	cfg.Target.Host = expandEnvVar(cfg.Target.Host)
	cfg.Target.User = expandEnvVar(cfg.Target.User)
	cfg.Target.Password = expandEnvVar(cfg.Target.Password)
	cfg.Target.Database = expandEnvVar(cfg.Target.Database)

	cfg.Suggest.URL = expandEnvVar(cfg.Suggest.URL)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar replaces environment variable references in a string.
// Unset variables are left unchanged so misconfigurations stay visible.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
