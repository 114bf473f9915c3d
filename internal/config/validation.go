package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	errs := c.validateCommon()
	errs = append(errs, c.validateTarget()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateLocal checks every section except the target connection. Stages
// that never touch the target database (profiling, mapping validation, dry
// runs) use it so a local pipeline needs no target credentials.
func (c *Config) ValidateLocal() error {
	if errs := c.validateCommon(); len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateCommon() ValidationErrors {
	var errs ValidationErrors

	if c.Source.Type != "csv" {
		errs = append(errs, ValidationError{"source.type", fmt.Sprintf("unsupported source type %q (only csv)", c.Source.Type)})
	}
	if c.Source.Path == "" {
		errs = append(errs, ValidationError{"source.path", "source path is required"})
	}

	errs = append(errs, c.validateProfiling()...)
	errs = append(errs, c.validateProcessing()...)
	errs = append(errs, c.validateVerification()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateTarget() ValidationErrors {
	var errs ValidationErrors
	t := &c.Target

	if t.Driver != "mysql" {
		errs = append(errs, ValidationError{"target.driver", fmt.Sprintf("unsupported driver %q (only mysql)", t.Driver)})
	}
	if t.Host == "" {
		errs = append(errs, ValidationError{"target.host", "host is required"})
	}
	if t.Port <= 0 || t.Port > 65535 {
		errs = append(errs, ValidationError{"target.port", fmt.Sprintf("invalid port %d", t.Port)})
	}
	if t.User == "" {
		errs = append(errs, ValidationError{"target.user", "user is required"})
	}
	if t.Database == "" {
		errs = append(errs, ValidationError{"target.database", "database is required"})
	}
	if t.Table == "" {
		errs = append(errs, ValidationError{"target.table", "table is required"})
	}
	switch t.TLS {
	case "disable", "preferred", "required":
	default:
		errs = append(errs, ValidationError{"target.tls", fmt.Sprintf("invalid tls mode %q", t.TLS)})
	}
	return errs
}

func (c *Config) validateProfiling() ValidationErrors {
	var errs ValidationErrors
	p := &c.Profiling

	if p.SampleSize <= 0 {
		errs = append(errs, ValidationError{"profiling.sample_size", "must be positive"})
	}
	if p.CompletenessWeight < 0 || p.UniquenessWeight < 0 {
		errs = append(errs, ValidationError{"profiling", "weights must be non-negative"})
	}
	if p.CompletenessWeight+p.UniquenessWeight == 0 {
		errs = append(errs, ValidationError{"profiling", "at least one weight must be positive"})
	}
	if p.CompletenessThreshold < 0 || p.CompletenessThreshold > 1 {
		errs = append(errs, ValidationError{"profiling.completeness_threshold", "must be in [0,1]"})
	}
	return errs
}

func (c *Config) validateProcessing() ValidationErrors {
	var errs ValidationErrors
	p := &c.Processing

	if p.BatchSize <= 0 {
		errs = append(errs, ValidationError{"processing.batch_size", "must be positive"})
	}
	if p.Workers <= 0 {
		errs = append(errs, ValidationError{"processing.workers", "must be positive"})
	}
	if p.MaxRetries < 0 {
		errs = append(errs, ValidationError{"processing.max_retries", "must be non-negative"})
	}
	if p.WriteTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"processing.write_timeout_seconds", "must be positive"})
	}
	switch p.Policy {
	case "fail-fast", "best-effort":
	default:
		errs = append(errs, ValidationError{"processing.policy", fmt.Sprintf("invalid policy %q (fail-fast or best-effort)", p.Policy)})
	}
	return errs
}

func (c *Config) validateVerification() ValidationErrors {
	var errs ValidationErrors

	switch c.Verification.Method {
	case "count", "checksum":
	default:
		errs = append(errs, ValidationError{"verification.method", fmt.Sprintf("invalid method %q (count or checksum)", c.Verification.Method)})
	}
	return errs
}

func (c *Config) validateLogging() ValidationErrors {
	var errs ValidationErrors
	l := &c.Logging

	switch l.Level {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("invalid level %q", l.Level)})
	}
	switch l.Format {
	case "json", "text", "":
	default:
		errs = append(errs, ValidationError{"logging.format", fmt.Sprintf("invalid format %q", l.Format)})
	}
	return errs
}
