// Package profiler computes per-field statistics and a quality score for a dataset.
//
// Profiling is a pure function of its input: no randomness, no side effects,
// and the same dataset always produces an identical report.
package profiler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/types"
)

// ErrInvalidInput is returned when the dataset is empty or has no fields.
var ErrInvalidInput = errors.New("invalid input: dataset is empty or has no fields")

// Severity classifies how serious a detected issue is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue kinds produced by the profiler.
const (
	IssueMissingValues    = "missing-values"
	IssueDuplicateValues  = "duplicate-values"
	IssueLowCardinalityID = "low-cardinality-id"
)

// NumericStats holds summary statistics for numeric fields.
type NumericStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// FieldProfile holds the computed statistics for a single field.
// Profiles are created fresh on every run and never mutated afterwards.
type FieldProfile struct {
	Name         string          `json:"name"`
	InferredType types.FieldType `json:"inferred_type"`
	Completeness float64         `json:"completeness"`
	Uniqueness   float64         `json:"uniqueness"`
	// PIILikely is a heuristic based on field names and value shapes.
	// It flags fields worth reviewing; it is not a guarantee either way.
	PIILikely bool          `json:"pii_likely"`
	Samples   []string      `json:"samples,omitempty"`
	Numeric   *NumericStats `json:"numeric,omitempty"`
}

// Issue describes a data quality problem detected during profiling.
type Issue struct {
	Kind     string   `json:"kind"`
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// QualityReport is the result of profiling one dataset. Immutable once produced.
type QualityReport struct {
	Dataset         string         `json:"dataset"`
	RecordCount     int            `json:"record_count"`
	Profiles        []FieldProfile `json:"profiles"`
	Score           float64        `json:"score"`
	Issues          []Issue        `json:"issues"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

// Profile returns the FieldProfile for the named field, or false if absent.
func (r *QualityReport) Profile(field string) (*FieldProfile, bool) {
	for i := range r.Profiles {
		if r.Profiles[i].Name == field {
			return &r.Profiles[i], true
		}
	}
	return nil, false
}

// Profiler computes quality reports for datasets.
type Profiler struct {
	cfg config.ProfilingConfig
}

// New creates a Profiler with the given profiling configuration.
// Zero or missing weights fall back to the defaults.
func New(cfg config.ProfilingConfig) *Profiler {
	def := config.DefaultConfig().Profiling
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.CompletenessWeight+cfg.UniquenessWeight <= 0 {
		cfg.CompletenessWeight = def.CompletenessWeight
		cfg.UniquenessWeight = def.UniquenessWeight
	}
	if cfg.CompletenessThreshold <= 0 || cfg.CompletenessThreshold > 1 {
		cfg.CompletenessThreshold = def.CompletenessThreshold
	}
	return &Profiler{cfg: cfg}
}

// Profile analyzes the dataset and produces a QualityReport.
// The dataset is read-only to the profiler.
func (p *Profiler) Profile(ds *types.Dataset) (*QualityReport, error) {
	if ds == nil || ds.Len() == 0 || len(ds.Fields) == 0 {
		return nil, ErrInvalidInput
	}

	report := &QualityReport{
		Dataset:     ds.Name,
		RecordCount: ds.Len(),
		Profiles:    make([]FieldProfile, 0, len(ds.Fields)),
	}

	for _, field := range ds.Fields {
		report.Profiles = append(report.Profiles, p.profileField(ds, field))
	}

	report.Score = p.score(report.Profiles)
	report.Issues = p.detectIssues(report)
	report.Recommendations = recommendations(report)

	return report, nil
}

// profileField computes the full profile for one field.
func (p *Profiler) profileField(ds *types.Dataset, field string) FieldProfile {
	total := ds.Len()
	nonMissing := 0
	distinct := make(map[string]struct{})
	var samples []string

	var sum, min, max float64
	numericCount := 0

	for _, rec := range ds.Records {
		v := rec[field]
		if types.IsMissing(v) {
			continue
		}
		nonMissing++

		s := types.ToString(v)
		distinct[s] = struct{}{}

		if len(samples) < p.cfg.SampleSize {
			samples = append(samples, s)
		}

		if f, ok := types.ToFloat64(v); ok {
			if numericCount == 0 || f < min {
				min = f
			}
			if numericCount == 0 || f > max {
				max = f
			}
			sum += f
			numericCount++
		}
	}

	profile := FieldProfile{
		Name:         field,
		InferredType: inferType(samples),
		Completeness: ratio(nonMissing, total),
		// Uniqueness is computed over non-missing values only.
		Uniqueness: ratio(len(distinct), nonMissing),
		Samples:    truncateSamples(samples, 5),
	}

	profile.PIILikely = looksLikePII(field, samples)

	if profile.InferredType == types.TypeNumeric && numericCount > 0 {
		profile.Numeric = &NumericStats{
			Min:  min,
			Max:  max,
			Mean: sum / float64(numericCount),
		}
	}

	return profile
}

// score computes the weighted overall quality score across all field profiles.
func (p *Profiler) score(profiles []FieldProfile) float64 {
	if len(profiles) == 0 {
		return 0
	}
	wc := p.cfg.CompletenessWeight
	wu := p.cfg.UniquenessWeight

	var total float64
	for _, fp := range profiles {
		total += (fp.Completeness*wc + fp.Uniqueness*wu) / (wc + wu)
	}
	return total / float64(len(profiles))
}

// detectIssues derives data quality issues from the computed profiles
// using fixed threshold rules.
func (p *Profiler) detectIssues(report *QualityReport) []Issue {
	var issues []Issue

	expectedUnique := make(map[string]bool, len(p.cfg.ExpectedUniqueFields))
	for _, f := range p.cfg.ExpectedUniqueFields {
		expectedUnique[f] = true
	}

	for _, fp := range report.Profiles {
		// Inclusive at the threshold: a field sitting exactly on it still
		// has missing values worth reporting.
		if fp.Completeness <= p.cfg.CompletenessThreshold && fp.Completeness < 1 {
			gap := p.cfg.CompletenessThreshold - fp.Completeness
			issues = append(issues, Issue{
				Kind:     IssueMissingValues,
				Field:    fp.Name,
				Severity: severityForGap(gap),
				Detail: fmt.Sprintf("completeness %.2f below threshold %.2f",
					fp.Completeness, p.cfg.CompletenessThreshold),
			})
		}

		if expectedUnique[fp.Name] && fp.Uniqueness < 1 {
			issues = append(issues, Issue{
				Kind:     IssueDuplicateValues,
				Field:    fp.Name,
				Severity: severityForGap(1 - fp.Uniqueness),
				Detail:   fmt.Sprintf("expected unique but uniqueness is %.2f", fp.Uniqueness),
			})
		}

		// ID-looking fields with low uniqueness are suspicious even when
		// not declared in the expected-unique list.
		if !expectedUnique[fp.Name] && looksLikeID(fp.Name) && fp.Uniqueness < 0.9 {
			issues = append(issues, Issue{
				Kind:     IssueLowCardinalityID,
				Field:    fp.Name,
				Severity: SeverityMedium,
				Detail:   fmt.Sprintf("appears to be an identifier but uniqueness is %.2f", fp.Uniqueness),
			})
		}
	}

	// Stable order: by field name, then kind. Keeps reports deterministic
	// regardless of map iteration above.
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Field != issues[j].Field {
			return issues[i].Field < issues[j].Field
		}
		return issues[i].Kind < issues[j].Kind
	})

	return issues
}

// severityForGap scales issue severity by how far a metric is below its threshold.
func severityForGap(gap float64) Severity {
	switch {
	case gap > 0.3:
		return SeverityHigh
	case gap > 0.1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// recommendations derives migration-readiness advice from the report.
func recommendations(report *QualityReport) []string {
	var recs []string

	hasMissing := false
	hasDuplicates := false
	for _, issue := range report.Issues {
		switch issue.Kind {
		case IssueMissingValues:
			hasMissing = true
		case IssueDuplicateValues:
			hasDuplicates = true
		}
	}

	if hasMissing {
		recs = append(recs, "Address missing data before migration: review fields with low completeness and decide on default-fill or exclusion")
	}
	if hasDuplicates {
		recs = append(recs, "Resolve duplicate values in expected-unique fields before migration")
	}

	var piiFields []string
	for _, fp := range report.Profiles {
		if fp.PIILikely {
			piiFields = append(piiFields, fp.Name)
		}
	}
	if len(piiFields) > 0 {
		recs = append(recs, fmt.Sprintf("Apply masking or encryption to likely PII fields: %v", piiFields))
	}

	if report.Score < 0.7 {
		recs = append(recs, fmt.Sprintf("Overall quality score %.2f is below 0.70; improve data quality before migrating", report.Score))
	}

	return recs
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func truncateSamples(samples []string, n int) []string {
	if len(samples) <= n {
		return samples
	}
	return samples[:n]
}
