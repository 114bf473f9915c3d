package mapping

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/profiler"
	"github.com/dbsmedya/migrion/internal/types"
)

// profileFor builds a QualityReport by profiling a small synthetic dataset
// with one column per (field, sample value) pair.
func profileFor(t *testing.T, fieldValues map[string]string) *profiler.QualityReport {
	t.Helper()

	ds := &types.Dataset{Name: "test"}
	rec := types.Record{}
	for field, value := range fieldValues {
		ds.Fields = append(ds.Fields, field)
		rec[field] = value
	}
	ds.Records = []types.Record{rec}

	report, err := profiler.New(config.DefaultConfig().Profiling).Profile(ds)
	require.NoError(t, err)
	return report
}

func targetSchema(fields ...types.FieldSpec) *types.Schema {
	return &types.Schema{Name: "target", Fields: fields}
}

func TestValidate_SupersededScenario(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{
		"cust_no":   "C-1001",
		"client_id": "1001",
	})
	schema := targetSchema(types.FieldSpec{Name: "customer_id", Type: "string", Required: true})

	candidates := []Candidate{
		{SourceField: "cust_no", TargetField: "customer_id", Confidence: 0.9},
		{SourceField: "client_id", TargetField: "customer_id", Confidence: 0.6},
	}

	ruleset, rejected, err := v.Validate(candidates, profile, schema)
	require.NoError(t, err)

	require.Len(t, ruleset.Rules, 1)
	assert.Equal(t, "cust_no", ruleset.Rules[0].SourceField)
	assert.Equal(t, 0.9, ruleset.Rules[0].Confidence)

	require.Len(t, rejected, 1)
	assert.Equal(t, "client_id", rejected[0].Candidate.SourceField)
	assert.Equal(t, ReasonSuperseded, rejected[0].Reason)
}

func TestValidate_TargetUniquenessInvariant(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{
		"a": "x", "b": "y", "c": "z",
	})
	schema := targetSchema(
		types.FieldSpec{Name: "t1", Type: "string"},
		types.FieldSpec{Name: "t2", Type: "string"},
	)

	// Adversarial duplicates: several candidates per target, interleaved.
	candidates := []Candidate{
		{SourceField: "a", TargetField: "t1", Confidence: 0.5},
		{SourceField: "b", TargetField: "t2", Confidence: 0.7},
		{SourceField: "b", TargetField: "t1", Confidence: 0.8},
		{SourceField: "c", TargetField: "t2", Confidence: 0.7},
		{SourceField: "a", TargetField: "t1", Confidence: 0.8},
	}

	ruleset, _, err := v.Validate(candidates, profile, schema)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range ruleset.Rules {
		assert.False(t, seen[r.TargetField], "duplicate rule for target %s", r.TargetField)
		seen[r.TargetField] = true
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{"joined": "hello"})
	schema := targetSchema(types.FieldSpec{Name: "joined_at", Type: "date", Required: true})

	t.Run("rejected without transform", func(t *testing.T) {
		candidates := []Candidate{
			{SourceField: "joined", TargetField: "joined_at", Confidence: 0.9},
		}
		ruleset, rejected, err := v.Validate(candidates, profile, schema)
		assert.ErrorIs(t, err, ErrEmptyMappingSet)
		assert.Nil(t, ruleset)
		require.Len(t, rejected, 1)
		assert.Equal(t, ReasonTypeMismatch, rejected[0].Reason)
	})

	t.Run("downgraded with compensating cast", func(t *testing.T) {
		candidates := []Candidate{
			{SourceField: "joined", TargetField: "joined_at", Confidence: 0.8, Transform: "cast:date"},
		}
		ruleset, rejected, err := v.Validate(candidates, profile, schema)
		require.NoError(t, err)
		assert.Empty(t, rejected)
		require.Len(t, ruleset.Rules, 1)
		assert.True(t, ruleset.Rules[0].Downgraded)
		assert.Less(t, ruleset.Rules[0].Confidence, 0.8)
	})
}

func TestValidate_SourceConflict(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{"legacy_code": "x"})
	schema := targetSchema(
		types.FieldSpec{Name: "code", Type: "string"},
		types.FieldSpec{Name: "label", Type: "string"},
	)

	candidates := []Candidate{
		{SourceField: "legacy_code", TargetField: "code", Confidence: 0.9},
		{SourceField: "legacy_code", TargetField: "label", Confidence: 0.4},
	}

	ruleset, rejected, err := v.Validate(candidates, profile, schema)
	require.NoError(t, err)

	require.Len(t, ruleset.Rules, 1)
	assert.Equal(t, "code", ruleset.Rules[0].TargetField)

	require.Len(t, rejected, 1)
	assert.Equal(t, "label", rejected[0].Candidate.TargetField)
	assert.Equal(t, ReasonSourceConflict, rejected[0].Reason)
}

func TestValidate_UnsupportedTransform(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{"notes": "text"})
	schema := targetSchema(types.FieldSpec{Name: "notes", Type: "string"})

	candidates := []Candidate{
		{SourceField: "notes", TargetField: "notes", Confidence: 0.9,
			Transform: "exec(row['notes'].upper())"},
	}

	ruleset, rejected, err := v.Validate(candidates, profile, schema)
	require.NoError(t, err) // schema has no mandatory fields
	assert.Empty(t, ruleset.Rules)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonUnsupportedTransform, rejected[0].Reason)
}

func TestValidate_UnknownFields(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{"known": "x"})
	schema := targetSchema(types.FieldSpec{Name: "dest", Type: "string"})

	candidates := []Candidate{
		{SourceField: "known", TargetField: "ghost", Confidence: 0.9},
		{SourceField: "phantom", TargetField: "dest", Confidence: 0.9},
	}

	_, rejected, err := v.Validate(candidates, profile, schema)
	require.NoError(t, err)
	require.Len(t, rejected, 2)
	assert.Equal(t, ReasonUnknownField, rejected[0].Reason)
	assert.Equal(t, ReasonUnknownField, rejected[1].Reason)
}

func TestValidate_Idempotent(t *testing.T) {
	v := NewValidator()

	fields := map[string]string{}
	var candidates []Candidate
	for i := 0; i < 8; i++ {
		src := fmt.Sprintf("src_%d", i)
		fields[src] = fmt.Sprintf("value-%d", i)
		candidates = append(candidates,
			Candidate{SourceField: src, TargetField: fmt.Sprintf("dst_%d", i%4), Confidence: float64(i) / 10},
		)
	}
	profile := profileFor(t, fields)

	var specs []types.FieldSpec
	for i := 0; i < 4; i++ {
		specs = append(specs, types.FieldSpec{Name: fmt.Sprintf("dst_%d", i), Type: "string"})
	}
	schema := targetSchema(specs...)

	rules1, rejected1, err1 := v.Validate(candidates, profile, schema)
	rules2, rejected2, err2 := v.Validate(candidates, profile, schema)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, rules1, rules2)
	assert.Equal(t, rejected1, rejected2)
}

func TestValidate_RulesetSortedByTarget(t *testing.T) {
	v := NewValidator()

	profile := profileFor(t, map[string]string{"a": "1", "b": "2", "c": "3"})
	schema := targetSchema(
		types.FieldSpec{Name: "zeta", Type: "string"},
		types.FieldSpec{Name: "alpha", Type: "string"},
		types.FieldSpec{Name: "mid", Type: "string"},
	)

	candidates := []Candidate{
		{SourceField: "a", TargetField: "zeta", Confidence: 0.9},
		{SourceField: "b", TargetField: "alpha", Confidence: 0.9},
		{SourceField: "c", TargetField: "mid", Confidence: 0.9},
	}

	ruleset, _, err := v.Validate(candidates, profile, schema)
	require.NoError(t, err)
	require.Len(t, ruleset.Rules, 3)
	assert.Equal(t, "alpha", ruleset.Rules[0].TargetField)
	assert.Equal(t, "mid", ruleset.Rules[1].TargetField)
	assert.Equal(t, "zeta", ruleset.Rules[2].TargetField)
}
