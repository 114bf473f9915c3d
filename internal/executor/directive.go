package executor

import (
	"fmt"

	"github.com/dbsmedya/migrion/internal/mapping"
	"github.com/dbsmedya/migrion/internal/types"
)

// Directive is the executable form of one mapping rule: read the source
// field, apply the resolved transform, write the target field.
type Directive struct {
	SourceField string            `json:"source_field"`
	TargetField string            `json:"target_field"`
	Transform   mapping.Transform `json:"transform"`
}

// BuildDirectives derives one directive per rule, in ruleset order.
func BuildDirectives(rs *mapping.RuleSet) []Directive {
	directives := make([]Directive, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		directives = append(directives, Directive{
			SourceField: rule.SourceField,
			TargetField: rule.TargetField,
			Transform:   rule.Transform,
		})
	}
	return directives
}

// TargetFields returns the target field names of the directives, in order.
func TargetFields(directives []Directive) []string {
	fields := make([]string, len(directives))
	for i, d := range directives {
		fields[i] = d.TargetField
	}
	return fields
}

// transformRecord applies every directive to one source record and returns
// the target record. The source record is never mutated.
func transformRecord(directives []Directive, rec types.Record) (types.Record, error) {
	out := make(types.Record, len(directives))
	for _, d := range directives {
		v, err := d.Transform.Apply(rec[d.SourceField])
		if err != nil {
			return nil, fmt.Errorf("field %s -> %s: %w", d.SourceField, d.TargetField, err)
		}
		out[d.TargetField] = v
	}
	return out, nil
}

// transformBatch applies the directives to a slice of source records.
func transformBatch(directives []Directive, records []types.Record) ([]types.Record, error) {
	out := make([]types.Record, len(records))
	for i, rec := range records {
		transformed, err := transformRecord(directives, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = transformed
	}
	return out, nil
}
