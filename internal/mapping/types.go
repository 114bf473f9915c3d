// Package mapping validates externally suggested field mappings into an
// executable, conflict-free rule set.
//
// Candidates come from an AI suggestion service and are untrusted: every
// candidate is checked against the source profile, the target schema, and a
// closed set of primitive transforms before it can become a rule.
package mapping

import "errors"

// ErrEmptyMappingSet is returned when no candidates survive validation and
// the target schema has mandatory fields left without a rule.
var ErrEmptyMappingSet = errors.New("no usable mapping: all candidates rejected and mandatory target fields are uncovered")

// Rejection reasons attached to discarded candidates.
const (
	ReasonSuperseded           = "superseded"
	ReasonTypeMismatch         = "type-mismatch"
	ReasonSourceConflict       = "source-conflict"
	ReasonUnsupportedTransform = "unsupported-transform"
	ReasonUnknownField         = "unknown-field"
)

// Candidate is an externally proposed mapping between a source and a target
// field. The core never creates candidates, it only validates them.
type Candidate struct {
	SourceField string  `json:"source_field"`
	TargetField string  `json:"target_field"`
	Confidence  float64 `json:"confidence"`
	// Transform is a free-form suggestion string. It is never executed as-is;
	// it must parse into one of the primitive transform operations.
	Transform string `json:"transform"`
	Rationale string `json:"explanation"`
}

// Rule is a validated mapping from one source field to one target field.
// Exactly one rule exists per target field in a validated set.
type Rule struct {
	SourceField string    `json:"source_field"`
	TargetField string    `json:"target_field"`
	Transform   Transform `json:"transform"`
	Confidence  float64   `json:"confidence"`
	// Downgraded marks rules whose confidence was reduced because the raw
	// types mismatch and only the accompanying cast compensates.
	Downgraded bool `json:"downgraded,omitempty"`
}

// RuleSet is a validated, conflict-free set of rules, sorted by target field.
type RuleSet struct {
	Rules []Rule `json:"rules"`
}

// RuleFor returns the rule for the given target field, or false if absent.
func (rs *RuleSet) RuleFor(target string) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.TargetField == target {
			return r, true
		}
	}
	return Rule{}, false
}

// Rejected records a discarded candidate with the reason for the rejection.
// The rejection list preserves the original candidate order for auditing.
type Rejected struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
	Detail    string    `json:"detail,omitempty"`
}
