package mapping

import (
	"sort"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/migrion/internal/profiler"
	"github.com/dbsmedya/migrion/internal/types"
)

// downgradeFactor is applied to a candidate's confidence when its raw types
// mismatch and only the accompanying cast makes the mapping viable.
const downgradeFactor = 0.75

// Validator merges raw mapping candidates into a validated rule set.
// Validation is synchronous, side-effect-free, and deterministic: the same
// candidates, profile, and schema always yield the same ruleset and the same
// rejection list in the same order.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// candidate plus its position in the original input and parsed transform.
type indexedCandidate struct {
	idx       int
	cand      Candidate
	transform Transform
}

// provisional is a group winner that may still lose a source conflict.
type provisionalRule struct {
	indexedCandidate
	aggregate  float64 // sum of the group's confidences, used for conflicts
	downgraded bool
}

// Validate checks every candidate against the source profile and target
// schema and produces the conflict-free rule set plus the rejected
// candidates in their original order.
//
// Returns ErrEmptyMappingSet when no rule survives and the target schema has
// mandatory fields left uncovered.
func (v *Validator) Validate(candidates []Candidate, profile *profiler.QualityReport, schema *types.Schema) (*RuleSet, []Rejected, error) {
	rejects := make([]*Rejected, len(candidates))
	reject := func(i int, reason, detail string) {
		rejects[i] = &Rejected{Candidate: candidates[i], Reason: reason, Detail: detail}
	}

	// Group candidates by target field, preserving first-seen target order
	// so later tie-breaking stays deterministic.
	groups := orderedmap.NewOrderedMap[string, []indexedCandidate]()

	for i, c := range candidates {
		transform, err := ParseTransform(c.Transform)
		if err != nil {
			reject(i, ReasonUnsupportedTransform, err.Error())
			continue
		}
		if _, ok := schema.Field(c.TargetField); !ok {
			reject(i, ReasonUnknownField, "target field not declared in schema")
			continue
		}
		if _, ok := profile.Profile(c.SourceField); !ok {
			reject(i, ReasonUnknownField, "source field not present in profile")
			continue
		}

		c.Confidence = clamp01(c.Confidence)
		members, _ := groups.Get(c.TargetField)
		groups.Set(c.TargetField, append(members, indexedCandidate{idx: i, cand: c, transform: transform}))
	}

	// Pick the highest-confidence candidate per target; the rest are
	// superseded. Ties go to the earliest candidate.
	var provisionals []provisionalRule
	for el := groups.Front(); el != nil; el = el.Next() {
		members := el.Value

		best := 0
		var aggregate float64
		for j, m := range members {
			aggregate += m.cand.Confidence
			if m.cand.Confidence > members[best].cand.Confidence {
				best = j
			}
		}
		for j, m := range members {
			if j != best {
				reject(m.idx, ReasonSuperseded, "higher-confidence candidate exists for target field")
			}
		}

		winner := members[best]
		fp, _ := profile.Profile(winner.cand.SourceField)
		spec, _ := schema.Field(winner.cand.TargetField)

		prov := provisionalRule{indexedCandidate: winner, aggregate: aggregate}
		if !typeCompatible(fp.InferredType, spec.NormalizedType()) {
			// A cast to the declared type compensates for the mismatch, at
			// reduced confidence. Anything else cannot.
			if winner.transform.Kind == TransformCast && winner.transform.CastTo == spec.NormalizedType() {
				prov.cand.Confidence = clamp01(prov.cand.Confidence * downgradeFactor)
				prov.downgraded = true
			} else {
				reject(winner.idx, ReasonTypeMismatch,
					"source type "+string(fp.InferredType)+" incompatible with target type "+spec.Type)
				continue
			}
		}

		provisionals = append(provisionals, prov)
	}

	// Resolve source conflicts: each source field may back at most one rule.
	// The group with the higher aggregate confidence wins; ties go to the
	// earlier target group.
	claimed := make(map[string]int) // source field -> index into provisionals
	dropped := make([]bool, len(provisionals))
	for i, prov := range provisionals {
		prev, ok := claimed[prov.cand.SourceField]
		if !ok {
			claimed[prov.cand.SourceField] = i
			continue
		}
		if prov.aggregate > provisionals[prev].aggregate {
			dropped[prev] = true
			reject(provisionals[prev].idx, ReasonSourceConflict,
				"source field claimed by higher-confidence mapping to "+prov.cand.TargetField)
			claimed[prov.cand.SourceField] = i
		} else {
			dropped[i] = true
			reject(prov.idx, ReasonSourceConflict,
				"source field claimed by higher-confidence mapping to "+provisionals[prev].cand.TargetField)
		}
	}

	ruleset := &RuleSet{}
	for i, prov := range provisionals {
		if dropped[i] {
			continue
		}
		ruleset.Rules = append(ruleset.Rules, Rule{
			SourceField: prov.cand.SourceField,
			TargetField: prov.cand.TargetField,
			Transform:   prov.transform,
			Confidence:  prov.cand.Confidence,
			Downgraded:  prov.downgraded,
		})
	}

	sort.Slice(ruleset.Rules, func(i, j int) bool {
		return ruleset.Rules[i].TargetField < ruleset.Rules[j].TargetField
	})

	rejected := make([]Rejected, 0, len(candidates))
	for _, r := range rejects {
		if r != nil {
			rejected = append(rejected, *r)
		}
	}

	if len(ruleset.Rules) == 0 && hasMandatoryFields(schema) {
		return nil, rejected, ErrEmptyMappingSet
	}

	return ruleset, rejected, nil
}

// typeCompatible reports whether a source value of inferred type src can be
// written to a target field of declared type dst without a transform.
// String targets accept everything.
func typeCompatible(src, dst types.FieldType) bool {
	return dst == types.TypeString || src == dst
}

func hasMandatoryFields(schema *types.Schema) bool {
	for _, f := range schema.Fields {
		if f.Required {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
