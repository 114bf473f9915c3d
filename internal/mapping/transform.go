package mapping

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/migrion/internal/types"
)

// TransformKind enumerates the primitive transform operations the executor
// is allowed to run. Anything a candidate suggests outside this set is
// rejected at validation time.
type TransformKind string

const (
	TransformIdentity    TransformKind = "identity"
	TransformCast        TransformKind = "cast"
	TransformDefaultFill TransformKind = "default-fill"
	TransformTrim        TransformKind = "trim"
	TransformNormalize   TransformKind = "normalize"
	TransformRemap       TransformKind = "remap"
)

// Transform is an executable description of how a source value becomes a
// target value. It is a closed tagged variant: only the fields relevant to
// the kind are set.
type Transform struct {
	Kind    TransformKind     `json:"kind"`
	CastTo  types.FieldType   `json:"cast_to,omitempty"`
	Default string            `json:"default,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

// ParseTransform converts a free-form transform suggestion into a Transform.
// Accepted forms:
//
//	"", "direct", "identity"      -> identity
//	"cast:numeric"                -> cast to numeric/date/boolean/string
//	"default:<value>"             -> substitute <value> when missing
//	"trim"                        -> strip surrounding whitespace
//	"normalize"                   -> trim + lowercase
//	"remap:a=x,b=y"               -> enumerated value remap
//
// Anything else is an unsupported transform.
func ParseTransform(s string) (Transform, error) {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "", "direct", "identity", "none":
		return Transform{Kind: TransformIdentity}, nil
	case "trim":
		return Transform{Kind: TransformTrim}, nil
	case "normalize":
		return Transform{Kind: TransformNormalize}, nil
	}

	op, arg, found := strings.Cut(s, ":")
	if !found {
		return Transform{}, fmt.Errorf("unsupported transform %q", s)
	}

	switch strings.ToLower(strings.TrimSpace(op)) {
	case "cast":
		to, err := parseCastTarget(arg)
		if err != nil {
			return Transform{}, err
		}
		return Transform{Kind: TransformCast, CastTo: to}, nil
	case "default":
		return Transform{Kind: TransformDefaultFill, Default: arg}, nil
	case "remap":
		values, err := parseRemapValues(arg)
		if err != nil {
			return Transform{}, err
		}
		return Transform{Kind: TransformRemap, Values: values}, nil
	default:
		return Transform{}, fmt.Errorf("unsupported transform %q", s)
	}
}

func parseCastTarget(arg string) (types.FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "numeric", "number", "int", "integer", "float":
		return types.TypeNumeric, nil
	case "date", "datetime":
		return types.TypeDate, nil
	case "bool", "boolean":
		return types.TypeBoolean, nil
	case "string", "text", "varchar":
		return types.TypeString, nil
	default:
		return "", fmt.Errorf("unsupported cast target %q", arg)
	}
}

func parseRemapValues(arg string) (map[string]string, error) {
	pairs := strings.Split(arg, ",")
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		from, to, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(from) == "" {
			return nil, fmt.Errorf("invalid remap pair %q", pair)
		}
		values[strings.TrimSpace(from)] = strings.TrimSpace(to)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("remap has no value pairs")
	}
	return values, nil
}

// Apply converts a single source value. Missing values pass through
// unchanged except for default-fill, which substitutes its default.
func (t Transform) Apply(v interface{}) (interface{}, error) {
	if types.IsMissing(v) {
		if t.Kind == TransformDefaultFill {
			return t.Default, nil
		}
		return v, nil
	}

	switch t.Kind {
	case TransformIdentity, TransformDefaultFill:
		return v, nil
	case TransformTrim:
		return strings.TrimSpace(types.ToString(v)), nil
	case TransformNormalize:
		return strings.ToLower(strings.TrimSpace(types.ToString(v))), nil
	case TransformRemap:
		s := types.ToString(v)
		if mapped, ok := t.Values[s]; ok {
			return mapped, nil
		}
		return s, nil
	case TransformCast:
		return castValue(v, t.CastTo)
	default:
		return nil, fmt.Errorf("unknown transform kind %q", t.Kind)
	}
}

func castValue(v interface{}, to types.FieldType) (interface{}, error) {
	switch to {
	case types.TypeNumeric:
		f, ok := types.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("value %q is not numeric", types.ToString(v))
		}
		return f, nil
	case types.TypeBoolean:
		b, ok := types.ToBool(v)
		if !ok {
			return nil, fmt.Errorf("value %q is not boolean", types.ToString(v))
		}
		return b, nil
	case types.TypeDate, types.TypeString:
		return types.ToString(v), nil
	default:
		return nil, fmt.Errorf("unknown cast target %q", to)
	}
}
