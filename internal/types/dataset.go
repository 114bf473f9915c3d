// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import "strings"

// Record is a single row of tabular data, keyed by field name.
// Values are whatever the source reader produced (string for CSV sources,
// driver-native types for database sources).
type Record map[string]interface{}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered sequence of records with a stable field order.
// The core treats datasets as read-only: profiling and migration never
// mutate the caller's records.
type Dataset struct {
	Name    string
	Fields  []string
	Records []Record
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// FieldType is the inferred or declared type of a field.
type FieldType string

const (
	TypeNumeric FieldType = "numeric"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
	TypeString  FieldType = "string"
)

// FieldSpec describes one field of a target schema.
type FieldSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Schema describes the shape of a target table or collection.
type Schema struct {
	Name   string      `json:"schema_name"`
	Fields []FieldSpec `json:"fields"`
}

// Field returns the spec for the named field, or false if not declared.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// NormalizedType maps the free-form declared type of a schema field onto
// one of the four core field types. Unknown declarations fall back to string.
func (f FieldSpec) NormalizedType() FieldType {
	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case "int", "integer", "bigint", "float", "double", "decimal", "numeric", "number":
		return TypeNumeric
	case "date", "datetime", "timestamp":
		return TypeDate
	case "bool", "boolean":
		return TypeBoolean
	default:
		return TypeString
	}
}

// IsMissing reports whether a record value counts as missing for
// completeness purposes: nil, empty string, or a whitespace-only string.
func IsMissing(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
