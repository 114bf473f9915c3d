package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ToString converts a record value to its canonical string form.
// []byte values (as produced by SQL drivers) become strings, nil becomes "".
func ToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// ToFloat64 converts a record value to float64.
// Returns false when the value is missing or not numeric.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string, []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(ToString(v)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToBool converts a record value to bool, accepting the usual textual forms
// (true/false, yes/no, y/n, 1/0). Returns false when the value does not
// look boolean.
func ToBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	default:
		switch strings.ToLower(strings.TrimSpace(ToString(v))) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}
