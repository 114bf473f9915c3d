package profiler

import (
	"strconv"
	"strings"
	"time"

	"github.com/dbsmedya/migrion/internal/types"
)

// dateLayouts are the formats accepted during type inference, most common first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

// inferType picks the most specific type that every sampled value satisfies.
// Precedence is numeric > date > boolean > string; ambiguity falls back to string.
// An empty sample set means the field had no usable values, also string.
func inferType(samples []string) types.FieldType {
	if len(samples) == 0 {
		return types.TypeString
	}

	allNumeric := true
	allDate := true
	allBool := true

	for _, s := range samples {
		s = strings.TrimSpace(s)
		if allNumeric && !isNumeric(s) {
			allNumeric = false
		}
		if allDate && !isDate(s) {
			allDate = false
		}
		if allBool && !isBoolean(s) {
			allBool = false
		}
		if !allNumeric && !allDate && !allBool {
			break
		}
	}

	switch {
	case allNumeric:
		return types.TypeNumeric
	case allDate:
		return types.TypeDate
	case allBool:
		return types.TypeBoolean
	default:
		return types.TypeString
	}
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDate(s string) bool {
	_, ok := parseDate(s)
	return ok
}

// parseDate tries each accepted layout in order.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isBoolean(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "y", "n", "0", "1":
		return true
	}
	return false
}
