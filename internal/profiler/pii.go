package profiler

import (
	"regexp"
	"strings"
)

// piiNameKeywords flag a field as likely PII by name alone.
var piiNameKeywords = []string{
	"email", "phone", "ssn", "social", "passport", "license",
	"credit", "card", "account", "password", "secret", "token",
	"name", "address", "zip", "postal", "birth", "dob",
	"national_id", "tax_id",
}

var (
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern      = regexp.MustCompile(`^\+?[0-9][0-9\-\s().]{6,18}[0-9]$`)
	nationalIDPattern = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
)

// looksLikePII reports whether a field is likely to contain personal data,
// based on the field name and the shape of sampled values. This is a
// heuristic only: it can miss PII and it can flag non-PII.
func looksLikePII(field string, samples []string) bool {
	lower := strings.ToLower(field)
	for _, kw := range piiNameKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	if len(samples) == 0 {
		return false
	}

	// Value-shape checks: a majority of sampled values matching a known
	// PII shape flags the field even when the name is innocuous.
	matches := 0
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if emailPattern.MatchString(s) ||
			looksLikePhone(s) ||
			nationalIDPattern.MatchString(s) ||
			looksLikeBirthDate(s) {
			matches++
		}
	}
	return matches*2 > len(samples)
}

// looksLikePhone reports whether a value is shaped like a phone number.
// Bare digit runs qualify only in the usual subscriber-number length band;
// longer unseparated runs are more often order numbers or product codes.
func looksLikePhone(s string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	if strings.ContainsAny(s, "+-() .") {
		return true
	}
	return len(s) <= 11
}

// looksLikeBirthDate reports whether a value parses as a date in a
// plausible date-of-birth range.
func looksLikeBirthDate(s string) bool {
	t, ok := parseDate(s)
	if !ok {
		return false
	}
	year := t.Year()
	return year >= 1900 && year <= 2015
}

// looksLikeID reports whether a field name suggests an identifier column.
func looksLikeID(field string) bool {
	lower := strings.ToLower(field)
	return lower == "id" || strings.HasSuffix(lower, "_id")
}
