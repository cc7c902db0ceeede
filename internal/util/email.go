package util

import (
	"regexp"
	"strings"
)

// localpart@domain.tld, no whitespace, exactly one "@". Deliberately
// permissive; this is not RFC 5321 validation.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether raw looks like an email address.
func ValidEmail(raw string) bool {
	return emailShape.MatchString(raw)
}

// NormalizeEmail lower-cases an address for storage and comparison.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
