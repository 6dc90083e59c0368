package parser

import "strings"

// Normalize strips leading and trailing whitespace, line terminators
// included. Callers treat an empty result as a blank line.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}
