// Package strings provides string list helpers for request parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and repeats, keeping
// first-seen order. Case is significant.
//
//	DedupeAndTrim([]string{"  meta-pixel ", "session", "meta-pixel", "", "  "})
//	// []string{"meta-pixel", "session"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitList splits every value on commas and applies DedupeAndTrim to the
// result, so both "?ids=a,b" and "?ids=a&ids=b" yield [a b].
func SplitList(values ...string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return DedupeAndTrim(parts)
}
