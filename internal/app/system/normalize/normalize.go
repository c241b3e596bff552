// Package normalize provides canonical forms for user-supplied field values.
// Stores call these before writing so lookups and comparisons stay consistent.
package normalize

import "strings"

// Username trims whitespace and lowercases a login username.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace but preserves case (display names keep their casing).
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases an account role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases an entity status.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slot trims a time-slot string ("09:00"). Empty after trimming means absent.
func Slot(s string) string {
	return strings.TrimSpace(s)
}

// StringList trims every element and drops empties, preserving order.
func StringList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
