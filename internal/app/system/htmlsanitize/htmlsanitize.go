// Package htmlsanitize strips markup from free-text fields before they are
// persisted. Notes entered by managers are rendered back into the SPA, so
// they go through bluemonday's strict policy on the way in.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Notes sanitizes a free-text notes field: all HTML is removed and
// surrounding whitespace trimmed.
func Notes(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
