// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"strings"
	"time"
)

// maxQuerySlug bounds how much of the query ends up in a generated filename.
const maxQuerySlug = 50

// autoFilename generates an export filename stem from the query and a
// timestamp, e.g. "openreview_token_merging_20250131_154202".
func autoFilename(query string, now time.Time) string {
	slug := sanitizeFilename(query)
	if len(slug) > maxQuerySlug {
		slug = slug[:maxQuerySlug]
		slug = strings.TrimRight(slug, "_")
	}
	if slug == "" {
		slug = "export"
	}
	return "openreview_" + slug + "_" + now.Format("20060102_150405")
}

// sanitizeFilename keeps letters, digits, dashes and underscores, mapping
// spaces to underscores and dropping every path-unsafe rune.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}
