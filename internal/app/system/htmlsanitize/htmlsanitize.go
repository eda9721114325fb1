// Package htmlsanitize scrubs user-supplied text before it is stored or
// rendered. Task titles and display names are plain text, so the strict
// policy strips every tag.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes all HTML from s, returning plain text.
func StripTags(s string) string {
	return strict.Sanitize(s)
}
