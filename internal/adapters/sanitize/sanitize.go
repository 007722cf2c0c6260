// Package sanitize cleans user supplied rich text before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// RichText keeps the formatting produced by the admin editor (paragraphs,
// emphasis, lists, links) and strips scripts, styles and event handlers.
type RichText struct {
	policy *bluemonday.Policy
}

// NewRichText builds the sanitiser on top of bluemonday's UGC policy
func NewRichText() *RichText {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &RichText{policy: p}
}

// Sanitize returns s with disallowed markup removed
func (r *RichText) Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(r.policy.Sanitize(s))
}
