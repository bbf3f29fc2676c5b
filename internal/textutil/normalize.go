package textutil

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeQuery folds full-width characters to their canonical half-width
// forms and collapses runs of whitespace to single spaces.
func NormalizeQuery(s string) string {
	folded := width.Fold.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(folded), " ")
}

// KeyPart lowercases a normalized query and replaces spaces so the value is
// safe inside an underscore-joined cache key.
func KeyPart(s string) string {
	normalized := strings.ToLower(NormalizeQuery(s))
	return strings.ReplaceAll(normalized, " ", "-")
}
