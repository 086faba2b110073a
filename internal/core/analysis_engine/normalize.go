package analysis_engine

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeText collapses whitespace runs into single spaces and trims the
// result. Extracted exam text is full of layout artifacts (column gaps, soft
// line breaks) that would otherwise leak into prompts and stored questions.
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
