package refiner

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun     = regexp.MustCompile(`\s+`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.,!?;:])`)
	missingSpaceAfter = regexp.MustCompile(`([.,!?;:])([A-Za-z])`)
	sentenceInitial   = regexp.MustCompile(`(^|[.!?]\s+)([a-z])`)
)

// NormalizeWhitespace collapses whitespace runs, fixes spacing around
// punctuation, and capitalizes the first letter of each sentence. It is
// idempotent: applying it to its own output changes nothing.
func NormalizeWhitespace(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSpaceAfter.ReplaceAllString(text, "$1 $2")
	// The trailing [a-z] is a single ASCII byte, so uppercasing the last
	// byte of the match is safe.
	text = sentenceInitial.ReplaceAllStringFunc(text, func(match string) string {
		return match[:len(match)-1] + strings.ToUpper(match[len(match)-1:])
	})
	return strings.TrimSpace(text)
}
