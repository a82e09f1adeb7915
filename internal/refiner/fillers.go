package refiner

import (
	"regexp"
	"strings"
)

// fillerLexicon maps a language code to the verbal tics stripped from its
// transcripts. Languages without an entry pass through unchanged.
var fillerLexicon = map[string][]string{
	"en": {"um", "uh", "er", "ah", "like", "you know", "I mean", "basically", "actually", "literally"},
	"fr": {"euh", "ben", "genre", "tu vois", "en fait", "donc", "du coup", "voilà"},
	"ar": {"يعني", "طيب", "أه"},
}

// fillerRemover holds the compiled patterns for one language. ASCII words use
// \b boundaries and consume an adjacent comma so "is, like, a" becomes
// "is a". Words with non-ASCII letters fall outside RE2's \b semantics and
// use explicit whitespace delimiters instead, applied to a fixed point to
// catch adjacent fillers.
type fillerRemover struct {
	ascii *regexp.Regexp
	wide  *regexp.Regexp
}

var fillerRemovers = buildFillerRemovers()

func buildFillerRemovers() map[string]*fillerRemover {
	removers := make(map[string]*fillerRemover, len(fillerLexicon))
	for language, words := range fillerLexicon {
		var asciiWords, wideWords []string
		for _, word := range words {
			if isASCII(word) {
				asciiWords = append(asciiWords, regexp.QuoteMeta(word))
			} else {
				wideWords = append(wideWords, regexp.QuoteMeta(word))
			}
		}
		remover := &fillerRemover{}
		if len(asciiWords) > 0 {
			remover.ascii = regexp.MustCompile(
				`(?i)(?:,\s*)?\b(?:` + strings.Join(asciiWords, "|") + `)\b(?:\s*,)?`)
		}
		if len(wideWords) > 0 {
			remover.wide = regexp.MustCompile(
				`(?i)(^|\s)(?:` + strings.Join(wideWords, "|") + `)(\s|[.!?،؟]|$)`)
		}
		removers[language] = remover
	}
	return removers
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

// RemoveFillerWords strips the filler lexicon for a language from text with
// case-insensitive whole-word matching, then re-collapses whitespace. Unknown
// languages return the input unchanged.
func RemoveFillerWords(text, language string) string {
	remover, ok := fillerRemovers[language]
	if !ok {
		return text
	}

	if remover.ascii != nil {
		text = remover.ascii.ReplaceAllString(text, "")
	}
	if remover.wide != nil {
		for i := 0; i < 10; i++ {
			next := remover.wide.ReplaceAllString(text, "$1$2")
			if next == text {
				break
			}
			text = next
		}
	}

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
