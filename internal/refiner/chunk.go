package refiner

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentenceBoundary marks terminal punctuation followed by whitespace. The
// marker byte stands in for a lookbehind split: the whitespace is consumed,
// the punctuation stays attached to its sentence.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

const sentenceMarker = "\x1f"

// SplitSentences splits text at sentence boundaries, keeping the terminal
// punctuation with each sentence.
func SplitSentences(text string) []string {
	marked := sentenceBoundary.ReplaceAllString(text, "$1"+sentenceMarker)
	return strings.Split(marked, sentenceMarker)
}

// SplitIntoChunks groups sentences greedily into chunks of at most maxLength
// runes. A sentence longer than maxLength becomes its own chunk rather than
// being split mid-sentence.
func SplitIntoChunks(text string, maxLength int) []string {
	sentences := SplitSentences(text)

	var chunks []string
	var current []string
	currentLength := 0

	for _, sentence := range sentences {
		sentenceLength := utf8.RuneCountInString(sentence)
		if currentLength+sentenceLength > maxLength && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{sentence}
			currentLength = sentenceLength
		} else {
			current = append(current, sentence)
			currentLength += sentenceLength
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
