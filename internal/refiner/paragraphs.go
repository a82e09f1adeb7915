package refiner

import "strings"

// FormatParagraphs regroups sentences into paragraphs of a fixed count,
// joined by a blank line. N sentences yield ceil(N/size) paragraphs.
func FormatParagraphs(text string, sentencesPerParagraph int) string {
	if sentencesPerParagraph < 1 {
		sentencesPerParagraph = 1
	}

	sentences := SplitSentences(text)
	var paragraphs []string
	for i := 0; i < len(sentences); i += sentencesPerParagraph {
		end := i + sentencesPerParagraph
		if end > len(sentences) {
			end = len(sentences)
		}
		paragraphs = append(paragraphs, strings.Join(sentences[i:end], " "))
	}
	return strings.Join(paragraphs, "\n\n")
}
