// Package language normalizes user-supplied language hints into ISO 639-1
// codes and renders display names for output.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the hint meaning "let the transcriber detect the language".
const Auto = "auto"

// wordForms maps full language names to codes for inputs that BCP 47 parsing
// rejects, e.g. "english" typed on the command line.
var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
}

// IsAuto reports whether a hint requests automatic language detection.
func IsAuto(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), Auto)
}

// Normalize converts a language hint ("en", "en-US", "eng", "English") to a
// two-letter base code. Empty input and "auto" normalize to Auto. Unparseable
// input returns an empty string.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || IsAuto(code) {
		return Auto
	}
	if mapped, ok := wordForms[strings.ToLower(code)]; ok {
		return mapped
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

// DisplayName returns the English display name for a language code, or the
// uppercased code when the name is unknown.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	if IsAuto(code) {
		return "Auto-detect"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
