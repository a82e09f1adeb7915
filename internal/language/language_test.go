package language_test

import (
	"testing"

	"scribe/internal/language"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN-us", "en"},
		{"eng", "en"},
		{"English", "en"},
		{"fr", "fr"},
		{"", "auto"},
		{"AUTO", "auto"},
		{"not-a-language-at-all", ""},
	}
	for _, tc := range cases {
		if got := language.Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := language.DisplayName("en"); got != "English" {
		t.Fatalf("DisplayName(en) = %q", got)
	}
	if got := language.DisplayName("auto"); got != "Auto-detect" {
		t.Fatalf("DisplayName(auto) = %q", got)
	}
	if got := language.DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(empty) = %q", got)
	}
}
