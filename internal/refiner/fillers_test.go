package refiner_test

import (
	"strings"
	"testing"

	"scribe/internal/refiner"
)

func TestRemoveFillerWordsEnglish(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Um this is, like, a test.", "this is a test."},
		{"I basically agree with you", "I agree with you"},
		{"You know, it works", "it works"},
		{"alike is not a filler and neither is blah", "alike is not a filler and neither is blah"},
	}
	for _, tc := range cases {
		if got := refiner.RemoveFillerWords(tc.in, "en"); got != tc.want {
			t.Fatalf("RemoveFillerWords(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRemoveFillerWordsFrench(t *testing.T) {
	got := refiner.RemoveFillerWords("Euh donc voilà c'est fini", "fr")
	for _, filler := range []string{"euh", "donc", "voilà"} {
		if strings.Contains(strings.ToLower(got), filler) {
			t.Fatalf("filler %q survived: %q", filler, got)
		}
	}
	if !strings.Contains(got, "c'est fini") {
		t.Fatalf("content words lost: %q", got)
	}
}

func TestRemoveFillerWordsArabicAdjacent(t *testing.T) {
	got := refiner.RemoveFillerWords("يعني طيب هذا جيد", "ar")
	for _, filler := range []string{"يعني", "طيب"} {
		if strings.Contains(got, filler) {
			t.Fatalf("filler %q survived: %q", filler, got)
		}
	}
	if !strings.Contains(got, "هذا جيد") {
		t.Fatalf("content words lost: %q", got)
	}
}

func TestRemoveFillerWordsUnknownLanguageIsIdentity(t *testing.T) {
	in := "Das ist, ähm, ein Test."
	if got := refiner.RemoveFillerWords(in, "de"); got != in {
		t.Fatalf("RemoveFillerWords(de) = %q, want unchanged input", got)
	}
}
