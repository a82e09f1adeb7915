package refiner_test

import (
	"testing"

	"scribe/internal/refiner"
)

func TestNormalizeWhitespace(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses runs", "hello   world\t\nagain", "Hello world again"},
		{"removes space before punctuation", "hello , world .", "Hello, world."},
		{"inserts space after punctuation", "first.second", "First. Second"},
		{"capitalizes sentence starts", "one thing. another thing! a third? done", "One thing. Another thing! A third? Done"},
		{"trims edges", "  padded  ", "Padded"},
		{"empty input", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := refiner.NormalizeWhitespace(tc.in); got != tc.want {
				t.Fatalf("NormalizeWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeWhitespaceIdempotent(t *testing.T) {
	inputs := []string{
		"um  this is, like, a test.this should work",
		"Multiple   spaces . and.glued text",
		"already clean. Nothing to do here.",
	}
	for _, in := range inputs {
		once := refiner.NormalizeWhitespace(in)
		twice := refiner.NormalizeWhitespace(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
