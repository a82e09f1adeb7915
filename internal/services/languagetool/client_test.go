package languagetool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.LanguageTool.Enabled = true
	cfg.LanguageTool.BaseURL = server.URL
	return NewClient(&cfg, nil)
}

func TestCorrectAppliesReplacements(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/check" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("language"); got != "en-US" {
			t.Fatalf("language = %q, want en-US", got)
		}
		if got := r.PostForm.Get("text"); got != "He dont know." {
			t.Fatalf("text = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{
					"message": "Possible typo",
					"offset":  3,
					"length":  4,
					"replacements": []map[string]string{
						{"value": "does not"},
					},
					"rule": map[string]string{"id": "MORFOLOGIK_RULE_EN_US"},
				},
			},
		})
	})

	factory := client.CorrectorFactory()
	corrector, err := factory("en")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if corrector == nil {
		t.Fatal("expected corrector for en")
	}

	result, err := corrector.Correct(context.Background(), "He dont know.")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if result.Text != "He does not know." {
		t.Fatalf("text = %q", result.Text)
	}
	if len(result.Corrections) != 1 {
		t.Fatalf("corrections = %v", result.Corrections)
	}
	correction := result.Corrections[0]
	if correction.Original != "dont" || correction.Replacement != "does not" {
		t.Fatalf("correction = %+v", correction)
	}
	if correction.Rule != "MORFOLOGIK_RULE_EN_US" {
		t.Fatalf("rule = %q", correction.Rule)
	}
}

func TestCorrectorFactorySkipsAuto(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	factory := client.CorrectorFactory()

	corrector, err := factory("auto")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if corrector != nil {
		t.Fatal("auto language must yield pass-through")
	}
}

func TestCorrectSurfacesServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported language", http.StatusBadRequest)
	})
	factory := client.CorrectorFactory()
	corrector, _ := factory("fr")

	if _, err := corrector.Correct(context.Background(), "Bonjour."); err == nil {
		t.Fatal("expected error from 400 response")
	}
}

func TestApplyMatchesSkipsOverlapsAndEmptyReplacements(t *testing.T) {
	text := "aaa bbb ccc"
	matches := []match{
		{Offset: 4, Length: 3, Replacements: []replacement{{Value: "BBB"}}},
		{Offset: 5, Length: 2}, // overlapping, no replacements
		{Offset: 8, Length: 3, Replacements: []replacement{{Value: "CCC"}}},
	}
	if got := applyMatches(text, matches); got != "aaa BBB CCC" {
		t.Fatalf("applyMatches = %q", got)
	}
}
