package refiner_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"scribe/internal/refiner"
)

type stubRestorer struct {
	calls int
	fail  error
}

func (s *stubRestorer) Restore(ctx context.Context, text string) (string, error) {
	s.calls++
	if s.fail != nil {
		return "", s.fail
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

type stubCorrector struct {
	result refiner.GrammarResult
	err    error
	closed bool
}

func (s *stubCorrector) Correct(ctx context.Context, text string) (refiner.GrammarResult, error) {
	if s.err != nil {
		return refiner.GrammarResult{}, s.err
	}
	if s.result.Text == "" {
		return refiner.GrammarResult{Text: text}, nil
	}
	return s.result, nil
}

func (s *stubCorrector) Close() error {
	s.closed = true
	return nil
}

func allSteps() refiner.Options {
	return refiner.Options{
		RemoveFillers:         true,
		RestorePunctuation:    true,
		CorrectGrammar:        true,
		FormatParagraphs:      true,
		ChunkThreshold:        500,
		SentencesPerParagraph: 5,
	}
}

func TestProcessCleansMessyTranscript(t *testing.T) {
	registry := refiner.NewRegistry(func(language string) (refiner.GrammarCorrector, error) {
		return nil, nil
	})
	ref := refiner.New(allSteps(), &stubRestorer{}, registry, nil)

	out, err := ref.Process(context.Background(), "um  this is, like, a test.this should work", "en")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !strings.Contains(out.ProcessedText, "this is a test.") {
		t.Fatalf("processed = %q, want it to contain %q", out.ProcessedText, "this is a test.")
	}
	if !strings.Contains(out.ProcessedText, "a test. This should work") {
		t.Fatalf("processed = %q, missing space and capital after mid-sentence period", out.ProcessedText)
	}

	wantSteps := []string{
		refiner.StepNormalizeWhitespace,
		refiner.StepRemoveFillerWords,
		refiner.StepRestorePunctuation,
		refiner.StepCorrectGrammar,
		refiner.StepFormatParagraphs,
	}
	if !reflect.DeepEqual(out.StepsApplied, wantSteps) {
		t.Fatalf("steps = %v, want %v", out.StepsApplied, wantSteps)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degradations: %v", out.Degradations)
	}
	if out.WordCount != len(strings.Fields(out.ProcessedText)) {
		t.Fatalf("word count = %d", out.WordCount)
	}
	if out.OriginalText != "um  this is, like, a test.this should work" {
		t.Fatal("original text not preserved")
	}
}

func TestProcessChunksLongTextForPunctuation(t *testing.T) {
	// 20 sentences of exactly 60 runes each, ~1200 runes total. Greedy
	// accumulation under a 500-rune threshold packs 8+8+4 sentences.
	sentence := "Ab" + strings.Repeat(" ab", 19) + "."
	if len(sentence) != 60 {
		t.Fatalf("sentence length = %d, want 60", len(sentence))
	}
	parts := make([]string, 20)
	for i := range parts {
		parts[i] = sentence
	}
	text := strings.Join(parts, " ")

	restorer := &stubRestorer{}
	opts := refiner.Options{RestorePunctuation: true, ChunkThreshold: 500}
	ref := refiner.New(opts, restorer, nil, nil)

	out, err := ref.Process(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	wantChunks := len(refiner.SplitIntoChunks(text, 500))
	if wantChunks != 3 {
		t.Fatalf("chunk count = %d, want 3", wantChunks)
	}
	if restorer.calls != wantChunks {
		t.Fatalf("restorer calls = %d, want %d", restorer.calls, wantChunks)
	}

	if got, want := strings.Fields(out.ProcessedText), strings.Fields(text); !reflect.DeepEqual(got, want) {
		t.Fatalf("rejoined text lost or reordered words: %d vs %d fields", len(got), len(want))
	}
}

func TestProcessDegradesFailingSteps(t *testing.T) {
	restorer := &stubRestorer{fail: errors.New("model unavailable")}
	registry := refiner.NewRegistry(func(language string) (refiner.GrammarCorrector, error) {
		return nil, errors.New("languagetool unreachable")
	})
	opts := refiner.Options{RestorePunctuation: true, CorrectGrammar: true}
	ref := refiner.New(opts, restorer, registry, nil)

	out, err := ref.Process(context.Background(), "hello world.", "en")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !out.Degraded() || len(out.Degradations) != 2 {
		t.Fatalf("degradations = %v, want 2", out.Degradations)
	}
	if out.Degradations[0].Step != refiner.StepRestorePunctuation {
		t.Fatalf("first degradation = %+v", out.Degradations[0])
	}
	if out.Degradations[1].Step != refiner.StepCorrectGrammar {
		t.Fatalf("second degradation = %+v", out.Degradations[1])
	}
	if !reflect.DeepEqual(out.StepsApplied, []string{refiner.StepNormalizeWhitespace}) {
		t.Fatalf("steps = %v, degraded steps must not be listed as applied", out.StepsApplied)
	}
	if out.ProcessedText != "Hello world." {
		t.Fatalf("processed = %q, degraded pipeline should still normalize", out.ProcessedText)
	}
}

func TestProcessAppliesGrammarCorrections(t *testing.T) {
	corrector := &stubCorrector{
		result: refiner.GrammarResult{
			Text: "He does not know.",
			Corrections: []refiner.Correction{
				{Original: "dont", Replacement: "does not", Message: "Possible typo", Rule: "MORFOLOGIK_RULE_EN_US"},
			},
		},
	}
	registry := refiner.NewRegistry(func(language string) (refiner.GrammarCorrector, error) {
		return corrector, nil
	})
	opts := refiner.Options{CorrectGrammar: true}
	ref := refiner.New(opts, nil, registry, nil)

	out, err := ref.Process(context.Background(), "He dont know.", "en")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.ProcessedText != "He does not know." {
		t.Fatalf("processed = %q", out.ProcessedText)
	}
	if out.ErrorCount != 1 || len(out.Corrections) != 1 {
		t.Fatalf("corrections = %v, error count = %d", out.Corrections, out.ErrorCount)
	}
	if out.Corrections[0].Rule != "MORFOLOGIK_RULE_EN_US" {
		t.Fatalf("rule = %q", out.Corrections[0].Rule)
	}
}

func TestProcessReturnsErrorOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := refiner.Options{RestorePunctuation: true}
	ref := refiner.New(opts, &stubRestorer{}, nil, nil)

	if _, err := ref.Process(ctx, "hello world.", "en"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRegistryCachesPerLanguage(t *testing.T) {
	builds := 0
	corrector := &stubCorrector{}
	registry := refiner.NewRegistry(func(language string) (refiner.GrammarCorrector, error) {
		builds++
		return corrector, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := registry.Corrector("en"); err != nil {
			t.Fatalf("Corrector: %v", err)
		}
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}

	if _, err := registry.Corrector("fr"); err != nil {
		t.Fatalf("Corrector fr: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2", builds)
	}

	if err := registry.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !corrector.closed {
		t.Fatal("Close did not release held correctors")
	}
}
