package refiner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"scribe/internal/config"
	"scribe/internal/logging"
)

// Step names recorded in Output.StepsApplied, in pipeline order.
const (
	StepNormalizeWhitespace = "normalize_whitespace"
	StepRemoveFillerWords   = "remove_filler_words"
	StepRestorePunctuation  = "restore_punctuation"
	StepCorrectGrammar      = "correct_grammar"
	StepFormatParagraphs    = "format_paragraphs"
)

const defaultChunkThreshold = 500

// Options toggles the optional pipeline steps. Whitespace normalization
// always runs.
type Options struct {
	RemoveFillers         bool
	RestorePunctuation    bool
	CorrectGrammar        bool
	FormatParagraphs      bool
	ChunkThreshold        int
	SentencesPerParagraph int
}

// OptionsFromConfig maps the refiner config section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RemoveFillers:         cfg.Refiner.RemoveFillers,
		RestorePunctuation:    cfg.Refiner.RestorePunctuation,
		CorrectGrammar:        cfg.Refiner.CorrectGrammar,
		FormatParagraphs:      cfg.Refiner.FormatParagraphs,
		ChunkThreshold:        cfg.Refiner.ChunkThreshold,
		SentencesPerParagraph: cfg.Refiner.SentencesPerParagraph,
	}
}

// Degradation records a step that failed soft and was skipped.
type Degradation struct {
	Step   string
	Reason string
}

// Output is the result of refining one transcript. StepsApplied lists only
// the steps that actually transformed the text; degraded steps appear in
// Degradations instead.
type Output struct {
	OriginalText   string
	ProcessedText  string
	Language       string
	StepsApplied   []string
	Degradations   []Degradation
	Corrections    []Correction
	ErrorCount     int
	CharacterCount int
	WordCount      int
}

// Degraded reports whether any optional step failed soft during processing.
func (o Output) Degraded() bool {
	return len(o.Degradations) > 0
}

// Refiner runs the text-cleanup pipeline.
type Refiner struct {
	opts        Options
	punctuation PunctuationRestorer
	grammar     *Registry
	logger      *slog.Logger
}

// New builds a Refiner. The punctuation restorer and grammar registry may be
// nil; the corresponding steps then degrade when enabled.
func New(opts Options, punctuation PunctuationRestorer, grammar *Registry, logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Refiner{
		opts:        opts,
		punctuation: punctuation,
		grammar:     grammar,
		logger:      logger.With(logging.String(logging.FieldComponent, "refiner")),
	}
}

// Process runs the pipeline over a raw transcript. It only returns an error
// when the context is cancelled; every other failure degrades the single step
// and the remaining pipeline continues on the unmodified text.
func (r *Refiner) Process(ctx context.Context, text, language string) (Output, error) {
	out := Output{OriginalText: text, Language: language}

	current := NormalizeWhitespace(text)
	out.StepsApplied = append(out.StepsApplied, StepNormalizeWhitespace)

	if r.opts.RemoveFillers {
		current = RemoveFillerWords(current, language)
		out.StepsApplied = append(out.StepsApplied, StepRemoveFillerWords)
	}

	if r.opts.RestorePunctuation {
		restored, err := r.restorePunctuation(ctx, current)
		switch {
		case err == nil:
			current = restored
			out.StepsApplied = append(out.StepsApplied, StepRestorePunctuation)
		case ctx.Err() != nil:
			return out, ctx.Err()
		default:
			out.Degradations = append(out.Degradations, Degradation{Step: StepRestorePunctuation, Reason: err.Error()})
			r.logger.Warn("punctuation restoration degraded", logging.Error(err))
		}
	}

	if r.opts.CorrectGrammar {
		result, err := r.correctGrammar(ctx, current, language)
		switch {
		case err == nil:
			current = result.Text
			out.Corrections = result.Corrections
			out.ErrorCount = len(result.Corrections)
			out.StepsApplied = append(out.StepsApplied, StepCorrectGrammar)
		case ctx.Err() != nil:
			return out, ctx.Err()
		default:
			out.Degradations = append(out.Degradations, Degradation{Step: StepCorrectGrammar, Reason: err.Error()})
			r.logger.Warn("grammar correction degraded", logging.String("language", language), logging.Error(err))
		}
	}

	if r.opts.FormatParagraphs {
		current = FormatParagraphs(current, r.opts.SentencesPerParagraph)
		out.StepsApplied = append(out.StepsApplied, StepFormatParagraphs)
	}

	out.ProcessedText = current
	out.CharacterCount = utf8.RuneCountInString(current)
	out.WordCount = len(strings.Fields(current))
	return out, nil
}

// Close releases lazily-constructed grammar correctors.
func (r *Refiner) Close() error {
	if r.grammar == nil {
		return nil
	}
	return r.grammar.Close()
}

func (r *Refiner) restorePunctuation(ctx context.Context, text string) (string, error) {
	if r.punctuation == nil {
		return "", errors.New("punctuation restorer not configured")
	}

	threshold := r.opts.ChunkThreshold
	if threshold <= 0 {
		threshold = defaultChunkThreshold
	}
	if utf8.RuneCountInString(text) < threshold {
		return r.punctuation.Restore(ctx, text)
	}

	chunks := SplitIntoChunks(text, threshold)
	results := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		restored, err := r.punctuation.Restore(ctx, chunk)
		if err != nil {
			return "", err
		}
		results = append(results, restored)
	}
	return strings.Join(results, " "), nil
}

func (r *Refiner) correctGrammar(ctx context.Context, text, language string) (GrammarResult, error) {
	if r.grammar == nil {
		return GrammarResult{}, errors.New("grammar corrector not configured")
	}
	corrector, err := r.grammar.Corrector(language)
	if err != nil {
		return GrammarResult{}, err
	}
	if corrector == nil {
		// Unsupported language passes through with zero corrections.
		return GrammarResult{Text: text}, nil
	}
	return corrector.Correct(ctx, text)
}
