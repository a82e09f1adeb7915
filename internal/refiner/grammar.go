package refiner

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Correction describes one grammar or spelling fix applied to the text.
type Correction struct {
	Original    string `json:"original"`
	Replacement string `json:"correction"`
	Message     string `json:"message"`
	Rule        string `json:"type"`
}

// GrammarResult is the outcome of a grammar-correction pass.
type GrammarResult struct {
	Text        string
	Corrections []Correction
}

// GrammarCorrector checks and corrects text in a single language.
type GrammarCorrector interface {
	Correct(ctx context.Context, text string) (GrammarResult, error)
}

// PunctuationRestorer re-inserts punctuation into unpunctuated text.
type PunctuationRestorer interface {
	Restore(ctx context.Context, text string) (string, error)
}

// CorrectorFactory constructs a corrector bound to one language. Returning a
// nil corrector with a nil error means the language is unsupported and the
// grammar step passes through with zero corrections.
type CorrectorFactory func(language string) (GrammarCorrector, error)

// Registry lazily constructs and caches one grammar corrector per language.
// The first request for a language builds the corrector; later requests are
// lookups. Close releases every held corrector that implements io.Closer.
type Registry struct {
	mu         sync.Mutex
	factory    CorrectorFactory
	correctors map[string]GrammarCorrector
}

// NewRegistry creates a registry backed by the given factory.
func NewRegistry(factory CorrectorFactory) *Registry {
	return &Registry{
		factory:    factory,
		correctors: make(map[string]GrammarCorrector),
	}
}

// Corrector returns the cached corrector for a language, constructing it on
// first use. A nil corrector with nil error signals an unsupported language.
func (r *Registry) Corrector(language string) (GrammarCorrector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if corrector, ok := r.correctors[language]; ok {
		return corrector, nil
	}
	corrector, err := r.factory(language)
	if err != nil {
		return nil, err
	}
	r.correctors[language] = corrector
	return corrector, nil
}

// Close releases all held correctors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for language, corrector := range r.correctors {
		if closer, ok := corrector.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		delete(r.correctors, language)
	}
	return errors.Join(errs...)
}
