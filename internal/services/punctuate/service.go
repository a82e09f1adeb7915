// Package punctuate shells out to a punctuation restoration tool that reads
// plain text on stdin and writes punctuated text on stdout.
package punctuate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
)

const defaultTimeout = 120 * time.Second

// Service implements refiner.PunctuationRestorer over an external binary.
type Service struct {
	binary        string
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name, stdin string) (string, error)
}

// NewService creates a punctuation service from configuration. It returns nil
// when the feature is disabled so callers can pass the result straight to the
// refiner.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if !cfg.Punctuation.Enabled {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := defaultTimeout
	if cfg.Punctuation.Timeout > 0 {
		timeout = time.Duration(cfg.Punctuation.Timeout) * time.Second
	}
	return &Service{
		binary:  cfg.Punctuation.Binary,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "punctuate")),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name, stdin string) (string, error)) {
	s.commandRunner = runner
}

// Restore pipes text through the restoration tool and returns its output.
func (s *Service) Restore(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	output, err := s.run(ctx, text)
	if err != nil {
		return "", err
	}
	restored := strings.TrimSpace(output)
	if restored == "" {
		return "", fmt.Errorf("%s produced no output", s.binary)
	}
	return restored, nil
}

func (s *Service) run(ctx context.Context, stdin string) (string, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.binary, stdin)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", s.binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
