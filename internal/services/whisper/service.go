// Package whisper runs the Whisper command line transcriber and aggregates
// its per-segment output into a transcript with a single confidence value.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
	langpkg "scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Confidence aggregation policies.
const (
	PolicyComplementNoSpeech = "complement_no_speech"
	PolicyFixed              = "fixed"
)

// Segment is one timed span of transcribed speech.
type Segment struct {
	ID           int     `json:"id"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

type whisperPayload struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Result is a completed transcription.
type Result struct {
	Text       string
	Language   string
	Confidence float64
	Segments   []Segment
}

// Service drives the whisper binary.
type Service struct {
	binary          string
	model           string
	timeout         time.Duration
	policy          string
	fixedConfidence float64
	logger          *slog.Logger
	commandRunner   func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		binary:          cfg.WhisperBinary(),
		model:           cfg.Whisper.Model,
		timeout:         time.Duration(cfg.Whisper.Timeout) * time.Second,
		policy:          cfg.Whisper.ConfidencePolicy,
		fixedConfidence: cfg.Whisper.FixedConfidence,
		logger:          logger.With(logging.String(logging.FieldComponent, "whisper")),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging and job records.
func (s *Service) Model() string {
	if s.model != "" {
		return s.model
	}
	return "base"
}

// Transcribe runs whisper over an audio file and loads the JSON result it
// writes next to the audio. Language may be "auto" to let the model detect.
func (s *Service) Transcribe(ctx context.Context, audioPath, language, outputDir string) (Result, error) {
	var result Result

	if audioPath == "" {
		return result, services.Wrap(services.ErrValidation, "transcribe", "", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "ensure output dir", "", err)
	}

	args := s.buildArgs(audioPath, language, outputDir)
	if err := s.run(ctx, s.binary, args...); err != nil {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "run whisper", "", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")

	payload, err := loadPayload(jsonPath)
	if err != nil {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "load output", "", err)
	}

	result.Text = strings.TrimSpace(payload.Text)
	if result.Text == "" {
		result.Text = joinSegments(payload.Segments)
	}
	result.Language = payload.Language
	if result.Language == "" && !langpkg.IsAuto(language) {
		result.Language = language
	}
	result.Segments = payload.Segments
	result.Confidence = s.aggregateConfidence(payload.Segments)

	s.logger.Info("transcription finished",
		logging.String("language", result.Language),
		logging.Int("segments", len(result.Segments)),
		logging.Float64("confidence", result.Confidence))
	return result, nil
}

func (s *Service) buildArgs(audioPath, language, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", s.Model(),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--task", "transcribe",
	}
	if !langpkg.IsAuto(language) {
		if code := langpkg.Normalize(language); code != "" && code != langpkg.Auto {
			args = append(args, "--language", code)
		}
	}
	return args
}

// aggregateConfidence maps per-segment no-speech probabilities onto a single
// [0, 1] confidence. The complement policy uses 1 - mean(no_speech_prob);
// the fixed policy always reports the configured constant. With no segments
// the fixed value serves as the fallback under either policy.
func (s *Service) aggregateConfidence(segments []Segment) float64 {
	if s.policy == PolicyFixed || len(segments) == 0 {
		return clamp01(s.fixedConfidence)
	}

	var sum float64
	for _, segment := range segments {
		sum += segment.NoSpeechProb
	}
	return clamp01(1 - sum/float64(len(segments)))
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func loadPayload(jsonPath string) (whisperPayload, error) {
	var payload whisperPayload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse whisper json: %w", err)
	}
	return payload, nil
}

func joinSegments(segments []Segment) string {
	var parts []string
	for _, segment := range segments {
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
