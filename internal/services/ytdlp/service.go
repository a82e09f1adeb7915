// Package ytdlp acquires audio and metadata from video platforms through the
// yt-dlp command line tool.
package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// videoIDPatterns match the 11-character video identifier in the URL shapes
// yt-dlp accepts: watch URLs, short URLs, and embeds.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:watch\?v=)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
}

// progressLine matches yt-dlp's --newline download progress output.
var progressLine = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)

// ExtractVideoID pulls the stable video identifier out of a source URL.
func ExtractVideoID(url string) (string, bool) {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(url); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// Metadata describes a video without downloading it.
type Metadata struct {
	VideoID         string  `json:"id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration"`
	Channel         string  `json:"channel"`
	Uploader        string  `json:"uploader"`
	Description     string  `json:"description"`
	Thumbnail       string  `json:"thumbnail"`
	UploadDate      string  `json:"upload_date"`
	ViewCount       int64   `json:"view_count"`
}

// ChannelName prefers the uploader field and falls back to the channel field.
func (m Metadata) ChannelName() string {
	if strings.TrimSpace(m.Uploader) != "" {
		return m.Uploader
	}
	return m.Channel
}

// ProgressFunc receives fractional download progress in [0, 1].
type ProgressFunc func(fraction float64)

// Service drives yt-dlp for preview and audio download.
type Service struct {
	binary        string
	audioDir      string
	audioFormat   string
	audioQuality  string
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a yt-dlp service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		binary:       cfg.YtdlpBinary(),
		audioDir:     cfg.Paths.AudioDir,
		audioFormat:  cfg.YouTube.AudioFormat,
		audioQuality: cfg.YouTube.AudioQuality,
		timeout:      time.Duration(cfg.YouTube.DownloadTimeout) * time.Second,
		logger:       logger.With(logging.String(logging.FieldComponent, "ytdlp")),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Preview fetches video metadata without creating files or downloading media.
func (s *Service) Preview(ctx context.Context, url string) (Metadata, error) {
	var meta Metadata
	if _, ok := ExtractVideoID(url); !ok {
		return meta, services.Wrap(services.ErrValidation, "preview", "parse url", "not a recognized video URL", nil)
	}

	output, err := s.run(ctx, "--dump-json", "--skip-download", "--no-warnings", url)
	if err != nil {
		return meta, services.Wrap(services.ErrAcquisition, "preview", "fetch metadata", "", err)
	}
	if err := json.Unmarshal(output, &meta); err != nil {
		return meta, services.Wrap(services.ErrAcquisition, "preview", "parse metadata", "", err)
	}
	return meta, nil
}

// Download fetches the audio track for a video into the audio directory and
// returns the local file path plus the video metadata. Fractional progress is
// reported through the observer when yt-dlp emits progress lines.
func (s *Service) Download(ctx context.Context, url, videoID string, observer ProgressFunc) (string, Metadata, error) {
	var meta Metadata

	if videoID == "" {
		extracted, ok := ExtractVideoID(url)
		if !ok {
			return "", meta, services.Wrap(services.ErrValidation, "download", "parse url", "not a recognized video URL", nil)
		}
		videoID = extracted
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", meta, services.Wrap(services.ErrAcquisition, "download", "ensure audio dir", "", err)
	}

	meta, err := s.Preview(ctx, url)
	if err != nil {
		return "", meta, err
	}

	outputTemplate := filepath.Join(s.audioDir, videoID+".%(ext)s")
	args := s.buildDownloadArgs(url, outputTemplate)

	if s.commandRunner != nil {
		if _, err := s.commandRunner(ctx, s.binary, args...); err != nil {
			return "", meta, services.Wrap(services.ErrAcquisition, "download", "run yt-dlp", "", err)
		}
	} else if err := s.stream(ctx, observer, args...); err != nil {
		return "", meta, services.Wrap(services.ErrAcquisition, "download", "run yt-dlp", "", err)
	}

	audioPath := filepath.Join(s.audioDir, videoID+"."+s.format())
	if _, err := os.Stat(audioPath); err != nil {
		return "", meta, services.Wrap(services.ErrAcquisition, "download", "locate audio", "audio file missing after download", err)
	}

	s.logger.Info("audio downloaded",
		logging.String("video_id", videoID),
		logging.String("path", audioPath))
	return audioPath, meta, nil
}

// Cleanup removes a downloaded audio file, ignoring files already gone.
func (s *Service) Cleanup(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove audio file: %w", err)
	}
	return nil
}

func (s *Service) buildDownloadArgs(url, outputTemplate string) []string {
	return []string{
		"--extract-audio",
		"--audio-format", s.format(),
		"--audio-quality", s.quality(),
		"--output", outputTemplate,
		"--no-warnings",
		"--newline",
		url,
	}
}

func (s *Service) format() string {
	if strings.TrimSpace(s.audioFormat) != "" {
		return s.audioFormat
	}
	return "mp3"
}

func (s *Service) quality() string {
	if strings.TrimSpace(s.audioQuality) != "" {
		return s.audioQuality
	}
	return "192K"
}

func (s *Service) run(ctx context.Context, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.binary, args...)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.binary, err)
	}
	return output, nil
}

// stream runs yt-dlp while parsing its progress output line by line. A
// sampler bounds how often the observer fires so a fast download does not
// flood the progress channel.
func (s *Service) stream(ctx context.Context, observer ProgressFunc, args ...string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.binary, err)
	}

	sampler := logging.NewProgressSampler(5)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		fraction, ok := parseProgressLine(scanner.Text())
		if !ok {
			continue
		}
		if observer != nil && sampler.ShouldLog(fraction*100, "downloading") {
			observer(fraction)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w", s.binary, err)
	}
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// parseProgressLine extracts a fractional progress value from a yt-dlp
// download progress line.
func parseProgressLine(line string) (float64, bool) {
	match := progressLine.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent / 100, true
}
