package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	AudioDir string `toml:"audio_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
}

// YouTube contains configuration for source acquisition via yt-dlp.
type YouTube struct {
	Binary          string `toml:"binary"`
	AudioFormat     string `toml:"audio_format"`
	AudioQuality    string `toml:"audio_quality"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Whisper contains configuration for the transcription backend.
type Whisper struct {
	Binary  string `toml:"binary"`
	Model   string `toml:"model"`
	Timeout int    `toml:"timeout"`
	// ConfidencePolicy selects how per-segment confidence is aggregated:
	// "complement_no_speech" (1 - mean no_speech_prob) or "fixed".
	ConfidencePolicy string  `toml:"confidence_policy"`
	FixedConfidence  float64 `toml:"fixed_confidence"`
}

// Refiner contains configuration for the post-processing text pipeline.
type Refiner struct {
	RemoveFillers         bool `toml:"remove_fillers"`
	RestorePunctuation    bool `toml:"restore_punctuation"`
	CorrectGrammar        bool `toml:"correct_grammar"`
	FormatParagraphs      bool `toml:"format_paragraphs"`
	ChunkThreshold        int  `toml:"chunk_threshold"`
	SentencesPerParagraph int  `toml:"sentences_per_paragraph"`
}

// LanguageTool contains configuration for the grammar checking service.
type LanguageTool struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	Timeout int    `toml:"timeout"`
}

// Punctuation contains configuration for the punctuation restoration tool.
type Punctuation struct {
	Enabled bool   `toml:"enabled"`
	Binary  string `toml:"binary"`
	Timeout int    `toml:"timeout"`
}

// Workflow contains configuration for daemon timing and concurrency.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	MaxConcurrentJobs  int `toml:"max_concurrent_jobs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Paths: audio staging, logs, and API bind address
//   - YouTube: yt-dlp acquisition settings
//   - Whisper: transcription backend and confidence aggregation
//   - Refiner: post-processing step toggles and thresholds
//   - LanguageTool: grammar checking service connection
//   - Punctuation: punctuation restoration tool
//   - Workflow: daemon polling intervals and job concurrency
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	YouTube      YouTube      `toml:"youtube"`
	Whisper      Whisper      `toml:"whisper"`
	Refiner      Refiner      `toml:"refiner"`
	LanguageTool LanguageTool `toml:"languagetool"`
	Punctuation  Punctuation  `toml:"punctuation"`
	Workflow     Workflow     `toml:"workflow"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.AudioDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	if strings.TrimSpace(c.YouTube.Binary) != "" {
		return c.YouTube.Binary
	}
	return "yt-dlp"
}

// WhisperBinary returns the whisper executable name.
func (c *Config) WhisperBinary() string {
	if strings.TrimSpace(c.Whisper.Binary) != "" {
		return c.Whisper.Binary
	}
	return "whisper"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
