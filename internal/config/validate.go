package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateRefiner(); err != nil {
		return err
	}
	if err := c.validateLanguageTool(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.AudioDir) == "" {
		return errors.New("paths.audio_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	switch c.Whisper.ConfidencePolicy {
	case "complement_no_speech", "fixed":
	default:
		return fmt.Errorf("whisper.confidence_policy must be %q or %q, got %q",
			"complement_no_speech", "fixed", c.Whisper.ConfidencePolicy)
	}
	if c.Whisper.FixedConfidence < 0 || c.Whisper.FixedConfidence > 1 {
		return errors.New("whisper.fixed_confidence must be between 0 and 1")
	}
	if c.Whisper.Timeout < 0 {
		return errors.New("whisper.timeout must not be negative")
	}
	return nil
}

func (c *Config) validateRefiner() error {
	if c.Refiner.ChunkThreshold < 100 {
		return errors.New("refiner.chunk_threshold must be at least 100 characters")
	}
	if c.Refiner.SentencesPerParagraph < 1 {
		return errors.New("refiner.sentences_per_paragraph must be at least 1")
	}
	return nil
}

func (c *Config) validateLanguageTool() error {
	if !c.LanguageTool.Enabled {
		return nil
	}
	if strings.TrimSpace(c.LanguageTool.BaseURL) == "" {
		return errors.New("languagetool.base_url must be set when languagetool.enabled is true")
	}
	if !strings.HasPrefix(c.LanguageTool.BaseURL, "http://") && !strings.HasPrefix(c.LanguageTool.BaseURL, "https://") {
		return fmt.Errorf("languagetool.base_url must be an http(s) URL, got %q", c.LanguageTool.BaseURL)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxConcurrentJobs < 1 {
		return errors.New("workflow.max_concurrent_jobs must be at least 1")
	}
	if c.Workflow.QueuePollInterval < 1 {
		return errors.New("workflow.queue_poll_interval must be at least 1 second")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
