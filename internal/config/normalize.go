package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.YouTube.Binary = strings.TrimSpace(c.YouTube.Binary)
	c.YouTube.AudioFormat = strings.ToLower(strings.TrimSpace(c.YouTube.AudioFormat))
	c.YouTube.AudioQuality = strings.TrimSpace(c.YouTube.AudioQuality)
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	c.Whisper.ConfidencePolicy = strings.ToLower(strings.TrimSpace(c.Whisper.ConfidencePolicy))
	c.LanguageTool.BaseURL = strings.TrimRight(strings.TrimSpace(c.LanguageTool.BaseURL), "/")
	c.Punctuation.Binary = strings.TrimSpace(c.Punctuation.Binary)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.YouTube.AudioFormat == "" {
		c.YouTube.AudioFormat = defaultAudioFormat
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if c.Whisper.ConfidencePolicy == "" {
		c.Whisper.ConfidencePolicy = defaultConfidencePolicy
	}
	if c.Refiner.ChunkThreshold <= 0 {
		c.Refiner.ChunkThreshold = defaultChunkThreshold
	}
	if c.Refiner.SentencesPerParagraph <= 0 {
		c.Refiner.SentencesPerParagraph = defaultSentencesPerPara
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.MaxConcurrentJobs <= 0 {
		c.Workflow.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
