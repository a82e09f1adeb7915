package config

const (
	defaultAudioDir           = "~/.local/share/scribe/audio"
	defaultLogDir             = "~/.local/share/scribe/logs"
	defaultAPIBind            = "127.0.0.1:8287"
	defaultAudioFormat        = "mp3"
	defaultAudioQuality       = "192"
	defaultDownloadTimeout    = 900
	defaultWhisperModel       = "base"
	defaultWhisperTimeout     = 3600
	defaultConfidencePolicy   = "complement_no_speech"
	defaultFixedConfidence    = 0.5
	defaultChunkThreshold     = 500
	defaultSentencesPerPara   = 5
	defaultLanguageToolURL    = "http://127.0.0.1:8010"
	defaultServiceTimeout     = 120
	defaultPunctuationBinary  = "restore-punctuation"
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultMaxConcurrentJobs  = 2
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir: defaultAudioDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		YouTube: YouTube{
			AudioFormat:     defaultAudioFormat,
			AudioQuality:    defaultAudioQuality,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Whisper: Whisper{
			Model:            defaultWhisperModel,
			Timeout:          defaultWhisperTimeout,
			ConfidencePolicy: defaultConfidencePolicy,
			FixedConfidence:  defaultFixedConfidence,
		},
		Refiner: Refiner{
			RemoveFillers:         true,
			RestorePunctuation:    true,
			CorrectGrammar:        true,
			FormatParagraphs:      true,
			ChunkThreshold:        defaultChunkThreshold,
			SentencesPerParagraph: defaultSentencesPerPara,
		},
		LanguageTool: LanguageTool{
			Enabled: true,
			BaseURL: defaultLanguageToolURL,
			Timeout: defaultServiceTimeout,
		},
		Punctuation: Punctuation{
			Enabled: true,
			Binary:  defaultPunctuationBinary,
			Timeout: defaultServiceTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxConcurrentJobs:  defaultMaxConcurrentJobs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
