package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a transcription job.
type Status string

const (
	StatusPending        Status = "pending"
	StatusDownloading    Status = "downloading"
	StatusExtracting     Status = "extracting"
	StatusTranscribing   Status = "transcribing"
	StatusPostProcessing Status = "post_processing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// MaxErrorMessageLength bounds the persisted error message so a failing
// external tool cannot grow the row without limit.
const MaxErrorMessageLength = 500

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusExtracting,
	StatusTranscribing,
	StatusPostProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:    {},
	StatusExtracting:     {},
	StatusTranscribing:   {},
	StatusPostProcessing: {},
}

// statusRank orders statuses along the pipeline. Failed shares the terminal
// rank with completed so ordering checks treat both as final.
var statusRank = map[Status]int{
	StatusPending:        0,
	StatusDownloading:    1,
	StatusExtracting:     2,
	StatusTranscribing:   3,
	StatusPostProcessing: 4,
	StatusCompleted:      5,
	StatusFailed:         5,
}

// Job represents a transcription job persisted in SQLite.
type Job struct {
	ID                int64
	SourceURL         string
	VideoID           string
	Title             string
	DurationSeconds   float64
	Channel           string
	LanguageRequested string
	LanguageDetected  string
	Status            Status
	Progress          int
	RawText           string
	RefinedText       string
	Confidence        float64
	WordCount         int
	ErrorMessage      string
	AudioPath         string
	Transcriber       string
	Model             string
	ProcessingSeconds float64
	RetryCount        int
	Deleted           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminalStatus reports whether a status can never transition again.
func IsTerminalStatus(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// StatusRank returns the pipeline position of a status. Later stages have
// larger ranks; completed and failed share the terminal rank.
func StatusRank(status Status) int {
	return statusRank[status]
}

// IsProcessing returns true when the job is in an in-flight stage.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsTerminal returns true when the job reached completed or failed.
func (j Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// Advance moves the job to the given status and progress. Progress never
// regresses: a smaller value than the current one is ignored.
func (j *Job) Advance(status Status, progress int) {
	j.Status = status
	j.SetProgress(progress)
}

// SetProgress raises the progress value, clamped to [0, 100] and never
// decreasing within a run.
func (j *Job) SetProgress(progress int) {
	if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
	}
}

// SetFailed marks the job as failed with a bounded error message and stamps
// the completion time if it has not been set yet.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = TruncateErrorMessage(message)
	if j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
}

// SetCompleted marks the job completed with full progress and stamps the
// completion time if it has not been set yet.
func (j *Job) SetCompleted() {
	j.Status = StatusCompleted
	j.SetProgress(100)
	if j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
}

// TruncateErrorMessage bounds an error message to MaxErrorMessageLength runes.
func TruncateErrorMessage(message string) string {
	message = strings.TrimSpace(message)
	runes := []rune(message)
	if len(runes) <= MaxErrorMessageLength {
		return message
	}
	return string(runes[:MaxErrorMessageLength])
}

// StageLabel returns the human-readable form of a status for progress output.
func (s Status) StageLabel() string {
	switch s {
	case StatusPostProcessing:
		return "Post-processing"
	case "":
		return ""
	default:
		value := string(s)
		return strings.ToUpper(value[:1]) + strings.ReplaceAll(value[1:], "_", " ")
	}
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Stats aggregates queue contents for the stats operation.
type Stats struct {
	Total                  int
	ByStatus               map[Status]int
	ByLanguage             map[string]int
	MeanConfidence         float64
	TotalDurationSeconds   float64
	TotalProcessingSeconds float64
}
