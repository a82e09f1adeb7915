package api

import (
	"time"

	"scribe/internal/queue"
	"scribe/internal/services/ytdlp"
)

// JobView is the flat JSON shape of a job. Status values serialize as
// lowercase snake tokens.
type JobView struct {
	ID                int64   `json:"id"`
	SourceURL         string  `json:"source_url"`
	VideoID           string  `json:"video_id"`
	Title             string  `json:"title,omitempty"`
	DurationSeconds   float64 `json:"duration_seconds,omitempty"`
	Channel           string  `json:"channel,omitempty"`
	LanguageRequested string  `json:"language_requested"`
	LanguageDetected  string  `json:"language_detected,omitempty"`
	Status            string  `json:"status"`
	Progress          int     `json:"progress"`
	RawText           string  `json:"raw_text,omitempty"`
	RefinedText       string  `json:"refined_text,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
	WordCount         int     `json:"word_count,omitempty"`
	ErrorMessage      string  `json:"error_message,omitempty"`
	Transcriber       string  `json:"transcriber,omitempty"`
	Model             string  `json:"model,omitempty"`
	ProcessingSeconds float64 `json:"processing_seconds,omitempty"`
	RetryCount        int     `json:"retry_count,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	CompletedAt       string  `json:"completed_at,omitempty"`
}

// NewJobView flattens a job for serialization.
func NewJobView(job *queue.Job) JobView {
	view := JobView{
		ID:                job.ID,
		SourceURL:         job.SourceURL,
		VideoID:           job.VideoID,
		Title:             job.Title,
		DurationSeconds:   job.DurationSeconds,
		Channel:           job.Channel,
		LanguageRequested: job.LanguageRequested,
		LanguageDetected:  job.LanguageDetected,
		Status:            string(job.Status),
		Progress:          job.Progress,
		RawText:           job.RawText,
		RefinedText:       job.RefinedText,
		Confidence:        job.Confidence,
		WordCount:         job.WordCount,
		ErrorMessage:      job.ErrorMessage,
		Transcriber:       job.Transcriber,
		Model:             job.Model,
		ProcessingSeconds: job.ProcessingSeconds,
		RetryCount:        job.RetryCount,
		CreatedAt:         formatTime(job.CreatedAt),
		UpdatedAt:         formatTime(job.UpdatedAt),
	}
	if job.CompletedAt != nil {
		view.CompletedAt = formatTime(*job.CompletedAt)
	}
	return view
}

// JobListView pages jobs with the total match count.
type JobListView struct {
	Jobs     []JobView `json:"jobs"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// StatsView is the serialized stats aggregate.
type StatsView struct {
	Total                  int            `json:"total"`
	ByStatus               map[string]int `json:"by_status"`
	ByLanguage             map[string]int `json:"by_language"`
	MeanConfidence         float64        `json:"mean_confidence"`
	TotalDurationSeconds   float64        `json:"total_duration_seconds"`
	TotalProcessingSeconds float64        `json:"total_processing_seconds"`
}

// NewStatsView flattens queue stats for serialization.
func NewStatsView(stats queue.Stats) StatsView {
	view := StatsView{
		Total:                  stats.Total,
		ByStatus:               make(map[string]int, len(stats.ByStatus)),
		ByLanguage:             stats.ByLanguage,
		MeanConfidence:         stats.MeanConfidence,
		TotalDurationSeconds:   stats.TotalDurationSeconds,
		TotalProcessingSeconds: stats.TotalProcessingSeconds,
	}
	for status, count := range stats.ByStatus {
		view.ByStatus[string(status)] = count
	}
	return view
}

// PreviewView is the serialized video preview.
type PreviewView struct {
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	Channel         string  `json:"channel"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
	UploadDate      string  `json:"upload_date,omitempty"`
	ViewCount       int64   `json:"view_count,omitempty"`
}

// NewPreviewView flattens video metadata for serialization.
func NewPreviewView(meta ytdlp.Metadata) PreviewView {
	return PreviewView{
		VideoID:         meta.VideoID,
		Title:           meta.Title,
		DurationSeconds: meta.DurationSeconds,
		Channel:         meta.ChannelName(),
		Thumbnail:       meta.Thumbnail,
		UploadDate:      meta.UploadDate,
		ViewCount:       meta.ViewCount,
	}
}

// HealthView is the serialized queue health summary.
type HealthView struct {
	Status     string `json:"status"`
	Database   string `json:"database,omitempty"`
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	Processing int    `json:"processing"`
	Failed     int    `json:"failed"`
	Completed  int    `json:"completed"`
}

// NewHealthView flattens a health summary for serialization.
func NewHealthView(health queue.HealthSummary, db queue.DatabaseHealth) HealthView {
	view := HealthView{
		Status:     "ok",
		Database:   db.Integrity,
		Total:      health.Total,
		Pending:    health.Pending,
		Processing: health.Processing,
		Failed:     health.Failed,
		Completed:  health.Completed,
	}
	if !db.Accessible || (db.Integrity != "" && db.Integrity != "ok") {
		view.Status = "degraded"
	}
	return view
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
