// Package pipeline drives one transcription job through its stages:
// download, extract, transcribe, post-process. Each stage persists status and
// progress before and after it runs, so readers always see a live view of the
// job. Progress is banded per stage over the 0-100 scale and never regresses.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/refiner"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
	"scribe/internal/services/ytdlp"
)

// Progress bands. Download maps its fractional progress onto [0, 30]; the
// later stages advance through fixed checkpoints.
const (
	bandDownloadMax    = 30
	bandExtractDone    = 30
	bandTranscribeFrom = 40
	bandTranscribeDone = 70
	bandRefineFrom     = 80
	bandRefineDone     = 95
)

// Source acquires audio and metadata for a job.
type Source interface {
	Download(ctx context.Context, url, videoID string, observer ytdlp.ProgressFunc) (string, ytdlp.Metadata, error)
}

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language, outputDir string) (whisper.Result, error)
	Model() string
}

// Refiner cleans a raw transcript.
type Refiner interface {
	Process(ctx context.Context, text, language string) (refiner.Output, error)
}

// Runner executes jobs end to end against the store.
type Runner struct {
	store       *queue.Store
	source      Source
	transcriber Transcriber
	refiner     Refiner
	outputDir   string
	logger      *slog.Logger
}

// NewRunner wires the pipeline's collaborators together. outputDir is where
// the transcriber writes its intermediate files.
func NewRunner(store *queue.Store, source Source, transcriber Transcriber, ref Refiner, outputDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:       store,
		source:      source,
		transcriber: transcriber,
		refiner:     ref,
		outputDir:   outputDir,
		logger:      logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// Run drives a job from pending to completed or failed. A stage error marks
// the job failed with a bounded error message, persists that state, and is
// then returned to the caller. Partially written stage fields stay visible;
// there is no rollback.
func (r *Runner) Run(ctx context.Context, job *queue.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()

	if err := r.runStages(ctx, job, logger); err != nil {
		job.SetFailed(services.Message(err))
		job.ProcessingSeconds = time.Since(start).Seconds()
		if updateErr := r.store.Update(ctx, job); updateErr != nil {
			logger.Error("persist failed state", logging.Error(updateErr))
		}
		logger.Error("job failed",
			logging.String(logging.FieldStage, string(job.Status)),
			logging.Error(err))
		return err
	}

	job.ProcessingSeconds = time.Since(start).Seconds()
	job.SetCompleted()
	if err := r.store.Update(ctx, job); err != nil {
		return err
	}
	logger.Info("job completed",
		logging.Float64("processing_seconds", job.ProcessingSeconds),
		logging.Float64("confidence", job.Confidence))
	return nil
}

func (r *Runner) runStages(ctx context.Context, job *queue.Job, logger *slog.Logger) error {
	audioPath, err := r.download(ctx, job, logger)
	if err != nil {
		return err
	}
	if err := r.transcribe(ctx, job, audioPath, logger); err != nil {
		return err
	}
	return r.refine(ctx, job, logger)
}

func (r *Runner) download(ctx context.Context, job *queue.Job, logger *slog.Logger) (string, error) {
	r.advance(ctx, job, queue.StatusDownloading, 0, logger)

	observer := func(fraction float64) {
		job.SetProgress(int(fraction * bandDownloadMax))
		if err := r.store.Update(ctx, job); err != nil {
			logger.Warn("persist download progress", logging.Error(err))
		}
	}

	audioPath, meta, err := r.source.Download(ctx, job.SourceURL, job.VideoID, observer)
	if err != nil {
		return "", err
	}
	job.AudioPath = audioPath
	job.SetProgress(bandDownloadMax)

	// Metadata extraction shares the download's band ceiling.
	r.advance(ctx, job, queue.StatusExtracting, bandExtractDone, logger)
	job.Title = meta.Title
	job.DurationSeconds = meta.DurationSeconds
	job.Channel = meta.ChannelName()
	if err := r.store.Update(ctx, job); err != nil {
		return "", err
	}
	return audioPath, nil
}

func (r *Runner) transcribe(ctx context.Context, job *queue.Job, audioPath string, logger *slog.Logger) error {
	job.Transcriber = "whisper"
	job.Model = r.transcriber.Model()
	r.advance(ctx, job, queue.StatusTranscribing, bandTranscribeFrom, logger)

	result, err := r.transcriber.Transcribe(ctx, audioPath, job.LanguageRequested, r.outputDir)
	if err != nil {
		return err
	}

	job.RawText = result.Text
	job.LanguageDetected = result.Language
	job.Confidence = result.Confidence
	job.SetProgress(bandTranscribeDone)
	return r.store.Update(ctx, job)
}

func (r *Runner) refine(ctx context.Context, job *queue.Job, logger *slog.Logger) error {
	r.advance(ctx, job, queue.StatusPostProcessing, bandRefineFrom, logger)

	language := job.LanguageDetected
	if language == "" {
		language = job.LanguageRequested
	}

	out, err := r.refiner.Process(ctx, job.RawText, language)
	if err != nil {
		return err
	}
	for _, degradation := range out.Degradations {
		logger.Warn("refinement step degraded",
			logging.String("step", degradation.Step),
			logging.String(logging.FieldErrorHint, degradation.Reason))
	}

	job.RefinedText = out.ProcessedText
	job.WordCount = out.WordCount
	job.SetProgress(bandRefineDone)
	return r.store.Update(ctx, job)
}

// advance moves the job into a stage, raises progress to the stage's entry
// point, and persists the transition.
func (r *Runner) advance(ctx context.Context, job *queue.Job, status queue.Status, progress int, logger *slog.Logger) {
	job.Advance(status, progress)
	if err := r.store.Update(ctx, job); err != nil {
		logger.Warn("persist stage transition", logging.Error(err))
	}
	logger.Info("stage started",
		logging.String(logging.FieldStage, string(status)),
		logging.Int("progress", job.Progress))
}
