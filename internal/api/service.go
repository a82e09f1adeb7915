package api

import (
	"context"
	"log/slog"
	"strings"

	"scribe/internal/config"
	langpkg "scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/services/ytdlp"
)

// Previewer fetches video metadata without creating a job.
type Previewer interface {
	Preview(ctx context.Context, url string) (ytdlp.Metadata, error)
}

// JobService implements the job operations shared by the HTTP API and CLI.
type JobService struct {
	cfg       *config.Config
	store     *queue.Store
	previewer Previewer
	logger    *slog.Logger
}

// NewJobService builds a job service. The previewer may be nil when preview
// is not needed (e.g. some CLI paths).
func NewJobService(cfg *config.Config, store *queue.Store, previewer Previewer, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JobService{
		cfg:       cfg,
		store:     store,
		previewer: previewer,
		logger:    logger.With(logging.String(logging.FieldComponent, "api")),
	}
}

// Create validates a source URL and language hint and enqueues a new pending
// job for it.
func (s *JobService) Create(ctx context.Context, sourceURL, languageHint string) (*queue.Job, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, services.Wrap(services.ErrValidation, "create", "", "source url is required", nil)
	}
	videoID, ok := ytdlp.ExtractVideoID(sourceURL)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "create", "", "not a recognized video URL", nil)
	}

	language := langpkg.Normalize(languageHint)
	if language == "" {
		return nil, services.Wrap(services.ErrValidation, "create", "", "unrecognized language hint "+strings.TrimSpace(languageHint), nil)
	}

	job, err := s.store.NewJob(ctx, sourceURL, videoID, language)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job created",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("video_id", videoID),
		logging.String("language", language))
	return job, nil
}

// Get returns a job by id, or a not-found error for unknown and soft-deleted
// jobs alike.
func (s *JobService) Get(ctx context.Context, id int64) (*queue.Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "get", "", "no such job", nil)
	}
	return job, nil
}

// ListRequest narrows and pages the job list.
type ListRequest struct {
	Status   string
	Language string
	Page     int
	PageSize int
}

// List returns jobs ordered newest first, plus the total match count.
func (s *JobService) List(ctx context.Context, req ListRequest) ([]*queue.Job, int, error) {
	filter := queue.ListFilter{
		Language: strings.TrimSpace(req.Language),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := queue.ParseStatus(raw)
		if !ok {
			return nil, 0, services.Wrap(services.ErrValidation, "list", "", "unknown status "+raw, nil)
		}
		filter.Statuses = []queue.Status{status}
	}
	return s.store.List(ctx, filter)
}

// Stats aggregates the queue contents.
func (s *JobService) Stats(ctx context.Context) (queue.Stats, error) {
	return s.store.StatsSummary(ctx)
}

// Delete soft-deletes a job. Deleted jobs read as not-found afterwards.
func (s *JobService) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "delete", "", "no such job", nil)
	}
	s.logger.Info("job deleted", logging.Int64(logging.FieldJobID, id))
	return nil
}

// Retry moves failed jobs back to pending. With ids it retries those jobs;
// without, every failed job. It returns how many jobs were queued again.
func (s *JobService) Retry(ctx context.Context, ids ...int64) (int64, error) {
	affected, err := s.store.RetryFailed(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if affected == 0 && len(ids) > 0 {
		return 0, services.Wrap(services.ErrNotFound, "retry", "", "no failed job matched", nil)
	}
	return affected, nil
}

// Preview fetches metadata for a URL without creating a job.
func (s *JobService) Preview(ctx context.Context, url string) (ytdlp.Metadata, error) {
	if s.previewer == nil {
		return ytdlp.Metadata{}, services.Wrap(services.ErrConfiguration, "preview", "", "preview service not configured", nil)
	}
	return s.previewer.Preview(ctx, url)
}

// Health reports aggregate queue counts.
func (s *JobService) Health(ctx context.Context) (queue.HealthSummary, error) {
	return s.store.Health(ctx)
}

// DatabaseHealth reports low-level database diagnostics.
func (s *JobService) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return s.store.CheckHealth(ctx)
}
