package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path for diagnostics.
func (s *Store) Path() string {
	return s.path
}

// NewJob inserts a new pending job for a source URL.
func (s *Store) NewJob(ctx context.Context, sourceURL, videoID, language string) (*Job, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, errors.New("source url is required")
	}
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video id is required")
	}
	if strings.TrimSpace(language) == "" {
		language = "auto"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            source_url, video_id, language_requested, status, progress, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sourceURL,
		videoID,
		language,
		StatusPending,
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Soft-deleted jobs are not returned.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ? AND deleted = 0`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// FindByVideoID returns the most recent live job for a video identifier.
func (s *Store) FindByVideoID(ctx context.Context, videoID string) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE video_id = ? AND deleted = 0 ORDER BY created_at DESC, id DESC LIMIT 1`,
		videoID,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by video id: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET source_url = ?, video_id = ?, title = ?, duration_seconds = ?, channel = ?,
             language_requested = ?, language_detected = ?, status = ?, progress = ?,
             raw_text = ?, refined_text = ?, confidence = ?, word_count = ?,
             error_message = ?, audio_path = ?, transcriber = ?, model = ?,
             processing_seconds = ?, retry_count = ?, deleted = ?,
             updated_at = ?, completed_at = ?
         WHERE id = ?`,
		job.SourceURL,
		job.VideoID,
		nullableString(job.Title),
		nullableFloat(job.DurationSeconds),
		nullableString(job.Channel),
		job.LanguageRequested,
		nullableString(job.LanguageDetected),
		job.Status,
		job.Progress,
		nullableString(job.RawText),
		nullableString(job.RefinedText),
		nullableFloat(job.Confidence),
		nullableInt(job.WordCount),
		nullableString(job.ErrorMessage),
		nullableString(job.AudioPath),
		nullableString(job.Transcriber),
		nullableString(job.Model),
		nullableFloat(job.ProcessingSeconds),
		job.RetryCount,
		boolToInt(job.Deleted),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// ListFilter narrows and pages List results. Page is 1-based.
type ListFilter struct {
	Statuses []Status
	Language string
	Page     int
	PageSize int
}

// DefaultPageSize is used when a filter does not specify one.
const DefaultPageSize = 20

// MaxPageSize bounds a single page.
const MaxPageSize = 100

// List returns live jobs ordered by creation time descending, plus the total
// count matching the filter before paging.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Job, int, error) {
	where := []string{"deleted = 0"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := makePlaceholders(len(filter.Statuses))
		where = append(where, "status IN ("+placeholders+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if lang := strings.TrimSpace(filter.Language); lang != "" {
		where = append(where, "(language_requested = ? OR language_detected = ?)")
		args = append(args, lang, lang)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + whereClause +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

// NextForStatuses returns the oldest live job matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status IN (` + placeholders + `) AND deleted = 0 ORDER BY created_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ResetStuckProcessing resets jobs left in processing states back to pending.
// Used at daemon startup after a crash: interrupted jobs re-run from the top.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, progress = 0, error_message = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?) AND deleted = 0`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusDownloading,
		StatusExtracting,
		StatusTranscribing,
		StatusPostProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to pending for reprocessing, incrementing
// their retry counter. With no ids, every failed job is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	setClause := `SET status = ?, progress = 0, error_message = NULL, completed_at = NULL,
            retry_count = retry_count + 1, updated_at = ?`

	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs `+setClause+` WHERE status = ? AND deleted = 0`,
			StatusPending, timestamp, StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := []any{StatusPending, timestamp}
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE jobs ` + setClause +
		` WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `' AND deleted = 0`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// SoftDelete marks a job deleted without removing the row. Subsequent reads
// treat the job as not found.
func (s *Store) SoftDelete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// StatsSummary aggregates live jobs for the stats operation.
func (s *Store) StatsSummary(ctx context.Context) (Stats, error) {
	stats := Stats{
		ByStatus:   make(map[Status]int),
		ByLanguage: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs WHERE deleted = 0 GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	langRows, err := s.db.QueryContext(
		ctx,
		`SELECT language_detected, COUNT(1) FROM jobs
         WHERE deleted = 0 AND language_detected IS NOT NULL AND language_detected != ''
         GROUP BY language_detected`,
	)
	if err != nil {
		return stats, fmt.Errorf("language stats: %w", err)
	}
	defer langRows.Close()
	for langRows.Next() {
		var lang string
		var count int
		if err := langRows.Scan(&lang, &count); err != nil {
			return stats, err
		}
		stats.ByLanguage[lang] = count
	}
	if err := langRows.Err(); err != nil {
		return stats, err
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(AVG(confidence), 0), COALESCE(SUM(duration_seconds), 0), COALESCE(SUM(processing_seconds), 0)
         FROM jobs WHERE deleted = 0 AND status = ?`,
		StatusCompleted,
	)
	if err := row.Scan(&stats.MeanConfidence, &stats.TotalDurationSeconds, &stats.TotalProcessingSeconds); err != nil {
		return stats, fmt.Errorf("aggregate stats: %w", err)
	}

	return stats, nil
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.StatsSummary(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{Total: stats.Total}
	for status, count := range stats.ByStatus {
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		default:
			if IsProcessingStatus(status) {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// DatabaseHealth describes low-level database diagnostics.
type DatabaseHealth struct {
	Path        string
	Accessible  bool
	Integrity   string
	JournalMode string
}

// CheckHealth pings the database and runs a quick integrity check.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{Path: s.path}
	if err := s.db.PingContext(ctx); err != nil {
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.Accessible = true

	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&health.Integrity); err != nil {
		return health, fmt.Errorf("integrity check: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&health.JournalMode); err != nil {
		return health, fmt.Errorf("journal mode: %w", err)
	}
	return health, nil
}

const jobColumns = "id, source_url, video_id, title, duration_seconds, channel, " +
	"language_requested, language_detected, status, progress, raw_text, refined_text, " +
	"confidence, word_count, error_message, audio_path, transcriber, model, " +
	"processing_seconds, retry_count, deleted, created_at, updated_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		sourceURL    string
		videoID      string
		title        sql.NullString
		duration     sql.NullFloat64
		channel      sql.NullString
		langReq      string
		langDet      sql.NullString
		statusStr    string
		progress     int
		rawText      sql.NullString
		refinedText  sql.NullString
		confidence   sql.NullFloat64
		wordCount    sql.NullInt64
		errorMessage sql.NullString
		audioPath    sql.NullString
		transcriber  sql.NullString
		model        sql.NullString
		processing   sql.NullFloat64
		retryCount   int
		deleted      int
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceURL,
		&videoID,
		&title,
		&duration,
		&channel,
		&langReq,
		&langDet,
		&statusStr,
		&progress,
		&rawText,
		&refinedText,
		&confidence,
		&wordCount,
		&errorMessage,
		&audioPath,
		&transcriber,
		&model,
		&processing,
		&retryCount,
		&deleted,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                id,
		SourceURL:         sourceURL,
		VideoID:           videoID,
		Title:             title.String,
		DurationSeconds:   duration.Float64,
		Channel:           channel.String,
		LanguageRequested: langReq,
		LanguageDetected:  langDet.String,
		Status:            Status(statusStr),
		Progress:          progress,
		RawText:           rawText.String,
		RefinedText:       refinedText.String,
		Confidence:        confidence.Float64,
		WordCount:         int(wordCount.Int64),
		ErrorMessage:      errorMessage.String,
		AudioPath:         audioPath.String,
		Transcriber:       transcriber.String,
		Model:             model.String,
		ProcessingSeconds: processing.Float64,
		RetryCount:        retryCount,
		Deleted:           deleted != 0,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
