package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrDaemonUnavailable reports that the daemon API could not be reached.
var ErrDaemonUnavailable = errors.New("daemon API unavailable")

// Client talks to a running daemon over its HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds an API client for the given bind address. An empty bind
// returns a nil client.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// CreateJob enqueues a new transcription job.
func (c *Client) CreateJob(ctx context.Context, sourceURL, languageHint string) (JobView, error) {
	var job JobView
	body := map[string]string{"source_url": sourceURL, "language_hint": languageHint}
	err := c.do(ctx, http.MethodPost, "/api/jobs", nil, body, &job)
	return job, err
}

// GetJob fetches a single job by id.
func (c *Client) GetJob(ctx context.Context, id int64) (JobView, error) {
	var job JobView
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, &job)
	return job, err
}

// ListJobs fetches a page of jobs, optionally narrowed by status and language.
func (c *Client) ListJobs(ctx context.Context, status, language string, page, pageSize int) (JobListView, error) {
	values := url.Values{}
	if strings.TrimSpace(status) != "" {
		values.Set("status", status)
	}
	if strings.TrimSpace(language) != "" {
		values.Set("language", language)
	}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		values.Set("page_size", strconv.Itoa(pageSize))
	}

	var list JobListView
	err := c.do(ctx, http.MethodGet, "/api/jobs", values, nil, &list)
	return list, err
}

// DeleteJob removes a job.
func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// RetryJob resets a failed job back to pending.
func (c *Client) RetryJob(ctx context.Context, id int64) (int64, error) {
	var payload struct {
		Retried int64 `json:"retried"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/jobs/%d/retry", id), nil, nil, &payload)
	return payload.Retried, err
}

// RetryAllFailed resets every failed job back to pending.
func (c *Client) RetryAllFailed(ctx context.Context) (int64, error) {
	var payload struct {
		Retried int64 `json:"retried"`
	}
	err := c.do(ctx, http.MethodPost, "/api/jobs/retry", nil, nil, &payload)
	return payload.Retried, err
}

// Stats fetches aggregate queue statistics.
func (c *Client) Stats(ctx context.Context) (StatsView, error) {
	var stats StatsView
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &stats)
	return stats, err
}

// Preview fetches video metadata without creating a job.
func (c *Client) Preview(ctx context.Context, videoURL string) (PreviewView, error) {
	values := url.Values{}
	values.Set("url", videoURL)

	var preview PreviewView
	err := c.do(ctx, http.MethodGet, "/api/preview", values, nil, &preview)
	return preview, err
}

// Health fetches the daemon's queue health summary.
func (c *Client) Health(ctx context.Context) (HealthView, error) {
	var health HealthView
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &health)
	return health, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrDaemonUnavailable
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader *strings.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(encoded))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&failure); decodeErr == nil && failure.Error != "" {
			return fmt.Errorf("daemon: %s", failure.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsDaemonUnavailable reports whether err indicates the daemon is not
// reachable at all, as opposed to an application-level failure.
func IsDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrDaemonUnavailable) || errors.As(err, &opErr)
}
