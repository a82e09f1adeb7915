package api_test

import (
	"context"
	"errors"
	"testing"

	"scribe/internal/api"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/services/ytdlp"
	"scribe/internal/testsupport"
)

type fakePreviewer struct {
	meta ytdlp.Metadata
	err  error
}

func (f *fakePreviewer) Preview(ctx context.Context, url string) (ytdlp.Metadata, error) {
	if f.err != nil {
		return ytdlp.Metadata{}, f.err
	}
	return f.meta, nil
}

func newService(t *testing.T) (*api.JobService, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	previewer := &fakePreviewer{meta: ytdlp.Metadata{VideoID: "abc123DEF45", Title: "Talk"}}
	return api.NewJobService(cfg, store, previewer, nil), store
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		url      string
		language string
	}{
		{"empty url", "", "en"},
		{"unrecognized url", "https://example.com/video", "en"},
		{"bad language", "https://youtu.be/abc123DEF45", "klingon-speak"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.url, tc.language); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestCreateNormalizesLanguage(t *testing.T) {
	svc, _ := newService(t)

	job, err := svc.Create(context.Background(), "https://youtu.be/abc123DEF45", "English")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.LanguageRequested != "en" {
		t.Fatalf("language = %q, want en", job.LanguageRequested)
	}
	if job.VideoID != "abc123DEF45" {
		t.Fatalf("video id = %q", job.VideoID)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("status = %s", job.Status)
	}
}

func TestCreateDefaultsToAuto(t *testing.T) {
	svc, _ := newService(t)

	job, err := svc.Create(context.Background(), "https://youtu.be/abc123DEF45", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.LanguageRequested != "auto" {
		t.Fatalf("language = %q, want auto", job.LanguageRequested)
	}
}

func TestGetUnknownJobIsNotFound(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Get(context.Background(), 999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://youtu.be/abc123DEF45", "abc123DEF45")

	if err := svc.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, job.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not found after soft delete", err)
	}
	if err := svc.Delete(ctx, job.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second delete err = %v, want not found", err)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newService(t)
	if _, _, err := svc.List(context.Background(), api.ListRequest{Status: "ripping"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRetryUnmatchedIDIsNotFound(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://youtu.be/abc123DEF45", "abc123DEF45")

	if _, err := svc.Retry(ctx, job.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("retrying a pending job: err = %v, want not found", err)
	}

	job.SetFailed("boom")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}
	affected, err := svc.Retry(ctx, job.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d", affected)
	}
}

func TestPreviewDelegates(t *testing.T) {
	svc, _ := newService(t)
	meta, err := svc.Preview(context.Background(), "https://youtu.be/abc123DEF45")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if meta.Title != "Talk" {
		t.Fatalf("meta = %+v", meta)
	}
}
