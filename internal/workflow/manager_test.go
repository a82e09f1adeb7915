package workflow_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"scribe/internal/pipeline"
	"scribe/internal/queue"
	"scribe/internal/refiner"
	"scribe/internal/services/whisper"
	"scribe/internal/services/ytdlp"
	"scribe/internal/testsupport"
	"scribe/internal/workflow"
)

type fakeSource struct{}

func (fakeSource) Download(ctx context.Context, url, videoID string, observer ytdlp.ProgressFunc) (string, ytdlp.Metadata, error) {
	return "/audio/" + videoID + ".mp3", ytdlp.Metadata{Title: "Talk"}, nil
}

type fakeTranscriber struct {
	runs atomic.Int64
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language, outputDir string) (whisper.Result, error) {
	f.runs.Add(1)
	return whisper.Result{Text: "words", Language: "en", Confidence: 0.9}, nil
}

func (f *fakeTranscriber) Model() string { return "base" }

type fakeRefiner struct{}

func (fakeRefiner) Process(ctx context.Context, text, language string) (refiner.Output, error) {
	return refiner.Output{ProcessedText: text, Language: language, WordCount: 1}, nil
}

func TestManagerProcessesPendingJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.MaxConcurrentJobs = 2
	store := testsupport.MustOpenStore(t, cfg)

	first := testsupport.NewJob(t, store, "https://youtu.be/abc123DEF45", "abc123DEF45")
	second := testsupport.NewJob(t, store, "https://youtu.be/zzz999AAA11", "zzz999AAA11")

	transcriber := &fakeTranscriber{}
	runner := pipeline.NewRunner(store, fakeSource{}, transcriber, fakeRefiner{}, t.TempDir(), nil)
	manager := workflow.NewManager(cfg, store, runner, nil)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	deadline := time.After(5 * time.Second)
	for {
		a, err := store.GetByID(context.Background(), first.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		b, err := store.GetByID(context.Background(), second.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if a.Status == queue.StatusCompleted && b.Status == queue.StatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("jobs not completed: %s / %s", a.Status, b.Status)
		case <-time.After(20 * time.Millisecond):
		}
	}

	if got := transcriber.runs.Load(); got != 2 {
		t.Fatalf("transcriber runs = %d, want 2", got)
	}
}

func TestManagerStartResetsStuckJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	stuck := testsupport.NewJob(t, store, "https://youtu.be/abc123DEF45", "abc123DEF45")
	stuck.Advance(queue.StatusTranscribing, 55)
	if err := store.Update(context.Background(), stuck); err != nil {
		t.Fatalf("Update: %v", err)
	}

	runner := pipeline.NewRunner(store, fakeSource{}, &fakeTranscriber{}, fakeRefiner{}, t.TempDir(), nil)
	manager := workflow.NewManager(cfg, store, runner, nil)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	manager.Stop()

	got, err := store.GetByID(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// The reset job may already have been re-run to completion; it must not
	// still be stranded mid-transcription.
	if got.Status == queue.StatusTranscribing && got.Progress == 55 {
		t.Fatalf("stuck job was not reset: %+v", got)
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := pipeline.NewRunner(store, fakeSource{}, &fakeTranscriber{}, fakeRefiner{}, t.TempDir(), nil)
	manager := workflow.NewManager(cfg, store, runner, nil)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	manager.Stop()
	manager.Stop()
}
