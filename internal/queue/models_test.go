package queue_test

import (
	"strings"
	"testing"
	"time"

	"scribe/internal/queue"
)

func TestParseStatus(t *testing.T) {
	status, ok := queue.ParseStatus("  Post_Processing ")
	if !ok || status != queue.StatusPostProcessing {
		t.Fatalf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("unknown status accepted")
	}
	if _, ok := queue.ParseStatus(""); ok {
		t.Fatal("empty status accepted")
	}
}

func TestSetProgressNeverDecreases(t *testing.T) {
	job := &queue.Job{}
	job.SetProgress(40)
	job.SetProgress(30)
	if job.Progress != 40 {
		t.Fatalf("progress = %d, want 40", job.Progress)
	}
	job.SetProgress(250)
	if job.Progress != 100 {
		t.Fatalf("progress = %d, want clamp to 100", job.Progress)
	}
}

func TestStatusRankOrdering(t *testing.T) {
	order := []queue.Status{
		queue.StatusPending,
		queue.StatusDownloading,
		queue.StatusExtracting,
		queue.StatusTranscribing,
		queue.StatusPostProcessing,
		queue.StatusCompleted,
	}
	for i := 1; i < len(order); i++ {
		if queue.StatusRank(order[i]) <= queue.StatusRank(order[i-1]) {
			t.Fatalf("rank(%s) <= rank(%s)", order[i], order[i-1])
		}
	}
	if queue.StatusRank(queue.StatusFailed) != queue.StatusRank(queue.StatusCompleted) {
		t.Fatal("failed and completed should share the terminal rank")
	}
}

func TestSetFailedStampsCompletionOnce(t *testing.T) {
	job := &queue.Job{}
	job.SetFailed("first failure")
	if job.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
	stamp := *job.CompletedAt

	time.Sleep(time.Millisecond)
	job.SetFailed("second failure")
	if !job.CompletedAt.Equal(stamp) {
		t.Fatal("completed_at changed on second failure")
	}
	if job.ErrorMessage != "second failure" {
		t.Fatalf("error message = %q", job.ErrorMessage)
	}
}

func TestSetCompletedForcesFullProgress(t *testing.T) {
	job := &queue.Job{Progress: 95}
	job.SetCompleted()
	if job.Status != queue.StatusCompleted || job.Progress != 100 {
		t.Fatalf("got status=%s progress=%d", job.Status, job.Progress)
	}
	if job.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
}

func TestTruncateErrorMessageBoundsRunes(t *testing.T) {
	long := strings.Repeat("é", queue.MaxErrorMessageLength+50)
	got := queue.TruncateErrorMessage(long)
	if runes := []rune(got); len(runes) != queue.MaxErrorMessageLength {
		t.Fatalf("truncated to %d runes, want %d", len(runes), queue.MaxErrorMessageLength)
	}

	short := "whisper exited 1"
	if queue.TruncateErrorMessage("  "+short+"  ") != short {
		t.Fatal("short message should be trimmed, not truncated")
	}
}

func TestStageLabel(t *testing.T) {
	cases := map[queue.Status]string{
		queue.StatusPending:        "Pending",
		queue.StatusPostProcessing: "Post-processing",
		queue.StatusTranscribing:   "Transcribing",
	}
	for status, want := range cases {
		if got := status.StageLabel(); got != want {
			t.Fatalf("StageLabel(%s) = %q, want %q", status, got, want)
		}
	}
}
