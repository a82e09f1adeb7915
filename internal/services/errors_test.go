package services_test

import (
	"errors"
	"testing"

	"scribe/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrAcquisition, "download", "fetch audio", "yt-dlp failed", cause)

	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected acquisition marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "transcribe", "", "model crashed", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default external tool marker, got %v", err)
	}
}

func TestMessageStripsSentinelPrefix(t *testing.T) {
	err := services.Wrap(services.ErrTranscription, "transcribe", "run whisper", "exit status 1", nil)
	got := services.Message(err)
	want := "transcribe: run whisper: exit status 1"
	if got != want {
		t.Fatalf("Message = %q, want %q", got, want)
	}
}

func TestMessageNil(t *testing.T) {
	if got := services.Message(nil); got != "" {
		t.Fatalf("expected empty message for nil error, got %q", got)
	}
}
