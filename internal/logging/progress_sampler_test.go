package logging_test

import (
	"testing"

	"scribe/internal/logging"
)

func TestProgressSamplerSuppressesWithinBucket(t *testing.T) {
	sampler := logging.NewProgressSampler(5)

	if !sampler.ShouldLog(0, "download") {
		t.Fatal("first event suppressed")
	}
	if sampler.ShouldLog(1, "download") {
		t.Fatal("same-bucket event emitted")
	}
	if sampler.ShouldLog(4.9, "download") {
		t.Fatal("same-bucket event emitted")
	}
	if !sampler.ShouldLog(5, "download") {
		t.Fatal("bucket boundary suppressed")
	}
}

func TestProgressSamplerEmitsOnStageChange(t *testing.T) {
	sampler := logging.NewProgressSampler(5)

	sampler.ShouldLog(50, "download")
	if !sampler.ShouldLog(50, "transcribe") {
		t.Fatal("stage change suppressed")
	}
	if sampler.ShouldLog(50, "transcribe") {
		t.Fatal("repeat after stage change emitted")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	sampler := logging.NewProgressSampler(5)

	sampler.ShouldLog(90, "download")
	sampler.Reset()
	if !sampler.ShouldLog(0, "download") {
		t.Fatal("reset did not clear state")
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var sampler *logging.ProgressSampler
	if !sampler.ShouldLog(10, "download") {
		t.Fatal("nil sampler suppressed")
	}
}
