package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/api"
	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func startTestDaemonAPI(t *testing.T) (string, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	service := api.NewJobService(cfg, store, nil, nil)
	server := api.NewServer("127.0.0.1:0", service, nil)
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return httpServer.URL, store
}

func runCommand(t *testing.T, apiAddr string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	full := append([]string{
		"--api", apiAddr,
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
	}, args...)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddAndListCommands(t *testing.T) {
	addr, _ := startTestDaemonAPI(t)

	out, err := runCommand(t, addr, "add", "https://youtu.be/abc123DEF45", "--language", "en")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "queued for abc123DEF45") {
		t.Fatalf("add output = %q", out)
	}

	out, err = runCommand(t, addr, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "abc123DEF45") && !strings.Contains(out, "Pending") {
		t.Fatalf("list output = %q", out)
	}
}

func TestShowCommandTextOnly(t *testing.T) {
	addr, store := startTestDaemonAPI(t)

	job := testsupport.NewJob(t, store, "https://youtu.be/abc123DEF45", "abc123DEF45")
	job.RefinedText = "Hello refined world."
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, err := runCommand(t, addr, "show", "1", "--text")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.TrimSpace(out) != "Hello refined world." {
		t.Fatalf("show output = %q", out)
	}
}

func TestRemoveCommandRejectsBadID(t *testing.T) {
	addr, _ := startTestDaemonAPI(t)

	if _, err := runCommand(t, addr, "remove", "zero"); err == nil {
		t.Fatal("remove accepted a non-numeric id")
	}
}

func TestHealthCommand(t *testing.T) {
	addr, _ := startTestDaemonAPI(t)

	out, err := runCommand(t, addr, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, "Daemon:     ok") {
		t.Fatalf("health output = %q", out)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{59, "0:59"},
		{61, "1:01"},
		{3661, "1:01:01"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.seconds); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("truncate = %q", got)
	}
}
