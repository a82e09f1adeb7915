package api_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"scribe/internal/api"
)

func newTestClient(t *testing.T) (*api.Client, *api.JobService) {
	t.Helper()
	server, svc := newTestServer(t)
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	client, err := api.NewClient(httpServer.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, svc
}

func TestClientCreateListGetDelete(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateJob(ctx, "https://youtu.be/abc123DEF45", "en")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if created.Status != "pending" || created.VideoID != "abc123DEF45" {
		t.Fatalf("created = %+v", created)
	}

	list, err := client.ListJobs(ctx, "", "", 1, 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if list.Total != 1 || len(list.Jobs) != 1 {
		t.Fatalf("list = %+v", list)
	}

	fetched, err := client.GetJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("fetched = %+v", fetched)
	}

	if err := client.DeleteJob(ctx, created.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if _, err := client.GetJob(ctx, created.ID); err == nil {
		t.Fatal("GetJob after delete succeeded")
	}
}

func TestClientSurfacesDaemonErrorBody(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.CreateJob(context.Background(), "https://example.com/nope", "en")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if api.IsDaemonUnavailable(err) {
		t.Fatalf("validation error misreported as unavailable: %v", err)
	}
}

func TestClientHealth(t *testing.T) {
	client, _ := newTestClient(t)

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("health = %+v", health)
	}
}

func TestIsDaemonUnavailable(t *testing.T) {
	client, err := api.NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Health(context.Background())
	if err == nil {
		t.Fatal("expected connection failure")
	}
	if !api.IsDaemonUnavailable(err) {
		t.Fatalf("connection refusal not detected: %v", err)
	}
}
