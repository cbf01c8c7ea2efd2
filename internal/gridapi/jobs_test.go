package gridapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

func jobJSON(state types.JobState, progress int) string {
	return fmt.Sprintf(`{
		"id": "j-42",
		"kind": "report_generate",
		"state": %q,
		"progress": %d,
		"resource_id": "r-7",
		"enqueued_at": "2026-01-02T03:04:05Z"
	}`, state, progress)
}

func TestAwaitJobPollsToSuccess(t *testing.T) {
	states := []string{
		jobJSON(types.JobQueued, 0),
		jobJSON(types.JobRunning, 40),
		jobJSON(types.JobRunning, 80),
		jobJSON(types.JobSucceeded, 100),
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/jobs/j-42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		n := int(calls.Add(1)) - 1
		if n >= len(states) {
			n = len(states) - 1
		}
		fmt.Fprint(w, states[n])
	}))
	defer srv.Close()

	c := testClient(t, srv)
	var seen []int
	job, err := c.AwaitJob(context.Background(), "j-42", AwaitOptions{
		PollInterval: time.Millisecond,
		OnProgress:   func(j types.Job) { seen = append(seen, j.Progress) },
	})
	if err != nil {
		t.Fatalf("AwaitJob: %v", err)
	}
	if job.State != types.JobSucceeded {
		t.Errorf("final state = %s", job.State)
	}
	if job.ResourceID != "r-7" {
		t.Errorf("ResourceID = %q (resource_id not normalized)", job.ResourceID)
	}
	want := []int{0, 40, 80, 100}
	if len(seen) != len(want) {
		t.Fatalf("OnProgress saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("OnProgress[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestAwaitJobFailureReturnsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "j-9",
			"kind": "compliance_run",
			"state": "failed",
			"error": "rule pack missing",
			"enqueued_at": "2026-01-02T03:04:05Z"
		}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	job, err := c.AwaitJob(context.Background(), "j-9", AwaitOptions{PollInterval: time.Millisecond})
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("want ErrJobFailed, got %v", err)
	}
	if job == nil || job.Error != "rule pack missing" {
		t.Errorf("want last snapshot with server error, got %+v", job)
	}
}

func TestAwaitJobCancelledIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, jobJSON(types.JobCancelled, 10))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.AwaitJob(context.Background(), "j-42", AwaitOptions{PollInterval: time.Millisecond})
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("cancelled job must report ErrJobFailed, got %v", err)
	}
}

func TestAwaitJobContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, jobJSON(types.JobRunning, 50))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	job, err := c.AwaitJob(ctx, "j-42", AwaitOptions{
		PollInterval: 5 * time.Millisecond,
		MaxInterval:  5 * time.Millisecond,
	})
	if !errors.Is(err, ErrJobTimeout) {
		t.Fatalf("want ErrJobTimeout, got %v", err)
	}
	if job == nil || job.State != types.JobRunning {
		t.Errorf("want last running snapshot, got %+v", job)
	}
}
