package jobs

import (
	"context"
	"testing"

	"platefinder/internal/search"
	"platefinder/internal/types"
)

func TestMemoryStore_FullLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := types.ID("job-1")

	if err := s.Create(ctx, id); err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("expected PENDING after create, got %v", job.Status)
	}

	if err := s.SetRunning(ctx, id); err != nil {
		t.Fatalf("SetRunning: %v", err)
	}
	job, _ = s.Get(ctx, id)
	if job.Status != StatusRunning {
		t.Errorf("expected RUNNING, got %v", job.Status)
	}
	if job.StatusVersion != 1 {
		t.Errorf("expected status version bumped to 1, got %d", job.StatusVersion)
	}

	resp := search.SearchResponse{RequestID: id}
	if err := s.SetResult(ctx, id, resp); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	job, _ = s.Get(ctx, id)
	if job.Status != StatusDoneSuccess {
		t.Errorf("expected DONE_SUCCESS, got %v", job.Status)
	}
	if job.Result == nil || job.Result.RequestID != id {
		t.Errorf("expected result stored, got %v", job.Result)
	}
}

func TestMemoryStore_SetError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := types.ID("job-err")

	_ = s.Create(ctx, id)
	_ = s.SetRunning(ctx, id)
	if err := s.SetError(ctx, id, "boom"); err != nil {
		t.Fatalf("SetError: %v", err)
	}
	job, _ := s.Get(ctx, id)
	if job.Status != StatusDoneFailed || job.Error != "boom" {
		t.Errorf("expected DONE_FAILED with error message, got %+v", job)
	}
}

func TestMemoryStore_GetUnknownJob(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), types.ID("missing")); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_RejectsInvalidTransition(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := types.ID("job-2")
	_ = s.Create(ctx, id)

	if err := s.SetResult(ctx, id, search.SearchResponse{}); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition jumping PENDING->DONE_SUCCESS, got %v", err)
	}
}

func TestMemoryStore_NoBackTransition(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := types.ID("job-3")
	_ = s.Create(ctx, id)
	_ = s.SetRunning(ctx, id)
	_ = s.SetResult(ctx, id, search.SearchResponse{})

	if err := s.SetRunning(ctx, id); err != ErrInvalidTransition {
		t.Errorf("expected terminal state to reject further transitions, got %v", err)
	}
}

func TestMemoryStore_SweepExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := types.ID("old-job")
	_ = s.Create(ctx, id)

	s.mu.Lock()
	s.jobs[id].CreatedAt = s.jobs[id].CreatedAt.Add(-2 * DefaultTTL)
	s.mu.Unlock()

	s.sweepExpired(DefaultTTL)

	if _, err := s.Get(ctx, id); err != ErrNotFound {
		t.Errorf("expected expired job swept, got err=%v", err)
	}
}

func TestMemoryStore_SweepKeepsFreshJobs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := types.ID("fresh-job")
	_ = s.Create(ctx, id)

	s.sweepExpired(DefaultTTL)

	if _, err := s.Get(ctx, id); err != nil {
		t.Errorf("expected fresh job to survive sweep, got %v", err)
	}
}
