package pipeline

import (
	"context"
	"sync"
	"testing"

	"contentforge/internal/domain"
)

func TestPauseRegistry(t *testing.T) {
	reg := NewPauseRegistry()
	if reg.IsPaused("tenant-a") {
		t.Fatal("fresh registry must not be paused")
	}

	reg.Pause("tenant-a")
	if !reg.IsPaused("tenant-a") {
		t.Fatal("tenant-a should be paused")
	}
	if reg.IsPaused("tenant-b") {
		t.Fatal("pause must be tenant-scoped")
	}

	reg.Resume("tenant-a")
	if reg.IsPaused("tenant-a") {
		t.Fatal("resume should clear the flag")
	}
}

func TestPauseRegistryConcurrentToggle(t *testing.T) {
	reg := NewPauseRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Pause("tenant-a")
			reg.IsPaused("tenant-a")
			reg.Resume("tenant-a")
		}()
	}
	wg.Wait()
	if reg.IsPaused("tenant-a") {
		t.Fatal("registry should settle unpaused")
	}
}

func TestStatusCancelToken(t *testing.T) {
	jobs := newFakeJobs()
	job := pendingJob("job-1", "tenant-a")
	job.Status = domain.JobStatusProcessing
	jobs.add(job)

	token := NewStatusCancelToken(jobs, "job-1")

	stop, err := token.Cancelled(context.Background())
	if err != nil || stop {
		t.Fatalf("processing job: got (%v, %v), want (false, nil)", stop, err)
	}

	jobs.setStatus("job-1", domain.JobStatusCancelled)
	stop, err = token.Cancelled(context.Background())
	if err != nil || !stop {
		t.Fatalf("cancelled job: got (%v, %v), want (true, nil)", stop, err)
	}

	missing := NewStatusCancelToken(jobs, "job-unknown")
	stop, err = missing.Cancelled(context.Background())
	if err != nil || !stop {
		t.Fatalf("missing job: got (%v, %v), want (true, nil)", stop, err)
	}
}
