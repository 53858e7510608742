package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contentforge/internal/domain"
	"contentforge/internal/pipeline"
	"contentforge/internal/providers/asset"
	"contentforge/internal/providers/content"
)

type queueJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newQueueJobs() *queueJobs {
	return &queueJobs{jobs: make(map[string]*domain.Job)}
}

func (q *queueJobs) add(id, tenant string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[id] = &domain.Job{
		ID:       id,
		TenantID: tenant,
		Status:   domain.JobStatusPending,
		Input:    domain.JobInput{Topic: "weekend special"},
		QueuedAt: time.Now(),
	}
}

func (q *queueJobs) status(id string) domain.JobStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		return job.Status
	}
	return ""
}

func (q *queueJobs) Create(ctx context.Context, job *domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	copied := *job
	q.jobs[job.ID] = &copied
	return nil
}

func (q *queueJobs) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (q *queueJobs) Claim(ctx context.Context, jobID, tenantID string, staleAfter time.Duration) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.TenantID != tenantID {
		return false, nil
	}
	if job.Status != domain.JobStatusPending && job.Status != domain.JobStatusFailed {
		return false, nil
	}
	now := time.Now()
	job.Status = domain.JobStatusProcessing
	job.ClaimedAt = &now
	return true, nil
}

func (q *queueJobs) Finalize(ctx context.Context, jobID string, status domain.JobStatus, errMsg string, artifactID *string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != domain.JobStatusProcessing {
		return nil
	}
	job.Status = status
	job.LastError = errMsg
	if artifactID != nil {
		job.ArtifactID = artifactID
	}
	return nil
}

func (q *queueJobs) Cancel(ctx context.Context, tenantID string, jobIDs []string) (int64, error) {
	return 0, nil
}

func (q *queueJobs) NextPending(ctx context.Context, limit int) ([]domain.PendingJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var pending []domain.PendingJob
	for _, job := range q.jobs {
		if job.Status == domain.JobStatusPending && len(pending) < limit {
			pending = append(pending, domain.PendingJob{ID: job.ID, TenantID: job.TenantID})
		}
	}
	return pending, nil
}

type queueArtifacts struct {
	mu       sync.Mutex
	byJob    map[string]*domain.Artifact
	variants map[string][]domain.ContentVariant
}

func newQueueArtifacts() *queueArtifacts {
	return &queueArtifacts{
		byJob:    make(map[string]*domain.Artifact),
		variants: make(map[string][]domain.ContentVariant),
	}
}

func (a *queueArtifacts) Ensure(ctx context.Context, jobID string) (*domain.Artifact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if artifact, ok := a.byJob[jobID]; ok {
		return artifact, nil
	}
	artifact := &domain.Artifact{ID: uuid.NewString(), JobID: jobID, CreatedAt: time.Now()}
	a.byJob[jobID] = artifact
	return artifact, nil
}

func (a *queueArtifacts) GetByJobID(ctx context.Context, jobID string) (*domain.Artifact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	artifact, ok := a.byJob[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return artifact, nil
}

func (a *queueArtifacts) SaveVariants(ctx context.Context, artifactID string, variants []domain.ContentVariant) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.variants[artifactID] = append(a.variants[artifactID], variants...)
	return nil
}

func (a *queueArtifacts) ListVariants(ctx context.Context, artifactID string) ([]domain.ContentVariant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.ContentVariant(nil), a.variants[artifactID]...), nil
}

func (a *queueArtifacts) DeleteVariants(ctx context.Context, artifactID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.variants, artifactID)
	return nil
}

func (a *queueArtifacts) AttachAsset(ctx context.Context, asset *domain.GeneratedAsset) error {
	return nil
}

func (a *queueArtifacts) GetAsset(ctx context.Context, artifactID string) (*domain.GeneratedAsset, error) {
	return nil, domain.ErrNotFound
}

type fixedContentGenerator struct{}

func (fixedContentGenerator) Name() string { return "fixed" }

func (fixedContentGenerator) Generate(ctx context.Context, req content.Request) ([]content.Variant, error) {
	out := make([]content.Variant, len(req.Kinds))
	for i, kind := range req.Kinds {
		out[i] = content.Variant{Kind: kind, Text: "copy for " + string(kind)}
	}
	return out, nil
}

type fixedAssetGenerator struct{}

func (fixedAssetGenerator) Generate(ctx context.Context, req asset.Request) (*asset.Result, error) {
	return &asset.Result{URL: "https://cdn.local/" + req.ArtifactID, Format: "image/png", Provider: "fixed"}, nil
}

func TestWorkerDrainsPendingQueue(t *testing.T) {
	jobs := newQueueJobs()
	jobs.add("job-a", "tenant-a")
	jobs.add("job-b", "tenant-b")

	logger := zerolog.New(io.Discard)
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorOptions{
		Jobs:         jobs,
		Artifacts:    newQueueArtifacts(),
		Generators:   []content.Generator{fixedContentGenerator{}},
		Assets:       fixedAssetGenerator{},
		Logger:       logger,
		AssetTimeout: time.Second,
	})
	worker := &jobWorker{
		jobs:         jobs,
		orch:         orch,
		logger:       logger,
		pollInterval: 5 * time.Millisecond,
		batchSize:    10,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for jobs.status("job-a") != domain.JobStatusProcessed || jobs.status("job-b") != domain.JobStatusProcessed {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("queue not drained: job-a=%s job-b=%s", jobs.status("job-a"), jobs.status("job-b"))
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
