package pipeline

import (
	"context"
	"errors"
	"sync"

	"contentforge/internal/domain"
)

// PauseRegistry holds per-tenant pause flags. State is process-local and lost
// on restart; the batch driver consults it before dispatching each job, so an
// already-claimed job always runs to completion.
type PauseRegistry struct {
	mu     sync.RWMutex
	paused map[string]struct{}
}

// NewPauseRegistry returns an empty registry.
func NewPauseRegistry() *PauseRegistry {
	return &PauseRegistry{paused: make(map[string]struct{})}
}

// Pause stops new jobs from being dispatched for the tenant.
func (p *PauseRegistry) Pause(tenantID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused[tenantID] = struct{}{}
}

// Resume re-enables dispatching for the tenant.
func (p *PauseRegistry) Resume(tenantID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.paused, tenantID)
}

// IsPaused reports whether the tenant is currently paused.
func (p *PauseRegistry) IsPaused(tenantID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.paused[tenantID]
	return ok
}

// CancelToken reports whether a job's cancellation has been requested. It is
// threaded through the pipeline and polled at stage boundaries; detection
// latency is bounded by stage granularity, not real time.
type CancelToken interface {
	Cancelled(ctx context.Context) (bool, error)
}

// statusCancelToken detects cancellation by re-reading the job's persisted
// status. Once the orchestrator has claimed a job its status is processing;
// any other value means an external actor intervened and the orchestrator
// must stand down without overwriting it.
type statusCancelToken struct {
	jobs  domain.JobRepository
	jobID string
}

// NewStatusCancelToken builds a token backed by job status reads.
func NewStatusCancelToken(jobs domain.JobRepository, jobID string) CancelToken {
	return &statusCancelToken{jobs: jobs, jobID: jobID}
}

func (t *statusCancelToken) Cancelled(ctx context.Context) (bool, error) {
	job, err := t.jobs.GetByID(ctx, t.jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return job.Status != domain.JobStatusProcessing, nil
}
