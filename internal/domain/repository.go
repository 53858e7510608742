package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for jobs, including the atomic claim.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	// GetByID fetches a job regardless of tenant; callers enforce ownership.
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// Claim atomically transitions a job into processing for the given
	// tenant. It succeeds when the job is pending, failed, or stuck in
	// processing longer than staleAfter. Returns true iff exactly one row
	// changed; a false return must cause no side effects in the caller.
	Claim(ctx context.Context, jobID, tenantID string, staleAfter time.Duration) (bool, error)
	// Finalize writes a terminal (or failed) status together with the
	// completion timestamp, last error and, when set, the artifact id.
	Finalize(ctx context.Context, jobID string, status JobStatus, errMsg string, artifactID *string) error
	// Cancel marks the given jobs cancelled when they are not yet terminal.
	// Returns the number of jobs actually cancelled.
	Cancel(ctx context.Context, tenantID string, jobIDs []string) (int64, error)
	// NextPending returns up to limit pending job ids in queue order,
	// grouped with their tenant so callers can honor tenant pause.
	NextPending(ctx context.Context, limit int) ([]PendingJob, error)
}

// PendingJob is the claim-loop view of a queued job.
type PendingJob struct {
	ID       string
	TenantID string
}

// ArtifactRepository persists artifacts, their content variants and the
// optional generated asset.
type ArtifactRepository interface {
	// Ensure returns the artifact for the job, creating it when absent.
	// Creation is idempotent: concurrent callers observe the same row.
	Ensure(ctx context.Context, jobID string) (*Artifact, error)
	GetByJobID(ctx context.Context, jobID string) (*Artifact, error)
	SaveVariants(ctx context.Context, artifactID string, variants []ContentVariant) error
	ListVariants(ctx context.Context, artifactID string) ([]ContentVariant, error)
	// DeleteVariants discards the variants of the current attempt so a retry
	// can regenerate them without duplicates.
	DeleteVariants(ctx context.Context, artifactID string) error
	// AttachAsset upserts the artifact's asset keyed by artifact id. Safe to
	// call from a late-completing stage after the job was finalized.
	AttachAsset(ctx context.Context, asset *GeneratedAsset) error
	GetAsset(ctx context.Context, artifactID string) (*GeneratedAsset, error)
}
