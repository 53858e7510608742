package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"contentforge/internal/domain"
	"contentforge/internal/infra"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record in pending state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, tenant_id, campaign_id, owner_id, topic, category, interest_tags, locale, pre_supplied, status, queued_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.TenantID,
		job.CampaignID,
		job.OwnerID,
		job.Input.Topic,
		job.Input.Category,
		job.Input.InterestTags,
		job.Input.Locale,
		preSuppliedJSON(job.Input.PreSupplied),
		job.Status,
		job.QueuedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, tenant_id, campaign_id, owner_id, topic, category, interest_tags, locale, pre_supplied,
       status, artifact_id, queued_at, claimed_at, completed_at, last_error
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var (
		job     domain.Job
		rawPre  []byte
		lastErr *string
	)
	if err := row.Scan(
		&job.ID,
		&job.TenantID,
		&job.CampaignID,
		&job.OwnerID,
		&job.Input.Topic,
		&job.Input.Category,
		&job.Input.InterestTags,
		&job.Input.Locale,
		&rawPre,
		&job.Status,
		&job.ArtifactID,
		&job.QueuedAt,
		&job.ClaimedAt,
		&job.CompletedAt,
		&lastErr,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Input.PreSupplied = decodePreSupplied(rawPre)
	if lastErr != nil {
		job.LastError = *lastErr
	}
	return &job, nil
}

// Claim performs the atomic conditional status update. Pending and failed
// jobs are always claimable; processing jobs only once their claim is older
// than staleAfter, which recovers work abandoned by a crashed worker without
// letting two racing callers both win on a fresh job.
func (r *JobRepositoryPG) Claim(ctx context.Context, jobID, tenantID string, staleAfter time.Duration) (bool, error) {
	query := `
UPDATE jobs
SET status = $3, claimed_at = NOW(), last_error = ''
WHERE id = $1
  AND tenant_id = $2
  AND (status IN ($4, $5)
       OR (status = $3 AND claimed_at < NOW() - $6::interval));
`
	tag, err := r.pool.Exec(ctx, query,
		jobID,
		tenantID,
		domain.JobStatusProcessing,
		domain.JobStatusPending,
		domain.JobStatusFailed,
		staleAfter.String(),
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Finalize records the outcome of an attempt. Terminal statuses set the
// completion timestamp; the externally-set status of a cancelled job is never
// overwritten because the orchestrator does not call Finalize after observing
// a cancellation.
func (r *JobRepositoryPG) Finalize(ctx context.Context, jobID string, status domain.JobStatus, errMsg string, artifactID *string) error {
	query := `
UPDATE jobs
SET status = $2,
    last_error = $3,
    artifact_id = COALESCE($4, artifact_id),
    completed_at = CASE WHEN $2 IN ('processed', 'cancelled') THEN NOW() ELSE completed_at END
WHERE id = $1 AND status = 'processing';
`
	_, err := r.pool.Exec(ctx, query, jobID, status, errMsg, artifactID)
	if err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	return nil
}

// Cancel marks the given jobs cancelled unless they already reached a
// terminal state.
func (r *JobRepositoryPG) Cancel(ctx context.Context, tenantID string, jobIDs []string) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	query := `
UPDATE jobs
SET status = $3, completed_at = NOW(), last_error = 'cancel requested'
WHERE tenant_id = $1
  AND id = ANY($2)
  AND status IN ($4, $5, $6);
`
	tag, err := r.pool.Exec(ctx, query,
		tenantID,
		jobIDs,
		domain.JobStatusCancelled,
		domain.JobStatusPending,
		domain.JobStatusProcessing,
		domain.JobStatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// NextPending returns the oldest pending jobs in queue order.
func (r *JobRepositoryPG) NextPending(ctx context.Context, limit int) ([]domain.PendingJob, error) {
	query := `
SELECT id, tenant_id
FROM jobs
WHERE status = $1
ORDER BY queued_at ASC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, domain.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var pending []domain.PendingJob
	for rows.Next() {
		var p domain.PendingJob
		if err := rows.Scan(&p.ID, &p.TenantID); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
