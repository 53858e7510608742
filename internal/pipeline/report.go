package pipeline

import (
	"encoding/json"
	"time"
)

// Outcome classifies how processing one job ended. Timeouts never surface
// here: an asset stage that overran its deadline still counts as processed,
// flagged partial on the job result.
type Outcome string

const (
	OutcomeProcessed        Outcome = "processed"
	OutcomeFailed           Outcome = "failed"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeAlreadyClaimed   Outcome = "already_claimed"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeNotFound         Outcome = "not_found"
	OutcomePermissionDenied Outcome = "permission_denied"
)

// JobResult is the per-job record in a batch report.
type JobResult struct {
	JobID      string  `json:"job_id"`
	Outcome    Outcome `json:"outcome"`
	ArtifactID *string `json:"artifact_id,omitempty"`
	// PartialAsset marks a processed job whose asset stage failed or timed
	// out; the asset may still arrive out of band.
	PartialAsset bool          `json:"partial_asset,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"-"`
}

// MarshalJSON emits the duration in milliseconds rather than Go's native
// nanoseconds.
func (r JobResult) MarshalJSON() ([]byte, error) {
	type plain JobResult
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(r), r.Duration.Milliseconds()})
}

// BatchReport aggregates a batch run.
type BatchReport struct {
	TenantID string          `json:"tenant_id"`
	Results  []JobResult     `json:"results"`
	Counts   map[Outcome]int `json:"counts"`
	// Paused is true when a tenant pause stopped the remainder of the batch.
	Paused     bool      `json:"paused,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newBatchReport(tenantID string) *BatchReport {
	return &BatchReport{
		TenantID:  tenantID,
		Counts:    make(map[Outcome]int),
		StartedAt: time.Now(),
	}
}

func (r *BatchReport) record(res JobResult) {
	r.Results = append(r.Results, res)
	r.Counts[res.Outcome]++
}
