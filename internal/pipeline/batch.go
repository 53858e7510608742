package pipeline

import (
	"context"
	"time"

	"contentforge/internal/domain"
	"contentforge/internal/infra"
	"contentforge/internal/observability"
)

// BatchDriver runs the orchestrator over a submitted list of job ids,
// strictly in submission order with no parallel fan-out. Concurrency
// protection across independently-triggered batches comes solely from the
// claim, so two callers racing over the same ids cannot double-process a job.
type BatchDriver struct {
	orch    *Orchestrator
	pauses  *PauseRegistry
	metrics *observability.Metrics
	logger  infra.Logger
}

// NewBatchDriver wires a driver around the orchestrator and the pause plane.
func NewBatchDriver(orch *Orchestrator, pauses *PauseRegistry, metrics *observability.Metrics, logger infra.Logger) *BatchDriver {
	return &BatchDriver{orch: orch, pauses: pauses, metrics: metrics, logger: logger}
}

// Pauses exposes the signal plane for the control surface.
func (d *BatchDriver) Pauses() *PauseRegistry {
	return d.pauses
}

// ProcessBatch processes the ids sequentially. The tenant pause flag is
// checked before each dispatch: once observed, the remainder of the batch is
// skipped, while the job already dispatched (if any) has run to completion
// because the loop is sequential. Per-job results are recorded even for ids
// that are missing or foreign.
func (d *BatchDriver) ProcessBatch(ctx context.Context, tenantID string, jobIDs []string, selection domain.ContentSelection) *BatchReport {
	report := newBatchReport(tenantID)

	d.logger.Info().
		Str("tenant_id", tenantID).
		Int("jobs", len(jobIDs)).
		Msg("batch: started")

	for _, jobID := range jobIDs {
		if d.pauses != nil && d.pauses.IsPaused(tenantID) {
			report.Paused = true
			d.logger.Info().
				Str("tenant_id", tenantID).
				Int("remaining", len(jobIDs)-len(report.Results)).
				Msg("batch: tenant paused, stopping")
			break
		}

		start := time.Now()
		result := d.orch.Process(ctx, tenantID, jobID, selection)
		result.Duration = time.Since(start)
		report.record(result)
		d.metrics.RecordJob(ctx, string(result.Outcome))
	}

	report.FinishedAt = time.Now()
	d.metrics.RecordBatch(ctx, report.FinishedAt.Sub(report.StartedAt).Seconds())

	d.logger.Info().
		Str("tenant_id", tenantID).
		Int("handled", len(report.Results)).
		Bool("paused", report.Paused).
		Msg("batch: finished")
	return report
}
