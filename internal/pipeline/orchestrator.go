// Package pipeline contains the job orchestration core: the per-job state
// machine, the sequential batch driver, the pause/cancel signal plane and the
// deadline-bounded stage runner.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contentforge/internal/domain"
	"contentforge/internal/infra"
	"contentforge/internal/observability"
	"contentforge/internal/providers/asset"
	"contentforge/internal/providers/content"
	"contentforge/internal/storage"
)

// Orchestrator drives one job through claim, content generation, asset
// generation and finalization. It owns no goroutines of its own besides the
// bounded asset stage; concurrency protection across callers comes entirely
// from the atomic claim.
type Orchestrator struct {
	jobs      domain.JobRepository
	artifacts domain.ArtifactRepository
	// generators is the fresh-generation fallback chain, tried in order
	// after pre-supplied and cached content.
	generators []content.Generator
	assets     asset.Generator
	store      *storage.FileStore
	metrics    *observability.Metrics
	logger     infra.Logger

	assetTimeout    time.Duration
	claimStaleAfter time.Duration
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Jobs            domain.JobRepository
	Artifacts       domain.ArtifactRepository
	Generators      []content.Generator
	Assets          asset.Generator
	Store           *storage.FileStore
	Metrics         *observability.Metrics
	Logger          infra.Logger
	AssetTimeout    time.Duration
	ClaimStaleAfter time.Duration
}

// NewOrchestrator wires an Orchestrator from its collaborators.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	assetTimeout := opts.AssetTimeout
	if assetTimeout <= 0 {
		assetTimeout = 4 * time.Minute
	}
	staleAfter := opts.ClaimStaleAfter
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &Orchestrator{
		jobs:            opts.Jobs,
		artifacts:       opts.Artifacts,
		generators:      opts.Generators,
		assets:          opts.Assets,
		store:           opts.Store,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		assetTimeout:    assetTimeout,
		claimStaleAfter: staleAfter,
	}
}

type producedVariant struct {
	variant domain.ContentVariant
	stored  bool
}

// Process runs one job through the pipeline and returns its result. Losing
// the claim, a missing job or a foreign tenant are idempotent no-op outcomes,
// not errors. Any panic inside a stage is folded into a failed finalize.
func (o *Orchestrator) Process(ctx context.Context, tenantID, jobID string, selection domain.ContentSelection) (result JobResult) {
	result = JobResult{JobID: jobID}

	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			result.Outcome = OutcomeNotFound
			return result
		}
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}
	if job.TenantID != tenantID {
		result.Outcome = OutcomePermissionDenied
		return result
	}
	switch job.Status {
	case domain.JobStatusProcessed:
		result.Outcome = OutcomeAlreadyProcessed
		result.ArtifactID = job.ArtifactID
		return result
	case domain.JobStatusCancelled:
		result.Outcome = OutcomeCancelled
		return result
	}

	claimed, err := o.jobs.Claim(ctx, jobID, tenantID, o.claimStaleAfter)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}
	if !claimed {
		return o.classifyLostClaim(ctx, jobID)
	}

	o.logger.Info().
		Str("job_id", jobID).
		Str("tenant_id", tenantID).
		Str("topic", job.Input.Topic).
		Msg("pipeline: claimed job")

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("stage panic: %v", r)
			o.logger.Error().Str("job_id", jobID).Str("panic", msg).Msg("pipeline: recovered")
			o.finalizeFailed(ctx, jobID, nil, msg)
			result = JobResult{JobID: jobID, Outcome: OutcomeFailed, Error: msg}
		}
	}()

	token := NewStatusCancelToken(o.jobs, jobID)

	// Checkpoint before any cost-incurring work.
	if o.cancelled(ctx, token, jobID, "before content stage") {
		result.Outcome = OutcomeCancelled
		return result
	}

	artifact, err := o.artifacts.Ensure(ctx, jobID)
	if err != nil {
		o.finalizeFailed(ctx, jobID, nil, fmt.Sprintf("resolve artifact: %v", err))
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}

	produced, contentErr := o.runContentStage(ctx, job, artifact, selection.Normalized())
	if len(produced) == 0 {
		msg := "content stage produced nothing usable"
		if contentErr != nil {
			msg = contentErr.Error()
		}
		o.finalizeFailed(ctx, jobID, artifact, msg)
		result.Outcome = OutcomeFailed
		result.Error = msg
		return result
	}

	// Checkpoint before the slow, externally billed asset stage.
	if o.cancelled(ctx, token, jobID, "before asset stage") {
		result.Outcome = OutcomeCancelled
		return result
	}

	partial := o.runAssetStage(ctx, job, artifact, produced)

	// Checkpoint before finalizing; an externally-set status stands.
	if o.cancelled(ctx, token, jobID, "before finalize") {
		result.Outcome = OutcomeCancelled
		return result
	}

	if err := o.jobs.Finalize(ctx, jobID, domain.JobStatusProcessed, "", &artifact.ID); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: finalize failed")
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}

	o.logger.Info().
		Str("job_id", jobID).
		Str("artifact_id", artifact.ID).
		Bool("partial_asset", partial).
		Msg("pipeline: job processed")

	result.Outcome = OutcomeProcessed
	result.ArtifactID = &artifact.ID
	result.PartialAsset = partial
	return result
}

// classifyLostClaim distinguishes the no-op outcomes after a failed claim.
func (o *Orchestrator) classifyLostClaim(ctx context.Context, jobID string) JobResult {
	result := JobResult{JobID: jobID}
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		result.Outcome = OutcomeAlreadyClaimed
		return result
	}
	switch job.Status {
	case domain.JobStatusProcessed:
		result.Outcome = OutcomeAlreadyProcessed
		result.ArtifactID = job.ArtifactID
	case domain.JobStatusCancelled:
		result.Outcome = OutcomeCancelled
	default:
		result.Outcome = OutcomeAlreadyClaimed
	}
	return result
}

func (o *Orchestrator) cancelled(ctx context.Context, token CancelToken, jobID, checkpoint string) bool {
	stop, err := token.Cancelled(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("pipeline: cancellation check failed")
		return false
	}
	if stop {
		o.logger.Info().Str("job_id", jobID).Str("checkpoint", checkpoint).Msg("pipeline: cancellation observed")
	}
	return stop
}

// runContentStage fills the requested kinds by source priority: pre-supplied
// input, then variants cached on the artifact from an earlier attempt, then
// the generator chain. Generator failures are logged and silently fall
// through to the next source.
func (o *Orchestrator) runContentStage(ctx context.Context, job *domain.Job, artifact *domain.Artifact, selection domain.ContentSelection) (map[domain.VariantKind]producedVariant, error) {
	produced := make(map[domain.VariantKind]producedVariant)
	missing := make([]domain.VariantKind, 0, len(selection.Kinds))

	for _, kind := range selection.Kinds {
		if text, ok := job.Input.PreSupplied[kind]; ok && strings.TrimSpace(text) != "" {
			produced[kind] = producedVariant{variant: domain.ContentVariant{
				ArtifactID: artifact.ID,
				Kind:       kind,
				Text:       strings.TrimSpace(text),
				Source:     domain.VariantSourcePreSupplied,
			}}
			continue
		}
		missing = append(missing, kind)
	}

	if len(missing) > 0 {
		cached, err := o.artifacts.ListVariants(ctx, artifact.ID)
		if err != nil {
			o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("pipeline: list cached variants failed")
		}
		remaining := missing[:0]
		for _, kind := range missing {
			if v, ok := latestOfKind(cached, kind); ok {
				produced[kind] = producedVariant{variant: v, stored: true}
				continue
			}
			remaining = append(remaining, kind)
		}
		missing = remaining
	}

	var lastErr error
	for _, generator := range o.generators {
		if len(missing) == 0 {
			break
		}
		variants, err := generator.Generate(ctx, content.Request{
			Topic:        job.Input.Topic,
			Category:     job.Input.Category,
			InterestTags: job.Input.InterestTags,
			Locale:       job.Input.Locale,
			Kinds:        missing,
			RequestID:    job.ID,
		})
		if err != nil {
			lastErr = err
			o.logger.Warn().
				Err(err).
				Str("job_id", job.ID).
				Str("provider", generator.Name()).
				Msg("pipeline: content generator failed, trying next source")
			continue
		}
		remaining := missing[:0]
		for _, kind := range missing {
			found := false
			for _, v := range variants {
				if v.Kind == kind && strings.TrimSpace(v.Text) != "" {
					produced[kind] = producedVariant{variant: domain.ContentVariant{
						ArtifactID: artifact.ID,
						Kind:       kind,
						Text:       v.Text,
						Source:     domain.VariantSourceGenerated,
						Provider:   generator.Name(),
					}}
					found = true
					break
				}
			}
			if !found {
				remaining = append(remaining, kind)
			}
		}
		missing = remaining
	}

	if len(produced) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrNoContent, lastErr)
		}
		return nil, domain.ErrNoContent
	}

	toSave := make([]domain.ContentVariant, 0, len(produced))
	for _, p := range produced {
		if !p.stored {
			toSave = append(toSave, p.variant)
		}
	}
	if len(toSave) > 0 {
		if err := o.artifacts.SaveVariants(ctx, artifact.ID, toSave); err != nil {
			return nil, fmt.Errorf("save variants: %w", err)
		}
	}
	return produced, nil
}

// runAssetStage makes a single bounded attempt at asset generation. It
// returns true when the job is processed without an asset (failure or
// deadline overrun); a late result is still merged through the artifact-id
// guarded attach.
func (o *Orchestrator) runAssetStage(ctx context.Context, job *domain.Job, artifact *domain.Artifact, produced map[domain.VariantKind]producedVariant) bool {
	if o.assets == nil {
		return true
	}

	req := asset.Request{
		ArtifactID:  artifact.ID,
		Prompt:      assetPrompt(job, produced),
		AspectRatio: "1:1",
		Locale:      job.Input.Locale,
	}

	outcome := RunBounded(ctx, o.assetTimeout,
		func(ctx context.Context) (*asset.Result, error) {
			return o.assets.Generate(ctx, req)
		},
		func(res *asset.Result, err error) {
			if err != nil || res == nil {
				return
			}
			// The job may already be finalized; merge with a fresh context.
			lateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if attachErr := o.attachAsset(lateCtx, artifact.ID, res); attachErr != nil {
				o.logger.Error().Err(attachErr).Str("artifact_id", artifact.ID).Msg("pipeline: late asset attach failed")
				return
			}
			o.logger.Info().Str("artifact_id", artifact.ID).Msg("pipeline: late asset attached")
		},
	)

	if !outcome.Completed {
		o.metrics.RecordAssetTimeout(ctx)
		o.logger.Warn().
			Str("job_id", job.ID).
			Dur("deadline", o.assetTimeout).
			Msg("pipeline: asset stage deadline exceeded, continuing without asset")
		return true
	}
	if outcome.Err != nil || outcome.Value == nil {
		o.logger.Warn().
			Err(outcome.Err).
			Str("job_id", job.ID).
			Msg("pipeline: asset stage failed, continuing without asset")
		return true
	}
	if err := o.attachAsset(ctx, artifact.ID, outcome.Value); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("pipeline: attach asset failed")
		return true
	}
	return false
}

func (o *Orchestrator) attachAsset(ctx context.Context, artifactID string, res *asset.Result) error {
	storageKey := res.StorageKey
	if o.store != nil && len(res.Data) > 0 && storageKey != "" {
		saved, err := o.store.Write(ctx, storageKey, res.Data)
		if err != nil {
			o.logger.Warn().Err(err).Str("artifact_id", artifactID).Msg("pipeline: persist asset bytes failed")
		} else {
			storageKey = saved
		}
	}
	return o.artifacts.AttachAsset(ctx, &domain.GeneratedAsset{
		ArtifactID: artifactID,
		URL:        res.URL,
		StorageKey: storageKey,
		Format:     res.Format,
		Width:      res.Width,
		Height:     res.Height,
		Provider:   res.Provider,
	})
}

// finalizeFailed records the error and discards this attempt's variants so a
// retry can rebuild them. The job's artifact pointer stays unset; the
// artifact row itself is kept for idempotent reuse.
func (o *Orchestrator) finalizeFailed(ctx context.Context, jobID string, artifact *domain.Artifact, msg string) {
	if artifact != nil {
		if err := o.artifacts.DeleteVariants(ctx, artifact.ID); err != nil {
			o.logger.Warn().Err(err).Str("job_id", jobID).Msg("pipeline: discard variants failed")
		}
	}
	if err := o.jobs.Finalize(ctx, jobID, domain.JobStatusFailed, msg, nil); err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: record failure failed")
	}
}

func latestOfKind(variants []domain.ContentVariant, kind domain.VariantKind) (domain.ContentVariant, bool) {
	for i := len(variants) - 1; i >= 0; i-- {
		if variants[i].Kind == kind && strings.TrimSpace(variants[i].Text) != "" {
			v := variants[i]
			v.Source = domain.VariantSourceCached
			return v, true
		}
	}
	return domain.ContentVariant{}, false
}

func assetPrompt(job *domain.Job, produced map[domain.VariantKind]producedVariant) string {
	parts := []string{"Promotional image for " + job.Input.Topic}
	if v, ok := produced[domain.VariantKindTitle]; ok {
		parts = append(parts, "headline: "+v.variant.Text)
	}
	if v, ok := produced[domain.VariantKindDescription]; ok {
		parts = append(parts, v.variant.Text)
	}
	if job.Input.Category != "" {
		parts = append(parts, "category: "+job.Input.Category)
	}
	return strings.Join(parts, ". ")
}
