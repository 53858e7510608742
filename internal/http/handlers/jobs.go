package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contentforge/internal/domain"
	"contentforge/internal/middleware"
)

// SubmitJobsRequest creates new jobs from submitted topics.
type SubmitJobsRequest struct {
	CampaignID string         `json:"campaign_id,omitempty"`
	OwnerID    string         `json:"owner_id,omitempty"`
	Jobs       []JobSubmitted `json:"jobs"`
}

// JobSubmitted is one topic to queue.
type JobSubmitted struct {
	Topic        string            `json:"topic"`
	Category     string            `json:"category,omitempty"`
	InterestTags []string          `json:"interest_tags,omitempty"`
	PreSupplied  map[string]string `json:"pre_supplied,omitempty"`
}

// SubmitJobs queues jobs for later processing and returns their ids.
func (a *App) SubmitJobs(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	var req SubmitJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Jobs) == 0 {
		a.jsonError(w, http.StatusBadRequest, "jobs is required")
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	ids := make([]string, 0, len(req.Jobs))
	for _, submitted := range req.Jobs {
		if strings.TrimSpace(submitted.Topic) == "" {
			a.jsonError(w, http.StatusBadRequest, "topic is required")
			return
		}
		job := &domain.Job{
			ID:         uuid.NewString(),
			TenantID:   tenant,
			CampaignID: req.CampaignID,
			OwnerID:    req.OwnerID,
			Status:     domain.JobStatusPending,
			QueuedAt:   time.Now(),
			Input: domain.JobInput{
				Topic:        strings.TrimSpace(submitted.Topic),
				Category:     submitted.Category,
				InterestTags: submitted.InterestTags,
				Locale:       locale,
				PreSupplied:  parsePreSupplied(submitted.PreSupplied),
			},
		}
		if err := a.Jobs.Create(r.Context(), job); err != nil {
			a.Logger.Error().Err(err).Str("tenant_id", tenant).Msg("handlers: create job failed")
			a.jsonError(w, http.StatusInternalServerError, "failed to create job")
			return
		}
		ids = append(ids, job.ID)
	}

	a.json(w, http.StatusCreated, map[string]any{"job_ids": ids})
}

// JobStatusResponse is the polling view of one job.
type JobStatusResponse struct {
	JobID      string  `json:"job_id"`
	Status     string  `json:"status"`
	HasContent bool    `json:"has_content"`
	HasAsset   bool    `json:"has_asset"`
	ArtifactID *string `json:"artifact_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// GetJobStatus reports a job's progress. The status field alone is enough to
// distinguish still working, done and needs retry.
func (a *App) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	jobID := chi.URLParam(r, "id")

	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: get job failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job.TenantID != tenant {
		a.jsonError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := JobStatusResponse{
		JobID:      job.ID,
		Status:     string(job.Status),
		ArtifactID: job.ArtifactID,
		Error:      job.LastError,
	}
	if artifact, err := a.Artifacts.GetByJobID(r.Context(), job.ID); err == nil {
		if variants, err := a.Artifacts.ListVariants(r.Context(), artifact.ID); err == nil && len(variants) > 0 {
			resp.HasContent = true
		}
		if _, err := a.Artifacts.GetAsset(r.Context(), artifact.ID); err == nil {
			resp.HasAsset = true
		}
	}

	a.json(w, http.StatusOK, resp)
}

func parsePreSupplied(raw map[string]string) map[domain.VariantKind]string {
	if len(raw) == 0 {
		return nil
	}
	pre := make(map[domain.VariantKind]string, len(raw))
	for k, v := range raw {
		switch kind := domain.VariantKind(k); kind {
		case domain.VariantKindTitle, domain.VariantKindDescription, domain.VariantKindOverlay:
			pre[kind] = v
		}
	}
	if len(pre) == 0 {
		return nil
	}
	return pre
}
