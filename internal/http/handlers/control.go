package handlers

import (
	"encoding/json"
	"net/http"

	"contentforge/internal/middleware"
)

// PauseTenant stops new jobs from being dispatched for the caller's tenant.
// Jobs already in flight run to completion.
func (a *App) PauseTenant(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	a.Driver.Pauses().Pause(tenant)
	a.Logger.Info().Str("tenant_id", tenant).Msg("handlers: tenant paused")
	a.json(w, http.StatusOK, map[string]any{"tenant_id": tenant, "paused": true})
}

// ResumeTenant re-enables job dispatching for the caller's tenant.
func (a *App) ResumeTenant(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	a.Driver.Pauses().Resume(tenant)
	a.Logger.Info().Str("tenant_id", tenant).Msg("handlers: tenant resumed")
	a.json(w, http.StatusOK, map[string]any{"tenant_id": tenant, "paused": false})
}

// CancelJobsRequest names the jobs to cancel.
type CancelJobsRequest struct {
	JobIDs []string `json:"job_ids"`
}

// CancelJobs marks the given jobs cancelled. The orchestrator observes the
// new status at its next checkpoint; an in-flight external call is not
// preempted, only its result is no longer acted on.
func (a *App) CancelJobs(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	var req CancelJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.JobIDs) == 0 {
		a.jsonError(w, http.StatusBadRequest, "job_ids is required")
		return
	}

	cancelled, err := a.Jobs.Cancel(r.Context(), tenant, req.JobIDs)
	if err != nil {
		a.Logger.Error().Err(err).Str("tenant_id", tenant).Msg("handlers: cancel jobs failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to cancel jobs")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"cancelled": cancelled})
}
