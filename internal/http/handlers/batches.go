package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"contentforge/internal/domain"
	"contentforge/internal/middleware"
)

// BatchRequest is the submission payload for one batch run.
type BatchRequest struct {
	JobIDs           []string `json:"job_ids"`
	ContentSelection []string `json:"content_selection,omitempty"`
	// AsyncAck acknowledges the caller immediately; completion is then
	// observed through the per-job status endpoint.
	AsyncAck bool `json:"async_ack,omitempty"`
}

// ProcessBatch runs the batch driver over the submitted ids.
func (a *App) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.JobIDs) == 0 {
		a.jsonError(w, http.StatusBadRequest, "job_ids is required")
		return
	}

	selection := parseSelection(req.ContentSelection)

	if req.AsyncAck {
		// Detached from the request lifecycle: the batch keeps running
		// after the caller is acknowledged.
		go func() {
			a.Driver.ProcessBatch(context.Background(), tenant, req.JobIDs, selection)
		}()
		a.json(w, http.StatusAccepted, map[string]any{
			"accepted": req.JobIDs,
			"message":  "batch accepted; poll job status for completion",
		})
		return
	}

	report := a.Driver.ProcessBatch(r.Context(), tenant, req.JobIDs, selection)
	a.json(w, http.StatusOK, report)
}

func parseSelection(kinds []string) domain.ContentSelection {
	var selection domain.ContentSelection
	for _, k := range kinds {
		switch domain.VariantKind(k) {
		case domain.VariantKindTitle, domain.VariantKindDescription, domain.VariantKindOverlay:
			selection.Kinds = append(selection.Kinds, domain.VariantKind(k))
		}
	}
	return selection
}
