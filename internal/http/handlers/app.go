// Package handlers implements the HTTP surface of the service.
package handlers

import (
	"encoding/json"
	"net/http"

	"contentforge/internal/domain"
	"contentforge/internal/infra"
	"contentforge/internal/pipeline"
)

// App bundles the dependencies the handlers need.
type App struct {
	Driver    *pipeline.BatchDriver
	Jobs      domain.JobRepository
	Artifacts domain.ArtifactRepository
	Logger    infra.Logger
}

// NewApp creates the handler container.
func NewApp(driver *pipeline.BatchDriver, jobs domain.JobRepository, artifacts domain.ArtifactRepository, logger infra.Logger) *App {
	return &App{Driver: driver, Jobs: jobs, Artifacts: artifacts, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
