// Package httpapi assembles the chi router for the service.
package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"contentforge/internal/http/handlers"
	"contentforge/internal/middleware"
)

// Options configures optional router collaborators.
type Options struct {
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	MetricsHandler  stdhttp.Handler
}

// NewRouter builds the HTTP routing table.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer, chimw.Logger)
	r.Use(middleware.RequestID)

	r.Get("/v1/healthz", app.Health)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Tenant)
		r.Use(middleware.RateLimit(opts.RateLimitPerMin))
		r.Use(middleware.Locale(opts.DefaultLocale, opts.CountryLookup))

		r.Route("/v1/jobs", func(r chi.Router) {
			r.Post("/", app.SubmitJobs)
			r.Post("/cancel", app.CancelJobs)
			r.Get("/{id}", app.GetJobStatus)
		})

		r.Post("/v1/batches", app.ProcessBatch)

		r.Route("/v1/tenants", func(r chi.Router) {
			r.Post("/pause", app.PauseTenant)
			r.Post("/resume", app.ResumeTenant)
		})
	})

	return r
}
