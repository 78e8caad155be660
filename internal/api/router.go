// Package api assembles the HTTP surface: routes, middleware and handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/recruitai/internal/api/middleware"
	"github.com/kiranshivaraju/recruitai/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// A nil RateLimit disables rate limiting.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler          http.HandlerFunc
	GenerateJobDescription http.HandlerFunc
	JobDescriptionFile     http.HandlerFunc
	AnalyzeResumes         http.HandlerFunc
	StreamResumes          http.HandlerFunc
	AnalyzeJobs            http.HandlerFunc
	StreamJobs             http.HandlerFunc
	ListBatches            http.HandlerFunc
	GetBatch               http.HandlerFunc
	ExportBatch            http.HandlerFunc
	ListKeys               http.HandlerFunc
	ReloadKeys             http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.ClientIP)

	r.Get("/health", orNotImplemented(deps.HealthHandler))

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/job-descriptions/generate", orNotImplemented(deps.GenerateJobDescription))
		r.Post("/job-descriptions/file", orNotImplemented(deps.JobDescriptionFile))

		r.Post("/resumes/analyze", orNotImplemented(deps.AnalyzeResumes))
		r.Post("/resumes/analyze/stream", orNotImplemented(deps.StreamResumes))
		r.Post("/jobs/analyze", orNotImplemented(deps.AnalyzeJobs))
		r.Post("/jobs/analyze/stream", orNotImplemented(deps.StreamJobs))

		r.Get("/batches", orNotImplemented(deps.ListBatches))
		r.Get("/batches/{batchID}", orNotImplemented(deps.GetBatch))
		r.Get("/batches/{batchID}/export", orNotImplemented(deps.ExportBatch))

		r.Get("/keys", orNotImplemented(deps.ListKeys))
		r.Post("/keys/reload", orNotImplemented(deps.ReloadKeys))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Route not found", nil)
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
