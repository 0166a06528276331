// Package http provides the REST API for transcript versions and
// corrections.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"transcript-revision-service/internal/observability"
	"transcript-revision-service/internal/observability/metrics"
	"transcript-revision-service/internal/service/recognize"
	"transcript-revision-service/internal/service/revision"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(svc *revision.Service, rec recognize.Adapter, recOpts recognize.Options) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger(metrics.DefaultMetrics))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	h := &handler{svc: svc, recognizer: rec, recognizeOpts: recOpts}

	// API routes
	r.Route("/v1/transcripts/{transcriptID}", func(r chi.Router) {
		r.Post("/original", h.postOriginal)
		r.Post("/recognize", h.postRecognize)

		r.Get("/versions", h.listVersions)
		r.Get("/versions/latest", h.getLatestVersion)
		r.Get("/versions/{version}", h.getVersion)
		r.Delete("/versions/{version}", h.deleteVersion)

		r.Get("/editor", h.getEditorDocument)
		r.Post("/corrections", h.postCorrections)

		r.Get("/paragraphs", h.getParagraphs)
		r.Get("/words/at-time", h.getWordAtTime)
		r.Get("/words/in-range", h.getWordsInRange)
	})

	return r
}
