// Package restapi implements the HTTP surface (C9): the chi-routed REST
// API and websocket stream endpoint described in spec.md §6.1, wiring
// together every other component.
package restapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sectionforge/sectionforge/pkg/auth"
	"github.com/sectionforge/sectionforge/pkg/scheduler"
	"github.com/sectionforge/sectionforge/pkg/sectionstore"
	"github.com/sectionforge/sectionforge/pkg/streamhub"
	"github.com/sectionforge/sectionforge/pkg/telemetry"
)

// Deps bundles every component the REST surface wires in.
type Deps struct {
	Principals *auth.Store
	Sections   *sectionstore.Store
	Scheduler  *scheduler.Scheduler
	Hub        *streamhub.Hub
	Telemetry  telemetry.Sink
	Logger     *slog.Logger

	UploadDir               string
	MaxUploadBytes          int64
	AuthRegistrationEnabled bool
	CORSOrigins             []string

	LLMTimeoutSeconds int
}

// NewRouter builds the full HTTP handler tree.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(corsMiddleware(deps.CORSOrigins))
	r.Use(loggingMiddleware(deps.Logger))

	r.Get("/health", h.handleHealth)

	r.Post("/auth/login", h.handleLogin)
	if deps.AuthRegistrationEnabled {
		r.Post("/auth/register", h.handleRegister)
	}

	r.Get("/ws/{client_id}", h.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.Principals))

		r.Get("/auth/me", h.handleMe)
		r.Post("/config", h.handleSetConfig)
		r.Get("/config", h.handleGetConfig)
		r.Get("/models", h.handleListModels)
		r.Get("/collections", h.handleListCollections)

		r.Post("/documents/upload", h.handleUpload)
		r.Get("/documents/{id}", h.handleGetDocument)
		r.Get("/documents", h.handleListDocuments)
		r.Post("/documents/{id}/commit", h.handleCommit)
		r.Get("/documents/{id}/download", h.handleDownload)
		r.Delete("/documents/{id}", h.handleDeleteDocument)

		r.Post("/generate", h.handleGenerate)
		r.Post("/review", h.handleReview)

		r.Post("/batch/start", h.handleBatchStart)
		r.Get("/batch/{job}/status", h.handleBatchStatus)
		r.Post("/batch/{job}/pause", h.handleBatchPause)
		r.Post("/batch/{job}/resume", h.handleBatchResume)
		r.Post("/batch/{job}/cancel", h.handleBatchCancel)
	})

	if sink, ok := deps.Telemetry.(*telemetry.MetricsSink); ok {
		r.Get("/metrics", sink.Handler().ServeHTTP)
	}

	return r
}

type handler struct {
	deps Deps
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
