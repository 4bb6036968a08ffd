package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"log/slog"

	"creative-mango/internal/core/port"
)

// Handler contains dependencies and routes. It is an inbound adapter
// for HTTP, exposing the pipeline as trigger endpoints so the tool can
// run behind a scheduler that fires webhooks instead of cron.
type Handler struct {
	pipeline port.Pipeline
	logger   *slog.Logger
	router   chi.Router

	runs runState
}

// NewHandler creates a handler with all routes configured. It accepts a
// Pipeline implementation and a logger. The returned Handler registers
// handlers for each endpoint on a new chi.Router.
func NewHandler(pipeline port.Pipeline, logger *slog.Logger) *Handler {
	h := &Handler{pipeline: pipeline, logger: logger}
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/run", h.handleRun)
		r.Post("/run/{step}", h.handleRunStep)
		r.Get("/runs/last", h.handleLastRun)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
