package httpadapter

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"log/slog"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
)

// runState serializes pipeline runs. The steps mutate shared sheets
// and ad groups, so only one run may be in flight at a time.
type runState struct {
	mu     sync.Mutex
	busy   bool
	last   *domain.RunReport
	hasRun bool
}

func (s *runState) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *runState) release(report *domain.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if report != nil {
		s.last = report
		s.hasRun = true
	}
}

func (s *runState) lastReport() (*domain.RunReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasRun
}

// handleRun executes the full pipeline synchronously and returns the
// run report. A run already in flight results in HTTP 409.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if !h.runs.tryAcquire() {
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	report := h.pipeline.Run(r.Context())
	h.runs.release(&report)

	writeJSON(w, h.logger, report)
}

// handleRunStep executes a single pipeline step. Unknown step names
// result in HTTP 400.
func (h *Handler) handleRunStep(w http.ResponseWriter, r *http.Request) {
	step, ok := port.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		http.Error(w, "unknown step", http.StatusBadRequest)
		return
	}
	if !h.runs.tryAcquire() {
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	res := h.pipeline.RunStep(r.Context(), step)
	h.runs.release(nil)

	writeJSON(w, h.logger, res)
}

// handleLastRun returns the report of the most recent full run, or
// HTTP 404 when nothing ran yet.
func (h *Handler) handleLastRun(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runs.lastReport()
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, h.logger, report)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoding should rarely fail; log and move on
		logger.Error("encode response error", slog.Any("error", err))
	}
}
