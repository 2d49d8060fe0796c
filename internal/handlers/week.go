package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/studiosim/studio-engine/internal/worker"
	"github.com/studiosim/studio-engine/pkg/storage"
)

// WeekHandler exposes the week advance and interactive event resolution.
//
// Routes:
// POST /v1/week/advance  - Advance the simulation one week
// POST /v1/event/resolve - Resolve a pending interactive event
type WeekHandler struct {
	processor *worker.WeekProcessor
	logger    *slog.Logger
}

func NewWeekHandler(processor *worker.WeekProcessor, logger *slog.Logger) *WeekHandler {
	return &WeekHandler{processor: processor, logger: logger}
}

type resolveRequest struct {
	Token    string `json:"token"`
	ChoiceID string `json:"choice_id"`
}

func (h *WeekHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch r.URL.Path {
	case "/v1/week/advance":
		h.handleAdvance(w, r)
	case "/v1/event/resolve":
		h.handleResolve(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *WeekHandler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	report, err := h.processor.AdvanceWeek(r.Context())
	if err != nil {
		h.logger.Error("Week advance failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Week advance failed")
		return
	}

	status := http.StatusOK
	if report.Paused() {
		// The caller must resolve the pending event and resume.
		status = http.StatusAccepted
	}
	writeJSON(w, h.logger, status, report)
}

func (h *WeekHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, err := uuid.Parse(req.Token)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid event token")
		return
	}
	if req.ChoiceID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "choice_id is required")
		return
	}

	report, err := h.processor.Resume(r.Context(), token, req.ChoiceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "No pending event for token")
			return
		}
		h.logger.Error("Event resolution failed", "error", err, "token", req.Token)
		writeError(w, h.logger, http.StatusInternalServerError, "Event resolution failed")
		return
	}

	status := http.StatusOK
	if report.Paused() {
		status = http.StatusAccepted
	}
	writeJSON(w, h.logger, status, report)
}
