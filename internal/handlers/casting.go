package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/studiosim/studio-engine/pkg/casting"
	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/storage"
)

// CastingHandler answers casting-time questions: will this talent take
// this role, and for how much.
//
// Routes:
// POST /v1/casting/check - Availability and demand for one talent/role
type CastingHandler struct {
	storage storage.Storage
	checker *casting.Checker
	demand  *casting.DemandCalculator
	rand    *rng.Source
	logger  *slog.Logger
}

func NewCastingHandler(store storage.Storage, checker *casting.Checker, demand *casting.DemandCalculator, r *rng.Source, logger *slog.Logger) *CastingHandler {
	return &CastingHandler{
		storage: store,
		checker: checker,
		demand:  demand,
		rand:    r,
		logger:  logger,
	}
}

type castingCheckRequest struct {
	SceneID  int64 `json:"scene_id"`
	VPID     int64 `json:"vp_id"`
	TalentID int64 `json:"talent_id"`
}

type castingCheckResponse struct {
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
	Demand    float64 `json:"demand,omitempty"`
}

func (h *CastingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req castingCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	scene, err := h.storage.GetScene(r.Context(), req.SceneID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Scene not found")
			return
		}
		h.logger.Error("Failed to load scene", "scene_id", req.SceneID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load scene")
		return
	}
	talent, err := h.storage.GetTalent(r.Context(), req.TalentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Talent not found")
			return
		}
		h.logger.Error("Failed to load talent", "talent_id", req.TalentID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load talent")
		return
	}
	bloc, err := h.storage.GetBloc(r.Context(), scene.BlocID)
	if err != nil {
		bloc = nil
	}

	available, reason := h.checker.Check(talent, scene, req.VPID, bloc, h.rand)
	resp := castingCheckResponse{Available: available, Reason: reason}
	if available {
		resp.Demand = h.demand.Demand(talent, scene, req.VPID)
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
