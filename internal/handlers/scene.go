package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/storage"
)

// SceneHandler manages scene documents and their lifecycle.
//
// Routes:
// POST /v1/scenes           - Create a scene in design status
// GET /v1/scenes            - List scenes
// GET /v1/scenes/{id}       - Read a scene
// PATCH /v1/scenes/{id}     - Update composition (design only) or advance status
// DELETE /v1/scenes/{id}    - Delete a scene
type SceneHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSceneHandler(store storage.Storage, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{storage: store, logger: logger}
}

func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenes"), "/")
	var sceneID int64
	if path != "" {
		id, err := strconv.ParseInt(path, 10, 64)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid scene ID")
			return
		}
		sceneID = id
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		if sceneID == 0 {
			h.handleList(w, r)
			return
		}
		h.handleRead(w, r, sceneID)
	case http.MethodPatch:
		if sceneID == 0 {
			writeError(w, h.logger, http.StatusBadRequest, "Scene ID is required for PATCH requests")
			return
		}
		h.handlePatch(w, r, sceneID)
	case http.MethodDelete:
		if sceneID == 0 {
			writeError(w, h.logger, http.StatusBadRequest, "Scene ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, sceneID)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SceneHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var scene sim.Scene
	if err := json.NewDecoder(r.Body).Decode(&scene); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if scene.ID == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Scene ID is required")
		return
	}
	scene.Status = sim.StatusDesign
	scene.FinalCast = nil

	if err := h.storage.SaveScene(r.Context(), &scene); err != nil {
		h.logger.Error("Failed to save scene", "scene_id", scene.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save scene")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, &scene)
}

func (h *SceneHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.storage.ListScenes(r.Context())
	if err != nil {
		h.logger.Error("Failed to list scenes", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list scenes")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, scenes)
}

func (h *SceneHandler) handleRead(w http.ResponseWriter, r *http.Request, id int64) {
	scene, err := h.storage.GetScene(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Scene not found")
			return
		}
		h.logger.Error("Failed to load scene", "scene_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load scene")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, scene)
}

type scenePatch struct {
	Status        *sim.Status            `json:"status,omitempty"`
	Performers    []sim.VirtualPerformer `json:"performers,omitempty"`
	Segments      []sim.ActionSegment    `json:"segments,omitempty"`
	GlobalTags    []string               `json:"global_tags,omitempty"`
	FinalCast     map[int64]int64        `json:"final_cast,omitempty"`
	EditingTierID *string                `json:"editing_tier_id,omitempty"`
}

func (h *SceneHandler) handlePatch(w http.ResponseWriter, r *http.Request, id int64) {
	scene, err := h.storage.GetScene(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Scene not found")
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load scene")
		return
	}

	var patch scenePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Composition edits are only legal while the scene is in design and
	// uncast. This is a domain rule, not a validation nicety.
	if patch.Performers != nil || patch.Segments != nil || patch.GlobalTags != nil {
		if !scene.Editable() {
			writeError(w, h.logger, http.StatusConflict, "Scene composition is locked")
			return
		}
		if patch.Performers != nil {
			scene.Performers = patch.Performers
		}
		if patch.Segments != nil {
			scene.Segments = patch.Segments
		}
		if patch.GlobalTags != nil {
			scene.GlobalTags = patch.GlobalTags
		}
	}

	if patch.FinalCast != nil {
		if scene.CastLocked() {
			writeError(w, h.logger, http.StatusConflict, "Scene is already cast")
			return
		}
		scene.FinalCast = patch.FinalCast
	}
	if patch.EditingTierID != nil {
		scene.EditingTierID = *patch.EditingTierID
	}
	if patch.Status != nil {
		if err := scene.Transition(*patch.Status); err != nil {
			writeError(w, h.logger, http.StatusConflict, err.Error())
			return
		}
	}

	if err := h.storage.SaveScene(r.Context(), scene); err != nil {
		h.logger.Error("Failed to save scene", "scene_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save scene")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, scene)
}

func (h *SceneHandler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.storage.DeleteScene(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete scene", "scene_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete scene")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
