package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/storage"
)

func sceneRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, path, &buf)
}

func TestSceneHandler_Create(t *testing.T) {
	store := storage.NewMockStorage()
	handler := NewSceneHandler(store, testLogger())

	// Client-supplied status and cast are discarded; scenes are born in design.
	body := map[string]any{
		"id":         int64(1),
		"title":      "First Light",
		"status":     "released",
		"final_cast": map[string]int64{"1": 10},
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sceneRequest(t, http.MethodPost, "/v1/scenes", body))

	assert.Equal(t, http.StatusCreated, w.Code)

	var created sim.Scene
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, sim.StatusDesign, created.Status)
	assert.Empty(t, created.FinalCast)

	saved, err := store.GetScene(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "First Light", saved.Title)
}

func TestSceneHandler_CreateErrors(t *testing.T) {
	handler := NewSceneHandler(storage.NewMockStorage(), testLogger())

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing id", body: `{"title":"No ID"}`, want: http.StatusBadRequest},
		{name: "malformed json", body: `{"id":`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/scenes", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSceneHandler_ReadAndList(t *testing.T) {
	store := storage.NewMockStorage()
	ctx := context.Background()
	require.NoError(t, store.SaveScene(ctx, &sim.Scene{ID: 1, Title: "First Light", Status: sim.StatusDesign}))
	require.NoError(t, store.SaveScene(ctx, &sim.Scene{ID: 2, Title: "Afterglow", Status: sim.StatusDesign}))
	handler := NewSceneHandler(store, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/scenes/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var scene sim.Scene
	require.NoError(t, json.NewDecoder(w.Body).Decode(&scene))
	assert.Equal(t, "First Light", scene.Title)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/scenes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var list []sim.Scene
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 2)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/scenes/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/scenes/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSceneHandler_Patch(t *testing.T) {
	tests := []struct {
		name     string
		scene    *sim.Scene
		patch    map[string]any
		want     int
		wantBody string
		validate func(t *testing.T, s *sim.Scene)
	}{
		{
			name:  "advance status",
			scene: &sim.Scene{ID: 1, Status: sim.StatusDesign},
			patch: map[string]any{"status": "casting"},
			want:  http.StatusOK,
			validate: func(t *testing.T, s *sim.Scene) {
				assert.Equal(t, sim.StatusCasting, s.Status)
			},
		},
		{
			name:  "edit composition while in design",
			scene: &sim.Scene{ID: 1, Status: sim.StatusDesign},
			patch: map[string]any{"global_tags": []string{"Romance"}},
			want:  http.StatusOK,
			validate: func(t *testing.T, s *sim.Scene) {
				assert.Equal(t, []string{"Romance"}, s.GlobalTags)
			},
		},
		{
			name:     "skipped status rejected",
			scene:    &sim.Scene{ID: 1, Status: sim.StatusDesign},
			patch:    map[string]any{"status": "shot"},
			want:     http.StatusConflict,
			wantBody: "invalid transition",
		},
		{
			name:     "composition locked after design",
			scene:    &sim.Scene{ID: 1, Status: sim.StatusCasting},
			patch:    map[string]any{"global_tags": []string{"Romance"}},
			want:     http.StatusConflict,
			wantBody: "Scene composition is locked",
		},
		{
			name:     "recasting rejected",
			scene:    &sim.Scene{ID: 1, Status: sim.StatusCasting, FinalCast: map[int64]int64{1: 10}},
			patch:    map[string]any{"final_cast": map[string]int64{"1": 20}},
			want:     http.StatusConflict,
			wantBody: "Scene is already cast",
		},
		{
			name:  "cast and schedule",
			scene: &sim.Scene{ID: 1, Status: sim.StatusCasting},
			patch: map[string]any{"final_cast": map[string]int64{"1": 10}, "status": "scheduled"},
			want:  http.StatusOK,
			validate: func(t *testing.T, s *sim.Scene) {
				assert.Equal(t, sim.StatusScheduled, s.Status)
				assert.Equal(t, int64(10), s.FinalCast[1])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			require.NoError(t, store.SaveScene(context.Background(), tt.scene))
			handler := NewSceneHandler(store, testLogger())

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, sceneRequest(t, http.MethodPatch, "/v1/scenes/1", tt.patch))
			assert.Equal(t, tt.want, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
			if tt.validate != nil {
				saved, err := store.GetScene(context.Background(), 1)
				require.NoError(t, err)
				tt.validate(t, saved)
			}
		})
	}
}

func TestSceneHandler_PatchErrors(t *testing.T) {
	handler := NewSceneHandler(storage.NewMockStorage(), testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sceneRequest(t, http.MethodPatch, "/v1/scenes/99", map[string]any{"status": "casting"}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, sceneRequest(t, http.MethodPatch, "/v1/scenes", map[string]any{"status": "casting"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSceneHandler_Delete(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SaveScene(context.Background(), &sim.Scene{ID: 1, Status: sim.StatusDesign}))
	handler := NewSceneHandler(store, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/scenes/1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := store.GetScene(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/scenes", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSceneHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSceneHandler(storage.NewMockStorage(), testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/v1/scenes/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
