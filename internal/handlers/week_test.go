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

	"github.com/studiosim/studio-engine/internal/worker"
	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/storage"
	"github.com/studiosim/studio-engine/pkg/tags"
)

func newWeekHandler(t *testing.T, store *storage.MockStorage, events sim.EventTuning) *WeekHandler {
	t.Helper()
	lib := &tags.Library{
		Tags: map[string]tags.Definition{
			"Solo": {Name: "Solo", Type: tags.TypeAction, Concept: "Solo"},
		},
		ProductionSettings: map[string][]tags.TierDef{
			"Set Design": {
				{TierName: "Budget", QualityModifier: 0.9, IsLowTier: true},
				{TierName: "Premium", QualityModifier: 1.2},
			},
		},
		Events: map[string]tags.EventDef{
			"set_collapse": {
				ID: "set_collapse", Category: "Set Design", Type: "bad",
				BaseChance: 1, TriggeringTiers: []string{"Budget"},
				Choices: []tags.ChoiceDef{{ID: "accept", Label: "Accept"}},
			},
		},
	}
	resolver, err := market.NewResolver(map[string]market.Group{
		"Mainstream": {Name: "Mainstream", MarketSharePercent: 100, SpendingPower: 1},
	})
	require.NoError(t, err)

	tuning := sim.DefaultTuning()
	tuning.Events = events
	logger := testLogger()
	processor := worker.NewWeekProcessor(store, lib, resolver, tuning, rng.New(3), logger)
	return NewWeekHandler(processor, logger)
}

func scheduledShoot(t *testing.T, store *storage.MockStorage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveScene(ctx, &sim.Scene{
		ID:                  1,
		Title:               "First Light",
		Status:              sim.StatusScheduled,
		BlocID:              1,
		TotalRuntimeMinutes: 10,
		Performers:          []sim.VirtualPerformer{{ID: 1, Gender: "Female"}},
		Segments: []sim.ActionSegment{
			{
				TagName:           "Solo",
				RuntimePercentage: 100,
				SlotAssignments:   []sim.SlotAssignment{{SlotID: "Solo", VirtualPerformerID: 1}},
			},
		},
		FinalCast: map[int64]int64{1: 10},
	}))
	require.NoError(t, store.SaveBloc(ctx, &sim.ShootingBloc{
		ID:                 1,
		SceneIDs:           []int64{1},
		ProductionSettings: map[string]string{"Set Design": "Budget"},
		Week:               1,
		Year:               1,
	}))
	require.NoError(t, store.SaveTalent(ctx, &sim.Talent{
		ID: 10, Name: "Sasha", Gender: "Female",
		Performance: 50, Acting: 50, Stamina: 100, Ambition: 5,
	}))
}

func TestWeekHandler_Advance(t *testing.T) {
	store := storage.NewMockStorage()
	scheduledShoot(t, store)
	handler := newWeekHandler(t, store, sim.EventTuning{})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/week/advance", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report worker.WeekReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, 1, report.Week)
	assert.Equal(t, []int64{1}, report.ShotScenes)
	assert.False(t, report.Paused())
}

func TestWeekHandler_AdvancePausesOnEvent(t *testing.T) {
	store := storage.NewMockStorage()
	scheduledShoot(t, store)
	handler := newWeekHandler(t, store, sim.EventTuning{BaseBadChance: 1})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/week/advance", nil))
	require.Equal(t, http.StatusAccepted, w.Code)

	var report worker.WeekReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	require.True(t, report.Paused())
	assert.Equal(t, "set_collapse", report.Pending.EventID)
	require.NotNil(t, report.PendingEvent)
	assert.NotEmpty(t, report.PendingEvent.Choices)

	// Resolving the pending event completes the week.
	body, _ := json.Marshal(map[string]string{
		"token":     report.Pending.Token.String(),
		"choice_id": "accept",
	})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/event/resolve", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resumed worker.WeekReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resumed))
	assert.Equal(t, []int64{1}, resumed.ShotScenes)
	assert.False(t, resumed.Paused())
	assert.Empty(t, store.Pending)
}

func TestWeekHandler_ResolveErrors(t *testing.T) {
	handler := newWeekHandler(t, storage.NewMockStorage(), sim.EventTuning{})

	tests := []struct {
		name     string
		body     string
		want     int
		wantBody string
	}{
		{
			name:     "malformed token",
			body:     `{"token":"not-a-uuid","choice_id":"accept"}`,
			want:     http.StatusBadRequest,
			wantBody: "Invalid event token",
		},
		{
			name: "missing choice",
			body: `{"token":"0b6ddabe-37a0-4f37-8c47-7a04f3b0b5a1"}`,
			want: http.StatusBadRequest,
		},
		{
			name:     "unknown token",
			body:     `{"token":"0b6ddabe-37a0-4f37-8c47-7a04f3b0b5a1","choice_id":"accept"}`,
			want:     http.StatusNotFound,
			wantBody: "No pending event for token",
		},
		{
			name: "malformed body",
			body: `{"token":`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/event/resolve", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.want, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestWeekHandler_Routing(t *testing.T) {
	handler := newWeekHandler(t, storage.NewMockStorage(), sim.EventTuning{})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/week/advance", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/week/rewind", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
