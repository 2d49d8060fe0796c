package release

import (
	"math"
	"strings"
	"testing"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

func postProductionLibrary() *tags.Library {
	lib := releaseLibrary()
	lib.EditingTiers = []tags.EditingTier{
		{ID: "rough", Name: "Rough Cut", BaseQualityModifier: 0.9},
		{
			ID:                  "polished",
			Name:                "Polished Cut",
			BaseQualityModifier: 1.1,
			SynergyMods:         map[string]float64{"Camera Setup:Premium": 1.2},
			Weeks:               2,
		},
	}
	return lib
}

func editedScene() *sim.Scene {
	return &sim.Scene{
		ID:           1,
		Status:       sim.StatusInEditing,
		TagQualities: map[string]float64{"Solo": 50},
		PerformerContributions: map[int64]map[string]float64{
			10: {"Solo (Performer)": 50},
		},
	}
}

func TestPostProduction_Apply(t *testing.T) {
	post := NewPostProduction(postProductionLibrary(), testLogger())

	tests := []struct {
		name    string
		tierID  string
		bloc    *sim.ShootingBloc
		wantMod float64
		wantErr bool
	}{
		{name: "no tier is a no-op", tierID: "", wantMod: 1},
		{name: "base modifier applies", tierID: "rough", wantMod: 0.9},
		{
			name:    "synergy with matching production tier",
			tierID:  "polished",
			bloc:    &sim.ShootingBloc{ProductionSettings: map[string]string{"Camera Setup": "Premium"}},
			wantMod: 1.1 * 1.2,
		},
		{
			name:    "no synergy without the matching tier",
			tierID:  "polished",
			bloc:    &sim.ShootingBloc{ProductionSettings: map[string]string{"Camera Setup": "Budget"}},
			wantMod: 1.1,
		},
		{name: "unknown tier", tierID: "ghost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := editedScene()
			scene.EditingTierID = tt.tierID

			mod, err := post.Apply(scene, tt.bloc)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(mod-tt.wantMod) > 1e-9 {
				t.Errorf("mod = %v, want %v", mod, tt.wantMod)
			}
			want := 50 * tt.wantMod
			if got := scene.TagQualities["Solo"]; math.Abs(got-want) > 1e-9 {
				t.Errorf("tag quality = %v, want %v", got, want)
			}
			if got := scene.PerformerContributions[10]["Solo (Performer)"]; math.Abs(got-want) > 1e-9 {
				t.Errorf("contribution = %v, want %v", got, want)
			}
		})
	}
}

func TestPostProduction_RecordsDetail(t *testing.T) {
	post := NewPostProduction(postProductionLibrary(), testLogger())
	scene := editedScene()
	scene.EditingTierID = "polished"

	if _, err := post.Apply(scene, nil); err != nil {
		t.Fatal(err)
	}
	if len(scene.RevenueModifierDetails) != 1 || !strings.Contains(scene.RevenueModifierDetails[0], "Polished Cut editing") {
		t.Errorf("details = %v", scene.RevenueModifierDetails)
	}
}

func TestPostProduction_NoTierLeavesQualitiesAlone(t *testing.T) {
	post := NewPostProduction(postProductionLibrary(), testLogger())
	scene := editedScene()

	if _, err := post.Apply(scene, nil); err != nil {
		t.Fatal(err)
	}
	if scene.TagQualities["Solo"] != 50 {
		t.Errorf("quality changed: %v", scene.TagQualities["Solo"])
	}
	if len(scene.RevenueModifierDetails) != 0 {
		t.Errorf("unexpected details: %v", scene.RevenueModifierDetails)
	}
}
