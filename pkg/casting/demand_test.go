package casting

import (
	"math"
	"testing"

	"github.com/studiosim/studio-engine/pkg/sim"
)

func TestDemandCalculator_Demand(t *testing.T) {
	tuning := sim.DefaultTuning().Demand
	calc := NewDemandCalculator(castingLibrary(), tuning, testLogger())

	tests := []struct {
		name   string
		talent *sim.Talent
		scene  *sim.Scene
		vpID   int64
		want   float64
	}{
		{
			name:   "nil talent yields zero",
			talent: nil,
			scene:  groupScene(),
			vpID:   3,
			want:   0,
		},
		{
			name:   "nil scene yields zero",
			talent: willingTalent(),
			scene:  nil,
			vpID:   3,
			want:   0,
		},
		{
			name:   "zero-stat talent off the scene asks base",
			talent: &sim.Talent{ID: 11},
			scene:  groupScene(),
			vpID:   99,
			want:   100,
		},
		{
			name: "skill, ambition and popularity raise the fee",
			talent: &sim.Talent{
				ID:          12,
				Performance: 50,
				Ambition:    8,
				Popularity:  map[string]float64{"Mainstream": 40},
			},
			scene: groupScene(),
			vpID:  99,
			// 100 * 1.5 * 1.4 * 1.2
			want: 100 * 1.5 * 1.4 * 1.2,
		},
		{
			name:   "receiver demand scales with giver count",
			talent: &sim.Talent{ID: 13},
			scene:  groupScene(),
			vpID:   3,
			// demand_modifier 1.0 + (2-1)*0.25 per-other scaling
			want: 100 * 1.25,
		},
		{
			name: "liked work costs less",
			talent: &sim.Talent{
				ID: 14,
				TagPreferences: map[string]map[string]float64{
					"Group Scene (Straight)": {sim.RoleReceiver: 2.0},
				},
			},
			scene: groupScene(),
			vpID:  3,
			// divisor 1 + (2-1)*0.5 applied after the role modifier
			want: 100 * 1.25 / 1.5,
		},
		{
			name: "disliked work costs more",
			talent: &sim.Talent{
				ID: 16,
				TagPreferences: map[string]map[string]float64{
					"Group Scene (Straight)": {sim.RoleReceiver: 0.5},
				},
			},
			scene: groupScene(),
			vpID:  3,
			// divisor 1 + (0.5-1)*0.5 drops below one and raises the fee
			want: 100 * 1.25 / 0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Demand(tt.talent, tt.scene, tt.vpID)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Demand = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDemandCalculator_Floor(t *testing.T) {
	calc := NewDemandCalculator(castingLibrary(), sim.DefaultTuning().Demand, testLogger())
	talent := &sim.Talent{
		ID: 15,
		TagPreferences: map[string]map[string]float64{
			"Group Scene (Straight)": {sim.RoleReceiver: 10.0},
		},
	}

	got := calc.Demand(talent, groupScene(), 3)
	if got != 50 {
		t.Errorf("demand should not fall below the minimum: got %v", got)
	}
}
