package sim

import "testing"

func TestScene_Transition(t *testing.T) {
	tests := []struct {
		name    string
		scene   Scene
		next    Status
		wantErr bool
	}{
		{name: "design to casting", scene: Scene{Status: StatusDesign}, next: StatusCasting},
		{name: "casting to scheduled", scene: Scene{Status: StatusCasting}, next: StatusScheduled},
		{
			name:  "scheduled to shot with cast",
			scene: Scene{Status: StatusScheduled, FinalCast: map[int64]int64{1: 10}},
			next:  StatusShot,
		},
		{name: "shot to in_editing", scene: Scene{Status: StatusShot}, next: StatusInEditing},
		{name: "in_editing to ready", scene: Scene{Status: StatusInEditing}, next: StatusReadyToRelease},
		{name: "ready to released", scene: Scene{Status: StatusReadyToRelease}, next: StatusReleased},
		{name: "skip a state", scene: Scene{Status: StatusDesign}, next: StatusScheduled, wantErr: true},
		{name: "backwards", scene: Scene{Status: StatusShot}, next: StatusScheduled, wantErr: true},
		{name: "released is terminal", scene: Scene{Status: StatusReleased}, next: StatusDesign, wantErr: true},
		{name: "uncast scene cannot shoot", scene: Scene{Status: StatusScheduled}, next: StatusShot, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Transition(tt.next)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.scene.Status != tt.next {
				t.Errorf("status = %s, want %s", tt.scene.Status, tt.next)
			}
		})
	}
}

func TestScene_Editable(t *testing.T) {
	s := Scene{Status: StatusDesign}
	if !s.Editable() {
		t.Error("uncast design scene should be editable")
	}

	s.FinalCast = map[int64]int64{1: 10}
	if s.Editable() {
		t.Error("cast scene should not be editable")
	}
	if !s.CastLocked() {
		t.Error("scene with final cast should be locked")
	}

	s2 := Scene{Status: StatusCasting}
	if s2.Editable() {
		t.Error("scene past design should not be editable")
	}
}

func TestScene_Protagonist(t *testing.T) {
	s := Scene{ProtagonistVPIDs: []int64{2, 5}}
	if !s.Protagonist(5) {
		t.Error("expected vp 5 to be protagonist")
	}
	if s.Protagonist(3) {
		t.Error("vp 3 should not be protagonist")
	}
}

func TestScene_CastTalentIDs(t *testing.T) {
	s := Scene{FinalCast: map[int64]int64{1: 10, 2: 20, 3: 10}}
	ids := s.CastTalentIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct talent ids, got %v", ids)
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[10] || !seen[20] {
		t.Errorf("missing expected ids: %v", ids)
	}
}

func TestScene_Performer(t *testing.T) {
	s := Scene{Performers: []VirtualPerformer{{ID: 1, Gender: "Female"}, {ID: 2, Gender: "Male"}}}
	vp, ok := s.Performer(2)
	if !ok || vp.Gender != "Male" {
		t.Errorf("lookup failed: %+v, %v", vp, ok)
	}
	if _, ok := s.Performer(9); ok {
		t.Error("expected miss for unknown vp")
	}
}
