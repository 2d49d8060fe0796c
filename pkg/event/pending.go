package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/studiosim/studio-engine/pkg/sim"
)

// Pending is a paused week advance waiting on a player choice. The token
// identifies exactly one resumption; there is no timeout, the game waits
// for input indefinitely.
type Pending struct {
	Token     uuid.UUID `json:"token"`
	CreatedAt time.Time `json:"created_at"`

	Week int `json:"week"`
	Year int `json:"year"`

	SceneID  int64  `json:"scene_id"`
	BlocID   int64  `json:"bloc_id"`
	EventID  string `json:"event_id"`
	TalentID int64  `json:"talent_id"`

	// RemainingSceneIDs are the scenes still unshot this week, including
	// the paused one at the head.
	RemainingSceneIDs []int64 `json:"remaining_scene_ids,omitempty"`

	// Mods accumulates modifiers from earlier links of an event chain.
	Mods *sim.ShootModifiers `json:"mods,omitempty"`
}

// NewPending creates a pending record for a triggered event.
func NewPending(t *Triggered, sceneID, blocID int64, week, year int, remaining []int64) *Pending {
	return &Pending{
		Token:             uuid.New(),
		CreatedAt:         time.Now(),
		Week:              week,
		Year:              year,
		SceneID:           sceneID,
		BlocID:            blocID,
		EventID:           t.Event.ID,
		TalentID:          t.TalentID,
		RemainingSceneIDs: remaining,
		Mods:              sim.NewShootModifiers(),
	}
}
