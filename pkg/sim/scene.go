// Package sim holds the core value types of the simulation: scenes,
// segments, talent snapshots, shooting blocs and the result objects the
// calculators return. Calculators never mutate these directly; they return
// deltas that the caller applies.
package sim

import "fmt"

// Status is a scene's lifecycle state.
type Status string

const (
	StatusDesign         Status = "design"
	StatusCasting        Status = "casting"
	StatusScheduled      Status = "scheduled"
	StatusShot           Status = "shot"
	StatusInEditing      Status = "in_editing"
	StatusReadyToRelease Status = "ready_to_release"
	StatusReleased       Status = "released"
)

// transitions is the allowed lifecycle graph. Quality and contribution
// fields are written exactly once, at the shot transition, and only
// rescaled afterwards.
var transitions = map[Status]Status{
	StatusDesign:         StatusCasting,
	StatusCasting:        StatusScheduled,
	StatusScheduled:      StatusShot,
	StatusShot:           StatusInEditing,
	StatusInEditing:      StatusReadyToRelease,
	StatusReadyToRelease: StatusReleased,
}

// VirtualPerformer is an uncast role slot within a scene.
type VirtualPerformer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	Gender      string `json:"gender"`
	Ethnicity   string `json:"ethnicity,omitempty"`
	Disposition string `json:"disposition,omitempty"` // Dom, Sub or Switch
}

// SlotAssignment binds one concrete slot id to a virtual performer.
// VirtualPerformerID zero means the slot is unassigned.
type SlotAssignment struct {
	SlotID             string `json:"slot_id"`
	VirtualPerformerID int64  `json:"virtual_performer_id,omitempty"`
}

// ActionSegment is a bloc of scene runtime assigned to one action tag.
// Parameters map role names to participant counts for template tags.
type ActionSegment struct {
	TagName           string           `json:"tag_name"`
	RuntimePercentage float64          `json:"runtime_percentage"`
	Parameters        map[string]int   `json:"parameters,omitempty"`
	SlotAssignments   []SlotAssignment `json:"slot_assignments,omitempty"`
}

// Scene is one unit of simulated content.
type Scene struct {
	ID                  int64              `json:"id"`
	Title               string             `json:"title"`
	Status              Status             `json:"status"`
	BlocID              int64              `json:"bloc_id,omitempty"`
	TotalRuntimeMinutes float64            `json:"total_runtime_minutes"`
	DomSubDynamicLevel  int                `json:"dom_sub_dynamic_level,omitempty"`
	FocusedMarketGroup  string             `json:"focused_market_group,omitempty"`
	Performers          []VirtualPerformer `json:"performers,omitempty"`
	Segments            []ActionSegment    `json:"segments,omitempty"`

	// AssignedTags maps a focused physical tag to the virtual performers
	// it describes. GlobalTags are the scene's thematic tags. AutoTags are
	// discovered at shoot time, never player-assigned.
	AssignedTags map[string][]int64 `json:"assigned_tags,omitempty"`
	GlobalTags   []string           `json:"global_tags,omitempty"`
	AutoTags     []string           `json:"auto_tags,omitempty"`

	// FinalCast maps virtual performer id to talent id. Empty until the
	// scene reaches scheduled; once populated the composition is locked.
	FinalCast        map[int64]int64 `json:"final_cast,omitempty"`
	ProtagonistVPIDs []int64         `json:"protagonist_vp_ids,omitempty"`

	// Result fields, written by the engine at shoot and release time.
	PerformerStaminaCosts  map[int64]float64            `json:"performer_stamina_costs,omitempty"`
	TagQualities           map[string]float64           `json:"tag_qualities,omitempty"`
	PerformerContributions map[int64]map[string]float64 `json:"performer_contributions,omitempty"`
	ViewerGroupInterest    map[string]float64           `json:"viewer_group_interest,omitempty"`
	RevenueModifierDetails []string                     `json:"revenue_modifier_details,omitempty"`
	Revenue                int64                        `json:"revenue,omitempty"`

	// Post-production state while in_editing.
	EditingTierID         string `json:"editing_tier_id,omitempty"`
	EditingWeeksRemaining int    `json:"editing_weeks_remaining,omitempty"`
}

// CastLocked reports whether the scene's composition may no longer change.
func (s *Scene) CastLocked() bool {
	return len(s.FinalCast) > 0
}

// Editable reports whether composition edits are allowed.
func (s *Scene) Editable() bool {
	return s.Status == StatusDesign && !s.CastLocked()
}

// Transition advances the scene to next, rejecting out-of-order moves.
func (s *Scene) Transition(next Status) error {
	if transitions[s.Status] != next {
		return fmt.Errorf("scene %d: invalid transition %s -> %s", s.ID, s.Status, next)
	}
	if next == StatusShot && len(s.FinalCast) == 0 {
		return fmt.Errorf("scene %d: cannot shoot an uncast scene", s.ID)
	}
	s.Status = next
	return nil
}

// Protagonist reports whether the virtual performer is flagged for
// amplified contribution weight.
func (s *Scene) Protagonist(vpID int64) bool {
	for _, id := range s.ProtagonistVPIDs {
		if id == vpID {
			return true
		}
	}
	return false
}

// Performer returns the virtual performer with the given id.
func (s *Scene) Performer(vpID int64) (VirtualPerformer, bool) {
	for _, vp := range s.Performers {
		if vp.ID == vpID {
			return vp, true
		}
	}
	return VirtualPerformer{}, false
}

// CastTalentIDs returns the distinct talent ids in the final cast.
func (s *Scene) CastTalentIDs() []int64 {
	seen := make(map[int64]bool, len(s.FinalCast))
	ids := make([]int64, 0, len(s.FinalCast))
	for _, tid := range s.FinalCast {
		if !seen[tid] {
			seen[tid] = true
			ids = append(ids, tid)
		}
	}
	return ids
}
