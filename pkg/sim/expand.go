package sim

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/studiosim/studio-engine/pkg/tags"
)

// Role names with engine-level meaning. Giver and Receiver are
// complementary for per-other modifier scaling; RoleImplicit marks the
// pass-through slot of a non-template segment.
const (
	RoleGiver    = "Giver"
	RoleReceiver = "Receiver"
	RoleImplicit = "Performer"
)

// ExpandedSlot is one concrete slot within an expanded segment.
// VirtualPerformerID is zero when the slot is unassigned.
type ExpandedSlot struct {
	SlotID             string
	Role               string
	VirtualPerformerID int64
}

// Assigned reports whether a performer is bound to the slot.
func (s ExpandedSlot) Assigned() bool { return s.VirtualPerformerID != 0 }

// ExpandedSegment is an ActionSegment with its template slots made concrete.
type ExpandedSegment struct {
	TagName           string
	RuntimePercentage float64
	Parameters        map[string]int
	SlotDefs          []tags.Slot
	Slots             []ExpandedSlot
}

// RuntimeMinutes converts the segment's runtime share of the scene.
func (e ExpandedSegment) RuntimeMinutes(totalRuntime float64) float64 {
	return totalRuntime * e.RuntimePercentage / 100
}

// SlotDef returns the slot definition matching a role.
func (e ExpandedSegment) SlotDef(role string) (tags.Slot, bool) {
	for _, d := range e.SlotDefs {
		if d.Role == role {
			return d, true
		}
	}
	return tags.Slot{}, false
}

// RoleCount returns the participant count for a role, zero when absent.
func (e ExpandedSegment) RoleCount(role string) int {
	return e.Parameters[role]
}

// ExpandSegments expands a scene's action segments into concrete slot
// assignments. Pure and idempotent: repeated calls on an unchanged scene
// yield identical output in identical order. Template tags generate
// "{base}_{role}_{n}" slot ids (1-based) per role instance; non-template
// tags pass through as a single implicit slot. Unknown tags and malformed
// slot ids are skipped with a warning, never fatal.
func ExpandSegments(scene *Scene, lib *tags.Library, log *slog.Logger) []ExpandedSegment {
	out := make([]ExpandedSegment, 0, len(scene.Segments))
	for _, seg := range scene.Segments {
		def, ok := lib.Tag(seg.TagName)
		if !ok {
			log.Warn("skipping segment with unknown tag",
				"scene_id", scene.ID, "tag", seg.TagName)
			continue
		}

		exp := ExpandedSegment{
			TagName:           seg.TagName,
			RuntimePercentage: seg.RuntimePercentage,
			Parameters:        seg.Parameters,
			SlotDefs:          def.Slots,
		}

		if !def.IsTemplate {
			exp.Slots = implicitSlots(seg)
			out = append(out, exp)
			continue
		}

		assigned := assignmentIndex(scene.ID, seg, log)
		for _, slotDef := range def.Slots {
			count := slotDef.Count
			if count == 0 {
				count = seg.Parameters[slotDef.Role]
			}
			for i := 0; i < count; i++ {
				slotID := SlotID(def.Name, slotDef.Role, i+1)
				exp.Slots = append(exp.Slots, ExpandedSlot{
					SlotID:             slotID,
					Role:               slotDef.Role,
					VirtualPerformerID: assigned[slotID],
				})
			}
		}
		out = append(out, exp)
	}
	return out
}

// SlotID builds the concrete slot id for one role instance. Instance
// numbers are 1-based. Existing content depends on this exact format.
func SlotID(baseTag, role string, instance int) string {
	return fmt.Sprintf("%s_%s_%d", baseTag, role, instance)
}

// ParseSlotID splits a slot id back into base tag, role and instance. The
// base tag may itself contain underscores, so the split is from the right.
func ParseSlotID(slotID string) (base, role string, instance int, err error) {
	i := strings.LastIndex(slotID, "_")
	if i <= 0 {
		return "", "", 0, fmt.Errorf("malformed slot id %q", slotID)
	}
	instance, err = strconv.Atoi(slotID[i+1:])
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed slot id %q", slotID)
	}
	rest := slotID[:i]
	j := strings.LastIndex(rest, "_")
	if j <= 0 {
		return "", "", 0, fmt.Errorf("malformed slot id %q", slotID)
	}
	return rest[:j], rest[j+1:], instance, nil
}

// assignmentIndex maps slot id to bound performer, dropping assignments
// whose ids fail to parse.
func assignmentIndex(sceneID int64, seg ActionSegment, log *slog.Logger) map[string]int64 {
	idx := make(map[string]int64, len(seg.SlotAssignments))
	for _, sa := range seg.SlotAssignments {
		if _, _, _, err := ParseSlotID(sa.SlotID); err != nil {
			log.Warn("skipping malformed slot assignment",
				"scene_id", sceneID, "tag", seg.TagName, "slot_id", sa.SlotID)
			continue
		}
		idx[sa.SlotID] = sa.VirtualPerformerID
	}
	return idx
}

// implicitSlots carries a non-template segment through unchanged: one slot
// per existing assignment, or a single unassigned slot when there are none.
func implicitSlots(seg ActionSegment) []ExpandedSlot {
	if len(seg.SlotAssignments) == 0 {
		return []ExpandedSlot{{SlotID: seg.TagName, Role: RoleImplicit}}
	}
	slots := make([]ExpandedSlot, 0, len(seg.SlotAssignments))
	for _, sa := range seg.SlotAssignments {
		id := sa.SlotID
		if id == "" {
			id = seg.TagName
		}
		slots = append(slots, ExpandedSlot{
			SlotID:             id,
			Role:               RoleImplicit,
			VirtualPerformerID: sa.VirtualPerformerID,
		})
	}
	return slots
}
