// Package casting covers casting-time decisions: role performance
// modifiers, talent availability checks and hiring demand.
package casting

import (
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// OtherRole returns the complementary role for per-other scaling.
func OtherRole(role string) string {
	switch role {
	case sim.RoleGiver:
		return sim.RoleReceiver
	case sim.RoleReceiver:
		return sim.RoleGiver
	}
	return ""
}

// FinalModifier computes the effective multiplier for a base modifier key
// on a slot, scaled by how many peers and complementary-role partners the
// segment has. The same function serves stamina cost, demand and quality
// scaling with different keys.
func FinalModifier(key string, slotDef tags.Slot, seg sim.ExpandedSegment, role string) float64 {
	base := slotDef.Modifier(key, 1.0)
	scalingOther := slotDef.Modifier(key+"_scaling_per_other", 0)
	scalingPeer := slotDef.Modifier(key+"_scaling_per_peer", 0)

	var bonus float64
	if other := OtherRole(role); other != "" && scalingOther > 0 {
		if n := seg.RoleCount(other); n > 1 {
			bonus += float64(n-1) * scalingOther
		}
	}
	if scalingPeer > 0 {
		if n := seg.RoleCount(role); n > 1 {
			bonus += float64(n-1) * scalingPeer
		}
	}
	return base + bonus
}
