package casting

import (
	"log/slog"
	"math"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// DemandCalculator prices a talent's fee for one role. A nil talent or
// scene yields zero rather than an error; stale UI state is the usual
// cause and the caller decides whether to surface it.
type DemandCalculator struct {
	lib    *tags.Library
	tuning sim.DemandTuning
	log    *slog.Logger
}

// NewDemandCalculator builds a demand calculator.
func NewDemandCalculator(lib *tags.Library, tuning sim.DemandTuning, log *slog.Logger) *DemandCalculator {
	return &DemandCalculator{lib: lib, tuning: tuning, log: log}
}

// Demand computes the fee a talent asks to fill one virtual performer
// slot. Skill, ambition and popularity raise the base; per-role demand
// modifiers scale with partner counts; preference moves the price in
// both directions, so disliked work costs extra.
func (d *DemandCalculator) Demand(talent *sim.Talent, scene *sim.Scene, vpID int64) float64 {
	if talent == nil || scene == nil {
		return 0
	}

	base := d.tuning.BaseDemand *
		(1 + talent.Performance*d.tuning.PerformanceScalar) *
		(1 + talent.Ambition*d.tuning.AmbitionScalar) *
		(1 + talent.TotalPopularity()*d.tuning.PopularityScalar)

	roleMult := 1.0
	prefDivisor := 1.0
	for _, seg := range sim.ExpandSegments(scene, d.lib, d.log) {
		for _, slot := range seg.Slots {
			if slot.VirtualPerformerID != vpID {
				continue
			}
			if slotDef, ok := seg.SlotDef(slot.Role); ok {
				roleMult *= FinalModifier("demand_modifier", slotDef, seg, slot.Role)
			}
			if pref := talent.Preference(seg.TagName, slot.Role); pref > 0 {
				// Work the talent enjoys costs less and work they dislike
				// costs more, softened so preference never dominates the fee.
				prefDivisor *= 1 + (pref-1)*d.tuning.PreferenceSoftener
			}
		}
	}

	demand := base * roleMult / prefDivisor
	return math.Max(d.tuning.MinimumDemand, demand)
}
