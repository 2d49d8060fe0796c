// Package shoot computes what happens when a scene is shot: per-talent
// stamina and skill outcomes, per-tag quality scores, auto-tag discovery
// and pair chemistry. Everything here is a pure calculation over snapshots;
// the caller applies the returned deltas.
package shoot

import (
	"log/slog"
	"sort"

	"github.com/studiosim/studio-engine/pkg/casting"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// OutcomeCalculator derives stamina, fatigue and skill progression for
// every cast talent in a shoot.
type OutcomeCalculator struct {
	lib    *tags.Library
	tuning sim.OutcomeTuning
	weeks  int
	log    *slog.Logger
}

// NewOutcomeCalculator builds an outcome calculator. weeksPerYear controls
// the fatigue recovery deadline wrap.
func NewOutcomeCalculator(lib *tags.Library, tuning sim.OutcomeTuning, weeksPerYear int, log *slog.Logger) *OutcomeCalculator {
	if weeksPerYear <= 0 {
		weeksPerYear = 52
	}
	return &OutcomeCalculator{lib: lib, tuning: tuning, weeks: weeksPerYear, log: log}
}

// StaminaCosts sums each cast talent's effective stamina cost in minutes
// across every segment their virtual performer appears in.
func StaminaCosts(scene *sim.Scene, segments []sim.ExpandedSegment) map[int64]float64 {
	costs := make(map[int64]float64, len(scene.FinalCast))
	for _, seg := range segments {
		minutes := seg.RuntimeMinutes(scene.TotalRuntimeMinutes)
		for _, slot := range seg.Slots {
			if !slot.Assigned() {
				continue
			}
			talentID, ok := scene.FinalCast[slot.VirtualPerformerID]
			if !ok {
				continue
			}
			mod := 1.0
			if slotDef, found := seg.SlotDef(slot.Role); found {
				mod = casting.FinalModifier("stamina_modifier", slotDef, seg, slot.Role)
			}
			costs[talentID] += minutes * mod
		}
	}
	return costs
}

// TalentOutcomes computes the per-talent shoot deltas. Results are ordered
// by talent id so callers can apply and log them deterministically.
func (c *OutcomeCalculator) TalentOutcomes(scene *sim.Scene, cast map[int64]*sim.Talent, currentWeek, currentYear int) []sim.TalentShootOutcome {
	segments := sim.ExpandSegments(scene, c.lib, c.log)
	costs := StaminaCosts(scene, segments)
	minutes := performedMinutes(scene, segments)

	ids := make([]int64, 0, len(cast))
	for id := range cast {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	outcomes := make([]sim.TalentShootOutcome, 0, len(ids))
	for _, id := range ids {
		talent := cast[id]
		out := sim.TalentShootOutcome{TalentID: id, StaminaCost: costs[id]}
		c.applyFatigue(&out, talent, currentWeek, currentYear)
		c.applyGains(&out, talent, scene, minutes[id])
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// applyFatigue adds fatigue when the shoot overdraws the talent's stamina
// pool. The recovery deadline wraps across the year boundary.
func (c *OutcomeCalculator) applyFatigue(out *sim.TalentShootOutcome, talent *sim.Talent, week, year int) {
	pool := talent.Stamina * c.tuning.StaminaToPoolMultiplier
	out.NewFatigue = talent.Fatigue
	if pool <= 0 || out.StaminaCost <= pool {
		return
	}
	overdraw := (out.StaminaCost - pool) / pool
	gain := float64(min(100, int(overdraw*100)))
	if gain <= 0 {
		return
	}
	out.FatigueGain = gain
	out.NewFatigue = minFloat(100, talent.Fatigue+gain)

	out.RecoveryWeek = week + c.tuning.BaseFatigueWeeks
	out.RecoveryYear = year
	for out.RecoveryWeek > c.weeks {
		out.RecoveryWeek -= c.weeks
		out.RecoveryYear++
	}
}

func (c *OutcomeCalculator) applyGains(out *sim.TalentShootOutcome, talent *sim.Talent, scene *sim.Scene, minutes float64) {
	t := c.tuning
	base := minutes * t.SkillGainBaseRate * (1 + (talent.Ambition-t.MedianAmbition)*t.AmbitionScalar)
	if base < 0 {
		base = 0
	}
	out.PerformanceGain = base * diminish(talent.Performance, t.PerformanceCap)
	out.ActingGain = base * diminish(talent.Acting, t.ActingCap)
	out.StaminaGain = base * diminish(talent.Stamina, t.StaminaCap)

	if level := scene.DomSubDynamicLevel; level > 0 {
		dsBase := minutes * t.DomSubGainBaseRate * t.DomSubLevelMultiple[level]
		domBias, subBias := dispositionBias(dispositionFor(scene, talent.ID))
		out.DomSkillGain = dsBase * domBias * diminish(talent.DomSkill, t.DomSubCap)
		out.SubSkillGain = dsBase * subBias * diminish(talent.SubSkill, t.DomSubCap)
	}

	raw := t.ExperienceGainBase + minutes*t.ExperienceRuntimeMultiple
	out.ExperienceGain = raw * diminish(talent.Experience, t.ExperienceCap)
}

// diminish is the shared diminishing-returns factor: full gain at zero
// skill, zero gain at or above the cap.
func diminish(current, cap float64) float64 {
	if cap <= 0 || current >= cap {
		return 0
	}
	return 1 - current/cap
}

func dispositionBias(disposition string) (dom, sub float64) {
	switch disposition {
	case "Dom":
		return 1.0, 0.25
	case "Sub":
		return 0.25, 1.0
	case "Switch":
		return 0.75, 0.75
	}
	return 0.25, 0.25
}

func dispositionFor(scene *sim.Scene, talentID int64) string {
	for vpID, tid := range scene.FinalCast {
		if tid != talentID {
			continue
		}
		if vp, ok := scene.Performer(vpID); ok {
			return vp.Disposition
		}
	}
	return ""
}

// performedMinutes totals each talent's on-screen minutes, unscaled by
// stamina modifiers. Skill gains scale with time worked, not effort spent.
func performedMinutes(scene *sim.Scene, segments []sim.ExpandedSegment) map[int64]float64 {
	minutes := make(map[int64]float64, len(scene.FinalCast))
	for _, seg := range segments {
		m := seg.RuntimeMinutes(scene.TotalRuntimeMinutes)
		seen := make(map[int64]bool)
		for _, slot := range seg.Slots {
			if !slot.Assigned() {
				continue
			}
			talentID, ok := scene.FinalCast[slot.VirtualPerformerID]
			if !ok || seen[talentID] {
				continue
			}
			seen[talentID] = true
			minutes[talentID] += m
		}
	}
	return minutes
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
