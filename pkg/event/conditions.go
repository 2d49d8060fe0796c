package event

import (
	"log/slog"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// conditionMet evaluates one triggering condition against the context.
// Unknown condition types fail closed with a warning so a content typo
// can never make an event fire unconditionally.
func conditionMet(cond tags.ConditionDef, ctx *Context, lib *tags.Library, log *slog.Logger) bool {
	switch cond.Type {
	case "policy_active":
		return ctx.Bloc != nil && ctx.Bloc.PolicyActive(cond.ID)
	case "policy_inactive":
		return ctx.Bloc == nil || !ctx.Bloc.PolicyActive(cond.ID)

	case "cast_has_gender":
		for _, t := range ctx.CastTalents() {
			if t.Gender == cond.Gender {
				return true
			}
		}
		return false

	case "cast_size":
		return compareInt(ctx.CastSize(), cond.Comparison, int(cond.Value))

	case "scene_has_tag_concept":
		return ctx.SceneConcepts(lib)[cond.Concept]

	case "talent_professionalism":
		if ctx.Talent == nil {
			return false
		}
		return compareFloat(ctx.Talent.Professionalism, cond.Comparison, cond.Value)

	case "talent_physical_attribute":
		if ctx.Talent == nil {
			return false
		}
		return compareFloat(ctx.Talent.PhysicalAttributes[cond.Key], cond.Comparison, cond.Value)

	case "talent_participates_in_concept":
		return talentParticipates(ctx, lib, cond.Concept, cond.Roles, log)

	case "has_production_tier":
		return hasTier(ctx.Bloc, cond.Category, cond.TierName)
	case "not_has_production_tier":
		return !hasTier(ctx.Bloc, cond.Category, cond.TierName)
	}

	log.Warn("unknown event condition type, treating as not met", "type", cond.Type)
	return false
}

// allConditionsMet reports whether every condition passes.
func allConditionsMet(conds []tags.ConditionDef, ctx *Context, lib *tags.Library, log *slog.Logger) bool {
	for _, cond := range conds {
		if !conditionMet(cond, ctx, lib, log) {
			return false
		}
	}
	return true
}

// talentParticipates reports whether the triggering talent performs in
// any segment whose tag matches the concept, optionally restricted to
// specific roles.
func talentParticipates(ctx *Context, lib *tags.Library, concept string, roles []string, log *slog.Logger) bool {
	if ctx.Talent == nil {
		return false
	}
	for _, seg := range sim.ExpandSegments(ctx.Scene, lib, log) {
		if lib.Concept(seg.TagName) != concept {
			continue
		}
		for _, slot := range seg.Slots {
			talentID, ok := ctx.Scene.FinalCast[slot.VirtualPerformerID]
			if !slot.Assigned() || !ok || talentID != ctx.Talent.ID {
				continue
			}
			if len(roles) == 0 {
				return true
			}
			for _, role := range roles {
				if slot.Role == role {
					return true
				}
			}
		}
	}
	return false
}

func hasTier(bloc *sim.ShootingBloc, category, tierName string) bool {
	if bloc == nil {
		return false
	}
	return bloc.ProductionSettings[category] == tierName
}

func compareFloat(v float64, op string, target float64) bool {
	switch op {
	case "gte", "above", "":
		return v >= target
	case "lte", "below":
		return v <= target
	case "gt":
		return v > target
	case "lt":
		return v < target
	case "eq":
		return v == target
	}
	return false
}

func compareInt(v int, op string, target int) bool {
	switch op {
	case "gte", "":
		return v >= target
	case "lte":
		return v <= target
	case "gt":
		return v > target
	case "lt":
		return v < target
	case "eq":
		return v == target
	}
	return false
}
