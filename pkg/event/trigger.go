package event

import (
	"log/slog"
	"sort"

	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// Engine triggers and resolves interactive events for one shoot.
type Engine struct {
	lib    *tags.Library
	tuning sim.EventTuning
	log    *slog.Logger
}

// NewEngine builds an event engine.
func NewEngine(lib *tags.Library, tuning sim.EventTuning, log *slog.Logger) *Engine {
	return &Engine{lib: lib, tuning: tuning, log: log}
}

// Triggered is a fired event awaiting a player choice.
type Triggered struct {
	Event    tags.EventDef `json:"event"`
	TalentID int64         `json:"talent_id"`
}

// CheckForShootEvent rolls for an event before a shoot. Draws happen in a
// fixed order so a seeded source replays exactly: category shuffle, then
// per category a bad roll (with talent and event selection on a hit)
// followed by a good roll, then a flat policy roll if nothing fired. The
// first category to yield an event wins.
func (e *Engine) CheckForShootEvent(scene *sim.Scene, bloc *sim.ShootingBloc, cast map[int64]*sim.Talent, r *rng.Source) *Triggered {
	ctx := &Context{Scene: scene, Bloc: bloc, Cast: cast}

	if bloc != nil {
		categories := make([]string, 0, len(bloc.ProductionSettings))
		for cat := range bloc.ProductionSettings {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		r.Shuffle(len(categories), func(i, j int) {
			categories[i], categories[j] = categories[j], categories[i]
		})

		for _, category := range categories {
			tierName := bloc.ProductionSettings[category]
			tier, ok := e.lib.Tier(category, tierName)
			if !ok {
				continue
			}
			if t := e.rollCategory(ctx, category, tierName, tier, "bad", r); t != nil {
				return t
			}
			if t := e.rollCategory(ctx, category, tierName, tier, "good", r); t != nil {
				return t
			}
		}
	}

	if r.Float64() < e.tuning.PolicyEventChance {
		return e.selectEvent(ctx, "Policy", "", "bad", r)
	}
	return nil
}

func (e *Engine) rollCategory(ctx *Context, category, tierName string, tier tags.TierDef, eventType string, r *rng.Source) *Triggered {
	chance := e.tuning.BaseBadChance
	mod := tier.BadEventChanceModifier
	if eventType == "good" {
		chance = e.tuning.BaseGoodChance
		mod = tier.GoodEventChanceModifier
	}
	if mod == 0 {
		mod = 1
	}
	if r.Float64() >= chance*mod {
		return nil
	}
	return e.selectEvent(ctx, category, tierName, eventType, r)
}

// selectEvent weighted-selects the triggering talent, then weighted-selects
// among matching event definitions whose conditions all hold.
func (e *Engine) selectEvent(ctx *Context, category, tierName, eventType string, r *rng.Source) *Triggered {
	talent := e.selectTalent(ctx, eventType, r)
	if talent == nil {
		return nil
	}
	ctx.Talent = talent

	var candidates []tags.EventDef
	var weights []float64
	for _, id := range e.sortedEventIDs() {
		def := e.lib.Events[id]
		if def.Category != category || def.Type != eventType {
			continue
		}
		if tierName != "" && len(def.TriggeringTiers) > 0 && !containsString(def.TriggeringTiers, tierName) {
			continue
		}
		if !allConditionsMet(def.TriggeringConditions, ctx, e.lib, e.log) {
			continue
		}
		candidates = append(candidates, def)
		weights = append(weights, def.BaseChance)
	}
	if len(candidates) == 0 {
		return nil
	}
	idx, err := r.WeightedIndex(weights)
	if err != nil {
		return nil
	}
	return &Triggered{Event: candidates[idx], TalentID: talent.ID}
}

// selectTalent weights bad events toward unprofessional talents and good
// events toward professional ones, with a uniform fallback when every
// weight is zero.
func (e *Engine) selectTalent(ctx *Context, eventType string, r *rng.Source) *sim.Talent {
	talents := ctx.CastTalents()
	if len(talents) == 0 {
		return nil
	}
	var maxPro float64
	for _, t := range talents {
		if t.Professionalism > maxPro {
			maxPro = t.Professionalism
		}
	}
	weights := make([]float64, len(talents))
	for i, t := range talents {
		if eventType == "bad" {
			weights[i] = (maxPro + 1) - t.Professionalism
		} else {
			weights[i] = t.Professionalism + 1
		}
	}
	idx, err := r.WeightedIndex(weights)
	if err != nil {
		return nil
	}
	return talents[idx]
}

func (e *Engine) sortedEventIDs() []string {
	ids := make([]string, 0, len(e.lib.Events))
	for id := range e.lib.Events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
