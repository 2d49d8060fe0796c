package event

import (
	"strings"

	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// Resolution is the explicit accumulator effect resolution threads
// through. Nothing is mutated behind the caller's back; the worker applies
// the accumulated result after resolution completes.
type Resolution struct {
	CostDelta int64    `json:"cost_delta,omitempty"`
	Messages  []string `json:"messages,omitempty"`

	CancelScene bool `json:"cancel_scene,omitempty"`

	// Mods feeds the quality calculator when the shoot continues.
	Mods *sim.ShootModifiers `json:"mods,omitempty"`

	// ChainEventID pauses the shoot again on a follow-up event.
	ChainEventID string `json:"chain_event_id,omitempty"`
}

// Terminal reports whether resolution ended the normal shoot flow.
func (r *Resolution) Terminal() bool {
	return r.CancelScene || r.ChainEventID != ""
}

// ResolveChoice applies the chosen effects of an event. Unknown event or
// choice ids resolve to a safe continue-shoot no-op rather than an error;
// the player must never be left waiting on a content typo.
func (e *Engine) ResolveChoice(eventID, choiceID string, ctx *Context, r *rng.Source) *Resolution {
	res := &Resolution{Mods: sim.NewShootModifiers()}

	def, ok := e.lib.Event(eventID)
	if !ok {
		e.log.Error("resolving unknown event, continuing shoot", "event_id", eventID)
		return res
	}
	var choice *tags.ChoiceDef
	for i := range def.Choices {
		if def.Choices[i].ID == choiceID {
			choice = &def.Choices[i]
			break
		}
	}
	if choice == nil {
		e.log.Error("unknown choice for event, continuing shoot",
			"event_id", eventID, "choice_id", choiceID)
		return res
	}

	e.applyEffects(choice.Effects, ctx, r, res)
	return res
}

// applyEffects executes effects in declared order. cancel_scene and
// trigger_event are terminal within their list: no later effect runs.
func (e *Engine) applyEffects(effects []tags.EffectDef, ctx *Context, r *rng.Source, res *Resolution) {
	for _, effect := range effects {
		switch effect.Type {
		case "add_cost":
			res.CostDelta += e.effectCost(effect, ctx)

		case "notification":
			res.Messages = append(res.Messages, e.substitute(effect.Message, ctx, r))

		case "cancel_scene":
			res.CancelScene = true
			if effect.CostMultiplier > 0 {
				res.CostDelta += int64(e.proportionalBase(ctx) * effect.CostMultiplier)
			}
			if effect.Message != "" {
				res.Messages = append(res.Messages, e.substitute(effect.Message, ctx, r))
			}
			return

		case "modify_performer_contribution":
			if target := e.effectTarget(effect.Target, ctx, r); target != nil {
				res.Mods.AddPerformerMod(target.ID, effect.Modifier)
			}

		case "modify_performer_contribution_random":
			if target := e.effectTarget(effect.Target, ctx, r); target != nil {
				lo, hi := rangeBounds(effect)
				res.Mods.AddPerformerMod(target.ID, r.UniformRange(lo, hi))
			}

		case "modify_scene_quality":
			if effect.Modifier > 0 {
				res.Mods.OverallQuality *= effect.Modifier
			}

		case "trigger_event":
			res.ChainEventID = effect.EventID
			return

		case "random_outcome":
			e.applyRandomOutcome(effect, ctx, r, res)
			if res.Terminal() {
				return
			}

		default:
			e.log.Warn("unknown effect type, skipping", "type", effect.Type)
		}
	}
}

// applyRandomOutcome weighted-selects one nested effect list and recurses.
func (e *Engine) applyRandomOutcome(effect tags.EffectDef, ctx *Context, r *rng.Source, res *Resolution) {
	if len(effect.Outcomes) == 0 {
		return
	}
	weights := make([]float64, len(effect.Outcomes))
	for i, o := range effect.Outcomes {
		weights[i] = o.Chance
	}
	idx, err := r.WeightedIndex(weights)
	if err != nil {
		return
	}
	e.applyEffects(effect.Outcomes[idx].Effects, ctx, r, res)
}

// effectCost is a flat amount, or the proportional scene cost times the
// multiplier.
func (e *Engine) effectCost(effect tags.EffectDef, ctx *Context) int64 {
	if effect.CostType == "proportional" {
		return int64(e.proportionalBase(ctx) * effect.CostMultiplier)
	}
	return int64(effect.Amount)
}

// proportionalBase is the cast's combined salary plus this scene's share
// of the bloc production cost.
func (e *Engine) proportionalBase(ctx *Context) float64 {
	var salaries float64
	for _, t := range ctx.CastTalents() {
		salaries += float64(t.Salary)
	}
	if ctx.Bloc != nil {
		salaries += ctx.Bloc.CostPerScene()
	}
	return salaries
}

func (e *Engine) effectTarget(target string, ctx *Context, r *rng.Source) *sim.Talent {
	switch target {
	case "other_talent_in_scene":
		return ctx.OtherTalent(r)
	case "triggering_talent", "":
		return ctx.Talent
	}
	e.log.Warn("unknown effect target, skipping", "target", target)
	return nil
}

// substitute fills the notification template placeholders.
func (e *Engine) substitute(message string, ctx *Context, r *rng.Source) string {
	out := message
	if ctx.Talent != nil {
		out = strings.ReplaceAll(out, "{talent_name}", ctx.Talent.Name)
	}
	if strings.Contains(out, "{other_talent_name}") {
		if other := ctx.OtherTalent(r); other != nil {
			out = strings.ReplaceAll(out, "{other_talent_name}", other.Name)
		}
	}
	out = strings.ReplaceAll(out, "{scene_title}", ctx.Scene.Title)
	return out
}

func rangeBounds(effect tags.EffectDef) (float64, float64) {
	lo, hi := 0.8, 1.2
	if effect.MinMod != nil {
		lo = *effect.MinMod
	}
	if effect.MaxMod != nil {
		hi = *effect.MaxMod
	}
	return lo, hi
}
