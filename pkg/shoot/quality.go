package shoot

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// QualityCalculator computes per-tag quality scores and per-performer
// contribution records for a shot scene. It is called exactly once per
// shoot and replaces any prior values wholesale.
type QualityCalculator struct {
	lib    *tags.Library
	tuning sim.QualityTuning
	pool   sim.OutcomeTuning
	log    *slog.Logger
}

// NewQualityCalculator builds a quality calculator. The outcome tuning
// supplies the stamina pool multiplier so fatigue sensitivity matches the
// outcome calculation.
func NewQualityCalculator(lib *tags.Library, tuning sim.QualityTuning, pool sim.OutcomeTuning, log *slog.Logger) *QualityCalculator {
	return &QualityCalculator{lib: lib, tuning: tuning, pool: pool, log: log}
}

// sceneAmplifiers is the scene-wide modifier pre-pass result: thematic
// tags amplify production, chemistry and dom/sub effects (via max) and
// shift the acting weight (via sum, clamped).
type sceneAmplifiers struct {
	production   map[string]float64 // by production-setting category
	chemistry    float64
	domSub       float64
	actingWeight float64
}

// Quality runs the full calculation: scene-wide thematic pre-pass,
// production modifier, net chemistry, per-segment performer scores,
// aggregation, physical tag quality, then the final production modifier
// pass over everything.
func (c *QualityCalculator) Quality(scene *sim.Scene, cast map[int64]*sim.Talent, mods *sim.ShootModifiers, bloc *sim.ShootingBloc) sim.QualityResult {
	amps := c.sceneWidePass(scene)
	prodMod := c.productionModifier(bloc, amps) * mods.Overall()
	netChem := c.netChemistry(scene, cast)

	segments := sim.ExpandSegments(scene, c.lib, c.log)
	costs := StaminaCosts(scene, segments)

	// Per-key accumulation for contributions, per-tag weighted sums for
	// quality.
	type sample struct{ sum, n float64 }
	contrib := make(map[int64]map[string]*sample)
	tagSum := make(map[string]float64)
	tagWeight := make(map[string]float64)

	for _, seg := range segments {
		def, _ := c.lib.Tag(seg.TagName)
		for _, slot := range seg.Slots {
			talentID, ok := scene.FinalCast[slot.VirtualPerformerID]
			if !slot.Assigned() || !ok {
				continue
			}
			talent, ok := cast[talentID]
			if !ok {
				c.log.Warn("cast talent missing from snapshot set",
					"scene_id", scene.ID, "talent_id", talentID)
				continue
			}

			score := c.performerScore(scene, seg, slot, def, talent, netChem[talentID], costs[talentID], amps, mods)

			key := contributionKey(def.Name, slot.Role, seg)
			if contrib[talentID] == nil {
				contrib[talentID] = make(map[string]*sample)
			}
			if contrib[talentID][key] == nil {
				contrib[talentID][key] = &sample{}
			}
			contrib[talentID][key].sum += score
			contrib[talentID][key].n++

			weight := 1.0
			if scene.Protagonist(slot.VirtualPerformerID) {
				weight = c.tuning.ProtagonistWeight
			}
			tagSum[seg.TagName] += score * weight
			tagWeight[seg.TagName] += weight
		}
	}

	result := sim.QualityResult{
		TagQualities:           make(map[string]float64),
		PerformerContributions: make(map[int64]map[string]float64),
	}
	for tag, sum := range tagSum {
		result.TagQualities[tag] = sum / tagWeight[tag]
	}
	for talentID, keys := range contrib {
		result.PerformerContributions[talentID] = make(map[string]float64, len(keys))
		for key, s := range keys {
			result.PerformerContributions[talentID][key] = s.sum / s.n
		}
	}

	c.physicalTagQuality(scene, cast, result.TagQualities)

	// Final modifier pass. Production quality lifts everything.
	for tag := range result.TagQualities {
		result.TagQualities[tag] *= prodMod
	}
	for _, keys := range result.PerformerContributions {
		for key := range keys {
			keys[key] *= prodMod
		}
	}
	return result
}

// sceneWidePass scans the scene's thematic tags and accumulates their
// scene-wide modifier rules.
func (c *QualityCalculator) sceneWidePass(scene *sim.Scene) sceneAmplifiers {
	amps := sceneAmplifiers{
		production:   make(map[string]float64),
		chemistry:    1,
		domSub:       1,
		actingWeight: c.tuning.ActingWeightBase,
	}
	for _, name := range scene.GlobalTags {
		def, ok := c.lib.Tag(name)
		if !ok || def.Type != tags.TypeThematic {
			continue
		}
		for _, rule := range def.SceneWideModifiers {
			switch rule.Type {
			case tags.ModAmplifyProductionSetting:
				if rule.Multiplier > amps.production[rule.Category] {
					amps.production[rule.Category] = rule.Multiplier
				}
			case tags.ModAmplifyChemistryEffect:
				amps.chemistry = math.Max(amps.chemistry, rule.Multiplier)
			case tags.ModAmplifyDomSubEffect:
				amps.domSub = math.Max(amps.domSub, rule.Multiplier)
			case tags.ModShiftActingWeight:
				amps.actingWeight += rule.ActingWeightShift
			default:
				c.log.Warn("unknown scene-wide modifier rule", "tag", name, "type", rule.Type)
			}
		}
	}
	amps.actingWeight = clamp(amps.actingWeight, c.tuning.ActingWeightMin, c.tuning.ActingWeightMax)
	return amps
}

// productionModifier multiplies the bloc's tier quality modifiers, each
// stretched away from neutral by its thematic amplifier.
func (c *QualityCalculator) productionModifier(bloc *sim.ShootingBloc, amps sceneAmplifiers) float64 {
	mod := 1.0
	if bloc == nil {
		return mod
	}
	categories := make([]string, 0, len(bloc.ProductionSettings))
	for cat := range bloc.ProductionSettings {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		tier, ok := c.lib.Tier(cat, bloc.ProductionSettings[cat])
		if !ok {
			c.log.Warn("unknown production tier", "category", cat, "tier", bloc.ProductionSettings[cat])
			continue
		}
		amp := 1.0
		if a, ok := amps.production[cat]; ok && a > 0 {
			amp = a
		}
		mod *= 1 + (tier.QualityModifier-1)*amp
	}
	return mod
}

// netChemistry sums each talent's symmetric chemistry across all cast
// partners.
func (c *QualityCalculator) netChemistry(scene *sim.Scene, cast map[int64]*sim.Talent) map[int64]float64 {
	net := make(map[int64]float64, len(cast))
	ids := scene.CastTalentIDs()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			ta, tb := cast[a], cast[b]
			if ta == nil || tb == nil {
				continue
			}
			score := float64(ta.ChemistryWith(b))
			net[a] += score
			net[b] += score
		}
	}
	return net
}

// performerScore is the per-slot score for one talent in one segment.
func (c *QualityCalculator) performerScore(scene *sim.Scene, seg sim.ExpandedSegment, slot sim.ExpandedSlot, def tags.Definition, talent *sim.Talent, netChem, staminaCost float64, amps sceneAmplifiers, mods *sim.ShootModifiers) float64 {
	mod := 1 - talent.Fatigue/100*c.tuning.FatiguePenaltyScalar

	pool := talent.Stamina * c.pool.StaminaToPoolMultiplier
	if pool > 0 && staminaCost > pool {
		overdraw := (staminaCost - pool) / pool
		mod *= 1 - overdraw*c.tuning.InScenePenaltyScalar
	}

	mod *= 1 + netChem*c.tuning.BaseChemistryScalar*amps.chemistry
	mod *= mods.PerformerMod(talent.ID)
	mod = math.Max(c.tuning.MinPerformanceFloor, mod)

	effPerf := talent.Performance * mod
	effActing := talent.Acting * mod
	score := effPerf*(1-amps.actingWeight) + effActing*amps.actingWeight

	if def.DomSubMultiplier > 0 && scene.DomSubDynamicLevel > 0 {
		dsWeight := c.tuning.DomSubWeights[scene.DomSubDynamicLevel] * def.DomSubMultiplier * amps.domSub
		dsWeight = math.Min(1, dsWeight)
		if dsWeight > 0 {
			ds := domSubSkill(scene, slot.VirtualPerformerID, talent)
			score = score*(1-dsWeight) + ds*dsWeight
		}
	}
	return score
}

// domSubSkill picks the skill matching the performer's disposition.
func domSubSkill(scene *sim.Scene, vpID int64, talent *sim.Talent) float64 {
	vp, _ := scene.Performer(vpID)
	switch vp.Disposition {
	case "Dom":
		return talent.DomSkill
	case "Sub":
		return talent.SubSkill
	}
	return (talent.DomSkill + talent.SubSkill) / 2
}

// physicalTagQuality scores the scene's physical tags: focused tags blend
// the assigned performers' attributes, discovered auto tags take the
// configured default.
func (c *QualityCalculator) physicalTagQuality(scene *sim.Scene, cast map[int64]*sim.Talent, out map[string]float64) {
	for tag, vpIDs := range scene.AssignedTags {
		def, ok := c.lib.Tag(tag)
		if !ok {
			c.log.Warn("unknown assigned tag", "scene_id", scene.ID, "tag", tag)
			continue
		}
		var sum, n float64
		for _, vpID := range vpIDs {
			talentID, ok := scene.FinalCast[vpID]
			if !ok {
				continue
			}
			talent, ok := cast[talentID]
			if !ok {
				continue
			}
			sum += c.blendValue(def, tag, talent)
			n++
		}
		if n > 0 {
			out[tag] = sum / n
		}
	}

	for _, tag := range scene.AutoTags {
		if _, focused := scene.AssignedTags[tag]; focused {
			continue
		}
		if _, exists := out[tag]; exists {
			continue
		}
		out[tag] = c.tuning.AutoTagDefaultQuality
	}
}

// blendValue evaluates a focused physical tag's quality blend for one
// performer, defaulting to the acting stat when no rule is configured.
func (c *QualityCalculator) blendValue(def tags.Definition, tag string, talent *sim.Talent) float64 {
	qs := def.QualitySource
	if qs == nil || len(qs.Blend) == 0 {
		if qs != nil && qs.Base != "" {
			return statValue(talent, qs.Base)
		}
		return talent.Acting
	}

	var total, weights float64
	for _, rule := range qs.Blend {
		w := rule.Weight
		if w == 0 {
			w = 1
		}
		var v float64
		switch rule.Source {
		case "static":
			v = rule.Value
		case "affinity":
			key := qs.Affinity
			if key == "" {
				key = tag
			}
			v = talent.TagAffinities[key]
		case "dick_size":
			v = talent.PhysicalAttributes["dick_size"] * rule.Multiplier
		default:
			v = statValue(talent, rule.Source)
		}
		total += v * w
		weights += w
	}
	if weights == 0 {
		return talent.Acting
	}
	return total / weights
}

func statValue(talent *sim.Talent, name string) float64 {
	switch name {
	case "performance":
		return talent.Performance
	case "acting":
		return talent.Acting
	case "stamina":
		return talent.Stamina
	case "dom_skill":
		return talent.DomSkill
	case "sub_skill":
		return talent.SubSkill
	case "experience":
		return talent.Experience
	}
	return talent.Acting
}

// contributionKey encodes tag, role and intended participant context,
// e.g. "Anal (Giver, 1R/2G)". Zero counts are left out entirely. Save
// data depends on this exact format.
func contributionKey(base, role string, seg sim.ExpandedSegment) string {
	var parts []string
	if n := seg.RoleCount(sim.RoleReceiver); n > 0 {
		parts = append(parts, fmt.Sprintf("%dR", n))
	}
	if n := seg.RoleCount(sim.RoleGiver); n > 0 {
		parts = append(parts, fmt.Sprintf("%dG", n))
	}
	if n := seg.RoleCount(sim.RoleImplicit); n > 0 {
		parts = append(parts, fmt.Sprintf("%dP", n))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s (%s)", base, role)
	}
	return fmt.Sprintf("%s (%s, %s)", base, role, strings.Join(parts, "/"))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
