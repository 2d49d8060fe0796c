// Package release covers release-time processing: market revenue and
// post-production rescaling. It consumes final tag qualities and never
// recomputes them.
package release

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// RevenueCalculator resolves market interest in a released scene and
// turns it into money.
type RevenueCalculator struct {
	lib      *tags.Library
	resolver *market.Resolver
	tuning   sim.RevenueTuning
	log      *slog.Logger
}

// NewRevenueCalculator builds a revenue calculator.
func NewRevenueCalculator(lib *tags.Library, resolver *market.Resolver, tuning sim.RevenueTuning, log *slog.Logger) *RevenueCalculator {
	return &RevenueCalculator{lib: lib, resolver: resolver, tuning: tuning, log: log}
}

// weightedTag is one normalized revenue weight entry. Action segments get
// one entry per segment instance; the key keeps them distinct.
type weightedTag struct {
	key          string
	tagName      string
	weight       float64
	participants int
}

// Revenue computes total revenue and per-group interest for a released
// scene. Saturation spend and newly discovered sentiments are returned for
// the caller to persist.
func (c *RevenueCalculator) Revenue(scene *sim.Scene, cast map[int64]*sim.Talent, states map[string]*market.GroupState) sim.RevenueResult {
	result := sim.RevenueResult{
		ViewerGroupInterest:  make(map[string]float64),
		SaturationUpdates:    make(map[string]float64),
		DiscoveredSentiments: make(map[string][]string),
	}

	weights := c.tagWeights(scene)
	if len(weights) == 0 {
		result.ModifierDetails = append(result.ModifierDetails, "no revenue-weighted content")
		return result
	}

	names := c.resolver.Names()
	sort.Strings(names)

	var total float64
	for _, name := range names {
		group, _ := c.resolver.Group(name)
		prefs, err := c.resolver.Resolve(name)
		if err != nil {
			c.log.Warn("skipping unresolvable market group", "group", name, "error", err)
			continue
		}

		interest := c.groupInterest(scene, cast, name, prefs, weights)
		result.ViewerGroupInterest[name] = interest

		// A hostile group just stays home: it neither pays nor burns out.
		if interest <= 0 {
			continue
		}

		saturation := 1.0
		if state := states[name]; state != nil {
			saturation = state.CurrentSaturation
		}

		contribution := c.tuning.BaseReleaseRevenue *
			(group.MarketSharePercent / 100) *
			interest *
			group.SpendingPower *
			saturation
		total += contribution

		spent := saturation - interest*c.tuning.SaturationSpendScalar
		result.SaturationUpdates[name] = clamp01(spent)

		if interest >= c.tuning.SentimentDiscoveryThreshold {
			result.DiscoveredSentiments[name] = c.newDiscoveries(scene, states[name], weights)
		}
	}

	penalty := c.shapePenalties(scene, &result)
	result.TotalRevenue = int64(total * penalty)
	return result
}

// tagWeights assembles the normalized weight per contributing tag:
// focused physical tags, per-instance action segments, then auto tags.
func (c *RevenueCalculator) tagWeights(scene *sim.Scene) []weightedTag {
	var entries []weightedTag

	focused := make(map[string]bool, len(scene.AssignedTags))
	focusedNames := make([]string, 0, len(scene.AssignedTags))
	for tag := range scene.AssignedTags {
		focused[tag] = true
		focusedNames = append(focusedNames, tag)
	}
	sort.Strings(focusedNames)
	for _, tag := range focusedNames {
		w := c.tuning.DefaultFocusedWeight
		if def, ok := c.lib.Tag(tag); ok && def.RevenueWeights != nil && def.RevenueWeights.Focused > 0 {
			w = def.RevenueWeights.Focused
		}
		entries = append(entries, weightedTag{key: tag, tagName: tag, weight: w})
	}

	for i, seg := range scene.Segments {
		appeal := c.tuning.DefaultAppealWeight
		def, ok := c.lib.Tag(seg.TagName)
		if ok && def.AppealWeight > 0 {
			appeal = def.AppealWeight
		}
		entries = append(entries, weightedTag{
			key:          fmt.Sprintf("%s_%d", seg.TagName, i),
			tagName:      seg.TagName,
			weight:       seg.RuntimePercentage / 100 * appeal,
			participants: totalParticipants(seg),
		})
	}

	for _, tag := range sortedStrings(scene.AutoTags) {
		if focused[tag] {
			continue
		}
		w := c.tuning.DefaultAutoWeight
		if def, ok := c.lib.Tag(tag); ok && def.RevenueWeights != nil && def.RevenueWeights.Auto > 0 {
			w = def.RevenueWeights.Auto
		}
		entries = append(entries, weightedTag{key: "auto:" + tag, tagName: tag, weight: w})
	}

	var sum float64
	for _, e := range entries {
		sum += e.weight
	}
	if sum <= 0 {
		return nil
	}
	for i := range entries {
		entries[i].weight /= sum
	}
	return entries
}

// groupInterest is additive thematic appeal plus weighted content appeal,
// then dom/sub, star-power and focus multipliers.
func (c *RevenueCalculator) groupInterest(scene *sim.Scene, cast map[int64]*sim.Talent, groupName string, prefs market.Preferences, weights []weightedTag) float64 {
	var thematic float64
	for _, tag := range scene.GlobalTags {
		thematic += prefs.ThematicSentiments[c.baseName(tag)]
	}

	var content float64
	for _, e := range weights {
		quality := scene.TagQualities[e.tagName]
		sentiment := c.sentimentFor(prefs, e)
		content += quality / 100 * sentiment * e.weight
	}

	interest := thematic + content
	interest *= prefs.DomSubSentiment(scene.DomSubDynamicLevel)
	interest *= 1 + c.avgPopularity(cast, groupName)*c.tuning.StarPowerScalar
	if scene.FocusedMarketGroup == groupName {
		interest *= c.tuning.FocusTargetBonus
	}
	return interest
}

// sentimentFor resolves one weighted tag's sentiment multiplier: the
// physical or action sentiment, times any orientation sentiment the tag
// declares, times the participant-count scaling rule.
func (c *RevenueCalculator) sentimentFor(prefs market.Preferences, e weightedTag) float64 {
	base := c.baseName(e.tagName)

	sentiment, ok := prefs.ActionSentiments[base]
	if !ok {
		sentiment, ok = prefs.PhysicalSentiments[base]
	}
	if !ok {
		sentiment = 1
	}

	if def, found := c.lib.Tag(e.tagName); found && def.Orientation != "" {
		if v, has := prefs.OrientationSentiments[def.Orientation]; has {
			sentiment *= v
		}
	}
	if e.participants > 0 {
		// Scaling rules may be keyed by full name, base name or concept.
		rule, has := prefs.ScalingSentiments[e.tagName]
		if !has {
			rule, has = prefs.ScalingSentiments[base]
		}
		if !has {
			rule, has = prefs.ScalingSentiments[c.lib.Concept(e.tagName)]
		}
		if has {
			sentiment *= rule.Multiplier(e.participants)
		}
	}
	return sentiment
}

// shapePenalties applies the short-scene, monotony and overstuffed
// multipliers, logging each into the modifier details.
func (c *RevenueCalculator) shapePenalties(scene *sim.Scene, result *sim.RevenueResult) float64 {
	penalty := 1.0
	runtime := scene.TotalRuntimeMinutes
	if runtime <= 0 {
		return penalty
	}

	if p := c.tuning.ShortScene; p.Enabled && runtime < p.Threshold {
		m := p.FloorMult + (1-p.FloorMult)*(runtime/p.Threshold)
		penalty *= m
		result.ModifierDetails = append(result.ModifierDetails,
			fmt.Sprintf("short scene penalty x%.2f (%.0f min)", m, runtime))
	}

	if p := c.tuning.Monotony; p.Enabled && runtime > p.MinRuntime {
		density := float64(c.segmentConcepts(scene)) / (runtime / 10)
		if density < p.Threshold {
			m := p.FloorMult + (1-p.FloorMult)*(density/p.Threshold)
			penalty *= m
			result.ModifierDetails = append(result.ModifierDetails,
				fmt.Sprintf("monotony penalty x%.2f (%.1f concepts per 10 min)", m, density))
		}
	}
	if p := c.tuning.Overstuffed; p.Enabled && runtime >= p.MinRuntime && p.Max > p.Threshold {
		density := float64(c.sceneConcepts(scene)) / (runtime / 10)
		if density > p.Threshold {
			frac := math.Min(1, (density-p.Threshold)/(p.Max-p.Threshold))
			m := 1 - (1-p.FloorMult)*frac
			penalty *= m
			result.ModifierDetails = append(result.ModifierDetails,
				fmt.Sprintf("overstuffed penalty x%.2f (%.1f concepts per 10 min)", m, density))
		}
	}
	return penalty
}

// segmentConcepts counts distinct action concepts. Monotony cares about
// variety within the action, not dressing.
func (c *RevenueCalculator) segmentConcepts(scene *sim.Scene) int {
	concepts := make(map[string]bool)
	for _, seg := range scene.Segments {
		concepts[c.lib.Concept(seg.TagName)] = true
	}
	return len(concepts)
}

// sceneConcepts also counts global and focused physical tags; an
// overstuffed scene crams in concepts of every kind.
func (c *RevenueCalculator) sceneConcepts(scene *sim.Scene) int {
	concepts := make(map[string]bool)
	for _, seg := range scene.Segments {
		concepts[c.lib.Concept(seg.TagName)] = true
	}
	for _, tag := range scene.GlobalTags {
		concepts[c.lib.Concept(tag)] = true
	}
	for tag := range scene.AssignedTags {
		concepts[c.lib.Concept(tag)] = true
	}
	return len(concepts)
}

// newDiscoveries lists sentiment keys this release reveals that the group
// state does not already hold.
func (c *RevenueCalculator) newDiscoveries(scene *sim.Scene, state *market.GroupState, weights []weightedTag) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(key string) {
		if seen[key] || (state != nil && state.Discovered(key)) {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}
	for _, e := range weights {
		add("content:" + c.baseName(e.tagName))
	}
	for _, tag := range scene.GlobalTags {
		add("thematic:" + c.baseName(tag))
	}
	sort.Strings(keys)
	return keys
}

func (c *RevenueCalculator) avgPopularity(cast map[int64]*sim.Talent, groupName string) float64 {
	if len(cast) == 0 {
		return 0
	}
	var sum float64
	for _, t := range cast {
		sum += t.Popularity[groupName]
	}
	return sum / float64(len(cast))
}

// baseName strips an orientation qualifier from a full tag name so
// sentiment maps keyed by base name still match.
func (c *RevenueCalculator) baseName(fullName string) string {
	if def, ok := c.lib.Tag(fullName); ok && def.Name != "" {
		return def.Name
	}
	return fullName
}

func totalParticipants(seg sim.ActionSegment) int {
	var n int
	for _, count := range seg.Parameters {
		n += count
	}
	return n
}

func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
