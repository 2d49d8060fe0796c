package shoot

import (
	"log/slog"
	"sort"

	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// DiscoverChemistry rolls chemistry for every talent pair sharing a
// segment that has no record yet. Pairs are visited in canonical sorted
// order so draws replay under a seed, and existing pairs are never
// re-rolled, keeping discovery idempotent.
func DiscoverChemistry(scene *sim.Scene, cast map[int64]*sim.Talent, lib *tags.Library, tuning sim.ChemistryTuning, r *rng.Source, log *slog.Logger) []sim.ChemistryDiscovery {
	segments := sim.ExpandSegments(scene, lib, log)

	type pair struct{ a, b int64 }
	pairs := make(map[pair]bool)
	for _, seg := range segments {
		var ids []int64
		seen := make(map[int64]bool)
		for _, slot := range seg.Slots {
			talentID, ok := scene.FinalCast[slot.VirtualPerformerID]
			if !slot.Assigned() || !ok || seen[talentID] {
				continue
			}
			seen[talentID] = true
			ids = append(ids, talentID)
		}
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				lo, hi := sim.CanonicalPair(a, b)
				pairs[pair{lo, hi}] = true
			}
		}
	}

	ordered := make([]pair, 0, len(pairs))
	for p := range pairs {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].a != ordered[j].a {
			return ordered[i].a < ordered[j].a
		}
		return ordered[i].b < ordered[j].b
	})

	var discoveries []sim.ChemistryDiscovery
	for _, p := range ordered {
		ta := cast[p.a]
		if ta == nil {
			continue
		}
		if _, exists := ta.Chemistry[p.b]; exists {
			continue
		}
		idx, err := r.WeightedIndex(tuning.DiscoveryWeights)
		if err != nil || idx >= len(tuning.DiscoveryScores) {
			log.Warn("chemistry discovery weights misconfigured", "err", err)
			continue
		}
		discoveries = append(discoveries, sim.ChemistryDiscovery{
			TalentA: p.a,
			TalentB: p.b,
			Score:   tuning.DiscoveryScores[idx],
		})
	}
	return discoveries
}
