package casting

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// Checker decides whether a talent may and will accept a role. All checks
// but the last are deterministic; production-tier snobbery draws from the
// shared RNG stream.
type Checker struct {
	lib    *tags.Library
	tuning sim.AvailabilityTuning
	log    *slog.Logger
}

// NewChecker builds an availability checker.
func NewChecker(lib *tags.Library, tuning sim.AvailabilityTuning, log *slog.Logger) *Checker {
	return &Checker{lib: lib, tuning: tuning, log: log}
}

// Check evaluates the fixed check order for one talent considering one
// virtual performer slot: max partners, hard limits, concurrency limits,
// preferences, policy compatibility, then the snobbery draw. The first
// failing check supplies the refusal reason; deterministic checks run
// before the random one so stable refusals never consume a draw.
func (c *Checker) Check(talent *sim.Talent, scene *sim.Scene, vpID int64, bloc *sim.ShootingBloc, r *rng.Source) (bool, string) {
	if bloc == nil {
		bloc = &sim.ShootingBloc{}
	}
	if n := len(scene.Performers) - 1; n > talent.MaxScenePartners {
		return false, fmt.Sprintf("%s will not work with more than %d other performers", talent.Name, talent.MaxScenePartners)
	}

	segments := sim.ExpandSegments(scene, c.lib, c.log)

	for _, seg := range segments {
		if !segmentHasVP(seg, vpID) {
			continue
		}
		def, _ := c.lib.Tag(seg.TagName)
		if talent.HasHardLimit(seg.TagName, def.Name) {
			return false, fmt.Sprintf("%s has a hard limit against %s", talent.Name, seg.TagName)
		}
	}

	if ok, reason := c.checkConcurrency(talent, segments, vpID); !ok {
		return false, reason
	}

	if ok, reason := c.checkPreferences(talent, segments, vpID); !ok {
		return false, reason
	}

	for _, required := range talent.Policies.Requires {
		if !bloc.PolicyActive(required) {
			return false, fmt.Sprintf("%s requires the %s policy", talent.Name, c.lib.PolicyName(required))
		}
	}
	for _, refused := range talent.Policies.Refuses {
		if bloc.PolicyActive(refused) {
			return false, fmt.Sprintf("%s refuses to work under the %s policy", talent.Name, c.lib.PolicyName(refused))
		}
	}

	return c.checkSnobbery(talent, bloc, r)
}

// checkConcurrency guards the candidate's own Receiver roles: the limit
// caps how many simultaneous givers this talent accepts, so segments
// where the candidate gives (or sits out) never trip it.
func (c *Checker) checkConcurrency(talent *sim.Talent, segments []sim.ExpandedSegment, vpID int64) (bool, string) {
	for _, seg := range segments {
		receiving := false
		for _, slot := range seg.Slots {
			if slot.VirtualPerformerID == vpID && slot.Role == sim.RoleReceiver {
				receiving = true
				break
			}
		}
		if !receiving {
			continue
		}
		givers := seg.RoleCount(sim.RoleGiver)
		concept := c.lib.Concept(seg.TagName)
		if limit := talent.ConcurrencyLimit(concept, c.tuning.DefaultConcurrencyLimit); givers > limit {
			return false, fmt.Sprintf("%s will not take on more than %d %s partners at once", talent.Name, limit, concept)
		}
	}
	return true, ""
}

func (c *Checker) checkPreferences(talent *sim.Talent, segments []sim.ExpandedSegment, vpID int64) (bool, string) {
	for _, seg := range segments {
		for _, slot := range seg.Slots {
			if slot.VirtualPerformerID != vpID {
				continue
			}
			pref := talent.Preference(seg.TagName, slot.Role)
			if pref < c.tuning.OrientationRefusalThreshold {
				return false, fmt.Sprintf("%s's orientation conflicts with %s (%s)", talent.Name, seg.TagName, slot.Role)
			}
			if pref < c.tuning.RefusalThreshold {
				return false, fmt.Sprintf("%s strongly dislikes %s (%s)", talent.Name, seg.TagName, slot.Role)
			}
		}
	}
	return true, ""
}

// checkSnobbery is the only stochastic check. Popular and ambitious
// talents refuse low-tier production settings more often.
func (c *Checker) checkSnobbery(talent *sim.Talent, bloc *sim.ShootingBloc, r *rng.Source) (bool, string) {
	pickiness := talent.TotalPopularity()*c.tuning.SnobberyPopularityScalar +
		talent.Ambition*c.tuning.SnobberyAmbitionScalar
	// Categories are visited in sorted order so draws replay under a seed.
	for _, category := range sortedKeys(bloc.ProductionSettings) {
		tierName := bloc.ProductionSettings[category]
		tier, ok := c.lib.Tier(category, tierName)
		if !ok || !tier.IsLowTier {
			continue
		}
		if r.Float64()*100 < pickiness {
			return false, fmt.Sprintf("%s turns their nose up at the %s %s", talent.Name, tierName, category)
		}
	}
	return true, ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func segmentHasVP(seg sim.ExpandedSegment, vpID int64) bool {
	for _, slot := range seg.Slots {
		if slot.VirtualPerformerID == vpID {
			return true
		}
	}
	return false
}
