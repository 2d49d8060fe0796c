package shoot

import (
	"log/slog"
	"sort"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// AutoTagAnalyzer discovers tags a scene earns from its cast without the
// player assigning them: compositional rules matched against the whole
// cast and attribute rules matched against single performers.
type AutoTagAnalyzer struct {
	lib *tags.Library
	log *slog.Logger
}

// NewAutoTagAnalyzer builds an auto-tag analyzer.
func NewAutoTagAnalyzer(lib *tags.Library, log *slog.Logger) *AutoTagAnalyzer {
	return &AutoTagAnalyzer{lib: lib, log: log}
}

// Discover returns every auto-taggable tag the cast satisfies, sorted by
// name. The result is a full recomputation; the caller merges it into the
// scene's auto tags, so repeated calls are harmless.
func (a *AutoTagAnalyzer) Discover(scene *sim.Scene, cast map[int64]*sim.Talent) []string {
	talents := castList(scene, cast)
	if len(talents) == 0 {
		return nil
	}

	names := make([]string, 0, len(a.lib.Tags))
	for name := range a.lib.Tags {
		names = append(names, name)
	}
	sort.Strings(names)

	var found []string
	for _, name := range names {
		def := a.lib.Tags[name]
		if !def.IsAutoTaggable {
			continue
		}
		switch {
		case def.ValidationRule != nil:
			if matchesComposition(def.ValidationRule, talents) {
				found = append(found, name)
			}
		case def.AutoDetectionRule != nil:
			if matchesAnyPerformer(def.AutoDetectionRule, talents, a.log) {
				found = append(found, name)
			}
		}
	}
	return found
}

func castList(scene *sim.Scene, cast map[int64]*sim.Talent) []*sim.Talent {
	ids := scene.CastTalentIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	talents := make([]*sim.Talent, 0, len(ids))
	for _, id := range ids {
		if t, ok := cast[id]; ok {
			talents = append(talents, t)
		}
	}
	return talents
}

// matchesComposition tries to assign each profile in the rule to a
// distinct cast member, backtracking over candidates. Age-gap rules bind
// "older"/"younger" profile roles after assignment.
func matchesComposition(rule *tags.ValidationRule, talents []*sim.Talent) bool {
	if len(rule.Profiles) > len(talents) {
		return false
	}
	assigned := make([]*sim.Talent, len(rule.Profiles))
	used := make([]bool, len(talents))

	var assign func(i int) bool
	assign = func(i int) bool {
		if i == len(rule.Profiles) {
			return gapSatisfied(rule, assigned)
		}
		for j, t := range talents {
			if used[j] || !profileMatches(rule.Profiles[i], t) {
				continue
			}
			used[j] = true
			assigned[i] = t
			if assign(i + 1) {
				return true
			}
			used[j] = false
		}
		return false
	}
	return assign(0)
}

func profileMatches(p tags.Profile, t *sim.Talent) bool {
	if p.Gender != "" && p.Gender != t.Gender {
		return false
	}
	if p.Ethnicity != "" && p.Ethnicity != t.Ethnicity {
		return false
	}
	if p.MinAge != nil && t.Age < *p.MinAge {
		return false
	}
	if p.MaxAge != nil && t.Age > *p.MaxAge {
		return false
	}
	return true
}

func gapSatisfied(rule *tags.ValidationRule, assigned []*sim.Talent) bool {
	if rule.MinGapYears <= 0 {
		return true
	}
	var older, younger *sim.Talent
	for i, p := range rule.Profiles {
		switch p.Role {
		case "older":
			older = assigned[i]
		case "younger":
			younger = assigned[i]
		}
	}
	if older == nil || younger == nil {
		return true
	}
	return older.Age-younger.Age >= rule.MinGapYears
}

// matchesAnyPerformer reports whether any single cast member satisfies
// every condition of the rule. Unknown condition types fail closed.
func matchesAnyPerformer(rule *tags.DetectionRule, talents []*sim.Talent, log *slog.Logger) bool {
	for _, t := range talents {
		if performerSatisfies(rule, t, log) {
			return true
		}
	}
	return false
}

func performerSatisfies(rule *tags.DetectionRule, t *sim.Talent, log *slog.Logger) bool {
	for _, cond := range rule.Conditions {
		var v float64
		switch cond.Type {
		case "stat":
			v = statValue(t, cond.Key)
		case "affinity":
			v = t.TagAffinities[cond.Key]
		case "physical":
			if len(cond.Values) > 0 {
				if !attrIn(t, cond.Key, cond.Values) {
					return false
				}
				continue
			}
			v = t.PhysicalAttributes[cond.Key]
		default:
			log.Warn("unknown detection condition type", "type", cond.Type)
			return false
		}
		if !compare(v, cond.Comparison, cond.Value) {
			return false
		}
	}
	return true
}

func attrIn(t *sim.Talent, key string, values []string) bool {
	var actual string
	switch key {
	case "gender":
		actual = t.Gender
	case "ethnicity":
		actual = t.Ethnicity
	default:
		return false
	}
	for _, v := range values {
		if v == actual {
			return true
		}
	}
	return false
}

func compare(v float64, op string, target float64) bool {
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
