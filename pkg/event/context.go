// Package event implements the interactive event engine: condition
// evaluation, weighted random triggering during a shoot, and effect
// resolution for the player's choice.
package event

import (
	"sort"

	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// Context is the read-only snapshot conditions and effects evaluate
// against. Talent is the triggering talent once one is selected.
type Context struct {
	Scene *sim.Scene
	Bloc  *sim.ShootingBloc
	Cast  map[int64]*sim.Talent

	Talent *sim.Talent

	// otherTalent is selected lazily, once, when an effect first needs a
	// second talent.
	otherTalent *sim.Talent
}

// CastSize returns the number of distinct cast talents.
func (c *Context) CastSize() int {
	return len(c.Scene.CastTalentIDs())
}

// CastTalents returns the cast snapshots ordered by talent id.
func (c *Context) CastTalents() []*sim.Talent {
	ids := c.Scene.CastTalentIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	talents := make([]*sim.Talent, 0, len(ids))
	for _, id := range ids {
		if t, ok := c.Cast[id]; ok {
			talents = append(talents, t)
		}
	}
	return talents
}

// OtherTalent picks a uniform random cast member other than the
// triggering talent, caching the pick so repeated template substitutions
// within one resolution agree.
func (c *Context) OtherTalent(r *rng.Source) *sim.Talent {
	if c.otherTalent != nil {
		return c.otherTalent
	}
	var others []*sim.Talent
	for _, t := range c.CastTalents() {
		if c.Talent == nil || t.ID != c.Talent.ID {
			others = append(others, t)
		}
	}
	if len(others) == 0 {
		return nil
	}
	c.otherTalent = others[r.IntN(len(others))]
	return c.otherTalent
}

// SceneConcepts returns the distinct concepts of the scene's segment,
// global and auto tags.
func (c *Context) SceneConcepts(lib *tags.Library) map[string]bool {
	concepts := make(map[string]bool)
	for _, seg := range c.Scene.Segments {
		concepts[lib.Concept(seg.TagName)] = true
	}
	for _, tag := range c.Scene.GlobalTags {
		concepts[lib.Concept(tag)] = true
	}
	for _, tag := range c.Scene.AutoTags {
		concepts[lib.Concept(tag)] = true
	}
	return concepts
}
