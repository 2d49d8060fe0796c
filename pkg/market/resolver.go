package market

import "fmt"

// Resolver merges group preference trees down their inheritance chains.
// Cycles are detected at construction, since a cyclic content pack is
// corrupt and must not load.
type Resolver struct {
	groups   map[string]Group
	resolved map[string]Preferences
}

// NewResolver validates the inheritance graph and returns a resolver with
// every group pre-resolved.
func NewResolver(groups map[string]Group) (*Resolver, error) {
	r := &Resolver{
		groups:   groups,
		resolved: make(map[string]Preferences, len(groups)),
	}
	for name := range groups {
		if _, err := r.resolve(name, make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve returns the fully merged preferences for a group.
func (r *Resolver) Resolve(name string) (Preferences, error) {
	if p, ok := r.resolved[name]; ok {
		return p, nil
	}
	return r.resolve(name, make(map[string]bool))
}

// Group returns the raw group definition.
func (r *Resolver) Group(name string) (Group, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// Names lists all known group names.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	return names
}

func (r *Resolver) resolve(name string, visiting map[string]bool) (Preferences, error) {
	if p, ok := r.resolved[name]; ok {
		return p, nil
	}
	if visiting[name] {
		return Preferences{}, fmt.Errorf("circular market group inheritance involving %q", name)
	}
	group, ok := r.groups[name]
	if !ok {
		return Preferences{}, fmt.Errorf("unknown market group %q", name)
	}
	if group.InheritsFrom == "" {
		r.resolved[name] = group.Preferences
		return group.Preferences, nil
	}

	visiting[name] = true
	parent, err := r.resolve(group.InheritsFrom, visiting)
	delete(visiting, name)
	if err != nil {
		return Preferences{}, err
	}

	merged := mergePreferences(parent, group.Preferences)
	r.resolved[name] = merged
	return merged, nil
}

// mergePreferences overlays child onto parent: child keys overwrite at the
// leaf, omitted keys and whole categories are inherited unchanged.
func mergePreferences(parent, child Preferences) Preferences {
	return Preferences{
		ThematicSentiments:    mergeFloats(parent.ThematicSentiments, child.ThematicSentiments),
		PhysicalSentiments:    mergeFloats(parent.PhysicalSentiments, child.PhysicalSentiments),
		ActionSentiments:      mergeFloats(parent.ActionSentiments, child.ActionSentiments),
		OrientationSentiments: mergeFloats(parent.OrientationSentiments, child.OrientationSentiments),
		ScalingSentiments:     mergeScaling(parent.ScalingSentiments, child.ScalingSentiments),
		DomSubSentiments:      mergeFloats(parent.DomSubSentiments, child.DomSubSentiments),
	}
}

func mergeFloats(parent, child map[string]float64) map[string]float64 {
	if len(child) == 0 {
		return parent
	}
	out := make(map[string]float64, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeScaling(parent, child map[string]ScalingRule) map[string]ScalingRule {
	if len(child) == 0 {
		return parent
	}
	out := make(map[string]ScalingRule, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}
