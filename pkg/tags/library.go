package tags

// Library is the read-only lookup over all loaded content. It is built
// once at startup and never mutated afterwards.
type Library struct {
	Tags               map[string]Definition // keyed by FullName
	ProductionSettings map[string][]TierDef  // keyed by category
	Policies           map[string]PolicyDef  // keyed by policy id
	Events             map[string]EventDef   // keyed by event id
	EditingTiers       []EditingTier
}

// Tag looks up a definition by its full name.
func (l *Library) Tag(fullName string) (Definition, bool) {
	d, ok := l.Tags[fullName]
	return d, ok
}

// Concept returns the concept grouping for a tag name, falling back to the
// name itself when the tag is unknown or has no concept.
func (l *Library) Concept(fullName string) string {
	if d, ok := l.Tags[fullName]; ok && d.Concept != "" {
		return d.Concept
	}
	return fullName
}

// Tier finds a tier definition within a production-setting category.
func (l *Library) Tier(category, tierName string) (TierDef, bool) {
	for _, t := range l.ProductionSettings[category] {
		if t.TierName == tierName {
			return t, true
		}
	}
	return TierDef{}, false
}

// Event looks up an event definition by id.
func (l *Library) Event(id string) (EventDef, bool) {
	e, ok := l.Events[id]
	return e, ok
}

// PolicyName returns the display name for a policy id, or the id itself
// when the policy is unknown.
func (l *Library) PolicyName(id string) string {
	if p, ok := l.Policies[id]; ok {
		return p.Name
	}
	return id
}

// EditingTier finds a post-production editing tier by id.
func (l *Library) EditingTier(id string) (EditingTier, bool) {
	for _, t := range l.EditingTiers {
		if t.ID == id {
			return t, true
		}
	}
	return EditingTier{}, false
}
