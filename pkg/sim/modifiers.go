package sim

// ShootModifiers carries the multipliers a resolved interactive event
// injects into the quality calculation. Random-range performer modifiers
// are drawn at event resolution time, so everything here is fixed.
type ShootModifiers struct {
	// OverallQuality multiplies the total production quality modifier.
	OverallQuality float64 `json:"overall_quality,omitempty"`

	// PerformerMods multiplies a talent's performance modifier.
	PerformerMods map[int64]float64 `json:"performer_mods,omitempty"`
}

// NewShootModifiers returns neutral modifiers.
func NewShootModifiers() *ShootModifiers {
	return &ShootModifiers{OverallQuality: 1, PerformerMods: make(map[int64]float64)}
}

// PerformerMod returns the multiplier for a talent, 1.0 when none is set.
func (m *ShootModifiers) PerformerMod(talentID int64) float64 {
	if m == nil {
		return 1
	}
	if v, ok := m.PerformerMods[talentID]; ok {
		return v
	}
	return 1
}

// Overall returns the scene-wide quality multiplier, 1.0 when unset.
func (m *ShootModifiers) Overall() float64 {
	if m == nil || m.OverallQuality == 0 {
		return 1
	}
	return m.OverallQuality
}

// AddPerformerMod compounds a multiplier onto a talent's entry.
func (m *ShootModifiers) AddPerformerMod(talentID int64, mult float64) {
	if m.PerformerMods == nil {
		m.PerformerMods = make(map[int64]float64)
	}
	if _, ok := m.PerformerMods[talentID]; !ok {
		m.PerformerMods[talentID] = 1
	}
	m.PerformerMods[talentID] *= mult
}
