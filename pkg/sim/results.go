package sim

// TalentShootOutcome is the per-talent delta from one shoot. The caller
// applies gains with min(cap, current+gain); the calculator never writes.
type TalentShootOutcome struct {
	TalentID    int64   `json:"talent_id"`
	StaminaCost float64 `json:"stamina_cost"`

	FatigueGain  float64 `json:"fatigue_gain,omitempty"`
	NewFatigue   float64 `json:"new_fatigue,omitempty"`
	RecoveryWeek int     `json:"recovery_week,omitempty"`
	RecoveryYear int     `json:"recovery_year,omitempty"`

	PerformanceGain float64 `json:"performance_gain,omitempty"`
	ActingGain      float64 `json:"acting_gain,omitempty"`
	StaminaGain     float64 `json:"stamina_gain,omitempty"`
	DomSkillGain    float64 `json:"dom_skill_gain,omitempty"`
	SubSkillGain    float64 `json:"sub_skill_gain,omitempty"`
	ExperienceGain  float64 `json:"experience_gain,omitempty"`
}

// QualityResult is the scene quality calculator's output: replaces, never
// appends to, any prior values on the scene.
type QualityResult struct {
	TagQualities           map[string]float64           `json:"tag_qualities"`
	PerformerContributions map[int64]map[string]float64 `json:"performer_contributions"`
}

// RevenueResult is the release-time revenue calculation output.
type RevenueResult struct {
	TotalRevenue        int64              `json:"total_revenue"`
	ViewerGroupInterest map[string]float64 `json:"viewer_group_interest"`
	ModifierDetails     []string           `json:"modifier_details,omitempty"`

	// SaturationUpdates carries the new per-group saturation for the
	// caller to persist.
	SaturationUpdates map[string]float64 `json:"saturation_updates,omitempty"`

	// DiscoveredSentiments lists preference entries revealed by this
	// release, keyed by group name.
	DiscoveredSentiments map[string][]string `json:"discovered_sentiments,omitempty"`
}

// ChemistryDiscovery records one newly rolled talent pair. IDs are in
// canonical order (lower first).
type ChemistryDiscovery struct {
	TalentA int64 `json:"talent_a"`
	TalentB int64 `json:"talent_b"`
	Score   int   `json:"score"`
}

// ShootResult bundles everything a completed shoot produced.
type ShootResult struct {
	SceneID   int64                `json:"scene_id"`
	Cancelled bool                 `json:"cancelled,omitempty"`
	Outcomes  []TalentShootOutcome `json:"outcomes,omitempty"`
	Quality   *QualityResult       `json:"quality,omitempty"`
	AutoTags  []string             `json:"auto_tags,omitempty"`
	Chemistry []ChemistryDiscovery `json:"chemistry,omitempty"`
	CostDelta int64                `json:"cost_delta,omitempty"`
	Messages  []string             `json:"messages,omitempty"`
}
