package sim

// PolicyRequirements lists the on-set policies a talent demands or refuses.
type PolicyRequirements struct {
	Requires []string `json:"requires,omitempty"`
	Refuses  []string `json:"refuses,omitempty"`
}

// Talent is the canonical read-only snapshot the calculators receive. The
// persistence boundary projects its storage representation into this shape
// before calling into the engine.
type Talent struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Ethnicity string `json:"ethnicity,omitempty"`
	Age       int    `json:"age"`

	Performance float64 `json:"performance"`
	Acting      float64 `json:"acting"`
	Stamina     float64 `json:"stamina"`
	DomSkill    float64 `json:"dom_skill"`
	SubSkill    float64 `json:"sub_skill"`
	Experience  float64 `json:"experience"`

	Professionalism float64 `json:"professionalism"`
	Ambition        float64 `json:"ambition"`
	Salary          int64   `json:"salary,omitempty"`

	// Fatigue is 0-100. While above zero the talent performs at reduced
	// capacity until the recovery deadline passes.
	Fatigue             float64 `json:"fatigue,omitempty"`
	FatigueRecoveryWeek int     `json:"fatigue_recovery_week,omitempty"`
	FatigueRecoveryYear int     `json:"fatigue_recovery_year,omitempty"`

	MaxScenePartners  int                           `json:"max_scene_partners"`
	HardLimits        []string                      `json:"hard_limits,omitempty"`
	ConcurrencyLimits map[string]int                `json:"concurrency_limits,omitempty"`
	TagAffinities     map[string]float64            `json:"tag_affinities,omitempty"`
	TagPreferences    map[string]map[string]float64 `json:"tag_preferences,omitempty"`
	Policies          PolicyRequirements            `json:"policies,omitempty"`

	// Popularity is keyed by market group name, 0-100.
	Popularity map[string]float64 `json:"popularity,omitempty"`

	// Chemistry is keyed by the other talent's id. Scores are symmetric;
	// the canonical stored pair puts the lower id first.
	Chemistry map[int64]int `json:"chemistry,omitempty"`

	// PhysicalAttributes holds measured attributes referenced by quality
	// blend rules and detection rules, e.g. "dick_size".
	PhysicalAttributes map[string]float64 `json:"physical_attributes,omitempty"`
}

// HasHardLimit reports whether the tag (full or base name) is refused outright.
func (t *Talent) HasHardLimit(names ...string) bool {
	for _, limit := range t.HardLimits {
		for _, n := range names {
			if limit == n {
				return true
			}
		}
	}
	return false
}

// Preference returns the talent's multiplier for performing a tag in a
// role. Missing entries default to 1.0 (neutral).
func (t *Talent) Preference(tag, role string) float64 {
	roles, ok := t.TagPreferences[tag]
	if !ok {
		return 1.0
	}
	v, ok := roles[role]
	if !ok {
		return 1.0
	}
	return v
}

// ConcurrencyLimit returns the max simultaneous partners for a concept.
func (t *Talent) ConcurrencyLimit(concept string, def int) int {
	if v, ok := t.ConcurrencyLimits[concept]; ok {
		return v
	}
	return def
}

// TotalPopularity sums popularity across all market groups.
func (t *Talent) TotalPopularity() float64 {
	var total float64
	for _, v := range t.Popularity {
		total += v
	}
	return total
}

// ChemistryWith returns the symmetric chemistry score with another talent,
// zero when the pair has never been discovered.
func (t *Talent) ChemistryWith(otherID int64) int {
	return t.Chemistry[otherID]
}

// CanonicalPair orders a talent id pair with the lower id first. Chemistry
// records are stored under this ordering so discovery stays idempotent.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
