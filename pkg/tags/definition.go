// Package tags holds the static content model: tag definitions,
// production-setting tiers, on-set policies, interactive event definitions
// and post-production tiers. Everything here is immutable after load.
package tags

// Type classifies a tag definition.
type Type string

const (
	TypePhysical Type = "Physical"
	TypeAction   Type = "Action"
	TypeThematic Type = "Thematic"
)

// Slot is one role definition within a template tag. Instance counts come
// either from a fixed Count or, when ParameterizedBy is "count", from the
// segment's per-role parameters.
type Slot struct {
	Role            string             `json:"role"`
	Gender          string             `json:"gender,omitempty"`
	Count           int                `json:"count,omitempty"`
	MinCount        int                `json:"min_count,omitempty"`
	ParameterizedBy string             `json:"parameterized_by,omitempty"`
	Modifiers       map[string]float64 `json:"modifiers,omitempty"`
}

// Modifier returns a named modifier with its conventional default: base
// modifiers ("stamina_modifier", "demand_modifier") default to 1.0 and
// scaling modifiers ("..._scaling_per_other", "..._scaling_per_peer")
// default to 0.0.
func (s Slot) Modifier(key string, def float64) float64 {
	if v, ok := s.Modifiers[key]; ok {
		return v
	}
	return def
}

// SceneWideModifier is a Thematic-tag rule that amplifies other
// calculations across the whole scene.
type SceneWideModifier struct {
	Type              string  `json:"type"`
	Category          string  `json:"category,omitempty"`
	Multiplier        float64 `json:"multiplier,omitempty"`
	ActingWeightShift float64 `json:"acting_weight_shift,omitempty"`
}

// Scene-wide modifier rule types.
const (
	ModAmplifyProductionSetting = "amplify_production_setting"
	ModAmplifyChemistryEffect   = "amplify_chemistry_effect"
	ModShiftActingWeight        = "shift_acting_weight"
	ModAmplifyDomSubEffect      = "amplify_dom_sub_effect"
)

// BlendRule is one component of a Physical tag's quality blend.
type BlendRule struct {
	Source     string  `json:"source"` // static, affinity, base, dick_size
	Value      float64 `json:"value,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

// QualitySource describes how a focused Physical tag derives its quality
// from the assigned performers. With no blend rules the named base stat
// (default acting) is used directly.
type QualitySource struct {
	Base     string      `json:"base,omitempty"`
	Affinity string      `json:"affinity,omitempty"`
	Blend    []BlendRule `json:"quality_blend,omitempty"`
}

// Profile is one performer shape within a compositional validation rule.
type Profile struct {
	Gender    string `json:"gender,omitempty"`
	Ethnicity string `json:"ethnicity,omitempty"`
	Role      string `json:"role,omitempty"` // e.g. "older"/"younger" for gap rules
	MinAge    *int   `json:"min_age,omitempty"`
	MaxAge    *int   `json:"max_age,omitempty"`
}

// ValidationRule marks a tag discoverable from cast composition.
type ValidationRule struct {
	Profiles    []Profile `json:"profiles"`
	MinGapYears int       `json:"min_gap_years,omitempty"`
}

// AttrCondition is one requirement within a single-performer detection rule.
type AttrCondition struct {
	Type       string   `json:"type"` // stat, affinity, physical
	Key        string   `json:"key"`
	Comparison string   `json:"comparison"` // gte, lte, eq, in
	Value      float64  `json:"value,omitempty"`
	Values     []string `json:"values,omitempty"`
}

// DetectionRule marks a tag discoverable from a single performer's attributes.
type DetectionRule struct {
	Conditions []AttrCondition `json:"conditions"`
}

// RevenueWeights overrides the default tag weights used by the revenue
// calculator.
type RevenueWeights struct {
	Focused float64 `json:"focused,omitempty"`
	Auto    float64 `json:"auto,omitempty"`
}

// Definition is one immutable tag definition. FullName follows the
// "{base}" or "{base} ({orientation})" convention and is the lookup key.
type Definition struct {
	Name               string              `json:"name"`
	FullName           string              `json:"full_name"`
	Type               Type                `json:"type"`
	Concept            string              `json:"concept,omitempty"`
	Orientation        string              `json:"orientation,omitempty"`
	Gender             string              `json:"gender,omitempty"`
	Ethnicity          string              `json:"ethnicity,omitempty"`
	IsTemplate         bool                `json:"is_template,omitempty"`
	Slots              []Slot              `json:"slots,omitempty"`
	IsAutoTaggable     bool                `json:"is_auto_taggable,omitempty"`
	ValidationRule     *ValidationRule     `json:"validation_rule,omitempty"`
	AutoDetectionRule  *DetectionRule      `json:"auto_detection_rule,omitempty"`
	SceneWideModifiers []SceneWideModifier `json:"scene_wide_modifiers,omitempty"`
	QualitySource      *QualitySource      `json:"quality_source,omitempty"`
	RevenueWeights     *RevenueWeights     `json:"revenue_weights,omitempty"`
	AppealWeight       float64             `json:"appeal_weight,omitempty"`
	DomSubMultiplier   float64             `json:"dom_sub_multiplier,omitempty"`
}

// TierDef is one tier within a production-setting category.
type TierDef struct {
	TierName                string  `json:"tier_name"`
	QualityModifier         float64 `json:"quality_modifier,omitempty"`
	IsLowTier               bool    `json:"is_low_tier,omitempty"`
	BadEventChanceModifier  float64 `json:"bad_event_chance_modifier,omitempty"`
	GoodEventChanceModifier float64 `json:"good_event_chance_modifier,omitempty"`
	CostPerScene            int     `json:"cost_per_scene,omitempty"`
}

// PolicyDef is one on-set policy.
type PolicyDef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CostPerScene int    `json:"cost_per_scene,omitempty"`
}

// ConditionDef is one triggering condition on an event definition. The
// engine dispatches on Type; unknown types fail closed.
type ConditionDef struct {
	Type       string   `json:"type"`
	ID         string   `json:"id,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Concept    string   `json:"concept,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Category   string   `json:"category,omitempty"`
	TierName   string   `json:"tier_name,omitempty"`
	Key        string   `json:"key,omitempty"`
	Comparison string   `json:"comparison,omitempty"`
	Value      float64  `json:"value,omitempty"`
}

// OutcomeDef is one weighted branch of a random_outcome effect.
type OutcomeDef struct {
	Chance  float64     `json:"chance,omitempty"`
	Effects []EffectDef `json:"effects"`
}

// EffectDef is one effect within an event choice.
type EffectDef struct {
	Type           string       `json:"type"`
	Amount         float64      `json:"amount,omitempty"`
	CostType       string       `json:"cost_type,omitempty"` // "" or "proportional"
	Message        string       `json:"message,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	CostMultiplier float64      `json:"cost_multiplier,omitempty"`
	Modifier       float64      `json:"modifier,omitempty"`
	MinMod         *float64     `json:"min_mod,omitempty"`
	MaxMod         *float64     `json:"max_mod,omitempty"`
	Target         string       `json:"target,omitempty"` // triggering_talent, other_talent_in_scene
	EventID        string       `json:"event_id,omitempty"`
	Outcomes       []OutcomeDef `json:"outcomes,omitempty"`
}

// ChoiceDef is one player-selectable choice on an event.
type ChoiceDef struct {
	ID      string      `json:"id"`
	Label   string      `json:"label"`
	Effects []EffectDef `json:"effects,omitempty"`
}

// EventDef is one interactive event definition.
type EventDef struct {
	ID                   string         `json:"id"`
	Category             string         `json:"category"`
	Type                 string         `json:"type"` // good or bad
	BaseChance           float64        `json:"base_chance,omitempty"`
	Title                string         `json:"title,omitempty"`
	Description          string         `json:"description,omitempty"`
	TriggeringTiers      []string       `json:"triggering_tiers,omitempty"`
	TriggeringConditions []ConditionDef `json:"triggering_conditions,omitempty"`
	Choices              []ChoiceDef    `json:"choices"`
}

// EditingTier is one post-production editing option.
type EditingTier struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	BaseQualityModifier float64            `json:"base_quality_modifier,omitempty"`
	SynergyMods         map[string]float64 `json:"synergy_mods,omitempty"`
	Weeks               int                `json:"weeks,omitempty"`
	Cost                int                `json:"cost,omitempty"`
}
