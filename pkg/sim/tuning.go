package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every numeric constant the simulation references. Values
// load from tuning.yaml over these defaults so balance changes never
// require a code change.
type Tuning struct {
	Outcome      OutcomeTuning      `yaml:"outcome"`
	Quality      QualityTuning      `yaml:"quality"`
	Revenue      RevenueTuning      `yaml:"revenue"`
	Availability AvailabilityTuning `yaml:"availability"`
	Events       EventTuning        `yaml:"events"`
	Chemistry    ChemistryTuning    `yaml:"chemistry"`
	Demand       DemandTuning       `yaml:"demand"`
	Weekly       WeeklyTuning       `yaml:"weekly"`
}

// OutcomeTuning covers stamina, fatigue and skill progression.
type OutcomeTuning struct {
	StaminaToPoolMultiplier float64 `yaml:"stamina_to_pool_multiplier"`
	BaseFatigueWeeks        int     `yaml:"base_fatigue_weeks"`

	SkillGainBaseRate float64 `yaml:"skill_gain_base_rate"`
	MedianAmbition    float64 `yaml:"median_ambition"`
	AmbitionScalar    float64 `yaml:"ambition_scalar"`

	PerformanceCap float64 `yaml:"performance_cap"`
	ActingCap      float64 `yaml:"acting_cap"`
	StaminaCap     float64 `yaml:"stamina_cap"`
	DomSubCap      float64 `yaml:"dom_sub_cap"`
	ExperienceCap  float64 `yaml:"experience_cap"`

	DomSubGainBaseRate  float64         `yaml:"dom_sub_gain_base_rate"`
	DomSubLevelMultiple map[int]float64 `yaml:"dom_sub_level_multipliers"`

	ExperienceGainBase        float64 `yaml:"experience_gain_base"`
	ExperienceRuntimeMultiple float64 `yaml:"experience_runtime_multiplier"`
}

// QualityTuning covers the scene quality calculator.
type QualityTuning struct {
	ActingWeightBase float64 `yaml:"acting_weight_base"`
	ActingWeightMin  float64 `yaml:"acting_weight_min"`
	ActingWeightMax  float64 `yaml:"acting_weight_max"`

	FatiguePenaltyScalar  float64 `yaml:"fatigue_penalty_scalar"`
	InScenePenaltyScalar  float64 `yaml:"in_scene_penalty_scalar"`
	MinPerformanceFloor   float64 `yaml:"min_performance_floor"`
	BaseChemistryScalar   float64 `yaml:"base_chemistry_scalar"`
	ProtagonistWeight     float64 `yaml:"protagonist_weight"`
	AutoTagDefaultQuality float64 `yaml:"auto_tag_default_quality"`

	// DomSubWeights maps dynamic level to the dom/sub blend weight.
	DomSubWeights map[int]float64 `yaml:"dom_sub_weights"`
}

// PenaltyTuning is one scene-shape penalty's configuration. MinRuntime
// exempts scenes too short for the penalty to make sense.
type PenaltyTuning struct {
	Enabled    bool    `yaml:"enabled"`
	Threshold  float64 `yaml:"threshold"`
	Max        float64 `yaml:"max"`
	MinRuntime float64 `yaml:"min_runtime_minutes"`
	FloorMult  float64 `yaml:"floor_multiplier"`
}

// RevenueTuning covers the release-time revenue calculator.
type RevenueTuning struct {
	BaseReleaseRevenue   float64 `yaml:"base_release_revenue"`
	DefaultFocusedWeight float64 `yaml:"default_focused_weight"`
	DefaultAppealWeight  float64 `yaml:"default_appeal_weight"`
	DefaultAutoWeight    float64 `yaml:"default_auto_weight"`

	StarPowerScalar       float64 `yaml:"star_power_scalar"`
	FocusTargetBonus      float64 `yaml:"focus_target_bonus"`
	SaturationSpendScalar float64 `yaml:"saturation_spend_scalar"`

	ShortScene  PenaltyTuning `yaml:"short_scene_penalty"`
	Monotony    PenaltyTuning `yaml:"monotony_penalty"`
	Overstuffed PenaltyTuning `yaml:"overstuffed_penalty"`

	SentimentDiscoveryThreshold float64 `yaml:"sentiment_discovery_threshold"`
}

// AvailabilityTuning covers the casting eligibility checks.
type AvailabilityTuning struct {
	RefusalThreshold            float64 `yaml:"refusal_threshold"`
	OrientationRefusalThreshold float64 `yaml:"orientation_refusal_threshold"`
	DefaultConcurrencyLimit     int     `yaml:"default_concurrency_limit"`
	SnobberyPopularityScalar    float64 `yaml:"snobbery_popularity_scalar"`
	SnobberyAmbitionScalar      float64 `yaml:"snobbery_ambition_scalar"`
}

// EventTuning covers interactive event triggering.
type EventTuning struct {
	BaseBadChance     float64 `yaml:"base_bad_chance"`
	BaseGoodChance    float64 `yaml:"base_good_chance"`
	PolicyEventChance float64 `yaml:"policy_event_chance"`
}

// ChemistryTuning covers pair chemistry discovery.
type ChemistryTuning struct {
	// DiscoveryScores and DiscoveryWeights are parallel: a new pair rolls
	// one of the scores with the matching weight.
	DiscoveryScores  []int     `yaml:"discovery_scores"`
	DiscoveryWeights []float64 `yaml:"discovery_weights"`
}

// DemandTuning covers the hiring demand calculator.
type DemandTuning struct {
	BaseDemand         float64 `yaml:"base_demand"`
	PerformanceScalar  float64 `yaml:"performance_scalar"`
	AmbitionScalar     float64 `yaml:"ambition_scalar"`
	PopularityScalar   float64 `yaml:"popularity_scalar"`
	MinimumDemand      float64 `yaml:"minimum_demand"`
	PreferenceSoftener float64 `yaml:"preference_softener"`
}

// WeeklyTuning covers the between-shoot weekly update pass.
type WeeklyTuning struct {
	FatigueRecoveryPerWeek   float64 `yaml:"fatigue_recovery_per_week"`
	PopularityDecayPerWeek   float64 `yaml:"popularity_decay_per_week"`
	PopularityGainScalar     float64 `yaml:"popularity_gain_scalar"`
	PopularityGainExponent   float64 `yaml:"popularity_gain_exponent"`
	SaturationRecoveryRate   float64 `yaml:"saturation_recovery_rate"`
	WeeksPerYear             int     `yaml:"weeks_per_year"`
	AffinityRecalcAgePivot   int     `yaml:"affinity_recalc_age_pivot"`
	AffinityDecayPerYearPast float64 `yaml:"affinity_decay_per_year_past"`
}

// DefaultTuning returns the baseline constants.
func DefaultTuning() Tuning {
	return Tuning{
		Outcome: OutcomeTuning{
			StaminaToPoolMultiplier:   5.0,
			BaseFatigueWeeks:          2,
			SkillGainBaseRate:         0.02,
			MedianAmbition:            5.0,
			AmbitionScalar:            0.05,
			PerformanceCap:            100,
			ActingCap:                 100,
			StaminaCap:                100,
			DomSubCap:                 100,
			ExperienceCap:             100,
			DomSubGainBaseRate:        0.03,
			DomSubLevelMultiple:       map[int]float64{1: 0.5, 2: 1.0, 3: 1.5},
			ExperienceGainBase:        0.5,
			ExperienceRuntimeMultiple: 0.05,
		},
		Quality: QualityTuning{
			ActingWeightBase:      0.5,
			ActingWeightMin:       0.2,
			ActingWeightMax:       0.8,
			FatiguePenaltyScalar:  0.5,
			InScenePenaltyScalar:  0.5,
			MinPerformanceFloor:   0.1,
			BaseChemistryScalar:   0.01,
			ProtagonistWeight:     1.25,
			AutoTagDefaultQuality: 100,
			DomSubWeights:         map[int]float64{0: 0, 1: 0.2, 2: 0.4, 3: 0.7},
		},
		Revenue: RevenueTuning{
			BaseReleaseRevenue:    50000,
			DefaultFocusedWeight:  5.0,
			DefaultAppealWeight:   10.0,
			DefaultAutoWeight:     1.5,
			StarPowerScalar:       0.005,
			FocusTargetBonus:      1.2,
			SaturationSpendScalar: 0.1,
			ShortScene: PenaltyTuning{
				Enabled:   true,
				Threshold: 15, // minutes below which the penalty interpolates
				FloorMult: 0.5,
			},
			Monotony: PenaltyTuning{
				Enabled:    true,
				Threshold:  1.0, // unique concepts per 10 minutes
				MinRuntime: 40,
				FloorMult:  0.7,
			},
			Overstuffed: PenaltyTuning{
				Enabled:    true,
				Threshold:  3.0,
				Max:        6.0,
				MinRuntime: 15,
				FloorMult:  0.6,
			},
			SentimentDiscoveryThreshold: 1.5,
		},
		Availability: AvailabilityTuning{
			RefusalThreshold:            0.3,
			OrientationRefusalThreshold: 0.05,
			DefaultConcurrencyLimit:     1,
			SnobberyPopularityScalar:    0.1,
			SnobberyAmbitionScalar:      3.0,
		},
		Events: EventTuning{
			BaseBadChance:     0.10,
			BaseGoodChance:    0.05,
			PolicyEventChance: 0.15,
		},
		Chemistry: ChemistryTuning{
			DiscoveryScores:  []int{-2, -1, 0, 1, 2},
			DiscoveryWeights: []float64{1, 2, 4, 2, 1},
		},
		Demand: DemandTuning{
			BaseDemand:         100,
			PerformanceScalar:  0.01,
			AmbitionScalar:     0.05,
			PopularityScalar:   0.005,
			MinimumDemand:      50,
			PreferenceSoftener: 0.5,
		},
		Weekly: WeeklyTuning{
			FatigueRecoveryPerWeek:   25,
			PopularityDecayPerWeek:   0.25,
			PopularityGainScalar:     2.0,
			PopularityGainExponent:   1.5,
			SaturationRecoveryRate:   0.2,
			WeeksPerYear:             52,
			AffinityRecalcAgePivot:   30,
			AffinityDecayPerYearPast: 1.0,
		},
	}
}

// LoadTuning reads a tuning.yaml over the defaults. A missing path returns
// the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("reading tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing tuning file: %w", err)
	}
	return t, nil
}
