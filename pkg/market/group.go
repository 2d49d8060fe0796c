// Package market models viewer groups: their preference trees with
// inheritance, per-group saturation state and sentiment discovery.
package market

import "strconv"

// ScalingRule adjusts appeal by participant count: above the threshold
// each extra participant adds BonusPerUnit, below it each missing one
// subtracts PenaltyPerUnit.
type ScalingRule struct {
	Threshold      int     `json:"threshold"`
	BonusPerUnit   float64 `json:"bonus_per_unit,omitempty"`
	PenaltyPerUnit float64 `json:"penalty_per_unit,omitempty"`
	MaxCount       int     `json:"max_count,omitempty"`
}

// Multiplier evaluates the rule for a participant count.
func (r ScalingRule) Multiplier(count int) float64 {
	if r.MaxCount > 0 && count > r.MaxCount {
		count = r.MaxCount
	}
	switch {
	case count > r.Threshold:
		return 1 + float64(count-r.Threshold)*r.BonusPerUnit
	case count < r.Threshold:
		m := 1 - float64(r.Threshold-count)*r.PenaltyPerUnit
		if m < 0 {
			return 0
		}
		return m
	}
	return 1
}

// Preferences is one group's sentiment tree. Dom/sub sentiments are keyed
// by dynamic level as a string ("0".."3") to match the content format.
type Preferences struct {
	ThematicSentiments    map[string]float64     `json:"thematic_sentiments,omitempty"`
	PhysicalSentiments    map[string]float64     `json:"physical_sentiments,omitempty"`
	ActionSentiments      map[string]float64     `json:"action_sentiments,omitempty"`
	OrientationSentiments map[string]float64     `json:"orientation_sentiments,omitempty"`
	ScalingSentiments     map[string]ScalingRule `json:"scaling_sentiments,omitempty"`
	DomSubSentiments      map[string]float64     `json:"dom_sub_sentiments,omitempty"`
}

// DomSubSentiment returns the sentiment for a dynamic level, 1.0 when the
// group has no opinion.
func (p Preferences) DomSubSentiment(level int) float64 {
	if v, ok := p.DomSubSentiments[strconv.Itoa(level)]; ok {
		return v
	}
	return 1
}

// Group is one static viewer-group definition.
type Group struct {
	Name               string      `json:"name"`
	InheritsFrom       string      `json:"inherits_from,omitempty"`
	MarketSharePercent float64     `json:"market_share_percent"`
	SpendingPower      float64     `json:"spending_power"`
	Preferences        Preferences `json:"preferences"`
}

// GroupState is the mutable runtime side of a group.
type GroupState struct {
	Name                 string   `json:"name"`
	CurrentSaturation    float64  `json:"current_saturation"`
	DiscoveredSentiments []string `json:"discovered_sentiments,omitempty"`
}

// RecoverSaturation moves saturation back toward 1 by the weekly rate.
func (s *GroupState) RecoverSaturation(rate float64) {
	s.CurrentSaturation += (1 - s.CurrentSaturation) * rate
	if s.CurrentSaturation > 1 {
		s.CurrentSaturation = 1
	}
}

// Discovered reports whether a sentiment key has been revealed.
func (s *GroupState) Discovered(key string) bool {
	for _, k := range s.DiscoveredSentiments {
		if k == key {
			return true
		}
	}
	return false
}

// Discover records a sentiment key, once.
func (s *GroupState) Discover(key string) bool {
	if s.Discovered(key) {
		return false
	}
	s.DiscoveredSentiments = append(s.DiscoveredSentiments, key)
	return true
}
