package release

import (
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

func testLogger() *slog.Logger {
	// Reduce noise in tests
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func releaseLibrary() *tags.Library {
	return &tags.Library{
		Tags: map[string]tags.Definition{
			"Solo":  {Name: "Solo", Type: tags.TypeAction, Concept: "Solo"},
			"Dance": {Name: "Dance", Type: tags.TypeAction, Concept: "Dance"},
			"Group Scene (Straight)": {
				Name:        "Group Scene",
				Type:        tags.TypeAction,
				Concept:     "Group Scene",
				Orientation: "Straight",
			},
			"Double Penetration (Straight)": {
				Name:        "Double Penetration",
				Type:        tags.TypeAction,
				Concept:     "Group Scene",
				Orientation: "Straight",
			},
			"Romance": {Name: "Romance", Type: tags.TypeThematic},
			"Blonde":  {Name: "Blonde", Type: tags.TypePhysical},
		},
	}
}

func neutralResolver(t *testing.T, prefs market.Preferences) *market.Resolver {
	t.Helper()
	r, err := market.NewResolver(map[string]market.Group{
		"Mainstream": {
			Name:               "Mainstream",
			MarketSharePercent: 100,
			SpendingPower:      1.0,
			Preferences:        prefs,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func newRevenueCalc(t *testing.T, prefs market.Preferences) *RevenueCalculator {
	t.Helper()
	return NewRevenueCalculator(releaseLibrary(), neutralResolver(t, prefs), sim.DefaultTuning().Revenue, testLogger())
}

// twoSegmentScene has two distinct concepts over 20 minutes, which keeps
// every shape penalty quiet.
func twoSegmentScene(quality float64) *sim.Scene {
	return &sim.Scene{
		ID:                  1,
		Status:              sim.StatusReadyToRelease,
		TotalRuntimeMinutes: 20,
		Segments: []sim.ActionSegment{
			{TagName: "Solo", RuntimePercentage: 50},
			{TagName: "Dance", RuntimePercentage: 50},
		},
		TagQualities: map[string]float64{"Solo": quality, "Dance": quality},
	}
}

func TestRevenue_BaselineInterest(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	scene := twoSegmentScene(50)

	result := calc.Revenue(scene, nil, nil)

	// equal weights, neutral sentiment: interest is quality/100
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("interest = %v, want 0.5", got)
	}
	if result.TotalRevenue != 25000 {
		t.Errorf("revenue = %d, want 25000", result.TotalRevenue)
	}
	if len(result.ModifierDetails) != 0 {
		t.Errorf("unexpected penalties: %v", result.ModifierDetails)
	}
}

func TestRevenue_SentimentScalesContent(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{
		ActionSentiments: map[string]float64{"Solo": 2.0},
	})
	scene := twoSegmentScene(50)

	result := calc.Revenue(scene, nil, nil)
	// Solo half doubles, Dance half stays neutral
	want := 0.5*2.0*0.5 + 0.5*1.0*0.5
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("interest = %v, want %v", got, want)
	}
}

func TestRevenue_ThematicTagsAddFlatInterest(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{
		ThematicSentiments: map[string]float64{"Romance": 0.4},
	})
	scene := twoSegmentScene(50)
	scene.GlobalTags = []string{"Romance"}

	result := calc.Revenue(scene, nil, nil)
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-0.9) > 1e-9 {
		t.Errorf("interest = %v, want 0.9", got)
	}
}

func TestRevenue_OrientationAndScaling(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{
		ActionSentiments:      map[string]float64{"Group Scene": 1.0},
		OrientationSentiments: map[string]float64{"Straight": 0.5},
		ScalingSentiments: map[string]market.ScalingRule{
			"Group Scene": {Threshold: 2, BonusPerUnit: 0.5},
		},
	})
	scene := &sim.Scene{
		ID:                  2,
		TotalRuntimeMinutes: 20,
		Segments: []sim.ActionSegment{
			{TagName: "Solo", RuntimePercentage: 50},
			{
				TagName:           "Group Scene (Straight)",
				RuntimePercentage: 50,
				Parameters:        map[string]int{"Giver": 3, "Receiver": 1},
			},
		},
		TagQualities: map[string]float64{"Solo": 50, "Group Scene (Straight)": 50},
	}

	result := calc.Revenue(scene, nil, nil)
	// group segment sentiment: 1.0 * 0.5 orientation * (1 + 2*0.5) scaling
	want := 0.5*1.0*0.5 + 0.5*(0.5*2.0)*0.5
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("interest = %v, want %v", got, want)
	}
}

func TestRevenue_StarPowerAndFocus(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	scene := twoSegmentScene(50)
	scene.FocusedMarketGroup = "Mainstream"
	cast := map[int64]*sim.Talent{
		10: {ID: 10, Popularity: map[string]float64{"Mainstream": 60}},
		20: {ID: 20, Popularity: map[string]float64{"Mainstream": 20}},
	}

	result := calc.Revenue(scene, cast, nil)
	// avg popularity 40 -> x1.2 star power, x1.2 focus bonus
	want := 0.5 * 1.2 * 1.2
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("interest = %v, want %v", got, want)
	}
}

func TestRevenue_SaturationSpend(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	scene := twoSegmentScene(50)
	states := map[string]*market.GroupState{
		"Mainstream": {Name: "Mainstream", CurrentSaturation: 0.5},
	}

	result := calc.Revenue(scene, nil, states)
	if result.TotalRevenue != 12500 {
		t.Errorf("saturated revenue = %d, want 12500", result.TotalRevenue)
	}
	// 0.5 - 0.5*0.1, spent off the top rather than scaled
	want := 0.5 - 0.05
	if got := result.SaturationUpdates["Mainstream"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("saturation update = %v, want %v", got, want)
	}
}

func TestRevenue_SaturationSpendClampsAtZero(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{
		ActionSentiments: map[string]float64{"Solo": 4.0, "Dance": 4.0},
	})
	states := map[string]*market.GroupState{
		"Mainstream": {Name: "Mainstream", CurrentSaturation: 0.2},
	}

	result := calc.Revenue(twoSegmentScene(100), nil, states)
	if got := result.SaturationUpdates["Mainstream"]; got != 0 {
		t.Errorf("saturation update = %v, want 0", got)
	}
}

func TestRevenue_HostileGroupStaysHome(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{
		ThematicSentiments: map[string]float64{"Romance": -3},
	})
	scene := twoSegmentScene(50)
	scene.GlobalTags = []string{"Romance"}
	states := map[string]*market.GroupState{
		"Mainstream": {Name: "Mainstream", CurrentSaturation: 0.5},
	}

	result := calc.Revenue(scene, nil, states)
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-(-2.5)) > 1e-9 {
		t.Errorf("interest = %v, want -2.5", got)
	}
	// No revenue drain and no saturation movement from a group that
	// would not watch.
	if result.TotalRevenue != 0 {
		t.Errorf("revenue = %d, want 0", result.TotalRevenue)
	}
	if _, ok := result.SaturationUpdates["Mainstream"]; ok {
		t.Errorf("unexpected saturation update: %v", result.SaturationUpdates)
	}
}

func TestRevenue_SentimentDiscovery(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{
		ActionSentiments: map[string]float64{"Solo": 4.0, "Dance": 4.0},
	})
	scene := twoSegmentScene(100)
	scene.GlobalTags = []string{"Romance"}
	states := map[string]*market.GroupState{
		"Mainstream": {Name: "Mainstream", CurrentSaturation: 1, DiscoveredSentiments: []string{"content:Dance"}},
	}

	result := calc.Revenue(scene, nil, states)
	if result.ViewerGroupInterest["Mainstream"] < 1.5 {
		t.Fatalf("fixture should cross the discovery threshold, interest = %v",
			result.ViewerGroupInterest["Mainstream"])
	}
	got := result.DiscoveredSentiments["Mainstream"]
	want := []string{"content:Solo", "thematic:Romance"}
	if len(got) != len(want) {
		t.Fatalf("discoveries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("discoveries = %v, want %v", got, want)
		}
	}
}

func TestRevenue_NoDiscoveryBelowThreshold(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	result := calc.Revenue(twoSegmentScene(50), nil, nil)
	if len(result.DiscoveredSentiments) != 0 {
		t.Errorf("unexpected discoveries: %v", result.DiscoveredSentiments)
	}
}

func TestRevenue_ShapePenalties(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})

	tests := []struct {
		name    string
		scene   *sim.Scene
		penalty string
	}{
		{
			name: "short scene",
			scene: &sim.Scene{
				ID:                  3,
				TotalRuntimeMinutes: 10,
				Segments:            []sim.ActionSegment{{TagName: "Solo", RuntimePercentage: 100}},
				TagQualities:        map[string]float64{"Solo": 50},
			},
			penalty: "short scene penalty",
		},
		{
			name: "monotony",
			scene: &sim.Scene{
				ID:                  4,
				TotalRuntimeMinutes: 50,
				Segments:            []sim.ActionSegment{{TagName: "Solo", RuntimePercentage: 100}},
				TagQualities:        map[string]float64{"Solo": 50},
			},
			penalty: "monotony penalty",
		},
		{
			name: "overstuffed",
			scene: &sim.Scene{
				ID:                  5,
				TotalRuntimeMinutes: 20,
				Segments: []sim.ActionSegment{
					{TagName: "a", RuntimePercentage: 12},
					{TagName: "b", RuntimePercentage: 12},
					{TagName: "c", RuntimePercentage: 12},
					{TagName: "d", RuntimePercentage: 13},
					{TagName: "e", RuntimePercentage: 13},
					{TagName: "f", RuntimePercentage: 13},
					{TagName: "g", RuntimePercentage: 12},
					{TagName: "h", RuntimePercentage: 13},
				},
			},
			penalty: "overstuffed penalty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calc.Revenue(tt.scene, nil, nil)
			found := false
			for _, d := range result.ModifierDetails {
				if strings.Contains(d, tt.penalty) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %q in modifier details, got %v", tt.penalty, result.ModifierDetails)
			}
		})
	}
}

// Short scenes are exempt from the density penalties regardless of how
// monotonous or crowded they look.
func TestRevenue_PenaltyRuntimeGates(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})

	t.Run("brief single-concept scene is not monotonous", func(t *testing.T) {
		scene := &sim.Scene{
			ID:                  7,
			TotalRuntimeMinutes: 20,
			Segments:            []sim.ActionSegment{{TagName: "Solo", RuntimePercentage: 100}},
			TagQualities:        map[string]float64{"Solo": 50},
		}
		result := calc.Revenue(scene, nil, nil)
		if len(result.ModifierDetails) != 0 {
			t.Errorf("unexpected penalties: %v", result.ModifierDetails)
		}
	})

	t.Run("tiny scene is not overstuffed", func(t *testing.T) {
		scene := &sim.Scene{
			ID:                  8,
			TotalRuntimeMinutes: 10,
			Segments: []sim.ActionSegment{
				{TagName: "a", RuntimePercentage: 12},
				{TagName: "b", RuntimePercentage: 12},
				{TagName: "c", RuntimePercentage: 12},
				{TagName: "d", RuntimePercentage: 13},
				{TagName: "e", RuntimePercentage: 13},
				{TagName: "f", RuntimePercentage: 13},
				{TagName: "g", RuntimePercentage: 12},
				{TagName: "h", RuntimePercentage: 13},
			},
		}
		result := calc.Revenue(scene, nil, nil)
		for _, d := range result.ModifierDetails {
			if strings.Contains(d, "overstuffed") {
				t.Errorf("unexpected overstuffed penalty: %v", result.ModifierDetails)
			}
		}
	})
}

func TestRevenue_OverstuffedCountsSceneWideConcepts(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	// Four action concepts over 20 minutes stay under the density
	// threshold; the global and focused tags push the scene over it.
	scene := &sim.Scene{
		ID:                  9,
		TotalRuntimeMinutes: 20,
		Segments: []sim.ActionSegment{
			{TagName: "a", RuntimePercentage: 25},
			{TagName: "b", RuntimePercentage: 25},
			{TagName: "c", RuntimePercentage: 25},
			{TagName: "d", RuntimePercentage: 25},
		},
		GlobalTags:   []string{"Romance", "Gritty"},
		AssignedTags: map[string][]int64{"Blonde": {1}},
	}

	result := calc.Revenue(scene, nil, nil)
	found := false
	for _, d := range result.ModifierDetails {
		if strings.Contains(d, "overstuffed penalty") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an overstuffed penalty, got %v", result.ModifierDetails)
	}
}

func TestRevenue_ScalingRuleKeyFallbacks(t *testing.T) {
	scalingScene := func(tag string) *sim.Scene {
		return &sim.Scene{
			ID:                  10,
			TotalRuntimeMinutes: 20,
			Segments: []sim.ActionSegment{
				{TagName: "Solo", RuntimePercentage: 50},
				{
					TagName:           tag,
					RuntimePercentage: 50,
					Parameters:        map[string]int{"Giver": 3, "Receiver": 1},
				},
			},
			TagQualities: map[string]float64{"Solo": 50, tag: 50},
		}
	}

	tests := []struct {
		name    string
		tag     string
		ruleKey string
	}{
		{name: "full tag name", tag: "Group Scene (Straight)", ruleKey: "Group Scene (Straight)"},
		{name: "base name", tag: "Group Scene (Straight)", ruleKey: "Group Scene"},
		{name: "concept", tag: "Double Penetration (Straight)", ruleKey: "Group Scene"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newRevenueCalc(t, market.Preferences{
				ScalingSentiments: map[string]market.ScalingRule{
					tt.ruleKey: {Threshold: 2, BonusPerUnit: 0.5},
				},
			})
			result := calc.Revenue(scalingScene(tt.tag), nil, nil)
			// four participants, threshold 2: sentiment doubles on that half
			want := 0.5*1.0*0.5 + 0.5*2.0*0.5
			if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-want) > 1e-9 {
				t.Errorf("interest = %v, want %v", got, want)
			}
		})
	}
}

func TestRevenue_NoWeightedContent(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	scene := &sim.Scene{ID: 6, TotalRuntimeMinutes: 20}

	result := calc.Revenue(scene, nil, nil)
	if result.TotalRevenue != 0 {
		t.Errorf("revenue = %d, want 0", result.TotalRevenue)
	}
	if len(result.ModifierDetails) != 1 || !strings.Contains(result.ModifierDetails[0], "no revenue-weighted content") {
		t.Errorf("modifier details = %v", result.ModifierDetails)
	}
}

func TestRevenue_FocusedAndAutoTagWeights(t *testing.T) {
	calc := newRevenueCalc(t, market.Preferences{})
	scene := twoSegmentScene(0)
	scene.AssignedTags = map[string][]int64{"Blonde": {1}}
	scene.AutoTags = []string{"Blonde", "Petite"}
	scene.TagQualities = map[string]float64{"Blonde": 100, "Petite": 100, "Solo": 0, "Dance": 0}

	result := calc.Revenue(scene, nil, nil)
	// weights: focused Blonde 5, segments 5 each, auto Petite 1.5 (Blonde
	// already focused); total 16.5, interest = 5/16.5 + 1.5/16.5
	want := (5 + 1.5) / 16.5
	if got := result.ViewerGroupInterest["Mainstream"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("interest = %v, want %v", got, want)
	}
}
