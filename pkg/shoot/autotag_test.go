package shoot

import (
	"reflect"
	"testing"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

func intPtr(v int) *int { return &v }

func autotagLibrary() *tags.Library {
	return &tags.Library{
		Tags: map[string]tags.Definition{
			"Age Gap": {
				Name:           "Age Gap",
				Type:           tags.TypePhysical,
				IsAutoTaggable: true,
				ValidationRule: &tags.ValidationRule{
					MinGapYears: 10,
					Profiles: []tags.Profile{
						{Role: "older", MinAge: intPtr(30)},
						{Role: "younger", MaxAge: intPtr(25)},
					},
				},
			},
			"Interracial": {
				Name:           "Interracial",
				Type:           tags.TypePhysical,
				IsAutoTaggable: true,
				ValidationRule: &tags.ValidationRule{
					Profiles: []tags.Profile{
						{Ethnicity: "White"},
						{Ethnicity: "Black"},
					},
				},
			},
			"Hung": {
				Name:           "Hung",
				Type:           tags.TypePhysical,
				IsAutoTaggable: true,
				AutoDetectionRule: &tags.DetectionRule{
					Conditions: []tags.AttrCondition{
						{Type: "physical", Key: "dick_size", Comparison: "gte", Value: 8},
					},
				},
			},
			"Veteran": {
				Name:           "Veteran",
				Type:           tags.TypePhysical,
				IsAutoTaggable: true,
				AutoDetectionRule: &tags.DetectionRule{
					Conditions: []tags.AttrCondition{
						{Type: "stat", Key: "experience", Comparison: "gte", Value: 80},
						{Type: "physical", Key: "gender", Values: []string{"Female"}},
					},
				},
			},
			"Not Taggable": {
				Name: "Not Taggable",
				Type: tags.TypePhysical,
				ValidationRule: &tags.ValidationRule{
					Profiles: []tags.Profile{{}},
				},
			},
		},
	}
}

func castScene(talentIDs ...int64) (*sim.Scene, map[int64]int64) {
	fc := make(map[int64]int64, len(talentIDs))
	for i, id := range talentIDs {
		fc[int64(i+1)] = id
	}
	return &sim.Scene{ID: 1, FinalCast: fc}, fc
}

func TestAutoTagAnalyzer_Discover(t *testing.T) {
	analyzer := NewAutoTagAnalyzer(autotagLibrary(), testLogger())

	tests := []struct {
		name string
		cast map[int64]*sim.Talent
		want []string
	}{
		{
			name: "age gap satisfied",
			cast: map[int64]*sim.Talent{
				10: {ID: 10, Age: 45},
				20: {ID: 20, Age: 22},
			},
			want: []string{"Age Gap"},
		},
		{
			name: "gap too small",
			cast: map[int64]*sim.Talent{
				10: {ID: 10, Age: 31},
				20: {ID: 20, Age: 24},
			},
			want: nil,
		},
		{
			name: "profiles need distinct performers",
			cast: map[int64]*sim.Talent{
				10: {ID: 10, Ethnicity: "White"},
			},
			want: nil,
		},
		{
			name: "composition and detection together",
			cast: map[int64]*sim.Talent{
				10: {ID: 10, Ethnicity: "White", PhysicalAttributes: map[string]float64{"dick_size": 9}},
				20: {ID: 20, Ethnicity: "Black"},
			},
			want: []string{"Hung", "Interracial"},
		},
		{
			name: "detection conditions are conjunctive",
			cast: map[int64]*sim.Talent{
				10: {ID: 10, Gender: "Male", Experience: 90},
			},
			want: nil,
		},
		{
			name: "all detection conditions met",
			cast: map[int64]*sim.Talent{
				10: {ID: 10, Gender: "Female", Experience: 90},
			},
			want: []string{"Veteran"},
		},
		{
			name: "empty cast discovers nothing",
			cast: map[int64]*sim.Talent{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]int64, 0, len(tt.cast))
			for id := range tt.cast {
				ids = append(ids, id)
			}
			scene, _ := castScene(ids...)

			got := analyzer.Discover(scene, tt.cast)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Discover = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAutoTagAnalyzer_IgnoresNonAutoTaggable(t *testing.T) {
	analyzer := NewAutoTagAnalyzer(autotagLibrary(), testLogger())
	scene, _ := castScene(10)
	cast := map[int64]*sim.Talent{10: {ID: 10}}

	for _, tag := range analyzer.Discover(scene, cast) {
		if tag == "Not Taggable" {
			t.Error("tag without is_auto_taggable should never be discovered")
		}
	}
}

func TestAutoTagAnalyzer_UnknownConditionFailsClosed(t *testing.T) {
	lib := &tags.Library{
		Tags: map[string]tags.Definition{
			"Mystery": {
				Name:           "Mystery",
				IsAutoTaggable: true,
				AutoDetectionRule: &tags.DetectionRule{
					Conditions: []tags.AttrCondition{{Type: "horoscope", Key: "sign"}},
				},
			},
		},
	}
	analyzer := NewAutoTagAnalyzer(lib, testLogger())
	scene, _ := castScene(10)

	got := analyzer.Discover(scene, map[int64]*sim.Talent{10: {ID: 10}})
	if len(got) != 0 {
		t.Errorf("unknown condition type should fail closed, got %v", got)
	}
}
