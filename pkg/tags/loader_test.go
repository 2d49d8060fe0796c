package tags

import (
	"os"
	"path/filepath"
	"testing"
)

const validTags = `{
  "tags": [
    {"name": "Solo", "type": "Action", "orientation": "Straight"},
    {"name": "Group Scene", "type": "Action", "orientation": "Straight", "is_template": true,
     "slots": [{"role": "Giver", "parameterized_by": "count"}, {"role": "Receiver", "count": 1}]},
    {"name": "Blonde", "type": "Physical", "full_name": "Blonde"}
  ]
}`

const validProduction = `{
  "Set Design": [
    {"tier_name": "Budget", "quality_modifier": 0.9, "is_low_tier": true},
    {"tier_name": "Premium", "quality_modifier": 1.2}
  ]
}`

const validPolicies = `{
  "policies": [
    {"id": "on_set_security", "name": "On-Set Security", "cost_per_scene": 500}
  ]
}`

const validEvents = `{
  "events": [
    {"id": "equipment_failure", "category": "Technical", "type": "bad",
     "choices": [{"id": "pay", "label": "Pay for repairs"}]}
  ]
}`

const validPostProduction = `{
  "editing_tiers": [
    {"id": "standard", "name": "Standard Cut", "base_quality_modifier": 1.0, "weeks": 1}
  ]
}`

func writeContentDir(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		TagsFile:               validTags,
		ProductionSettingsFile: validProduction,
		PoliciesFile:           validPolicies,
		EventsFile:             validEvents,
		PostProductionFile:     validPostProduction,
	}
	for name, content := range overrides {
		files[name] = content
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	lib, err := Load(writeContentDir(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := lib.Tag("Solo (Straight)"); !ok {
		t.Error("full name should default to base (orientation)")
	}
	if _, ok := lib.Tag("Blonde"); !ok {
		t.Error("explicit full_name should be the key")
	}

	def, ok := lib.Tag("Group Scene (Straight)")
	if !ok {
		t.Fatal("template tag missing")
	}
	if !def.IsTemplate || len(def.Slots) != 2 {
		t.Errorf("template tag not decoded: %+v", def)
	}

	if tier, ok := lib.Tier("Set Design", "Budget"); !ok || !tier.IsLowTier {
		t.Errorf("tier lookup failed: %+v, %v", tier, ok)
	}
	if _, ok := lib.Tier("Set Design", "Nonexistent"); ok {
		t.Error("expected miss for unknown tier")
	}

	if lib.PolicyName("on_set_security") != "On-Set Security" {
		t.Error("policy name lookup failed")
	}
	if lib.PolicyName("unknown") != "unknown" {
		t.Error("unknown policy should fall back to id")
	}

	if _, ok := lib.Event("equipment_failure"); !ok {
		t.Error("event missing")
	}
	if _, ok := lib.EditingTier("standard"); !ok {
		t.Error("editing tier missing")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{
			name:      "missing tags file",
			overrides: nil, // handled below by deleting the file
		},
		{
			name: "tag missing required type",
			overrides: map[string]string{
				TagsFile: `{"tags": [{"name": "Solo"}]}`,
			},
		},
		{
			name: "tag with invalid type",
			overrides: map[string]string{
				TagsFile: `{"tags": [{"name": "Solo", "type": "Mystery"}]}`,
			},
		},
		{
			name: "duplicate tag",
			overrides: map[string]string{
				TagsFile: `{"tags": [
					{"name": "Solo", "type": "Action"},
					{"name": "Solo", "type": "Action"}
				]}`,
			},
		},
		{
			name: "event without choices",
			overrides: map[string]string{
				EventsFile: `{"events": [{"id": "x", "category": "Technical", "type": "bad", "choices": []}]}`,
			},
		},
		{
			name: "duplicate event",
			overrides: map[string]string{
				EventsFile: `{"events": [
					{"id": "x", "category": "Technical", "type": "bad", "choices": [{"id": "a", "label": "A"}]},
					{"id": "x", "category": "Technical", "type": "bad", "choices": [{"id": "a", "label": "A"}]}
				]}`,
			},
		},
		{
			name: "malformed json",
			overrides: map[string]string{
				ProductionSettingsFile: `{"Set Design": [`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeContentDir(t, tt.overrides)
			if tt.name == "missing tags file" {
				if err := os.Remove(filepath.Join(dir, TagsFile)); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := Load(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_LenientUnknownFields(t *testing.T) {
	dir := writeContentDir(t, map[string]string{
		PoliciesFile: `{"policies": [{"id": "p1", "name": "P1", "author_note": "balance pass 3"}]}`,
	})
	lib, err := Load(dir)
	if err != nil {
		t.Fatalf("authoring metadata should not fail the load: %v", err)
	}
	if _, ok := lib.Policies["p1"]; !ok {
		t.Error("policy missing")
	}
}

func TestFullName(t *testing.T) {
	if got := FullName("Solo", "Straight"); got != "Solo (Straight)" {
		t.Errorf("got %q", got)
	}
	if got := FullName("Blonde", ""); got != "Blonde" {
		t.Errorf("got %q", got)
	}
}
