package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

func main() {
	dir := "./data"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	} else if env := os.Getenv("DATA_DIR"); env != "" {
		dir = env
	}

	validator := &ContentValidator{}
	if err := validator.validateDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Content pack is valid!")
}

type ContentValidator struct {
	errors []string
}

func (v *ContentValidator) validateDir(dir string) error {
	fmt.Printf("Validating %s...\n", dir)

	lib, err := tags.Load(dir)
	if err != nil {
		return fmt.Errorf("loading content files: %w", err)
	}
	if _, err := market.Load(dir); err != nil {
		return fmt.Errorf("loading market groups: %w", err)
	}
	if path := os.Getenv("TUNING_PATH"); path != "" {
		if _, err := sim.LoadTuning(path); err != nil {
			return fmt.Errorf("loading tuning: %w", err)
		}
	}

	v.errors = nil
	v.validateLibrary(lib)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", dir, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateLibrary runs the cross-reference checks the schemas cannot
// express: ids referenced from one file must exist in another.
func (v *ContentValidator) validateLibrary(lib *tags.Library) {
	for fullName, def := range lib.Tags {
		v.validateTag(fullName, def)
	}
	for id, event := range lib.Events {
		v.validateEvent(lib, id, event)
	}
	for _, tier := range lib.EditingTiers {
		if tier.Weeks < 0 {
			v.addError(fmt.Sprintf("editing tier %q has negative weeks", tier.ID))
		}
	}
}

func (v *ContentValidator) validateTag(fullName string, def tags.Definition) {
	if def.IsTemplate && len(def.Slots) == 0 {
		v.addError(fmt.Sprintf("template tag %q defines no slots", fullName))
	}
	for _, slot := range def.Slots {
		if slot.Count == 0 && slot.ParameterizedBy == "" {
			v.addError(fmt.Sprintf("tag %q slot %q has neither count nor parameterized_by", fullName, slot.Role))
		}
	}
	if def.ValidationRule != nil && len(def.ValidationRule.Profiles) == 0 {
		v.addError(fmt.Sprintf("tag %q validation_rule has no profiles", fullName))
	}
	if def.Type == tags.TypePhysical && def.IsAutoTaggable &&
		def.ValidationRule == nil && def.AutoDetectionRule == nil {
		v.addError(fmt.Sprintf("auto-taggable tag %q has no validation or detection rule", fullName))
	}
}

func (v *ContentValidator) validateEvent(lib *tags.Library, id string, event tags.EventDef) {
	if len(event.Choices) == 0 {
		v.addError(fmt.Sprintf("event %q has no choices", id))
	}
	if event.Type != "good" && event.Type != "bad" {
		v.addError(fmt.Sprintf("event %q has unknown type %q", id, event.Type))
	}
	seen := make(map[string]bool, len(event.Choices))
	for _, choice := range event.Choices {
		if seen[choice.ID] {
			v.addError(fmt.Sprintf("event %q has duplicate choice id %q", id, choice.ID))
		}
		seen[choice.ID] = true
		v.validateEffects(lib, id, choice.Effects)
	}
	for _, cond := range event.TriggeringConditions {
		v.validateCondition(lib, id, cond)
	}
}

func (v *ContentValidator) validateEffects(lib *tags.Library, eventID string, effects []tags.EffectDef) {
	for _, effect := range effects {
		switch effect.Type {
		case "trigger_event":
			if _, ok := lib.Event(effect.EventID); !ok {
				v.addError(fmt.Sprintf("event %q triggers unknown event %q", eventID, effect.EventID))
			}
		case "random_outcome":
			if len(effect.Outcomes) == 0 {
				v.addError(fmt.Sprintf("event %q has a random_outcome with no outcomes", eventID))
			}
			for _, outcome := range effect.Outcomes {
				v.validateEffects(lib, eventID, outcome.Effects)
			}
		case "modify_performer_contribution_random":
			if effect.MinMod != nil && effect.MaxMod != nil && *effect.MinMod > *effect.MaxMod {
				v.addError(fmt.Sprintf("event %q has min_mod above max_mod", eventID))
			}
		}
	}
}

func (v *ContentValidator) validateCondition(lib *tags.Library, eventID string, cond tags.ConditionDef) {
	switch cond.Type {
	case "policy_active", "policy_inactive":
		if _, ok := lib.Policies[cond.ID]; !ok {
			v.addError(fmt.Sprintf("event %q references unknown policy %q", eventID, cond.ID))
		}
	case "has_production_tier", "not_has_production_tier":
		if _, ok := lib.Tier(cond.Category, cond.TierName); !ok {
			v.addError(fmt.Sprintf("event %q references unknown production tier %s/%s", eventID, cond.Category, cond.TierName))
		}
	}
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}
