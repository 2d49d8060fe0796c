package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Content file names expected under the content directory.
const (
	TagsFile               = "tags.json"
	ProductionSettingsFile = "production_settings.json"
	PoliciesFile           = "policies.json"
	EventsFile             = "events.json"
	PostProductionFile     = "post_production.json"
)

const tagsSchema = `{
  "type": "object",
  "properties": {
    "tags": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "type"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"enum": ["Physical", "Action", "Thematic"]},
          "slots": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["role"],
              "properties": {"role": {"type": "string", "minLength": 1}}
            }
          }
        }
      }
    }
  },
  "required": ["tags"]
}`

const eventsSchema = `{
  "type": "object",
  "properties": {
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "category", "type", "choices"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "type": {"enum": ["good", "bad"]},
          "choices": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id", "label"],
              "properties": {"id": {"type": "string", "minLength": 1}}
            }
          }
        }
      }
    }
  },
  "required": ["events"]
}`

const productionSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "array",
    "items": {
      "type": "object",
      "required": ["tier_name"],
      "properties": {"tier_name": {"type": "string", "minLength": 1}}
    }
  }
}`

// Load reads and validates all content files under dir and assembles the
// Library. Malformed content is rejected here, at load time, so the
// calculators never see partially valid definitions.
func Load(dir string) (*Library, error) {
	lib := &Library{
		Tags:               make(map[string]Definition),
		ProductionSettings: make(map[string][]TierDef),
		Policies:           make(map[string]PolicyDef),
		Events:             make(map[string]EventDef),
	}

	var tagDoc struct {
		Tags []Definition `json:"tags"`
	}
	if err := loadValidated(filepath.Join(dir, TagsFile), tagsSchema, &tagDoc); err != nil {
		return nil, fmt.Errorf("loading tag definitions: %w", err)
	}
	for _, d := range tagDoc.Tags {
		if d.FullName == "" {
			d.FullName = FullName(d.Name, d.Orientation)
		}
		if _, dup := lib.Tags[d.FullName]; dup {
			return nil, fmt.Errorf("duplicate tag definition %q", d.FullName)
		}
		lib.Tags[d.FullName] = d
	}

	if err := loadValidated(filepath.Join(dir, ProductionSettingsFile), productionSchema, &lib.ProductionSettings); err != nil {
		return nil, fmt.Errorf("loading production settings: %w", err)
	}

	var policyDoc struct {
		Policies []PolicyDef `json:"policies"`
	}
	if err := loadJSON(filepath.Join(dir, PoliciesFile), &policyDoc); err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}
	for _, p := range policyDoc.Policies {
		lib.Policies[p.ID] = p
	}

	var eventDoc struct {
		Events []EventDef `json:"events"`
	}
	if err := loadValidated(filepath.Join(dir, EventsFile), eventsSchema, &eventDoc); err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	for _, e := range eventDoc.Events {
		if _, dup := lib.Events[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event definition %q", e.ID)
		}
		lib.Events[e.ID] = e
	}

	var ppDoc struct {
		EditingTiers []EditingTier `json:"editing_tiers"`
	}
	if err := loadJSON(filepath.Join(dir, PostProductionFile), &ppDoc); err != nil {
		return nil, fmt.Errorf("loading post-production tiers: %w", err)
	}
	lib.EditingTiers = ppDoc.EditingTiers

	return lib, nil
}

// FullName builds the canonical lookup key for a tag: the base name, or
// "{base} ({orientation})" when orientation-qualified. Existing content
// depends on this exact format.
func FullName(base, orientation string) string {
	if orientation == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, orientation)
}

func loadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		// Retry without strict field checking; content packs may carry
		// authoring metadata the engine does not model.
		return json.Unmarshal(data, out)
	}
	return nil
}

func loadValidated(path, schemaSrc string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	schema, err := jsonschema.CompileString(filepath.Base(path)+".schema", schemaSrc)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validating %s: %w", filepath.Base(path), err)
	}

	return json.Unmarshal(data, out)
}
