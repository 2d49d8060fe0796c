package market

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MarketsFile is the market group content file name.
const MarketsFile = "markets.json"

const marketsSchema = `{
  "type": "object",
  "properties": {
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "market_share_percent", "spending_power"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "inherits_from": {"type": "string"},
          "market_share_percent": {"type": "number", "minimum": 0},
          "spending_power": {"type": "number", "minimum": 0}
        }
      }
    }
  },
  "required": ["groups"]
}`

// Load reads markets.json from dir, validates it against the schema and
// returns a resolver. A circular inheritance chain fails here, before the
// game starts.
func Load(dir string) (*Resolver, error) {
	path := filepath.Join(dir, MarketsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading market groups: %w", err)
	}

	schema, err := jsonschema.CompileString(MarketsFile+".schema", marketsSchema)
	if err != nil {
		return nil, fmt.Errorf("compiling market schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MarketsFile, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validating %s: %w", MarketsFile, err)
	}

	var parsed struct {
		Groups []Group `json:"groups"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MarketsFile, err)
	}

	groups := make(map[string]Group, len(parsed.Groups))
	for _, g := range parsed.Groups {
		if _, dup := groups[g.Name]; dup {
			return nil, fmt.Errorf("duplicate market group %q", g.Name)
		}
		groups[g.Name] = g
	}
	return NewResolver(groups)
}
