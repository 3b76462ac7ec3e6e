// Package configschema generates a JSON Schema document for fshd's
// configuration file, so editors can validate and autocomplete config.yaml.
package configschema

import (
	"encoding/json"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/invopop/jsonschema"
)

// DefaultSchemaPath is the canonical published location of the schema.
const DefaultSchemaPath = "https://raw.githubusercontent.com/NTD-LAB/FSH/main/docs/schema/fsh.schema.json"

// Generate reflects config.Config into a JSON Schema document.
func Generate() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		RequiredFromJSONSchemaTags: false,
		FieldNameTag:               "mapstructure",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = jsonschema.ID(DefaultSchemaPath)
	schema.Title = "FSH configuration schema"

	return json.MarshalIndent(schema, "", "  ")
}
