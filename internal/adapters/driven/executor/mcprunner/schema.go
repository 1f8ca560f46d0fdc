package mcprunner

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// paramsFromSchema derives fetch parameter definitions from a tool's
// JSON input schema. Only the top-level properties are considered;
// nested object shapes are kept as plain "object" params.
func paramsFromSchema(schema *jsonschema.Schema) map[string]domain.ParamDefinition {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make(map[string]domain.ParamDefinition, len(schema.Properties))
	for name, prop := range schema.Properties {
		def := domain.ParamDefinition{
			Type:     "string",
			Required: required[name],
		}
		if prop != nil {
			if prop.Type != "" {
				def.Type = prop.Type
			}
			def.Description = prop.Description
		}
		params[name] = def
	}
	return params
}
