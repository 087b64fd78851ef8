package templates

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// graphSchema is the structural contract every instantiated graph must meet:
// a non-empty object of nodes, each with a class_type string and an inputs
// object.
const graphSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": "object",
		"required": ["class_type", "inputs"],
		"properties": {
			"class_type": {"type": "string", "minLength": 1},
			"inputs": {"type": "object"}
		}
	}
}`

func validateGraph(graph map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(graphSchema)
	documentLoader := gojsonschema.NewGoLoader(graph)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", ErrTemplateCorrupt, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrTemplateCorrupt, strings.Join(details, "; "))
	}

	return nil
}
