package room

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// commandSchema describes the wire shape of a Command.
const commandSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": {
      "type": "string",
      "enum": ["add", "keep", "close", "finish", "undo", "redo", "clear", "reset", "height", "room"]
    },
    "point": {
      "oneOf": [
        {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
        {
          "type": "object",
          "required": ["x", "z"],
          "properties": {
            "x": {"type": "number"},
            "y": {"type": "number"},
            "z": {"type": "number"}
          }
        }
      ]
    },
    "snap": {"type": "boolean"},
    "index": {"type": "integer", "minimum": 0},
    "height": {"type": ["number", "null"], "minimum": 0},
    "roomType": {"type": "string", "maxLength": 64}
  }
}`

// CommandValidator validates inbound command payloads against the JSON schema.
type CommandValidator struct {
	schema *gojsonschema.Schema
}

// NewCommandValidator compiles the command schema.
func NewCommandValidator() (*CommandValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(commandSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling command schema: %w", err)
	}
	return &CommandValidator{schema: schema}, nil
}

// ValidateBytes validates raw JSON bytes.
func (v *CommandValidator) ValidateBytes(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON")
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}
