// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// FormDefinitionSchema describes a stored quote form: its ordered field list
// and the pricing formula. Field types are left open; unknown types still
// load and price as zero.
const FormDefinitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["fields", "formula"],
  "properties": {
    "formula": {"type": "string"},
    "fields": {
      "type": "array",
      "items": {"$ref": "#/definitions/field"}
    }
  },
  "definitions": {
    "scalar": {"type": ["string", "number"]},
    "option": {
      "type": "object",
      "required": ["value"],
      "properties": {
        "label": {"type": "string"},
        "value": {"$ref": "#/definitions/scalar"},
        "multiplier": {"type": ["number", "null"]},
        "numericValue": {"type": ["number", "null"]}
      }
    },
    "conditionalLogic": {
      "type": "object",
      "required": ["enabled"],
      "properties": {
        "enabled": {"type": "boolean"},
        "dependsOnVariable": {"type": "string"},
        "condition": {"type": "string"},
        "expectedValues": {"type": "array"}
      }
    },
    "field": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z_$][A-Za-z0-9_$]*$"},
        "name": {"type": "string"},
        "type": {"type": "string", "minLength": 1},
        "allowMultipleSelection": {"type": "boolean"},
        "options": {"type": "array", "items": {"$ref": "#/definitions/option"}},
        "conditionalLogic": {
          "oneOf": [{"type": "null"}, {"$ref": "#/definitions/conditionalLogic"}]
        }
      }
    }
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var (
	formSchemaOnce sync.Once
	formSchema     *gojsonschema.Schema
	formSchemaErr  error
)

func compiledFormSchema() (*gojsonschema.Schema, error) {
	formSchemaOnce.Do(func() {
		formSchema, formSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(FormDefinitionSchema))
	})
	return formSchema, formSchemaErr
}

// ValidateFormDefinition checks raw JSON against FormDefinitionSchema.
// The error is only set when the document is not JSON at all.
func ValidateFormDefinition(raw []byte) (*ValidationResult, error) {
	return validate(gojsonschema.NewBytesLoader(raw))
}

// ValidateFormDefinitionValue validates an already decoded document.
func ValidateFormDefinitionValue(doc interface{}) (*ValidationResult, error) {
	return validate(gojsonschema.NewGoLoader(doc))
}

func validate(doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	schema, err := compiledFormSchema()
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages flattens the errors into "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, e := range vr.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Error joins every message; handy when a result has to become an error.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
