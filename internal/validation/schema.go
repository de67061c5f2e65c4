package validation

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// DocumentError reports a document that does not conform to its JSON Schema
type DocumentError struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DocumentError) Error() string {
	if errorMsg, ok := e.Details["error"].(string); ok {
		return fmt.Sprintf("%s: %s", e.Message, errorMsg)
	}
	return e.Message
}

// ValidateDocument validates a decoded JSON value against a JSON Schema document.
// The value is round-tripped through encoding/json so YAML-decoded input (ints,
// nested maps) is checked in the same shape a JSON decoder would produce.
func ValidateDocument(schemaJSON []byte, value interface{}) error {
	var schemaObj jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &schemaObj); err != nil {
		return &DocumentError{
			Message: "Invalid JSON schema definition",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	resolved, err := schemaObj.Resolve(nil)
	if err != nil {
		return &DocumentError{
			Message: "Failed to resolve JSON schema",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	normalized, err := normalize(value)
	if err != nil {
		return &DocumentError{
			Message: "Document is not representable as JSON",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	if err := resolved.Validate(normalized); err != nil {
		return &DocumentError{
			Message: "Document validation failed",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	return nil
}

func normalize(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
