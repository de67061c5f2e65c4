package validation

import (
	"errors"
	"fmt"
)

// Kind classifies a script generation failure
type Kind string

const (
	KindUnknownTool              Kind = "UnknownTool"
	KindUnknownParameter         Kind = "UnknownParameter"
	KindTypeMismatch             Kind = "TypeMismatch"
	KindMissingRequiredParameter Kind = "MissingRequiredParameter"
	KindNoTemplate               Kind = "NoTemplate"
	KindMissingContext           Kind = "MissingContext"
)

// ValidationError is the structured failure returned for a rejected request.
// CallIndex and Tool are filled in by the assembler once the failing call is known.
type ValidationError struct {
	Kind      Kind                   `json:"kind"`
	Message   string                 `json:"message"`
	CallIndex *int                   `json:"callIndex,omitempty"`
	Tool      string                 `json:"tool,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.CallIndex != nil {
		return fmt.Sprintf("call %d (%s): %s", *e.CallIndex, e.Tool, e.Message)
	}
	if e.Tool != "" {
		return fmt.Sprintf("%s: %s", e.Tool, e.Message)
	}
	return e.Message
}

// New creates a ValidationError of the given kind
func New(kind Kind, details map[string]interface{}, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Details: details,
	}
}

// AtCall returns a copy of err annotated with the failing call. Errors that are
// not ValidationErrors are returned unchanged.
func AtCall(err error, index int, tool string) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	annotated := *ve
	annotated.CallIndex = &index
	annotated.Tool = tool
	return &annotated
}

// KindOf reports the kind of a ValidationError anywhere in err's chain
func KindOf(err error) (Kind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}

// FormatValidationError formats a validation error for display
func FormatValidationError(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("%s: %s", ve.Kind, ve.Error())
	}
	return err.Error()
}
