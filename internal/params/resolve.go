// Package params resolves caller-supplied tool parameters against a tool's
// declared schema. It is the only gate for malformed input: a Resolved value
// always holds exactly the declared parameters with canonical Go types.
package params

import (
	"errors"
	"sort"

	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

// Resolved is a fully resolved parameter set for one tool call
type Resolved struct {
	tool   string
	values map[string]interface{}
}

// Resolve validates supplied against def and fills in defaults. Unknown names
// are reported before type errors, and unknown names are checked in sorted
// order so the reported parameter does not depend on map iteration.
func Resolve(def *registry.ToolDefinition, supplied map[string]interface{}) (Resolved, error) {
	unknown := make([]string, 0)
	for name := range supplied {
		if _, ok := def.Parameter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Resolved{}, validation.New(validation.KindUnknownParameter,
			map[string]interface{}{"parameter": unknown[0]},
			"unknown parameter %q", unknown[0])
	}

	values := make(map[string]interface{}, len(def.Parameters))
	for i := range def.Parameters {
		spec := &def.Parameters[i]
		raw, ok := supplied[spec.Name]
		if !ok {
			if spec.Required() {
				return Resolved{}, validation.New(validation.KindMissingRequiredParameter,
					map[string]interface{}{"parameter": spec.Name, "expected": string(spec.Type)},
					"missing required parameter %q (%s)", spec.Name, spec.Type)
			}
			values[spec.Name] = copyValue(spec.Default)
			continue
		}

		value, err := spec.Coerce(raw)
		if err != nil {
			var mismatch *registry.Mismatch
			if !errors.As(err, &mismatch) {
				return Resolved{}, err
			}
			return Resolved{}, validation.New(validation.KindTypeMismatch,
				map[string]interface{}{
					"parameter": spec.Name,
					"expected":  mismatch.Expected,
					"received":  mismatch.Received,
				},
				"parameter %q: expected %s, got %s", spec.Name, mismatch.Expected, mismatch.Received)
		}
		values[spec.Name] = value
	}

	return Resolved{tool: def.Name, values: values}, nil
}

// Tool returns the name of the tool the parameters were resolved for
func (r Resolved) Tool() string {
	return r.tool
}

// Names returns the resolved parameter names in sorted order
func (r Resolved) Names() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the canonical value of a parameter
func (r Resolved) Value(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Int returns an integer parameter
func (r Resolved) Int(name string) int64 {
	v, _ := r.values[name].(int64)
	return v
}

// Number returns a number parameter
func (r Resolved) Number(name string) float64 {
	v, _ := r.values[name].(float64)
	return v
}

// String returns a string or enum parameter
func (r Resolved) String(name string) string {
	v, _ := r.values[name].(string)
	return v
}

// Bool returns a boolean parameter
func (r Resolved) Bool(name string) bool {
	v, _ := r.values[name].(bool)
	return v
}

// Ints returns an integer list parameter
func (r Resolved) Ints(name string) []int64 {
	v, _ := r.values[name].([]int64)
	return append([]int64(nil), v...)
}

func copyValue(v interface{}) interface{} {
	if list, ok := v.([]int64); ok {
		return append([]int64{}, list...)
	}
	return v
}
