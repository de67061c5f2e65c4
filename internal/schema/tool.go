package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/dslh/cadscript-mcp/internal/registry"
)

// ForTool builds the JSON Schema of a tool's parameter object, used as the
// MCP input schema and in HTTP discovery.
func ForTool(def *registry.ToolDefinition) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "object",
		Description: def.Description,
		Properties:  make(map[string]*jsonschema.Schema, len(def.Parameters)),
	}
	for i := range def.Parameters {
		p := &def.Parameters[i]
		s.Properties[p.Name] = forParameter(p)
		if p.Required() {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

func forParameter(p *registry.ParameterSpec) *jsonschema.Schema {
	prop := &jsonschema.Schema{Description: describe(p)}

	switch p.Type {
	case registry.KindInteger:
		prop.Type = "integer"
		if p.Minimum != nil {
			minimum := float64(*p.Minimum)
			prop.Minimum = &minimum
		}
	case registry.KindNumber:
		prop.Type = "number"
	case registry.KindString:
		prop.Type = "string"
	case registry.KindBoolean:
		prop.Type = "boolean"
	case registry.KindEnum:
		prop.Type = "string"
		for _, v := range p.Values {
			prop.Enum = append(prop.Enum, v)
		}
	case registry.KindIntegerList:
		prop.Type = "array"
		prop.Items = &jsonschema.Schema{Type: "integer"}
		if p.MinItems > 0 {
			minItems := p.MinItems
			prop.MinItems = &minItems
		}
	}

	if p.HasDefault {
		if raw, err := json.Marshal(p.Default); err == nil {
			prop.Default = raw
		}
	}
	return prop
}

func describe(p *registry.ParameterSpec) string {
	if p.Unit == registry.UnitNone {
		return p.Description
	}
	if p.Description == "" {
		return fmt.Sprintf("in %s", p.Unit)
	}
	return fmt.Sprintf("%s (%s)", p.Description, p.Unit)
}
