// Package registry holds the catalog of CAD tools and their parameter schemas.
// A Registry is built once, validated eagerly, and read-only afterwards, so it
// can be shared by concurrent requests without locking.
package registry

import (
	"fmt"
	"strings"

	"github.com/dslh/cadscript-mcp/internal/validation"
)

// ParameterSpec describes one declared parameter of a tool
type ParameterSpec struct {
	Name        string
	Type        Kind
	Description string
	Unit        Unit
	Values      []string    // allowed values, enum only
	Default     interface{} // canonical value, valid only when HasDefault
	HasDefault  bool
	Minimum     *int64 // lower bound, integer only
	MinItems    int    // shortest accepted list, integer_list only
}

// Required reports whether callers must supply the parameter
func (p *ParameterSpec) Required() bool {
	return !p.HasDefault
}

// ToolDefinition is an immutable tool catalog entry
type ToolDefinition struct {
	Name        string
	Description string
	Docs        string
	Parameters  []ParameterSpec
}

// Parameter returns the spec for the named parameter
func (d *ToolDefinition) Parameter(name string) (*ParameterSpec, bool) {
	for i := range d.Parameters {
		if d.Parameters[i].Name == name {
			return &d.Parameters[i], true
		}
	}
	return nil, false
}

// Signature renders the parameters compactly, such as
// "height, profile_index=0, operation=new"
func (d *ToolDefinition) Signature() string {
	parts := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		part := p.Name
		if p.HasDefault {
			part = fmt.Sprintf("%s=%v", p.Name, p.Default)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

// Registry maps tool names to definitions, preserving declaration order
type Registry struct {
	tools  []*ToolDefinition
	byName map[string]*ToolDefinition
}

// New validates the definitions and builds a registry. Any malformed entry
// fails the whole registry.
func New(defs []ToolDefinition) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*ToolDefinition, len(defs)),
	}
	for i := range defs {
		def := defs[i]
		def.Parameters = append([]ParameterSpec(nil), def.Parameters...)
		if err := checkDefinition(&def); err != nil {
			if def.Name == "" {
				return nil, fmt.Errorf("tool %d: %w", i, err)
			}
			return nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}
		if _, exists := r.byName[def.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", def.Name)
		}
		r.tools = append(r.tools, &def)
		r.byName[def.Name] = &def
	}
	return r, nil
}

// Lookup returns the definition for name or an UnknownTool error
func (r *Registry) Lookup(name string) (*ToolDefinition, error) {
	def, ok := r.byName[name]
	if !ok {
		return nil, validation.New(validation.KindUnknownTool,
			map[string]interface{}{"tool": name},
			"unknown tool %q", name)
	}
	return def, nil
}

// List returns the definitions in declaration order
func (r *Registry) List() []*ToolDefinition {
	return append([]*ToolDefinition(nil), r.tools...)
}

// Names returns the tool names in declaration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, def := range r.tools {
		names[i] = def.Name
	}
	return names
}

func checkDefinition(def *ToolDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("missing tool name")
	}
	seen := make(map[string]bool, len(def.Parameters))
	for i := range def.Parameters {
		p := &def.Parameters[i]
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("parameter %d: missing name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter name: %s", p.Name)
		}
		seen[p.Name] = true
		if err := checkParameter(p); err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name, err)
		}
	}
	return nil
}

func checkParameter(p *ParameterSpec) error {
	if !p.Type.Valid() {
		return fmt.Errorf("unknown type %q", p.Type)
	}
	if !p.Unit.Valid() {
		return fmt.Errorf("unknown unit %q", p.Unit)
	}
	if p.Unit != UnitNone && !p.Type.Numeric() {
		return fmt.Errorf("unit %q on non-numeric type %s", p.Unit, p.Type)
	}
	if p.Type == KindEnum {
		if len(p.Values) == 0 {
			return fmt.Errorf("enum without values")
		}
		values := make(map[string]bool, len(p.Values))
		for _, v := range p.Values {
			key := strings.ToLower(v)
			if v == "" || values[key] {
				return fmt.Errorf("empty or duplicate enum value %q", v)
			}
			values[key] = true
		}
	} else if len(p.Values) > 0 {
		return fmt.Errorf("values declared on non-enum type %s", p.Type)
	}
	if p.Minimum != nil && p.Type != KindInteger {
		return fmt.Errorf("minimum declared on non-integer type %s", p.Type)
	}
	if p.MinItems < 0 || (p.MinItems > 0 && p.Type != KindIntegerList) {
		return fmt.Errorf("min_items %d is invalid for type %s", p.MinItems, p.Type)
	}
	if p.HasDefault {
		canonical, err := p.Coerce(p.Default)
		if err != nil {
			return fmt.Errorf("invalid default: %w", err)
		}
		p.Default = canonical
	}
	return nil
}
