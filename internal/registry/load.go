package registry

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dslh/cadscript-mcp/internal/validation"
)

//go:embed registry.yaml
var defaultDocument []byte

//go:embed registry.schema.json
var documentSchema []byte

type document struct {
	Tools []toolEntry `yaml:"tools"`
}

type toolEntry struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Docs        string           `yaml:"docs"`
	Parameters  []parameterEntry `yaml:"parameters"`
}

type parameterEntry struct {
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Description string    `yaml:"description"`
	Unit        string    `yaml:"unit"`
	Values      []string  `yaml:"values"`
	Required    *bool     `yaml:"required"`
	Default     yaml.Node `yaml:"default"`
	Minimum     *int64    `yaml:"minimum"`
	MinItems    int       `yaml:"min_items"`
}

// Default returns the registry built from the embedded tool catalog
func Default() (*Registry, error) {
	r, err := Load(defaultDocument)
	if err != nil {
		return nil, fmt.Errorf("embedded registry: %w", err)
	}
	return r, nil
}

// LoadFile reads and parses a registry document from disk
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	r, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return r, nil
}

// Load parses a YAML or JSON registry document
func Load(data []byte) (*Registry, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse registry document: %w", err)
	}
	if err := validation.ValidateDocument(documentSchema, raw); err != nil {
		return nil, fmt.Errorf("malformed registry document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode registry document: %w", err)
	}

	defs := make([]ToolDefinition, 0, len(doc.Tools))
	for _, entry := range doc.Tools {
		def := ToolDefinition{
			Name:        entry.Name,
			Description: entry.Description,
			Docs:        entry.Docs,
			Parameters:  make([]ParameterSpec, 0, len(entry.Parameters)),
		}
		for _, pe := range entry.Parameters {
			spec, err := pe.spec()
			if err != nil {
				return nil, fmt.Errorf("tool %s: parameter %s: %w", entry.Name, pe.Name, err)
			}
			def.Parameters = append(def.Parameters, spec)
		}
		defs = append(defs, def)
	}
	return New(defs)
}

func (pe parameterEntry) spec() (ParameterSpec, error) {
	spec := ParameterSpec{
		Name:        pe.Name,
		Type:        Kind(pe.Type),
		Description: pe.Description,
		Unit:        Unit(pe.Unit),
		Values:      pe.Values,
		Minimum:     pe.Minimum,
		MinItems:    pe.MinItems,
	}
	if pe.Default.Kind != 0 {
		var value interface{}
		if err := pe.Default.Decode(&value); err != nil {
			return spec, fmt.Errorf("failed to decode default: %w", err)
		}
		spec.Default = value
		spec.HasDefault = true
	}
	if pe.Required != nil && *pe.Required == spec.HasDefault {
		if spec.HasDefault {
			return spec, fmt.Errorf("required parameter declares a default")
		}
		return spec, fmt.Errorf("optional parameter has no default")
	}
	return spec, nil
}
