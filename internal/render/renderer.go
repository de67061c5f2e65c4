// Package render turns resolved tool calls into Fusion 360 Python fragments.
//
// Every tool has exactly one template, registered by name. Templates are pure
// substitution: resolved values reach the code only as literals of their
// declared type, and enum values only through a fixed code table. Symbols that
// tie fragments together (the active sketch, its profiles, the latest body)
// are read from and declared to an explicit Context owned by the caller.
package render

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/syntax"

	"github.com/dslh/cadscript-mcp/internal/params"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

// Fragment is the code rendered for one tool call
type Fragment struct {
	Tool       string   `json:"tool"`
	Lines      []string `json:"lines"`
	Defines    []Symbol `json:"defines,omitempty"`
	References []Symbol `json:"references,omitempty"`
}

type paramSpec struct {
	kind registry.Kind
	unit registry.Unit
	enum map[string]string // declared value -> code
}

type template struct {
	params map[string]paramSpec
	render func(b *builder) error
}

// Renderer renders fragments for the tools it has templates for. It holds no
// per-request state and is safe for concurrent use.
type Renderer struct {
	templates map[string]*template
	exportDir string
}

// Option configures a Renderer
type Option func(*Renderer)

// WithExportDir sets the directory ExportBody writes into
func WithExportDir(dir string) Option {
	return func(r *Renderer) {
		r.exportDir = dir
	}
}

// New creates a renderer with the built-in Fusion 360 templates
func New(opts ...Option) *Renderer {
	r := &Renderer{templates: builtinTemplates()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tools returns the names of all templated tools, sorted
func (r *Renderer) Tools() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckCoverage verifies that every registry tool has a template whose
// parameter names, kinds, units and enum values match the registry exactly.
func (r *Renderer) CheckCoverage(reg *registry.Registry) error {
	for _, def := range reg.List() {
		tmpl, ok := r.templates[def.Name]
		if !ok {
			return validation.New(validation.KindNoTemplate,
				map[string]interface{}{"tool": def.Name},
				"tool %q has no script template", def.Name)
		}
		if err := tmpl.matches(def); err != nil {
			return fmt.Errorf("tool %s: template mismatch: %w", def.Name, err)
		}
	}
	return nil
}

func (t *template) matches(def *registry.ToolDefinition) error {
	if len(def.Parameters) != len(t.params) {
		return fmt.Errorf("registry declares %d parameters, template expects %d", len(def.Parameters), len(t.params))
	}
	for _, p := range def.Parameters {
		want, ok := t.params[p.Name]
		if !ok {
			return fmt.Errorf("parameter %s is not used by the template", p.Name)
		}
		if p.Type != want.kind {
			return fmt.Errorf("parameter %s: registry type %s, template type %s", p.Name, p.Type, want.kind)
		}
		if p.Unit != want.unit {
			return fmt.Errorf("parameter %s: registry unit %q, template unit %q", p.Name, p.Unit, want.unit)
		}
		for _, v := range p.Values {
			if _, ok := want.enum[v]; !ok {
				return fmt.Errorf("parameter %s: template has no code for value %q", p.Name, v)
			}
		}
	}
	return nil
}

// Render produces the fragment for one resolved call. ctx is read, never
// modified; the caller adds the fragment's Defines once it accepts it.
func (r *Renderer) Render(tool string, p params.Resolved, ctx *Context) (*Fragment, error) {
	tmpl, ok := r.templates[tool]
	if !ok {
		return nil, validation.New(validation.KindNoTemplate,
			map[string]interface{}{"tool": tool},
			"tool %q has no script template", tool)
	}
	if ctx == nil {
		ctx = NewContext()
	}

	b := &builder{
		renderer: r,
		spec:     tmpl,
		p:        p,
		ctx:      ctx,
		bound:    make(map[string]bool),
		frag:     &Fragment{Tool: tool},
	}
	if err := tmpl.render(b); err != nil {
		return nil, err
	}
	if err := checkSyntax(tool, b.frag.Lines); err != nil {
		return nil, fmt.Errorf("template %s rendered invalid code: %w", tool, err)
	}
	return b.frag, nil
}

var fragmentSyntax = &syntax.FileOptions{
	TopLevelControl: true,
	GlobalReassign:  true,
}

// checkSyntax parses a fragment with the Starlark parser, whose statement
// grammar covers everything the templates emit.
func checkSyntax(tool string, lines []string) error {
	src := strings.Join(lines, "\n") + "\n"
	_, err := fragmentSyntax.Parse(tool+".py", src, 0)
	return err
}

type builder struct {
	renderer *Renderer
	spec     *template
	p        params.Resolved
	ctx      *Context
	bound    map[string]bool
	frag     *Fragment
}

func (b *builder) line(format string, args ...interface{}) {
	b.frag.Lines = append(b.frag.Lines, fmt.Sprintf(format, args...))
}

// require returns the name of the latest symbol with role, recording the
// reference, or a MissingContext error carrying hint.
func (b *builder) require(role Role, hint string) (string, error) {
	sym, ok := b.ctx.Latest(role)
	if !ok {
		return "", validation.New(validation.KindMissingContext,
			map[string]interface{}{"symbol": string(role)},
			"no %s in context; %s", role, hint)
	}
	for _, ref := range b.frag.References {
		if ref == sym {
			return sym.Name, nil
		}
	}
	b.frag.References = append(b.frag.References, sym)
	return sym.Name, nil
}

// bind allocates a fresh symbol name based on base and records it as defined
func (b *builder) bind(role Role, base string) string {
	name := base
	for n := 2; b.ctx.Has(name) || b.bound[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	b.bound[name] = true
	b.frag.Defines = append(b.frag.Defines, Symbol{Name: name, Role: role})
	return name
}

func (b *builder) num(name string) string {
	return numberLiteral(b.p.Number(name))
}

func (b *builder) integer(name string) string {
	return intLiteral(b.p.Int(name))
}

func (b *builder) boolean(name string) string {
	return boolLiteral(b.p.Bool(name))
}

func (b *builder) str(name string) string {
	return stringLiteral(b.p.String(name))
}

func (b *builder) enum(name string) string {
	return b.spec.params[name].enum[b.p.String(name)]
}

// targetBody binds local to the body selected by a body_index parameter:
// a negative index selects the latest body of this script.
func (b *builder) targetBody(param, local string) error {
	index := b.p.Int(param)
	if index >= 0 {
		b.line("%s = component.bRepBodies.item(%s)", local, intLiteral(index))
		return nil
	}
	body, err := b.require(RoleBody, "create a body first (Extrude, Revolve, LoftProfiles) or pass a non-negative "+param)
	if err != nil {
		return err
	}
	b.line("%s = %s", local, body)
	return nil
}

// collectItems adds the indexed members of source to collection, or every
// member when indices is empty and all is set.
func (b *builder) collectItems(collection, source string, indices []int64, loopVar string, all bool) {
	if len(indices) == 0 {
		if all {
			b.line("for %s in %s:", loopVar, source)
			b.line("    %s.add(%s)", collection, loopVar)
		}
		return
	}
	for _, i := range indices {
		b.line("%s.add(%s.item(%s))", collection, source, intLiteral(i))
	}
}
