// Package script assembles rendered fragments into one Fusion 360 script.
package script

import (
	"fmt"
	"strings"

	"github.com/dslh/cadscript-mcp/internal/params"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/render"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

// ToolCall is one requested tool invocation
type ToolCall struct {
	Tool       string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

const bodyIndent = "        "

const preamble = `import adsk.core, adsk.fusion, traceback

def run(context):
    ui = None
    try:
        app = adsk.core.Application.get()
        ui = app.userInterface
        design = adsk.fusion.Design.cast(app.activeProduct)
        component = design.rootComponent
`

const epilogue = `        ui.messageBox('Operation completed successfully')
    except:
        if ui:
            ui.messageBox('Failed:\n{}'.format(traceback.format_exc()))
`

// Document is an assembled script
type Document struct {
	Fragments []*render.Fragment
	Symbols   []render.Symbol
}

// Body returns the fragment code at its indentation inside run(), with a
// blank line between fragments.
func (d *Document) Body() string {
	var b strings.Builder
	for i, frag := range d.Fragments {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, line := range frag.Lines {
			b.WriteString(bodyIndent)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// String returns the complete script source
func (d *Document) String() string {
	body := d.Body()
	if body != "" {
		body += "\n"
	}
	return preamble + "\n" + body + epilogue
}

// Assembler turns ordered tool calls into documents. It shares only the
// read-only registry and renderer between requests.
type Assembler struct {
	registry *registry.Registry
	renderer *render.Renderer
}

// New creates an assembler after checking that every registry tool can be
// rendered. A failure here is a configuration error.
func New(reg *registry.Registry, renderer *render.Renderer) (*Assembler, error) {
	if err := renderer.CheckCoverage(reg); err != nil {
		return nil, fmt.Errorf("registry and templates disagree: %w", err)
	}
	return &Assembler{registry: reg, renderer: renderer}, nil
}

// Registry returns the tool catalog the assembler validates against
func (a *Assembler) Registry() *registry.Registry {
	return a.registry
}

// Assemble resolves and renders calls in order, stopping at the first
// failure. Errors name the index and tool of the failing call.
func (a *Assembler) Assemble(calls []ToolCall) (*Document, error) {
	ctx := render.NewContext()
	doc := &Document{}

	for i, call := range calls {
		frag, err := a.step(call, ctx)
		if err != nil {
			return nil, validation.AtCall(err, i, call.Tool)
		}
		if err := ctx.Define(frag.Defines...); err != nil {
			return nil, fmt.Errorf("call %d (%s): %w", i, call.Tool, err)
		}
		doc.Fragments = append(doc.Fragments, frag)
	}

	doc.Symbols = ctx.Symbols()
	return doc, nil
}

func (a *Assembler) step(call ToolCall, ctx *render.Context) (*render.Fragment, error) {
	def, err := a.registry.Lookup(call.Tool)
	if err != nil {
		return nil, err
	}
	resolved, err := params.Resolve(def, call.Parameters)
	if err != nil {
		return nil, err
	}
	return a.renderer.Render(def.Name, resolved, ctx)
}

// Generate assembles calls and returns the script source
func (a *Assembler) Generate(calls []ToolCall) (string, error) {
	doc, err := a.Assemble(calls)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}
