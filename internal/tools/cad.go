package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dslh/cadscript-mcp/internal/persistence"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/schema"
	"github.com/dslh/cadscript-mcp/internal/service"
	"github.com/dslh/cadscript-mcp/internal/types"
)

const transport = "mcp"

// Handlers serves the MCP tools. The store may be nil, in which case the
// saved script tools are not registered.
type Handlers struct {
	generator *service.Generator
	store     *persistence.Store
}

// New creates MCP handlers
func New(generator *service.Generator, store *persistence.Store) *Handlers {
	return &Handlers{generator: generator, store: store}
}

// Register adds every tool to the server
func (h *Handlers) Register(server *mcp.Server) {
	h.RegisterCADTools(server)
	h.RegisterGenerateScript(server)
	h.RegisterListCADTools(server)

	if h.store != nil {
		h.RegisterSaveScript(server)
		h.RegisterListSavedScripts(server)
		h.RegisterShowSavedScript(server)
		h.RegisterDeleteSavedScript(server)
	}
}

// RegisterCADTools registers one MCP tool per registry tool. Each generates
// a script containing that single call.
func (h *Handlers) RegisterCADTools(server *mcp.Server) {
	for _, def := range h.generator.Registry().List() {
		mcp.AddTool(server, &mcp.Tool{
			Name:        def.Name,
			Description: toolDescription(def),
			InputSchema: schema.ForTool(def),
		}, h.cadTool(def.Name))
	}
}

func toolDescription(def *registry.ToolDefinition) string {
	desc := def.Description
	if desc == "" {
		desc = def.Name
	}
	return desc + ". Returns a Fusion 360 Python script."
}

func (h *Handlers) cadTool(name string) func(context.Context, *mcp.CallToolRequest, map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		return h.generate(ctx, []types.ToolCallArgs{{ToolName: name, Parameters: args}})
	}
}

// RegisterGenerateScript registers the generate_script tool
func (h *Handlers) RegisterGenerateScript(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_script",
		Description: "Combine an ordered list of CAD tool calls into one Fusion 360 Python script",
	}, h.handleGenerateScript)
}

func (h *Handlers) handleGenerateScript(ctx context.Context, req *mcp.CallToolRequest, args types.GenerateScriptArgs) (*mcp.CallToolResult, any, error) {
	return h.generate(ctx, args.ToolCalls)
}

func (h *Handlers) generate(ctx context.Context, calls []types.ToolCallArgs) (*mcp.CallToolResult, any, error) {
	out, err := h.generator.Generate(ctx, transport, calls)
	if err != nil {
		result, detail := RequestErrorResponse(err)
		return result, detail, nil
	}
	return SuccessResponse("%s", out), types.ScriptResponse{
		Script:  out,
		Message: "Script generated successfully",
	}, nil
}

// CADToolSummary describes one registry tool for list_cad_tools
type CADToolSummary struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Docs        string             `json:"docs,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// CADToolListResponse wraps the tool list in an object structure expected by MCP
type CADToolListResponse struct {
	Tools []CADToolSummary `json:"tools"`
}

// RegisterListCADTools registers the list_cad_tools tool
func (h *Handlers) RegisterListCADTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_cad_tools",
		Description: "List the CAD tools available to generate_script with their parameters",
	}, h.handleListCADTools)
}

func (h *Handlers) handleListCADTools(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
	defs := h.generator.Registry().List()

	response := CADToolListResponse{Tools: make([]CADToolSummary, 0, len(defs))}
	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		response.Tools = append(response.Tools, CADToolSummary{
			Name:        def.Name,
			Description: def.Description,
			Docs:        def.Docs,
			InputSchema: schema.ForTool(def),
		})
		lines = append(lines, fmt.Sprintf("• %s(%s): %s", def.Name, def.Signature(), def.Description))
	}

	listText := fmt.Sprintf("Found %d CAD tool(s):\n\n%s", len(defs), strings.Join(lines, "\n"))
	return SuccessResponse("%s", listText), response, nil
}
