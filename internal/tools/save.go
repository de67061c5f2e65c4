package tools

import (
	"context"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dslh/cadscript-mcp/internal/persistence"
	"github.com/dslh/cadscript-mcp/internal/types"
)

// RegisterSaveScript registers the save_script tool with the MCP server
func (h *Handlers) RegisterSaveScript(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_script",
		Description: "Generate a script from tool calls and save it as a Fusion 360 script folder",
	}, h.handleSaveScript)
}

func (h *Handlers) handleSaveScript(ctx context.Context, req *mcp.CallToolRequest, args types.SaveScriptArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return ErrorResponse("Error: script name is required"), nil, nil
	}
	if len(args.ToolCalls) == 0 {
		return ErrorResponse("Error: at least one tool call is required"), nil, nil
	}

	source, err := h.generator.Generate(ctx, transport, args.ToolCalls)
	if err != nil {
		result, detail := RequestErrorResponse(err)
		return result, detail, nil
	}

	saved := &persistence.SavedScript{
		Name:        args.Name,
		Description: args.Description,
		Source:      source,
	}
	if err := h.store.Save(saved); err != nil {
		return ErrorResponse("Failed to save script: %v", err), nil, nil
	}

	return SuccessResponse("Script '%s' saved to %s", args.Name, h.store.Dir()), map[string]string{
		"saved": args.Name,
		"path":  filepath.Join(h.store.Dir(), args.Name, args.Name+".py"),
	}, nil
}
