package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dslh/cadscript-mcp/internal/persistence"
	"github.com/dslh/cadscript-mcp/internal/types"
)

// ScriptSummary represents a saved script for list_saved_scripts
type ScriptSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScriptListResponse wraps the script list in an object structure expected by MCP
type ScriptListResponse struct {
	Scripts []ScriptSummary `json:"scripts"`
}

// RegisterListSavedScripts registers the list_saved_scripts tool with the MCP server
func (h *Handlers) RegisterListSavedScripts(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_saved_scripts",
		Description: "List all saved Fusion 360 scripts",
	}, h.handleListSavedScripts)
}

// RegisterShowSavedScript registers the show_saved_script tool with the MCP server
func (h *Handlers) RegisterShowSavedScript(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_saved_script",
		Description: "Show the source of a saved script",
	}, h.handleShowSavedScript)
}

// RegisterDeleteSavedScript registers the delete_saved_script tool with the MCP server
func (h *Handlers) RegisterDeleteSavedScript(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_saved_script",
		Description: "Delete a saved script folder",
	}, h.handleDeleteSavedScript)
}

func (h *Handlers) handleListSavedScripts(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
	scripts, err := h.store.List()
	if err != nil {
		return ErrorResponse("Failed to list saved scripts: %v", err), nil, nil
	}

	summaries := make([]ScriptSummary, 0, len(scripts))
	for _, s := range scripts {
		summaries = append(summaries, ScriptSummary{Name: s.Name, Description: s.Description})
	}
	response := ScriptListResponse{Scripts: summaries}

	if len(summaries) == 0 {
		return SuccessResponse("No saved scripts found"), response, nil
	}

	lines := make([]string, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, fmt.Sprintf("• %s: %s", s.Name, s.Description))
	}
	listText := fmt.Sprintf("Found %d saved script(s):\n\n%s", len(summaries), strings.Join(lines, "\n"))

	return SuccessResponse("%s", listText), response, nil
}

func (h *Handlers) handleShowSavedScript(ctx context.Context, req *mcp.CallToolRequest, args types.ShowScriptArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return ErrorResponse("Error: script name is required"), nil, nil
	}

	script, err := h.store.Load(args.Name)
	if err != nil {
		return ErrorResponse("Failed to load script '%s': %v", args.Name, err), nil, nil
	}

	return SuccessResponse("%s", script.Source), script, nil
}

func (h *Handlers) handleDeleteSavedScript(ctx context.Context, req *mcp.CallToolRequest, args types.DeleteScriptArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return ErrorResponse("Error: script name is required"), nil, nil
	}

	if err := h.store.Delete(args.Name); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrorResponse("Script '%s' does not exist", args.Name), nil, nil
		}
		return ErrorResponse("Failed to delete script '%s': %v", args.Name, err), nil, nil
	}

	return SuccessResponse("Script '%s' deleted successfully", args.Name), map[string]string{"deleted": args.Name}, nil
}
