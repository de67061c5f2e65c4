package types

// ToolCallArgs is one tool invocation as it arrives over a transport
type ToolCallArgs struct {
	ToolName   string                 `json:"tool_name" jsonschema:"Name of the CAD tool to call"`
	Parameters map[string]interface{} `json:"parameters,omitempty" jsonschema:"Parameters for the tool call"`
}

// GenerateScriptArgs defines the arguments for the generate_script MCP tool
// and the body of POST /call_tools
type GenerateScriptArgs struct {
	ToolCalls []ToolCallArgs `json:"tool_calls" jsonschema:"Ordered tool calls to combine into one script"`
}

// SaveScriptArgs defines the arguments for the save_script MCP tool
type SaveScriptArgs struct {
	Name        string         `json:"name" jsonschema:"Script name, used as the Fusion 360 script folder name"`
	Description string         `json:"description,omitempty" jsonschema:"Human-readable description of the script"`
	ToolCalls   []ToolCallArgs `json:"tool_calls" jsonschema:"Ordered tool calls to combine into the saved script"`
}

// ShowScriptArgs defines the arguments for the show_saved_script MCP tool
type ShowScriptArgs struct {
	Name string `json:"name" jsonschema:"Name of the saved script to show"`
}

// DeleteScriptArgs defines the arguments for the delete_saved_script MCP tool
type DeleteScriptArgs struct {
	Name string `json:"name" jsonschema:"Name of the saved script to delete"`
}

// ScriptResponse is the successful result of a generation request
type ScriptResponse struct {
	Script  string `json:"script"`
	Message string `json:"message"`
}
