package tools

import (
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dslh/cadscript-mcp/internal/validation"
)

// RequestError is the structured content of a rejected generation request.
// It has the same shape as the HTTP error body.
type RequestError struct {
	Error *validation.ValidationError `json:"error"`
}

// ErrorResponse creates an error result with a text message
func ErrorResponse(format string, args ...interface{}) *mcp.CallToolResult {
	return textResult(fmt.Sprintf(format, args...), true)
}

// SuccessResponse creates a result with a text message
func SuccessResponse(format string, args ...interface{}) *mcp.CallToolResult {
	return textResult(fmt.Sprintf(format, args...), false)
}

// RequestErrorResponse reports a failed generation. The text names the error
// kind and failing call; validation errors are also returned as a
// RequestError for the handler's structured output.
func RequestErrorResponse(err error) (*mcp.CallToolResult, any) {
	result := textResult(validation.FormatValidationError(err), true)
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return result, RequestError{Error: ve}
	}
	return result, nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: isError,
	}
}
