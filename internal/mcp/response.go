package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse reports a tool failure inside the result with IsError
// set, so the client model sees it and can correct the call
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	var invalid *sgerrors.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		errorData["kind"] = "invalid_input"
		errorData["line"] = invalid.Line
		errorData["column"] = invalid.Column
		if invalid.Token != "" {
			errorData["token"] = invalid.Token
		}
	case errors.Is(err, sgerrors.ErrEmptyInput):
		errorData["kind"] = "empty_input"
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}
