package mcpserver

import (
	"errors"
	"fmt"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/game"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

// mapDomainError turns a service error into a tool error whose code matches
// the HTTP and socket transports.
func mapDomainError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return toolError("internal_error", "unknown error")
	case errors.Is(err, session.ErrInvalidRequest):
		return toolError("invalid_request", err.Error())
	case game.KindOf(err) == game.KindUnknown:
		return toolError("internal_error", err.Error())
	default:
		return toolError(game.Code(err), err.Error())
	}
}
