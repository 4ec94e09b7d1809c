package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_session",
			mcp.WithDescription("Public snapshot of a session: seats, tokens, turn, pending dice and legal moves."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		),
		s.handleGetSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"suggest_move",
			mcp.WithDescription("Token the server bot would move for the current player's pending roll."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		),
		s.handleSuggestMove,
	)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	view, err := s.svc.View(ctx, sessionID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(view), nil
}

func (s *Server) handleSuggestMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	sug, err := s.svc.Suggest(ctx, sessionID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(sug), nil
}
