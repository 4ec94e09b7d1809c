package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerGameplayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"roll_dice",
			mcp.WithDescription("Roll the die for user_id. Only the current player may roll, once per turn."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("Acting player")),
		),
		s.handleRollDice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"move_token",
			mcp.WithDescription("Move one token by the pending dice value. A six or a capture grants another roll."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("Acting player")),
			mcp.WithNumber("token_index", mcp.Required(), mcp.Description("Token 0..3")),
		),
		s.handleMoveToken,
	)
}

func (s *Server) handleRollDice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, userID, errRes := actorArgs(request)
	if errRes != nil {
		return errRes, nil
	}
	resp, err := s.svc.Roll(ctx, sessionID, userID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleMoveToken(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, userID, errRes := actorArgs(request)
	if errRes != nil {
		return errRes, nil
	}
	tokenIndex, err := request.RequireInt("token_index")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, err := s.svc.Move(ctx, sessionID, userID, tokenIndex)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func actorArgs(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return "", "", toolError("invalid_request", err.Error())
	}
	userID, err := request.RequireString("user_id")
	if err != nil || strings.TrimSpace(userID) == "" {
		return "", "", toolError("invalid_request", "user_id is required")
	}
	return sessionID, strings.TrimSpace(userID), nil
}
