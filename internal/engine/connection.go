package engine

import (
	"context"

	"ludo-arena/internal/game"
)

// MarkDisconnected records that userID lost its connection. It only touches
// the player's connection fields; turn handling is left to the supervisor.
// A seat already handed to the bot stays with the bot.
func (e *Engine) MarkDisconnected(ctx context.Context, sessionID, userID string) error {
	return e.withSession(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		p := s.Player(userID)
		if p == nil {
			return game.ErrPlayerNotFound
		}
		if p.ConnectionStatus != game.ConnActive {
			return nil
		}
		now := e.now()
		p.ConnectionStatus = game.ConnDisconnected
		p.DisconnectTime = &now
		return e.save(ctx, s, game.FieldPlayers)
	})
}

// MarkReconnected hands the seat back to userID, from either the
// disconnected or the bot state. A running bot turn stops before its next
// action.
func (e *Engine) MarkReconnected(ctx context.Context, sessionID, userID string) error {
	return e.withSession(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		p := s.Player(userID)
		if p == nil {
			return game.ErrPlayerNotFound
		}
		if p.ConnectionStatus == game.ConnActive && p.DisconnectTime == nil {
			return nil
		}
		p.ConnectionStatus = game.ConnActive
		p.DisconnectTime = nil
		return e.save(ctx, s, game.FieldPlayers)
	})
}
