package session

import (
	"ludo-arena/internal/game"
	"ludo-arena/internal/game/viewmodel"
)

type CreateRequest struct {
	Mode    game.Mode `json:"mode"`
	Players []string  `json:"players"`
}

type RollResponse struct {
	Dice int                   `json:"dice"`
	View viewmodel.SessionView `json:"session"`
}

type MoveResponse struct {
	Outcome game.MoveOutcome      `json:"outcome"`
	View    viewmodel.SessionView `json:"session"`
	// Warning is set when the game finished but payout bookkeeping did not
	// complete.
	Warning string `json:"warning,omitempty"`
}

type Suggestion struct {
	SessionID  string `json:"session_id"`
	Player     string `json:"player"`
	Dice       int    `json:"dice"`
	TokenIndex int    `json:"token_index"`
	HasMove    bool   `json:"has_move"`
}

type HistoryResponse struct {
	UserID string             `json:"user_id"`
	Items  []game.MatchRecord `json:"items"`
}
