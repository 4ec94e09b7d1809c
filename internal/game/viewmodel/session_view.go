package viewmodel

import (
	"time"

	"ludo-arena/internal/game"
)

type SeatView struct {
	Seat             int    `json:"seat"`
	UserID           string `json:"user_id"`
	Color            string `json:"color"`
	Tokens           [4]int `json:"tokens"`
	FinishedCount    int    `json:"finished_count"`
	ConnectionStatus string `json:"connection_status"`
	IsCurrent        bool   `json:"is_current"`
}

type SessionView struct {
	SessionID     string           `json:"session_id"`
	Mode          string           `json:"mode"`
	Status        string           `json:"status"`
	Phase         string           `json:"phase"`
	CurrentTurn   string           `json:"current_turn"`
	DiceValue     *int             `json:"dice_value,omitempty"`
	TurnDeadline  int64            `json:"turn_deadline_ms"`
	TurnRemaining int64            `json:"turn_remaining_ms"`
	Winner        string           `json:"winner,omitempty"`
	SafeTiles     []int            `json:"safe_tiles"`
	LegalMoves    []game.LegalMove `json:"legal_moves,omitempty"`
	Seats         []SeatView       `json:"seats"`
}

// BuildSessionView renders the snapshot every participant and spectator may
// see. Legal moves are listed only while the current player has a pending roll.
func BuildSessionView(s *game.Session, now time.Time) SessionView {
	seats := make([]SeatView, 0, len(s.Players))
	for i, p := range s.Players {
		seats = append(seats, SeatView{
			Seat:             i,
			UserID:           p.UserID,
			Color:            p.Color,
			Tokens:           p.Tokens,
			FinishedCount:    p.FinishedCount,
			ConnectionStatus: string(p.ConnectionStatus),
			IsCurrent:        s.Status == game.StatusPlaying && p.UserID == s.CurrentTurn,
		})
	}
	view := SessionView{
		SessionID:   s.ID,
		Mode:        string(s.Mode),
		Status:      string(s.Status),
		Phase:       string(s.Phase()),
		CurrentTurn: s.CurrentTurn,
		Winner:      s.Winner,
		SafeTiles:   game.SafeTiles(),
		Seats:       seats,
	}
	if !s.TurnDeadline.IsZero() {
		view.TurnDeadline = s.TurnDeadline.UnixMilli()
		if remaining := s.TurnDeadline.Sub(now); remaining > 0 && s.Status == game.StatusPlaying {
			view.TurnRemaining = remaining.Milliseconds()
		}
	}
	if s.DiceValue != nil {
		d := *s.DiceValue
		view.DiceValue = &d
		view.LegalMoves = game.LegalMoves(s.Player(s.CurrentTurn), d)
	}
	return view
}
