package game

import (
	"fmt"
	"time"
)

type Mode string

const (
	ModeTwoPlayer  Mode = "2p"
	ModeFourPlayer Mode = "4p"
)

// Seats returns how many players a session of this mode holds, or 0 for an
// unknown mode.
func (m Mode) Seats() int {
	switch m {
	case ModeTwoPlayer:
		return 2
	case ModeFourPlayer:
		return 4
	default:
		return 0
	}
}

type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type ConnectionStatus string

const (
	ConnActive       ConnectionStatus = "active"
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnBot          ConnectionStatus = "bot"
)

// Phase is the turn sub-state of a playing session. DiceValue presence is
// kept in sync with it and acts as a secondary check.
type Phase string

const (
	PhaseAwaitingRoll Phase = "awaiting_roll"
	PhaseAwaitingMove Phase = "awaiting_move"
	PhaseFinished     Phase = "finished"
)

const (
	HomePosition    = -1
	StartPosition   = 0
	FinishPosition  = 52
	TokensPerPlayer = 4
)

var Palette = [...]string{"red", "blue", "green", "yellow"}

type Player struct {
	UserID           string           `json:"user_id" bson:"user_id"`
	Color            string           `json:"color" bson:"color"`
	Tokens           [4]int           `json:"tokens" bson:"tokens"`
	FinishedCount    int              `json:"finished_count" bson:"finished_count"`
	ConnectionStatus ConnectionStatus `json:"connection_status" bson:"connection_status"`
	DisconnectTime   *time.Time       `json:"disconnect_time,omitempty" bson:"disconnect_time,omitempty"`
}

func (p *Player) IsBot() bool {
	return p.ConnectionStatus == ConnBot
}

// recountFinished keeps FinishedCount derived from the token positions.
func (p *Player) recountFinished() {
	n := 0
	for _, pos := range p.Tokens {
		if pos == FinishPosition {
			n++
		}
	}
	p.FinishedCount = n
}

type Session struct {
	ID           string    `json:"id" bson:"_id"`
	Mode         Mode      `json:"mode" bson:"mode"`
	Players      []Player  `json:"players" bson:"players"`
	CurrentTurn  string    `json:"current_turn" bson:"current_turn"`
	DiceValue    *int      `json:"dice_value,omitempty" bson:"dice_value"`
	TurnDeadline time.Time `json:"turn_deadline" bson:"turn_deadline"`
	Status       Status    `json:"status" bson:"status"`
	Winner       string    `json:"winner,omitempty" bson:"winner,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Field names one independently writable part of a stored session. Stores
// update only the fields they are given.
type Field string

const (
	FieldPlayers      Field = "players"
	FieldCurrentTurn  Field = "current_turn"
	FieldDiceValue    Field = "dice_value"
	FieldTurnDeadline Field = "turn_deadline"
	FieldStatus       Field = "status"
	FieldWinner       Field = "winner"
)

// TurnFields is what a roll, move or skip rewrites.
var TurnFields = []Field{FieldPlayers, FieldCurrentTurn, FieldDiceValue, FieldTurnDeadline}

// NewSession builds the opening snapshot of a match: seats in join order,
// every token at home and the first listed player to roll.
func NewSession(id string, mode Mode, userIDs []string, now time.Time, turnTime time.Duration) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidSession)
	}
	seats := mode.Seats()
	if seats == 0 {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSession, mode)
	}
	if len(userIDs) != seats {
		return nil, fmt.Errorf("%w: mode %s needs %d players, got %d", ErrInvalidSession, mode, seats, len(userIDs))
	}
	seen := make(map[string]struct{}, len(userIDs))
	players := make([]Player, 0, len(userIDs))
	for i, uid := range userIDs {
		if uid == "" {
			return nil, fmt.Errorf("%w: empty user id at seat %d", ErrInvalidSession, i)
		}
		if _, dup := seen[uid]; dup {
			return nil, fmt.Errorf("%w: duplicate user id %q", ErrInvalidSession, uid)
		}
		seen[uid] = struct{}{}
		players = append(players, Player{
			UserID:           uid,
			Color:            Palette[i],
			Tokens:           [4]int{HomePosition, HomePosition, HomePosition, HomePosition},
			ConnectionStatus: ConnActive,
		})
	}
	return &Session{
		ID:           id,
		Mode:         mode,
		Players:      players,
		CurrentTurn:  players[0].UserID,
		TurnDeadline: now.Add(turnTime),
		Status:       StatusPlaying,
		CreatedAt:    now,
	}, nil
}

func (s *Session) Phase() Phase {
	switch {
	case s.Status != StatusPlaying:
		return PhaseFinished
	case s.DiceValue != nil:
		return PhaseAwaitingMove
	default:
		return PhaseAwaitingRoll
	}
}

func (s *Session) PlayerIndex(userID string) int {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Session) Player(userID string) *Player {
	if idx := s.PlayerIndex(userID); idx >= 0 {
		return &s.Players[idx]
	}
	return nil
}

// NextPlayer returns the seat after userID in list order, wrapping. Nobody is
// skipped: disconnected and bot seats still take their turns.
func (s *Session) NextPlayer(userID string) string {
	idx := s.PlayerIndex(userID)
	if idx < 0 || len(s.Players) == 0 {
		return ""
	}
	return s.Players[(idx+1)%len(s.Players)].UserID
}

// AdvanceTurn hands the turn to the next seat, clears any pending dice and
// restarts the turn clock.
func (s *Session) AdvanceTurn(now time.Time, turnTime time.Duration) string {
	next := s.NextPlayer(s.CurrentTurn)
	if next == "" {
		return ""
	}
	s.CurrentTurn = next
	s.DiceValue = nil
	s.TurnDeadline = now.Add(turnTime)
	return next
}

// DisconnectedPast lists players whose reconnect grace ran out by now.
func (s *Session) DisconnectedPast(now time.Time, grace time.Duration) []string {
	var out []string
	for _, p := range s.Players {
		if p.ConnectionStatus != ConnDisconnected || p.DisconnectTime == nil {
			continue
		}
		if now.After(p.DisconnectTime.Add(grace)) {
			out = append(out, p.UserID)
		}
	}
	return out
}

// ReplaceWithBot hands a disconnected seat to the bot. It reports false for
// any other seat state.
func (s *Session) ReplaceWithBot(userID string) bool {
	p := s.Player(userID)
	if p == nil || p.ConnectionStatus != ConnDisconnected {
		return false
	}
	p.ConnectionStatus = ConnBot
	p.DisconnectTime = nil
	return true
}

// Leader returns the first player with every token finished.
func (s *Session) Leader() string {
	for _, p := range s.Players {
		if p.FinishedCount == TokensPerPlayer {
			return p.UserID
		}
	}
	return ""
}

func (s *Session) TurnExpired(now time.Time) bool {
	return !s.TurnDeadline.IsZero() && now.After(s.TurnDeadline)
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		if p.DisconnectTime != nil {
			t := *p.DisconnectTime
			p.DisconnectTime = &t
		}
		out.Players[i] = p
	}
	if s.DiceValue != nil {
		d := *s.DiceValue
		out.DiceValue = &d
	}
	return &out
}

// Validate checks the structural invariants of a snapshot loaded from a store.
func (s *Session) Validate() error {
	if s.Mode.Seats() != len(s.Players) {
		return fmt.Errorf("%w: %d players for mode %s", ErrInvalidSession, len(s.Players), s.Mode)
	}
	if s.Status == StatusPlaying && s.PlayerIndex(s.CurrentTurn) < 0 {
		return fmt.Errorf("%w: current turn %q is not seated", ErrInvalidSession, s.CurrentTurn)
	}
	if s.DiceValue != nil && (*s.DiceValue < 1 || *s.DiceValue > 6) {
		return fmt.Errorf("%w: dice value %d", ErrInvalidSession, *s.DiceValue)
	}
	for _, p := range s.Players {
		finished := 0
		for _, pos := range p.Tokens {
			if pos < HomePosition || pos > FinishPosition {
				return fmt.Errorf("%w: token at %d for %s", ErrInvalidSession, pos, p.UserID)
			}
			if pos == FinishPosition {
				finished++
			}
		}
		if finished != p.FinishedCount {
			return fmt.Errorf("%w: finished count %d != %d for %s", ErrInvalidSession, p.FinishedCount, finished, p.UserID)
		}
	}
	return nil
}

type Profile struct {
	UserID    string    `json:"user_id" bson:"_id"`
	Coins     int64     `json:"coins" bson:"coins"`
	Wins      int       `json:"wins" bson:"wins"`
	Losses    int       `json:"losses" bson:"losses"`
	WinStreak int       `json:"win_streak" bson:"win_streak"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

type PlayerResult struct {
	UserID string `json:"user_id" bson:"user_id"`
	Result Result `json:"result" bson:"result"`
}

// MatchRecord is the immutable history entry written once per finished session.
type MatchRecord struct {
	ID        string         `json:"id" bson:"_id"`
	MatchID   string         `json:"match_id" bson:"match_id"`
	Mode      Mode           `json:"mode" bson:"mode"`
	Players   []PlayerResult `json:"players" bson:"players"`
	WinnerID  string         `json:"winner_id" bson:"winner_id"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}
