package game

import "time"

var safeTiles = [...]int{0, 8, 13, 21, 26, 34, 39, 47}

func IsSafeTile(pos int) bool {
	for _, t := range safeTiles {
		if t == pos {
			return true
		}
	}
	return false
}

func SafeTiles() []int {
	out := make([]int, len(safeTiles))
	copy(out, safeTiles[:])
	return out
}

func ValidDice(dice int) bool {
	return dice >= 1 && dice <= 6
}

// TargetPosition computes where a token at pos lands with dice. A home token
// opens only on an exact six. There is no bounce back from the finish cell.
func TargetPosition(pos, dice int) (int, error) {
	switch {
	case pos == FinishPosition:
		return 0, ErrTokenFinished
	case pos == HomePosition:
		if dice != 6 {
			return 0, ErrNeedSixToOpen
		}
		return StartPosition, nil
	}
	next := pos + dice
	if next > FinishPosition {
		return 0, ErrInvalidMove
	}
	return next, nil
}

// ValidateRoll checks whether actor may roll on s.
func ValidateRoll(s *Session, actor string) error {
	if s.Status != StatusPlaying {
		return ErrGameNotActive
	}
	if s.CurrentTurn != actor {
		return ErrInvalidTurn
	}
	if s.Phase() == PhaseAwaitingMove {
		return ErrDiceAlreadyRolled
	}
	return nil
}

// ValidateMove checks a move request against s without touching it and
// returns the mover's seat, the rolled dice and the landing cell.
func ValidateMove(s *Session, actor string, tokenIndex int) (seat, dice, target int, err error) {
	if s.Status != StatusPlaying {
		return -1, 0, 0, ErrGameNotActive
	}
	if s.CurrentTurn != actor {
		return -1, 0, 0, ErrInvalidTurn
	}
	if tokenIndex < 0 || tokenIndex >= TokensPerPlayer {
		return -1, 0, 0, ErrInvalidTokenIndex
	}
	if s.Phase() != PhaseAwaitingMove || s.DiceValue == nil {
		return -1, 0, 0, ErrDiceNotRolled
	}
	seat = s.PlayerIndex(actor)
	if seat < 0 {
		return -1, 0, 0, ErrPlayerNotFound
	}
	dice = *s.DiceValue
	target, err = TargetPosition(s.Players[seat].Tokens[tokenIndex], dice)
	if err != nil {
		return -1, 0, 0, err
	}
	return seat, dice, target, nil
}

type Capture struct {
	UserID     string `json:"user_id"`
	TokenIndex int    `json:"token_index"`
}

type MoveOutcome struct {
	Player          string    `json:"player"`
	TokenIndex      int       `json:"token_index"`
	Dice            int       `json:"dice"`
	NewPosition     int       `json:"new_position"`
	CaptureHappened bool      `json:"capture"`
	Captured        []Capture `json:"captured,omitempty"`
	BonusTurn       bool      `json:"bonus_turn"`
	NextTurn        string    `json:"next_turn"`
	Winner          string    `json:"winner,omitempty"`
}

// ApplyMove validates and applies a move in one step. Nothing on s changes
// unless the move is legal.
//
// Every opponent token on a non-safe landing cell is sent home, not just the
// first one found.
func ApplyMove(s *Session, actor string, tokenIndex int, now time.Time, turnTime time.Duration) (MoveOutcome, error) {
	seat, dice, target, err := ValidateMove(s, actor, tokenIndex)
	if err != nil {
		return MoveOutcome{}, err
	}

	out := MoveOutcome{Player: actor, TokenIndex: tokenIndex, Dice: dice, NewPosition: target}
	if !IsSafeTile(target) {
		for i := range s.Players {
			if i == seat {
				continue
			}
			opp := &s.Players[i]
			for ti, pos := range opp.Tokens {
				if pos == target {
					opp.Tokens[ti] = HomePosition
					out.Captured = append(out.Captured, Capture{UserID: opp.UserID, TokenIndex: ti})
				}
			}
			opp.recountFinished()
		}
	}
	out.CaptureHappened = len(out.Captured) > 0

	mover := &s.Players[seat]
	mover.Tokens[tokenIndex] = target
	mover.recountFinished()
	if mover.FinishedCount == TokensPerPlayer {
		out.Winner = actor
	}

	out.BonusTurn = dice == 6 || out.CaptureHappened
	if !out.BonusTurn {
		s.CurrentTurn = s.NextPlayer(actor)
	}
	s.DiceValue = nil
	s.TurnDeadline = now.Add(turnTime)
	out.NextTurn = s.CurrentTurn
	return out, nil
}

// LegalMove is one candidate for the roller: a token index and where it lands.
type LegalMove struct {
	TokenIndex int `json:"token_index"`
	Target     int `json:"target"`
}

func LegalMoves(p *Player, dice int) []LegalMove {
	if p == nil || !ValidDice(dice) {
		return nil
	}
	out := make([]LegalMove, 0, TokensPerPlayer)
	for i, pos := range p.Tokens {
		target, err := TargetPosition(pos, dice)
		if err != nil {
			continue
		}
		out = append(out, LegalMove{TokenIndex: i, Target: target})
	}
	return out
}
