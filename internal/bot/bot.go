// Package bot picks moves for seats that are played by the server.
package bot

import "ludo-arena/internal/game"

// ChooseToken returns the token index the bot moves for actor with dice, or
// false when no token can legally move.
//
// A move that lands on an opponent token wins first, lowest index on ties.
// Otherwise the move that ends furthest along the track wins, again lowest
// index on ties. Only the immediate move is considered.
func ChooseToken(s *game.Session, actor string, dice int) (int, bool) {
	if s == nil {
		return 0, false
	}
	p := s.Player(actor)
	moves := game.LegalMoves(p, dice)
	if len(moves) == 0 {
		return 0, false
	}

	occupied := opponentCells(s, actor)
	for _, m := range moves {
		if _, ok := occupied[m.Target]; ok {
			return m.TokenIndex, true
		}
	}

	best := moves[0]
	for _, m := range moves[1:] {
		if m.Target > best.Target {
			best = m
		}
	}
	return best.TokenIndex, true
}

// opponentCells collects the cells other players occupy. The finish cell
// counts because a landing there captures like any other unsafe cell.
func opponentCells(s *game.Session, actor string) map[int]struct{} {
	out := make(map[int]struct{})
	for _, p := range s.Players {
		if p.UserID == actor {
			continue
		}
		for _, pos := range p.Tokens {
			if pos != game.HomePosition {
				out[pos] = struct{}{}
			}
		}
	}
	return out
}
