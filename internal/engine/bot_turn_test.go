package engine

import (
	"context"
	"testing"

	"ludo-arena/internal/game"
)

func TestBotTurnRepeatsOnBonusThenHandsOver(t *testing.T) {
	h := newHarness(t, scriptedDice(6, 4))
	h.seed(t, func(s *game.Session) {
		s.Players[0].ConnectionStatus = game.ConnBot
	})

	if !h.engine.StartBotTurn("s1") {
		t.Fatal("bot turn did not start")
	}
	waitFor(t, "turn to reach b", func() bool { return h.session(t).CurrentTurn == "b" })
	waitFor(t, "bot loop exit", func() bool { return !h.engine.BotTurnRunning("s1") })

	s := h.session(t)
	if s.Players[0].Tokens[0] != 4 {
		t.Fatalf("bot tokens = %v, want token0 opened then moved to 4", s.Players[0].Tokens)
	}
	if got := h.events.count(game.EventDiceRolled); got != 2 {
		t.Fatalf("dice events = %d, want 2 (%v)", got, h.events.kinds())
	}
	if got := h.events.count(game.EventTokenMoved); got != 2 {
		t.Fatalf("move events = %d, want 2", got)
	}
}

func TestBotPassesWhenNoLegalMove(t *testing.T) {
	h := newHarness(t, scriptedDice(3))
	h.seed(t, func(s *game.Session) {
		s.Players[0].ConnectionStatus = game.ConnBot
	})

	h.engine.StartBotTurn("s1")
	waitFor(t, "bot loop exit", func() bool {
		return !h.engine.BotTurnRunning("s1") && h.session(t).CurrentTurn == "b"
	})
	if h.session(t).DiceValue != nil {
		t.Fatal("dice left set after pass")
	}
	if got := h.events.count(game.EventTurnSkipped); got != 1 {
		t.Fatalf("skip events = %d (%v)", got, h.events.kinds())
	}
}

func TestBotFinishesPendingMoveAfterRestart(t *testing.T) {
	h := newHarness(t, scriptedDice(1))
	h.seed(t, func(s *game.Session) {
		d := 5
		s.DiceValue = &d
		s.Players[0].Tokens[2] = 10
		s.Players[0].ConnectionStatus = game.ConnBot
	})

	h.engine.StartBotTurn("s1")
	waitFor(t, "pending move", func() bool { return h.session(t).CurrentTurn == "b" })
	if got := h.session(t).Players[0].Tokens[2]; got != 15 {
		t.Fatalf("token2 = %d, want 15", got)
	}
	if h.events.count(game.EventDiceRolled) != 0 {
		t.Fatal("bot re-rolled a pending dice value")
	}
}

func TestBotStopsForHumanSeat(t *testing.T) {
	h := newHarness(t, scriptedDice(6))
	h.engine.StartBotTurn("s1")
	waitFor(t, "bot loop exit", func() bool { return !h.engine.BotTurnRunning("s1") })
	if h.session(t).DiceValue != nil {
		t.Fatal("bot rolled for a human seat")
	}
}

func TestHumanMoveHandsTurnToBot(t *testing.T) {
	h := newHarness(t, scriptedDice(2, 3))
	ctx := context.Background()
	h.seed(t, func(s *game.Session) {
		s.Players[0].Tokens[0] = 20
		s.Players[1].ConnectionStatus = game.ConnBot
	})

	if _, err := h.engine.Roll(ctx, "s1", "a"); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if _, err := h.engine.Move(ctx, "s1", "a", 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	waitFor(t, "bot pass back to a", func() bool {
		return h.session(t).CurrentTurn == "a" && !h.engine.BotTurnRunning("s1")
	})
	if h.events.count(game.EventTurnSkipped) != 1 {
		t.Fatalf("events = %v", h.events.kinds())
	}
}

func TestCloseRefusesNewBotTurns(t *testing.T) {
	h := newHarness(t, scriptedDice(3))
	h.engine.Close()
	if h.engine.StartBotTurn("s1") {
		t.Fatal("closed engine started a bot turn")
	}
}

func TestReconnectStopsBotAndDisconnectKeepsBot(t *testing.T) {
	h := newHarness(t, scriptedDice(3))
	ctx := context.Background()

	if err := h.engine.MarkDisconnected(ctx, "s1", "b"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	p := h.session(t).Player("b")
	if p.ConnectionStatus != game.ConnDisconnected || p.DisconnectTime == nil || !p.DisconnectTime.Equal(testNow) {
		t.Fatalf("player after disconnect = %+v", p)
	}

	h.seed(t, func(s *game.Session) { s.ReplaceWithBot("b") })
	if err := h.engine.MarkDisconnected(ctx, "s1", "b"); err != nil {
		t.Fatalf("disconnect bot: %v", err)
	}
	if h.session(t).Player("b").ConnectionStatus != game.ConnBot {
		t.Fatal("disconnect must not take a seat back from the bot")
	}

	if err := h.engine.MarkReconnected(ctx, "s1", "b"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	p = h.session(t).Player("b")
	if p.ConnectionStatus != game.ConnActive || p.DisconnectTime != nil {
		t.Fatalf("player after reconnect = %+v", p)
	}
	if err := h.engine.MarkReconnected(ctx, "s1", "zz"); err == nil {
		t.Fatal("expected player_not_found")
	}
}
