package main

import (
	"encoding/json"
	"testing"
	"time"

	"ludo-arena/internal/game"
	"ludo-arena/internal/game/viewmodel"
	"ludo-arena/internal/ws"
)

func viewFor(t *testing.T, dice *int, mutate func(s *game.Session)) *viewmodel.SessionView {
	t.Helper()
	now := time.Unix(1700000000, 0)
	s, err := game.NewSession("s1", game.ModeTwoPlayer, []string{"bot", "ann"}, now, 30*time.Second)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.DiceValue = dice
	if mutate != nil {
		mutate(s)
	}
	v := viewmodel.BuildSessionView(s, now)
	return &v
}

func decode(t *testing.T, raw []byte) ws.ActionMessage {
	t.Helper()
	if raw == nil {
		t.Fatal("expected a reply")
	}
	var msg ws.ActionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return msg
}

func TestWelcomeOnOwnTurnRolls(t *testing.T) {
	p := newPlayer("bot")
	raw, _ := json.Marshal(ws.Welcome{Type: "welcome", Session: viewFor(t, nil, nil)})
	reply, done := p.handle(raw)
	if done {
		t.Fatal("not done yet")
	}
	if msg := decode(t, reply); msg.Type != ws.TypeRollDice || msg.RequestID == "" {
		t.Fatalf("reply = %+v", msg)
	}
}

func TestRollResultMovesChosenToken(t *testing.T) {
	p := newPlayer("bot")
	dice := 4
	view := viewFor(t, &dice, func(s *game.Session) {
		s.Players[0].Tokens = [4]int{3, 10, game.HomePosition, game.HomePosition}
		s.Players[1].Tokens = [4]int{14, game.HomePosition, game.HomePosition, game.HomePosition}
	})
	raw, _ := json.Marshal(ws.ActionResult{Type: "action_result", Ok: true, Data: map[string]any{"dice": 4, "session": view}})
	msg := decode(t, mustReply(t, p, raw))
	if msg.Type != ws.TypeMoveToken || msg.TokenIndex == nil || *msg.TokenIndex != 1 {
		t.Fatalf("reply = %+v", msg)
	}
}

func TestOpponentMoveHandsTurnToBot(t *testing.T) {
	p := newPlayer("bot")
	ev := map[string]any{"type": "event", "event": map[string]any{
		"event": game.EventTokenMoved,
		"data":  game.TokenMoved{Player: "ann", NextTurn: "bot"},
	}}
	raw, _ := json.Marshal(ev)
	if msg := decode(t, mustReply(t, p, raw)); msg.Type != ws.TypeRollDice {
		t.Fatalf("reply = %+v", msg)
	}
}

func TestGameFinishedStops(t *testing.T) {
	p := newPlayer("bot")
	raw, _ := json.Marshal(map[string]any{"type": "event", "event": map[string]any{
		"event": game.EventGameFinished,
		"data":  game.GameFinished{Winner: "ann"},
	}})
	reply, done := p.handle(raw)
	if reply != nil || !done || p.winner != "ann" {
		t.Fatalf("reply=%s done=%v winner=%q", reply, done, p.winner)
	}
}

func mustReply(t *testing.T, p *player, raw []byte) []byte {
	t.Helper()
	reply, done := p.handle(raw)
	if done {
		t.Fatal("unexpected game over")
	}
	return reply
}
