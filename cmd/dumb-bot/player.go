package main

import (
	"encoding/json"
	"strconv"

	"ludo-arena/internal/bot"
	"ludo-arena/internal/game"
	"ludo-arena/internal/game/viewmodel"
	"ludo-arena/internal/ws"

	"github.com/rs/zerolog/log"
)

type player struct {
	userID string
	seq    int
	winner string
}

func newPlayer(userID string) *player {
	return &player{userID: userID}
}

type inbound struct {
	Type    string                 `json:"type"`
	Ok      bool                   `json:"ok"`
	Error   string                 `json:"error"`
	Session *viewmodel.SessionView `json:"session"`
	Data    *struct {
		Session *viewmodel.SessionView `json:"session"`
	} `json:"data"`
	Event *struct {
		Event game.EventKind  `json:"event"`
		Data  json.RawMessage `json:"data"`
	} `json:"event"`
}

// handle reacts to one server message. It returns the message to send, if
// any, and whether the game is over.
func (p *player) handle(raw []byte) ([]byte, bool) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	switch msg.Type {
	case "welcome":
		return p.act(msg.Session)
	case "action_result", "join_result":
		if !msg.Ok {
			log.Warn().Str("error", msg.Error).Msg("action rejected")
			return nil, msg.Type == "join_result"
		}
		if msg.Data != nil {
			return p.act(msg.Data.Session)
		}
	case "event":
		if msg.Event == nil {
			return nil, false
		}
		return p.onEvent(msg.Event.Event, msg.Event.Data)
	}
	return nil, false
}

func (p *player) onEvent(kind game.EventKind, data json.RawMessage) ([]byte, bool) {
	switch kind {
	case game.EventGameFinished:
		var ev game.GameFinished
		_ = json.Unmarshal(data, &ev)
		p.winner = ev.Winner
		return nil, true
	case game.EventTokenMoved:
		var ev game.TokenMoved
		if json.Unmarshal(data, &ev) == nil && ev.Player != p.userID && ev.NextTurn == p.userID && ev.Winner == "" {
			return p.request(ws.TypeRollDice, nil), false
		}
	case game.EventTurnSkipped:
		var ev game.TurnSkipped
		if json.Unmarshal(data, &ev) == nil && ev.NextTurn == p.userID {
			return p.request(ws.TypeRollDice, nil), false
		}
	}
	return nil, false
}

// act decides from a snapshot: roll when it is our turn with no dice, move
// when our roll is pending.
func (p *player) act(view *viewmodel.SessionView) ([]byte, bool) {
	if view == nil {
		return nil, false
	}
	if view.Status != string(game.StatusPlaying) {
		p.winner = view.Winner
		return nil, true
	}
	if view.CurrentTurn != p.userID {
		return nil, false
	}
	if view.DiceValue == nil {
		return p.request(ws.TypeRollDice, nil), false
	}
	idx, ok := bot.ChooseToken(sessionFromView(view), p.userID, *view.DiceValue)
	if !ok {
		log.Info().Int("dice", *view.DiceValue).Msg("no legal move, waiting for the turn to pass")
		return nil, false
	}
	return p.request(ws.TypeMoveToken, &idx), false
}

func (p *player) request(kind string, tokenIndex *int) []byte {
	p.seq++
	msg, _ := json.Marshal(ws.ActionMessage{Type: kind, RequestID: "bot-" + strconv.Itoa(p.seq), TokenIndex: tokenIndex})
	return msg
}

// sessionFromView rebuilds the parts of a session the move choice reads.
func sessionFromView(v *viewmodel.SessionView) *game.Session {
	s := &game.Session{
		ID:          v.SessionID,
		Mode:        game.Mode(v.Mode),
		Status:      game.Status(v.Status),
		CurrentTurn: v.CurrentTurn,
		DiceValue:   v.DiceValue,
	}
	for _, seat := range v.Seats {
		s.Players = append(s.Players, game.Player{
			UserID:           seat.UserID,
			Color:            seat.Color,
			Tokens:           seat.Tokens,
			FinishedCount:    seat.FinishedCount,
			ConnectionStatus: game.ConnectionStatus(seat.ConnectionStatus),
		})
	}
	return s
}
