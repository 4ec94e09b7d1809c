package ws

import (
	"ludo-arena/internal/game/viewmodel"
	"ludo-arena/internal/notify"
)

const ProtocolVersion = "1.0"

const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// Inbound message types.
const (
	TypeRollDice  = "roll_dice"
	TypeMoveToken = "move_token"
	TypeReconnect = "reconnect"
)

const maxRequestIDLen = 64

type ActionMessage struct {
	Type       string `json:"type"`
	RequestID  string `json:"request_id"`
	TokenIndex *int   `json:"token_index,omitempty"`
}

type Welcome struct {
	Type            string                 `json:"type"`
	ProtocolVersion string                 `json:"protocol_version"`
	ConnectionID    string                 `json:"connection_id"`
	Role            string                 `json:"role"`
	UserID          string                 `json:"user_id,omitempty"`
	Session         *viewmodel.SessionView `json:"session"`
}

type ActionResult struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Action          string `json:"action,omitempty"`
	Ok              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
	Data            any    `json:"data,omitempty"`
}

type EventMessage struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	Event           notify.StreamEvent `json:"event"`
}
