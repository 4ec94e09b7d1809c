package game

type EventKind string

const (
	EventDiceRolled          EventKind = "dice_rolled"
	EventTokenMoved          EventKind = "token_moved"
	EventTurnSkipped         EventKind = "turn_skipped"
	EventPlayerReplacedByBot EventKind = "player_replaced_by_bot"
	EventGameFinished        EventKind = "game_finished"
)

// Event is one state change fanned out to the players and spectators of a
// session.
type Event struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload"`
}

type DiceRolled struct {
	Player string `json:"player"`
	Dice   int    `json:"dice"`
}

type TokenMoved struct {
	Player     string `json:"player"`
	TokenIndex int    `json:"token_index"`
	Position   int    `json:"position"`
	Capture    bool   `json:"capture"`
	Bonus      bool   `json:"bonus"`
	NextTurn   string `json:"next_turn"`
	Winner     string `json:"winner,omitempty"`
}

type TurnSkipped struct {
	Player   string `json:"player"`
	NextTurn string `json:"next_turn"`
	Reason   string `json:"reason"`
}

type PlayerReplacedByBot struct {
	Player string `json:"player"`
}

type GameFinished struct {
	Winner string `json:"winner"`
}

const (
	SkipReasonTimeout = "turn_timeout"
	SkipReasonNoMove  = "no_legal_move"
)

func DiceRolledEvent(player string, dice int) Event {
	return Event{Kind: EventDiceRolled, Payload: DiceRolled{Player: player, Dice: dice}}
}

func TokenMovedEvent(o MoveOutcome) Event {
	return Event{Kind: EventTokenMoved, Payload: TokenMoved{
		Player:     o.Player,
		TokenIndex: o.TokenIndex,
		Position:   o.NewPosition,
		Capture:    o.CaptureHappened,
		Bonus:      o.BonusTurn,
		NextTurn:   o.NextTurn,
		Winner:     o.Winner,
	}}
}

func TurnSkippedEvent(player, next, reason string) Event {
	return Event{Kind: EventTurnSkipped, Payload: TurnSkipped{Player: player, NextTurn: next, Reason: reason}}
}

func PlayerReplacedByBotEvent(player string) Event {
	return Event{Kind: EventPlayerReplacedByBot, Payload: PlayerReplacedByBot{Player: player}}
}

func GameFinishedEvent(winner string) Event {
	return Event{Kind: EventGameFinished, Payload: GameFinished{Winner: winner}}
}
