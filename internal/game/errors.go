package game

import (
	"errors"
	"fmt"
)

// Kind groups failures by how callers are expected to react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindState
	KindConcurrency
	KindPersistence
	KindSettlement
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindConcurrency:
		return "concurrency"
	case KindPersistence:
		return "persistence"
	case KindSettlement:
		return "settlement"
	default:
		return "unknown"
	}
}

type codedError struct {
	code string
	kind Kind
}

func (e *codedError) Error() string { return e.code }

func newError(kind Kind, code string) error {
	return &codedError{code: code, kind: kind}
}

var (
	ErrInvalidTurn       = newError(KindValidation, "invalid_turn")
	ErrInvalidTokenIndex = newError(KindValidation, "invalid_token_index")
	ErrTokenFinished     = newError(KindValidation, "token_finished")
	ErrInvalidMove       = newError(KindValidation, "invalid_move")
	ErrNeedSixToOpen     = newError(KindValidation, "need_six_to_open")
	ErrPlayerNotFound    = newError(KindValidation, "player_not_found")
	ErrInvalidSession    = newError(KindValidation, "invalid_session")

	ErrGameNotActive     = newError(KindState, "game_not_active")
	ErrDiceAlreadyRolled = newError(KindState, "dice_already_rolled")
	ErrDiceNotRolled     = newError(KindState, "dice_not_rolled")
	ErrSessionNotFound   = newError(KindState, "session_not_found")
	ErrProfileNotFound   = newError(KindState, "profile_not_found")

	ErrLockUnavailable = newError(KindConcurrency, "lock_unavailable")
)

// PersistenceError wraps a store failure. A roll or move that hits one has
// not been written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// SettlementError reports payout steps that failed after the session was
// already marked finished. The caller owns retry or compensation.
type SettlementError struct {
	SessionID string
	WinnerID  string
	Failed    []string
	Err       error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement %s incomplete (failed=%v): %v", e.SessionID, e.Failed, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// KindOf classifies err. Wrapped errors are unwrapped; the outermost known
// classification wins.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *SettlementError
	if errors.As(err, &se) {
		return KindSettlement
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return KindPersistence
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.kind
	}
	return KindUnknown
}

// Code returns the stable snake_case code for err, or "internal_error".
func Code(err error) string {
	var ce *codedError
	switch {
	case errors.As(err, &ce):
		return ce.code
	case KindOf(err) == KindPersistence:
		return "persistence_error"
	case KindOf(err) == KindSettlement:
		return "settlement_incomplete"
	default:
		return "internal_error"
	}
}
