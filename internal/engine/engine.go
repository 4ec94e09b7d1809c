// Package engine applies player actions to persisted sessions. Every
// mutation reloads the latest snapshot under the session lock, validates it,
// and writes back only the fields it changed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ludo-arena/internal/game"
	"ludo-arena/internal/sessionlock"
	"ludo-arena/internal/store"

	"github.com/rs/zerolog/log"
)

type SessionStore interface {
	GetSession(ctx context.Context, id string) (*game.Session, error)
	UpdateSession(ctx context.Context, s *game.Session, fields ...game.Field) error
	// ClaimFinish flips status from playing to finished and records the
	// winner. It reports false when the session was already finished.
	ClaimFinish(ctx context.Context, id, winnerID string) (bool, error)
}

type ProfileStore interface {
	// ApplyProfileResult adds one outcome atomically. A user seated in several
	// sessions may be settled by more than one of them at once.
	ApplyProfileResult(ctx context.Context, userID string, d game.ResultDelta) error
}

type HistoryStore interface {
	InsertMatchRecord(ctx context.Context, rec game.MatchRecord) error
}

// Notifier delivers events to everyone watching a session. Delivery is best
// effort and never fails the action that produced the event.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, ev game.Event)
}

type Config struct {
	TurnTime      time.Duration
	BotThinkDelay time.Duration
	BotMoveDelay  time.Duration
	Economy       game.Economy
}

type Deps struct {
	Sessions SessionStore
	Profiles ProfileStore
	History  HistoryStore
	Locks    *sessionlock.Registry
	Notifier Notifier
}

type Option func(*Engine)

// WithDice replaces the dice source. fn must return values in 1..6.
func WithDice(fn func() int) Option { return func(e *Engine) { e.dice = fn } }

func WithClock(fn func() time.Time) Option { return func(e *Engine) { e.now = fn } }

func WithIDs(fn func() string) Option { return func(e *Engine) { e.newID = fn } }

type Engine struct {
	sessions SessionStore
	profiles ProfileStore
	history  HistoryStore
	locks    *sessionlock.Registry
	notifier Notifier
	cfg      Config

	dice  func() int
	now   func() time.Time
	newID func() string

	bots botRunner
}

func New(deps Deps, cfg Config, opts ...Option) *Engine {
	if cfg.TurnTime <= 0 {
		cfg.TurnTime = 30 * time.Second
	}
	if cfg.Economy == (game.Economy{}) {
		cfg.Economy = game.DefaultEconomy()
	}
	e := &Engine{
		sessions: deps.Sessions,
		profiles: deps.Profiles,
		history:  deps.History,
		locks:    deps.Locks,
		notifier: deps.Notifier,
		cfg:      cfg,
		dice:     newDice(),
		now:      time.Now,
		newID:    store.NewID,
	}
	if e.locks == nil {
		e.locks = sessionlock.New(0)
	}
	if e.notifier == nil {
		e.notifier = discard{}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.bots.init()
	return e
}

func (e *Engine) TurnTime() time.Duration { return e.cfg.TurnTime }

func newDice() func() int {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return rng.Intn(6) + 1
	}
}

type discard struct{}

func (discard) Notify(context.Context, string, game.Event) {}

// withSession runs fn on a fresh snapshot of id while holding its lock.
func (e *Engine) withSession(ctx context.Context, id string, fn func(ctx context.Context, s *game.Session) error) error {
	return e.locks.With(ctx, id, func(ctx context.Context) error {
		s, err := e.load(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}

func (e *Engine) load(ctx context.Context, id string) (*game.Session, error) {
	s, err := e.sessions.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, game.ErrSessionNotFound) {
			return nil, game.ErrSessionNotFound
		}
		return nil, game.Persistence("get session", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return s, nil
}

func (e *Engine) save(ctx context.Context, s *game.Session, fields ...game.Field) error {
	return game.Persistence("update session", e.sessions.UpdateSession(ctx, s, fields...))
}

// Session returns the latest persisted snapshot without locking.
func (e *Engine) Session(ctx context.Context, id string) (*game.Session, error) {
	return e.load(ctx, id)
}

// RollDice draws a die for actor and stores it. Nothing is written unless the
// roll is allowed.
func (e *Engine) RollDice(ctx context.Context, sessionID, actor string) (int, error) {
	return e.rollDice(ctx, sessionID, actor, false)
}

func (e *Engine) rollDice(ctx context.Context, sessionID, actor string, botOnly bool) (int, error) {
	var dice int
	err := e.withSession(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		if err := game.ValidateRoll(s, actor); err != nil {
			return err
		}
		if botOnly && !isBot(s, actor) {
			return errNotBot
		}
		dice = e.dice()
		s.DiceValue = &dice
		s.TurnDeadline = e.now().Add(e.cfg.TurnTime)
		return e.save(ctx, s, game.FieldDiceValue, game.FieldTurnDeadline)
	})
	if err != nil {
		metricActionErrors.Add(1)
		return 0, err
	}
	metricDiceRolls.Add(1)
	return dice, nil
}

// MoveToken applies actor's move of tokenIndex by the stored dice value. A
// winning move settles the game before returning; a settlement failure comes
// back as *game.SettlementError alongside the applied outcome.
func (e *Engine) MoveToken(ctx context.Context, sessionID, actor string, tokenIndex int) (game.MoveOutcome, error) {
	return e.moveToken(ctx, sessionID, actor, tokenIndex, false)
}

func (e *Engine) moveToken(ctx context.Context, sessionID, actor string, tokenIndex int, botOnly bool) (game.MoveOutcome, error) {
	var (
		out       game.MoveOutcome
		settleErr error
	)
	err := e.withSession(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		if botOnly && !isBot(s, actor) {
			return errNotBot
		}
		next := s.Clone()
		o, err := game.ApplyMove(next, actor, tokenIndex, e.now(), e.cfg.TurnTime)
		if err != nil {
			return err
		}
		if err := e.save(ctx, next, game.TurnFields...); err != nil {
			return err
		}
		out = o
		if o.Winner != "" {
			settleErr = e.finishLocked(ctx, next, o.Winner)
		}
		return nil
	})
	if err != nil {
		metricActionErrors.Add(1)
		return game.MoveOutcome{}, err
	}
	metricMoves.Add(1)
	if out.CaptureHappened {
		metricCaptures.Add(int64(len(out.Captured)))
	}
	return out, settleErr
}

// FinishGame settles sessionID in favour of winnerID. It pays out at most
// once per session: a second call finds the session already finished and
// does nothing.
func (e *Engine) FinishGame(ctx context.Context, sessionID, winnerID string) error {
	var settleErr error
	err := e.withSession(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		if s.PlayerIndex(winnerID) < 0 {
			return game.ErrPlayerNotFound
		}
		settleErr = e.finishLocked(ctx, s, winnerID)
		return nil
	})
	if err != nil {
		return err
	}
	return settleErr
}

// finishLocked marks s finished and pays out. The caller holds the lock.
func (e *Engine) finishLocked(ctx context.Context, s *game.Session, winnerID string) error {
	claimed, err := e.sessions.ClaimFinish(ctx, s.ID, winnerID)
	if err != nil {
		metricSettlementFailures.Add(1)
		return &game.SettlementError{SessionID: s.ID, WinnerID: winnerID, Failed: []string{"status"}, Err: game.Persistence("claim finish", err)}
	}
	if !claimed {
		log.Debug().Str("session_id", s.ID).Msg("session already finished; settlement skipped")
		return nil
	}
	s.Status = game.StatusFinished
	s.Winner = winnerID
	metricGamesFinished.Add(1)

	var (
		failed []string
		errs   []error
	)
	now := e.now()
	for _, p := range s.Players {
		if err := e.settlePlayer(ctx, p.UserID, p.UserID == winnerID); err != nil {
			failed = append(failed, p.UserID)
			errs = append(errs, err)
		}
	}
	rec := game.NewMatchRecord(e.newID(), s, winnerID, now)
	if err := e.history.InsertMatchRecord(ctx, rec); err != nil {
		failed = append(failed, "history")
		errs = append(errs, game.Persistence("insert match record", err))
	}
	if len(errs) > 0 {
		metricSettlementFailures.Add(1)
		err := &game.SettlementError{SessionID: s.ID, WinnerID: winnerID, Failed: failed, Err: errors.Join(errs...)}
		log.Error().Err(err).Str("session_id", s.ID).Strs("failed", failed).Msg("settlement incomplete")
		return err
	}
	log.Info().Str("session_id", s.ID).Str("winner", winnerID).Msg("game settled")
	return nil
}

func (e *Engine) settlePlayer(ctx context.Context, userID string, won bool) error {
	err := e.profiles.ApplyProfileResult(ctx, userID, e.cfg.Economy.Delta(won))
	if errors.Is(err, game.ErrProfileNotFound) {
		log.Warn().Str("user_id", userID).Msg("no profile to settle")
		return nil
	}
	return game.Persistence("update profile "+userID, err)
}

// Roll is RollDice followed by event delivery, for transports.
func (e *Engine) Roll(ctx context.Context, sessionID, actor string) (int, error) {
	dice, err := e.RollDice(ctx, sessionID, actor)
	if err != nil {
		return 0, err
	}
	e.notifier.Notify(ctx, sessionID, game.DiceRolledEvent(actor, dice))
	return dice, nil
}

// Move is MoveToken followed by event delivery. When the turn lands on a
// bot seat the bot starts playing it.
func (e *Engine) Move(ctx context.Context, sessionID, actor string, tokenIndex int) (game.MoveOutcome, error) {
	out, err := e.MoveToken(ctx, sessionID, actor, tokenIndex)
	if err != nil && game.KindOf(err) != game.KindSettlement {
		return out, err
	}
	e.announceMove(ctx, sessionID, out)
	if out.Winner == "" {
		e.StartBotTurnIfDue(ctx, sessionID)
	}
	return out, err
}

func (e *Engine) announceMove(ctx context.Context, sessionID string, out game.MoveOutcome) {
	e.notifier.Notify(ctx, sessionID, game.TokenMovedEvent(out))
	if out.Winner != "" {
		e.notifier.Notify(ctx, sessionID, game.GameFinishedEvent(out.Winner))
	}
}

func isBot(s *game.Session, userID string) bool {
	p := s.Player(userID)
	return p != nil && p.IsBot()
}
