package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"ludo-arena/internal/bot"
	"ludo-arena/internal/game"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// errNotBot stops a bot action when the seat has been handed back to its
// player between two steps.
var errNotBot = errors.New("seat_not_bot_controlled")

// botRunner tracks at most one bot turn loop per session.
type botRunner struct {
	mu       sync.Mutex
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inflight map[string]struct{}
}

func (b *botRunner) init() {
	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.inflight = make(map[string]struct{})
}

// StartBotTurn plays sessionID's turns for as long as they belong to bot
// seats. It returns false when a loop for the session is already running or
// the engine is closed.
func (e *Engine) StartBotTurn(sessionID string) bool {
	b := &e.bots
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if _, running := b.inflight[sessionID]; running {
		return false
	}
	b.inflight[sessionID] = struct{}{}
	b.wg.Add(1)
	metricBotTurnsStarted.Add(1)
	metricBotTurnsActive.Add(1)
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.inflight, sessionID)
			b.mu.Unlock()
			metricBotTurnsActive.Add(-1)
			b.wg.Done()
		}()
		e.playBotTurns(b.ctx, sessionID)
	}()
	return true
}

// StartBotTurnIfDue starts the bot loop when the current seat is bot
// controlled.
func (e *Engine) StartBotTurnIfDue(ctx context.Context, sessionID string) bool {
	s, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil || s.Status != game.StatusPlaying || !isBot(s, s.CurrentTurn) {
		return false
	}
	return e.StartBotTurn(sessionID)
}

// BotTurnRunning reports whether a bot loop is active for sessionID.
func (e *Engine) BotTurnRunning(sessionID string) bool {
	e.bots.mu.Lock()
	defer e.bots.mu.Unlock()
	_, ok := e.bots.inflight[sessionID]
	return ok
}

// Close stops all bot loops and waits for them to return. Locks held by a
// loop are released on the way out.
func (e *Engine) Close() {
	b := &e.bots
	b.mu.Lock()
	b.closed = true
	b.cancel()
	b.mu.Unlock()
	b.wg.Wait()
}

// playBotTurns is the bot's turn loop. Each roll, move or pass takes the
// session lock on its own, so nothing is held across the delays or across
// bonus turns.
func (e *Engine) playBotTurns(ctx context.Context, sessionID string) {
	logger := log.With().Str("session_id", sessionID).Logger()
	for {
		s, err := e.load(ctx, sessionID)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn().Err(err).Msg("bot turn: load session failed")
			}
			return
		}
		actor := s.CurrentTurn
		if s.Status != game.StatusPlaying || !isBot(s, actor) {
			return
		}

		dice := 0
		if s.DiceValue != nil {
			dice = *s.DiceValue
		} else {
			if !sleepCtx(ctx, e.cfg.BotThinkDelay) {
				return
			}
			dice, err = e.rollDice(ctx, sessionID, actor, true)
			if err != nil {
				logBotStop(logger, actor, "roll", err)
				return
			}
			e.notifier.Notify(ctx, sessionID, game.DiceRolledEvent(actor, dice))
		}

		if !sleepCtx(ctx, e.cfg.BotMoveDelay) {
			return
		}
		s, err = e.load(ctx, sessionID)
		if err != nil {
			logBotStop(logger, actor, "reload", err)
			return
		}
		idx, ok := bot.ChooseToken(s, actor, dice)
		if !ok {
			next, err := e.passTurn(ctx, sessionID, actor)
			if err != nil {
				logBotStop(logger, actor, "pass", err)
				return
			}
			metricBotPasses.Add(1)
			e.notifier.Notify(ctx, sessionID, game.TurnSkippedEvent(actor, next, game.SkipReasonNoMove))
			continue
		}

		out, err := e.moveToken(ctx, sessionID, actor, idx, true)
		if err != nil && game.KindOf(err) != game.KindSettlement {
			logBotStop(logger, actor, "move", err)
			return
		}
		e.announceMove(ctx, sessionID, out)
		if out.Winner != "" {
			return
		}
	}
}

// passTurn ends a bot's turn that has a roll but no legal move.
func (e *Engine) passTurn(ctx context.Context, sessionID, actor string) (string, error) {
	var next string
	err := e.withSession(ctx, sessionID, func(ctx context.Context, s *game.Session) error {
		if s.Status != game.StatusPlaying {
			return game.ErrGameNotActive
		}
		if s.CurrentTurn != actor {
			return game.ErrInvalidTurn
		}
		if s.DiceValue == nil {
			return game.ErrDiceNotRolled
		}
		if !isBot(s, actor) {
			return errNotBot
		}
		if len(game.LegalMoves(s.Player(actor), *s.DiceValue)) > 0 {
			return game.ErrInvalidMove
		}
		next = s.AdvanceTurn(e.now(), e.cfg.TurnTime)
		return e.save(ctx, s, game.FieldCurrentTurn, game.FieldDiceValue, game.FieldTurnDeadline)
	})
	return next, err
}

func logBotStop(logger zerolog.Logger, actor, step string, err error) {
	if errors.Is(err, errNotBot) || errors.Is(err, context.Canceled) {
		logger.Debug().Str("user_id", actor).Str("step", step).Msg("bot turn stopped")
		return
	}
	logger.Warn().Err(err).Str("user_id", actor).Str("step", step).Msg("bot turn aborted")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
