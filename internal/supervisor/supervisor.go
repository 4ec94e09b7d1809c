// Package supervisor runs the periodic sweep over live sessions: expired
// turns are skipped, seats past their reconnect grace go to the bot and old
// finished sessions are purged.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"ludo-arena/internal/game"
	"ludo-arena/internal/sessionlock"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	GetSession(ctx context.Context, id string) (*game.Session, error)
	UpdateSession(ctx context.Context, s *game.Session, fields ...game.Field) error
	ListPlayingSessionIDs(ctx context.Context) ([]string, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Engine is the part of the game engine the sweep hands work to.
type Engine interface {
	StartBotTurn(sessionID string) bool
	BotTurnRunning(sessionID string) bool
	FinishGame(ctx context.Context, sessionID, winnerID string) error
}

type Notifier interface {
	Notify(ctx context.Context, sessionID string, ev game.Event)
}

// Purger drops per-session state held outside the store, such as event
// buffers, once a session is deleted.
type Purger interface {
	Purge(sessionID string)
}

type Config struct {
	TickInterval    time.Duration
	TurnTime        time.Duration
	ReconnectGrace  time.Duration
	RetentionWindow time.Duration
	Parallelism     int
}

type Supervisor struct {
	store    Store
	locks    *sessionlock.Registry
	engine   Engine
	notifier Notifier
	purgers  []Purger
	cfg      Config
	now      func() time.Time

	done chan struct{}
}

func New(st Store, locks *sessionlock.Registry, eng Engine, n Notifier, cfg Config, purgers ...Purger) *Supervisor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.TurnTime <= 0 {
		cfg.TurnTime = 30 * time.Second
	}
	if cfg.ReconnectGrace <= 0 {
		cfg.ReconnectGrace = time.Minute
	}
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = 30 * time.Minute
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	return &Supervisor{
		store:    st,
		locks:    locks,
		engine:   eng,
		notifier: n,
		purgers:  purgers,
		cfg:      cfg,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep every tick until ctx is cancelled. Done is closed
// after the last tick has returned.
func (s *Supervisor) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Tick(ctx, now)
			}
		}
	}()
}

func (s *Supervisor) Done() <-chan struct{} { return s.done }

// Tick runs one sweep. A failure on one session is logged and counted and
// never stops the others.
func (s *Supervisor) Tick(ctx context.Context, now time.Time) {
	metricTicks.Add(1)
	ids, err := s.store.ListPlayingSessionIDs(ctx)
	if err != nil {
		metricTickErrors.Add(1)
		log.Error().Err(err).Msg("supervisor: list playing sessions failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, id := range ids {
		g.Go(func() error {
			if err := s.checkSession(gctx, id, now); err != nil {
				metricSessionErrors.Add(1)
				log.Warn().Err(err).Str("session_id", id).Msg("supervisor: session check failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	s.purge(ctx, now)
}

type sweepResult struct {
	events []game.Event
	winner string
}

func (s *Supervisor) checkSession(ctx context.Context, id string, now time.Time) error {
	var res sweepResult
	err := s.locks.With(ctx, id, func(ctx context.Context) error {
		sess, err := s.store.GetSession(ctx, id)
		if err != nil {
			return game.Persistence("get session", err)
		}
		if sess.Status != game.StatusPlaying {
			return nil
		}
		if err := sess.Validate(); err != nil {
			return fmt.Errorf("sweep %s: %w", id, err)
		}
		res, err = s.sweepLocked(ctx, sess, now)
		return err
	})
	for _, ev := range res.events {
		s.notifier.Notify(ctx, id, ev)
	}
	if err != nil {
		return err
	}

	if res.winner != "" {
		// A settlement error means the session is already finished, so the
		// end of the game is announced either way.
		err := s.engine.FinishGame(ctx, id, res.winner)
		if err == nil || game.KindOf(err) == game.KindSettlement {
			s.notifier.Notify(ctx, id, game.GameFinishedEvent(res.winner))
		}
		return err
	}
	if !s.engine.BotTurnRunning(id) {
		s.startBotIfDue(ctx, id)
	}
	return nil
}

// sweepLocked applies the deadline and grace rules to sess. The caller holds
// the session lock; the events are delivered after it is released.
func (s *Supervisor) sweepLocked(ctx context.Context, sess *game.Session, now time.Time) (sweepResult, error) {
	var res sweepResult

	// A winning move whose finish step never ran leaves a full player in a
	// playing session.
	if leader := sess.Leader(); leader != "" {
		res.winner = leader
		return res, nil
	}

	if sess.TurnExpired(now) {
		skipped := sess.CurrentTurn
		next := sess.AdvanceTurn(now, s.cfg.TurnTime)
		if err := s.store.UpdateSession(ctx, sess, game.FieldCurrentTurn, game.FieldDiceValue, game.FieldTurnDeadline); err != nil {
			return res, game.Persistence("skip turn", err)
		}
		metricTurnSkips.Add(1)
		log.Info().Str("session_id", sess.ID).Str("user_id", skipped).Str("next_turn", next).Msg("turn skipped on deadline")
		res.events = append(res.events, game.TurnSkippedEvent(skipped, next, game.SkipReasonTimeout))
	}

	var replaced []string
	for _, uid := range sess.DisconnectedPast(now, s.cfg.ReconnectGrace) {
		if sess.ReplaceWithBot(uid) {
			replaced = append(replaced, uid)
		}
	}
	if len(replaced) > 0 {
		if err := s.store.UpdateSession(ctx, sess, game.FieldPlayers); err != nil {
			return res, game.Persistence("replace with bot", err)
		}
		for _, uid := range replaced {
			metricBotReplacements.Add(1)
			log.Info().Str("session_id", sess.ID).Str("user_id", uid).Msg("player replaced by bot")
			res.events = append(res.events, game.PlayerReplacedByBotEvent(uid))
		}
	}
	return res, nil
}

func (s *Supervisor) startBotIfDue(ctx context.Context, id string) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil || sess.Status != game.StatusPlaying {
		return
	}
	if p := sess.Player(sess.CurrentTurn); p != nil && p.IsBot() {
		s.engine.StartBotTurn(id)
	}
}

func (s *Supervisor) purge(ctx context.Context, now time.Time) {
	ids, err := s.store.DeleteFinishedBefore(ctx, now.Add(-s.cfg.RetentionWindow))
	if err != nil {
		metricTickErrors.Add(1)
		log.Error().Err(err).Msg("supervisor: purge finished sessions failed")
		return
	}
	for _, id := range ids {
		s.locks.Forget(id)
		for _, p := range s.purgers {
			p.Purge(id)
		}
	}
	if len(ids) > 0 {
		metricPurged.Add(int64(len(ids)))
		log.Info().Int("count", len(ids)).Msg("purged finished sessions")
	}
}
