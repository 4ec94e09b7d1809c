// Package session is the application layer every transport calls into. It
// validates request shape, delegates game rules to the engine and renders
// snapshots through the view model.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ludo-arena/internal/bot"
	"ludo-arena/internal/engine"
	"ludo-arena/internal/game"
	"ludo-arena/internal/game/viewmodel"
	"ludo-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// Store is the persistence the service needs beyond what the engine uses.
type Store interface {
	CreateSession(ctx context.Context, s *game.Session) error
	EnsureProfile(ctx context.Context, p game.Profile) error
	GetProfile(ctx context.Context, userID string) (*game.Profile, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]game.MatchRecord, error)
	Ping(ctx context.Context) error
}

const (
	historyDefaultRows = 20
	historyMaxRows     = 100
)

type Service struct {
	store   Store
	eng     *engine.Engine
	economy game.Economy
	now     func() time.Time
	newID   func() string
}

func NewService(st Store, eng *engine.Engine, eco game.Economy) *Service {
	return &Service{store: st, eng: eng, economy: eco, now: time.Now, newID: store.NewID}
}

// CreateSession seats the players, makes sure each has a profile and stores
// the opening snapshot.
func (s *Service) CreateSession(ctx context.Context, req CreateRequest) (*viewmodel.SessionView, error) {
	now := s.now()
	sess, err := game.NewSession(s.newID(), req.Mode, req.Players, now, s.eng.TurnTime())
	if err != nil {
		return nil, err
	}
	for _, uid := range req.Players {
		if err := s.store.EnsureProfile(ctx, s.economy.NewProfile(uid, now)); err != nil {
			return nil, game.Persistence("ensure profile", err)
		}
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, game.Persistence("create session", err)
	}
	log.Info().Str("session_id", sess.ID).Str("mode", string(sess.Mode)).Strs("players", req.Players).Msg("session created")
	view := viewmodel.BuildSessionView(sess, now)
	return &view, nil
}

func (s *Service) View(ctx context.Context, sessionID string) (*viewmodel.SessionView, error) {
	if sessionID == "" {
		return nil, ErrInvalidRequest
	}
	sess, err := s.eng.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := viewmodel.BuildSessionView(sess, s.now())
	return &view, nil
}

func (s *Service) Roll(ctx context.Context, sessionID, actor string) (*RollResponse, error) {
	if sessionID == "" || actor == "" {
		return nil, ErrInvalidRequest
	}
	dice, err := s.eng.Roll(ctx, sessionID, actor)
	if err != nil {
		return nil, err
	}
	view, err := s.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &RollResponse{Dice: dice, View: *view}, nil
}

// Move applies a move. A settlement failure after a winning move is reported
// as a warning because the move and the finished status are already stored.
func (s *Service) Move(ctx context.Context, sessionID, actor string, tokenIndex int) (*MoveResponse, error) {
	if sessionID == "" || actor == "" {
		return nil, ErrInvalidRequest
	}
	out, err := s.eng.Move(ctx, sessionID, actor, tokenIndex)
	resp := &MoveResponse{Outcome: out}
	if err != nil {
		var se *game.SettlementError
		if !errors.As(err, &se) {
			return nil, err
		}
		resp.Warning = game.Code(err)
	}
	view, err := s.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp.View = *view
	return resp, nil
}

func (s *Service) Disconnect(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return ErrInvalidRequest
	}
	return s.eng.MarkDisconnected(ctx, sessionID, userID)
}

func (s *Service) Reconnect(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return ErrInvalidRequest
	}
	return s.eng.MarkReconnected(ctx, sessionID, userID)
}

// Suggest returns the move the server bot would make for the current player's
// pending roll.
func (s *Service) Suggest(ctx context.Context, sessionID string) (*Suggestion, error) {
	if sessionID == "" {
		return nil, ErrInvalidRequest
	}
	sess, err := s.eng.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != game.StatusPlaying {
		return nil, game.ErrGameNotActive
	}
	if sess.DiceValue == nil {
		return nil, game.ErrDiceNotRolled
	}
	idx, ok := bot.ChooseToken(sess, sess.CurrentTurn, *sess.DiceValue)
	return &Suggestion{
		SessionID:  sess.ID,
		Player:     sess.CurrentTurn,
		Dice:       *sess.DiceValue,
		TokenIndex: idx,
		HasMove:    ok,
	}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*game.Profile, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, game.ErrProfileNotFound) {
			return nil, game.ErrProfileNotFound
		}
		return nil, game.Persistence("get profile", err)
	}
	return p, nil
}

func (s *Service) History(ctx context.Context, userID string, limit int) (*HistoryResponse, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	items, err := s.store.ListHistory(ctx, userID, clampHistoryLimit(limit))
	if err != nil {
		return nil, game.Persistence("list history", err)
	}
	if items == nil {
		items = []game.MatchRecord{}
	}
	return &HistoryResponse{UserID: userID, Items: items}, nil
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}

func clampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return historyDefaultRows
	case limit > historyMaxRows:
		return historyMaxRows
	default:
		return limit
	}
}
