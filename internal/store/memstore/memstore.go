// Package memstore keeps sessions, profiles and match history in process
// memory. It backs tests and single-node demo runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ludo-arena/internal/game"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	profiles map[string]game.Profile
	history  []game.MatchRecord
	matchIDs map[string]struct{}
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*game.Session),
		profiles: make(map[string]game.Profile),
		matchIDs: make(map[string]struct{}),
	}
}

func (s *Store) CreateSession(_ context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *Store) UpdateSession(_ context.Context, sess *game.Session, fields ...game.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sess.ID]
	if !ok {
		return game.ErrSessionNotFound
	}
	src := sess.Clone()
	for _, f := range fields {
		switch f {
		case game.FieldPlayers:
			cur.Players = src.Players
		case game.FieldCurrentTurn:
			cur.CurrentTurn = src.CurrentTurn
		case game.FieldDiceValue:
			cur.DiceValue = src.DiceValue
		case game.FieldTurnDeadline:
			cur.TurnDeadline = src.TurnDeadline
		case game.FieldStatus:
			cur.Status = src.Status
		case game.FieldWinner:
			cur.Winner = src.Winner
		default:
			return fmt.Errorf("unknown session field %q", f)
		}
	}
	return nil
}

func (s *Store) ClaimFinish(_ context.Context, id, winnerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[id]
	if !ok {
		return false, game.ErrSessionNotFound
	}
	if cur.Status != game.StatusPlaying {
		return false, nil
	}
	cur.Status = game.StatusFinished
	cur.Winner = winnerID
	cur.DiceValue = nil
	return true, nil
}

func (s *Store) ListPlayingSessionIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if sess.Status == game.StatusPlaying {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) DeleteFinishedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, sess := range s.sessions {
		if sess.Status == game.StatusFinished && sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) EnsureProfile(_ context.Context, p game.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		s.profiles[p.UserID] = p
	}
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*game.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, game.ErrProfileNotFound
	}
	return &p, nil
}

// ApplyProfileResult adds one match outcome to a profile under the store lock.
func (s *Store) ApplyProfileResult(_ context.Context, userID string, d game.ResultDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.profiles[userID]
	if !ok {
		return game.ErrProfileNotFound
	}
	s.profiles[userID] = d.Apply(cur)
	return nil
}

// InsertMatchRecord is a no-op for a match id that is already recorded.
func (s *Store) InsertMatchRecord(_ context.Context, rec game.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matchIDs[rec.MatchID]; ok {
		return nil
	}
	s.matchIDs[rec.MatchID] = struct{}{}
	rec.Players = append([]game.PlayerResult(nil), rec.Players...)
	s.history = append(s.history, rec)
	return nil
}

// ListHistory returns the newest records first. An empty userID lists all.
func (s *Store) ListHistory(_ context.Context, userID string, limit int) ([]game.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game.MatchRecord, 0)
	for i := len(s.history) - 1; i >= 0; i-- {
		rec := s.history[i]
		if userID != "" && !involves(rec, userID) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func involves(rec game.MatchRecord, userID string) bool {
	for _, p := range rec.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
