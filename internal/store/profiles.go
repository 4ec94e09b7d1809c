package store

import (
	"context"
	"encoding/json"
	"fmt"

	"ludo-arena/internal/game"

	"github.com/jackc/pgx/v5"
)

func (s *Store) EnsureProfile(ctx context.Context, p game.Profile) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, coins, wins, losses, win_streak, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, p.Coins, p.Wins, p.Losses, p.WinStreak, p.CreatedAt)
	return err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*game.Profile, error) {
	var p game.Profile
	err := s.Pool.QueryRow(ctx, `
		SELECT user_id, coins, wins, losses, win_streak, created_at
		FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Coins, &p.Wins, &p.Losses, &p.WinStreak, &p.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, game.ErrProfileNotFound)
	}
	return &p, nil
}

// ApplyProfileResult adds one match outcome in a single statement, so
// concurrent settlements of the same player never overwrite each other.
func (s *Store) ApplyProfileResult(ctx context.Context, userID string, d game.ResultDelta) error {
	wins, losses := 0, 1
	if d.Won {
		wins, losses = 1, 0
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE profiles SET
			coins = coins + $2,
			wins = wins + $3,
			losses = losses + $4,
			win_streak = CASE WHEN $5 THEN win_streak + 1 ELSE 0 END
		WHERE user_id = $1`, userID, d.Coins, wins, losses, d.Won)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrProfileNotFound
	}
	return nil
}

// InsertMatchRecord is a no-op when the match is already recorded.
func (s *Store) InsertMatchRecord(ctx context.Context, rec game.MatchRecord) error {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO match_history (id, match_id, mode, players, winner_id, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		ON CONFLICT (match_id) DO NOTHING`,
		rec.ID, rec.MatchID, string(rec.Mode), string(players), rec.WinnerID, rec.CreatedAt)
	return err
}

// ListHistory returns the newest records first. An empty userID lists all.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]game.MatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, match_id, mode, players, winner_id, created_at
		FROM match_history
		WHERE $1 = '' OR players @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (game.MatchRecord, error) {
		var (
			rec     game.MatchRecord
			mode    string
			players []byte
		)
		if err := row.Scan(&rec.ID, &rec.MatchID, &mode, &players, &rec.WinnerID, &rec.CreatedAt); err != nil {
			return rec, err
		}
		rec.Mode = game.Mode(mode)
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return rec, fmt.Errorf("decode players of %s: %w", rec.MatchID, err)
		}
		return rec, nil
	})
}
