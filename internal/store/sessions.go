package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ludo-arena/internal/game"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, mode, players, current_turn, dice_value, turn_deadline, status, winner, created_at`

func (s *Store) CreateSession(ctx context.Context, sess *game.Session) error {
	players, err := json.Marshal(sess.Players)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9)`,
		sess.ID, string(sess.Mode), string(players), sess.CurrentTurn, int4PtrParam(sess.DiceValue),
		sess.TurnDeadline, string(sess.Status), textParam(sess.Winner), sess.CreatedAt)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*game.Session, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, mapNotFound(err, game.ErrSessionNotFound)
	}
	return sess, nil
}

func scanSession(row pgx.Row) (*game.Session, error) {
	var (
		sess    game.Session
		mode    string
		status  string
		players []byte
		dice    pgtype.Int4
		winner  pgtype.Text
	)
	if err := row.Scan(&sess.ID, &mode, &players, &sess.CurrentTurn, &dice, &sess.TurnDeadline, &status, &winner, &sess.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(players, &sess.Players); err != nil {
		return nil, fmt.Errorf("decode players of %s: %w", sess.ID, err)
	}
	sess.Mode = game.Mode(mode)
	sess.Status = game.Status(status)
	sess.DiceValue = intPtrVal(dice)
	sess.Winner = textVal(winner)
	return &sess, nil
}

// UpdateSession writes only the named columns in one statement.
func (s *Store) UpdateSession(ctx context.Context, sess *game.Session, fields ...game.Field) error {
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields))
	args := []any{sess.ID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	for _, f := range fields {
		switch f {
		case game.FieldPlayers:
			b, err := json.Marshal(sess.Players)
			if err != nil {
				return err
			}
			args = append(args, string(b))
			sets = append(sets, "players = $"+strconv.Itoa(len(args))+"::jsonb")
		case game.FieldCurrentTurn:
			add("current_turn", sess.CurrentTurn)
		case game.FieldDiceValue:
			add("dice_value", int4PtrParam(sess.DiceValue))
		case game.FieldTurnDeadline:
			add("turn_deadline", sess.TurnDeadline)
		case game.FieldStatus:
			add("status", string(sess.Status))
		case game.FieldWinner:
			add("winner", textParam(sess.Winner))
		default:
			return fmt.Errorf("unknown session field %q", f)
		}
	}
	tag, err := s.Pool.Exec(ctx, `UPDATE sessions SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrSessionNotFound
	}
	return nil
}

func (s *Store) ClaimFinish(ctx context.Context, id, winnerID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET status = 'finished', winner = $2, dice_value = NULL
		WHERE id = $1 AND status = 'playing'`, id, winnerID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, game.ErrSessionNotFound
	}
	return false, nil
}

func (s *Store) ListPlayingSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id FROM sessions WHERE status = 'playing' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		DELETE FROM sessions WHERE status = 'finished' AND created_at < $1
		RETURNING id`, cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
