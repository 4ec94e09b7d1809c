// Package mongostore persists sessions, profiles and match history as
// MongoDB documents.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ludo-arena/internal/game"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	sessionsCollection = "sessions"
	profilesCollection = "profiles"
	historyCollection  = "match_history"
)

type Store struct {
	client   *mongo.Client
	sessions *mongo.Collection
	profiles *mongo.Collection
	history  *mongo.Collection
}

// Open connects to uri and ensures the indexes the store relies on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.Database(database)
	st := &Store{
		client:   client,
		sessions: db.Collection(sessionsCollection),
		profiles: db.Collection(profilesCollection),
		history:  db.Collection(historyCollection),
	}
	if err := st.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return st, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create session index: %w", err)
	}
	if _, err := s.history.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "match_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "players.user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("create history indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// Drop removes every collection. Tests use it to clean up.
func (s *Store) Drop(ctx context.Context) error {
	return s.sessions.Database().Drop(ctx)
}

func (s *Store) CreateSession(ctx context.Context, sess *game.Session) error {
	_, err := s.sessions.InsertOne(ctx, sess)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*game.Session, error) {
	var sess game.Session
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, game.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// UpdateSession issues a single $set over the named fields.
func (s *Store) UpdateSession(ctx context.Context, sess *game.Session, fields ...game.Field) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{}
	for _, f := range fields {
		switch f {
		case game.FieldPlayers:
			set["players"] = sess.Players
		case game.FieldCurrentTurn:
			set["current_turn"] = sess.CurrentTurn
		case game.FieldDiceValue:
			set["dice_value"] = sess.DiceValue
		case game.FieldTurnDeadline:
			set["turn_deadline"] = sess.TurnDeadline
		case game.FieldStatus:
			set["status"] = sess.Status
		case game.FieldWinner:
			set["winner"] = sess.Winner
		default:
			return fmt.Errorf("unknown session field %q", f)
		}
	}
	res, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sess.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return game.ErrSessionNotFound
	}
	return nil
}

func (s *Store) ClaimFinish(ctx context.Context, id, winnerID string) (bool, error) {
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"_id": id, "status": game.StatusPlaying},
		bson.M{"$set": bson.M{"status": game.StatusFinished, "winner": winnerID, "dice_value": nil}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	n, err := s.sessions.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, game.ErrSessionNotFound
	}
	return false, nil
}

func (s *Store) ListPlayingSessionIDs(ctx context.Context) ([]string, error) {
	return s.findIDs(ctx, bson.M{"status": game.StatusPlaying})
}

func (s *Store) findIDs(ctx context.Context, filter bson.M) ([]string, error) {
	cur, err := s.sessions.Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out, nil
}

// DeleteFinishedBefore removes finished sessions created before cutoff and
// returns their ids.
func (s *Store) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	filter := bson.M{"status": game.StatusFinished, "created_at": bson.M{"$lt": cutoff}}
	ids, err := s.findIDs(ctx, filter)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	filter["_id"] = bson.M{"$in": ids}
	if _, err := s.sessions.DeleteMany(ctx, filter); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) EnsureProfile(ctx context.Context, p game.Profile) error {
	_, err := s.profiles.UpdateOne(ctx,
		bson.M{"_id": p.UserID},
		bson.M{"$setOnInsert": bson.M{
			"coins":      p.Coins,
			"wins":       p.Wins,
			"losses":     p.Losses,
			"win_streak": p.WinStreak,
			"created_at": p.CreatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*game.Profile, error) {
	var p game.Profile
	if err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, game.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ApplyProfileResult adds one match outcome with $inc, so concurrent
// settlements of the same player never overwrite each other.
func (s *Store) ApplyProfileResult(ctx context.Context, userID string, d game.ResultDelta) error {
	update := bson.M{"$inc": bson.M{"coins": d.Coins, "losses": 1}, "$set": bson.M{"win_streak": 0}}
	if d.Won {
		update = bson.M{"$inc": bson.M{"coins": d.Coins, "wins": 1, "win_streak": 1}}
	}
	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return game.ErrProfileNotFound
	}
	return nil
}

// InsertMatchRecord treats a duplicate match id as already recorded.
func (s *Store) InsertMatchRecord(ctx context.Context, rec game.MatchRecord) error {
	_, err := s.history.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]game.MatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{}
	if userID != "" {
		filter["players.user_id"] = userID
	}
	cur, err := s.history.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	out := make([]game.MatchRecord, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
