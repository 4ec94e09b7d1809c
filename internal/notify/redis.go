package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"ludo-arena/internal/game"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "ludo:session:"

// Channel is the pub/sub channel carrying events for sessionID.
func Channel(sessionID string) string { return channelPrefix + sessionID }

// RedisPublisher republishes events for consumers outside this process.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(url string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opts)}, nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Notify(ctx context.Context, sessionID string, ev game.Event) {
	msg, err := json.Marshal(struct {
		SessionID string         `json:"session_id"`
		Event     game.EventKind `json:"event"`
		Data      any            `json:"data"`
	}{sessionID, ev.Kind, ev.Payload})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("marshal event for redis failed")
		return
	}
	if err := p.client.Publish(ctx, Channel(sessionID), msg).Err(); err != nil {
		metricPublishErrors.Add(1)
		log.Error().Err(err).Str("session_id", sessionID).Str("event", string(ev.Kind)).Msg("could not publish event")
	}
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
