// Package events forwards audit events to external consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"team-sso/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Sink receives audit events after they are persisted.
type Sink interface {
	Publish(ctx context.Context, e domain.Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, domain.Event) error { return nil }

// RedisStream appends events to a Redis stream with XADD.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStream(client *redis.Client, stream string) *RedisStream {
	return &RedisStream{
		client: client,
		stream: stream,
		maxLen: 100000,
	}
}

func (s *RedisStream) Publish(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("events: marshal data: %w", err)
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":         e.ID,
			"name":       e.Name,
			"actor_id":   e.ActorID,
			"user_id":    e.UserID,
			"team_id":    e.TeamID,
			"ip":         e.IP,
			"data":       string(data),
			"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
}
