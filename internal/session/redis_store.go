package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

var (
	errIncomplete = errors.New("session: session, user and team ids are required")
	errExpired    = errors.New("session: expires_at must be in the future")
)

// RedisStore keeps team-scoped sessions as JSON under session:<id>. The key
// TTL follows ExpiresAt, so Redis drops a session when it expires.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Create stores a new session. A session must name its user and team.
func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.SessionID == "" || s.UserID == "" || s.TeamID == "" {
		return errIncomplete
	}
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errExpired
	}
	return r.put(ctx, s, ttl)
}

// Get returns (nil, nil) when the session is unknown or already expired.
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("session: get %s: %w", sessionID, err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", sessionID, err)
	}
	return &s, nil
}

// Update rewrites a session with a TTL recomputed from ExpiresAt. A session
// whose expiry has passed is removed instead.
func (r *RedisStore) Update(ctx context.Context, s Session) error {
	if s.SessionID == "" {
		return errIncomplete
	}
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.SessionID)
	}
	return r.put(ctx, s, ttl)
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (r *RedisStore) put(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", s.SessionID, err)
	}
	return r.client.Set(ctx, sessionKey(s.SessionID), raw, ttl).Err()
}
