package session

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	client := redis.NewClient(&redis.Options{Addr: "localhost:" + resource.GetPort("6379/tcp")})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}))
	return client
}

func TestRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)
	store := NewRedisStore(client)

	now := time.Now()
	s := Session{
		SessionID: "sid-1",
		UserID:    "u1",
		TeamID:    "t1",
		Provider:  "office365",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Create(ctx, s))

	ttl, err := client.TTL(ctx, "session:sid-1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 59*time.Minute)

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "t1", got.TeamID)
	require.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	missing, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	s.ExpiresAt = now.Add(-time.Second)
	require.NoError(t, store.Update(ctx, s))
	gone, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, gone)

	require.ErrorIs(t, store.Create(ctx, Session{SessionID: "sid-2", UserID: "u1", TeamID: "t1", ExpiresAt: now.Add(-time.Minute)}), errExpired)
	require.ErrorIs(t, store.Create(ctx, Session{SessionID: "sid-3", UserID: "u1", ExpiresAt: now.Add(time.Minute)}), errIncomplete)

	require.NoError(t, store.Delete(ctx, "sid-1"))
}
