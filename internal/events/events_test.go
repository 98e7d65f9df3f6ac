package events

import (
	"context"
	"testing"
	"time"

	"team-sso/internal/domain"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestDiscard(t *testing.T) {
	require.NoError(t, Discard{}.Publish(context.Background(), domain.Event{Name: domain.EventUsersCreate}))
}

func TestRedisStreamIntegration(t *testing.T) {
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

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:" + resource.GetPort("6379/tcp")})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, pool.Retry(func() error { return client.Ping(ctx).Err() }))

	sink := NewRedisStream(client, "team-sso:events")
	require.NoError(t, sink.Publish(ctx, domain.Event{
		ID:        "e1",
		Name:      domain.EventUsersCreate,
		ActorID:   "u1",
		UserID:    "u1",
		TeamID:    "t1",
		Data:      map[string]any{"name": "Alice", "service": "office365"},
		IP:        "10.0.0.1",
		CreatedAt: time.Now(),
	}))

	msgs, err := client.XRange(ctx, "team-sso:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "users.create", msgs[0].Values["name"])
	require.JSONEq(t, `{"name":"Alice","service":"office365"}`, msgs[0].Values["data"].(string))
}
