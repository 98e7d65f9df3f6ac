package avatar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapCache struct {
	mu   sync.Mutex
	vals map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[key] = value
}

func hashed(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestTeamAvatarUsesLogoWhenFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/acme.com" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New(Options{LookupURL: srv.URL, PlaceholderURL: "https://tiles.test", Timeout: time.Second}, zap.NewNop().Sugar())

	require.Equal(t, srv.URL+"/acme.com", r.TeamAvatar(context.Background(), "acme.com", "Acme"))
	require.Equal(t, "https://tiles.test/avatar/"+hashed("nologo.io")+"/N.png",
		r.TeamAvatar(context.Background(), "nologo.io", "Nologo"))
}

func TestTeamAvatarFallsBackWhenLookupUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := New(Options{LookupURL: srv.URL, PlaceholderURL: "https://tiles.test", Salt: "pepper", Timeout: time.Second}, zap.NewNop().Sugar())

	require.Equal(t, "https://tiles.test/avatar/"+hashed("pepperacme.com")+"/A.png",
		r.TeamAvatar(context.Background(), "acme.com", "Acme"))
}

func TestTeamAvatarCachesResult(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := &mapCache{vals: map[string]string{}}
	r := New(Options{LookupURL: srv.URL, PlaceholderURL: "https://tiles.test", Timeout: time.Second, Cache: cache}, zap.NewNop().Sugar())

	first := r.TeamAvatar(context.Background(), "acme.com", "Acme")
	second := r.TeamAvatar(context.Background(), "acme.com", "Acme")

	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
	require.Equal(t, first, cache.vals["avatar:acme.com"])
}

func TestUserAvatar(t *testing.T) {
	r := New(Options{PlaceholderURL: "https://tiles.test/"}, zap.NewNop().Sugar())

	require.Equal(t, "https://tiles.test/avatar/"+hashed("abc123")+"/Al.png", r.UserAvatar("abc123", "Alice Smith"))
	require.Equal(t, "https://tiles.test/avatar/"+hashed("x")+"/J.png", r.UserAvatar("x", "J"))
	require.Equal(t, "https://tiles.test/avatar/"+hashed("y")+"/_.png", r.UserAvatar("y", " "))
}
