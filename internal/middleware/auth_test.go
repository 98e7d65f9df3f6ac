package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"team-sso/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func (m *mapStore) Create(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
	return nil
}

func (m *mapStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mapStore) Update(ctx context.Context, s session.Session) error { return m.Create(ctx, s) }

func (m *mapStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func newRouter(store session.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop().Sugar()))
	api := r.Group("/api", GinRequireAuth(NewAuthMiddleware(store, zap.NewNop().Sugar())))
	api.GET("/me", func(c *gin.Context) {
		s, ok := SessionFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": s.UserID, "team_id": s.TeamID})
	})
	return r
}

func TestGinRequireAuth(t *testing.T) {
	store := &mapStore{sessions: map[string]session.Session{
		"live":    {SessionID: "live", UserID: "u1", TeamID: "t1", ExpiresAt: time.Now().Add(time.Hour)},
		"expired": {SessionID: "expired", UserID: "u2", TeamID: "t1", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	r := newRouter(store)

	tests := []struct {
		name   string
		cookie string
		status int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"unknown session", "nope", http.StatusUnauthorized},
		{"expired session", "expired", http.StatusUnauthorized},
		{"live session", "live", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
			if tc.status == http.StatusOK {
				require.JSONEq(t, `{"user_id":"u1","team_id":"t1"}`, rec.Body.String())
			}
		})
	}

	_, stillThere := store.sessions["expired"]
	require.False(t, stillThere)
}
