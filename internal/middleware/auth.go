package middleware

import (
	"context"
	"net/http"
	"time"

	"team-sso/internal/session"

	"go.uber.org/zap"
)

type sessionContextKeyType struct{}

var sessionKey = sessionContextKeyType{}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok && s != nil
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return "", false
	}
	return s.UserID, true
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

type AuthMiddleware struct {
	Store session.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewAuthMiddleware(store session.Store, log *zap.SugaredLogger) *AuthMiddleware {
	return &AuthMiddleware{Store: store, log: log.Named("auth"), now: time.Now}
}

// RequireAuth rejects requests without a live session cookie.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sess, err := a.Store.Get(r.Context(), cookie.Value)
		if err != nil {
			a.log.Warnw("session lookup failed", "error", err)
		}
		if err != nil || sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// A stored session past ExpiresAt is dropped.
		if sess.Expired(a.now()) {
			_ = a.Store.Delete(r.Context(), cookie.Value)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
