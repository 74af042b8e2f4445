package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/playperu/hooplink/internal/hooplink"
)

const sessionCookieName = "hooplink_session"

// SessionStore maps opaque tokens to the user who logged in with them.
type SessionStore interface {
	CreateSession(ctx context.Context, user hooplink.User, ttl time.Duration) (string, error)
	SessionUser(ctx context.Context, token string) (hooplink.User, error)
	UpdateUser(ctx context.Context, user hooplink.User) error
	DeleteSession(ctx context.Context, token string) error
}

type ctxKey int

const ctxKeyUser ctxKey = iota

// sessionToken reads the session cookie, falling back to a Bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token
}

// sessionMiddleware attaches the logged-in user, if any. Unknown or expired
// tokens are treated as anonymous.
func sessionMiddleware(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := sessions.SessionUser(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userFrom(r); !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(r *http.Request) (hooplink.User, bool) {
	u, ok := r.Context().Value(ctxKeyUser).(hooplink.User)
	return u, ok
}

func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
