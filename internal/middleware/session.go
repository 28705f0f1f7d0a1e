package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gamebank/internal/services"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	SessionCookie = "sessionId"
	SessionHeader = "X-Session-Token"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (services.SessionContext, error)
}

func SessionFromContext(ctx context.Context) (services.SessionContext, bool) {
	session, ok := ctx.Value(sessionKey).(services.SessionContext)
	return session, ok
}

// TokenFromRequest prefers the session cookie and falls back to the header
// used by non-browser clients.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

func Session(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				http.Error(w, "missing session", http.StatusUnauthorized)
				return
			}
			session, err := resolver.Resolve(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, services.ErrSessionNotFound):
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			case errors.Is(err, services.ErrSessionExpired):
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			default:
				http.Error(w, "unable to resolve session", http.StatusServiceUnavailable)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
