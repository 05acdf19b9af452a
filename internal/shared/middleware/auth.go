package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ContextKey string

const (
	UserIDKey        ContextKey = "user_id"
	SessionSecretKey ContextKey = "session_secret"
)

// SessionCookieName is the cookie carrying the identity-provider session secret.
const SessionCookieName = "horizon-session"

// SessionResolver resolves a session secret to the identity-provider user id.
type SessionResolver interface {
	ResolveSession(ctx context.Context, secret string) (string, error)
}

// Auth rejects requests without a valid session and stores the user id and
// session secret in the request context.
func Auth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret, ok := SessionSecret(r)
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			userID, err := sessions.ResolveSession(r.Context(), secret)
			if err != nil || userID == "" {
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, SessionSecretKey, secret)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionSecret extracts the session secret from the session cookie, falling
// back to a Bearer Authorization header for API clients.
func SessionSecret(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID returns the authenticated user id stored by Auth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
