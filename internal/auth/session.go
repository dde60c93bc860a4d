package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// SessionCookieName is the cookie that carries the session token for browser clients.
const SessionCookieName = "session_token"

// SessionHeader is the header that carries the session token for API clients.
const SessionHeader = "X-Session-Token"

// ErrUnauthenticated is returned by a SessionVerifier for missing, unknown or expired tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionVerifier resolves a session token to the username that owns it.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

type contextKey string

const (
	usernameKey = contextKey("username")
	tokenKey    = contextKey("sessionToken")
)

// TokenFromRequest extracts the session token from the request, trying the
// X-Session-Token header, then a bearer Authorization header, then the cookie.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(SessionHeader)); token != "" {
		return token
	}
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionMiddleware rejects requests without a valid session and passes the
// username down via context.
func SessionMiddleware(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Missing session token")
				return
			}

			username, err := verifier.VerifySession(token)
			if err != nil {
				if errors.Is(err, ErrUnauthenticated) {
					writeError(w, http.StatusUnauthorized, "Session expired or invalid")
					return
				}
				log.Error().Err(err).Msg("Failed to verify session")
				writeError(w, http.StatusInternalServerError, "Failed to verify session")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext returns the authenticated username set by SessionMiddleware.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// SessionTokenFromContext returns the token the request was authenticated with.
func SessionTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
