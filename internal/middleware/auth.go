package middleware

import (
	"context"
	"net/http"
	"strconv"

	"whisperchat/internal/auth"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Auth verifies the signed session cookie and stores the caller's user id
// in the request context.
func Auth(signer *auth.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(signer, r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts and verifies the session cookie directly; used where the
// middleware chain does not apply, like the websocket upgrade.
func UserID(signer *auth.Signer, r *http.Request) (int, bool) {
	cookie, err := r.Cookie("session")
	if err != nil {
		return 0, false
	}

	value, err := signer.Verify(cookie.Value)
	if err != nil {
		return 0, false
	}

	userID, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// FromContext returns the authenticated user id set by Auth.
func FromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}
