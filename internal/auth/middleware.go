package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "jwt"

// contextKey is unexported so only this package can read or write the
// userID slot in a request context — no key collisions with other packages.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes.
//
// The per-request state machine is deliberately two-stage:
//
//	no cookie            → 401 (the caller presented nothing)
//	cookie, bad token    → 403 (the caller presented something, and it failed)
//	cookie, valid token  → userID into context, delegate
//
// Downstream handlers on a protected route may assume UserIDFromContext
// returns a valid id. The middleware never touches persisted state.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "You are not authorized to access this")
				return
			}

			userID, err := tokens.Validate(cookie.Value)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "Token is invalid")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's id.
// Returns ("", false) only on routes not behind RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"message":"` + message + `"}`))
}
