package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// RequireUser extracts the verified user identity supplied by the auth
// layer in the X-User-ID header. Handlers never see a request without one;
// credential verification itself happens upstream.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "Missing user identity", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, userID)))
	}
}

// UserID returns the verified user id stored by RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}
