package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// AuthMiddleware validates the bearer token and stashes the user id in the
// request context. An expired access token produces a 401 whose body carries
// the exact ErrTokenExpired text, which is what tells clients to refresh.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := auth.GetUserIDFromToken(token, h.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, common.ErrTokenExpired)
				return
			}
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
