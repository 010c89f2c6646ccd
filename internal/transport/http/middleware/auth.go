package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/auth"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// LegacyTokenHeader is accepted alongside "Authorization: Bearer" for older clients.
const LegacyTokenHeader = "x-auth-token"

func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, supplied := tokenFromRequest(r)
			if !supplied {
				writeUnauthorized(w, auth.ErrNoToken)
				return
			}

			userID, err := verifier.Verify(tokenStr)
			if err != nil {
				writeUnauthorized(w, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// tokenFromRequest reports supplied=true whenever the request carries a
// credential header, even one that is not a bearer token.
func tokenFromRequest(r *http.Request) (token string, supplied bool) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
		}
		return "", true
	}
	token = strings.TrimSpace(r.Header.Get(LegacyTokenHeader))
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": err.Error(),
		},
	})
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}
