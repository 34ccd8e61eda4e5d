package middleware

import (
	"context"
	"net/http"

	"github.com/parley-systems/parley-stack/common/httputil"
	"github.com/parley-systems/parley-stack/hub/pkg/tokens"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
)

// TokenValidator validates an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*tokens.Claims, error)
}

// AuthMiddleware guards routes behind a valid access token.
type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects requests without a valid token. The token is read from
// the Authorization header or, for WebSocket upgrades, the "token" query
// parameter.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := httputil.BearerToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserID extracts the authenticated user ID from ctx, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUsername extracts the authenticated username from ctx, or "".
func GetUsername(ctx context.Context) string {
	if name, ok := ctx.Value(UsernameKey).(string); ok {
		return name
	}
	return ""
}
