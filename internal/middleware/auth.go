package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/adminhub/chat-notify-go/internal/util"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// GetIdentity returns the authenticated caller identity, or "" outside an
// authenticated request.
func GetIdentity(ctx context.Context) string {
	if identity, ok := ctx.Value(IdentityContextKey).(string); ok {
		return identity
	}
	return ""
}

// AuthMiddleware authenticates dashboard callers with the shared service
// token. The comparison runs on hashes so timing never leaks a prefix match.
type AuthMiddleware struct {
	tokenHash string
	identity  string
}

func NewAuthMiddleware(serviceToken, identity string) *AuthMiddleware {
	return &AuthMiddleware{
		tokenHash: util.HashToken(serviceToken),
		identity:  identity,
	}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		if !util.ConstantTimeEqual(util.HashToken(token), m.tokenHash) {
			log.Warn().Msg("auth middleware: invalid token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, m.identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
