package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"readalong-backend/internal/services"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateJWT(token string) (services.Identity, error)
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			identity, err := validator.ValidateJWT(parts[1])
			if err != nil {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity stores the caller in ctx
func WithIdentity(ctx context.Context, identity services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the caller from context
func GetIdentity(ctx context.Context) services.Identity {
	identity, _ := ctx.Value(identityKey).(services.Identity)
	return identity
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return GetIdentity(ctx).UserID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ValidateWebSocketToken validates a token passed as a query parameter
func ValidateWebSocketToken(token string, validator TokenValidator) (services.Identity, error) {
	if token == "" {
		return services.Identity{}, services.ErrUnauthorized
	}
	return validator.ValidateJWT(token)
}
