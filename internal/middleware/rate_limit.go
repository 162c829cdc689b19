package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Limiter counts requests per subject
type Limiter interface {
	Limit() int
	Allow(ctx context.Context, subject string) (bool, int, time.Time, error)
}

// RateLimit enforces limiter per authenticated user. It must run after
// AuthMiddleware.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, remaining, reset, err := limiter.Allow(r.Context(), userID)
			if err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Rate limit check failed")
				respondError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !allowed {
				retry := int(time.Until(reset).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				respondError(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
