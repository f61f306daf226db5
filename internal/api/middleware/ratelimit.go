package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mcoot/coveytown-go/internal/api/apierr"
	coremiddleware "github.com/mcoot/coveytown-go/internal/middleware"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
)

// RateLimit rejects requests from client addresses that exceed the scope's limit.
// A failing limiter store lets the request through.
func RateLimit(limiter *ratelimit.Limiter, scope ratelimit.Scope, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := coremiddleware.ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), scope, ip)
			if err != nil {
				logger.Error("rate limiter unavailable",
					slog.String("scope", string(scope)),
					slog.Any("error", err))
				allowed = true
			}
			if !allowed {
				retry := int(limiter.RetryAfter().Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				apierr.WriteError(w, model.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
