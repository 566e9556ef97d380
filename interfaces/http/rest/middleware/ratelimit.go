package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"taxonomy/pkg/auth"
	"taxonomy/pkg/common"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/zap"
)

// RateLimit rejects callers over their budget with 429. Callers are keyed by
// a digest of their API key, or by address when they send none. Limiter
// failures let the request through.
func RateLimit(limiter auth.RateLimiter, retryAfter time.Duration, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("Rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
				errorHandler.Handle(w, r, pkgerrors.NewRateLimitedError(retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if key := common.GetAPIKey(r.Context()); key != "" {
		sum := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + r.RemoteAddr
}

func retrySeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
