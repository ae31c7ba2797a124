package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimiter gates requests before they reach the mux. A nil limiter means
// limiting is disabled.
type rateLimiter interface {
	Allow() bool
}

type tokenBucket struct {
	bucket *rate.Limiter
}

// newTokenBucketLimiter sizes a shared token bucket from the settings knobs.
// Zero (or negative) rps or burst disables limiting entirely, matching the
// rate_limit_rps/rate_limit_burst semantics of the profile file.
func newTokenBucketLimiter(rps float64, burst int) rateLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &tokenBucket{bucket: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *tokenBucket) Allow() bool {
	return l.bucket.Allow()
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
