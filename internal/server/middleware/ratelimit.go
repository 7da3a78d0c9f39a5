package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints
// (e.g. login). Uses chi's RealIP middleware value via r.RemoteAddr.
// Stale entries are cleaned up every 10 minutes.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiterFor := newLimiterSet[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterFor(r.RemoteAddr).Allow() {
				writeProblem(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-company rate limiting to authenticated requests.
// Global-role callers share one bucket keyed by company 0.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiterFor := newLimiterSet[int64](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				// Anonymous; RateLimitByIP covers these.
				next.ServeHTTP(w, r)
				return
			}

			var key int64
			if p.CompanyID != nil {
				key = *p.CompanyID
			}
			if !limiterFor(key).Allow() {
				writeProblem(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// newLimiterSet returns a lookup that lazily creates one limiter per key.
// Entries idle for 30 minutes are dropped every 10 minutes until ctx ends.
func newLimiterSet[K comparable](ctx context.Context, requestsPerSecond float64, burst int) func(K) *rate.Limiter {
	var (
		mu       sync.Mutex
		limiters = make(map[K]*keyedLimiter)
	)

	// Background cleanup of stale limiters.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				cutoff := time.Now().Add(-30 * time.Minute)
				for k, kl := range limiters {
					if kl.lastAccess.Before(cutoff) {
						delete(limiters, k)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(key K) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		kl, ok := limiters[key]
		if !ok {
			kl = &keyedLimiter{
				limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
				lastAccess: time.Now(),
			}
			limiters[key] = kl
		} else {
			kl.lastAccess = time.Now()
		}
		return kl.limiter
	}
}
