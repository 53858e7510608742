package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

// RateLimit throttles requests per tenant using a token bucket. perMin <= 0
// disables limiting. Limiters are cached with a TTL so idle tenants do not
// accumulate forever.
func RateLimit(perMin int) func(http.Handler) http.Handler {
	const ttl = 5 * time.Minute
	var limiters sync.Map // tenantID -> *cachedLimiter

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perMin <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			tenant := TenantFromContext(r.Context())
			if tenant == "" {
				tenant = clientIP(r)
			}
			limiter := getOrCreateLimiter(&limiters, tenant, perMin, ttl)
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getOrCreateLimiter(limiters *sync.Map, key string, perMin int, ttl time.Duration) *rate.Limiter {
	if v, ok := limiters.Load(key); ok {
		cached := v.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
	limiters.Store(key, &cachedLimiter{limiter: limiter, expiresAt: time.Now().Add(ttl)})
	return limiter
}
