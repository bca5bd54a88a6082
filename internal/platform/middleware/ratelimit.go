package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware that rejects requests once the shared token
// bucket is empty. rejected is invoked instead of next for throttled requests.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int, rejected http.HandlerFunc) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				rejected(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
