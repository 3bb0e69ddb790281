package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
)

// TooManyAttemptsMessage is the error returned once a client exhausts its window.
const TooManyAttemptsMessage = "Too many login attempts, please try later"

// Middleware enforces limiter per client IP taken from RemoteAddr. Put chi's
// RealIP middleware in front of it only behind a trusted proxy, since
// forwarded headers are otherwise set by the client.
//
// Rate-limit headers are always set on the response:
//
//	X-RateLimit-Limit     maximum attempts allowed in the window
//	X-RateLimit-Remaining attempts left in the current window
//	X-RateLimit-Reset     Unix timestamp when the window resets
//
// When the limit is exceeded the middleware responds with HTTP 429.
func Middleware(limiter *Limiter, onReject ...func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			allowed := limiter.Allow(key)
			limit, remaining, resetAt := limiter.Status(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				for _, fn := range onReject {
					fn()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": TooManyAttemptsMessage})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
