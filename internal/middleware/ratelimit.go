package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type windowEntry struct {
	count     int
	expiresAt time.Time
}

// RateLimiter admits at most max requests per key within a fixed window.
// The window for a key starts with its first request.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter starts a limiter whose expired entries are swept every window
// until done is closed.
func NewRateLimiter(max int, window time.Duration, done <-chan struct{}) *RateLimiter {
	rl := &RateLimiter{
		entries: make(map[string]*windowEntry),
		max:     max,
		window:  window,
		now:     time.Now,
	}

	go rl.cleanup(done)

	return rl
}

// Allow records one request for key and reports whether it is admitted,
// plus the time left until the key's window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]
	if !exists || !now.Before(entry.expiresAt) {
		rl.entries[key] = &windowEntry{count: 1, expiresAt: now.Add(rl.window)}
		return true, rl.window
	}

	entry.count++
	return entry.count <= rl.max, entry.expiresAt.Sub(now)
}

func (rl *RateLimiter) cleanup(done <-chan struct{}) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.entries {
				if !now.Before(entry.expiresAt) {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// ClientIP returns the caller address without the port.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || ip == "" {
		return r.RemoteAddr
	}
	return ip
}

// RateLimitMiddleware rejects callers that exceed the limiter's budget before
// the request reaches any handler.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip rate limit for probes
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			ok, reset := limiter.Allow(ClientIP(r))
			if !ok {
				IncrementRateLimited()
				secs := int(reset.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteError(w, http.StatusTooManyRequests, "RateLimitExceeded", "too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
