package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRateLimit = 3

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, path, remote string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	req.RemoteAddr = remote
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	h := RateLimitMiddleware(NewRateLimiter(testRateLimit, time.Minute, done))(okHandler())

	w := doRequest(h, "/analyze-url", "1.2.3.4:1234")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	h := RateLimitMiddleware(NewRateLimiter(testRateLimit, time.Minute, done))(okHandler())

	for i := 0; i < testRateLimit; i++ {
		w := doRequest(h, "/analyze-url", "1.2.3.4:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	w := doRequest(h, "/analyze-url", "1.2.3.4:5555")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"RateLimitExceeded"`)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	h := RateLimitMiddleware(NewRateLimiter(1, time.Minute, done))(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "/analyze-url", "1.1.1.1:1234").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "/analyze-url", "2.2.2.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "/analyze-url", "1.1.1.1:1234").Code)
}

func TestRateLimiter_ProbesAreExempt(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	h := RateLimitMiddleware(NewRateLimiter(1, time.Minute, done))(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/health", "1.1.1.1:1234").Code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	rl := NewRateLimiter(1, time.Minute, done)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("k")
	assert.True(t, ok)
	ok, reset := rl.Allow("k")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, reset)

	now = now.Add(30 * time.Second)
	ok, reset = rl.Allow("k")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, reset)

	now = now.Add(30 * time.Second)
	ok, _ = rl.Allow("k")
	assert.True(t, ok)
}

func TestRateLimiter_ConcurrentCallersCountedExactly(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	rl := NewRateLimiter(50, time.Minute, done)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.Allow("same"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "203.0.113.7:5000"
	assert.Equal(t, "203.0.113.7", ClientIP(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", ClientIP(req))

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientIP(req))
}
