package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(burst int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(RateLimitConfig{Max: burst, Window: window})
	l.now = clock.Now
	return l, clock
}

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = ip + ":12345"
	return req
}

func TestLimiter_Burst(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	h := l.Middleware()(okHandler())

	for i := range 3 {
		rec := serve(h, fromIP("10.0.0.1"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := serve(h, fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)
	h := l.Middleware()(okHandler())

	serve(h, fromIP("10.0.0.1"))
	serve(h, fromIP("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("10.0.0.1")).Code)

	clock.t = clock.t.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("10.0.0.1")).Code)
}

func TestLimiter_PerClient(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	h := l.Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.2")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("10.0.0.1")).Code)
}

func TestLimiter_Evict(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	h := l.Middleware()(okHandler())

	serve(h, fromIP("10.0.0.1"))
	clock.t = clock.t.Add(30 * time.Second)
	serve(h, fromIP("10.0.0.2"))

	clock.t = clock.t.Add(45 * time.Second)
	l.Evict()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "remote addr", remote: "192.168.1.1:5555", want: "192.168.1.1"},
		{name: "forwarded for", header: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "10.0.0.1:1", want: "198.51.100.2"},
		{name: "no port", remote: "unix", want: "unix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
