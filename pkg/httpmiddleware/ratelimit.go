package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	// Max is the bucket size: requests a client may burst.
	Max int
	// Window is the time it takes to refill the whole bucket.
	Window time.Duration
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	cfg   RateLimitConfig
	every rate.Limit
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

// NewLimiter creates a Limiter. Max below 1 is treated as 1.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &Limiter{
		cfg:     cfg,
		every:   rate.Every(cfg.Window / time.Duration(cfg.Max)),
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

func (l *Limiter) reserve(key string) *rate.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.every, l.cfg.Max)}
		l.clients[key] = c
	}
	c.seen = now
	return c.limiter.ReserveN(now, 1)
}

// Evict drops clients idle for longer than a full window; their buckets
// would be full again anyway.
func (l *Limiter) Evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.Window)
	for key, c := range l.clients {
		if c.seen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Run evicts idle clients every window until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Evict()
		}
	}
}

// Middleware rejects requests of clients with an empty bucket with 429 and
// a Retry-After header.
func (l *Limiter) Middleware() Middleware {
	limit := strconv.Itoa(l.cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.reserve(l.cfg.KeyFunc(r))
			w.Header().Set("X-RateLimit-Limit", limit)

			now := l.now()
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// address host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
