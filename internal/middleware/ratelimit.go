package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate (tokens added per second).
	RequestsPerSecond float64
	// Burst is the maximum number of requests allowed at once.
	Burst int
}

// limiterPool hands out one token bucket per client address and evicts
// buckets that have been idle longer than idleTTL.
type limiterPool struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	cfg     RateLimitConfig
	idleTTL time.Duration
}

type clientEntry struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	p := &limiterPool{
		clients: make(map[string]*clientEntry),
		cfg:     cfg,
		idleTTL: 10 * time.Minute,
	}
	go p.evictLoop()
	return p
}

func (p *limiterPool) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		p.mu.Lock()
		for addr, e := range p.clients {
			if time.Since(e.lastSeen) > p.idleTTL {
				delete(p.clients, addr)
			}
		}
		p.mu.Unlock()
	}
}

func (p *limiterPool) get(addr string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.clients[addr]
	if !ok {
		e = &clientEntry{
			bucket: rate.NewLimiter(rate.Limit(p.cfg.RequestsPerSecond), p.cfg.Burst),
		}
		p.clients[addr] = e
	}
	e.lastSeen = time.Now()
	return e.bucket
}

// RateLimiter enforces a per-client token-bucket limit keyed by remote
// address. Rejected requests get a 429 with a Retry-After hint.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	pool := newLimiterPool(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := pool.get(clientIP(r))

			res := bucket.Reserve()
			if !res.OK() {
				writeRateLimited(w, 0)
				return
			}
			if delay := res.Delay(); delay > 0 {
				// Admitting the request would exceed the rate, so give the
				// token back and reject.
				res.Cancel()
				writeRateLimited(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(bucket.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. X-Forwarded-For is untrusted and
// ignored since spoofing it would bypass the limit.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    429,
		"message": "rate limit exceeded",
	})
}
