package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client address and limit key.
type RateLimiter struct {
	limits   map[string]RateLimit
	mu       sync.Mutex
	visitors map[string]*rateEntry
	clockNow func() time.Time
	idleTTL  time.Duration
	// OnThrottle, when set, is called for every rejected request.
	OnThrottle func(key string)
}

func NewRateLimiter(limits map[string]RateLimit) *RateLimiter {
	return &RateLimiter{
		limits:   limits,
		visitors: make(map[string]*rateEntry),
		clockNow: time.Now,
		idleTTL:  5 * time.Minute,
	}
}

func (r *RateLimiter) Middleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			limit, ok := r.limits[key]
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			limiter := r.obtainLimiter(key+"|"+clientID(req), limit)
			if !limiter.AllowN(r.clockNow(), 1) {
				if r.OnThrottle != nil {
					r.OnThrottle(key)
				}
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) obtainLimiter(id string, cfg RateLimit) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clockNow()
	r.evictIdle(now)
	entry, ok := r.visitors[id]
	if ok {
		entry.lastSeen = now
		return entry.limiter
	}
	perSecond := cfg.RequestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	r.visitors[id] = &rateEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// evictIdle drops visitors not seen for idleTTL. Callers hold r.mu.
func (r *RateLimiter) evictIdle(now time.Time) {
	for id, entry := range r.visitors {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.visitors, id)
		}
	}
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		if parsed := net.ParseIP(strings.TrimSpace(first)); parsed != nil {
			return parsed.String()
		}
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
